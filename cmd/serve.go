package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/exprsense/internal/completion"
	"github.com/oakwood-commons/exprsense/internal/lsp"
	"github.com/oakwood-commons/exprsense/pkg/logger"
	"github.com/oakwood-commons/exprsense/pkg/settings"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		data  string
		node  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the language server on stdin and stdout",
		Long: `Run a Language Server Protocol server on stdio. The snapshot can be given
with --data or by the client through the "dataFile" initialization option.
Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := newLSPHandler(cmd, a, data, node, watch)
			if err != nil {
				return err
			}
			defer func() { _ = h.Close() }()
			run := runSettings(cmd.Context())
			a.logger(cmd.Context()).V(1).Info("starting language server",
				"config_file", run.ConfigFile, "data_file", a.dataFile(data), "watch", watch)
			return lsp.ServeStdio(h, protocolTrace(run))
		},
	}
	addSnapshotFlags(cmd.Flags(), &data, &node)
	cmd.Flags().BoolVar(&watch, "watch", true, "reload the data file when it changes")
	return cmd
}

// protocolTrace reports whether the server logs protocol traffic, which it
// does at debug level.
func protocolTrace(run *settings.Run) bool {
	return run.MinLogLevel <= logger.DebugLevel
}

// newLSPHandler builds a handler from the command flags and configuration.
func newLSPHandler(cmd *cobra.Command, a *app, data, node string, watch bool) (*lsp.Handler, error) {
	ctx := cmd.Context()
	lgr := a.logger(ctx)
	opts := lsp.Options{
		Name:       settings.CliBinaryName,
		Version:    settings.VersionInformation.BuildVersion,
		TargetNode: a.targetNode(node),
		LoadResolver: func(path string) (completion.Resolver, error) {
			return a.loadResolver(ctx, path)
		},
		Logger:    lgr,
		WatchData: watch,
	}
	if a.cfg != nil {
		opts.ProviderOptions = a.cfg.ProviderOptions()
	}
	h := lsp.NewHandler(opts)
	if path := a.dataFile(data); path != "" {
		if err := h.LoadDataFile(path); err != nil {
			return nil, err
		}
	}
	return h, nil
}
