// Package cmd implements the exprsense command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oakwood-commons/exprsense/internal/completion"
	"github.com/oakwood-commons/exprsense/internal/config"
	"github.com/oakwood-commons/exprsense/internal/expr"
	"github.com/oakwood-commons/exprsense/internal/workflow"
	"github.com/oakwood-commons/exprsense/pkg/logger"
	"github.com/oakwood-commons/exprsense/pkg/settings"
)

// errNoData is returned when a command needs a snapshot and none is configured.
var errNoData = errors.WithHint(
	errors.New("no workflow snapshot given"),
	"pass --data FILE or set data_file in the config file",
)

// app carries state shared by the subcommands of one invocation.
type app struct {
	configFile string
	logLevel   string
	debug      bool

	run *settings.Run
	cfg *config.Config
}

// logger returns the logger attached by the root pre-run.
func (a *app) logger(ctx context.Context) logr.Logger {
	if ctx == nil {
		return *logger.GetNoopLogger()
	}
	return *logger.FromContext(ctx)
}

// dataFile prefers the flag value over the configured file.
func (a *app) dataFile(flag string) string {
	if flag != "" {
		return flag
	}
	if a.cfg != nil {
		return a.cfg.DataFile
	}
	return ""
}

// targetNode prefers the flag value over the configured node.
func (a *app) targetNode(flag string) string {
	if flag != "" {
		return flag
	}
	if a.cfg != nil {
		return a.cfg.TargetNode
	}
	return ""
}

func (a *app) providerOptions(lgr logr.Logger) []completion.ProviderOption {
	opts := []completion.ProviderOption{completion.WithLogger(lgr)}
	if a.cfg != nil {
		opts = append(opts, a.cfg.ProviderOptions()...)
	}
	return opts
}

// loadResolver reads a snapshot and returns a resolver over it.
func (a *app) loadResolver(ctx context.Context, path string) (*expr.Resolver, error) {
	if path == "" {
		return nil, errNoData
	}
	snap, err := workflow.Load(path, a.logger(ctx))
	if err != nil {
		return nil, err
	}
	eval, err := expr.NewEvaluator()
	if err != nil {
		return nil, errors.Wrap(err, "create expression environment")
	}
	return expr.NewResolver(eval, snap), nil
}

// setup loads configuration and installs the logger and run settings on the
// command context.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	levelName := cfg.LogLevel
	if a.logLevel != "" {
		levelName = a.logLevel
	}
	level, err := logger.ParseLevel(levelName)
	if err != nil {
		return err
	}
	if a.debug {
		level = logger.DebugLevel
	}
	a.run.MinLogLevel = level
	a.run.ConfigFile = config.ResolvePath(a.configFile)

	lgr := logger.Get(level)
	lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithLogger(ctx, lgr)
	ctx = settings.IntoContext(ctx, a.run)
	cmd.SetContext(ctx)
	return nil
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{run: settings.NewCliParams()}

	root := &cobra.Command{
		Use:   settings.CliBinaryName,
		Short: "Bracket-access completion for workflow expressions",
		Long: `exprsense suggests the keys and indices that can follow "[" in a workflow
expression such as ={{ $json['customer'][ }}. Candidates come from evaluating
the text before the bracket against a workflow snapshot file (JSON, YAML or
TOML). Use "complete" and "eval" from the shell or "serve" to run it as a
language server.`,
		Example: `  echo "={{ \$json['cu" | exprsense complete --data workflow.yaml --node Enrich -
  exprsense eval --data workflow.yaml '$vars.region'
  exprsense serve --data workflow.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       cliVersionString(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config-file", "", "path to a YAML config file (default $XDG_CONFIG_HOME/exprsense/config.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug|info|warn|error (default from config or info)")
	flags.BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newCompleteCmd(a),
		newEvalCmd(a),
		newServeCmd(a),
		newFunctionsCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and prints any error with its hints.
func Execute() error {
	root := NewRootCmd()
	err := root.ExecuteContext(context.Background())
	if err != nil {
		printError(root.ErrOrStderr(), err)
	}
	return err
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(w, "Hint: %s\n", hint)
	}
}

// cliVersionString is the one-line version shown by --version.
func cliVersionString() string {
	v := settings.VersionInformation
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)",
		settings.CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime, runtime.Version())
}

// addSnapshotFlags registers the flags shared by commands that read a
// snapshot.
func addSnapshotFlags(fs *pflag.FlagSet, data, node *string) {
	fs.StringVar(data, "data", "", "workflow snapshot file (default data_file from config)")
	fs.StringVar(node, "node", "", "target node (default target_node from config, then the active node)")
}

// readTextArg returns arg, or stdin when arg is "-".
func readTextArg(cmd *cobra.Command, arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", errors.Wrap(err, "read stdin")
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}
