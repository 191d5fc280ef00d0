package cmd

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/exprsense/internal/completion"
)

func newCompleteCmd(a *app) *cobra.Command {
	var (
		data     string
		node     string
		output   string
		cursor   int
		explicit bool
	)
	cmd := &cobra.Command{
		Use:   "complete [flags] TEXT",
		Short: "Suggest the keys that can follow the last bracket in TEXT",
		Long: `Suggest bracket-access completions for TEXT with the cursor at --cursor
(a byte offset, default end of text). Pass "-" to read TEXT from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := selectOutput(cmd, output, outputTable, outputJSON, outputYAML)
			if err != nil {
				return err
			}
			text, err := readTextArg(cmd, args[0])
			if err != nil {
				return err
			}
			pos := cursor
			if pos < 0 {
				pos = len(text)
			}
			if pos > len(text) {
				return errors.Newf("cursor %d is past the end of the text (%d bytes)", pos, len(text))
			}

			ctx := cmd.Context()
			lgr := a.logger(ctx)
			resolver, err := a.loadResolver(ctx, a.dataFile(data))
			if err != nil {
				return err
			}
			provider := completion.NewProvider(resolver, a.providerOptions(lgr)...)
			res := provider.Complete(completion.Request{
				Text:       text,
				Cursor:     pos,
				Explicit:   explicit,
				TargetNode: a.targetNode(node),
			})
			return renderCompletion(cmd.OutOrStdout(), res, run.Output)
		},
	}
	addSnapshotFlags(cmd.Flags(), &data, &node)
	cmd.Flags().IntVar(&cursor, "cursor", -1, "cursor byte offset (default end of text)")
	cmd.Flags().BoolVar(&explicit, "explicit", false, "treat the request as explicitly invoked")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table|json|yaml")
	return cmd
}
