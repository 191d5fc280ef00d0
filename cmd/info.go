package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/exprsense/internal/expr"
	"github.com/oakwood-commons/exprsense/internal/formatter"
	"github.com/oakwood-commons/exprsense/pkg/settings"
)

func newVersionCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print exprsense version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			run, err := selectOutput(cmd, output, outputText, outputJSON, outputYAML)
			if err != nil {
				return err
			}
			if run.Output == outputText {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), cliVersionString())
				return err
			}
			return renderStructured(cmd.OutOrStdout(), settings.VersionInformation, run.Output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text|json|yaml")
	return cmd
}

func newFunctionsCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "functions [PREFIX]",
		Short: "List the functions available in expressions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := selectOutput(cmd, output, outputTable, outputJSON, outputYAML)
			if err != nil {
				return err
			}
			eval, err := expr.NewEvaluator()
			if err != nil {
				return errors.Wrap(err, "create expression environment")
			}
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			fns := filterFunctions(expr.DiscoverFunctionsFromEnv(eval.Environment()), prefix)
			a.logger(cmd.Context()).V(1).Info("listing functions", "prefix", prefix, "count", len(fns))
			if run.Output != outputTable {
				return renderStructured(cmd.OutOrStdout(), fns, run.Output)
			}
			return renderFunctionTable(cmd.OutOrStdout(), fns)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table|json|yaml")
	return cmd
}

func filterFunctions(fns []expr.Function, prefix string) []expr.Function {
	if prefix == "" {
		return fns
	}
	out := make([]expr.Function, 0, len(fns))
	for _, fn := range fns {
		if strings.HasPrefix(fn.Name, prefix) {
			out = append(out, fn)
		}
	}
	return out
}

func renderFunctionTable(w io.Writer, fns []expr.Function) error {
	rows := make([][]string, len(fns))
	for i, fn := range fns {
		rows[i] = []string{fn.Name, fn.Usage}
	}
	_, err := io.WriteString(w, formatter.RenderTable([]string{"NAME", "USAGE"}, rows, outputWidth(w)))
	return err
}
