package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// templateOf wraps a bare expression in ={{ }}. Text that already contains
// a {{ }} block is used as is.
func templateOf(text string) string {
	if strings.Contains(text, "{{") {
		return text
	}
	return "={{ " + text + " }}"
}

func newEvalCmd(a *app) *cobra.Command {
	var (
		data   string
		node   string
		output string
	)
	cmd := &cobra.Command{
		Use:   "eval [flags] EXPRESSION",
		Short: "Evaluate an expression against a workflow snapshot",
		Long: `Evaluate EXPRESSION relative to --node. EXPRESSION may be a bare expression
such as $json.customer or a template such as "={{ $json.customer }}".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := selectOutput(cmd, output, outputJSON, outputYAML, outputText)
			if err != nil {
				return err
			}
			text, err := readTextArg(cmd, args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			resolver, err := a.loadResolver(ctx, a.dataFile(data))
			if err != nil {
				return err
			}
			tmpl := templateOf(text)
			v, err := resolver.Resolve(tmpl, a.targetNode(node))
			if err != nil {
				return err
			}
			a.logger(ctx).V(1).Info("evaluated expression", "template", tmpl, "kind", v.Kind().String())
			if run.Output == outputText {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), v.Text())
				return err
			}
			return renderStructured(cmd.OutOrStdout(), v, run.Output)
		},
	}
	addSnapshotFlags(cmd.Flags(), &data, &node)
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "output format: json|yaml|text")
	return cmd
}
