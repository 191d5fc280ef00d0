package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/exprsense/internal/completion"
	"github.com/oakwood-commons/exprsense/internal/formatter"
	"github.com/oakwood-commons/exprsense/pkg/settings"
)

// Output formats accepted by -o.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
	outputText  = "text"
)

// errInvalidOutput is returned for an unsupported -o value.
var errInvalidOutput = errors.New("invalid output format")

func validateOutput(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return errors.WithHintf(errors.Wrapf(errInvalidOutput, "%q", format), "use one of %v", allowed)
}

// runSettings returns the run settings attached by the root pre-run, or the
// defaults when there are none.
func runSettings(ctx context.Context) *settings.Run {
	if ctx != nil {
		if run, ok := settings.FromContext(ctx); ok {
			return run
		}
	}
	return settings.NewCliParams()
}

// selectOutput validates format and records it as the run's output.
func selectOutput(cmd *cobra.Command, format string, allowed ...string) (*settings.Run, error) {
	if err := validateOutput(format, allowed...); err != nil {
		return nil, err
	}
	run := runSettings(cmd.Context())
	run.Output = format
	return run, nil
}

// completionReport is the machine-readable form of a completion result.
type completionReport struct {
	From    int            `json:"from" yaml:"from"`
	To      int            `json:"to" yaml:"to"`
	Tail    string         `json:"tail" yaml:"tail"`
	Options []optionReport `json:"options" yaml:"options"`
}

type optionReport struct {
	Label string `json:"label" yaml:"label"`
	Kind  string `json:"kind" yaml:"kind"`
	Match [2]int `json:"match" yaml:"match,flow"`
}

func newCompletionReport(res *completion.Result) *completionReport {
	if res == nil {
		return nil
	}
	r := &completionReport{From: res.From, To: res.To, Tail: res.Tail, Options: make([]optionReport, len(res.Options))}
	for i, opt := range res.Options {
		start, end := res.GetMatch(opt)
		r.Options[i] = optionReport{Label: opt.Label, Kind: string(opt.Kind), Match: [2]int{start, end}}
	}
	return r
}

// renderCompletion writes res in the requested format. A nil result prints
// "no completions" as a table and null as JSON or YAML.
func renderCompletion(w io.Writer, res *completion.Result, format string) error {
	report := newCompletionReport(res)
	switch format {
	case outputJSON, outputYAML:
		return renderStructured(w, report, format)
	}
	if report == nil {
		_, err := fmt.Fprintln(w, "no completions")
		return err
	}
	rows := make([][]string, len(report.Options))
	for i, opt := range report.Options {
		rows[i] = []string{opt.Label, opt.Kind, fmt.Sprintf("%d-%d", opt.Match[0], opt.Match[1])}
	}
	fmt.Fprintf(w, "replace %d-%d (tail %s)\n", report.From, report.To, strconv.Quote(report.Tail))
	_, err := io.WriteString(w, formatter.RenderTable([]string{"LABEL", "KIND", "MATCH"}, rows, outputWidth(w)))
	return err
}

// renderStructured writes v as JSON or YAML.
func renderStructured(w io.Writer, v any, format string) error {
	var (
		out string
		err error
	)
	if format == outputYAML {
		out, err = formatter.FormatYAML(v, formatter.YAMLFormatOptions{LiteralBlockStrings: true})
	} else {
		out, err = formatter.FormatJSON(v)
	}
	if err != nil {
		return errors.Wrapf(err, "render %s", format)
	}
	_, err = io.WriteString(w, out)
	return err
}

// outputWidth is the terminal width when w is a terminal, otherwise 0.
func outputWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		return formatter.TerminalWidth(f)
	}
	return 0
}
