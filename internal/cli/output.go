package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"sigs.k8s.io/yaml"
)

// OutputFormat represents the supported output formats for CLI commands.
type OutputFormat string

const (
	// OutputFormatTable formats output as a kubectl-style plain table
	OutputFormatTable OutputFormat = "table"
	// OutputFormatJSON formats output as indented JSON
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML formats output as YAML converted from the JSON form
	OutputFormatYAML OutputFormat = "yaml"
)

// ValidOutputFormats contains all valid output format values.
var ValidOutputFormats = []OutputFormat{
	OutputFormatTable,
	OutputFormatJSON,
	OutputFormatYAML,
}

// ValidateOutputFormat validates that the given format string is a supported output format.
func ValidateOutputFormat(format string) error {
	switch OutputFormat(format) {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %q (valid: table, json, yaml)", format)
	}
}

// Table is the tabular rendering of a command result.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Renderable is a command result. JSON and YAML output encode the value
// itself; table output renders Table().
type Renderable interface {
	Table() Table
}

// Printer writes command results in the selected format.
type Printer struct {
	out       io.Writer
	format    OutputFormat
	noHeaders bool
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer, format OutputFormat, noHeaders bool) *Printer {
	if format == "" {
		format = OutputFormatTable
	}
	return &Printer{out: out, format: format, noHeaders: noHeaders}
}

// Format returns the output format.
func (p *Printer) Format() OutputFormat {
	return p.format
}

// Print writes v.
func (p *Printer) Print(v Renderable) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(v)
	case OutputFormatYAML:
		return p.printYAML(v)
	default:
		p.printTable(v.Table())
		return nil
	}
}

func (p *Printer) printJSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

func (p *Printer) printYAML(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode YAML output: %w", err)
	}
	_, err = p.out.Write(data)
	return err
}

// plainStyle renders tables the way kubectl does: upper-case headers, no
// borders, columns separated by three spaces.
func plainStyle() table.Style {
	style := table.StyleDefault
	style.Name = "plain"
	style.Box.PaddingLeft = ""
	style.Box.PaddingRight = ""
	style.Box.MiddleVertical = "   "
	style.Format.Header = text.FormatUpper
	style.Options = table.Options{SeparateColumns: true}
	return style
}

func (p *Printer) printTable(t Table) {
	if len(t.Headers) == 0 {
		return
	}
	if len(t.Rows) == 0 && p.noHeaders {
		return
	}

	tw := table.NewWriter()
	tw.SetStyle(plainStyle())

	if !p.noHeaders {
		header := make(table.Row, len(t.Headers))
		for i, h := range t.Headers {
			header[i] = h
		}
		tw.AppendHeader(header)
	}
	for _, r := range t.Rows {
		row := make(table.Row, len(t.Headers))
		for i := range t.Headers {
			if i < len(r) {
				row[i] = r[i]
			} else {
				row[i] = ""
			}
		}
		tw.AppendRow(row)
	}

	for _, line := range strings.Split(tw.Render(), "\n") {
		fmt.Fprintln(p.out, strings.TrimRight(line, " "))
	}
}

// FormatSuccess formats a success message for CLI output
func FormatSuccess(msg string) string {
	return text.FgGreen.Sprintf("✓ %s", msg)
}

// FormatWarning formats a warning message for CLI output
func FormatWarning(msg string) string {
	return text.FgYellow.Sprintf("⚠ %s", msg)
}

// FormatError formats an error message for CLI output
func FormatError(err error) string {
	return text.FgRed.Sprintf("Error: %v", err)
}
