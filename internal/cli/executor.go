package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// ExecutorOptions contains configuration options for command execution.
type ExecutorOptions struct {
	// Format specifies the desired output format (table, json, yaml)
	Format OutputFormat
	// NoHeaders suppresses the header row in table output
	NoHeaders bool
	// Quiet suppresses progress indicators and non-essential output
	Quiet bool
	// Endpoint is the service the executed calls talk to, used in error messages.
	Endpoint string
	// Out receives results; defaults to stdout.
	Out io.Writer
	// ErrOut receives progress and failure notes; defaults to stderr.
	ErrOut io.Writer
}

// Executor runs a gateway call with a progress spinner and prints the
// result in the requested format. Errors are translated into the CLI
// error types so the exit code reflects authentication problems.
type Executor struct {
	options ExecutorOptions
	printer *Printer
}

// NewExecutor creates an Executor.
func NewExecutor(options ExecutorOptions) (*Executor, error) {
	if options.Format == "" {
		options.Format = OutputFormatTable
	}
	if err := ValidateOutputFormat(string(options.Format)); err != nil {
		return nil, err
	}
	if options.Out == nil {
		options.Out = os.Stdout
	}
	if options.ErrOut == nil {
		options.ErrOut = os.Stderr
	}
	return &Executor{
		options: options,
		printer: NewPrinter(options.Out, options.Format, options.NoHeaders),
	}, nil
}

// Printer returns the printer used for results.
func (e *Executor) Printer() *Printer {
	return e.printer
}

// Execute runs call under a spinner labelled operation and prints its result.
// A nil result prints nothing.
func (e *Executor) Execute(ctx context.Context, operation string, call func(ctx context.Context) (Renderable, error)) error {
	s := e.startSpinner(operation)

	result, err := call(ctx)
	if err != nil {
		e.stopSpinner(s, text.FgRed.Sprint("❌ "+operation+" failed"))
		return TranslateError(err, e.options.Endpoint, operation)
	}
	e.stopSpinner(s, "")

	if result == nil {
		return nil
	}
	return e.printer.Print(result)
}

// Notify prints a non-essential message unless quiet.
func (e *Executor) Notify(format string, args ...interface{}) {
	if e.options.Quiet {
		return
	}
	fmt.Fprintf(e.options.ErrOut, format+"\n", args...)
}

// Spin shows a spinner with msg until the returned function is called with
// a final message (which may be empty).
func (e *Executor) Spin(msg string) func(final string) {
	s := e.startSpinner(msg)
	return func(final string) {
		e.stopSpinner(s, final)
	}
}

func (e *Executor) startSpinner(msg string) *spinner.Spinner {
	// JSON and YAML output is meant for pipes.
	if e.options.Quiet || e.options.Format != OutputFormatTable {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(e.options.ErrOut))
	s.Suffix = " " + msg + "..."
	s.Start()
	return s
}

func (e *Executor) stopSpinner(s *spinner.Spinner, final string) {
	if s == nil {
		return
	}
	if final != "" {
		s.FinalMSG = final + "\n"
	}
	s.Stop()
}
