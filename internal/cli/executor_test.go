package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ems/internal/gateway"
)

func newTestExecutor(t *testing.T, format OutputFormat, quiet bool) (*Executor, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	e, err := NewExecutor(ExecutorOptions{
		Format:   format,
		Quiet:    quiet,
		Endpoint: "http://localhost:8888",
		Out:      &out,
		ErrOut:   &errOut,
	})
	require.NoError(t, err)
	return e, &out, &errOut
}

func TestNewExecutor_RejectsUnknownFormat(t *testing.T) {
	_, err := NewExecutor(ExecutorOptions{Format: "xml"})
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestNewExecutor_Defaults(t *testing.T) {
	e, err := NewExecutor(ExecutorOptions{})
	require.NoError(t, err)
	assert.Equal(t, OutputFormatTable, e.options.Format)
	assert.NotNil(t, e.options.Out)
	assert.NotNil(t, e.options.ErrOut)
	assert.Equal(t, OutputFormatTable, e.Printer().Format())
}

func TestExecutor_Execute(t *testing.T) {
	e, out, _ := newTestExecutor(t, OutputFormatJSON, false)

	err := e.Execute(context.Background(), "Listing fruit", func(ctx context.Context) (Renderable, error) {
		return fruits, nil
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"banana"`)
}

func TestExecutor_ExecuteNilResult(t *testing.T) {
	e, out, _ := newTestExecutor(t, OutputFormatTable, true)

	err := e.Execute(context.Background(), "Deleting fruit", func(ctx context.Context) (Renderable, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Empty(t, out.String())
}

func TestExecutor_ExecuteTranslatesErrors(t *testing.T) {
	e, out, _ := newTestExecutor(t, OutputFormatTable, true)

	err := e.Execute(context.Background(), "Listing fruit", func(ctx context.Context) (Renderable, error) {
		return nil, &gateway.ErrSessionExpired{Method: "GET", Path: "/fruit"}
	})
	assert.ErrorIs(t, err, &AuthExpiredError{})
	assert.Empty(t, out.String())

	plain := errors.New("boom")
	err = e.Execute(context.Background(), "Listing fruit", func(ctx context.Context) (Renderable, error) {
		return nil, plain
	})
	assert.Same(t, plain, err)
}

func TestExecutor_Notify(t *testing.T) {
	e, _, errOut := newTestExecutor(t, OutputFormatTable, false)
	e.Notify("Deleted department %d", 4)
	assert.Equal(t, "Deleted department 4\n", errOut.String())

	quiet, _, quietErr := newTestExecutor(t, OutputFormatTable, true)
	quiet.Notify("hidden")
	assert.Empty(t, quietErr.String())
}

func TestExecutor_SpinQuiet(t *testing.T) {
	e, _, errOut := newTestExecutor(t, OutputFormatTable, true)
	done := e.Spin("Waiting")
	done("finished")
	assert.Empty(t, errOut.String())
}
