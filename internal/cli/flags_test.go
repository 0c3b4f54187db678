package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandFlags_ToExecutorOptions_ValidatesFormat(t *testing.T) {
	tests := []struct {
		name         string
		outputFormat string
		wantErr      bool
	}{
		{name: "valid table format", outputFormat: "table"},
		{name: "valid json format", outputFormat: "json"},
		{name: "valid yaml format", outputFormat: "yaml"},
		{name: "invalid format returns error", outputFormat: "invalid", wantErr: true},
		{name: "empty format returns error", outputFormat: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := &CommandFlags{OutputFormat: tt.outputFormat, Quiet: true, NoHeaders: true}
			opts, err := flags.ToExecutorOptions("http://localhost:8888", &bytes.Buffer{}, &bytes.Buffer{})
			if tt.wantErr {
				assert.ErrorContains(t, err, "unsupported output format")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, OutputFormat(tt.outputFormat), opts.Format)
			assert.True(t, opts.Quiet)
			assert.True(t, opts.NoHeaders)
			assert.Equal(t, "http://localhost:8888", opts.Endpoint)
		})
	}
}

func TestRegisterCommonFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	var flags CommandFlags
	RegisterCommonFlags(cmd, &flags)

	for _, name := range []string{"output", "no-headers", "quiet", "debug", "config"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "flag %s", name)
	}

	cmd.SetArgs([]string{"-o", "json", "--quiet", "--config", "/tmp/ems.yaml"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "json", flags.OutputFormat)
	assert.True(t, flags.Quiet)
	assert.False(t, flags.Debug)
	assert.Equal(t, "/tmp/ems.yaml", flags.ConfigPath)
}
