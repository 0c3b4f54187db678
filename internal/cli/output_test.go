package cli

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fruit struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type fruitList []fruit

func (l fruitList) Table() Table {
	t := Table{Headers: []string{"id", "name", "color"}}
	for _, f := range l {
		t.Rows = append(t.Rows, []string{strconv.Itoa(f.ID), f.Name, f.Color})
	}
	return t
}

var fruits = fruitList{{ID: 1, Name: "apple", Color: "red"}, {ID: 2, Name: "banana"}}

func TestValidateOutputFormat(t *testing.T) {
	for _, f := range ValidOutputFormats {
		assert.NoError(t, ValidateOutputFormat(string(f)))
	}
	assert.ErrorContains(t, ValidateOutputFormat("wide"), "unsupported output format")
	assert.ErrorContains(t, ValidateOutputFormat(""), "unsupported output format")
}

func TestPrinter_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, OutputFormatTable, false).Print(fruits))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ID", "NAME", "COLOR"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1", "apple", "red"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2", "banana"}, strings.Fields(lines[2]))
	assert.NotContains(t, buf.String(), "|")
	for _, line := range lines {
		assert.Equal(t, strings.TrimRight(line, " "), line)
	}
}

func TestPrinter_TableNoHeaders(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, OutputFormatTable, true).Print(fruits))
	assert.NotContains(t, buf.String(), "NAME")
	assert.Contains(t, buf.String(), "apple")

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, OutputFormatTable, true).Print(fruitList{}))
	assert.Empty(t, buf.String())
}

func TestPrinter_JSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, OutputFormatJSON, false)
	require.NoError(t, p.Print(fruits))
	assert.JSONEq(t, `[{"id":1,"name":"apple","color":"red"},{"id":2,"name":"banana"}]`, buf.String())
	assert.Equal(t, OutputFormatJSON, p.Format())
}

func TestPrinter_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, OutputFormatYAML, false).Print(fruits))
	assert.YAMLEq(t, `
- id: 1
  name: apple
  color: red
- id: 2
  name: banana
`, buf.String())
}

func TestNewPrinter_DefaultsToTable(t *testing.T) {
	assert.Equal(t, OutputFormatTable, NewPrinter(&bytes.Buffer{}, "", false).Format())
}

func TestFormatMessages(t *testing.T) {
	assert.Contains(t, FormatSuccess("done"), "✓ done")
	assert.Contains(t, FormatWarning("careful"), "⚠ careful")
	assert.Contains(t, FormatError(assert.AnError), "Error: "+assert.AnError.Error())
}
