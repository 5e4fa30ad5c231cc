package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableRender(t *testing.T) {
	var buf bytes.Buffer
	table := NewTableWithWriter(&buf, []string{"term", "searches"})
	table.AddRow("dune", "3")
	table.AddRow("heat", "12")
	assert.Equal(t, 2, table.Len())

	require.NoError(t, table.Render())

	out := buf.String()
	assert.Contains(t, out, "TERM")
	assert.Contains(t, out, "SEARCHES")
	assert.Contains(t, out, "dune")
	assert.Contains(t, out, "12")
	assert.NotContains(t, out, "+-")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	var dune, heat string
	for _, line := range lines {
		switch {
		case strings.Contains(line, "dune"):
			dune = line
		case strings.Contains(line, "heat"):
			heat = line
		}
	}
	require.NotEmpty(t, dune)
	require.NotEmpty(t, heat)
	// left-aligned columns start at the same offset
	assert.Equal(t, strings.Index(dune, "3"), strings.Index(heat, "12"))
}
