package output

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/buginspector/pkg/bug"
	"github.com/ccollicutt/buginspector/pkg/store"
)

func TestNewJSONFormatter(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	require.NotNil(t, f)
	assert.Equal(t, "json", f.Name())
}

func TestJSONFormatter_Format(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	report := NewSummary(createTestStore(t), true)

	var buf bytes.Buffer
	require.NoError(t, f.Format(context.Background(), report, &buf))

	var parsed Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed), "output is not valid JSON")

	assert.Equal(t, 3, parsed.Statistics.Total)
	assert.Equal(t, 1, parsed.Statistics.BySeverity[bug.SeverityCritical])
	assert.Len(t, parsed.Bugs, 3)
	assert.Equal(t, 1, parsed.Metrics.ClosedBugs)
}

func TestJSONFormatter_Format_Quiet(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{Quiet: true})
	report := NewSummary(createTestStore(t), false)

	var buf bytes.Buffer
	require.NoError(t, f.Format(context.Background(), report, &buf))

	// Quiet mode only writes the statistics.
	var parsed store.Statistics
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, 3, parsed.Total)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.NotContains(t, raw, "bugs", "quiet output should not include records")
}

func TestJSONFormatter_Format_Empty(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	var buf bytes.Buffer
	require.NoError(t, f.Format(context.Background(), &Report{}, &buf))
	assert.True(t, json.Valid(buf.Bytes()), "output is not valid JSON")
}
