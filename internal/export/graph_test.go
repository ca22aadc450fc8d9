package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-oozie-composer/internal/common/errors"
	"github.com/deploymenttheory/go-oozie-composer/internal/common/plistutil"
	"github.com/deploymenttheory/go-oozie-composer/internal/oozie"
	"github.com/deploymenttheory/go-oozie-composer/internal/workflow"
)

func sampleGraph(t *testing.T) Graph {
	t.Helper()
	b := workflow.NewBuilder(workflow.NewSequenceTokenSource(0))

	a, err := b.Task(oozie.Shell{Exec: "a.sh"}, workflow.WithName("a"), workflow.WithRetryMax(2))
	require.NoError(t, err)
	c, err := b.Task(oozie.Shell{Exec: "c.sh"}, workflow.WithName("c"))
	require.NoError(t, err)
	fail, err := b.Kill("boom", workflow.WithName("fail"))
	require.NoError(t, err)
	fan, err := b.Parallel([]workflow.Entity{a, c}, workflow.WithName("fan"), workflow.WithOnError(fail))
	require.NoError(t, err)

	app, err := oozie.NewWorkflowApp("exported", fan)
	require.NoError(t, err)

	g, err := NewGraph(app.Name(), app.Start(), app.Nodes())
	require.NoError(t, err)
	return g
}

func ids(g Graph) []string {
	out := make([]string, 0, len(g.Nodes))
	for _, r := range g.Nodes {
		out = append(out, r.ID)
	}
	return out
}

func TestNewGraph(t *testing.T) {
	g := sampleGraph(t)

	assert.Equal(t, "exported", g.Name)
	assert.Equal(t, "fork-fan", g.Start)
	assert.Equal(t, []string{"kill-fail", "fork-fan", "action-a", "action-c", "join-fan"}, ids(g))

	fork := g.Nodes[1]
	assert.Equal(t, "fork", fork.Kind)
	assert.Equal(t, []string{"action-a", "action-c"}, fork.Paths)

	action := g.Nodes[2]
	assert.Equal(t, "shell", action.ActionType)
	assert.Equal(t, "join-fan", action.OK)
	assert.Equal(t, "kill-fail", action.Error)
	assert.Contains(t, action.Payload, "<exec>a.sh</exec>")
	require.NotNil(t, action.RetryMax)
	assert.Equal(t, uint(2), *action.RetryMax)
	assert.Nil(t, action.RetryInterval)

	assert.Equal(t, "boom", g.Nodes[0].Message)
	assert.Equal(t, "end", g.Nodes[4].OK)
}

func TestMarshal_RoundTrip(t *testing.T) {
	g := sampleGraph(t)

	for _, format := range []Format{FormatJSON, FormatYAML, FormatPlist} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Marshal(g, format)
			require.NoError(t, err)

			decoded, err := Unmarshal(data, format)
			require.NoError(t, err)
			assert.Equal(t, g.Start, decoded.Start)
			assert.Equal(t, ids(g), ids(decoded))
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatJSON},
		{"JSON", FormatJSON},
		{"yml", FormatYAML},
		{"plist", FormatPlist},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("toml")
	assert.ErrorIs(t, err, errors.ErrUnsupportedFormat)

	_, err = Marshal(Graph{}, Format("toml"))
	assert.ErrorIs(t, err, errors.ErrUnsupportedFormat)
}

func TestMarshal_PlistFormats(t *testing.T) {
	g := sampleGraph(t)

	xmlData, err := Marshal(g, FormatPlist)
	require.NoError(t, err)
	assert.Contains(t, string(xmlData), "<plist")

	binary, err := Marshal(g, FormatPlist, WithPlistFormat(plistutil.FormatBinary))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(binary, []byte("bplist00")))

	decoded, err := Unmarshal(binary, FormatPlist)
	require.NoError(t, err)
	assert.Equal(t, ids(g), ids(decoded))
}
