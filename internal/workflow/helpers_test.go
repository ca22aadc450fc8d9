package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakePayload struct {
	name string
}

func (fakePayload) ActionType() string { return "fake" }

// fixture wraps a Builder with a deterministic token source and fails the
// test on any construction error.
type fixture struct {
	t *testing.T
	b *Builder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{t: t, b: NewBuilder(NewSequenceTokenSource(0))}
}

func (f *fixture) task(name string, opts ...Option) *Task {
	f.t.Helper()
	task, err := f.b.Task(fakePayload{name: name}, append([]Option{WithName(name)}, opts...)...)
	require.NoError(f.t, err)
	return task
}

func (f *fixture) kill(name string) *Kill {
	f.t.Helper()
	k, err := f.b.Kill("failed", WithName(name))
	require.NoError(f.t, err)
	return k
}

func (f *fixture) seq(children []Entity, opts ...Option) *Sequence {
	f.t.Helper()
	s, err := f.b.Sequence(children, opts...)
	require.NoError(f.t, err)
	return s
}

func (f *fixture) par(children []Entity, opts ...Option) *Parallel {
	f.t.Helper()
	p, err := f.b.Parallel(children, opts...)
	require.NoError(f.t, err)
	return p
}

func es(entities ...Entity) []Entity { return entities }

// byID indexes compiled nodes and fails on duplicates.
func byID(t *testing.T, nodes []Node) map[string]Node {
	t.Helper()
	index := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		_, dup := index[n.ID]
		require.Falsef(t, dup, "node %s emitted twice", n.ID)
		index[n.ID] = n
	}
	return index
}
