package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/deploymenttheory/go-oozie-composer/internal/common/errors"
)

func TestBuilder_Task(t *testing.T) {
	b := NewBuilder(NewSequenceTokenSource(0))

	task, err := b.Task(fakePayload{name: "p"},
		WithCredential("hcat"),
		WithRetryMax(0),
		WithRetryInterval(5),
	)
	require.NoError(t, err)

	assert.Equal(t, "action-00000000", task.ID())
	assert.Equal(t, fakePayload{name: "p"}, task.Payload())
	assert.Equal(t, "hcat", task.Credential())
	assert.Equal(t, Retry{Max: 0, Interval: 5, HasMax: true, HasInterval: true}, task.Retry())
	assert.Nil(t, task.OnError())
}

func TestBuilder_TaskRequiresPayload(t *testing.T) {
	b := NewBuilder(nil)

	_, err := b.Task(nil)
	assert.ErrorIs(t, err, commonerrors.ErrInvalidArgument)
}

func TestBuilder_InvalidName(t *testing.T) {
	b := NewBuilder(nil)

	_, err := b.Kill("msg", WithName("bad name"))
	assert.ErrorIs(t, err, commonerrors.ErrInvalidIdentifier)

	_, err = b.Parallel([]Entity{mustTask(t, b)}, WithName("bad.name"))
	assert.ErrorIs(t, err, commonerrors.ErrInvalidIdentifier)
}

func TestBuilder_EmptyParallel(t *testing.T) {
	b := NewBuilder(nil)

	_, err := b.Parallel(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, commonerrors.ErrEmptyParallel)

	var compileErr *CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, KindEmptyParallel, compileErr.Kind)
	assert.Equal(t, "EmptyParallel", compileErr.Kind.String())
}

func TestBuilder_DecisionRequiresDefault(t *testing.T) {
	b := NewBuilder(nil)

	_, err := b.Decision([]Case{{Predicate: "${x}", Then: mustTask(t, b)}}, nil)
	assert.ErrorIs(t, err, commonerrors.ErrMissingDefault)
}

func TestBuilder_OwnershipTransfer(t *testing.T) {
	b := NewBuilder(nil)

	handler := mustTask(t, b)
	_, err := b.Task(fakePayload{}, WithOnError(handler))
	require.NoError(t, err)

	_, err = b.Task(fakePayload{}, WithOnError(handler))
	assert.ErrorIs(t, err, commonerrors.ErrEntityReused)

	child := mustTask(t, b)
	_, err = b.Sequence([]Entity{child, child})
	assert.ErrorIs(t, err, commonerrors.ErrEntityReused)

	// A failed construction claims nothing.
	_, err = b.Sequence([]Entity{child})
	assert.NoError(t, err)
}

func TestBuilder_NilChild(t *testing.T) {
	b := NewBuilder(nil)

	_, err := b.Sequence([]Entity{mustTask(t, b), nil})
	assert.ErrorIs(t, err, commonerrors.ErrInvalidArgument)
}

func TestBuilder_ChildrenAreCopied(t *testing.T) {
	b := NewBuilder(nil)

	children := []Entity{mustTask(t, b)}
	seq, err := b.Sequence(children)
	require.NoError(t, err)

	children[0] = nil
	assert.NotNil(t, seq.Children()[0])
}

func mustTask(t *testing.T, b *Builder) *Task {
	t.Helper()
	task, err := b.Task(fakePayload{})
	require.NoError(t, err)
	return task
}
