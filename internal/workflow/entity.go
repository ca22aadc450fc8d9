package workflow

import (
	"fmt"

	"github.com/deploymenttheory/go-oozie-composer/internal/common/errors"
)

// Payload is the executable body carried by a Task. The compiler passes it
// through to the emitted node untouched.
type Payload interface {
	ActionType() string
}

// Entity is one node or sub-tree of a workflow's control flow. The set of
// implementations is closed: *Task, *Kill, *Sequence, *Parallel and *Decision.
type Entity interface {
	// OnError returns the attached failure handler, or nil.
	OnError() Entity

	core() *entity
}

type entity struct {
	onError Entity
	owned   bool
}

func (e *entity) OnError() Entity { return e.onError }

func (e *entity) core() *entity { return e }

// Retry holds the optional retry attributes of a Task. Zero is a valid,
// explicitly set value; the Has flags tell set from unset.
type Retry struct {
	Max         uint
	Interval    uint
	HasMax      bool
	HasInterval bool
}

// Task is a leaf that runs a payload.
type Task struct {
	entity
	id         string
	payload    Payload
	credential string
	retry      Retry
}

// ID returns the action node identifier.
func (t *Task) ID() string { return t.id }

// Payload returns the action body the serializer renders.
func (t *Task) Payload() Payload { return t.payload }

// Credential returns the referenced credential name, or "".
func (t *Task) Credential() string { return t.credential }

// Retry returns the retry settings.
func (t *Task) Retry() Retry { return t.retry }

// Kill is a terminal node that ends the job unsuccessfully.
type Kill struct {
	entity
	id      string
	message string
}

// ID returns the kill node identifier.
func (k *Kill) ID() string { return k.id }

// Message returns the kill message.
func (k *Kill) Message() string { return k.message }

// Sequence runs its children in order. An empty Sequence is a no-op.
type Sequence struct {
	entity
	children []Entity
}

// Children returns the entities run in order.
func (s *Sequence) Children() []Entity { return s.children }

// Parallel runs its children concurrently between a fork and a join node.
type Parallel struct {
	entity
	forkID   string
	joinID   string
	children []Entity
}

// ForkID returns the identifier of the fork node.
func (p *Parallel) ForkID() string { return p.forkID }

// JoinID returns the identifier of the join node.
func (p *Parallel) JoinID() string { return p.joinID }

// Children returns the concurrent branches in emission order.
func (p *Parallel) Children() []Entity { return p.children }

// Case is one predicate/target branch of a Decision.
type Case struct {
	Predicate string
	Then      Entity
}

// Decision branches to the first case whose predicate holds, else to Default.
type Decision struct {
	entity
	id    string
	cases []Case
	def   Entity
}

// ID returns the decision node identifier.
func (d *Decision) ID() string { return d.id }

// Cases returns the predicate branches in evaluation order.
func (d *Decision) Cases() []Case { return d.cases }

// Default returns the branch taken when no case holds.
func (d *Decision) Default() Entity { return d.def }

// Option configures an entity under construction. Options that do not apply
// to the entity being built are ignored.
type Option func(*settings)

type settings struct {
	name       string
	onError    Entity
	credential string
	retry      Retry
}

// WithName derives the identifier from name instead of a generated token.
func WithName(name string) Option {
	return func(s *settings) { s.name = name }
}

// WithOnError attaches a failure handler. The handler becomes owned by the
// entity and may not be attached anywhere else.
func WithOnError(handler Entity) Option {
	return func(s *settings) { s.onError = handler }
}

// WithCredential references a credential declared by the enclosing document.
func WithCredential(name string) Option {
	return func(s *settings) { s.credential = name }
}

// WithRetryMax sets the retry-max attribute of a Task.
func WithRetryMax(n uint) Option {
	return func(s *settings) {
		s.retry.Max = n
		s.retry.HasMax = true
	}
}

// WithRetryInterval sets the retry-interval attribute (minutes) of a Task.
func WithRetryInterval(minutes uint) Option {
	return func(s *settings) {
		s.retry.Interval = minutes
		s.retry.HasInterval = true
	}
}

// Builder constructs entities, allocating their identifiers as it goes.
// A Builder is not safe for concurrent use unless its TokenSource is.
type Builder struct {
	alloc *Allocator
}

// NewBuilder returns a Builder drawing unnamed identifiers from tokens.
// A nil tokens uses random tokens.
func NewBuilder(tokens TokenSource) *Builder {
	return &Builder{alloc: NewAllocator(tokens)}
}

// Task builds an action node around payload.
func (b *Builder) Task(payload Payload, opts ...Option) (*Task, error) {
	s := applyOptions(opts)
	if payload == nil {
		return nil, fmt.Errorf("%w: task payload is required", errors.ErrInvalidArgument)
	}
	id, err := b.alloc.Allocate(PrefixAction, s.name)
	if err != nil {
		return nil, err
	}
	if err := attach(s.onError); err != nil {
		return nil, err
	}
	return &Task{
		entity:     entity{onError: s.onError},
		id:         id,
		payload:    payload,
		credential: s.credential,
		retry:      s.retry,
	}, nil
}

// Kill builds a terminal failure node.
func (b *Builder) Kill(message string, opts ...Option) (*Kill, error) {
	s := applyOptions(opts)
	id, err := b.alloc.Allocate(PrefixKill, s.name)
	if err != nil {
		return nil, err
	}
	if err := attach(s.onError); err != nil {
		return nil, err
	}
	return &Kill{
		entity:  entity{onError: s.onError},
		id:      id,
		message: message,
	}, nil
}

// Sequence chains children in order. WithName is ignored: a Sequence emits no
// node of its own.
func (b *Builder) Sequence(children []Entity, opts ...Option) (*Sequence, error) {
	s := applyOptions(opts)
	if err := attach(append(append([]Entity{}, children...), s.onError)...); err != nil {
		return nil, err
	}
	return &Sequence{
		entity:   entity{onError: s.onError},
		children: append([]Entity(nil), children...),
	}, nil
}

// Parallel fans out to children and joins them again. At least one child is
// required.
func (b *Builder) Parallel(children []Entity, opts ...Option) (*Parallel, error) {
	s := applyOptions(opts)
	if len(children) == 0 {
		return nil, &CompileError{Kind: KindEmptyParallel, Message: "at least 1 action required"}
	}
	forkID, joinID, err := b.alloc.Pair(PrefixFork, PrefixJoin, s.name)
	if err != nil {
		return nil, err
	}
	if err := attach(append(append([]Entity{}, children...), s.onError)...); err != nil {
		return nil, err
	}
	return &Parallel{
		entity:   entity{onError: s.onError},
		forkID:   forkID,
		joinID:   joinID,
		children: append([]Entity(nil), children...),
	}, nil
}

// Decision builds a switch node. def is required; cases keep their order.
func (b *Builder) Decision(cases []Case, def Entity, opts ...Option) (*Decision, error) {
	s := applyOptions(opts)
	if def == nil {
		return nil, &CompileError{Kind: KindMissingDefault, Message: "decision requires a default action"}
	}
	id, err := b.alloc.Allocate(PrefixDecision, s.name)
	if err != nil {
		return nil, err
	}
	targets := make([]Entity, 0, len(cases)+2)
	for _, c := range cases {
		targets = append(targets, c.Then)
	}
	if err := attach(append(targets, def, s.onError)...); err != nil {
		return nil, err
	}
	return &Decision{
		entity: entity{onError: s.onError},
		id:     id,
		cases:  append([]Case(nil), cases...),
		def:    def,
	}, nil
}

func applyOptions(opts []Option) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// attach claims ownership of every non-nil entity in es, or of none of them.
func attach(es ...Entity) error {
	seen := make(map[*entity]bool, len(es))
	for i, e := range es {
		if e == nil {
			// Only the trailing handler slot may be empty.
			if i == len(es)-1 {
				continue
			}
			return fmt.Errorf("%w: nil entity", errors.ErrInvalidArgument)
		}
		c := e.core()
		if c.owned || seen[c] {
			return &CompileError{
				Kind:    KindEntityReused,
				Names:   []string{describe(e)},
				Message: fmt.Sprintf("%s is already attached to another owner", describe(e)),
			}
		}
		seen[c] = true
	}
	for _, e := range es {
		if e != nil {
			e.core().owned = true
		}
	}
	return nil
}

// describe names an entity for error messages.
func describe(e Entity) string {
	switch v := e.(type) {
	case *Task:
		return fmt.Sprintf("Task(%s)", v.id)
	case *Kill:
		return fmt.Sprintf("Kill(%s)", v.id)
	case *Sequence:
		return fmt.Sprintf("Sequence(%d children)", len(v.children))
	case *Parallel:
		return fmt.Sprintf("Parallel(%s)", v.forkID)
	case *Decision:
		return fmt.Sprintf("Decision(%s)", v.id)
	default:
		return fmt.Sprintf("%T", e)
	}
}
