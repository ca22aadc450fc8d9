package workflow

import "fmt"

// EndNode is the identifier of the terminal success node every document ends with.
const EndNode = "end"

// Compile lowers root into a flat node list. Control leaves the graph through
// onSuccess when root completes and through onFailure when it fails with no
// handler of its own; an empty onFailure routes unhandled failures to
// onSuccess.
//
// Compile assumes root passed Validate. Identical trees built from identical
// token sequences produce identical output.
func Compile(root Entity, onSuccess, onFailure string) []Node {
	c := &compiler{}
	if root != nil {
		c.emit(root, onSuccess, onFailure)
	}
	return c.nodes
}

// Entry returns the identifier a predecessor must transition to in order to
// run e, given that e continues to next on success. Sequences resolve through
// to their first emitting child, or to next when they emit nothing.
func Entry(e Entity, next string) string {
	switch v := e.(type) {
	case nil:
		return next
	case *Task:
		return v.id
	case *Kill:
		return v.id
	case *Parallel:
		return v.forkID
	case *Decision:
		return v.id
	case *Sequence:
		return chainEntry(v.children, next)
	default:
		panic(fmt.Sprintf("workflow: unknown entity %T", e))
	}
}

// chainEntry folds from the right so that empty sequences stay transparent.
func chainEntry(children []Entity, next string) string {
	for i := len(children) - 1; i >= 0; i-- {
		next = Entry(children[i], next)
	}
	return next
}

// EmptyBranches returns the indexes of p's branches that emit no node and
// so take the fork straight to the join.
func EmptyBranches(p *Parallel) []int {
	var empty []int
	for i, child := range p.children {
		if Entry(child, p.joinID) == p.joinID {
			empty = append(empty, i)
		}
	}
	return empty
}

type compiler struct {
	nodes []Node
}

// failureTarget emits e's handler, if any, and returns where e's own nodes
// route unhandled failures.
func (c *compiler) failureTarget(e Entity, onSuccess, onFailure string) string {
	if handler := e.OnError(); handler != nil {
		c.emit(handler, onSuccess, onFailure)
		return Entry(handler, onSuccess)
	}
	if onFailure != "" {
		return onFailure
	}
	return onSuccess
}

func (c *compiler) emit(e Entity, onSuccess, onFailure string) {
	onError := c.failureTarget(e, onSuccess, onFailure)

	switch v := e.(type) {
	case *Task:
		c.nodes = append(c.nodes, Node{
			Kind:       NodeAction,
			ID:         v.id,
			Payload:    v.payload,
			Credential: v.credential,
			Retry:      v.retry,
			OK:         onSuccess,
			Error:      onError,
		})

	case *Kill:
		c.nodes = append(c.nodes, Node{
			Kind:    NodeKill,
			ID:      v.id,
			Message: v.message,
		})

	case *Sequence:
		for i, child := range v.children {
			c.emit(child, chainEntry(v.children[i+1:], onSuccess), onError)
		}

	case *Parallel:
		paths := make([]string, len(v.children))
		for i, child := range v.children {
			paths[i] = Entry(child, v.joinID)
		}
		c.nodes = append(c.nodes, Node{Kind: NodeFork, ID: v.forkID, Paths: paths})
		for _, child := range v.children {
			c.emit(child, v.joinID, onError)
		}
		c.nodes = append(c.nodes, Node{Kind: NodeJoin, ID: v.joinID, OK: onSuccess})

	case *Decision:
		cases := make([]Transition, len(v.cases))
		for i, cs := range v.cases {
			cases[i] = Transition{Predicate: cs.Predicate, To: Entry(cs.Then, onSuccess)}
		}
		c.nodes = append(c.nodes, Node{
			Kind:    NodeDecision,
			ID:      v.id,
			Cases:   cases,
			Default: Entry(v.def, onSuccess),
		})
		c.emit(v.def, onSuccess, onError)
		for _, cs := range v.cases {
			c.emit(cs.Then, onSuccess, onError)
		}

	default:
		panic(fmt.Sprintf("workflow: unknown entity %T", e))
	}
}
