package workflow

// NodeKind tags a flat graph node.
type NodeKind int

const (
	NodeAction NodeKind = iota
	NodeKill
	NodeFork
	NodeJoin
	NodeDecision
)

func (k NodeKind) String() string {
	switch k {
	case NodeAction:
		return "action"
	case NodeKill:
		return "kill"
	case NodeFork:
		return "fork"
	case NodeJoin:
		return "join"
	case NodeDecision:
		return "decision"
	default:
		return "unknown"
	}
}

// Transition is one labeled outgoing edge of a decision node.
type Transition struct {
	Predicate string
	To        string
}

// Node is one element of the compiled graph. Which fields are set depends on
// Kind:
//
//	action:   Payload, Credential, Retry, OK, Error
//	kill:     Message
//	fork:     Paths
//	join:     OK
//	decision: Cases, Default
type Node struct {
	Kind       NodeKind
	ID         string
	Payload    Payload
	Credential string
	Retry      Retry
	OK         string
	Error      string
	Message    string
	Paths      []string
	Cases      []Transition
	Default    string
}
