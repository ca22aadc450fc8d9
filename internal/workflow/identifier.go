package workflow

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/deploymenttheory/go-oozie-composer/internal/common/errors"
)

const (
	// MaxIdentifierLength is the longest node identifier the workflow schema accepts.
	MaxIdentifierLength = 50

	// MaxNameLength bounds the workflow-app name attribute.
	MaxNameLength = 255

	tokenLength = 8
)

// Identifier prefixes, one per emitted node kind.
const (
	PrefixAction   = "action"
	PrefixKill     = "kill"
	PrefixFork     = "fork"
	PrefixJoin     = "join"
	PrefixDecision = "decision"
)

var identifierPattern = regexp.MustCompile(
	`^[a-zA-Z_][\-_a-zA-Z0-9]{0,` + strconv.Itoa(MaxIdentifierLength-1) + `}$`)

// TokenSource produces the opaque tokens used for unnamed entities.
// Implementations shared between goroutines must be safe for concurrent use.
type TokenSource interface {
	Token() string
}

// RandomTokenSource draws tokens from random UUIDs.
type RandomTokenSource struct{}

// Token returns the first eight hex digits of a fresh version 4 UUID.
func (RandomTokenSource) Token() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:tokenLength]
}

// SequenceTokenSource hands out zero-padded hex tokens from an atomic counter.
// Two sources created the same way yield the same sequence, which keeps test
// fixtures and --deterministic output reproducible.
type SequenceTokenSource struct {
	next atomic.Uint64
}

// NewSequenceTokenSource returns a source whose first token is start.
func NewSequenceTokenSource(start uint64) *SequenceTokenSource {
	s := &SequenceTokenSource{}
	s.next.Store(start)
	return s
}

// Token returns the next token in the sequence.
func (s *SequenceTokenSource) Token() string {
	n := s.next.Add(1) - 1
	return fmt.Sprintf("%0*x", tokenLength, n)
}

// Allocator derives validated node identifiers.
type Allocator struct {
	tokens TokenSource
}

// NewAllocator returns an allocator drawing from tokens, or from a
// RandomTokenSource when tokens is nil.
func NewAllocator(tokens TokenSource) *Allocator {
	if tokens == nil {
		tokens = RandomTokenSource{}
	}
	return &Allocator{tokens: tokens}
}

// Allocate returns "{prefix}-{name}", or "{prefix}-{token}" when name is empty.
func (a *Allocator) Allocate(prefix, name string) (string, error) {
	if name == "" {
		name = a.tokens.Token()
	}
	return ValidateIdentifier(prefix + "-" + name)
}

// Pair returns two identifiers sharing one suffix, as used by fork/join.
func (a *Allocator) Pair(firstPrefix, secondPrefix, name string) (string, string, error) {
	if name == "" {
		name = a.tokens.Token()
	}
	first, err := ValidateIdentifier(firstPrefix + "-" + name)
	if err != nil {
		return "", "", err
	}
	second, err := ValidateIdentifier(secondPrefix + "-" + name)
	if err != nil {
		return "", "", err
	}
	return first, second, nil
}

// ValidateIdentifier checks id against the node naming grammar.
func ValidateIdentifier(id string) (string, error) {
	if len(id) > MaxIdentifierLength {
		return "", &CompileError{
			Kind:    KindInvalidIdentifier,
			Names:   []string{id},
			Message: fmt.Sprintf("identifier must be at most %d chars long, %q is %d", MaxIdentifierLength, id, len(id)),
		}
	}
	if !identifierPattern.MatchString(id) {
		return "", &CompileError{
			Kind:    KindInvalidIdentifier,
			Names:   []string{id},
			Message: fmt.Sprintf("identifier must match %s, %q does not", identifierPattern.String(), id),
		}
	}
	return id, nil
}

// ValidateName checks a workflow-app name: bounded length, printable ASCII only.
func ValidateName(name string) (string, error) {
	if len(name) > MaxNameLength {
		return "", fmt.Errorf("%w: name must be at most %d chars long, %q is %d",
			errors.ErrInvalidName, MaxNameLength, name, len(name))
	}
	for _, c := range name {
		if c < ' ' || c > '~' {
			return "", fmt.Errorf("%w: name must be comprised of printable ASCII characters, %q is not",
				errors.ErrInvalidName, name)
		}
	}
	return name, nil
}
