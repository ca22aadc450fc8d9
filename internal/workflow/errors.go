package workflow

import (
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-oozie-composer/internal/common/errors"
)

// ErrorKind classifies construction and validation failures.
type ErrorKind int

const (
	KindInvalidIdentifier ErrorKind = iota
	KindEmptyParallel
	KindMissingDefault
	KindEntityReused
	KindDuplicateIdentifier
	KindMissingCredential
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidIdentifier:
		return "InvalidIdentifier"
	case KindEmptyParallel:
		return "EmptyParallel"
	case KindMissingDefault:
		return "MissingDefault"
	case KindEntityReused:
		return "EntityReused"
	case KindDuplicateIdentifier:
		return "DuplicateIdentifier"
	case KindMissingCredential:
		return "MissingCredential"
	default:
		return "Unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidIdentifier:
		return errors.ErrInvalidIdentifier
	case KindEmptyParallel:
		return errors.ErrEmptyParallel
	case KindMissingDefault:
		return errors.ErrMissingDefault
	case KindEntityReused:
		return errors.ErrEntityReused
	case KindDuplicateIdentifier:
		return errors.ErrDuplicateIdentifier
	case KindMissingCredential:
		return errors.ErrMissingCredential
	default:
		return nil
	}
}

// CompileError reports a construction or validation failure. Names lists the
// offending identifiers or credential names, sorted.
type CompileError struct {
	Kind    ErrorKind
	Names   []string
	Message string
}

func (e *CompileError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Names) == 0 {
		return e.Kind.sentinel().Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.sentinel().Error(), strings.Join(e.Names, ", "))
}

// Unwrap lets errors.Is match the sentinel for the error's kind.
func (e *CompileError) Unwrap() error {
	return e.Kind.sentinel()
}
