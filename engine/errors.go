package engine

import (
	"errors"
	"fmt"
)

// Kind classifies a generation failure.
type Kind int

const (
	// KindInvalidRoot means the root is empty, missing or unreadable.
	KindInvalidRoot Kind = iota + 1

	// KindSymlinkCycle means an entity resolved to a path already visited.
	KindSymlinkCycle

	// KindRuleEvaluation means a selector or mapping template failed.
	KindRuleEvaluation

	// KindIdentifierAssignment means a resource identifier could not be minted.
	KindIdentifierAssignment

	// KindEntityAccess means an entity could not be resolved, stat'ed or listed.
	KindEntityAccess
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRoot:
		return "invalid root"
	case KindSymlinkCycle:
		return "symbolic link cycle"
	case KindRuleEvaluation:
		return "rule evaluation"
	case KindIdentifierAssignment:
		return "identifier assignment"
	case KindEntityAccess:
		return "entity access"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrInvalidRoot          = errors.New("invalid root")
	ErrSymlinkCycle         = errors.New("symbolic link cycle detected")
	ErrRuleEvaluation       = errors.New("rule evaluation failed")
	ErrIdentifierAssignment = errors.New("identifier assignment failed")
	ErrEntityAccess         = errors.New("entity access failed")
)

var sentinels = map[Kind]error{
	KindInvalidRoot:          ErrInvalidRoot,
	KindSymlinkCycle:         ErrSymlinkCycle,
	KindRuleEvaluation:       ErrRuleEvaluation,
	KindIdentifierAssignment: ErrIdentifierAssignment,
	KindEntityAccess:         ErrEntityAccess,
}

// Error is returned by GenerateGraph. Resolution, when present, tells the user how
// to fix the content tree.
type Error struct {
	Kind       Kind
	Path       string
	Message    string
	Resolution string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// HasResolution reports whether the error carries a resolution hint.
func (e *Error) HasResolution() bool {
	return e.Resolution != ""
}

func newError(kind Kind, path, msg string, err error) *Error {
	return &Error{Kind: kind, Path: path, Message: msg, Err: err}
}
