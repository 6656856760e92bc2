package sprint

import (
	"fmt"
	"strconv"
	"strings"
)

// RefKind discriminates the variants of a sprint reference.
type RefKind int

const (
	// RefLastCompleted is the zero value: an unspecified reference
	// defaults to the last completed sprint.
	RefLastCompleted RefKind = iota
	RefCurrent
	RefBeforeLastCompleted
	RefByID
	RefLiteral
)

// Ref is a symbolic or concrete sprint reference. It is resolved once at
// the boundary and never persisted.
type Ref struct {
	Kind    RefKind
	ID      int
	Literal *AbridgedSprint
}

// LastCompleted references the most recently completed sprint.
func LastCompleted() Ref { return Ref{Kind: RefLastCompleted} }

// Current references the sprint that is currently active.
func Current() Ref { return Ref{Kind: RefCurrent} }

// BeforeLastCompleted references the completed sprint preceding the most
// recently completed one.
func BeforeLastCompleted() Ref { return Ref{Kind: RefBeforeLastCompleted} }

// ByID references a concrete sprint by its tracker id.
func ByID(id int) Ref { return Ref{Kind: RefByID, ID: id} }

// Literal wraps an already-resolved sprint record; resolution returns it
// unchanged without any lookup.
func Literal(s *AbridgedSprint) Ref { return Ref{Kind: RefLiteral, Literal: s} }

// Concrete reports whether the reference names one specific sprint rather
// than a symbolic position.
func (r Ref) Concrete() bool {
	return r.Kind == RefByID || r.Kind == RefLiteral
}

func (r Ref) String() string {
	switch r.Kind {
	case RefCurrent:
		return "current"
	case RefLastCompleted:
		return "last_completed"
	case RefBeforeLastCompleted:
		return "before_last_completed"
	case RefByID:
		return strconv.Itoa(r.ID)
	case RefLiteral:
		if r.Literal != nil {
			return fmt.Sprintf("literal:%d", r.Literal.ID)
		}
		return "literal"
	}
	return "unknown"
}

// ParseRef turns a request string into a Ref. Accepted forms: "current",
// "last_completed" (or "last"), "before_last_completed" (or "before_last"),
// a numeric sprint id, or empty for the default.
func ParseRef(s string) (Ref, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last", "last_completed":
		return LastCompleted(), nil
	case "current":
		return Current(), nil
	case "before_last", "before_last_completed":
		return BeforeLastCompleted(), nil
	}
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Ref{}, fmt.Errorf("unrecognized sprint reference %q", s)
	}
	return ByID(id), nil
}
