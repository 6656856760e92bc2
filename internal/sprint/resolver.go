package sprint

import (
	"slices"
	"strings"
)

// Resolve maps a sprint reference to exactly one abridged sprint from a
// team's listing, or nil when no sprint matches. The listing may arrive in
// any order; resolution always scans in descending sequence order (most
// recent first). Sprints sharing a sequence keep their relative listing
// order; the first encountered wins.
func Resolve(ref Ref, sprints []AbridgedSprint) *AbridgedSprint {
	if ref.Kind == RefLiteral {
		return ref.Literal
	}

	ordered := make([]AbridgedSprint, len(sprints))
	copy(ordered, sprints)
	slices.SortStableFunc(ordered, func(a, b AbridgedSprint) int {
		return b.Sequence - a.Sequence
	})

	switch ref.Kind {
	case RefByID:
		for i := range ordered {
			if ordered[i].ID == ref.ID {
				return &ordered[i]
			}
		}

	case RefCurrent:
		for i := range ordered {
			if ordered[i].State == StateActive {
				return &ordered[i]
			}
		}

	case RefLastCompleted:
		for i := range ordered {
			s := &ordered[i]
			switch {
			case s.State == StateFuture:
				continue
			case s.State == StateActive && !s.Overdue:
				// still running, not completed yet
				continue
			case s.State == StateActive && s.Overdue:
				// should have been marked complete but hasn't been yet
				return s
			case s.State == StateClosed:
				return s
			}
		}

	case RefBeforeLastCompleted:
		var last *AbridgedSprint
		for i := range ordered {
			if ordered[i].State != StateClosed {
				continue
			}
			if last == nil {
				// the most recently closed one; we want the one before it
				last = &ordered[i]
				continue
			}
			return &ordered[i]
		}
	}

	return nil
}

// BelongsToTeam reports whether an abridged sprint belongs to the named
// team. A board listing can contain sprints from other boards when tickets
// spent time on both, so listings are filtered with this check. The team
// token is the second dash-separated part of the sprint name; matching is
// case-insensitive and checked in both directions to tolerate abbreviated
// team names.
func BelongsToTeam(s AbridgedSprint, teamName string) bool {
	parts := strings.Split(s.Name, "-")
	if len(parts) < 2 {
		return false
	}
	fromSprint := strings.ToLower(strings.TrimSpace(parts[1]))
	if fromSprint == "" {
		return false
	}
	name := strings.ToLower(strings.TrimSpace(teamName))
	if name == "" {
		return false
	}
	return strings.Contains(fromSprint, name) || strings.Contains(name, fromSprint)
}
