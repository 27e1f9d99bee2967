package stage

import "errors"

// Stage is one step of the Magic Cards production funnel.
type Stage string

const (
	Contacts        Stage = "Contacts"
	Copy            Stage = "Copy"
	DesignBrief     Stage = "Design Brief"
	DesignRound1    Stage = "Design Round 1"
	DesignRound2    Stage = "Design Round 2"
	Handoff         Stage = "Handoff"
	ReadyForPrint   Stage = "Ready for Print"
	ProjectComplete Stage = "Project Complete"
)

// Order is the funnel sequence. Transitions only ever move to an adjacent
// entry; stages are revealed cumulatively and never hidden once reached.
var Order = []Stage{
	Contacts,
	Copy,
	DesignBrief,
	DesignRound1,
	DesignRound2,
	Handoff,
	ReadyForPrint,
	ProjectComplete,
}

// ErrUnknown is returned when a persisted stage value is outside the funnel
// sequence. This is a configuration fault, not a user error: the funnel must
// refuse to render rather than evaluate every stage flag to false.
var ErrUnknown = errors.New("unknown funnel stage")

// Initial is the stage every new project starts in.
const Initial = Contacts

// Index returns the position of s in the funnel, or ok=false if s is not a
// funnel stage.
func Index(s Stage) (int, bool) {
	for i, v := range Order {
		if v == s {
			return i, true
		}
	}
	return 0, false
}

// Valid reports whether s is one of the eight funnel stages.
func Valid(s Stage) bool {
	_, ok := Index(s)
	return ok
}

// ShouldRender reports whether the target stage's section is visible when the
// project is at current. Sections are revealed cumulatively.
func ShouldRender(target, current Stage) bool {
	ti, ok := Index(target)
	if !ok {
		return false
	}
	ci, ok := Index(current)
	if !ok {
		return false
	}
	return ti <= ci
}

// IsActive reports whether target is the single stage open for edits.
func IsActive(target, current Stage) bool {
	return Valid(target) && target == current
}

// IsCompleted reports whether target is strictly before current, which
// freezes its editors. The terminal stage is never completed.
func IsCompleted(target, current Stage) bool {
	ti, ok := Index(target)
	if !ok {
		return false
	}
	ci, ok := Index(current)
	if !ok {
		return false
	}
	return ti < ci
}

// Next returns the stage after s. ok is false when s is terminal or unknown,
// in which case advancing is a no-op.
func Next(s Stage) (Stage, bool) {
	i, ok := Index(s)
	if !ok || i == len(Order)-1 {
		return s, false
	}
	return Order[i+1], true
}

// Previous returns the stage before s. ok is false when s is first or
// unknown. Reverting is only ever offered to this single stage.
func Previous(s Stage) (Stage, bool) {
	i, ok := Index(s)
	if !ok || i == 0 {
		return s, false
	}
	return Order[i-1], true
}

// Status is the derived render state of one stage for a given project.
type Status struct {
	Stage     Stage `json:"stage"`
	Rendered  bool  `json:"rendered"`
	Active    bool  `json:"active"`
	Completed bool  `json:"completed"`
}

// Statuses computes the full per-stage flag list for a project at current.
// It is recomputed from the single stored stage value on every request; the
// flags are never stored independently. A current value outside the funnel
// sequence returns ErrUnknown.
func Statuses(current Stage) ([]Status, error) {
	if !Valid(current) {
		return nil, ErrUnknown
	}
	out := make([]Status, 0, len(Order))
	for _, s := range Order {
		out = append(out, Status{
			Stage:     s,
			Rendered:  ShouldRender(s, current),
			Active:    IsActive(s, current),
			Completed: IsCompleted(s, current),
		})
	}
	return out, nil
}
