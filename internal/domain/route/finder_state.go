package route

import "fmt"

// FinderState represents the current phase of a route-assembly run.
type FinderState string

const (
	StateSearching FinderState = "searching"
	StateExtending FinderState = "extending"
	StateTrimming  FinderState = "trimming"
	StateComplete  FinderState = "complete"
)

// validTransitions defines the state machine for a route-assembly run.
// Searching discovers and ranks candidate segments, extending splices the
// chosen segment onto the result, and the loop either returns to searching or
// proceeds to trimming once the one-way target is reached.
var validTransitions = map[FinderState][]FinderState{
	StateSearching: {StateExtending},
	StateExtending: {StateSearching, StateTrimming},
	StateTrimming:  {StateComplete},
	StateComplete:  {},
}

// IsValid returns true if the state is a recognized finder state.
func (s FinderState) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this state to the target is allowed.
func (s FinderState) CanTransitionTo(target FinderState) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this state.
func (s FinderState) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// String returns the string representation of the state.
func (s FinderState) String() string {
	return string(s)
}

func (f *Finder) transitionTo(target FinderState) error {
	if !f.state.CanTransitionTo(target) {
		return fmt.Errorf("invalid finder transition: %s -> %s", f.state, target)
	}
	f.state = target
	return nil
}
