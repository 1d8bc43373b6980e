package model

import "fmt"

// PipelineState is a node of the proposal/apply state machine.
type PipelineState int

// Pipeline states in the order they are normally visited.
const (
	StateIdle PipelineState = iota
	StateResolving
	StateScopeLoaded
	StateSynthesizing
	StateProposed
	StateApplying
	StateApplied
	StateApplyFailed
	StateFailed
)

var stateNames = map[PipelineState]string{
	StateIdle:         "Idle",
	StateResolving:    "Resolving",
	StateScopeLoaded:  "ScopeLoaded",
	StateSynthesizing: "Synthesizing",
	StateProposed:     "Proposed",
	StateApplying:     "Applying",
	StateApplied:      "Applied",
	StateApplyFailed:  "ApplyFailed",
	StateFailed:       "Failed",
}

func (s PipelineState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}

	return "Unknown"
}

// MarshalText renders the state by name on the message channel.
func (s PipelineState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (s *PipelineState) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}

	return fmt.Errorf("unknown pipeline state %q", text)
}

// Terminal reports whether a pipeline run ends in s. Only a proposal is
// picked up again, by a later apply.
func (s PipelineState) Terminal() bool {
	switch s {
	case StateProposed, StateApplied, StateApplyFailed, StateFailed:
		return true
	}

	return false
}

var allowedTransitions = map[PipelineState][]PipelineState{
	StateIdle:         {StateResolving, StateApplying},
	StateResolving:    {StateScopeLoaded, StateFailed},
	StateScopeLoaded:  {StateSynthesizing, StateFailed},
	StateSynthesizing: {StateProposed, StateFailed},
	StateProposed:     {StateApplying},
	StateApplying:     {StateApplied, StateApplyFailed},
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to PipelineState) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}

	return false
}
