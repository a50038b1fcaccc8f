package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseDispatch   Phase = iota // 0: deliver last tick's events
	PhaseUpdate                  // 1: simulation step over active records
	PhaseLateUpdate              // 2: apply queued lifecycle changes
	PhaseReport                  // 3: periodic stats output
)

// System is the interface every engine system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
