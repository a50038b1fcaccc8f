package system

import (
	"time"

	"github.com/missingbox/compool/internal/core/event"
	coresys "github.com/missingbox/compool/internal/core/system"
)

// DispatchSystem delivers the events emitted during the previous tick.
// Phase 0 (Dispatch) — runs before any behavior so handlers observe a
// settled store.
type DispatchSystem struct {
	bus *event.Bus
}

func NewDispatchSystem(bus *event.Bus) *DispatchSystem {
	return &DispatchSystem{bus: bus}
}

func (s *DispatchSystem) Phase() coresys.Phase { return coresys.PhaseDispatch }

func (s *DispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
