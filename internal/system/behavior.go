package system

import (
	"time"

	coresys "github.com/missingbox/compool/internal/core/system"
	"github.com/missingbox/compool/internal/world"
)

// BehaviorSystem runs the cat brains over the active partition.
// Phase 1 (Update) — all mutations the brains request stay queued until the
// commit phase.
type BehaviorSystem struct {
	world *world.State
}

func NewBehaviorSystem(ws *world.State) *BehaviorSystem {
	return &BehaviorSystem{world: ws}
}

func (s *BehaviorSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *BehaviorSystem) Update(dt time.Duration) {
	s.world.RunBehaviors(dt)
}
