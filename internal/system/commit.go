package system

import (
	"time"

	coresys "github.com/missingbox/compool/internal/core/system"
	"github.com/missingbox/compool/internal/world"
)

// CommitSystem applies the tick's deferred mutations and feeds the spawn
// queue. Phase 2 (LateUpdate) — runs after every brain has had its say, so
// the checkpoint sees the full set of queued changes.
//
// Spawns drip in one per spawnInterval ticks rather than all at once; a
// freshly spawned cat still waits until the next tick for its first update.
type CommitSystem struct {
	world         *world.State
	spawnInterval int
	cooldown      int
}

func NewCommitSystem(ws *world.State, spawnInterval int) *CommitSystem {
	if spawnInterval < 1 {
		spawnInterval = 1
	}
	return &CommitSystem{world: ws, spawnInterval: spawnInterval, cooldown: 1}
}

func (s *CommitSystem) Phase() coresys.Phase { return coresys.PhaseLateUpdate }

func (s *CommitSystem) Update(_ time.Duration) {
	s.world.Commit()

	s.cooldown--
	if s.cooldown <= 0 {
		s.cooldown = s.spawnInterval
		s.world.SpawnNext()
	}
}
