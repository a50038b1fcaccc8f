package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/missingbox/compool/internal/core/system"
	"github.com/missingbox/compool/internal/world"
)

// StatsSystem logs a store snapshot on a fixed tick interval.
// Phase 3 (Report) — reads only, after the checkpoint has settled the
// partitions.
type StatsSystem struct {
	world    *world.State
	log      *zap.Logger
	interval int
	ticks    int
}

func NewStatsSystem(ws *world.State, log *zap.Logger, interval int) *StatsSystem {
	if interval < 1 {
		interval = 1
	}
	return &StatsSystem{world: ws, log: log, interval: interval}
}

func (s *StatsSystem) Phase() coresys.Phase { return coresys.PhaseReport }

func (s *StatsSystem) Update(_ time.Duration) {
	s.ticks++
	if s.ticks%s.interval != 0 {
		return
	}
	store := s.world.Store()
	st := store.Stats()
	s.log.Info("store stats",
		zap.Int("tick", s.ticks),
		zap.Int("live", store.Len()),
		zap.Int("active", store.ActiveLen()),
		zap.Int("sleeping", store.SleepingLen()),
		zap.Int("pending_spawns", s.world.PendingSpawns()),
		zap.Uint64("created", st.Created),
		zap.Uint64("destroyed", st.Destroyed),
		zap.Uint64("slept", st.Slept),
		zap.Uint64("woken", st.Woken))
}
