package world

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/missingbox/compool/internal/component"
	"github.com/missingbox/compool/internal/core/event"
	"github.com/missingbox/compool/internal/core/pool"
	"github.com/missingbox/compool/internal/data"
	"github.com/missingbox/compool/internal/scripting"
)

// CatStore is the pooled store specialized for cat records.
type CatStore = pool.Store[component.Cat, *component.Cat]

// CatHandle references one cat incarnation in the store.
type CatHandle = pool.Handle[component.Cat, *component.Cat]

// RosterEntry tracks one spawned cat outside the store: the handle that
// reaches it plus the bookkeeping the store itself does not keep.
type RosterEntry struct {
	Handle CatHandle
	Kind   string
	Name   string

	// NapTicks is the remaining sleep time. It counts down each checkpoint
	// while the cat sleeps; at zero the wake is queued for the next one.
	NapTicks int

	pendingSleep bool
	pendingWake  bool
	vanishCause  string
}

// State owns the cat store, the roster of issued handles, the nap timers and
// the spawn queue. Single-goroutine access only (tick loop).
type State struct {
	log  *zap.Logger
	bus  *event.Bus
	vm   *scripting.Engine
	cats *data.CatTable

	store  *CatStore
	roster []*RosterEntry
	byName map[string]*RosterEntry

	pendingSpawns []pendingSpawn
	spawnSeq      map[string]int // name prefix → last sequence used
}

func NewState(capacity int, cats *data.CatTable, vm *scripting.Engine, bus *event.Bus, log *zap.Logger) (*State, error) {
	store, err := pool.NewStore[component.Cat, *component.Cat](capacity, pool.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("build cat store: %w", err)
	}
	return &State{
		log:      log,
		bus:      bus,
		vm:       vm,
		cats:     cats,
		store:    store,
		byName:   make(map[string]*RosterEntry),
		spawnSeq: make(map[string]int),
	}, nil
}

// Store returns the underlying cat store.
func (s *State) Store() *CatStore { return s.store }

// Roster returns the live roster entries in spawn order.
func (s *State) Roster() []*RosterEntry { return s.roster }

// Find returns the roster entry for a cat name, or nil if not spawned.
func (s *State) Find(name string) *RosterEntry { return s.byName[name] }

// Commit runs the checkpoint and reconciles the roster with its outcome:
// despawned cats leave the roster, applied sleeps emit their event and start
// the nap timer, expired naps queue a wake for the next checkpoint.
func (s *State) Commit() {
	s.store.LateUpdate()

	kept := s.roster[:0]
	for _, entry := range s.roster {
		if !entry.Handle.IsValid() {
			cause := entry.vanishCause
			if cause == "" {
				cause = "vanished"
			}
			delete(s.byName, entry.Name)
			event.Emit(s.bus, event.ComponentDespawned{Kind: entry.Kind, Name: entry.Name, Cause: cause})
			s.log.Info("cat despawned",
				zap.String("name", entry.Name),
				zap.String("cause", cause))
			continue
		}
		kept = append(kept, entry)

		if entry.pendingSleep {
			entry.pendingSleep = false
			event.Emit(s.bus, event.ComponentSlept{Kind: entry.Kind, Name: entry.Name})
			continue
		}
		if entry.pendingWake {
			entry.pendingWake = false
			event.Emit(s.bus, event.ComponentWoken{Kind: entry.Kind, Name: entry.Name})
			continue
		}
		if entry.NapTicks > 0 {
			entry.NapTicks--
			if entry.NapTicks == 0 {
				if err := s.store.SetActive(entry.Handle, true); err != nil {
					s.log.Warn("queue wake", zap.String("name", entry.Name), zap.Error(err))
					continue
				}
				entry.pendingWake = true
			}
		}
	}
	// Clear the tail so dropped entries do not pin memory in the backing array.
	for i := len(kept); i < len(s.roster); i++ {
		s.roster[i] = nil
	}
	s.roster = kept
}
