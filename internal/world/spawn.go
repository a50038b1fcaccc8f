package world

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/missingbox/compool/internal/component"
	"github.com/missingbox/compool/internal/core/event"
	"github.com/missingbox/compool/internal/data"
)

type pendingSpawn struct {
	kind string
	name string
}

// QueueSpawns expands data-table spawn entries into individual pending
// spawns. Instance names are numbered per prefix: cheshire-1, cheshire-2, ...
func (s *State) QueueSpawns(entries []data.SpawnEntry) {
	for _, e := range entries {
		prefix := e.Prefix
		if prefix == "" {
			prefix = e.Kind
		}
		for i := 0; i < e.Count; i++ {
			s.spawnSeq[prefix]++
			s.pendingSpawns = append(s.pendingSpawns, pendingSpawn{
				kind: e.Kind,
				name: fmt.Sprintf("%s-%d", prefix, s.spawnSeq[prefix]),
			})
		}
	}
}

// PendingSpawns returns how many spawns are still queued.
func (s *State) PendingSpawns() int { return len(s.pendingSpawns) }

// SpawnNext attempts the oldest pending spawn. It reports false when the
// queue is empty. A failed attempt (full store, unknown kind) is consumed,
// not retried; the rejection is observable on the bus.
func (s *State) SpawnNext() bool {
	if len(s.pendingSpawns) == 0 {
		return false
	}
	next := s.pendingSpawns[0]
	s.pendingSpawns = s.pendingSpawns[1:]
	if _, err := s.Spawn(next.kind, next.name); err != nil {
		s.log.Warn("spawn rejected",
			zap.String("kind", next.kind),
			zap.String("name", next.name),
			zap.Error(err))
	}
	return true
}

// Spawn brings one cat into the store immediately, active and at the end of
// the active partition. The handle is tracked on the roster until the cat
// despawns.
func (s *State) Spawn(kind, name string) (CatHandle, error) {
	tpl := s.cats.Get(kind)
	if tpl == nil {
		err := fmt.Errorf("unknown cat kind %q", kind)
		event.Emit(s.bus, event.SpawnRejected{Kind: kind, Name: name, Reason: err})
		return CatHandle{}, err
	}

	entry := &RosterEntry{Kind: kind, Name: name}
	h, err := s.store.Create(func(c *component.Cat) error {
		c.Kind = kind
		c.Name = name
		if len(tpl.Moods) > 0 {
			c.Mood = tpl.Moods[0]
		}
		c.Energy = tpl.Energy
		c.Brain = s.brainFor(entry, tpl)
		return nil
	})
	if err != nil {
		event.Emit(s.bus, event.SpawnRejected{Kind: kind, Name: name, Reason: err})
		return CatHandle{}, err
	}

	entry.Handle = h
	s.roster = append(s.roster, entry)
	s.byName[name] = entry
	event.Emit(s.bus, event.ComponentSpawned{Kind: kind, Name: name})
	s.log.Info("cat spawned", zap.String("kind", kind), zap.String("name", name))
	return h, nil
}
