package world

import (
	"time"

	"go.uber.org/zap"

	"github.com/missingbox/compool/internal/component"
	"github.com/missingbox/compool/internal/data"
	"github.com/missingbox/compool/internal/scripting"
)

// RunBehaviors runs one simulation pass. Brains fire inside the store's
// update loop, so every activation change or despawn a script asks for is a
// deferred mutation until Commit.
func (s *State) RunBehaviors(dt time.Duration) {
	s.store.Update(dt)
}

// brainFor wires scripted behavior into a cat record. The closure captures
// the roster entry, never a record pointer; the store hands it the cat's
// current location on each call.
func (s *State) brainFor(entry *RosterEntry, tpl *data.CatTemplate) func(*component.Cat) {
	return func(c *component.Cat) {
		if tpl.LifespanTicks > 0 && c.Age >= tpl.LifespanTicks {
			s.despawn(entry, "expired")
			return
		}

		d := s.vm.Decide(scripting.BehaviorContext{
			Kind:     c.Kind,
			Name:     c.Name,
			Mood:     c.Mood,
			Moods:    tpl.Moods,
			Energy:   c.Energy,
			Age:      c.Age,
			Naps:     c.Naps,
			Lifespan: tpl.LifespanTicks,
		})
		c.Mood = d.Mood
		c.Energy = d.Energy
		if d.Say != "" {
			s.log.Info("cat says",
				zap.String("name", c.Name),
				zap.String("say", d.Say),
				zap.String("mood", c.Mood))
		}

		switch d.Action {
		case scripting.ActionNap:
			s.nap(entry, c, tpl.NapTicks)
		case scripting.ActionVanish:
			s.despawn(entry, "vanished")
		}
	}
}

// nap queues the sleep transition and arms the wake timer.
func (s *State) nap(entry *RosterEntry, c *component.Cat, ticks int) {
	if err := s.store.SetActive(entry.Handle, false); err != nil {
		s.log.Warn("queue nap", zap.String("name", entry.Name), zap.Error(err))
		return
	}
	if ticks < 1 {
		ticks = 1
	}
	entry.NapTicks = ticks
	entry.pendingSleep = true
	c.Naps++
}

// despawn queues destruction; the record stays live until the checkpoint.
func (s *State) despawn(entry *RosterEntry, cause string) {
	if err := s.store.Delete(entry.Handle); err != nil {
		s.log.Warn("queue despawn", zap.String("name", entry.Name), zap.Error(err))
		return
	}
	entry.vanishCause = cause
}
