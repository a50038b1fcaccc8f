package pool

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const tickStep = 50 * time.Millisecond

// critter is the crash-test record used across the package tests. The onTick
// hook lets a test issue store calls from inside Update.
type critter struct {
	id     int
	ticks  int
	onTick func(*critter)
}

func (c *critter) Update(dt time.Duration) {
	_ = dt
	c.ticks++
	if c.onTick != nil {
		c.onTick(c)
	}
}

func newCritterStore(t *testing.T, capacity int) *Store[critter, *critter] {
	t.Helper()
	s, err := NewStore[critter, *critter](capacity)
	require.NoError(t, err)
	return s
}

func createCritter(t *testing.T, s *Store[critter, *critter], id int) Handle[critter, *critter] {
	t.Helper()
	h, err := s.Create(func(c *critter) error {
		c.id = id
		return nil
	})
	require.NoError(t, err)
	return h
}

// tick runs one full simulation step.
func tick(s *Store[critter, *critter]) {
	s.Update(tickStep)
	s.LateUpdate()
}

// requirePartitioned checks the structural invariant: occupied slots carry
// blocks pointing back at them, the sleeping prefix and active suffix are
// contiguous, and slots past the live count are empty.
func requirePartitioned(t *testing.T, s *Store[critter, *critter]) {
	t.Helper()
	requireT := require.New(t)
	count := s.Len()
	for i := 0; i < count; i++ {
		b := s.table[i]
		requireT.NotNil(b, "slot %d has no control block", i)
		requireT.Equal(int32(i), b.slot, "slot %d block points elsewhere", i)
		requireT.Equal(i >= s.sleeping, b.isActive(), "slot %d on wrong side of boundary", i)
	}
	for i := count; i < s.Cap(); i++ {
		requireT.Nil(s.table[i], "slot %d should be vacant", i)
	}
	requireT.Equal(count, s.active+s.sleeping)
}

func TestNewStoreCapacity(t *testing.T) {
	requireT := require.New(t)

	_, err := NewStore[critter, *critter](0)
	requireT.Error(err)
	_, err = NewStore[critter, *critter](-4)
	requireT.Error(err)

	s := newCritterStore(t, 8)
	requireT.Equal(8, s.Cap())
	requireT.Equal(0, s.Len())
	requireT.Equal(0, s.ActiveLen())
	requireT.Equal(0, s.SleepingLen())
}

func TestCreate(t *testing.T) {
	requireT := require.New(t)
	s := newCritterStore(t, 4)

	h := createCritter(t, s, 7)
	requireT.True(h.IsValid())
	requireT.Equal(1, s.Len())
	requireT.Equal(1, s.ActiveLen())
	requireT.Equal(0, s.SleepingLen())

	c, err := h.Get()
	requireT.NoError(err)
	requireT.Equal(7, c.id)
	requirePartitioned(t, s)
}

func TestCreateAtCapacity(t *testing.T) {
	requireT := require.New(t)
	s := newCritterStore(t, 2)

	createCritter(t, s, 1)
	createCritter(t, s, 2)

	h, err := s.Create(nil)
	requireT.ErrorIs(err, ErrCapacityExceeded)
	requireT.False(h.IsValid())
	requireT.Equal(2, s.Len())
	requireT.Equal(uint64(2), s.Stats().Created)
	requirePartitioned(t, s)
}

func TestCreateInitFailure(t *testing.T) {
	requireT := require.New(t)
	s := newCritterStore(t, 2)

	boom := errors.New("boom")
	h, err := s.Create(func(c *critter) error {
		c.id = 99
		return boom
	})
	requireT.ErrorIs(err, boom)
	requireT.False(h.IsValid())
	requireT.Equal(0, s.Len())
	requireT.Equal(uint64(0), s.Stats().Created)

	// The failed slot must be fully rolled back: reusable and zeroed.
	h2 := createCritter(t, s, 1)
	c, err := h2.Get()
	requireT.NoError(err)
	requireT.Equal(1, c.id)
	requireT.Equal(0, c.ticks)
	requirePartitioned(t, s)
}

func TestUpdateVisitsActiveOnly(t *testing.T) {
	requireT := require.New(t)
	s := newCritterStore(t, 4)

	h1 := createCritter(t, s, 1)
	h2 := createCritter(t, s, 2)

	tick(s)

	requireT.NoError(s.SetActive(h2, false))
	tick(s) // change issued before Update, so h2 is still visited this tick
	tick(s) // now it sleeps through the whole tick

	c1, err := h1.Get()
	requireT.NoError(err)
	c2, err := h2.Get()
	requireT.NoError(err)
	requireT.Equal(3, c1.ticks)
	requireT.Equal(2, c2.ticks)
	requireT.Equal(1, s.ActiveLen())
	requireT.Equal(1, s.SleepingLen())
	requirePartitioned(t, s)
}

func TestCreateDuringUpdateNotVisited(t *testing.T) {
	requireT := require.New(t)
	s := newCritterStore(t, 4)

	var (
		spawned  Handle[critter, *critter]
		spawnErr error
	)
	h, err := s.Create(func(c *critter) error {
		c.id = 1
		c.onTick = func(self *critter) {
			if self.ticks != 1 {
				return
			}
			spawned, spawnErr = s.Create(func(n *critter) error {
				n.id = 2
				return nil
			})
		}
		return nil
	})
	requireT.NoError(err)

	tick(s)
	requireT.NoError(spawnErr)
	requireT.True(spawned.IsValid())
	requireT.Equal(2, s.Len())

	child, err := spawned.Get()
	requireT.NoError(err)
	requireT.Equal(0, child.ticks, "mid-pass spawn must wait for the next tick")

	tick(s)
	child, err = spawned.Get()
	requireT.NoError(err)
	requireT.Equal(1, child.ticks)

	parent, err := h.Get()
	requireT.NoError(err)
	requireT.Equal(2, parent.ticks)
}

func TestSetActiveDeferredToCheckpoint(t *testing.T) {
	requireT := require.New(t)
	s := newCritterStore(t, 4)

	h := createCritter(t, s, 1)
	requireT.NoError(s.SetActive(h, false))

	// Nothing moves until LateUpdate.
	requireT.Equal(1, s.ActiveLen())
	requireT.Equal(0, s.SleepingLen())

	s.LateUpdate()
	requireT.Equal(0, s.ActiveLen())
	requireT.Equal(1, s.SleepingLen())
	requireT.True(h.IsValid())
	requirePartitioned(t, s)

	requireT.NoError(s.SetActive(h, true))
	s.LateUpdate()
	requireT.Equal(1, s.ActiveLen())
	requireT.Equal(0, s.SleepingLen())
	requirePartitioned(t, s)
}

func TestSetActiveSameStateIsNoop(t *testing.T) {
	requireT := require.New(t)
	s := newCritterStore(t, 4)

	h := createCritter(t, s, 1)
	requireT.NoError(s.SetActive(h, true))
	s.LateUpdate()
	requireT.Equal(1, s.ActiveLen())
	requireT.Equal(uint64(0), s.Stats().Woken)
	requireT.Equal(uint64(0), s.Stats().Slept)
}

func TestSetActiveComparesCurrentState(t *testing.T) {
	requireT := require.New(t)
	s := newCritterStore(t, 4)

	// A wake request issued while the record is still active is a no-op, so
	// it does not cancel the sleep already queued.
	h := createCritter(t, s, 1)
	requireT.NoError(s.SetActive(h, false))
	requireT.NoError(s.SetActive(h, true))
	s.LateUpdate()

	requireT.Equal(1, s.SleepingLen())
	requireT.Equal(0, s.ActiveLen())
}

func TestDeleteInvalidatesHandle(t *testing.T) {
	requireT := require.New(t)
	s := newCritterStore(t, 4)

	h := createCritter(t, s, 1)
	requireT.NoError(s.Delete(h))

	// Still alive until the checkpoint.
	requireT.True(h.IsValid())
	requireT.Equal(1, s.Len())

	s.LateUpdate()
	requireT.False(h.IsValid())
	requireT.Equal(0, s.Len())

	_, err := h.Get()
	requireT.ErrorIs(err, ErrInvalidHandle)
	requireT.ErrorIs(s.SetActive(h, false), ErrInvalidHandle)
	requireT.ErrorIs(s.Delete(h), ErrInvalidHandle)
	requirePartitioned(t, s)
}

func TestDeleteThenReuseSlot(t *testing.T) {
	requireT := require.New(t)
	s := newCritterStore(t, 2)

	h1 := createCritter(t, s, 1)
	requireT.NoError(s.Delete(h1))
	s.LateUpdate()

	h2 := createCritter(t, s, 2)

	// The freed control block is recycled for the new record, but the
	// generation moved on, so the incarnations stay distinct.
	requireT.Same(h1.block, h2.block)
	requireT.NotEqual(h1.generation, h2.generation)
	requireT.NotEqual(h1, h2)
	requireT.False(h1.IsValid())
	requireT.True(h2.IsValid())

	c, err := h2.Get()
	requireT.NoError(err)
	requireT.Equal(2, c.id)
	_, err = h1.Get()
	requireT.ErrorIs(err, ErrInvalidHandle)
}

func TestDeleteDominatesActivationChange(t *testing.T) {
	requireT := require.New(t)
	s := newCritterStore(t, 4)

	h1 := createCritter(t, s, 1)
	requireT.NoError(s.SetActive(h1, false))
	requireT.NoError(s.Delete(h1))
	s.LateUpdate()
	requireT.False(h1.IsValid())
	requireT.Equal(0, s.Len())

	// Same outcome with the requests swapped.
	h2 := createCritter(t, s, 2)
	requireT.NoError(s.Delete(h2))
	requireT.NoError(s.SetActive(h2, false))
	s.LateUpdate()
	requireT.False(h2.IsValid())
	requireT.Equal(0, s.Len())
	requireT.Equal(uint64(2), s.Stats().Destroyed)
	requireT.Equal(uint64(0), s.Stats().Slept)
	requirePartitioned(t, s)
}

func TestDeleteSleepingRecord(t *testing.T) {
	requireT := require.New(t)
	s := newCritterStore(t, 4)

	h1 := createCritter(t, s, 1)
	h2 := createCritter(t, s, 2)
	h3 := createCritter(t, s, 3)

	requireT.NoError(s.SetActive(h2, false))
	s.LateUpdate()
	requireT.Equal(1, s.SleepingLen())

	requireT.NoError(s.Delete(h2))
	s.LateUpdate()

	requireT.False(h2.IsValid())
	requireT.Equal(2, s.Len())
	requireT.Equal(2, s.ActiveLen())
	requireT.Equal(0, s.SleepingLen())

	c1, err := h1.Get()
	requireT.NoError(err)
	requireT.Equal(1, c1.id)
	c3, err := h3.Get()
	requireT.NoError(err)
	requireT.Equal(3, c3.id)
	requirePartitioned(t, s)
}

func TestForeignHandleRejected(t *testing.T) {
	requireT := require.New(t)
	s1 := newCritterStore(t, 2)
	s2 := newCritterStore(t, 2)

	h := createCritter(t, s1, 1)

	requireT.ErrorIs(s2.SetActive(h, false), ErrForeignHandle)
	requireT.ErrorIs(s2.Delete(h), ErrForeignHandle)

	// The record is untouched in its own store.
	requireT.Equal(1, s1.Len())
	s1.LateUpdate()
	s2.LateUpdate()
	requireT.True(h.IsValid())
	requireT.Equal(0, s2.Len())
}

func TestZeroHandle(t *testing.T) {
	requireT := require.New(t)
	s := newCritterStore(t, 2)

	var h Handle[critter, *critter]
	requireT.False(h.IsValid())
	_, err := h.Get()
	requireT.ErrorIs(err, ErrInvalidHandle)
	requireT.ErrorIs(s.SetActive(h, true), ErrInvalidHandle)
	requireT.ErrorIs(s.Delete(h), ErrInvalidHandle)
}

func TestDeleteDuringUpdate(t *testing.T) {
	requireT := require.New(t)
	s := newCritterStore(t, 4)

	var (
		handles [3]Handle[critter, *critter]
		errs    []error
	)
	for i := range handles {
		h, err := s.Create(func(c *critter) error {
			c.id = i + 1
			c.onTick = func(self *critter) {
				if self.id == 2 {
					errs = append(errs, s.Delete(handles[1]))
				}
			}
			return nil
		})
		require.NoError(t, err)
		handles[i] = h
	}

	tick(s)
	for _, err := range errs {
		requireT.NoError(err)
	}
	requireT.False(handles[1].IsValid())
	requireT.True(handles[0].IsValid())
	requireT.True(handles[2].IsValid())
	requireT.Equal(2, s.Len())
	requirePartitioned(t, s)

	// Survivors keep ticking after the compaction swap.
	tick(s)
	c3, err := handles[2].Get()
	requireT.NoError(err)
	requireT.Equal(2, c3.ticks)
}

func TestStatsCounters(t *testing.T) {
	requireT := require.New(t)
	s := newCritterStore(t, 4)

	h1 := createCritter(t, s, 1)
	h2 := createCritter(t, s, 2)

	requireT.NoError(s.SetActive(h1, false))
	s.LateUpdate()
	requireT.NoError(s.SetActive(h1, true))
	s.LateUpdate()
	requireT.NoError(s.Delete(h2))
	s.LateUpdate()

	st := s.Stats()
	requireT.Equal(uint64(2), st.Created)
	requireT.Equal(uint64(1), st.Destroyed)
	requireT.Equal(uint64(1), st.Slept)
	requireT.Equal(uint64(1), st.Woken)
}

// TestTickScenario walks the canonical three-record sequence: spawn three,
// tick, put the third to sleep, tick, delete the second, tick, wake the
// third, tick.
func TestTickScenario(t *testing.T) {
	requireT := require.New(t)
	s := newCritterStore(t, 8)

	h1 := createCritter(t, s, 1)
	h2 := createCritter(t, s, 2)
	h3 := createCritter(t, s, 3)
	requireT.Equal(3, s.ActiveLen())

	tick(s) // 1: everyone runs

	requireT.NoError(s.SetActive(h3, false))
	tick(s) // 2: h3 runs once more, then moves to the sleeping partition
	requireT.Equal(2, s.ActiveLen())
	requireT.Equal(1, s.SleepingLen())

	requireT.NoError(s.Delete(h2))
	tick(s) // 3: h2 runs once more, then is destroyed
	requireT.False(h2.IsValid())
	requireT.Equal(2, s.Len())

	requireT.NoError(s.SetActive(h3, true))
	tick(s) // 4: h3 still asleep during the pass, awake afterwards
	requireT.Equal(2, s.ActiveLen())
	requireT.Equal(0, s.SleepingLen())

	c1, err := h1.Get()
	requireT.NoError(err)
	requireT.Equal(4, c1.ticks)
	c3, err := h3.Get()
	requireT.NoError(err)
	requireT.Equal(2, c3.ticks)

	tick(s) // 5: both survivors run
	c1, err = h1.Get()
	requireT.NoError(err)
	requireT.Equal(5, c1.ticks)
	c3, err = h3.Get()
	requireT.NoError(err)
	requireT.Equal(3, c3.ticks)

	st := s.Stats()
	requireT.Equal(uint64(3), st.Created)
	requireT.Equal(uint64(1), st.Destroyed)
	requireT.Equal(uint64(1), st.Slept)
	requireT.Equal(uint64(1), st.Woken)
	requirePartitioned(t, s)
}

// TestChurn mixes the whole API over many ticks and re-checks the structural
// invariant after every checkpoint.
func TestChurn(t *testing.T) {
	requireT := require.New(t)
	s := newCritterStore(t, 16)

	live := make([]Handle[critter, *critter], 0, 16)
	next := 1

	for round := 0; round < 40; round++ {
		for len(live) < 12 {
			live = append(live, createCritter(t, s, next))
			next++
		}

		// Alternate sleeping the even records and waking everything.
		for i, h := range live {
			want := round%2 == 0 || i%2 == 1
			requireT.NoError(s.SetActive(h, want))
		}
		// Retire a third of the population.
		for i := 0; i < len(live); i += 3 {
			requireT.NoError(s.Delete(live[i]))
		}

		tick(s)
		requirePartitioned(t, s)

		kept := live[:0]
		for _, h := range live {
			if h.IsValid() {
				kept = append(kept, h)
			}
		}
		live = kept

		for _, h := range live {
			c, err := h.Get()
			requireT.NoError(err)
			requireT.Positive(c.id)
		}
		requireT.Equal(len(live), s.Len())
	}

	st := s.Stats()
	requireT.Equal(st.Created-st.Destroyed, uint64(s.Len()))
}
