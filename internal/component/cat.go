package component

import "time"

// Cat is the pooled testbed record. Records live in a store's flat array and
// are relocated by compaction, so Cat stays a plain value: assignment moves
// it completely, the zero value is a destroyed cat.
type Cat struct {
	Kind   string
	Name   string
	Mood   string
	Energy int
	Age    int // ticks since spawn
	Naps   int // times it has been put to sleep

	// Brain runs once per Update with the cat's current location. The world
	// installs it at spawn; scripted decisions enter the record through it.
	// It must not retain the pointer it is handed.
	Brain func(*Cat)
}

// Update advances the cat by one tick.
func (c *Cat) Update(dt time.Duration) {
	_ = dt
	c.Age++
	if c.Brain != nil {
		c.Brain(c)
	}
}
