package event

// Lifecycle notifications emitted by the world layer. Delivery lags the
// checkpoint that caused them by one tick, per the bus's double buffering.

type ComponentSpawned struct {
	Kind string
	Name string
}

type ComponentDespawned struct {
	Kind  string
	Name  string
	Cause string // "vanished", "expired"
}

type ComponentSlept struct {
	Kind string
	Name string
}

type ComponentWoken struct {
	Kind string
	Name string
}

type SpawnRejected struct {
	Kind   string
	Name   string
	Reason error
}
