package metric

// Phase is where the engine is in a refresh cycle.
type Phase int

const (
	Idle Phase = iota
	AwaitingAuthorization
	Querying
	Settled
)

// String provides a human-readable representation of the Phase.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "Idle"
	case AwaitingAuthorization:
		return "AwaitingAuthorization"
	case Querying:
		return "Querying"
	case Settled:
		return "Settled"
	default:
		return "Unknown"
	}
}

// InFlight reports whether a cycle is running in this phase.
func (p Phase) InFlight() bool {
	return p == AwaitingAuthorization || p == Querying
}
