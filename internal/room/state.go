package room

// State is the phase of a room's round protocol.
type State int

const (
	// StateInit waits for two seated members that have both entered the room.
	StateInit State = iota
	// StateReady waits for both seats to signal they are ready to start a round.
	StateReady
	// StatePlaying accepts drops from the seat whose turn it is.
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// MarshalText lets the state appear by name in JSON snapshots.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
