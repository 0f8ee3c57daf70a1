package coordinator

// Capacity is the number of peers a room can hold.
const Capacity = 2

// Default values for the coordinator. If the values are not set, these values are used.
const (
	DefaultStrictRelay = false
)

// Config contains the configuration for the coordinator.
type Config struct {
	// StrictRelay additionally requires the relay target to be a member of
	// the sender's room.
	StrictRelay bool
}
