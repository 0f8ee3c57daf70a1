package database

// RoomInfo is a snapshot of a room and its members ordered by join time.
type RoomInfo struct {
	ID      string
	Members []*MemberInfo
}

// Len returns the number of members.
func (r *RoomInfo) Len() int {
	return len(r.Members)
}

// IsEmpty reports whether the room has no members left.
func (r *RoomInfo) IsEmpty() bool {
	return len(r.Members) == 0
}

// MemberIDs returns the connection IDs of all members.
func (r *RoomInfo) MemberIDs() []string {
	ids := make([]string, 0, len(r.Members))
	for _, m := range r.Members {
		ids = append(ids, m.ConnectionID)
	}
	return ids
}

// Others returns the connection IDs of all members except the given one.
func (r *RoomInfo) Others(connectionID string) []string {
	ids := make([]string, 0, len(r.Members))
	for _, m := range r.Members {
		if m.ConnectionID != connectionID {
			ids = append(ids, m.ConnectionID)
		}
	}
	return ids
}
