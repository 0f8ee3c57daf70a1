package database

import "time"

// MemberInfo is a struct for a connection's membership in a room.
type MemberInfo struct {
	RoomID       string
	ConnectionID string
	JoinedAt     time.Time
}

// DeepCopy creates a deep copy of the given MemberInfo.
func (m *MemberInfo) DeepCopy() *MemberInfo {
	return &MemberInfo{
		RoomID:       m.RoomID,
		ConnectionID: m.ConnectionID,
		JoinedAt:     m.JoinedAt,
	}
}
