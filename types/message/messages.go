// Package message provides the inbound events handled by the coordinator.
package message

import "encoding/json"

// Connect is data type for a newly registered connection
type Connect struct {
	ConnectionID string
}

// Disconnect is data type for a closed connection
type Disconnect struct {
	ConnectionID string
}

// Join is data type for joining a room
type Join struct {
	ConnectionID string
	RoomID       string
}

// Offer is data type for relaying a session description offer
type Offer struct {
	ConnectionID string
	RoomID       string
	TargetPeerID string
	Offer        json.RawMessage
}

// Answer is data type for relaying a session description answer
type Answer struct {
	ConnectionID string
	RoomID       string
	TargetPeerID string
	Answer       json.RawMessage
}

// IceCandidate is data type for relaying an ICE candidate
type IceCandidate struct {
	ConnectionID string
	RoomID       string
	TargetPeerID string
	Candidate    json.RawMessage
}
