// Package request defines structures for client request messages.
package request

import "encoding/json"

// Constants for request types
const (
	TypeJoinRoom     = "join-room"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeIceCandidate = "ice-candidate"
)

// Common represents a generic request structure used in WebSocket communication.
type Common struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Offer is data type for sending a session description offer
type Offer struct {
	RoomID       string          `json:"roomId"`
	Offer        json.RawMessage `json:"offer"`
	TargetPeerID string          `json:"targetPeerId"`
}

// Answer is data type for sending a session description answer
type Answer struct {
	RoomID       string          `json:"roomId"`
	Answer       json.RawMessage `json:"answer"`
	TargetPeerID string          `json:"targetPeerId"`
}

// IceCandidate is data type for sending an ICE candidate
type IceCandidate struct {
	RoomID       string          `json:"roomId"`
	Candidate    json.RawMessage `json:"candidate"`
	TargetPeerID string          `json:"targetPeerId"`
}
