// Package response provides data types for server response to client.
package response

import "encoding/json"

// Constants for response types
const (
	TypeConnected        = "connected"
	TypeRoomJoined       = "room-joined"
	TypeRoomError        = "room-error"
	TypeNewPeer          = "new-peer"
	TypePeerDisconnected = "peer-disconnected"
	TypeOffer            = "offer"
	TypeAnswer           = "answer"
	TypeIceCandidate     = "ice-candidate"
	TypeSignalingError   = "signaling-error"
)

// Connected is data type for telling a client its connection id
type Connected struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connectionId"`
}

// RoomJoined is data type for a successful join
type RoomJoined struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	RoomID  string `json:"roomId"`
}

// RoomError is data type for a failed join
type RoomError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// NewPeer is data type for announcing a peer in the same room
type NewPeer struct {
	Type   string `json:"type"`
	PeerID string `json:"peerId"`
}

// PeerDisconnected is data type for announcing a peer that left the room
type PeerDisconnected struct {
	Type   string `json:"type"`
	PeerID string `json:"peerId"`
}

// Offer is data type for a relayed offer
type Offer struct {
	Type     string          `json:"type"`
	Offer    json.RawMessage `json:"offer"`
	SenderID string          `json:"senderId"`
}

// Answer is data type for a relayed answer
type Answer struct {
	Type     string          `json:"type"`
	Answer   json.RawMessage `json:"answer"`
	SenderID string          `json:"senderId"`
}

// IceCandidate is data type for a relayed ICE candidate
type IceCandidate struct {
	Type      string          `json:"type"`
	Candidate json.RawMessage `json:"candidate"`
	SenderID  string          `json:"senderId"`
}

// SignalingError is data type for a failed relay
type SignalingError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
