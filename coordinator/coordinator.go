// Package coordinator tracks room membership and relays signaling messages
// between the peers of a room.
package coordinator

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"relay/broker"
	"relay/database"
	"relay/metric"
	"relay/types/client/response"
	"relay/types/message"
	"sync"
)

// Below are the errors returned to the connection that sent the event.
var (
	ErrInvalidRoomID      = errors.New("invalid room id")
	ErrRoomFull           = errors.New("room is full")
	ErrAlreadyInRoom      = errors.New("already joined another room")
	ErrNotRoomParticipant = errors.New("not a participant of the room")
	ErrTargetNotInRoom    = errors.New("target is not a participant of the room")
	ErrUnknownEvent       = errors.New("unknown event")
)

// Kind is the kind of a relayed signaling message.
type Kind string

// Relayed signaling kinds.
const (
	KindOffer        Kind = "offer"
	KindAnswer       Kind = "answer"
	KindIceCandidate Kind = "ice-candidate"
)

// Coordinator owns the room store and turns inbound events into membership
// changes and outbound events.
type Coordinator struct {
	// mu serializes membership changes together with their notifications.
	mu sync.Mutex

	config    Config
	publisher Publisher
	database  database.Database
	metric    *metric.Metrics
}

// New creates a new instance of Coordinator.
func New(c Config, p Publisher, db database.Database, m *metric.Metrics) *Coordinator {
	return &Coordinator{
		config:    c,
		publisher: p,
		database:  db,
		metric:    m,
	}
}

// Handle dispatches an inbound event to the matching operation.
func (c *Coordinator) Handle(event any) error {
	switch e := event.(type) {
	case message.Connect:
		c.OnConnect(e.ConnectionID)
		return nil
	case message.Disconnect:
		c.OnDisconnect(e.ConnectionID)
		return nil
	case message.Join:
		return c.JoinRoom(e.ConnectionID, e.RoomID)
	case message.Offer:
		return c.Relay(KindOffer, e.ConnectionID, e.RoomID, e.TargetPeerID, e.Offer)
	case message.Answer:
		return c.Relay(KindAnswer, e.ConnectionID, e.RoomID, e.TargetPeerID, e.Answer)
	case message.IceCandidate:
		return c.Relay(KindIceCandidate, e.ConnectionID, e.RoomID, e.TargetPeerID, e.Candidate)
	default:
		return fmt.Errorf("%T: %w", event, ErrUnknownEvent)
	}
}

// OnConnect observes a new connection. It does not touch the room store.
func (c *Coordinator) OnConnect(connectionID string) {
	slog.Debug("client connected", "connection_id", connectionID)
}

// OnDisconnect removes the connection from every room it belongs to. Emptied
// rooms are destroyed, remaining members are told that the peer left.
func (c *Coordinator) OnDisconnect(connectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rooms, err := c.database.RemoveMember(connectionID)
	if err != nil {
		slog.Error("failed to remove member", "connection_id", connectionID, "error", err)
		return
	}

	for _, room := range rooms {
		if room.IsEmpty() {
			slog.Info("room deleted", "room_id", room.ID)
			c.metric.DecrementRoomsActive()
			continue
		}
		slog.Info("peer left room", "room_id", room.ID, "connection_id", connectionID)
		for _, peerID := range room.MemberIDs() {
			c.publish(peerID, response.PeerDisconnected{
				Type:   response.TypePeerDisconnected,
				PeerID: connectionID,
			})
			c.metric.IncrementPeerDisconnects()
		}
	}
}

// JoinRoom adds the connection to the room and introduces it to the peers
// already there. Nothing is changed when an error is returned.
func (c *Coordinator) JoinRoom(connectionID, roomID string) error {
	if roomID == "" {
		c.metric.ObserveRoomJoin("invalid_room_id")
		return ErrInvalidRoomID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.database.AddMember(roomID, connectionID, Capacity)
	switch {
	case errors.Is(err, database.ErrMemberAlreadyExists):
		slog.Debug("client rejoined room", "room_id", roomID, "connection_id", connectionID)
		c.metric.ObserveRoomJoin("rejoined")
		c.publish(connectionID, response.RoomJoined{
			Type:    response.TypeRoomJoined,
			Success: true,
			RoomID:  roomID,
		})
		return nil
	case errors.Is(err, database.ErrMemberInOtherRoom):
		c.metric.ObserveRoomJoin("already_in_room")
		return fmt.Errorf("%s: %w", roomID, ErrAlreadyInRoom)
	case errors.Is(err, database.ErrRoomFull):
		c.metric.ObserveRoomJoin("room_full")
		return fmt.Errorf("%s: %w", roomID, ErrRoomFull)
	case err != nil:
		c.metric.ObserveRoomJoin("error")
		return fmt.Errorf("failed to add member: %w", err)
	}

	slog.Info("client joined room", "room_id", roomID, "connection_id", connectionID, "members", room.Len())
	c.metric.ObserveRoomJoin(metric.ResultSuccess)
	if room.Len() == 1 {
		c.metric.IncrementRoomsActive()
	}

	c.publish(connectionID, response.RoomJoined{
		Type:    response.TypeRoomJoined,
		Success: true,
		RoomID:  roomID,
	})
	for _, peerID := range room.Others(connectionID) {
		c.publish(peerID, response.NewPeer{
			Type:   response.TypeNewPeer,
			PeerID: connectionID,
		})
		c.publish(connectionID, response.NewPeer{
			Type:   response.TypeNewPeer,
			PeerID: peerID,
		})
	}
	return nil
}

// Relay forwards the payload to the target peer on behalf of a member of the
// room. The payload is not inspected.
func (c *Coordinator) Relay(kind Kind, connectionID, roomID, targetPeerID string, payload json.RawMessage) error {
	out, err := relayed(kind, connectionID, payload)
	if err != nil {
		return err
	}

	ok, err := c.database.IsMember(roomID, connectionID)
	if err != nil {
		c.metric.ObserveSignalingRelay(string(kind), "error")
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !ok {
		c.metric.ObserveSignalingRelay(string(kind), "not_room_participant")
		return fmt.Errorf("%s in %s: %w", connectionID, roomID, ErrNotRoomParticipant)
	}

	if c.config.StrictRelay {
		ok, err := c.database.IsMember(roomID, targetPeerID)
		if err != nil {
			c.metric.ObserveSignalingRelay(string(kind), "error")
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if !ok {
			c.metric.ObserveSignalingRelay(string(kind), "target_not_in_room")
			return fmt.Errorf("%s in %s: %w", targetPeerID, roomID, ErrTargetNotInRoom)
		}
	}

	slog.Debug("relaying signal", "kind", kind, "room_id", roomID, "connection_id", connectionID, "peer_id", targetPeerID)
	c.metric.ObserveSignalingRelay(string(kind), metric.ResultSuccess)
	c.publish(targetPeerID, out)
	return nil
}

// relayed builds the outbound event for the kind.
func relayed(kind Kind, senderID string, payload json.RawMessage) (any, error) {
	switch kind {
	case KindOffer:
		return response.Offer{Type: response.TypeOffer, Offer: payload, SenderID: senderID}, nil
	case KindAnswer:
		return response.Answer{Type: response.TypeAnswer, Answer: payload, SenderID: senderID}, nil
	case KindIceCandidate:
		return response.IceCandidate{Type: response.TypeIceCandidate, Candidate: payload, SenderID: senderID}, nil
	default:
		return nil, fmt.Errorf("relay %s: %w", kind, ErrUnknownEvent)
	}
}

// publish sends the event to the connection. Delivery failures are logged and
// never retried.
func (c *Coordinator) publish(connectionID string, event any) {
	if err := c.publisher.Publish(broker.ClientSocket, broker.Detail(connectionID), event); err != nil {
		slog.Warn("failed to deliver event", "connection_id", connectionID, "error", err)
	}
}
