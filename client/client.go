// Package client contains the Go SDK for peers of the relay.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"relay/types/client/request"
	"relay/types/client/response"
	"sync"

	"github.com/gorilla/websocket"
)

// EventQueueSize is the number of events buffered before the reader blocks.
const EventQueueSize = 64

// ErrUnexpectedHandshake is returned when the relay does not greet with its
// connected message.
var ErrUnexpectedHandshake = errors.New("unexpected handshake")

// Event is a message received from the relay. Only the fields of its type
// are set.
type Event struct {
	Type         string          `json:"type"`
	ConnectionID string          `json:"connectionId,omitempty"`
	Success      bool            `json:"success,omitempty"`
	RoomID       string          `json:"roomId,omitempty"`
	PeerID       string          `json:"peerId,omitempty"`
	SenderID     string          `json:"senderId,omitempty"`
	Error        string          `json:"error,omitempty"`
	Offer        json.RawMessage `json:"offer,omitempty"`
	Answer       json.RawMessage `json:"answer,omitempty"`
	Candidate    json.RawMessage `json:"candidate,omitempty"`
}

// Client is a signaling connection to the relay.
type Client struct {
	id     string
	socket *websocket.Conn
	events chan Event

	done      chan struct{}
	closeOnce sync.Once

	// writeMu serializes writes, gorilla allows one writer at a time.
	writeMu sync.Mutex
}

// Dial connects to the relay at the WebSocket URL and waits for its
// connected message.
func Dial(ctx context.Context, url string, header http.Header) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}

	var hello Event
	if err := conn.ReadJSON(&hello); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to read handshake: %w", err)
	}
	if hello.Type != response.TypeConnected || hello.ConnectionID == "" {
		_ = conn.Close()
		return nil, fmt.Errorf("%q: %w", hello.Type, ErrUnexpectedHandshake)
	}

	c := &Client{
		id:     hello.ConnectionID,
		socket: conn,
		events: make(chan Event, EventQueueSize),
		done:   make(chan struct{}),
	}
	go c.receive()
	return c, nil
}

// ID returns the connection id assigned by the relay.
func (c *Client) ID() string {
	return c.id
}

// Events returns the events received from the relay. The channel is closed
// when the connection is gone.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Join asks the relay to add this connection to the room.
func (c *Client) Join(roomID string) error {
	return c.send(request.TypeJoinRoom, roomID)
}

// SendOffer relays a session description offer to the target peer.
func (c *Client) SendOffer(roomID, targetPeerID string, offer any) error {
	raw, err := json.Marshal(offer)
	if err != nil {
		return fmt.Errorf("failed to marshal offer: %w", err)
	}
	return c.send(request.TypeOffer, request.Offer{RoomID: roomID, Offer: raw, TargetPeerID: targetPeerID})
}

// SendAnswer relays a session description answer to the target peer.
func (c *Client) SendAnswer(roomID, targetPeerID string, answer any) error {
	raw, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	return c.send(request.TypeAnswer, request.Answer{RoomID: roomID, Answer: raw, TargetPeerID: targetPeerID})
}

// SendCandidate relays an ICE candidate to the target peer.
func (c *Client) SendCandidate(roomID, targetPeerID string, candidate any) error {
	raw, err := json.Marshal(candidate)
	if err != nil {
		return fmt.Errorf("failed to marshal candidate: %w", err)
	}
	return c.send(request.TypeIceCandidate, request.IceCandidate{RoomID: roomID, Candidate: raw, TargetPeerID: targetPeerID})
}

// Close closes the connection. The relay then removes it from its room.
// Events not yet read are discarded.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.done) })

	c.writeMu.Lock()
	_ = c.socket.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.socket.Close()
}

func (c *Client) send(typ string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", typ, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.socket.WriteJSON(request.Common{Type: typ, Payload: raw}); err != nil {
		return fmt.Errorf("failed to send %s: %w", typ, err)
	}
	return nil
}

func (c *Client) receive() {
	defer close(c.events)
	for {
		var ev Event
		if err := c.socket.ReadJSON(&ev); err != nil {
			slog.Debug("signaling connection closed", "connection_id", c.id, "error", err)
			return
		}
		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}
