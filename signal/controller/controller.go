// Package controller handles WebSocket connections and translates them into
// coordinator events.
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"relay/broker"
	"relay/broker/subscription"
	"relay/coordinator"
	"relay/metric"
	"relay/pkg/socket"
	"relay/types/client/request"
	"relay/types/client/response"
	"relay/types/message"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

var (
	// ErrInvalidPayload is returned when a relay request cannot be decoded.
	ErrInvalidPayload = errors.New("invalid signaling payload")

	// ErrUnknownRequest is returned for request types the relay does not handle.
	ErrUnknownRequest = errors.New("unknown request type")
)

// Controller handles WebSocket connections.
type Controller struct {
	broker      *broker.Broker
	coordinator *coordinator.Coordinator
	metric      *metric.Metrics
	pingPeriod  time.Duration

	mu      sync.Mutex
	closers map[string]func()
}

// New creates a new instance of Controller.
func New(b *broker.Broker, cod *coordinator.Coordinator, m *metric.Metrics) *Controller {
	return &Controller{
		broker:      b,
		coordinator: cod,
		metric:      m,
		pingPeriod:  socket.PingPeriod,
		closers:     make(map[string]func()),
	}
}

// CloseAll closes every socket being processed. Each Process call then runs
// its disconnect cleanup and returns.
func (c *Controller) CloseAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, closeSocket := range c.closers {
		closeSocket()
	}
}

func (c *Controller) track(id string, closeSocket func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closers[id] = closeSocket
}

func (c *Controller) untrack(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.closers, id)
}

// Process serves one connection until it is closed. The socket is closed
// before Process returns.
func (c *Controller) Process(s socket.Socket) error {
	c.metric.IncrementWebSocketConnections()
	defer c.metric.DecrementWebSocketConnections()

	var once sync.Once
	closeSocket := func() {
		once.Do(func() {
			if err := s.Close(); err != nil {
				slog.Debug("failed to close socket", "error", err)
			}
		})
	}
	defer closeSocket()

	// 01. Register the connection so that it can be addressed by its id
	connectionID := shortuuid.New()
	detail := broker.Detail(connectionID)
	sub := c.broker.Subscribe(broker.ClientSocket, detail)
	c.track(connectionID, closeSocket)
	defer c.untrack(connectionID)

	if err := s.WriteJSON(response.Connected{
		Type:         response.TypeConnected,
		ConnectionID: connectionID,
	}); err != nil {
		if err := c.broker.Unsubscribe(broker.ClientSocket, detail, sub); err != nil {
			slog.Error("failed to unsubscribe", "connection_id", connectionID, "error", err)
		}
		return fmt.Errorf("failed to send connected message: %w", err)
	}
	if err := c.coordinator.Handle(message.Connect{ConnectionID: connectionID}); err != nil {
		slog.Error("failed to handle connect", "connection_id", connectionID, "error", err)
	}

	// 02. Build the context for the response goroutine
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.sendResponse(ctx, s, sub); err != nil {
			slog.Warn("failed to send response", "connection_id", connectionID, "error", err)
			closeSocket()
		}
	}()

	// 03. Clean up the room membership once the client is gone
	defer func() {
		if err := c.coordinator.Handle(message.Disconnect{ConnectionID: connectionID}); err != nil {
			slog.Error("failed to handle disconnect", "connection_id", connectionID, "error", err)
		}
		if err := c.broker.Unsubscribe(broker.ClientSocket, detail, sub); err != nil {
			slog.Error("failed to unsubscribe", "connection_id", connectionID, "error", err)
		}
		cancel()
		<-done
		slog.Debug("client disconnected", "connection_id", connectionID)
	}()

	if err := c.receiveRequest(s, connectionID); err != nil {
		return fmt.Errorf("failed to receive request: %w", err)
	}
	return nil
}

// sendResponse writes queued events to the socket and keeps the connection alive.
func (c *Controller) sendResponse(ctx context.Context, s socket.Socket, sub *subscription.Subscription) error {
	ticker := time.NewTicker(c.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Receive():
			if !ok {
				return nil
			}
			if err := s.WriteJSON(msg); err != nil {
				return fmt.Errorf("failed to write message: %w", err)
			}
		case <-ticker.C:
			if err := s.Ping(); err != nil {
				return fmt.Errorf("failed to ping: %w", err)
			}
		}
	}
}

// receiveRequest receives requests from the socket until it is closed.
func (c *Controller) receiveRequest(s socket.Socket, connectionID string) error {
	for {
		var req request.Common
		if err := s.ReadJSON(&req); err != nil {
			if socket.IsClosed(err) {
				return nil
			}
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				slog.Debug("malformed request", "connection_id", connectionID, "error", err)
				continue
			}
			return err
		}
		if err := c.handleRequest(req, connectionID); err != nil {
			slog.Debug("failed to handle request", "connection_id", connectionID, "type", req.Type, "error", err)
			c.reply(connectionID, req.Type, err)
		}
	}
}

// handleRequest parses the request type and passes the event to the coordinator.
func (c *Controller) handleRequest(req request.Common, connectionID string) error {
	event, err := parse(req, connectionID)
	if err != nil {
		return err
	}
	return c.coordinator.Handle(event)
}

// parse converts the request into a coordinator event.
func parse(req request.Common, connectionID string) (any, error) {
	switch req.Type {
	case request.TypeJoinRoom:
		var roomID string
		if err := json.Unmarshal(req.Payload, &roomID); err != nil {
			return nil, fmt.Errorf("room id %s: %w", req.Payload, coordinator.ErrInvalidRoomID)
		}
		return message.Join{ConnectionID: connectionID, RoomID: roomID}, nil
	case request.TypeOffer:
		var payload request.Offer
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal offer payload: %w", ErrInvalidPayload)
		}
		return message.Offer{
			ConnectionID: connectionID,
			RoomID:       payload.RoomID,
			TargetPeerID: payload.TargetPeerID,
			Offer:        payload.Offer,
		}, nil
	case request.TypeAnswer:
		var payload request.Answer
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal answer payload: %w", ErrInvalidPayload)
		}
		return message.Answer{
			ConnectionID: connectionID,
			RoomID:       payload.RoomID,
			TargetPeerID: payload.TargetPeerID,
			Answer:       payload.Answer,
		}, nil
	case request.TypeIceCandidate:
		var payload request.IceCandidate
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ice-candidate payload: %w", ErrInvalidPayload)
		}
		return message.IceCandidate{
			ConnectionID: connectionID,
			RoomID:       payload.RoomID,
			TargetPeerID: payload.TargetPeerID,
			Candidate:    payload.Candidate,
		}, nil
	default:
		return nil, fmt.Errorf("%q: %w", req.Type, ErrUnknownRequest)
	}
}

// reply translates the error into the named error event of the request.
// Errors without a message of their own fall back to a generic one.
func (c *Controller) reply(connectionID, requestType string, err error) {
	var event any
	switch {
	case errors.Is(err, coordinator.ErrInvalidRoomID):
		event = response.RoomError{Type: response.TypeRoomError, Error: "Invalid room ID"}
	case errors.Is(err, coordinator.ErrRoomFull):
		event = response.RoomError{Type: response.TypeRoomError, Error: "Room is full"}
	case errors.Is(err, coordinator.ErrAlreadyInRoom):
		event = response.RoomError{Type: response.TypeRoomError, Error: "Already joined another room"}
	case errors.Is(err, coordinator.ErrNotRoomParticipant):
		event = response.SignalingError{Type: response.TypeSignalingError, Error: "Not a participant of this room"}
	case errors.Is(err, coordinator.ErrTargetNotInRoom):
		event = response.SignalingError{Type: response.TypeSignalingError, Error: "Target is not a participant of this room"}
	case errors.Is(err, ErrInvalidPayload):
		event = response.SignalingError{Type: response.TypeSignalingError, Error: "Invalid signaling payload"}
	case errors.Is(err, ErrUnknownRequest):
		return
	case requestType == request.TypeJoinRoom:
		event = response.RoomError{Type: response.TypeRoomError, Error: "Failed to join room"}
	default:
		event = response.SignalingError{Type: response.TypeSignalingError, Error: "Failed to relay message"}
	}

	if err := c.broker.Publish(broker.ClientSocket, broker.Detail(connectionID), event); err != nil {
		slog.Warn("failed to deliver error", "connection_id", connectionID, "error", err)
	}
}
