// Package socket provides an interface for managing socket.
package socket

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// WriteWait is the time allowed to write a message to the peer.
	WriteWait = 10 * time.Second

	// PongWait is the time allowed to read the next pong message from the peer.
	PongWait = 60 * time.Second

	// PingPeriod is the period of pings sent to the peer. Must be less than PongWait.
	PingPeriod = (PongWait * 9) / 10

	// MaxMessageSize is the maximum message size allowed from the peer.
	MaxMessageSize = 64 * 1024
)

// WebSocket wraps the gorilla/websocket connection.
type WebSocket struct {
	conn *websocket.Conn
}

// New creates a new WebSocket connection by upgrading the HTTP request.
// checkOrigin decides whether the Origin header of the request is allowed.
func New(w http.ResponseWriter, r *http.Request, checkOrigin func(r *http.Request) bool) (*WebSocket, error) {
	ug := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     checkOrigin,
	}

	conn, err := ug.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return Wrap(conn), nil
}

// Wrap configures the read limit and keep-alive of an established connection.
func Wrap(conn *websocket.Conn) *WebSocket {
	conn.SetReadLimit(MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(PongWait))
	})
	return &WebSocket{
		conn: conn,
	}
}

// Close closes the WebSocket connection after a best-effort close frame.
func (s *WebSocket) Close() error {
	_ = s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(WriteWait),
	)
	return s.conn.Close()
}

// WriteJSON sends a JSON message to the WebSocket connection.
func (s *WebSocket) WriteJSON(data any) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(WriteWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(data)
}

// ReadJSON reads a JSON message from the WebSocket connection and unmarshals it into the provided variable.
func (s *WebSocket) ReadJSON(v any) error {
	return s.conn.ReadJSON(v)
}

// Ping sends a ping control message.
func (s *WebSocket) Ping() error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(WriteWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

// IsClosed reports whether the error means the peer closed the connection.
func IsClosed(err error) bool {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return !websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure)
	}
	return false
}
