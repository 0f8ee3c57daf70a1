package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"relay/types/client/response"
	"sync"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
)

// DataChannelLabel is the label of the data channel opened by the offerer.
const DataChannelLabel = "relay"

// Below are the errors that end a session.
var (
	ErrPeerDisconnected = errors.New("peer disconnected")
	ErrRejected         = errors.New("rejected by relay")
	ErrConnectionClosed = errors.New("signaling connection closed")
)

// NewAPI creates a webrtc API with the default codecs and interceptors.
func NewAPI(config Config) (*webrtc.API, error) {
	se, err := config.SettingEngine()
	if err != nil {
		return nil, err
	}

	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("failed to register codecs: %w", err)
	}

	i := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, i); err != nil {
		return nil, fmt.Errorf("failed to register interceptors: %w", err)
	}

	return webrtc.NewAPI(
		webrtc.WithMediaEngine(m),
		webrtc.WithInterceptorRegistry(i),
		webrtc.WithSettingEngine(se),
	), nil
}

// Session negotiates one peer connection with the other member of a room.
// The member with the greater connection id makes the offer.
type Session struct {
	client *Client
	roomID string
	conn   *webrtc.PeerConnection

	mu            sync.Mutex
	peerID        string
	remoteSet     bool
	pending       []webrtc.ICECandidateInit
	dataChannel   *webrtc.DataChannel
	negotiated    chan struct{}
	negotiateOnce sync.Once
}

// NewSession creates a session for the room. Local tracks are sent to the
// peer once the connection is negotiated.
func NewSession(c *Client, api *webrtc.API, roomID string, config Config, tracks ...webrtc.TrackLocal) (*Session, error) {
	conn, err := api.NewPeerConnection(config.Configuration())
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}

	s := &Session{
		client:     c,
		roomID:     roomID,
		conn:       conn,
		negotiated: make(chan struct{}),
	}

	for _, track := range tracks {
		sender, err := conn.AddTrack(track)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to add track: %w", err)
		}
		go func() {
			rtcpBuf := make([]byte, 1500)
			for {
				if _, _, rtcpErr := sender.Read(rtcpBuf); rtcpErr != nil {
					return
				}
			}
		}()
	}

	conn.OnICECandidate(s.onICECandidate)
	conn.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		slog.Debug("peer connection state changed", "connection_id", c.ID(), "state", state.String())
		if state == webrtc.PeerConnectionStateConnected {
			s.negotiateOnce.Do(func() { close(s.negotiated) })
		}
	})
	conn.OnDataChannel(func(dc *webrtc.DataChannel) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.dataChannel = dc
	})

	return s, nil
}

// Negotiated is closed once the peer connection is connected.
func (s *Session) Negotiated() <-chan struct{} {
	return s.negotiated
}

// PeerID returns the id of the remote peer, empty until one is known.
func (s *Session) PeerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerID
}

// DataChannel returns the data channel shared with the peer, nil until it
// has been created or announced.
func (s *Session) DataChannel() *webrtc.DataChannel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataChannel
}

// Close closes the peer connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

// Run joins the room and handles relay events until the context is done or
// the session ends.
func (s *Session) Run(ctx context.Context) error {
	if err := s.client.Join(s.roomID); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-s.client.Events():
			if !ok {
				return ErrConnectionClosed
			}
			if err := s.handle(ev); err != nil {
				return err
			}
		}
	}
}

func (s *Session) handle(ev Event) error {
	switch ev.Type {
	case response.TypeRoomJoined:
		slog.Debug("joined room", "connection_id", s.client.ID(), "room_id", ev.RoomID)
		return nil
	case response.TypeNewPeer:
		s.setPeer(ev.PeerID)
		if s.client.ID() > ev.PeerID {
			return s.offer()
		}
		return nil
	case response.TypeOffer:
		s.setPeer(ev.SenderID)
		return s.answer(ev.Offer)
	case response.TypeAnswer:
		var desc webrtc.SessionDescription
		if err := json.Unmarshal(ev.Answer, &desc); err != nil {
			return fmt.Errorf("failed to unmarshal answer: %w", err)
		}
		return s.setRemoteDescription(desc)
	case response.TypeIceCandidate:
		var candidate webrtc.ICECandidateInit
		if err := json.Unmarshal(ev.Candidate, &candidate); err != nil {
			return fmt.Errorf("failed to unmarshal candidate: %w", err)
		}
		return s.addCandidate(candidate)
	case response.TypePeerDisconnected:
		return fmt.Errorf("%s: %w", ev.PeerID, ErrPeerDisconnected)
	case response.TypeRoomError, response.TypeSignalingError:
		return fmt.Errorf("%s: %w", ev.Error, ErrRejected)
	default:
		slog.Debug("ignored event", "connection_id", s.client.ID(), "type", ev.Type)
		return nil
	}
}

func (s *Session) offer() error {
	dc, err := s.conn.CreateDataChannel(DataChannelLabel, nil)
	if err != nil {
		return fmt.Errorf("failed to create data channel: %w", err)
	}
	s.mu.Lock()
	s.dataChannel = dc
	s.mu.Unlock()

	offer, err := s.conn.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}
	if err := s.conn.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("failed to set local description: %w", err)
	}
	return s.client.SendOffer(s.roomID, s.PeerID(), offer)
}

func (s *Session) answer(raw json.RawMessage) error {
	var offer webrtc.SessionDescription
	if err := json.Unmarshal(raw, &offer); err != nil {
		return fmt.Errorf("failed to unmarshal offer: %w", err)
	}
	if err := s.setRemoteDescription(offer); err != nil {
		return err
	}

	answer, err := s.conn.CreateAnswer(nil)
	if err != nil {
		return fmt.Errorf("failed to create answer: %w", err)
	}
	if err := s.conn.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("failed to set local description: %w", err)
	}
	return s.client.SendAnswer(s.roomID, s.PeerID(), answer)
}

// setRemoteDescription applies the description and flushes the candidates
// that arrived before it.
func (s *Session) setRemoteDescription(desc webrtc.SessionDescription) error {
	if err := s.conn.SetRemoteDescription(desc); err != nil {
		return fmt.Errorf("failed to set remote description: %w", err)
	}

	s.mu.Lock()
	s.remoteSet = true
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, candidate := range pending {
		if err := s.conn.AddICECandidate(candidate); err != nil {
			return fmt.Errorf("failed to add candidate: %w", err)
		}
	}
	return nil
}

func (s *Session) addCandidate(candidate webrtc.ICECandidateInit) error {
	s.mu.Lock()
	if !s.remoteSet {
		s.pending = append(s.pending, candidate)
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.conn.AddICECandidate(candidate); err != nil {
		return fmt.Errorf("failed to add candidate: %w", err)
	}
	return nil
}

func (s *Session) setPeer(peerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peerID = peerID
}

func (s *Session) onICECandidate(candidate *webrtc.ICECandidate) {
	if candidate == nil {
		return
	}
	if err := s.client.SendCandidate(s.roomID, s.PeerID(), candidate.ToJSON()); err != nil {
		slog.Warn("failed to send candidate", "connection_id", s.client.ID(), "error", err)
	}
}
