package controller_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/broker"
	"relay/broker/subscription"
	"relay/coordinator"
	"relay/database"
	"relay/database/memory"
	"relay/metric"
	"relay/pkg/socket"
	"relay/signal/controller"
	"relay/types/client/request"
	"relay/types/client/response"
)

type fixture struct {
	controller *controller.Controller
	database   database.Database
	socket     *socket.MockSocket
	written    chan any
	reads      chan request.Common
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	brk := broker.New(subscription.DefaultQueueSize)
	db := memory.New()
	met := metric.New(metric.Config{Port: metric.DefaultMetricsPort, Path: metric.DefaultMetricsPath})
	cod := coordinator.New(coordinator.Config{}, brk, db, met)

	f := &fixture{
		controller: controller.New(brk, cod, met),
		database:   db,
		socket:     socket.NewMockSocket(gomock.NewController(t)),
		written:    make(chan any, 16),
		reads:      make(chan request.Common),
	}

	f.socket.EXPECT().WriteJSON(gomock.Any()).DoAndReturn(func(v any) error {
		f.written <- v
		return nil
	}).AnyTimes()
	f.socket.EXPECT().Ping().Return(nil).AnyTimes()
	f.socket.EXPECT().Close().Return(nil).Times(1)
	f.socket.EXPECT().ReadJSON(gomock.Any()).DoAndReturn(func(v any) error {
		req, ok := <-f.reads
		if !ok {
			return &websocket.CloseError{Code: websocket.CloseNormalClosure}
		}
		*(v.(*request.Common)) = req
		return nil
	}).AnyTimes()

	return f
}

func (f *fixture) next(t *testing.T) any {
	t.Helper()
	select {
	case v := <-f.written:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a message")
		return nil
	}
}

func (f *fixture) start(t *testing.T) (string, <-chan error) {
	t.Helper()
	errc := make(chan error, 1)
	go func() {
		errc <- f.controller.Process(f.socket)
	}()

	connected, ok := f.next(t).(response.Connected)
	require.True(t, ok)
	require.Equal(t, response.TypeConnected, connected.Type)
	require.NotEmpty(t, connected.ConnectionID)
	return connected.ConnectionID, errc
}

func (f *fixture) send(typ string, payload string) {
	f.reads <- request.Common{Type: typ, Payload: json.RawMessage(payload)}
}

func TestProcess(t *testing.T) {
	t.Run("given join request when processed then reply room-joined and leave on close", func(t *testing.T) {
		f := newFixture(t)
		id, errc := f.start(t)

		f.send(request.TypeJoinRoom, `"x"`)
		assert.Equal(t, response.RoomJoined{Type: response.TypeRoomJoined, Success: true, RoomID: "x"}, f.next(t))

		ok, err := f.database.IsMember("x", id)
		require.NoError(t, err)
		assert.True(t, ok)

		close(f.reads)
		require.NoError(t, <-errc)

		count, err := f.database.CountRooms()
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("given bad requests when processed then reply the named errors", func(t *testing.T) {
		f := newFixture(t)
		_, errc := f.start(t)

		f.send(request.TypeJoinRoom, `42`)
		assert.Equal(t, response.RoomError{Type: response.TypeRoomError, Error: "Invalid room ID"}, f.next(t))

		f.send(request.TypeJoinRoom, `""`)
		assert.Equal(t, response.RoomError{Type: response.TypeRoomError, Error: "Invalid room ID"}, f.next(t))

		f.send(request.TypeOffer, `{"roomId":"y","offer":{"sdp":"v=0"},"targetPeerId":"b"}`)
		assert.Equal(t, response.SignalingError{Type: response.TypeSignalingError, Error: "Not a participant of this room"}, f.next(t))

		f.send(request.TypeIceCandidate, `[1,2]`)
		assert.Equal(t, response.SignalingError{Type: response.TypeSignalingError, Error: "Invalid signaling payload"}, f.next(t))

		f.send("bogus", `{}`)
		f.send(request.TypeJoinRoom, `"z"`)
		assert.Equal(t, response.RoomJoined{Type: response.TypeRoomJoined, Success: true, RoomID: "z"}, f.next(t))

		f.send(request.TypeJoinRoom, `"w"`)
		assert.Equal(t, response.RoomError{Type: response.TypeRoomError, Error: "Already joined another room"}, f.next(t))

		close(f.reads)
		require.NoError(t, <-errc)
	})

	t.Run("given two connections in a room when one relays then the other receives it", func(t *testing.T) {
		a := newFixture(t)
		// Both connections share one relay.
		b := &fixture{
			controller: a.controller,
			database:   a.database,
			socket:     socket.NewMockSocket(gomock.NewController(t)),
			written:    make(chan any, 16),
			reads:      make(chan request.Common),
		}
		b.socket.EXPECT().WriteJSON(gomock.Any()).DoAndReturn(func(v any) error {
			b.written <- v
			return nil
		}).AnyTimes()
		b.socket.EXPECT().Ping().Return(nil).AnyTimes()
		b.socket.EXPECT().Close().Return(nil).Times(1)
		b.socket.EXPECT().ReadJSON(gomock.Any()).DoAndReturn(func(v any) error {
			req, ok := <-b.reads
			if !ok {
				return &websocket.CloseError{Code: websocket.CloseGoingAway}
			}
			*(v.(*request.Common)) = req
			return nil
		}).AnyTimes()

		aID, aErrc := a.start(t)
		bID, bErrc := b.start(t)

		a.send(request.TypeJoinRoom, `"x"`)
		assert.Equal(t, response.RoomJoined{Type: response.TypeRoomJoined, Success: true, RoomID: "x"}, a.next(t))

		b.send(request.TypeJoinRoom, `"x"`)
		assert.Equal(t, response.RoomJoined{Type: response.TypeRoomJoined, Success: true, RoomID: "x"}, b.next(t))
		assert.Equal(t, response.NewPeer{Type: response.TypeNewPeer, PeerID: bID}, a.next(t))
		assert.Equal(t, response.NewPeer{Type: response.TypeNewPeer, PeerID: aID}, b.next(t))

		b.send(request.TypeOffer, `{"roomId":"x","offer":{"type":"offer","sdp":"v=0"},"targetPeerId":"`+aID+`"}`)
		offer, ok := a.next(t).(response.Offer)
		require.True(t, ok)
		assert.Equal(t, bID, offer.SenderID)
		assert.JSONEq(t, `{"type":"offer","sdp":"v=0"}`, string(offer.Offer))

		close(b.reads)
		require.NoError(t, <-bErrc)
		assert.Equal(t, response.PeerDisconnected{Type: response.TypePeerDisconnected, PeerID: bID}, a.next(t))

		close(a.reads)
		require.NoError(t, <-aErrc)
	})
}

func TestProcessWriteFailure(t *testing.T) {
	brk := broker.New(subscription.DefaultQueueSize)
	met := metric.New(metric.Config{Port: metric.DefaultMetricsPort, Path: metric.DefaultMetricsPath})
	cod := coordinator.New(coordinator.Config{}, brk, memory.New(), met)
	con := controller.New(brk, cod, met)

	s := socket.NewMockSocket(gomock.NewController(t))
	s.EXPECT().WriteJSON(gomock.Any()).Return(errors.New("broken pipe"))
	s.EXPECT().Close().Return(nil)

	assert.Error(t, con.Process(s))
}

func TestCloseAll(t *testing.T) {
	brk := broker.New(subscription.DefaultQueueSize)
	db := memory.New()
	met := metric.New(metric.Config{Port: metric.DefaultMetricsPort, Path: metric.DefaultMetricsPath})
	cod := coordinator.New(coordinator.Config{}, brk, db, met)
	con := controller.New(brk, cod, met)

	closed := make(chan struct{})
	written := make(chan any, 16)
	s := socket.NewMockSocket(gomock.NewController(t))
	s.EXPECT().WriteJSON(gomock.Any()).DoAndReturn(func(v any) error {
		written <- v
		return nil
	}).AnyTimes()
	s.EXPECT().Ping().Return(nil).AnyTimes()
	s.EXPECT().Close().DoAndReturn(func() error {
		close(closed)
		return nil
	}).Times(1)
	s.EXPECT().ReadJSON(gomock.Any()).DoAndReturn(func(v any) error {
		<-closed
		return &websocket.CloseError{Code: websocket.CloseNormalClosure}
	})

	errc := make(chan error, 1)
	go func() {
		errc <- con.Process(s)
	}()

	select {
	case <-written:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the connected message")
	}

	con.CloseAll()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Process did not return after CloseAll")
	}
}

var errStoreDown = errors.New("store down")

// failingDatabase fails every lookup and mutation.
type failingDatabase struct{}

func (failingDatabase) AddMember(string, string, int) (*database.RoomInfo, error) {
	return nil, errStoreDown
}

func (failingDatabase) RemoveMember(string) ([]*database.RoomInfo, error) {
	return nil, errStoreDown
}

func (failingDatabase) FindRoomInfoByID(string) (*database.RoomInfo, error) {
	return nil, errStoreDown
}

func (failingDatabase) FindRoomInfosByMember(string) ([]*database.RoomInfo, error) {
	return nil, errStoreDown
}

func (failingDatabase) IsMember(string, string) (bool, error) {
	return false, errStoreDown
}

func (failingDatabase) CountRooms() (int, error) {
	return 0, errStoreDown
}

func TestProcessStoreFailure(t *testing.T) {
	f := newFixture(t)
	brk := broker.New(subscription.DefaultQueueSize)
	met := metric.New(metric.Config{Port: metric.DefaultMetricsPort, Path: metric.DefaultMetricsPath})
	cod := coordinator.New(coordinator.Config{}, brk, failingDatabase{}, met)
	f.controller = controller.New(brk, cod, met)

	_, errc := f.start(t)

	f.send(request.TypeJoinRoom, `"x"`)
	assert.Equal(t, response.RoomError{Type: response.TypeRoomError, Error: "Failed to join room"}, f.next(t))

	f.send(request.TypeAnswer, `{"roomId":"x","answer":{},"targetPeerId":"b"}`)
	assert.Equal(t, response.SignalingError{Type: response.TypeSignalingError, Error: "Failed to relay message"}, f.next(t))

	close(f.reads)
	require.NoError(t, <-errc)
}
