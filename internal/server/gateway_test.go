package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/faithduel/faithduel-server/internal/card"
	"github.com/faithduel/faithduel-server/internal/game"
	"github.com/faithduel/faithduel-server/internal/room"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := room.Config{TurnTimeout: 30 * time.Second, RequestTimeout: 10 * time.Second}
	manager, err := room.NewManager(cfg, card.Default(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(manager.Close)

	srv := httptest.NewServer(New(manager, zap.NewNop()).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, player string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?player=" + player
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readFrame reads server frames until one of the wanted type arrives,
// skipping interleaved state broadcasts.
func readFrame(t *testing.T, conn *websocket.Conn, wantType string) serverFrame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var frame serverFrame
		require.NoError(t, conn.ReadJSON(&frame), "waiting for %q frame", wantType)
		if frame.Type == frameError && wantType != frameError {
			t.Fatalf("got error frame %q while waiting for %q", frame.Error, wantType)
		}
		if frame.Type == wantType {
			return frame
		}
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUpgradeRequiresPlayer(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestJoinCreatesRoom(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv, "alice")

	require.NoError(t, conn.WriteJSON(clientFrame{Type: frameJoin, RoomName: "duel"}))
	joined := readFrame(t, conn, frameJoined)
	require.True(t, joined.Created)
	require.Equal(t, uint64(0), joined.RoomID)
}

func TestSubscribeUnknownRoom(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv, "alice")

	require.NoError(t, conn.WriteJSON(clientFrame{Type: frameSubscribe, RoomID: 7}))
	frame := readFrame(t, conn, frameError)
	require.Contains(t, frame.Error, "not found")
}

func TestUnknownFrameType(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv, "alice")

	require.NoError(t, conn.WriteJSON(clientFrame{Type: "bogus"}))
	frame := readFrame(t, conn, frameError)
	require.Contains(t, frame.Error, "unknown frame type")
}

func TestReplyUnknownSeqnum(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv, "alice")

	require.NoError(t, conn.WriteJSON(clientFrame{Type: frameJoin, RoomName: "duel"}))
	joined := readFrame(t, conn, frameJoined)

	require.NoError(t, conn.WriteJSON(clientFrame{
		Type:    frameReply,
		RoomID:  joined.RoomID,
		Seqnum:  99,
		EndTurn: &room.EndTurnReply{},
	}))
	frame := readFrame(t, conn, frameError)
	require.Contains(t, frame.Error, "no pending request")
}

func TestFullExchangeOverWebsocket(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv, "alice")
	require.NoError(t, alice.WriteJSON(clientFrame{Type: frameJoin, RoomName: "duel"}))
	joined := readFrame(t, alice, frameJoined)
	require.True(t, joined.Created)

	require.NoError(t, alice.WriteJSON(clientFrame{Type: frameSubscribe, RoomID: joined.RoomID}))
	readFrame(t, alice, frameSubscribed)

	bob := dial(t, srv, "bob")
	require.NoError(t, bob.WriteJSON(clientFrame{Type: frameJoin, RoomName: "duel"}))
	bobJoined := readFrame(t, bob, frameJoined)
	require.False(t, bobJoined.Created)
	require.Equal(t, joined.RoomID, bobJoined.RoomID)

	require.NoError(t, bob.WriteJSON(clientFrame{Type: frameSubscribe, RoomID: joined.RoomID}))
	readFrame(t, bob, frameSubscribed)

	// Game start broadcasts a snapshot before the first request.
	state := readFrame(t, alice, frameState)
	require.NotNil(t, state.State)

	// Alice moves first; the game loop asks her for a turn action.
	req := readFrame(t, alice, frameRequest)
	require.NotNil(t, req.Request)
	require.NotNil(t, req.Request.TurnAction)

	require.NoError(t, alice.WriteJSON(clientFrame{
		Type:    frameReply,
		RoomID:  joined.RoomID,
		Seqnum:  req.Seqnum,
		EndTurn: &room.EndTurnReply{},
	}))
	ack := readFrame(t, alice, frameAck)
	require.Equal(t, req.Seqnum, ack.Seqnum)

	// Ending alice's turn hands the next request to bob.
	bobReq := readFrame(t, bob, frameRequest)
	require.NotNil(t, bobReq.Request.TurnAction)
}

func TestClientEnqueueAfterClose(t *testing.T) {
	c := &client{
		id:   "test",
		send: make(chan serverFrame, 1),
		gw:   &Gateway{logger: zap.NewNop()},
	}
	c.close()
	c.close() // idempotent

	// A relay that drains its events after the connection went away
	// must drop them without panicking on the closed send queue.
	events := make(chan room.Event, 2)
	events <- room.Event{State: &game.PlayerSnapshot{}}
	events <- room.Event{Request: &room.Request{Seqnum: 1}}
	close(events)
	c.relay(0, events)
}

func TestClientResubscribeAfterCloseCancels(t *testing.T) {
	c := &client{
		id:   "test",
		send: make(chan serverFrame, 1),
		gw:   &Gateway{logger: zap.NewNop()},
	}
	c.close()

	cancelled := false
	c.resubscribe(func() { cancelled = true })
	require.True(t, cancelled, "subscription on a closed client must be cancelled immediately")
}

func TestResubscribeReplacesStream(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv, "alice")
	require.NoError(t, alice.WriteJSON(clientFrame{Type: frameJoin, RoomName: "duel"}))
	joined := readFrame(t, alice, frameJoined)

	bob := dial(t, srv, "bob")
	require.NoError(t, bob.WriteJSON(clientFrame{Type: frameJoin, RoomName: "duel"}))
	readFrame(t, bob, frameJoined)

	require.NoError(t, alice.WriteJSON(clientFrame{Type: frameSubscribe, RoomID: joined.RoomID}))
	readFrame(t, alice, frameSubscribed)
	first := readFrame(t, alice, frameRequest)

	// Subscribing again replays the outstanding request with the same
	// sequence number.
	require.NoError(t, alice.WriteJSON(clientFrame{Type: frameSubscribe, RoomID: joined.RoomID}))
	readFrame(t, alice, frameSubscribed)
	replayed := readFrame(t, alice, frameRequest)
	require.Equal(t, first.Seqnum, replayed.Seqnum)
}
