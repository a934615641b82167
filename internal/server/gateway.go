// Package server exposes the room coordinator over a websocket gateway.
// Each client holds one connection and speaks JSON frames: join a named
// room, subscribe to its event stream, and submit replies to
// server-issued requests. Identity validation happens upstream; the
// gateway consumes the already-authenticated player name from the
// request.
package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/faithduel/faithduel-server/internal/room"
)

// Gateway bridges websocket clients and the room manager.
type Gateway struct {
	manager  *room.Manager
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// New creates a gateway.
func New(manager *room.Manager, logger *zap.Logger) *Gateway {
	return &Gateway{
		manager: manager,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Routes returns the gateway's HTTP handler.
func (g *Gateway) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", g.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (g *Gateway) handleWS(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("player")
	if username == "" {
		http.Error(w, "player is required", http.StatusBadRequest)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed",
			zap.String("player", username),
			zap.Error(err),
		)
		return
	}

	c := &client{
		id:       uuid.NewString(),
		username: username,
		conn:     conn,
		send:     make(chan serverFrame, sendBuffer),
		gw:       g,
	}

	g.logger.Info("client connected",
		zap.String("conn_id", c.id),
		zap.String("player", username),
	)

	go c.writePump()
	c.readPump()
}

func (g *Gateway) handleFrame(c *client, frame clientFrame) serverFrame {
	switch frame.Type {
	case frameJoin:
		roomID, created, err := g.manager.JoinRoom(c.username, frame.RoomName)
		if err != nil {
			return errorFrame(err)
		}
		return serverFrame{Type: frameJoined, RoomID: roomID, Created: created}

	case frameSubscribe:
		rm, err := g.manager.Lookup(frame.RoomID)
		if err != nil {
			return errorFrame(err)
		}
		events, cancel, err := rm.Subscribe(c.username)
		if err != nil {
			return errorFrame(err)
		}
		c.resubscribe(cancel)
		go c.relay(frame.RoomID, events)
		return serverFrame{Type: frameSubscribed, RoomID: frame.RoomID}

	case frameReply:
		rm, err := g.manager.Lookup(frame.RoomID)
		if err != nil {
			return errorFrame(err)
		}
		reply := room.Reply{
			PlayCard: frame.PlayCard,
			EndTurn:  frame.EndTurn,
			PayCost:  frame.PayCost,
		}
		if err := rm.SubmitReply(c.username, frame.Seqnum, reply); err != nil {
			return errorFrame(err)
		}
		return serverFrame{Type: frameAck, RoomID: frame.RoomID, Seqnum: frame.Seqnum}

	default:
		return errorFrame(errors.New("unknown frame type"))
	}
}
