package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/faithduel/faithduel-server/internal/game"
	"github.com/faithduel/faithduel-server/internal/room"
)

const (
	frameJoin       = "join"
	frameSubscribe  = "subscribe"
	frameReply      = "reply"
	frameJoined     = "joined"
	frameSubscribed = "subscribed"
	frameState      = "state"
	frameRequest    = "request"
	frameAck        = "ack"
	frameError      = "error"
)

const (
	sendBuffer  = 256
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = (pongWait * 9) / 10
	maxFrameLen = 4096
)

// clientFrame is a message from the client. Type selects which of the
// remaining fields are meaningful.
type clientFrame struct {
	Type     string              `json:"type"`
	RoomName string              `json:"room_name,omitempty"`
	RoomID   uint64              `json:"room_id,omitempty"`
	Seqnum   uint64              `json:"seqnum,omitempty"`
	PlayCard *room.PlayCardReply `json:"play_card,omitempty"`
	EndTurn  *room.EndTurnReply  `json:"end_turn,omitempty"`
	PayCost  *room.PayCostReply  `json:"pay_cost,omitempty"`
}

// serverFrame is a message to the client.
type serverFrame struct {
	Type    string               `json:"type"`
	RoomID  uint64               `json:"room_id,omitempty"`
	Seqnum  uint64               `json:"seqnum,omitempty"`
	Created bool                 `json:"created,omitempty"`
	Error   string               `json:"error,omitempty"`
	State   *game.PlayerSnapshot `json:"state,omitempty"`
	Request *room.Request        `json:"request,omitempty"`
}

func errorFrame(err error) serverFrame {
	return serverFrame{Type: frameError, Error: err.Error()}
}

// client is one websocket connection. A connection belongs to a single
// player but may resubscribe after reconnecting under the same name on
// a fresh connection.
type client struct {
	id       string
	username string
	conn     *websocket.Conn
	send     chan serverFrame
	gw       *Gateway

	mu        sync.Mutex
	cancelSub func()
	closed    bool
}

// resubscribe replaces the active room subscription, if any. On a closed
// client the new subscription is cancelled right away.
func (c *client) resubscribe(cancel func()) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		return
	}
	prev := c.cancelSub
	c.cancelSub = cancel
	c.mu.Unlock()
	if prev != nil {
		prev()
	}
}

// close marks the send queue dead before closing it. enqueue checks the
// flag under the same lock, so no send can be in flight when the channel
// closes.
func (c *client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cancel := c.cancelSub
	c.cancelSub = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	close(c.send)
}

func (c *client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxFrameLen)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame clientFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.gw.logger.Warn("client read failed",
					zap.String("conn_id", c.id),
					zap.Error(err),
				)
			}
			return
		}
		c.enqueue(c.gw.handleFrame(c, frame))
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// relay forwards room events to the send queue until the subscription
// channel closes. The channel closes when the subscription is cancelled
// or when the room drops a subscriber that stopped draining.
func (c *client) relay(roomID uint64, events <-chan room.Event) {
	for ev := range events {
		frame := serverFrame{RoomID: roomID}
		switch {
		case ev.State != nil:
			frame.Type = frameState
			frame.State = ev.State
		case ev.Request != nil:
			frame.Type = frameRequest
			frame.Seqnum = ev.Request.Seqnum
			frame.Request = ev.Request
		default:
			continue
		}
		c.enqueue(frame)
	}
}

func (c *client) enqueue(frame serverFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- frame:
	default:
		c.gw.logger.Warn("client send queue full, dropping frame",
			zap.String("conn_id", c.id),
			zap.String("frame", frame.Type),
		)
	}
}
