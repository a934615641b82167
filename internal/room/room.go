// Package room implements the session coordinator: room lifecycle,
// player matching, the turn-based game loop, request/response
// correlation over the per-player broadcast streams, and the manager
// that maps room names to live rooms.
package room

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RussellLuo/timingwheel"
	"go.uber.org/zap"

	"github.com/faithduel/faithduel-server/internal/card"
	"github.com/faithduel/faithduel-server/internal/ecs"
	"github.com/faithduel/faithduel-server/internal/game"
)

var (
	// ErrRoomFull is returned when a third distinct username tries to
	// join.
	ErrRoomFull = errors.New("room is full")

	// ErrRoomFinished is returned when joining a room whose game has
	// ended.
	ErrRoomFinished = errors.New("room has finished")

	// ErrRoomNotFound is returned by Manager.Lookup for unknown ids.
	ErrRoomNotFound = errors.New("room not found")

	// ErrNotAPlayer is returned when a username occupies neither seat.
	ErrNotAPlayer = errors.New("not a player in this room")

	// ErrReplyNotFound is returned for replies to unknown, expired, or
	// already-consumed sequence numbers.
	ErrReplyNotFound = errors.New("no pending request for sequence number")
)

// Phase is a room's lifecycle state.
type Phase int

const (
	// PhaseWaiting holds the first player until a second one joins.
	PhaseWaiting Phase = iota
	// PhasePlaying means the game loop is running.
	PhasePlaying
	// PhaseFinished is terminal.
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "WAITING"
	case PhasePlaying:
		return "PLAYING"
	case PhaseFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// Config carries the coordinator's tunables. Zero values select the
// defaults.
type Config struct {
	// TurnTimeout is the per-turn time budget.
	TurnTimeout time.Duration
	// RequestTimeout bounds a single request/response exchange. It is
	// clamped to the remaining turn time.
	RequestTimeout time.Duration
	// BroadcastBuffer is the per-subscriber event backlog.
	BroadcastBuffer int
	// LoopPoolSize caps concurrent game-loop tasks.
	LoopPoolSize int
}

func (c Config) withDefaults() Config {
	if c.TurnTimeout <= 0 {
		c.TurnTimeout = game.DefaultTurnDuration
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 21 * time.Second
	}
	if c.BroadcastBuffer <= 0 {
		c.BroadcastBuffer = 128
	}
	if c.LoopPoolSize <= 0 {
		c.LoopPoolSize = 64
	}
	return c
}

// everySecond schedules a timingwheel task once per second.
type everySecond struct{}

func (everySecond) Next(t time.Time) time.Time {
	return t.Add(time.Second)
}

// Room owns one game's full lifecycle. The heavy state behind r.mu is
// independent of every other room; only the manager's name table is
// shared.
type Room struct {
	id       uint64
	name     string
	cfg      Config
	logger   *zap.Logger
	registry *card.Registry
	wheel    *timingwheel.TimingWheel

	mu    sync.Mutex
	phase Phase
	seats [2]string
	world *ecs.World

	broadcasters [2]*broadcaster
	pending      pendingTable
	outstanding  [2]*Request
	countdown    [2]atomic.Int32
}

func newRoom(id uint64, name, owner string, cfg Config, registry *card.Registry,
	wheel *timingwheel.TimingWheel, logger *zap.Logger) *Room {
	r := &Room{
		id:       id,
		name:     name,
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		wheel:    wheel,
		phase:    PhaseWaiting,
	}
	r.seats[game.Player0] = owner
	for _, p := range game.Players {
		r.broadcasters[p] = newBroadcaster(cfg.BroadcastBuffer)
	}
	return r
}

// ID returns the room's numeric identifier.
func (r *Room) ID() uint64 {
	return r.id
}

// Name returns the human-chosen room name.
func (r *Room) Name() string {
	return r.name
}

// Phase returns the room's lifecycle state.
func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Join admits a username. A username already in the room rejoins
// idempotently. The returned flag is true exactly once, on the
// Waiting→Playing transition, and tells the caller to start the game
// loop.
func (r *Room) Join(username string) (started bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.phase {
	case PhaseWaiting:
		if r.seats[game.Player0] == username {
			return false, nil // already in the room
		}
		r.seats[game.Player1] = username
		r.phase = PhasePlaying
		return true, nil
	case PhasePlaying:
		if r.seats[game.Player0] == username || r.seats[game.Player1] == username {
			return false, nil // already in the room
		}
		return false, ErrRoomFull
	default:
		return false, ErrRoomFinished
	}
}

// seatOf resolves a username to its seat. Callers hold r.mu.
func (r *Room) seatOf(username string) (game.PlayerID, error) {
	for _, p := range game.Players {
		if r.seats[p] != "" && r.seats[p] == username {
			return p, nil
		}
	}
	return 0, ErrNotAPlayer
}

// Subscribe opens the player's event stream. The current snapshot and
// any outstanding request are re-delivered immediately, so a client that
// reconnects mid-wait sees the same request again (same sequence number,
// same payload) without a second outstanding entry being created.
func (r *Room) Subscribe(username string) (<-chan Event, func(), error) {
	r.mu.Lock()
	seat, err := r.seatOf(username)
	if err != nil {
		r.mu.Unlock()
		return nil, nil, err
	}

	var initial []Event
	if r.world != nil {
		initial = append(initial, Event{State: game.Snapshot(r.world, seat)})
	}
	if req := r.outstanding[seat]; req != nil {
		replay := *req
		replay.SecondsRemaining = r.countdown[seat].Load()
		initial = append(initial, Event{Request: &replay})
	}
	b := r.broadcasters[seat]
	r.mu.Unlock()

	ch, cancel := b.subscribe(initial...)
	return ch, cancel, nil
}

// SubmitReply matches a player's reply to the outstanding request with
// the given sequence number and delivers it to the waiting game-loop
// step. Each sequence number accepts at most one reply, and only from
// the seat its request targets, so a delayed reply can never settle a
// request issued to the opponent after the original expired.
func (r *Room) SubmitReply(username string, seqnum uint64, reply Reply) error {
	r.mu.Lock()
	seat, err := r.seatOf(username)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	ch, ok := r.pending.take(seqnum, seat)
	if !ok {
		return ErrReplyNotFound
	}
	ch <- reply
	return nil
}

// perform commits an action and broadcasts a fresh privacy-filtered
// snapshot to each player. The room lock is released before publishing.
func (r *Room) perform(a game.Action) {
	r.mu.Lock()
	if r.world == nil {
		r.mu.Unlock()
		return
	}
	game.Perform(r.world, a)
	var snaps [2]*game.PlayerSnapshot
	for _, p := range game.Players {
		snaps[p] = game.Snapshot(r.world, p)
	}
	r.mu.Unlock()

	for _, p := range game.Players {
		r.broadcasters[p].publish(Event{State: snaps[p]})
	}
}

// requestUserEvent issues a request to one player and waits for the
// matching reply. It returns ok=false when no answer arrived in time,
// which callers treat as "no answer" rather than an error. Either way
// the sequence-number slot is freed and the remembered request cleared.
func (r *Room) requestUserEvent(ctx context.Context, player game.PlayerID, req *Request, timeout time.Duration) (Reply, bool) {
	ch := make(chan Reply, 1)
	req.Seqnum = r.pending.insert(ch, player)

	// The advisory countdown stays a tick behind the authoritative
	// timeout so clients never observe a server-side expiry first.
	advisory := int32(timeout/time.Second) - 1
	if advisory < 0 {
		advisory = 0
	}
	req.SecondsRemaining = advisory
	r.countdown[player].Store(advisory)

	r.mu.Lock()
	r.outstanding[player] = req
	r.mu.Unlock()

	var tick *timingwheel.Timer
	if r.wheel != nil {
		tick = r.wheel.ScheduleFunc(everySecond{}, func() {
			if v := r.countdown[player].Load(); v > 0 {
				r.countdown[player].CompareAndSwap(v, v-1)
			}
		})
	}

	r.broadcasters[player].publish(Event{Request: req})

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var reply Reply
	var ok bool
	select {
	case reply = <-ch:
		ok = true
	case <-timer.C:
	case <-ctx.Done():
	}

	if tick != nil {
		tick.Stop()
	}
	if !ok {
		// On the reply path the submitter already freed the slot.
		r.pending.take(req.Seqnum, player)
	}

	r.mu.Lock()
	if r.outstanding[player] == req {
		r.outstanding[player] = nil
	}
	r.mu.Unlock()

	return reply, ok
}
