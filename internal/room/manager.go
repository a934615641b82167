package room

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RussellLuo/timingwheel"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/faithduel/faithduel-server/internal/card"
)

// Manager maps human-chosen room names to live rooms. The name→id table
// lives behind the manager's own lock; each room's heavier state is
// behind that room's lock, so unrelated rooms never contend.
type Manager struct {
	cfg      Config
	logger   *zap.Logger
	registry *card.Registry
	pool     *ants.Pool
	wheel    *timingwheel.TimingWheel
	ctx      context.Context
	cancel   context.CancelFunc

	mu    sync.Mutex
	names map[string]uint64
	rooms []*Room
}

// NewManager creates a room manager. Game loops run on a bounded ants
// pool; a shared timing wheel drives every room's one-second advisory
// countdown ticks.
func NewManager(cfg Config, registry *card.Registry, logger *zap.Logger) (*Manager, error) {
	cfg = cfg.withDefaults()

	pool, err := ants.NewPool(cfg.LoopPoolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create game loop pool: %w", err)
	}

	wheel := timingwheel.NewTimingWheel(500*time.Millisecond, 128)
	wheel.Start()

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		pool:     pool,
		wheel:    wheel,
		ctx:      ctx,
		cancel:   cancel,
		names:    make(map[string]uint64),
	}, nil
}

// JoinRoom resolves a room name for a player, creating the room when
// absent. Room ids grow monotonically and are never reused for the
// lifetime of the process.
func (m *Manager) JoinRoom(username, roomName string) (roomID uint64, created bool, err error) {
	if username == "" || roomName == "" {
		return 0, false, fmt.Errorf("username and room name are required")
	}

	m.mu.Lock()
	id, exists := m.names[roomName]
	if !exists {
		id = uint64(len(m.rooms))
		rm := newRoom(id, roomName, username, m.cfg, m.registry, m.wheel, m.logger)
		m.rooms = append(m.rooms, rm)
		m.names[roomName] = id
		m.mu.Unlock()

		m.logger.Info("room created",
			zap.Uint64("room_id", id),
			zap.String("room", roomName),
			zap.String("owner", username),
		)
		return id, true, nil
	}
	rm := m.rooms[id]
	m.mu.Unlock()

	started, err := rm.Join(username)
	if err != nil {
		return 0, false, err
	}
	if started {
		m.logger.Info("room full, starting game loop",
			zap.Uint64("room_id", id),
			zap.String("room", roomName),
			zap.String("joined", username),
		)
		m.startLoop(rm)
	}
	return id, false, nil
}

func (m *Manager) startLoop(rm *Room) {
	if err := m.pool.Submit(func() { rm.runLoop(m.ctx) }); err != nil {
		m.logger.Warn("game loop pool rejected task, running unpooled",
			zap.Uint64("room_id", rm.id),
			zap.Error(err),
		)
		go rm.runLoop(m.ctx)
	}
}

// Lookup returns the room with the given numeric id.
func (m *Manager) Lookup(roomID uint64) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if roomID >= uint64(len(m.rooms)) {
		return nil, ErrRoomNotFound
	}
	return m.rooms[roomID], nil
}

// RoomCount reports how many rooms exist, live or finished.
func (m *Manager) RoomCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// Close cancels every game loop and releases the pool and timing wheel.
func (m *Manager) Close() {
	m.cancel()
	m.pool.Release()
	m.wheel.Stop()
}
