package game

import "time"

// DefaultTurnDuration is the fixed per-turn time budget.
const DefaultTurnDuration = 30 * time.Second

// GlobalState is the singleton resource holding match-wide counters.
type GlobalState struct {
	// Round is the current round number. It only ever increases, and
	// only through BumpRound.
	Round uint32

	// Finished reports whether the game has ended.
	Finished bool
}

// TurnTimer is the singleton resource present exactly while a turn is in
// progress. Its absence means no one is mid-turn.
type TurnTimer struct {
	Deadline time.Time
}

// Remaining returns the time left in the current turn, never negative.
func (t TurnTimer) Remaining() time.Duration {
	d := time.Until(t.Deadline)
	if d < 0 {
		return 0
	}
	return d
}

// DebugLog is the singleton resource collecting one human-readable line
// per committed action.
type DebugLog struct {
	Entries []string
}

// Push appends a log line.
func (l *DebugLog) Push(entry string) {
	l.Entries = append(l.Entries, entry)
}
