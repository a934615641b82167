package room

import (
	"sync"

	"github.com/faithduel/faithduel-server/internal/game"
)

// seqIndexBits is the width of the slot-index part of a sequence
// number; the bits above it carry the slot's generation.
const seqIndexBits = 32

// pendingSlot is one outstanding request. A nil channel marks the slot
// free; the generation counts how many times the slot has been issued.
type pendingSlot struct {
	ch   chan Reply
	seat game.PlayerID
	gen  uint32
}

// pendingTable maps server-issued sequence numbers to one-shot reply
// channels. Slots are an arena plus a free list of reclaimed indices; a
// sequence number packs the slot index with the slot's generation and
// the slot remembers which seat its request targets, so an expired
// number can never match a reused slot and a reply from the wrong seat
// never matches at all. An entry is removed exactly once, by a matching
// reply or by timeout.
type pendingTable struct {
	mu    sync.Mutex
	slots []pendingSlot
	free  []uint64
}

// insert stores a reply channel for a seat and returns the sequence
// number identifying it.
func (t *pendingTable) insert(ch chan Reply, seat game.PlayerID) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		slot := &t.slots[idx]
		slot.gen++
		slot.ch = ch
		slot.seat = seat
		return uint64(slot.gen)<<seqIndexBits | idx
	}

	t.slots = append(t.slots, pendingSlot{ch: ch, seat: seat})
	return uint64(len(t.slots) - 1)
}

// take removes and returns the channel for a sequence number submitted
// by the given seat. It reports false for unknown, expired, or
// already-consumed numbers, and for a number whose request targets the
// other seat.
func (t *pendingTable) take(seq uint64, seat game.PlayerID) (chan Reply, bool) {
	idx := seq & (1<<seqIndexBits - 1)
	gen := uint32(seq >> seqIndexBits)

	t.mu.Lock()
	defer t.mu.Unlock()

	if idx >= uint64(len(t.slots)) {
		return nil, false
	}
	slot := &t.slots[idx]
	if slot.ch == nil || slot.gen != gen || slot.seat != seat {
		return nil, false
	}

	ch := slot.ch
	slot.ch = nil
	t.free = append(t.free, idx)
	return ch, true
}
