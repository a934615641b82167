package game

import "github.com/faithduel/faithduel-server/internal/ecs"

// PlayerSnapshot is the privacy-filtered view of game state published to
// one player. The opponent's hand and deck appear as counts only; their
// card ids never leave the server.
type PlayerSnapshot struct {
	SelfHand       []uint32 `json:"self_hand"`
	SelfFaith      []uint32 `json:"self_faith"`
	SelfDeckCount  int      `json:"self_deck_count"`
	OtherHandCount int      `json:"other_hand_count"`
	OtherDeckCount int      `json:"other_deck_count"`
	Round          uint32   `json:"round"`
	YourTurn       bool     `json:"your_turn"`
	Finished       bool     `json:"finished"`
	Log            []string `json:"log"`
}

func handCardIDs(w *ecs.World, p PlayerID) []uint32 {
	ids := make([]uint32, 0)
	for e := range w.Query(ecs.Has[CardID](), ecs.Exact(InHand{Player: p})) {
		id, _ := ecs.Get[CardID](w, e)
		ids = append(ids, uint32(*id))
	}
	return ids
}

func faithCardIDs(w *ecs.World, p PlayerID) []uint32 {
	ids := make([]uint32, 0)
	for e := range w.Query(ecs.Has[CardID](), ecs.Exact(Faith{Player: p})) {
		id, _ := ecs.Get[CardID](w, e)
		ids = append(ids, uint32(*id))
	}
	return ids
}

// Snapshot computes the viewer's filtered view. It is a pure read: no
// component changes, no debug log entry.
func Snapshot(w *ecs.World, viewer PlayerID) *PlayerSnapshot {
	other := viewer.Opposite()

	snap := &PlayerSnapshot{
		SelfHand:       handCardIDs(w, viewer),
		SelfFaith:      faithCardIDs(w, viewer),
		OtherHandCount: w.Count(ecs.Exact(InHand{Player: other})),
		OtherDeckCount: w.Count(ecs.Exact(InDeck{Player: other})),
		SelfDeckCount:  w.Count(ecs.Exact(InDeck{Player: viewer})),
	}

	if gs, ok := ecs.Resource[GlobalState](w); ok {
		snap.Round = gs.Round
		snap.Finished = gs.Finished
	}
	if e, ok := playerEntity(w, viewer); ok {
		_, snap.YourTurn = ecs.Get[CurrentTurn](w, e)
	}
	if log, ok := ecs.Resource[DebugLog](w); ok {
		snap.Log = append([]string(nil), log.Entries...)
	}

	return snap
}
