package game

import (
	"fmt"
	"time"

	"github.com/faithduel/faithduel-server/internal/ecs"
)

// Action is a named, self-contained mutation of game state. Every change
// in the system funnels through Perform so that all changes are
// auditable: each action appends one line to the shared DebugLog
// resource.
type Action interface {
	Apply(w *ecs.World)
}

// Perform applies an action to the world.
func Perform(w *ecs.World, a Action) {
	a.Apply(w)
}

// Handle is the surface card effects mutate state through. Effects issue
// further actions against the same world rather than touching components
// directly.
type Handle struct {
	world *ecs.World
}

// NewHandle wraps a world for effect execution.
func NewHandle(w *ecs.World) *Handle {
	return &Handle{world: w}
}

// Perform applies a nested action.
func (h *Handle) Perform(a Action) {
	a.Apply(h.world)
}

// Effect is the executable behavior a played card triggers.
type Effect interface {
	Apply(h *Handle, player PlayerID)
}

// EffectSource resolves a card id to the effects of an order prototype.
// The second return is false for faith prototypes and unknown ids.
type EffectSource interface {
	OrderEffects(id CardID) ([]Effect, bool)
}

func playerEntity(w *ecs.World, p PlayerID) (ecs.Entity, bool) {
	for e := range w.Query(ecs.Exact(p)) {
		return e, true
	}
	return 0, false
}

// Initialize clears all match state and spawns both players' starting
// decks and faith cards. Round starts at 0 with no turn owner.
type Initialize struct {
	Decks      [2][]CardID
	FaithCards [2][]CardID
}

func (a Initialize) Apply(w *ecs.World) {
	w.Clear()
	ecs.AddResource(w, GlobalState{})

	for _, p := range Players {
		deck := make([]ecs.Entity, 0, len(a.Decks[p]))
		for _, id := range a.Decks[p] {
			deck = append(deck, w.Spawn(id, InDeck{Player: p}))
		}
		for _, id := range a.FaithCards[p] {
			w.Spawn(id, Faith{Player: p})
		}
		w.Spawn(p, PlayerState{Deck: deck})
	}

	ecs.ResourceOrDefault[DebugLog](w).Push("Game started.")
}

// StartTurn tags the player as the current turn owner and arms the turn
// timer.
type StartTurn struct {
	Player   PlayerID
	Duration time.Duration
}

func (a StartTurn) Apply(w *ecs.World) {
	d := a.Duration
	if d <= 0 {
		d = DefaultTurnDuration
	}

	if e, ok := playerEntity(w, a.Player); ok {
		_ = ecs.Add(w, e, CurrentTurn{})
	}
	ecs.AddResource(w, TurnTimer{Deadline: time.Now().Add(d)})

	ecs.ResourceOrDefault[DebugLog](w).Push(
		fmt.Sprintf("Turn started for player %d.", a.Player))
}

// DrawCards moves up to Count cards from the top of the player's deck
// into their hand, stopping early if the deck runs out. The drawn
// entities are left in Drawn after Apply; drawing from an empty deck
// yields zero cards, never an error.
type DrawCards struct {
	Player PlayerID
	Count  int

	Drawn []ecs.Entity
}

func (a *DrawCards) Apply(w *ecs.World) {
	a.Drawn = a.Drawn[:0]

	if e, ok := playerEntity(w, a.Player); ok {
		ps, _ := ecs.Get[PlayerState](w, e)
		for i := 0; i < a.Count && len(ps.Deck) > 0; i++ {
			card := ps.Deck[len(ps.Deck)-1]
			ps.Deck = ps.Deck[:len(ps.Deck)-1]
			ecs.Remove[InDeck](w, card)
			_ = ecs.Add(w, card, InHand{Player: a.Player})
			a.Drawn = append(a.Drawn, card)
		}
	}

	ecs.ResourceOrDefault[DebugLog](w).Push(
		fmt.Sprintf("Player %d drew %d cards.", a.Player, len(a.Drawn)))
}

// PlayCard removes the card's InHand marker. The entity survives; effect
// resolution is ExecuteCard's job. Playing a card that is not in hand is
// an idempotent no-op.
type PlayCard struct {
	Player PlayerID
	Card   ecs.Entity
}

func (a PlayCard) Apply(w *ecs.World) {
	ecs.Remove[InHand](w, a.Card)

	ecs.ResourceOrDefault[DebugLog](w).Push(
		fmt.Sprintf("Player %d played card %d.", a.Player, a.Card))
}

// ExecuteCard resolves the registry prototype for a card id and runs an
// order card's effects in declared order. Faith prototypes and unknown
// ids are silent no-ops.
type ExecuteCard struct {
	Player PlayerID
	Card   CardID
	Source EffectSource
}

func (a ExecuteCard) Apply(w *ecs.World) {
	effects, ok := a.Source.OrderEffects(a.Card)
	if !ok {
		return
	}

	h := NewHandle(w)
	for _, effect := range effects {
		effect.Apply(h, a.Player)
	}

	ecs.ResourceOrDefault[DebugLog](w).Push(
		fmt.Sprintf("Player %d resolved card %d.", a.Player, a.Card))
}

// EndTurn clears the turn owner marker and disarms the turn timer.
type EndTurn struct {
	Player PlayerID
}

func (a EndTurn) Apply(w *ecs.World) {
	if e, ok := playerEntity(w, a.Player); ok {
		ecs.Remove[CurrentTurn](w, e)
	}
	ecs.RemoveResource[TurnTimer](w)

	ecs.ResourceOrDefault[DebugLog](w).Push(
		fmt.Sprintf("Player %d ended their turn.", a.Player))
}

// BumpRound increments the round counter.
type BumpRound struct{}

func (BumpRound) Apply(w *ecs.World) {
	if gs, ok := ecs.Resource[GlobalState](w); ok {
		gs.Round++
	}

	ecs.ResourceOrDefault[DebugLog](w).Push("Round advanced.")
}

// GameFinished marks the game as over.
type GameFinished struct{}

func (GameFinished) Apply(w *ecs.World) {
	if gs, ok := ecs.Resource[GlobalState](w); ok {
		gs.Finished = true
	}

	ecs.ResourceOrDefault[DebugLog](w).Push("Game finished.")
}
