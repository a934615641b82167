package room

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/faithduel/faithduel-server/internal/card"
	"github.com/faithduel/faithduel-server/internal/ecs"
	"github.com/faithduel/faithduel-server/internal/game"
)

// runLoop is the room's single long-lived background task, started
// exactly once on the Waiting→Playing transition. It is the only writer
// of the room's game state. A panic aborts this room's game, never the
// process.
func (r *Room) runLoop(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("game loop panicked",
				zap.Uint64("room_id", r.id),
				zap.String("room", r.name),
				zap.Any("panic", p),
			)
		}
		r.mu.Lock()
		r.phase = PhaseFinished
		r.mu.Unlock()
	}()

	r.logger.Info("game loop started",
		zap.Uint64("room_id", r.id),
		zap.String("room", r.name),
		zap.String("player0", r.seats[game.Player0]),
		zap.String("player1", r.seats[game.Player1]),
	)

	r.mu.Lock()
	r.world = ecs.NewWorld()
	r.mu.Unlock()

	r.perform(game.Initialize{
		Decks: [2][]game.CardID{
			card.StarterDeck(game.Player0),
			card.StarterDeck(game.Player1),
		},
		FaithCards: [2][]game.CardID{
			card.StarterFaith(),
			card.StarterFaith(),
		},
	})

	for ctx.Err() == nil {
		for _, p := range game.Players {
			r.turn(ctx, p)
		}
		if r.decksExhausted() {
			break
		}
		r.perform(game.BumpRound{})
	}

	r.perform(game.GameFinished{})

	r.logger.Info("game finished",
		zap.Uint64("room_id", r.id),
		zap.String("room", r.name),
	)
}

// turn runs one player's turn: start, draw one, then request turn
// actions until the player ends the turn, the timer expires, or no
// answer arrives.
func (r *Room) turn(ctx context.Context, player game.PlayerID) {
	r.perform(game.StartTurn{Player: player, Duration: r.cfg.TurnTimeout})
	r.perform(&game.DrawCards{Player: player, Count: 1})

turn:
	for {
		remaining := r.turnRemaining()
		if remaining <= 0 || ctx.Err() != nil {
			break
		}

		timeout := r.cfg.RequestTimeout
		if remaining < timeout {
			timeout = remaining
		}

		req := &Request{TurnAction: &TurnActionRequest{PlayableCards: r.playableCards(player)}}
		reply, answered := r.requestUserEvent(ctx, player, req, timeout)
		if !answered {
			break // no answer is an implicit end-turn
		}

		switch {
		case reply.EndTurn != nil:
			break turn

		case reply.PlayCard != nil:
			entity := ecs.Entity(reply.PlayCard.Entity)
			cardID, inHand := r.cardInHand(player, entity)
			if !inHand {
				continue // stale or bogus selection, ask again
			}
			proto, known := r.registry.Lookup(cardID)
			if !known {
				continue
			}

			if proto.Cost > 0 && !r.requestCost(ctx, player, proto.Cost) {
				// Unpaid cost means the card is not played and the
				// turn ends immediately.
				break turn
			}

			r.perform(game.PlayCard{Player: player, Card: entity})
			r.perform(game.ExecuteCard{Player: player, Card: cardID, Source: r.registry})

		default:
			continue
		}
	}

	r.perform(game.EndTurn{Player: player})
}

// requestCost runs the cost-payment sub-protocol and reports whether the
// player paid. An already-expired turn counts as an unpaid cost; no
// request is issued.
func (r *Room) requestCost(ctx context.Context, player game.PlayerID, cost int) bool {
	remaining := r.turnRemaining()
	if remaining <= 0 {
		return false
	}
	timeout := r.cfg.RequestTimeout
	if remaining < timeout {
		timeout = remaining
	}

	req := &Request{CostAction: &CostActionRequest{
		Cost:      cost,
		Providers: r.costProviders(player),
	}}

	reply, answered := r.requestUserEvent(ctx, player, req, timeout)
	if !answered || reply.PayCost == nil || reply.PayCost.Decline {
		return false
	}
	return true
}

func (r *Room) turnRemaining() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.world == nil {
		return 0
	}
	timer, ok := ecs.Resource[game.TurnTimer](r.world)
	if !ok {
		return 0
	}
	return timer.Remaining()
}

// playableCards lists the entities in the player's hand, in ascending
// entity order so a replayed request matches the original byte for byte.
func (r *Room) playableCards(player game.PlayerID) []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	cards := make([]uint32, 0)
	for e := range r.world.Query(ecs.Has[game.CardID](), ecs.Exact(game.InHand{Player: player})) {
		cards = append(cards, uint32(e))
	}
	return cards
}

func (r *Room) costProviders(player game.PlayerID) []CostProvider {
	r.mu.Lock()
	defer r.mu.Unlock()

	providers := make([]CostProvider, 0)
	for e := range r.world.Query(ecs.Exact(game.Faith{Player: player})) {
		providers = append(providers, CostProvider{Entity: uint32(e), Provides: 1})
	}
	return providers
}

func (r *Room) cardInHand(player game.PlayerID, e ecs.Entity) (game.CardID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hand, ok := ecs.Get[game.InHand](r.world, e)
	if !ok || hand.Player != player {
		return 0, false
	}
	id, ok := ecs.Get[game.CardID](r.world, e)
	if !ok {
		return 0, false
	}
	return *id, true
}

func (r *Room) decksExhausted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.world.Count(ecs.Has[game.InDeck]()) == 0
}
