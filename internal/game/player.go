// Package game holds the authoritative game model: the components and
// resources that describe one running match, the closed set of actions
// that are the only legal way to mutate it, and the per-player snapshot
// used for state synchronization.
package game

import "github.com/faithduel/faithduel-server/internal/ecs"

// PlayerID identifies one of the two seats in a match.
type PlayerID uint8

const (
	Player0 PlayerID = iota
	Player1
)

// Opposite returns the other seat.
func (p PlayerID) Opposite() PlayerID {
	if p == Player0 {
		return Player1
	}
	return Player0
}

// Players lists both seats in fixed turn order.
var Players = [2]PlayerID{Player0, Player1}

// PlayerState is the per-seat component carrying the ordered deck.
// The deck runs bottom to top; the top of the deck is the last element.
type PlayerState struct {
	Deck []ecs.Entity
}

// CurrentTurn marks the player entity whose turn is in progress. At most
// one entity carries it at any time.
type CurrentTurn struct{}
