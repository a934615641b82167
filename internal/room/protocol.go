package room

import "github.com/faithduel/faithduel-server/internal/game"

// Event is one message on a player's event stream. Exactly one of the
// fields is set: a state-update snapshot or a request for input.
type Event struct {
	State   *game.PlayerSnapshot `json:"state,omitempty"`
	Request *Request             `json:"request,omitempty"`
}

// Request asks the player for a decision. The sequence number correlates
// the eventual reply; SecondsRemaining is the advisory countdown for UI
// rendering and is always at least one second shorter than the server's
// own timeout.
type Request struct {
	Seqnum           uint64             `json:"seqnum"`
	SecondsRemaining int32              `json:"seconds_remaining"`
	TurnAction       *TurnActionRequest `json:"turn_action,omitempty"`
	CostAction       *CostActionRequest `json:"cost_action,omitempty"`
}

// TurnActionRequest asks the player to choose a turn action. The entries
// are card entity ids currently playable from hand.
type TurnActionRequest struct {
	PlayableCards []uint32 `json:"playable_cards"`
}

// CostActionRequest asks the player to pay a card's cost with faith
// cards.
type CostActionRequest struct {
	Cost      int            `json:"cost"`
	Providers []CostProvider `json:"providers"`
}

// CostProvider is one faith-card entity a cost can be paid with.
type CostProvider struct {
	Entity   uint32 `json:"entity"`
	Provides int    `json:"provides"`
}

// Reply is a player's answer to an outstanding request. Exactly one
// field is set.
type Reply struct {
	PlayCard *PlayCardReply `json:"play_card,omitempty"`
	EndTurn  *EndTurnReply  `json:"end_turn,omitempty"`
	PayCost  *PayCostReply  `json:"pay_cost,omitempty"`
}

// PlayCardReply selects a card entity to play.
type PlayCardReply struct {
	Entity uint32 `json:"entity"`
}

// EndTurnReply ends the turn voluntarily.
type EndTurnReply struct{}

// PayCostReply pays a requested cost, or declines it.
type PayCostReply struct {
	Providers []uint32 `json:"providers"`
	Decline   bool     `json:"decline"`
}
