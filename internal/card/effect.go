package card

import "github.com/faithduel/faithduel-server/internal/game"

// DrawCards is the effect "the acting player draws Count cards".
type DrawCards struct {
	Count int
}

// Apply issues a DrawCards action for the acting player.
func (d DrawCards) Apply(h *game.Handle, player game.PlayerID) {
	h.Perform(&game.DrawCards{Player: player, Count: d.Count})
}
