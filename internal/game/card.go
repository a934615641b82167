package game

// CardID references a static card prototype in the registry. It is not
// itself mutable state.
type CardID uint32

// Zone markers. A card entity carries at most one of these at a time;
// playing a card is exactly the removal of its InHand marker.

// InDeck tags a card entity sitting in a player's deck.
type InDeck struct {
	Player PlayerID
}

// InHand tags a card entity held in a player's hand.
type InHand struct {
	Player PlayerID
}

// Faith tags a card entity in a player's faith zone.
type Faith struct {
	Player PlayerID
}
