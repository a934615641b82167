// Package card defines static card prototypes and the registry that
// resolves a card id to its identity, cost, and effects. The registry is
// built once at startup and injected wherever it is consumed; it is
// immutable after construction.
package card

import "github.com/faithduel/faithduel-server/internal/game"

// Kind distinguishes the two prototype families.
type Kind int

const (
	// KindOrder cards carry effects that run when the card is played.
	KindOrder Kind = iota
	// KindFaith cards sit in the faith zone and pay costs; they have no
	// activation effect.
	KindFaith
)

// Prototype is the static, registry-defined description of a card.
type Prototype struct {
	ID          game.CardID
	Name        string
	Description string
	Cost        int
	Kind        Kind
	Effects     []game.Effect
}

// Registry maps card ids to prototypes.
type Registry struct {
	cards map[game.CardID]*Prototype
}

// NewRegistry creates an empty registry. Use Order and Faith to populate
// it before handing it out.
func NewRegistry() *Registry {
	return &Registry{cards: make(map[game.CardID]*Prototype)}
}

// Order registers an order prototype.
func (r *Registry) Order(id game.CardID, name, description string, cost int, effects ...game.Effect) {
	r.cards[id] = &Prototype{
		ID:          id,
		Name:        name,
		Description: description,
		Cost:        cost,
		Kind:        KindOrder,
		Effects:     effects,
	}
}

// Faith registers a faith prototype.
func (r *Registry) Faith(id game.CardID, name, description string) {
	r.cards[id] = &Prototype{
		ID:          id,
		Name:        name,
		Description: description,
		Kind:        KindFaith,
	}
}

// Lookup returns the prototype for a card id.
func (r *Registry) Lookup(id game.CardID) (*Prototype, bool) {
	p, ok := r.cards[id]
	return p, ok
}

// Cost returns the play cost for a card id, reporting false for unknown
// ids.
func (r *Registry) Cost(id game.CardID) (int, bool) {
	p, ok := r.cards[id]
	if !ok {
		return 0, false
	}
	return p.Cost, true
}

// OrderEffects resolves a card id to an order prototype's effects. It
// reports false for faith prototypes and unknown ids, which ExecuteCard
// treats as silent no-ops.
func (r *Registry) OrderEffects(id game.CardID) ([]game.Effect, bool) {
	p, ok := r.cards[id]
	if !ok || p.Kind != KindOrder {
		return nil, false
	}
	return p.Effects, true
}

// Default builds the standard registry.
func Default() *Registry {
	r := NewRegistry()
	r.Order(7001, "Scout Order", "Draw a card.", 0, DrawCards{Count: 1})
	r.Order(7002, "Recall Order", "Draw two cards.", 1, DrawCards{Count: 2})
	r.Faith(8001, "Plain Faith", "Exhaust to pay 1 generic faith.")
	return r
}

const starterDeckSize = 30

// StarterDeck returns a seat's default 30-card deck, bottom to top.
func StarterDeck(p game.PlayerID) []game.CardID {
	id := game.CardID(7001)
	if p == game.Player1 {
		id = 7002
	}
	deck := make([]game.CardID, starterDeckSize)
	for i := range deck {
		deck[i] = id
	}
	return deck
}

// StarterFaith returns a seat's default faith cards.
func StarterFaith() []game.CardID {
	return []game.CardID{8001, 8001, 8001}
}
