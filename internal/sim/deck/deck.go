// Package deck deals the construction cards. All randomness comes from the caller's
// *rand.Rand so that a seeded table replays identically.
package deck

import (
	"math/rand"

	"est8.games/internal/sim/defs"
)

// Shuffler deals cards forever, reshuffling when a pass runs out. The last holdBack cards of
// a pass stay on the table during the next pass and rejoin the one after.
type Shuffler struct {
	rng      *rand.Rand
	holdBack int

	pile []defs.Card
	pos  int
	held []defs.Card
	pass int
}

func NewShuffler(cards []defs.Card, holdBack int, rng *rand.Rand) *Shuffler {
	if holdBack < 0 {
		holdBack = 0
	}
	if holdBack >= len(cards) {
		holdBack = len(cards) - 1
	}
	s := &Shuffler{
		rng:      rng,
		holdBack: holdBack,
		pile:     append([]defs.Card(nil), cards...),
		pass:     1,
	}
	s.shuffle()
	return s
}

func (s *Shuffler) shuffle() {
	s.rng.Shuffle(len(s.pile), func(i, j int) { s.pile[i], s.pile[j] = s.pile[j], s.pile[i] })
	s.pos = 0
}

// Draw deals the next card.
func (s *Shuffler) Draw() defs.Card {
	if s.pos >= len(s.pile) {
		s.reshuffle()
	}
	c := s.pile[s.pos]
	s.pos++
	return c
}

func (s *Shuffler) reshuffle() {
	cut := len(s.pile) - s.holdBack
	next := make([]defs.Card, 0, len(s.held)+cut)
	next = append(next, s.held...)
	next = append(next, s.pile[:cut]...)
	s.held = append(s.held[:0:0], s.pile[cut:]...)
	s.pile = next
	s.pass++
	s.shuffle()
}

// Remaining is the number of cards left in the current pass.
func (s *Shuffler) Remaining() int { return len(s.pile) - s.pos }

// Pass counts shuffles, starting at 1.
func (s *Shuffler) Pass() int { return s.pass }

// Held returns the cards sitting out of the current pass.
func (s *Shuffler) Held() []defs.Card {
	return append([]defs.Card(nil), s.held...)
}

// PairDrawer turns the card stream into rounds of CardPairs. The number cards of one round
// are flipped over and become the action cards of the next.
type PairDrawer struct {
	src     *Shuffler
	n       int
	actions []defs.Card
}

func NewPairDrawer(def *defs.GameDefinition, rng *rand.Rand) *PairDrawer {
	return &PairDrawer{
		src: NewShuffler(def.Deck.OrderedCards(), def.DeckHoldBack, rng),
		n:   def.CardsDrawnAtOnce,
	}
}

func (d *PairDrawer) draw() []defs.Card {
	out := make([]defs.Card, d.n)
	for i := range out {
		out[i] = d.src.Draw()
	}
	return out
}

// Next deals one round.
func (d *PairDrawer) Next() []defs.CardPair {
	if d.actions == nil {
		d.actions = d.draw()
	}
	numbers := d.draw()
	pairs := make([]defs.CardPair, d.n)
	for i := range pairs {
		pairs[i] = defs.CardPair{NumberCard: numbers[i], ActionCard: d.actions[i]}
	}
	d.actions = numbers
	return pairs
}

// Pass reports the current shuffle pass of the underlying deck.
func (d *PairDrawer) Pass() int { return d.src.Pass() }
