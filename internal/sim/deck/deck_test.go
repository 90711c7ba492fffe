package deck

import (
	"math/rand"
	"reflect"
	"testing"

	"est8.games/internal/sim/defs"
)

func ids(cards []defs.Card) map[int]bool {
	out := make(map[int]bool, len(cards))
	for _, c := range cards {
		out[c.ID] = true
	}
	return out
}

func TestShuffler_FullPassDealsEveryCardOnce(t *testing.T) {
	cards := defs.DefaultDeck().OrderedCards()
	s := NewShuffler(cards, 0, rand.New(rand.NewSource(1)))
	seen := map[int]bool{}
	for i := 0; i < len(cards); i++ {
		c := s.Draw()
		if seen[c.ID] {
			t.Fatalf("card %d dealt twice in one pass", c.ID)
		}
		seen[c.ID] = true
	}
	if s.Remaining() != 0 || s.Pass() != 1 {
		t.Fatalf("remaining=%d pass=%d", s.Remaining(), s.Pass())
	}
	s.Draw()
	if s.Pass() != 2 || s.Remaining() != len(cards)-1 {
		t.Fatalf("after reshuffle remaining=%d pass=%d", s.Remaining(), s.Pass())
	}
}

func TestShuffler_HoldBack(t *testing.T) {
	cards := defs.DefaultDeck().OrderedCards()
	const hold = 3
	s := NewShuffler(cards, hold, rand.New(rand.NewSource(2)))

	var first []defs.Card
	for i := 0; i < len(cards); i++ {
		first = append(first, s.Draw())
	}
	tail := first[len(first)-hold:]

	var second []defs.Card
	for i := 0; i < len(cards)-hold; i++ {
		second = append(second, s.Draw())
	}
	if s.Pass() != 2 || s.Remaining() != 0 {
		t.Fatalf("pass=%d remaining=%d", s.Pass(), s.Remaining())
	}
	secondIDs := ids(second)
	for _, c := range tail {
		if secondIDs[c.ID] {
			t.Fatalf("held card %d dealt in the next pass", c.ID)
		}
	}
	if !reflect.DeepEqual(ids(s.Held()), ids(tail)) {
		t.Fatalf("held=%v want=%v", s.Held(), tail)
	}

	// The held cards rejoin the pass after.
	third := map[int]bool{}
	for i := 0; i < len(cards)-hold; i++ {
		third[s.Draw().ID] = true
	}
	for _, c := range tail {
		if !third[c.ID] {
			t.Fatalf("held card %d did not rejoin", c.ID)
		}
	}
}

func TestShuffler_Deterministic(t *testing.T) {
	cards := defs.DefaultDeck().OrderedCards()
	a := NewShuffler(cards, 2, rand.New(rand.NewSource(42)))
	b := NewShuffler(cards, 2, rand.New(rand.NewSource(42)))
	for i := 0; i < 3*len(cards); i++ {
		if ca, cb := a.Draw(), b.Draw(); ca != cb {
			t.Fatalf("draw %d differs: %v vs %v", i, ca, cb)
		}
	}
}

func TestShuffler_DoesNotMutateInput(t *testing.T) {
	cards := defs.DefaultDeck().OrderedCards()
	orig := append([]defs.Card(nil), cards...)
	s := NewShuffler(cards, 0, rand.New(rand.NewSource(3)))
	for i := 0; i < 2*len(cards); i++ {
		s.Draw()
	}
	if !reflect.DeepEqual(cards, orig) {
		t.Fatalf("input slice was reordered")
	}
}

func TestPairDrawer_NumberCardsBecomeActions(t *testing.T) {
	def := defs.Default()
	d := NewPairDrawer(def, rand.New(rand.NewSource(5)))

	prev := d.Next()
	if len(prev) != def.CardsDrawnAtOnce {
		t.Fatalf("pairs=%d want=%d", len(prev), def.CardsDrawnAtOnce)
	}
	for round := 0; round < 40; round++ {
		next := d.Next()
		for i := range next {
			if next[i].ActionCard != prev[i].NumberCard {
				t.Fatalf("round %d pair %d: action %v want %v", round, i, next[i].ActionCard, prev[i].NumberCard)
			}
		}
		prev = next
	}
	if d.Pass() < 2 {
		t.Fatalf("expected the deck to be reshuffled, pass=%d", d.Pass())
	}
}
