package defs

import "fmt"

// Validate checks the invariants the rules engine relies on. It runs once at load time so
// that scoring never meets an inconsistent table.
func (g *GameDefinition) Validate() error {
	if g == nil {
		return fmt.Errorf("nil game definition")
	}
	if len(g.Neighbourhood.Streets) == 0 {
		return fmt.Errorf("neighbourhood: no streets")
	}
	for i, st := range g.Neighbourhood.Streets {
		if st.NumHouses <= 0 {
			return fmt.Errorf("street %d: num_houses must be > 0", i)
		}
		if len(st.ParkScoring) == 0 {
			return fmt.Errorf("street %d: empty park_scoring", i)
		}
		if st.NumParks != st.MaxParks() {
			return fmt.Errorf("street %d: num_parks %d does not match park_scoring (%d entries)", i, st.NumParks, len(st.ParkScoring))
		}
		for _, p := range st.PoolLocations {
			if p < 0 || p >= st.NumHouses {
				return fmt.Errorf("street %d: pool location %d off street", i, p)
			}
		}
	}

	tables := []struct {
		name  string
		table []int
	}{
		{"bis", g.Scoring.Bis},
		{"permit_refusal", g.Scoring.PermitRefusal},
		{"pool", g.Scoring.Pool},
		{"roundabout", g.Scoring.Roundabout},
		{"temp_agency", g.Scoring.TempAgency},
	}
	for _, t := range tables {
		if len(t.table) == 0 {
			return fmt.Errorf("scoring: empty %s table", t.name)
		}
	}

	// Every estate size a street can produce must be scoreable.
	sizes := g.Scoring.Invest.Sizes()
	if len(sizes) == 0 {
		return fmt.Errorf("scoring: empty invest table")
	}
	for i, size := range sizes {
		if size != i+1 {
			return fmt.Errorf("scoring: invest table missing estate size %d", i+1)
		}
		if len(g.Scoring.Invest.Values[size]) == 0 {
			return fmt.Errorf("scoring: invest estate size %d has no values", size)
		}
	}
	largest := sizes[len(sizes)-1]
	for i, st := range g.Neighbourhood.Streets {
		if st.NumHouses > largest {
			return fmt.Errorf("street %d: estates of up to %d houses but invest table stops at %d", i, st.NumHouses, largest)
		}
	}

	if g.CardsDrawnAtOnce <= 0 {
		return fmt.Errorf("cards_drawn_at_once must be > 0")
	}
	if g.DeckHoldBack < 0 {
		return fmt.Errorf("deck_hold_back must be >= 0")
	}
	if g.Deck.DeckSize()-g.DeckHoldBack < 2*g.CardsDrawnAtOnce {
		return fmt.Errorf("deck: %d cards (%d held back) cannot deal %d pairs", g.Deck.DeckSize(), g.DeckHoldBack, g.CardsDrawnAtOnce)
	}

	if len(g.PlanDeck.No1) == 0 || len(g.PlanDeck.No2) == 0 || len(g.PlanDeck.No3) == 0 {
		return fmt.Errorf("plans: every tier needs at least one plan")
	}
	return nil
}
