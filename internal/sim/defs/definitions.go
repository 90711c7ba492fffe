// Package defs holds the immutable game definitions: neighbourhood layout, scoring tables and
// deck composition. Values are built once (Default or Load) and shared by reference.
package defs

import (
	"math/rand"
	"sort"
)

// Action is the effect printed on the back of a card.
type Action int

const (
	ActionBis Action = iota + 1
	ActionFence
	ActionPark
	ActionInvest
	ActionPool
	ActionTemp
)

var actionNames = map[Action]string{
	ActionBis:    "bis",
	ActionFence:  "fence",
	ActionPark:   "park",
	ActionInvest: "invest",
	ActionPool:   "pool",
	ActionTemp:   "temp",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "unknown"
}

// ParseAction maps a lower-case action name back to its Action.
func ParseAction(s string) (Action, bool) {
	for a, name := range actionNames {
		if name == s {
			return a, true
		}
	}
	return 0, false
}

// Card is one card of the deck. ID is the card's position in the ordered deck and
// distinguishes otherwise identical cards.
type Card struct {
	ID     int    `json:"id"`
	Number int    `json:"number"`
	Action Action `json:"action"`
}

// CardPair is one choice offered to the players: the house number comes from NumberCard,
// the effect from ActionCard.
type CardPair struct {
	NumberCard Card `json:"number_card"`
	ActionCard Card `json:"action_card"`
}

type DeckDefinition struct {
	BisNumbers    []int
	FenceNumbers  []int
	ParkNumbers   []int
	InvestNumbers []int
	PoolNumbers   []int
	TempNumbers   []int
}

func DefaultDeck() DeckDefinition {
	return DeckDefinition{
		BisNumbers:    []int{3, 4, 6, 7, 8, 9, 10, 12, 13},
		FenceNumbers:  []int{1, 2, 3, 5, 5, 6, 6, 7, 8, 8, 9, 10, 10, 11, 11, 13, 14, 15},
		ParkNumbers:   []int{1, 2, 4, 5, 5, 6, 7, 7, 8, 8, 9, 9, 10, 11, 11, 12, 14, 15},
		InvestNumbers: []int{1, 2, 4, 5, 5, 6, 7, 7, 8, 8, 9, 9, 10, 11, 11, 12, 14, 15},
		PoolNumbers:   []int{3, 4, 6, 7, 8, 9, 10, 12, 13},
		TempNumbers:   []int{3, 4, 6, 7, 8, 8, 9, 10, 12, 13},
	}
}

func (d DeckDefinition) DeckSize() int {
	return len(d.BisNumbers) + len(d.FenceNumbers) + len(d.ParkNumbers) +
		len(d.InvestNumbers) + len(d.PoolNumbers) + len(d.TempNumbers)
}

// OrderedCards lists every card of the deck in definition order with IDs 0..DeckSize()-1.
func (d DeckDefinition) OrderedCards() []Card {
	out := make([]Card, 0, d.DeckSize())
	add := func(action Action, numbers []int) {
		for _, n := range numbers {
			out = append(out, Card{ID: len(out), Number: n, Action: action})
		}
	}
	add(ActionBis, d.BisNumbers)
	add(ActionFence, d.FenceNumbers)
	add(ActionPark, d.ParkNumbers)
	add(ActionPool, d.PoolNumbers)
	add(ActionInvest, d.InvestNumbers)
	add(ActionTemp, d.TempNumbers)
	return out
}

type StreetDefinition struct {
	NumHouses     int
	PoolLocations []int
	NumParks      int
	ParkScoring   []int
}

func (d StreetDefinition) CanHavePoolAt(plot int) bool {
	for _, p := range d.PoolLocations {
		if p == plot {
			return true
		}
	}
	return false
}

// MaxParks is the number of parks that still raise the park score.
func (d StreetDefinition) MaxParks() int { return len(d.ParkScoring) - 1 }

func (d StreetDefinition) ParkScore(numParks int) int {
	return d.ParkScoring[clamp(numParks, len(d.ParkScoring)-1)]
}

type NeighbourhoodDefinition struct {
	Streets []StreetDefinition
}

func DefaultNeighbourhood() NeighbourhoodDefinition {
	return NeighbourhoodDefinition{
		Streets: []StreetDefinition{
			{NumHouses: 10, PoolLocations: []int{2, 6, 7}, NumParks: 3, ParkScoring: []int{0, 2, 4, 10}},
			{NumHouses: 11, PoolLocations: []int{0, 3, 7}, NumParks: 4, ParkScoring: []int{0, 2, 4, 6, 14}},
			{NumHouses: 12, PoolLocations: []int{1, 6, 10}, NumParks: 5, ParkScoring: []int{0, 2, 4, 6, 8, 18}},
		},
	}
}

// CanHavePoolAt reports false for streets that do not exist.
func (d NeighbourhoodDefinition) CanHavePoolAt(street, plot int) bool {
	if street < 0 || street >= len(d.Streets) {
		return false
	}
	return d.Streets[street].CanHavePoolAt(plot)
}

// InvestDefinition maps an estate size to its value ladder; index i is the value of one
// estate of that size after i investments.
type InvestDefinition struct {
	Values map[int][]int
}

func DefaultInvest() InvestDefinition {
	return InvestDefinition{
		Values: map[int][]int{
			1: {1, 3},
			2: {2, 3, 4},
			3: {3, 4, 5, 6},
			4: {4, 5, 6, 7, 8},
			5: {5, 6, 7, 8, 10},
			6: {6, 7, 8, 10, 12},
			// Longer estates can be built but never invested in.
			7:  {0},
			8:  {0},
			9:  {0},
			10: {0},
			11: {0},
			12: {0},
		},
	}
}

// EstateValue returns the value of one estate of the given size. The level is clamped to the
// last rung. ok is false when the size has no category.
func (d InvestDefinition) EstateValue(size, level int) (value int, ok bool) {
	ladder, ok := d.Values[size]
	if !ok || len(ladder) == 0 {
		return 0, false
	}
	return ladder[clamp(level, len(ladder)-1)], true
}

// Sizes returns the estate sizes with a category, ascending.
func (d InvestDefinition) Sizes() []int {
	out := make([]int, 0, len(d.Values))
	for size := range d.Values {
		out = append(out, size)
	}
	sort.Ints(out)
	return out
}

type ScoringDefinition struct {
	Bis           []int
	Invest        InvestDefinition
	PermitRefusal []int
	Pool          []int
	Roundabout    []int
	TempAgency    []int
}

func DefaultScoring() ScoringDefinition {
	return ScoringDefinition{
		Bis:           []int{0, -1, -3, -6, -9, -12, -16, -20, -24, -28},
		Invest:        DefaultInvest(),
		PermitRefusal: []int{0, 0, -3, -5},
		Pool:          []int{0, 3, 6, 9, 13, 17, 21, 26, 31, 36},
		Roundabout:    []int{0, -3, -8},
		TempAgency:    []int{7, 4, 1},
	}
}

func (d ScoringDefinition) BisScore(n int) int           { return lookup(d.Bis, n) }
func (d ScoringDefinition) PermitRefusalScore(n int) int { return lookup(d.PermitRefusal, n) }
func (d ScoringDefinition) PoolScore(n int) int          { return lookup(d.Pool, n) }
func (d ScoringDefinition) RoundaboutScore(n int) int    { return lookup(d.Roundabout, n) }

// InvestmentScore sums the value of every completed estate at the player's investment levels.
// Sizes missing from investments count as level 0. Validate guarantees every estate a street
// can hold has a category.
func (d ScoringDefinition) InvestmentScore(estates []int, investments map[int]int) int {
	values := make(map[int]int, len(d.Invest.Values))
	for _, size := range d.Invest.Sizes() {
		values[size], _ = d.Invest.EstateValue(size, investments[size])
	}
	total := 0
	for _, size := range estates {
		total += values[size]
	}
	return total
}

// TempAgencyScore awards podium places by number of temp agencies used. Ties share a place.
func (d ScoringDefinition) TempAgencyScore(allPlayersTemps []int, playerTemps int) int {
	if playerTemps == 0 {
		return 0
	}
	seen := make(map[int]struct{}, len(allPlayersTemps)+1)
	distinct := make([]int, 0, len(allPlayersTemps)+1)
	add := func(n int) {
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		distinct = append(distinct, n)
	}
	for _, n := range allPlayersTemps {
		add(n)
	}
	add(playerTemps)
	sort.Sort(sort.Reverse(sort.IntSlice(distinct)))
	for rank, n := range distinct {
		if n != playerTemps {
			continue
		}
		if rank < len(d.TempAgency) {
			return d.TempAgency[rank]
		}
		return 0
	}
	return 0
}

type PlanDefinition struct {
	Points [2]int `json:"points"`
}

// PlanDeckDefinition holds the city plan cards for each of the three plan tiers.
type PlanDeckDefinition struct {
	No1 []PlanDefinition
	No2 []PlanDefinition
	No3 []PlanDefinition
}

func DefaultPlanDeck() PlanDeckDefinition {
	return PlanDeckDefinition{
		No1: []PlanDefinition{{Points: [2]int{6, 2}}},
		No2: []PlanDefinition{{Points: [2]int{8, 3}}},
		No3: []PlanDefinition{{Points: [2]int{11, 5}}},
	}
}

// Pick3 draws one plan from each tier.
func (d PlanDeckDefinition) Pick3(rng *rand.Rand) [3]PlanDefinition {
	return [3]PlanDefinition{
		d.No1[rng.Intn(len(d.No1))],
		d.No2[rng.Intn(len(d.No2))],
		d.No3[rng.Intn(len(d.No3))],
	}
}

type GameDefinition struct {
	Neighbourhood NeighbourhoodDefinition
	Scoring       ScoringDefinition
	Deck          DeckDefinition
	PlanDeck      PlanDeckDefinition

	CardsDrawnAtOnce int
	// DeckHoldBack is the number of last-dealt cards left on the table when reshuffling.
	DeckHoldBack int
}

func Default() *GameDefinition {
	return &GameDefinition{
		Neighbourhood:    DefaultNeighbourhood(),
		Scoring:          DefaultScoring(),
		Deck:             DefaultDeck(),
		PlanDeck:         DefaultPlanDeck(),
		CardsDrawnAtOnce: 3,
	}
}

func (g *GameDefinition) CanHavePoolAt(street, plot int) bool {
	return g.Neighbourhood.CanHavePoolAt(street, plot)
}

func (g *GameDefinition) MaxRoundabouts() int { return len(g.Scoring.Roundabout) - 1 }

// MaxInvestmentsInEstateSize is the highest investment level for the size; ok is false for
// sizes without a category.
func (g *GameDefinition) MaxInvestmentsInEstateSize(size int) (int, bool) {
	ladder, ok := g.Scoring.Invest.Values[size]
	if !ok {
		return 0, false
	}
	return len(ladder) - 1, true
}

func lookup(table []int, n int) int {
	return table[clamp(n, len(table)-1)]
}

func clamp(n, max int) int {
	if n > max {
		return max
	}
	if n < 0 {
		return 0
	}
	return n
}
