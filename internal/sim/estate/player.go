package estate

import (
	"fmt"
	"sort"

	"est8.games/internal/sim/defs"
)

// Counters are the player's cross-street tallies. They never decrease.
type Counters struct {
	Biss           int `json:"biss"`
	PermitRefusals int `json:"permit_refusals"`
	Pools          int `json:"pools"`
	Roundabouts    int `json:"roundabouts"`
	TempAgencies   int `json:"temp_agencies"`
}

// Player owns one neighbourhood plus the counters and investment levels that feed scoring.
// A Player is not safe for concurrent use.
type Player struct {
	def         *defs.GameDefinition
	hood        *Neighbourhood
	investments map[int]int
	counters    Counters
}

func NewPlayer(def *defs.GameDefinition) *Player {
	investments := make(map[int]int, len(def.Scoring.Invest.Values))
	for size := range def.Scoring.Invest.Values {
		investments[size] = 0
	}
	return &Player{
		def:         def,
		hood:        NewNeighbourhood(def.Neighbourhood),
		investments: investments,
	}
}

func (p *Player) Definition() *defs.GameDefinition { return p.def }
func (p *Player) Neighbourhood() *Neighbourhood    { return p.hood }
func (p *Player) Counters() Counters               { return p.counters }

// Investments returns a copy of the investment level per estate size.
func (p *Player) Investments() map[int]int {
	out := make(map[int]int, len(p.investments))
	for k, v := range p.investments {
		out[k] = v
	}
	return out
}

func (p *Player) InvestmentLevel(size int) int { return p.investments[size] }

func (p *Player) checkRoundabout() error {
	if p.counters.Roundabouts >= p.def.MaxRoundabouts() {
		return ruleErr(KindRoundaboutPlacement, "maximum number of roundabouts have been placed")
	}
	return nil
}

// CheckHouse validates a placement without applying it.
func (p *Player) CheckHouse(streetNo, plot int, h House) error {
	if h.Roundabout {
		if err := p.checkRoundabout(); err != nil {
			return err
		}
	}
	return p.hood.CheckHouse(streetNo, plot, h)
}

// PlaceHouse builds h and bumps the counters for each of its flags. The roundabout quota is
// checked before the street is touched.
func (p *Player) PlaceHouse(streetNo, plot int, h House) (House, error) {
	if h.Roundabout {
		if err := p.checkRoundabout(); err != nil {
			return House{}, err
		}
	}
	placed, err := p.hood.PlaceHouse(streetNo, plot, h)
	if err != nil {
		return House{}, err
	}
	if placed.Bis {
		p.counters.Biss++
	}
	if placed.Pool {
		p.counters.Pools++
	}
	if placed.Roundabout {
		p.counters.Roundabouts++
	}
	if placed.BuiltByTemps {
		p.counters.TempAgencies++
	}
	return placed, nil
}

func (p *Player) CheckFence(streetNo, index int) error {
	return p.hood.CheckFence(streetNo, index)
}

func (p *Player) PlaceFence(streetNo, index int) error {
	return p.hood.PlaceFence(streetNo, index)
}

// CheckInvestment validates an investment without applying it.
func (p *Player) CheckInvestment(size int) error {
	level, ok := p.investments[size]
	if !ok {
		return ruleErr(KindInvestment, fmt.Sprintf("cannot invest in estates of size %d", size))
	}
	max, _ := p.def.MaxInvestmentsInEstateSize(size)
	if max == 0 {
		return ruleErr(KindInvestment, fmt.Sprintf("cannot invest in estates of size %d", size))
	}
	if level >= max {
		return ruleErr(KindInvestment, fmt.Sprintf("already fully invested in estates of size %d", size))
	}
	return nil
}

func (p *Player) MakeInvestment(size int) error {
	if err := p.CheckInvestment(size); err != nil {
		return err
	}
	p.investments[size]++
	return nil
}

// RefusePermit records a turn in which the player could not build.
func (p *Player) RefusePermit() {
	p.counters.PermitRefusals++
}

// OutOfPermits reports whether the player has reached the last slot of the refusal table.
func (p *Player) OutOfPermits() bool {
	return p.counters.PermitRefusals >= len(p.def.Scoring.PermitRefusal)-1
}

// ScoreBreakdown is the per-category contribution to a player's score.
type ScoreBreakdown struct {
	Bis           int `json:"bis"`
	Investments   int `json:"investments"`
	Pools         int `json:"pools"`
	Roundabouts   int `json:"roundabouts"`
	TempAgencies  int `json:"temp_agencies"`
	PermitRefusal int `json:"permit_refusal"`
	Parks         int `json:"parks"`
}

func (b ScoreBreakdown) Total() int {
	return b.Bis + b.Investments + b.Pools + b.Roundabouts + b.TempAgencies + b.PermitRefusal + b.Parks
}

// ScoreBreakdown scores the player against the temp agency counts of the other players.
func (p *Player) ScoreBreakdown(peerTemps []int) ScoreBreakdown {
	s := p.def.Scoring
	return ScoreBreakdown{
		Bis:           s.BisScore(p.counters.Biss),
		Investments:   s.InvestmentScore(p.hood.AllEstates(), p.investments),
		Pools:         s.PoolScore(p.counters.Pools),
		Roundabouts:   s.RoundaboutScore(p.counters.Roundabouts),
		TempAgencies:  s.TempAgencyScore(peerTemps, p.counters.TempAgencies),
		PermitRefusal: s.PermitRefusalScore(p.counters.PermitRefusals),
		Parks:         p.hood.ParkScore(),
	}
}

func (p *Player) Score(peerTemps []int) int {
	return p.ScoreBreakdown(peerTemps).Total()
}

// InvestmentSizes lists the estate sizes the player can invest in, ascending.
func (p *Player) InvestmentSizes() []int {
	out := make([]int, 0, len(p.investments))
	for size := range p.investments {
		if max, _ := p.def.MaxInvestmentsInEstateSize(size); max > 0 {
			out = append(out, size)
		}
	}
	sort.Ints(out)
	return out
}
