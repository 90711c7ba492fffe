// Package estate implements the placement rules and scoring of a player's neighbourhood.
package estate

import (
	"fmt"
	"strings"

	"est8.games/internal/sim/defs"
)

// Street is a row of plots with fences between them.
//
// fences[i] is the fence immediately left of plot i, so fences[0] and fences[len(plots)]
// are the two ends of the street. Both ends are fenced from construction on.
type Street struct {
	def      defs.StreetDefinition
	plots    []*House
	fences   []bool
	numParks int
}

func NewStreet(def defs.StreetDefinition) *Street {
	fences := make([]bool, def.NumHouses+1)
	fences[0] = true
	fences[def.NumHouses] = true
	return &Street{
		def:    def,
		plots:  make([]*House, def.NumHouses),
		fences: fences,
	}
}

func (s *Street) Definition() defs.StreetDefinition { return s.def }

// Len is the number of plots.
func (s *Street) Len() int { return len(s.plots) }

func (s *Street) NumParks() int { return s.numParks }

// House returns a copy of the occupant of plot; ok is false for empty or off-street plots.
func (s *Street) House(plot int) (House, bool) {
	if plot < 0 || plot >= len(s.plots) || s.plots[plot] == nil {
		return House{}, false
	}
	return *s.plots[plot], true
}

// Fence reports whether the fence at index is built. Off-street indices report false.
func (s *Street) Fence(index int) bool {
	if index < 0 || index >= len(s.fences) {
		return false
	}
	return s.fences[index]
}

// Fences returns a copy of the fence row.
func (s *Street) Fences() []bool {
	return append([]bool(nil), s.fences...)
}

// Full reports whether every plot is occupied.
func (s *Street) Full() bool {
	for _, h := range s.plots {
		if h == nil {
			return false
		}
	}
	return true
}

func (s *Street) fenceLeftOf(plot int) bool  { return s.fences[plot] }
func (s *Street) fenceRightOf(plot int) bool { return s.fences[plot+1] }

// Neighbours returns copies of the houses directly left and right of plot. Off-street plots
// have no neighbours.
func (s *Street) Neighbours(plot int) (left, right *House) {
	if plot < 0 || plot >= len(s.plots) {
		return nil, nil
	}
	if plot > 0 && s.plots[plot-1] != nil {
		h := *s.plots[plot-1]
		left = &h
	}
	if plot < len(s.plots)-1 && s.plots[plot+1] != nil {
		h := *s.plots[plot+1]
		right = &h
	}
	return left, right
}

// PossibleBisNumbers returns the numbers a bis built at plot could copy: those of numbered
// neighbours not separated from plot by a fence.
func (s *Street) PossibleBisNumbers(plot int) (left, right *int) {
	l, r := s.Neighbours(plot)
	if l != nil && !s.fenceLeftOf(plot) {
		if n, ok := l.Number(); ok {
			left = &n
		}
	}
	if r != nil && !s.fenceRightOf(plot) {
		if n, ok := r.Number(); ok {
			right = &n
		}
	}
	return left, right
}

// CheckFence validates a fence placement without applying it.
func (s *Street) CheckFence(index int) error {
	if index < 0 || index >= len(s.fences) {
		return ruleErr(KindFencePlacement, "cannot place fence off end of street")
	}
	if s.fences[index] {
		return ruleErr(KindFencePlacement, "a fence already exists in this location")
	}
	return nil
}

func (s *Street) PlaceFence(index int) error {
	if err := s.CheckFence(index); err != nil {
		return err
	}
	s.fences[index] = true
	return nil
}

// CheckHouse validates placing h at plot without applying it.
func (s *Street) CheckHouse(plot int, h House) error {
	if plot < 0 || plot >= len(s.plots) {
		return ruleErr(KindHousePlacement, "cannot place house off end of street")
	}
	if s.plots[plot] != nil {
		return ruleErr(KindHousePlacement, "plot is not empty")
	}
	switch {
	case h.Roundabout:
		return nil
	case h.Bis:
		if l, r := s.PossibleBisNumbers(plot); l == nil && r == nil {
			return ruleErr(KindBisPlacement, "a bis must be placed next to a house with no fence between them")
		}
		return nil
	}
	n, ok := h.Number()
	if !ok {
		return ruleErr(KindHousePlacement, "house has no number")
	}
	return s.checkOrdering(plot, n)
}

// checkOrdering enforces strictly increasing numbers left to right. A roundabout starts a
// new run: numbers beyond it place no constraint on this plot.
func (s *Street) checkOrdering(plot, number int) error {
	highest := -1
	for _, h := range s.plots[:plot] {
		if h == nil {
			continue
		}
		if h.Roundabout {
			highest = 0
			continue
		}
		if n, ok := h.Number(); ok && n > highest {
			highest = n
		}
	}

	lowest, bounded := 0, false
	for i := len(s.plots) - 1; i > plot; i-- {
		h := s.plots[i]
		if h == nil {
			continue
		}
		if h.Roundabout {
			bounded = false
			continue
		}
		if n, ok := h.Number(); ok && (!bounded || n < lowest) {
			lowest, bounded = n, true
		}
	}

	if number <= highest || (bounded && number >= lowest) {
		upper := "inf"
		if bounded {
			upper = fmt.Sprint(lowest)
		}
		return ruleErr(KindHousePlacement, fmt.Sprintf("house number invalid: %d < %d < %s not satisfied", highest, number, upper))
	}
	return nil
}

// PlaceHouse validates and stores h at plot and returns the stored copy. A bis takes its
// left neighbour's number if it can, else its right neighbour's. A roundabout fences both
// of its sides.
func (s *Street) PlaceHouse(plot int, h House) (House, error) {
	if err := s.CheckHouse(plot, h); err != nil {
		return House{}, err
	}
	if h.Bis {
		l, r := s.PossibleBisNumbers(plot)
		if l != nil {
			h = h.withNumber(*l)
		} else {
			h = h.withNumber(*r)
		}
	}
	if h.Roundabout {
		s.fences[plot] = true
		s.fences[plot+1] = true
	}
	placed := h
	s.plots[plot] = &placed
	if h.Park && s.numParks < s.def.MaxParks() {
		s.numParks++
	}
	return h, nil
}

// CompleteEstates returns the sizes of the fence-bounded runs whose plots are all built with
// non-roundabout houses, left to right.
func (s *Street) CompleteEstates() []int {
	var estates []int
	start := 0
	for end := 1; end < len(s.fences); end++ {
		if !s.fences[end] {
			continue
		}
		if s.runComplete(start, end) {
			estates = append(estates, end-start)
		}
		start = end
	}
	return estates
}

func (s *Street) runComplete(start, end int) bool {
	for _, h := range s.plots[start:end] {
		if h == nil || h.Roundabout {
			return false
		}
	}
	return true
}

func (s *Street) ParkScore() int {
	return s.def.ParkScore(s.numParks)
}

// String renders the street as fence markers ('|' built, '.' open) interleaved with plot codes.
func (s *Street) String() string {
	var b strings.Builder
	for i, h := range s.plots {
		b.WriteString(fenceGlyph(s.fences[i]))
		if h == nil {
			b.WriteString(" ")
		} else {
			b.WriteString(h.String())
		}
	}
	b.WriteString(fenceGlyph(s.fences[len(s.plots)]))
	return b.String()
}

func fenceGlyph(built bool) string {
	if built {
		return "|"
	}
	return "."
}
