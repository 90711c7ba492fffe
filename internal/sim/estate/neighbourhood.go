package estate

import (
	"fmt"

	"est8.games/internal/sim/defs"
)

// Neighbourhood is the set of streets a player builds on.
type Neighbourhood struct {
	def     defs.NeighbourhoodDefinition
	streets []*Street
}

func NewNeighbourhood(def defs.NeighbourhoodDefinition) *Neighbourhood {
	n := &Neighbourhood{def: def, streets: make([]*Street, 0, len(def.Streets))}
	for _, sd := range def.Streets {
		n.streets = append(n.streets, NewStreet(sd))
	}
	return n
}

func (n *Neighbourhood) NumStreets() int { return len(n.streets) }

// Street returns the street at index for inspection, or nil when out of range. Mutations
// should go through the owning Player so its counters stay in step.
func (n *Neighbourhood) Street(index int) *Street {
	if index < 0 || index >= len(n.streets) {
		return nil
	}
	return n.streets[index]
}

func (n *Neighbourhood) street(no int, kind Kind) (*Street, error) {
	if no < 0 || no >= len(n.streets) {
		return nil, ruleErr(kind, fmt.Sprintf("street number %d is not valid", no))
	}
	return n.streets[no], nil
}

func (n *Neighbourhood) CheckHouse(streetNo, plot int, h House) error {
	s, err := n.street(streetNo, KindHousePlacement)
	if err != nil {
		return err
	}
	return s.CheckHouse(plot, h)
}

func (n *Neighbourhood) PlaceHouse(streetNo, plot int, h House) (House, error) {
	s, err := n.street(streetNo, KindHousePlacement)
	if err != nil {
		return House{}, err
	}
	return s.PlaceHouse(plot, h)
}

func (n *Neighbourhood) CheckFence(streetNo, index int) error {
	s, err := n.street(streetNo, KindFencePlacement)
	if err != nil {
		return err
	}
	return s.CheckFence(index)
}

func (n *Neighbourhood) PlaceFence(streetNo, index int) error {
	s, err := n.street(streetNo, KindFencePlacement)
	if err != nil {
		return err
	}
	return s.PlaceFence(index)
}

// AllEstates concatenates the complete estates of every street in street order.
func (n *Neighbourhood) AllEstates() []int {
	var out []int
	for _, s := range n.streets {
		out = append(out, s.CompleteEstates()...)
	}
	return out
}

func (n *Neighbourhood) ParkScore() int {
	total := 0
	for _, s := range n.streets {
		total += s.ParkScore()
	}
	return total
}

// Full reports whether every plot of every street is occupied.
func (n *Neighbourhood) Full() bool {
	for _, s := range n.streets {
		if !s.Full() {
			return false
		}
	}
	return true
}
