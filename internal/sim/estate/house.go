package estate

import "strconv"

// House is whatever occupies a plot: a numbered house, a bis or a roundabout.
//
// Houses are values. A street keeps its own copy once placed, so a caller never holds a
// reference to a placed house. A bis is built without a number; the street resolves it from
// a neighbour and returns the finalized copy.
type House struct {
	number    int
	hasNumber bool

	Bis          bool
	Pool         bool
	Park         bool
	Roundabout   bool
	BuiltByTemps bool
}

func NewHouse(number int) House {
	return House{number: number, hasNumber: true}
}

func NewBis() House {
	return House{Bis: true}
}

func NewRoundabout() House {
	return House{Roundabout: true}
}

// Number returns the house number; ok is false for roundabouts and unplaced bis houses.
func (h House) Number() (n int, ok bool) {
	return h.number, h.hasNumber
}

func (h House) withNumber(n int) House {
	h.number = n
	h.hasNumber = true
	return h
}

// String renders the short code used in street dumps.
func (h House) String() string {
	switch {
	case h.Roundabout:
		return "R"
	case h.Bis:
		if !h.hasNumber {
			return "B"
		}
		return strconv.Itoa(h.number) + "B"
	case !h.hasNumber:
		return " "
	case h.Pool:
		return strconv.Itoa(h.number) + "P"
	}
	return strconv.Itoa(h.number)
}
