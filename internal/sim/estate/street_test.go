package estate

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"est8.games/internal/sim/defs"
)

func newTestStreet() *Street {
	return NewStreet(defs.DefaultNeighbourhood().Streets[0])
}

// streetWithHouses fills plots [start, end) with houses numbered after their plot.
func streetWithHouses(t *testing.T, start, end int) *Street {
	t.Helper()
	s := newTestStreet()
	for n := start; n < end; n++ {
		if _, err := s.PlaceHouse(n, NewHouse(n)); err != nil {
			t.Fatalf("PlaceHouse(%d): %v", n, err)
		}
	}
	return s
}

// put stores h without any rule checks.
func put(s *Street, plot int, h House) {
	s.plots[plot] = &h
}

func number(t *testing.T, h *House) int {
	t.Helper()
	if h == nil {
		t.Fatalf("expected a house, got none")
	}
	n, ok := h.Number()
	if !ok {
		t.Fatalf("house %v has no number", *h)
	}
	return n
}

func TestNewStreet(t *testing.T) {
	def := defs.DefaultNeighbourhood().Streets[0]
	s := NewStreet(def)
	if s.Len() != def.NumHouses {
		t.Fatalf("Len=%d want=%d", s.Len(), def.NumHouses)
	}
	fences := s.Fences()
	if len(fences) != def.NumHouses+1 {
		t.Fatalf("fences=%d want=%d", len(fences), def.NumHouses+1)
	}
	if !fences[0] || !fences[len(fences)-1] {
		t.Fatalf("street ends must be fenced: %v", fences)
	}
	for i, f := range fences[1 : len(fences)-1] {
		if f {
			t.Fatalf("unexpected fence at %d", i+1)
		}
	}
}

func TestStreet_Neighbours(t *testing.T) {
	s := streetWithHouses(t, 0, 10)

	t.Run("middle", func(t *testing.T) {
		l, r := s.Neighbours(5)
		if number(t, l) != 4 || number(t, r) != 6 {
			t.Fatalf("neighbours of 5 = %v,%v", *l, *r)
		}
	})
	t.Run("start", func(t *testing.T) {
		l, r := s.Neighbours(0)
		if l != nil || number(t, r) != 1 {
			t.Fatalf("neighbours of 0 = %v,%v", l, r)
		}
	})
	t.Run("end", func(t *testing.T) {
		l, r := s.Neighbours(9)
		if number(t, l) != 8 || r != nil {
			t.Fatalf("neighbours of 9 = %v,%v", l, r)
		}
	})
	t.Run("off street", func(t *testing.T) {
		for _, plot := range []int{-100, 100} {
			if l, r := s.Neighbours(plot); l != nil || r != nil {
				t.Fatalf("neighbours of %d = %v,%v", plot, l, r)
			}
		}
	})
	t.Run("returns copies", func(t *testing.T) {
		l, _ := s.Neighbours(5)
		l.Pool = true
		if h, _ := s.House(4); h.Pool {
			t.Fatalf("mutating a neighbour changed the street")
		}
	})
}

func TestStreet_CheckFence(t *testing.T) {
	s := newTestStreet()
	if err := s.CheckFence(1); err != nil {
		t.Fatalf("CheckFence(1): %v", err)
	}
	for _, idx := range []int{0, 10, -1, 100} {
		err := s.CheckFence(idx)
		if !errors.Is(err, ErrFencePlacement) {
			t.Fatalf("CheckFence(%d)=%v want fence placement error", idx, err)
		}
	}
}

func TestStreet_PlaceFence(t *testing.T) {
	s := newTestStreet()
	if s.Fence(5) {
		t.Fatalf("fence 5 already built")
	}
	if err := s.PlaceFence(5); err != nil {
		t.Fatalf("PlaceFence: %v", err)
	}
	if !s.Fence(5) {
		t.Fatalf("fence 5 not built")
	}
	if err := s.PlaceFence(5); !errors.Is(err, ErrFencePlacement) {
		t.Fatalf("second PlaceFence=%v", err)
	}
}

func TestStreet_PossibleBisNumbers(t *testing.T) {
	s := newTestStreet()

	if l, r := s.PossibleBisNumbers(5); l != nil || r != nil {
		t.Fatalf("no neighbours: got %v,%v", l, r)
	}

	put(s, 4, NewHouse(4))
	if l, r := s.PossibleBisNumbers(5); l == nil || *l != 4 || r != nil {
		t.Fatalf("left neighbour: got %v,%v", l, r)
	}
	if l, r := s.PossibleBisNumbers(3); l != nil || r == nil || *r != 4 {
		t.Fatalf("right neighbour: got %v,%v", l, r)
	}

	put(s, 6, NewHouse(6))
	if l, r := s.PossibleBisNumbers(5); l == nil || *l != 4 || r == nil || *r != 6 {
		t.Fatalf("two neighbours: got %v,%v", l, r)
	}

	if err := s.PlaceFence(5); err != nil {
		t.Fatalf("PlaceFence: %v", err)
	}
	if l, r := s.PossibleBisNumbers(5); l != nil || r == nil || *r != 6 {
		t.Fatalf("left fenced off: got %v,%v", l, r)
	}

	if err := s.PlaceFence(6); err != nil {
		t.Fatalf("PlaceFence: %v", err)
	}
	if l, r := s.PossibleBisNumbers(5); l != nil || r != nil {
		t.Fatalf("both fenced off: got %v,%v", l, r)
	}
}

func TestStreet_CheckHouse(t *testing.T) {
	s := newTestStreet()

	for _, plot := range []int{-1, 100} {
		if err := s.CheckHouse(plot, NewHouse(1)); !errors.Is(err, ErrHousePlacement) {
			t.Fatalf("off street plot %d: %v", plot, err)
		}
	}

	put(s, 2, NewHouse(2))
	// | | |2| | | | | | | |

	if err := s.CheckHouse(2, NewHouse(3)); !errors.Is(err, ErrHousePlacement) {
		t.Fatalf("occupied plot: %v", err)
	}
	if err := s.CheckHouse(6, NewBis()); !errors.Is(err, ErrBisPlacement) {
		t.Fatalf("isolated bis: %v", err)
	}
	if err := s.CheckHouse(1, NewHouse(12)); !errors.Is(err, ErrHousePlacement) {
		t.Fatalf("higher number left of lower: %v", err)
	}
	if err := s.CheckHouse(6, NewHouse(2)); !errors.Is(err, ErrHousePlacement) {
		t.Fatalf("equal number right of house: %v", err)
	}
	if err := s.CheckHouse(6, House{}); !errors.Is(err, ErrHousePlacement) {
		t.Fatalf("unnumbered plain house: %v", err)
	}

	put(s, 5, NewRoundabout())
	put(s, 8, NewHouse(8))
	// | | |2| | |R| | |8| |

	t.Run("roundabout resets numbering", func(t *testing.T) {
		if err := s.CheckHouse(6, NewHouse(2)); err != nil {
			t.Fatalf("lower number after roundabout: %v", err)
		}
		if err := s.CheckHouse(4, NewHouse(12)); err != nil {
			t.Fatalf("higher number before roundabout: %v", err)
		}
	})
	t.Run("ordering holds within a run", func(t *testing.T) {
		cases := []struct {
			plot, n int
		}{
			{6, 12}, // | | |2| | |R|12| |8| |
			{1, 12}, // | |12|2| | |R| | |8| |
			{4, 1},  // | | |2| |1|R| | |8| |
			{9, 1},  // | | |2| | |R| | |8|1|
		}
		for _, tc := range cases {
			if err := s.CheckHouse(tc.plot, NewHouse(tc.n)); !errors.Is(err, ErrHousePlacement) {
				t.Fatalf("house %d at %d: %v", tc.n, tc.plot, err)
			}
		}
	})
	t.Run("zero after a roundabout", func(t *testing.T) {
		if err := s.CheckHouse(6, NewHouse(0)); !errors.Is(err, ErrHousePlacement) {
			t.Fatalf("house 0 after roundabout: %v", err)
		}
		if err := s.CheckHouse(0, NewHouse(0)); err != nil {
			t.Fatalf("house 0 at street start: %v", err)
		}
	})
}

func TestStreet_LargeNumbersAreUnbounded(t *testing.T) {
	s := newTestStreet()
	if _, err := s.PlaceHouse(0, NewHouse(150000)); err != nil {
		t.Fatalf("PlaceHouse: %v", err)
	}
	if _, err := s.PlaceHouse(1, NewHouse(200000)); err != nil {
		t.Fatalf("PlaceHouse: %v", err)
	}
	if err := s.CheckHouse(2, NewHouse(200000)); err == nil {
		t.Fatalf("expected equal number to be rejected")
	}
}

func TestStreet_PlaceHouse(t *testing.T) {
	s := newTestStreet()
	for _, plot := range []int{4, 8} {
		if _, err := s.PlaceHouse(plot, NewHouse(plot)); err != nil {
			t.Fatalf("PlaceHouse(%d): %v", plot, err)
		}
	}

	t.Run("bis copies left neighbour", func(t *testing.T) {
		placed, err := s.PlaceHouse(5, NewBis())
		if err != nil {
			t.Fatalf("PlaceHouse: %v", err)
		}
		if n, _ := placed.Number(); n != 4 {
			t.Fatalf("returned bis number=%d want=4", n)
		}
		stored, _ := s.House(5)
		if n, _ := stored.Number(); n != 4 {
			t.Fatalf("stored bis number=%d want=4", n)
		}
	})
	t.Run("bis copies right neighbour", func(t *testing.T) {
		placed, err := s.PlaceHouse(7, NewBis())
		if err != nil {
			t.Fatalf("PlaceHouse: %v", err)
		}
		if n, _ := placed.Number(); n != 8 {
			t.Fatalf("bis number=%d want=8", n)
		}
	})
	t.Run("bis prefers left when both qualify", func(t *testing.T) {
		s := newTestStreet()
		put(s, 1, NewHouse(3))
		put(s, 3, NewHouse(5))
		placed, err := s.PlaceHouse(2, NewBis())
		if err != nil {
			t.Fatalf("PlaceHouse: %v", err)
		}
		if n, _ := placed.Number(); n != 3 {
			t.Fatalf("bis number=%d want=3", n)
		}
	})
	t.Run("roundabout fences both sides", func(t *testing.T) {
		if _, err := s.PlaceHouse(6, NewRoundabout()); err != nil {
			t.Fatalf("PlaceHouse: %v", err)
		}
		if !s.Fence(6) || !s.Fence(7) {
			t.Fatalf("fences=%v", s.Fences())
		}
	})
	t.Run("roundabout keeps existing fences", func(t *testing.T) {
		s := newTestStreet()
		if err := s.PlaceFence(3); err != nil {
			t.Fatalf("PlaceFence: %v", err)
		}
		if _, err := s.PlaceHouse(3, NewRoundabout()); err != nil {
			t.Fatalf("PlaceHouse: %v", err)
		}
		if !s.Fence(3) || !s.Fence(4) {
			t.Fatalf("fences=%v", s.Fences())
		}
	})
	t.Run("parks are counted", func(t *testing.T) {
		h := NewHouse(1)
		h.Park = true
		if _, err := s.PlaceHouse(1, h); err != nil {
			t.Fatalf("PlaceHouse: %v", err)
		}
		if s.NumParks() != 1 {
			t.Fatalf("NumParks=%d want=1", s.NumParks())
		}
	})
}

func TestStreet_ParksCapAtTable(t *testing.T) {
	s := newTestStreet()
	for plot := 0; plot < 6; plot++ {
		h := NewHouse(plot)
		h.Park = true
		if _, err := s.PlaceHouse(plot, h); err != nil {
			t.Fatalf("PlaceHouse(%d): %v", plot, err)
		}
	}
	if s.NumParks() != 3 {
		t.Fatalf("NumParks=%d want=3", s.NumParks())
	}
	if s.ParkScore() != 10 {
		t.Fatalf("ParkScore=%d want=10", s.ParkScore())
	}
}

func TestStreet_String(t *testing.T) {
	s := newTestStreet()
	steps := []struct {
		name string
		do   func() error
		want string
	}{
		{"empty", func() error { return nil }, "| . . . . . . . . . |"},
		{"one house", func() error { _, err := s.PlaceHouse(4, NewHouse(12)); return err }, "| . . . .12. . . . . |"},
		{"one fence", func() error { return s.PlaceFence(4) }, "| . . . |12. . . . . |"},
		{"two fences", func() error { return s.PlaceFence(5) }, "| . . . |12| . . . . |"},
		{"pool", func() error {
			h := NewHouse(13)
			h.Pool = true
			_, err := s.PlaceHouse(6, h)
			return err
		}, "| . . . |12| .13P. . . |"},
		{"bis", func() error { _, err := s.PlaceHouse(5, NewBis()); return err }, "| . . . |12|13B.13P. . . |"},
		{"roundabout", func() error { _, err := s.PlaceHouse(3, NewRoundabout()); return err }, "| . . |R|12|13B.13P. . . |"},
	}
	for _, step := range steps {
		if err := step.do(); err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		if got := s.String(); got != step.want {
			t.Fatalf("%s: got %q want %q", step.name, got, step.want)
		}
	}
}

func TestStreet_CompleteEstates(t *testing.T) {
	t.Run("empty street", func(t *testing.T) {
		if got := newTestStreet().CompleteEstates(); len(got) != 0 {
			t.Fatalf("got %v", got)
		}
	})
	t.Run("full street", func(t *testing.T) {
		if got := streetWithHouses(t, 0, 10).CompleteEstates(); !reflect.DeepEqual(got, []int{10}) {
			t.Fatalf("got %v", got)
		}
	})
	t.Run("missing first house", func(t *testing.T) {
		if got := streetWithHouses(t, 1, 10).CompleteEstates(); len(got) != 0 {
			t.Fatalf("got %v", got)
		}
	})
	t.Run("missing middle house", func(t *testing.T) {
		s := streetWithHouses(t, 0, 10)
		s.plots[5] = nil
		if got := s.CompleteEstates(); len(got) != 0 {
			t.Fatalf("got %v", got)
		}
	})
	t.Run("missing last house", func(t *testing.T) {
		if got := streetWithHouses(t, 0, 9).CompleteEstates(); len(got) != 0 {
			t.Fatalf("got %v", got)
		}
	})
	t.Run("size one beside incomplete estate", func(t *testing.T) {
		s := streetWithHouses(t, 0, 10)
		s.plots[5] = nil
		s.fences[1] = true
		if got := s.CompleteEstates(); !reflect.DeepEqual(got, []int{1}) {
			t.Fatalf("got %v", got)
		}
	})
	t.Run("split by one fence", func(t *testing.T) {
		for _, p := range []int{1, 5} {
			s := streetWithHouses(t, 0, 10)
			if err := s.PlaceFence(p); err != nil {
				t.Fatalf("PlaceFence: %v", err)
			}
			if got := s.CompleteEstates(); !reflect.DeepEqual(got, []int{p, 10 - p}) {
				t.Fatalf("fence %d: got %v", p, got)
			}
		}
	})
	t.Run("roundabouts are not estates", func(t *testing.T) {
		s := streetWithHouses(t, 0, 10)
		s.plots[5] = nil
		if _, err := s.PlaceHouse(5, NewRoundabout()); err != nil {
			t.Fatalf("PlaceHouse: %v", err)
		}
		if got := s.CompleteEstates(); !reflect.DeepEqual(got, []int{5, 4}) {
			t.Fatalf("got %v", got)
		}
	})
}

func TestStreet_FailedPlacementLeavesStateUnchanged(t *testing.T) {
	s := streetWithHouses(t, 2, 5)
	before := s.String()
	parks := s.NumParks()

	attempts := []House{NewHouse(1), NewBis(), NewRoundabout(), {Park: true, Pool: true}}
	for _, h := range attempts {
		h.Park = true
		if _, err := s.PlaceHouse(3, h); err == nil {
			t.Fatalf("placing %v on occupied plot succeeded", h)
		}
	}
	if _, err := s.PlaceHouse(8, NewHouse(3)); err == nil {
		t.Fatalf("out of order house accepted")
	}
	if err := s.PlaceFence(0); err == nil {
		t.Fatalf("duplicate end fence accepted")
	}
	if s.String() != before || s.NumParks() != parks {
		t.Fatalf("state changed: %q -> %q", before, s.String())
	}
}

func TestStreet_RandomPlacementsKeepOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		s := NewStreet(defs.DefaultNeighbourhood().Streets[2])
		for i := 0; i < 40; i++ {
			plot := rng.Intn(s.Len()+2) - 1
			h := NewHouse(rng.Intn(18))
			if rng.Intn(5) == 0 {
				h = NewBis()
			}
			_, _ = s.PlaceHouse(plot, h)
			if rng.Intn(4) == 0 {
				_ = s.PlaceFence(rng.Intn(s.Len() + 1))
			}
		}

		fences := s.Fences()
		if !fences[0] || !fences[len(fences)-1] {
			t.Fatalf("round %d: end fences lost: %v", round, fences)
		}
		last := -1
		for plot := 0; plot < s.Len(); plot++ {
			h, ok := s.House(plot)
			if !ok || h.Bis {
				continue
			}
			n, _ := h.Number()
			if n <= last {
				t.Fatalf("round %d: numbers not increasing at plot %d: %s", round, plot, s)
			}
			last = n
		}
	}
}

func TestStreet_QueriesAreIdempotent(t *testing.T) {
	s := streetWithHouses(t, 0, 6)
	if err := s.PlaceFence(3); err != nil {
		t.Fatalf("PlaceFence: %v", err)
	}
	for _, plot := range []int{0, 3, 6, 12} {
		l1, r1 := s.Neighbours(plot)
		l2, r2 := s.Neighbours(plot)
		if !reflect.DeepEqual(l1, l2) || !reflect.DeepEqual(r1, r2) {
			t.Fatalf("Neighbours(%d) changed between calls", plot)
		}
	}
	if a, b := s.CompleteEstates(), s.CompleteEstates(); !reflect.DeepEqual(a, b) {
		t.Fatalf("CompleteEstates changed: %v vs %v", a, b)
	}
}
