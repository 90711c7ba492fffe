package estate

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"est8.games/internal/sim/defs"
)

func newTestPlayer() *Player {
	return NewPlayer(defs.Default())
}

func TestPlayer_RoundaboutQuota(t *testing.T) {
	p := newTestPlayer()
	if err := p.CheckHouse(0, 0, NewRoundabout()); err != nil {
		t.Fatalf("first roundabout: %v", err)
	}

	p.counters.Roundabouts = 5
	before := p.Neighbourhood().Street(0).String()
	_, err := p.PlaceHouse(0, 4, NewRoundabout())
	if !errors.Is(err, ErrRoundaboutPlacement) || !errors.Is(err, ErrHousePlacement) {
		t.Fatalf("expected roundabout error, got %v", err)
	}
	if after := p.Neighbourhood().Street(0).String(); after != before {
		t.Fatalf("street changed: %q -> %q", before, after)
	}
}

func TestPlayer_RoundaboutLimitFromDefinition(t *testing.T) {
	p := newTestPlayer()
	for i, plot := range []int{1, 5} {
		if _, err := p.PlaceHouse(0, plot, NewRoundabout()); err != nil {
			t.Fatalf("roundabout %d: %v", i, err)
		}
	}
	if _, err := p.PlaceHouse(1, 1, NewRoundabout()); !errors.Is(err, ErrRoundaboutPlacement) {
		t.Fatalf("third roundabout: %v", err)
	}
	if p.Counters().Roundabouts != 2 {
		t.Fatalf("Roundabouts=%d want=2", p.Counters().Roundabouts)
	}
}

func TestPlayer_CheckInvestment(t *testing.T) {
	p := newTestPlayer()
	for _, size := range []int{0, 100} {
		if err := p.CheckInvestment(size); !errors.Is(err, ErrInvestment) {
			t.Fatalf("size %d: %v", size, err)
		}
	}
	for _, size := range []int{1, 6} {
		if err := p.CheckInvestment(size); err != nil {
			t.Fatalf("size %d: %v", size, err)
		}
	}
	p.investments[6] = 4
	if err := p.CheckInvestment(6); !errors.Is(err, ErrInvestment) {
		t.Fatalf("fully invested: %v", err)
	}
	if err := p.CheckInvestment(10); !errors.Is(err, ErrInvestment) || !strings.Contains(err.Error(), "cannot invest") {
		t.Fatalf("size 10: %v", err)
	}
	if got := p.InvestmentSizes(); !reflect.DeepEqual(got, []int{1, 2, 3, 4, 5, 6}) {
		t.Fatalf("InvestmentSizes=%v", got)
	}
}

func TestPlayer_MakeInvestment(t *testing.T) {
	p := newTestPlayer()
	for i := 0; i < 2; i++ {
		if err := p.MakeInvestment(4); err != nil {
			t.Fatalf("MakeInvestment: %v", err)
		}
	}
	if err := p.MakeInvestment(1); err != nil {
		t.Fatalf("MakeInvestment: %v", err)
	}
	if p.InvestmentLevel(4) != 2 || p.InvestmentLevel(1) != 1 {
		t.Fatalf("investments=%v", p.Investments())
	}
	if err := p.MakeInvestment(1); !errors.Is(err, ErrInvestment) {
		t.Fatalf("over-investing: %v", err)
	}
	if p.InvestmentLevel(1) != 1 {
		t.Fatalf("failed investment changed level to %d", p.InvestmentLevel(1))
	}
}

func TestPlayer_PlaceHouseCounters(t *testing.T) {
	p := newTestPlayer()
	if _, err := p.PlaceHouse(0, 0, NewHouse(1)); err != nil {
		t.Fatalf("PlaceHouse: %v", err)
	}

	if _, err := p.PlaceHouse(0, 1, NewBis()); err != nil {
		t.Fatalf("bis: %v", err)
	}
	if p.Counters().Biss != 1 {
		t.Fatalf("Biss=%d want=1", p.Counters().Biss)
	}

	pool := NewHouse(5)
	pool.Pool = true
	if _, err := p.PlaceHouse(0, 2, pool); err != nil {
		t.Fatalf("pool: %v", err)
	}
	if p.Counters().Pools != 1 {
		t.Fatalf("Pools=%d want=1", p.Counters().Pools)
	}

	if _, err := p.PlaceHouse(0, 3, NewRoundabout()); err != nil {
		t.Fatalf("roundabout: %v", err)
	}
	if p.Counters().Roundabouts != 1 {
		t.Fatalf("Roundabouts=%d want=1", p.Counters().Roundabouts)
	}

	temps := NewHouse(3)
	temps.BuiltByTemps = true
	temps.Pool = true
	if _, err := p.PlaceHouse(0, 6, temps); err != nil {
		t.Fatalf("temps: %v", err)
	}
	c := p.Counters()
	if c.TempAgencies != 1 || c.Pools != 2 {
		t.Fatalf("counters=%+v", c)
	}
}

func TestPlayer_FailedPlacementKeepsCounters(t *testing.T) {
	p := newTestPlayer()
	if _, err := p.PlaceHouse(0, 0, NewBis()); err == nil {
		t.Fatalf("isolated bis accepted")
	}
	if p.Counters() != (Counters{}) {
		t.Fatalf("counters changed: %+v", p.Counters())
	}
}

func TestPlayer_RefusePermit(t *testing.T) {
	p := newTestPlayer()
	for i := 0; i < 2; i++ {
		p.RefusePermit()
		if p.OutOfPermits() {
			t.Fatalf("out of permits after %d refusals", i+1)
		}
	}
	p.RefusePermit()
	if !p.OutOfPermits() {
		t.Fatalf("expected out of permits after 3 refusals")
	}
	if got := p.ScoreBreakdown(nil).PermitRefusal; got != -5 {
		t.Fatalf("PermitRefusal=%d want=-5", got)
	}
}

func TestPlayer_Score(t *testing.T) {
	t.Run("new player scores zero", func(t *testing.T) {
		if got := newTestPlayer().Score(nil); got != 0 {
			t.Fatalf("Score=%d want=0", got)
		}
	})

	t.Run("every category", func(t *testing.T) {
		p := newTestPlayer()
		p.counters = Counters{Biss: 3, PermitRefusals: 2, Pools: 4, Roundabouts: 1, TempAgencies: 5}
		p.investments = map[int]int{1: 1, 6: 4}

		hood := p.Neighbourhood()
		hood.Street(0).numParks = 3
		hood.Street(1).numParks = 2
		hood.Street(2).numParks = 1

		// Estate of size 2 on street 1.
		for plot, n := range []int{1, 2} {
			if _, err := p.PlaceHouse(1, plot, NewHouse(n)); err != nil {
				t.Fatalf("PlaceHouse: %v", err)
			}
		}
		if err := p.PlaceFence(1, 2); err != nil {
			t.Fatalf("PlaceFence: %v", err)
		}
		// Estate of size 6 on street 0.
		for plot := 0; plot < 6; plot++ {
			if _, err := p.PlaceHouse(0, plot, NewHouse(plot)); err != nil {
				t.Fatalf("PlaceHouse: %v", err)
			}
		}
		if err := p.PlaceFence(0, 6); err != nil {
			t.Fatalf("PlaceFence: %v", err)
		}

		want := ScoreBreakdown{
			Bis:           -6,
			Investments:   2 + 12,
			Pools:         13,
			Roundabouts:   -3,
			TempAgencies:  7,
			PermitRefusal: -3,
			Parks:         10 + 4 + 2,
		}
		got := p.ScoreBreakdown([]int{3})
		if got != want {
			t.Fatalf("breakdown=%+v want=%+v", got, want)
		}
		if p.Score([]int{3}) != 38 {
			t.Fatalf("Score=%d want=38", p.Score([]int{3}))
		}
		if p.Score([]int{3}) != p.Score([]int{3}) {
			t.Fatalf("Score not stable")
		}
	})
}
