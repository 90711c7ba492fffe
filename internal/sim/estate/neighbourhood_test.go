package estate

import (
	"errors"
	"reflect"
	"testing"

	"est8.games/internal/sim/defs"
)

func TestNeighbourhood_RejectsMissingStreets(t *testing.T) {
	n := NewNeighbourhood(defs.DefaultNeighbourhood())
	for _, street := range []int{-1, 3, 100} {
		if _, err := n.PlaceHouse(street, 0, NewHouse(1)); !errors.Is(err, ErrHousePlacement) {
			t.Fatalf("PlaceHouse street %d: %v", street, err)
		}
		if err := n.PlaceFence(street, 1); !errors.Is(err, ErrFencePlacement) {
			t.Fatalf("PlaceFence street %d: %v", street, err)
		}
		if n.Street(street) != nil {
			t.Fatalf("Street(%d) should be nil", street)
		}
	}
}

func TestNeighbourhood_PropagatesStreetErrors(t *testing.T) {
	n := NewNeighbourhood(defs.DefaultNeighbourhood())
	if _, err := n.PlaceHouse(1, 0, NewBis()); !errors.Is(err, ErrBisPlacement) {
		t.Fatalf("expected bis error, got %v", err)
	}
}

func TestNeighbourhood_AllEstates(t *testing.T) {
	n := NewNeighbourhood(defs.DefaultNeighbourhood())
	for street := 0; street < 2; street++ {
		if _, err := n.PlaceHouse(street, 0, NewHouse(1)); err != nil {
			t.Fatalf("PlaceHouse: %v", err)
		}
		if err := n.PlaceFence(street, 1); err != nil {
			t.Fatalf("PlaceFence: %v", err)
		}
	}
	if got := n.AllEstates(); !reflect.DeepEqual(got, []int{1, 1}) {
		t.Fatalf("AllEstates=%v want=[1 1]", got)
	}
}

func TestNeighbourhood_Full(t *testing.T) {
	def := defs.NeighbourhoodDefinition{Streets: []defs.StreetDefinition{
		{NumHouses: 2, NumParks: 1, ParkScoring: []int{0, 1}},
	}}
	n := NewNeighbourhood(def)
	if n.Full() {
		t.Fatalf("empty neighbourhood reported full")
	}
	for plot := 0; plot < 2; plot++ {
		if _, err := n.PlaceHouse(0, plot, NewHouse(plot)); err != nil {
			t.Fatalf("PlaceHouse: %v", err)
		}
	}
	if !n.Full() {
		t.Fatalf("full neighbourhood not reported full")
	}
}
