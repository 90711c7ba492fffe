// Package session runs a multi-player est8 table: it deals card pairs each round, turns
// player acts into estate mutations and decides when the game ends.
package session

import (
	"fmt"
	"math/rand"
	"sort"

	"est8.games/internal/sim/deck"
	"est8.games/internal/sim/defs"
	"est8.games/internal/sim/estate"
)

type Phase string

const (
	PhaseBuild  Phase = "awaiting_build"
	PhaseEffect Phase = "awaiting_effect"
	PhaseDone   Phase = "done"
)

type TableConfig struct {
	ID         string
	Seed       int64
	MaxPlayers int
}

// Seat is one player at the table.
type Seat struct {
	ID     string
	Name   string
	Player *estate.Player
	Phase  Phase
	// Pending is the action card whose follow-up act the seat still owes.
	Pending defs.Action
	Left    bool
}

// Table is not safe for concurrent use; the Hub owns it from a single goroutine.
type Table struct {
	cfg    TableConfig
	def    *defs.GameDefinition
	drawer *deck.PairDrawer
	plans  [3]defs.PlanDefinition

	seats   []*Seat
	byID    map[string]*Seat
	nextNum int

	started bool
	over    bool
	round   int
	pairs   []defs.CardPair
}

func NewTable(def *defs.GameDefinition, cfg TableConfig) *Table {
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = 5
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	t := &Table{
		cfg:  cfg,
		def:  def,
		byID: map[string]*Seat{},
	}
	t.plans = def.PlanDeck.Pick3(rng)
	t.drawer = deck.NewPairDrawer(def, rng)
	return t
}

func (t *Table) ID() string                       { return t.cfg.ID }
func (t *Table) Seed() int64                      { return t.cfg.Seed }
func (t *Table) Definition() *defs.GameDefinition { return t.def }
func (t *Table) Started() bool                    { return t.started }
func (t *Table) Over() bool                       { return t.over }
func (t *Table) Round() int                       { return t.round }
func (t *Table) Plans() [3]defs.PlanDefinition    { return t.plans }

// Pairs returns the card pairs on offer this round.
func (t *Table) Pairs() []defs.CardPair {
	return append([]defs.CardPair(nil), t.pairs...)
}

func (t *Table) Seats() []*Seat { return t.seats }

func (t *Table) Seat(id string) (*Seat, bool) {
	s, ok := t.byID[id]
	return s, ok
}

// Join seats a new player. Seats can only be taken before the first round.
func (t *Table) Join(name string) (*Seat, error) {
	if t.started {
		return nil, fmt.Errorf("%w: game already started", ErrWrongPhase)
	}
	if len(t.seats) >= t.cfg.MaxPlayers {
		return nil, ErrTableFull
	}
	if name == "" {
		name = "player"
	}
	t.nextNum++
	s := &Seat{
		ID:     fmt.Sprintf("P%d", t.nextNum),
		Name:   name,
		Player: estate.NewPlayer(t.def),
		Phase:  PhaseDone,
	}
	t.seats = append(t.seats, s)
	t.byID[s.ID] = s
	return s, nil
}

// Leave marks a seat as gone. Its board still scores but it no longer holds up rounds.
func (t *Table) Leave(id string) error {
	s, ok := t.byID[id]
	if !ok {
		return ErrNotFound
	}
	s.Left = true
	s.Phase = PhaseDone
	s.Pending = 0
	if t.started && !t.over {
		t.maybeAdvance()
	}
	return nil
}

// Start deals the first round.
func (t *Table) Start() error {
	if t.started {
		return fmt.Errorf("%w: already started", ErrWrongPhase)
	}
	if len(t.seats) == 0 {
		return fmt.Errorf("%w: no players", ErrBadRequest)
	}
	t.started = true
	t.nextRound()
	return nil
}

func (t *Table) nextRound() {
	t.round++
	t.pairs = t.drawer.Next()
	for _, s := range t.seats {
		s.Pending = 0
		if s.Left {
			s.Phase = PhaseDone
			continue
		}
		s.Phase = PhaseBuild
	}
}

// Outcome reports what an accepted act did.
type Outcome struct {
	// Placed is the house as stored, set for BUILD, BIS and ROUNDABOUT.
	Placed       *estate.House
	RoundStarted bool
	GameOver     bool
}

// Apply performs one act for the seat. A rejected act leaves the table untouched so the
// player can try again.
func (t *Table) Apply(id string, a Act) (Outcome, error) {
	s, ok := t.byID[id]
	if !ok || s.Left {
		return Outcome{}, ErrNotFound
	}
	if t.over {
		return Outcome{}, ErrGameOver
	}
	if !t.started {
		return Outcome{}, fmt.Errorf("%w: game not started", ErrWrongPhase)
	}

	var out Outcome
	switch a.Kind {
	case ActBuild:
		if s.Phase != PhaseBuild {
			return Outcome{}, wrongPhase(s, a)
		}
		if a.Choice < 0 || a.Choice >= len(t.pairs) {
			return Outcome{}, fmt.Errorf("%w: choice %d out of range", ErrBadRequest, a.Choice)
		}
		pair := t.pairs[a.Choice]
		h, eff, err := houseFor(t.def, pair, a.Street, a.Plot)
		if err != nil {
			return Outcome{}, err
		}
		placed, err := s.Player.PlaceHouse(a.Street, a.Plot, h)
		if err != nil {
			return Outcome{}, err
		}
		out.Placed = &placed
		if eff.followUp {
			s.Phase = PhaseEffect
			s.Pending = pair.ActionCard.Action
		} else {
			s.Phase = PhaseDone
		}

	case ActFence:
		if err := t.expectEffect(s, a, defs.ActionFence); err != nil {
			return Outcome{}, err
		}
		if err := s.Player.PlaceFence(a.Street, a.Index); err != nil {
			return Outcome{}, err
		}
		t.finishEffect(s)

	case ActInvest:
		if err := t.expectEffect(s, a, defs.ActionInvest); err != nil {
			return Outcome{}, err
		}
		if err := s.Player.MakeInvestment(a.Estate); err != nil {
			return Outcome{}, err
		}
		t.finishEffect(s)

	case ActBis:
		if err := t.expectEffect(s, a, defs.ActionBis); err != nil {
			return Outcome{}, err
		}
		placed, err := s.Player.PlaceHouse(a.Street, a.Plot, estate.NewBis())
		if err != nil {
			return Outcome{}, err
		}
		out.Placed = &placed
		t.finishEffect(s)

	case ActSkip:
		if s.Phase != PhaseEffect {
			return Outcome{}, wrongPhase(s, a)
		}
		t.finishEffect(s)

	case ActRefuse:
		if s.Phase != PhaseBuild {
			return Outcome{}, wrongPhase(s, a)
		}
		s.Player.RefusePermit()
		s.Phase = PhaseDone

	case ActRoundabout:
		if s.Phase == PhaseDone {
			return Outcome{}, wrongPhase(s, a)
		}
		placed, err := s.Player.PlaceHouse(a.Street, a.Plot, estate.NewRoundabout())
		if err != nil {
			return Outcome{}, err
		}
		out.Placed = &placed

	default:
		return Outcome{}, fmt.Errorf("%w: unknown act kind %q", ErrBadRequest, a.Kind)
	}

	round := t.round
	t.maybeAdvance()
	out.RoundStarted = t.round != round
	out.GameOver = t.over
	return out, nil
}

func wrongPhase(s *Seat, a Act) error {
	return fmt.Errorf("%w: %s while %s", ErrWrongPhase, a.Kind, s.Phase)
}

func (t *Table) expectEffect(s *Seat, a Act, want defs.Action) error {
	if s.Phase != PhaseEffect || s.Pending != want {
		return wrongPhase(s, a)
	}
	return nil
}

func (t *Table) finishEffect(s *Seat) {
	s.Phase = PhaseDone
	s.Pending = 0
}

// maybeAdvance closes the round once every seat is done, ending the game or dealing the next
// round.
func (t *Table) maybeAdvance() {
	for _, s := range t.seats {
		if s.Phase != PhaseDone {
			return
		}
	}
	if t.gameEnded() {
		t.over = true
		t.pairs = nil
		return
	}
	t.nextRound()
}

// gameEnded reports whether any player has used up their permits or built every plot, or
// everyone has left.
func (t *Table) gameEnded() bool {
	present := 0
	for _, s := range t.seats {
		if s.Player.OutOfPermits() || s.Player.Neighbourhood().Full() {
			return true
		}
		if !s.Left {
			present++
		}
	}
	return present == 0
}

// Standing is one row of the score table.
type Standing struct {
	PlayerID  string
	Name      string
	Score     int
	Breakdown estate.ScoreBreakdown
}

// Standings scores every seat against the other seats' temp agency counts, best first.
// Ties keep seat order.
func (t *Table) Standings() []Standing {
	out := make([]Standing, 0, len(t.seats))
	for i, s := range t.seats {
		peers := make([]int, 0, len(t.seats)-1)
		for j, o := range t.seats {
			if j != i {
				peers = append(peers, o.Player.Counters().TempAgencies)
			}
		}
		b := s.Player.ScoreBreakdown(peers)
		out = append(out, Standing{PlayerID: s.ID, Name: s.Name, Score: b.Total(), Breakdown: b})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
