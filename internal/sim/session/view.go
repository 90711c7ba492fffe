package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"est8.games/internal/protocol"
	"est8.games/internal/sim/defs"
	"est8.games/internal/sim/estate"
)

func cardObs(c defs.Card) protocol.CardObs {
	return protocol.CardObs{ID: c.ID, Number: c.Number, Action: c.Action.String()}
}

func streetObs(s *estate.Street) protocol.StreetObs {
	plots := make([]string, s.Len())
	for i := range plots {
		if h, ok := s.House(i); ok {
			plots[i] = h.String()
		}
	}
	return protocol.StreetObs{
		Plots:  plots,
		Fences: s.Fences(),
		Parks:  s.NumParks(),
		Render: s.String(),
	}
}

func playerObs(s *Seat) protocol.PlayerObs {
	hood := s.Player.Neighbourhood()
	streets := make([]protocol.StreetObs, 0, hood.NumStreets())
	for i := 0; i < hood.NumStreets(); i++ {
		streets = append(streets, streetObs(hood.Street(i)))
	}
	c := s.Player.Counters()
	obs := protocol.PlayerObs{
		ID:             s.ID,
		Name:           s.Name,
		Phase:          string(s.Phase),
		Left:           s.Left,
		Streets:        streets,
		Biss:           c.Biss,
		PermitRefusals: c.PermitRefusals,
		Pools:          c.Pools,
		Roundabouts:    c.Roundabouts,
		TempAgencies:   c.TempAgencies,
		Investments:    s.Player.Investments(),
	}
	if s.Pending != 0 {
		obs.Pending = s.Pending.String()
	}
	return obs
}

// digestView is the canonical state hashed by Digest. It leaves out rendering-only fields.
type digestView struct {
	Round   int             `json:"round"`
	Over    bool            `json:"over"`
	Pairs   []defs.CardPair `json:"pairs"`
	Players []digestPlayer  `json:"players"`
}

type digestPlayer struct {
	ID          string          `json:"id"`
	Phase       Phase           `json:"phase"`
	Pending     defs.Action     `json:"pending"`
	Left        bool            `json:"left"`
	Streets     []string        `json:"streets"`
	Parks       []int           `json:"parks"`
	Counters    estate.Counters `json:"counters"`
	Investments map[int]int     `json:"investments"`
}

// Digest is the sha256 of the table's canonical state. Two tables fed the same seed,
// definition and acts have equal digests.
func (t *Table) Digest() string {
	v := digestView{Round: t.round, Over: t.over, Pairs: t.pairs}
	for _, s := range t.seats {
		hood := s.Player.Neighbourhood()
		p := digestPlayer{
			ID:          s.ID,
			Phase:       s.Phase,
			Pending:     s.Pending,
			Left:        s.Left,
			Counters:    s.Player.Counters(),
			Investments: s.Player.Investments(),
		}
		for i := 0; i < hood.NumStreets(); i++ {
			st := hood.Street(i)
			p.Streets = append(p.Streets, st.String())
			p.Parks = append(p.Parks, st.NumParks())
		}
		v.Players = append(v.Players, p)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// State renders the full table for clients.
func (t *Table) State() protocol.StateMsg {
	msg := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		TableID:         t.cfg.ID,
		Round:           t.round,
		DeckPass:        t.drawer.Pass(),
		Started:         t.started,
		GameOver:        t.over,
		Digest:          t.Digest(),
		Pairs:           []protocol.PairObs{},
		Players:         make([]protocol.PlayerObs, 0, len(t.seats)),
	}
	for _, p := range t.pairs {
		msg.Pairs = append(msg.Pairs, protocol.PairObs{Number: cardObs(p.NumberCard), Action: cardObs(p.ActionCard)})
	}
	for _, p := range t.plans {
		msg.Plans = append(msg.Plans, p.Points)
	}
	for _, s := range t.seats {
		msg.Players = append(msg.Players, playerObs(s))
	}
	if t.over {
		for _, st := range t.Standings() {
			msg.Standings = append(msg.Standings, standingObs(st))
		}
	}
	return msg
}

func standingObs(st Standing) protocol.StandingObs {
	b := st.Breakdown
	return protocol.StandingObs{
		PlayerID: st.PlayerID,
		Name:     st.Name,
		Score:    st.Score,
		Breakdown: map[string]int{
			"bis":            b.Bis,
			"investments":    b.Investments,
			"pools":          b.Pools,
			"roundabouts":    b.Roundabouts,
			"temp_agencies":  b.TempAgencies,
			"permit_refusal": b.PermitRefusal,
			"parks":          b.Parks,
		},
	}
}
