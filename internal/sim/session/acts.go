package session

import (
	"fmt"

	"est8.games/internal/protocol"
	"est8.games/internal/sim/defs"
	"est8.games/internal/sim/estate"
)

type ActKind string

const (
	ActBuild      ActKind = "BUILD"
	ActFence      ActKind = "FENCE"
	ActInvest     ActKind = "INVEST"
	ActBis        ActKind = "BIS"
	ActRoundabout ActKind = "ROUNDABOUT"
	ActSkip       ActKind = "SKIP"
	ActRefuse     ActKind = "REFUSE"
)

// Act is one player decision. Only the fields relevant to Kind are read.
type Act struct {
	Kind   ActKind `json:"kind"`
	Choice int     `json:"choice,omitempty"`
	Street int     `json:"street,omitempty"`
	Plot   int     `json:"plot,omitempty"`
	Index  int     `json:"index,omitempty"`
	Estate int     `json:"estate,omitempty"`
}

func (a Act) String() string {
	switch a.Kind {
	case ActBuild:
		return fmt.Sprintf("BUILD choice=%d street=%d plot=%d", a.Choice, a.Street, a.Plot)
	case ActFence:
		return fmt.Sprintf("FENCE street=%d index=%d", a.Street, a.Index)
	case ActInvest:
		return fmt.Sprintf("INVEST estate=%d", a.Estate)
	case ActBis, ActRoundabout:
		return fmt.Sprintf("%s street=%d plot=%d", a.Kind, a.Street, a.Plot)
	}
	return string(a.Kind)
}

// ActFromMsg converts a wire ACT.
func ActFromMsg(m protocol.ActMsg) (Act, error) {
	a := Act{
		Kind:   ActKind(m.Kind),
		Choice: m.Choice,
		Street: m.Street,
		Plot:   m.Plot,
		Index:  m.Index,
		Estate: m.Estate,
	}
	switch a.Kind {
	case ActBuild, ActFence, ActInvest, ActBis, ActRoundabout, ActSkip, ActRefuse:
		return a, nil
	}
	return Act{}, fmt.Errorf("%w: unknown act kind %q", ErrBadRequest, m.Kind)
}

func (a Act) Msg(seq uint64) protocol.ActMsg {
	return protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		Seq:             seq,
		Kind:            string(a.Kind),
		Choice:          a.Choice,
		Street:          a.Street,
		Plot:            a.Plot,
		Index:           a.Index,
		Estate:          a.Estate,
	}
}

// effect describes what an action card does to the house built with it.
type effect struct {
	// decorate sets house flags. poolOK reports whether the target plot has a pool slot.
	decorate func(h *estate.House, poolOK bool)
	// followUp is true when the action grants a second act (fence, invest or bis).
	followUp bool
}

var actionEffects = map[defs.Action]effect{
	defs.ActionBis:    {decorate: func(*estate.House, bool) {}, followUp: true},
	defs.ActionFence:  {decorate: func(*estate.House, bool) {}, followUp: true},
	defs.ActionInvest: {decorate: func(*estate.House, bool) {}, followUp: true},
	defs.ActionPark:   {decorate: func(h *estate.House, _ bool) { h.Park = true }},
	defs.ActionPool:   {decorate: func(h *estate.House, poolOK bool) { h.Pool = poolOK }},
	defs.ActionTemp:   {decorate: func(h *estate.House, _ bool) { h.BuiltByTemps = true }},
}

// houseFor builds the house a BUILD act places from the chosen pair.
func houseFor(def *defs.GameDefinition, pair defs.CardPair, street, plot int) (estate.House, effect, error) {
	eff, ok := actionEffects[pair.ActionCard.Action]
	if !ok {
		return estate.House{}, effect{}, fmt.Errorf("no effect for action %s", pair.ActionCard.Action)
	}
	h := estate.NewHouse(pair.NumberCard.Number)
	eff.decorate(&h, def.CanHavePoolAt(street, plot))
	return h, eff, nil
}
