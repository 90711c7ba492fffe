package defs

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed game.schema.json
var gameSchemaJSON string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func gameSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("game.schema.json", gameSchemaJSON)
	})
	return schema, schemaErr
}

// gameFile is the on-disk YAML layout of a GameDefinition.
type gameFile struct {
	CardsDrawnAtOnce int `yaml:"cards_drawn_at_once,omitempty"`
	DeckHoldBack     int `yaml:"deck_hold_back,omitempty"`

	Neighbourhood struct {
		Streets []streetFile `yaml:"streets"`
	} `yaml:"neighbourhood"`

	Scoring struct {
		Bis           []int        `yaml:"bis,flow"`
		PermitRefusal []int        `yaml:"permit_refusal,flow"`
		Pool          []int        `yaml:"pool,flow"`
		Roundabout    []int        `yaml:"roundabout,flow"`
		TempAgency    []int        `yaml:"temp_agency,flow"`
		Invest        []investFile `yaml:"invest"`
	} `yaml:"scoring"`

	Deck struct {
		Bis    []int `yaml:"bis,flow"`
		Fence  []int `yaml:"fence,flow"`
		Park   []int `yaml:"park,flow"`
		Invest []int `yaml:"invest,flow"`
		Pool   []int `yaml:"pool,flow"`
		Temp   []int `yaml:"temp,flow"`
	} `yaml:"deck"`

	Plans *struct {
		No1 [][2]int `yaml:"no_1,flow"`
		No2 [][2]int `yaml:"no_2,flow"`
		No3 [][2]int `yaml:"no_3,flow"`
	} `yaml:"plans,omitempty"`
}

type streetFile struct {
	NumHouses     int   `yaml:"num_houses"`
	PoolLocations []int `yaml:"pool_locations,flow"`
	NumParks      int   `yaml:"num_parks"`
	ParkScoring   []int `yaml:"park_scoring,flow"`
}

type investFile struct {
	EstateSize int   `yaml:"estate_size"`
	Values     []int `yaml:"values,flow"`
}

// Load reads, schema-checks and validates a game definition file.
func Load(path string) (*GameDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Parse decodes a YAML game definition.
func Parse(raw []byte) (*GameDefinition, error) {
	if err := checkSchema(raw); err != nil {
		return nil, err
	}
	var f gameFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	g := f.definition()
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func checkSchema(raw []byte) error {
	s, err := gameSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	// The schema validator expects JSON-decoded values.
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

func (f gameFile) definition() *GameDefinition {
	g := &GameDefinition{
		CardsDrawnAtOnce: f.CardsDrawnAtOnce,
		DeckHoldBack:     f.DeckHoldBack,
		Deck: DeckDefinition{
			BisNumbers:    f.Deck.Bis,
			FenceNumbers:  f.Deck.Fence,
			ParkNumbers:   f.Deck.Park,
			InvestNumbers: f.Deck.Invest,
			PoolNumbers:   f.Deck.Pool,
			TempNumbers:   f.Deck.Temp,
		},
		Scoring: ScoringDefinition{
			Bis:           f.Scoring.Bis,
			PermitRefusal: f.Scoring.PermitRefusal,
			Pool:          f.Scoring.Pool,
			Roundabout:    f.Scoring.Roundabout,
			TempAgency:    f.Scoring.TempAgency,
			Invest:        InvestDefinition{Values: make(map[int][]int, len(f.Scoring.Invest))},
		},
		PlanDeck: DefaultPlanDeck(),
	}
	if g.CardsDrawnAtOnce == 0 {
		g.CardsDrawnAtOnce = 3
	}
	for _, st := range f.Neighbourhood.Streets {
		g.Neighbourhood.Streets = append(g.Neighbourhood.Streets, StreetDefinition(st))
	}
	for _, inv := range f.Scoring.Invest {
		g.Scoring.Invest.Values[inv.EstateSize] = inv.Values
	}
	if f.Plans != nil {
		g.PlanDeck = PlanDeckDefinition{
			No1: plans(f.Plans.No1),
			No2: plans(f.Plans.No2),
			No3: plans(f.Plans.No3),
		}
	}
	return g
}

func plans(in [][2]int) []PlanDefinition {
	out := make([]PlanDefinition, 0, len(in))
	for _, p := range in {
		out = append(out, PlanDefinition{Points: p})
	}
	return out
}

// Marshal renders the definition in the YAML layout Load reads.
func Marshal(g *GameDefinition) ([]byte, error) {
	var f gameFile
	f.CardsDrawnAtOnce = g.CardsDrawnAtOnce
	f.DeckHoldBack = g.DeckHoldBack
	for _, st := range g.Neighbourhood.Streets {
		f.Neighbourhood.Streets = append(f.Neighbourhood.Streets, streetFile(st))
	}
	f.Scoring.Bis = g.Scoring.Bis
	f.Scoring.PermitRefusal = g.Scoring.PermitRefusal
	f.Scoring.Pool = g.Scoring.Pool
	f.Scoring.Roundabout = g.Scoring.Roundabout
	f.Scoring.TempAgency = g.Scoring.TempAgency
	for _, size := range g.Scoring.Invest.Sizes() {
		f.Scoring.Invest = append(f.Scoring.Invest, investFile{EstateSize: size, Values: g.Scoring.Invest.Values[size]})
	}
	f.Deck.Bis = g.Deck.BisNumbers
	f.Deck.Fence = g.Deck.FenceNumbers
	f.Deck.Park = g.Deck.ParkNumbers
	f.Deck.Invest = g.Deck.InvestNumbers
	f.Deck.Pool = g.Deck.PoolNumbers
	f.Deck.Temp = g.Deck.TempNumbers
	f.Plans = &struct {
		No1 [][2]int `yaml:"no_1,flow"`
		No2 [][2]int `yaml:"no_2,flow"`
		No3 [][2]int `yaml:"no_3,flow"`
	}{
		No1: points(g.PlanDeck.No1),
		No2: points(g.PlanDeck.No2),
		No3: points(g.PlanDeck.No3),
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func points(in []PlanDefinition) [][2]int {
	out := make([][2]int, 0, len(in))
	for _, p := range in {
		out = append(out, p.Points)
	}
	return out
}

// Digest identifies a definition by the sha256 of its canonical YAML rendering.
func (g *GameDefinition) Digest() string {
	b, err := Marshal(g)
	if err != nil {
		return ""
	}
	return sha256Hex(b)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
