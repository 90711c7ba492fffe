package session

import (
	"fmt"

	"est8.games/internal/sim/defs"
)

type EntryKind string

const (
	EntryCreate EntryKind = "CREATE"
	EntryJoin   EntryKind = "JOIN"
	EntryStart  EntryKind = "START"
	EntryLeave  EntryKind = "LEAVE"
	EntryAct    EntryKind = "ACT"
	EntryEnd    EntryKind = "END"
)

// LogEntry is one line of a table's action log. Digest is the table digest after the entry
// was applied; rejected acts are recorded with their code and leave the digest unchanged.
type LogEntry struct {
	Seq     uint64    `json:"seq"`
	TableID string    `json:"table_id"`
	Kind    EntryKind `json:"kind"`

	PlayerID string `json:"player_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Act      *Act   `json:"act,omitempty"`
	Code     string `json:"code,omitempty"`

	// CREATE only.
	Seed       int64  `json:"seed,omitempty"`
	MaxPlayers int    `json:"max_players,omitempty"`
	GameDigest string `json:"game_digest,omitempty"`

	// END only.
	Scores []ScoreRecord `json:"scores,omitempty"`

	Round  int    `json:"round"`
	Digest string `json:"digest"`
}

type ScoreRecord struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

func scoreRecords(st []Standing) []ScoreRecord {
	out := make([]ScoreRecord, 0, len(st))
	for _, s := range st {
		out = append(out, ScoreRecord{PlayerID: s.PlayerID, Name: s.Name, Score: s.Score})
	}
	return out
}

// Replay rebuilds a table from its log, checking every recorded digest and result code.
func Replay(def *defs.GameDefinition, entries []LogEntry) (*Table, error) {
	if len(entries) == 0 || entries[0].Kind != EntryCreate {
		return nil, fmt.Errorf("log does not start with %s", EntryCreate)
	}
	c := entries[0]
	if got := def.Digest(); c.GameDigest != "" && got != c.GameDigest {
		return nil, fmt.Errorf("game definition digest mismatch: log=%s have=%s", c.GameDigest, got)
	}
	t := NewTable(def, TableConfig{ID: c.TableID, Seed: c.Seed, MaxPlayers: c.MaxPlayers})
	if err := checkDigest(t, c); err != nil {
		return nil, err
	}

	for _, e := range entries[1:] {
		switch e.Kind {
		case EntryJoin:
			s, err := t.Join(e.Name)
			if err != nil {
				return nil, fmt.Errorf("seq %d: join: %w", e.Seq, err)
			}
			if s.ID != e.PlayerID {
				return nil, fmt.Errorf("seq %d: join assigned %s, log has %s", e.Seq, s.ID, e.PlayerID)
			}
		case EntryStart:
			if err := t.Start(); err != nil {
				return nil, fmt.Errorf("seq %d: start: %w", e.Seq, err)
			}
		case EntryLeave:
			if err := t.Leave(e.PlayerID); err != nil {
				return nil, fmt.Errorf("seq %d: leave: %w", e.Seq, err)
			}
		case EntryAct:
			if e.Act == nil {
				return nil, fmt.Errorf("seq %d: act entry without act", e.Seq)
			}
			_, err := t.Apply(e.PlayerID, *e.Act)
			if code := Code(err); code != e.Code {
				return nil, fmt.Errorf("seq %d: %s returned %q, log has %q", e.Seq, e.Act, code, e.Code)
			}
		case EntryEnd:
			if err := checkScores(t, e); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("seq %d: unknown entry kind %q", e.Seq, e.Kind)
		}
		if err := checkDigest(t, e); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func checkDigest(t *Table, e LogEntry) error {
	if got := t.Digest(); got != e.Digest {
		return fmt.Errorf("seq %d: digest mismatch: log=%s replay=%s", e.Seq, e.Digest, got)
	}
	return nil
}

func checkScores(t *Table, e LogEntry) error {
	got := scoreRecords(t.Standings())
	if len(got) != len(e.Scores) {
		return fmt.Errorf("seq %d: %d scores, log has %d", e.Seq, len(got), len(e.Scores))
	}
	for i := range got {
		if got[i] != e.Scores[i] {
			return fmt.Errorf("seq %d: score %d is %+v, log has %+v", e.Seq, i, got[i], e.Scores[i])
		}
	}
	return nil
}
