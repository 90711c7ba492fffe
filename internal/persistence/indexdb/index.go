// Package indexdb keeps a queryable SQL read model of tables, acts and final scores.
// The zstd act logs stay the source of truth; rows are dropped when the writer falls behind.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"est8.games/internal/sim/session"
)

type Stats struct {
	QueueDepth    int
	QueueCapacity int

	DropTableTotal uint64
	DropEntryTotal uint64
	DropScoreTotal uint64
}

type ScoreRow struct {
	TableID   string
	PlayerID  string
	Name      string
	Rank      int
	Score     int
	Breakdown string
}

type reqKind int

const (
	reqTable reqKind = iota + 1
	reqEntry
	reqScores
)

type req struct {
	kind reqKind

	table   session.TableRecord
	entry   session.LogEntry
	tableID string
	scores  []session.Standing
}

// placeholder rewrites '?' markers for drivers that number their parameters.
type placeholder func(q string) string

func questionMarks(q string) string { return q }

func dollarNumbers(q string) string {
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLIndex implements session.Index over database/sql with a single writer goroutine.
type SQLIndex struct {
	db     *sql.DB
	bind   placeholder
	logger *log.Logger

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTable atomic.Uint64
	dropEntry atomic.Uint64
	dropScore atomic.Uint64
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS games (
		table_id TEXT PRIMARY KEY,
		seed BIGINT NOT NULL,
		game_digest TEXT NOT NULL,
		max_players INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS acts (
		table_id TEXT NOT NULL,
		seq BIGINT NOT NULL,
		kind TEXT NOT NULL,
		player_id TEXT NOT NULL,
		act_kind TEXT NOT NULL,
		act_json TEXT NOT NULL,
		code TEXT NOT NULL,
		round INTEGER NOT NULL,
		digest TEXT NOT NULL,
		PRIMARY KEY (table_id, seq)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_acts_player ON acts(player_id, table_id);`,
	`CREATE TABLE IF NOT EXISTS scores (
		table_id TEXT NOT NULL,
		player_id TEXT NOT NULL,
		name TEXT NOT NULL,
		rank INTEGER NOT NULL,
		score INTEGER NOT NULL,
		breakdown_json TEXT NOT NULL,
		PRIMARY KEY (table_id, player_id)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_scores_score ON scores(score);`,
}

const (
	upsertGame = `INSERT INTO games(table_id,seed,game_digest,max_players,created_at) VALUES(?,?,?,?,?)
		ON CONFLICT (table_id) DO UPDATE SET seed=excluded.seed, game_digest=excluded.game_digest, max_players=excluded.max_players`
	upsertAct = `INSERT INTO acts(table_id,seq,kind,player_id,act_kind,act_json,code,round,digest) VALUES(?,?,?,?,?,?,?,?,?)
		ON CONFLICT (table_id, seq) DO UPDATE SET kind=excluded.kind, player_id=excluded.player_id, act_kind=excluded.act_kind,
		act_json=excluded.act_json, code=excluded.code, round=excluded.round, digest=excluded.digest`
	upsertScore = `INSERT INTO scores(table_id,player_id,name,rank,score,breakdown_json) VALUES(?,?,?,?,?,?)
		ON CONFLICT (table_id, player_id) DO UPDATE SET name=excluded.name, rank=excluded.rank, score=excluded.score,
		breakdown_json=excluded.breakdown_json`
)

func initSchema(db *sql.DB) error {
	for _, s := range schema {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func newSQLIndex(db *sql.DB, bind placeholder, queue int, logger *log.Logger) *SQLIndex {
	s := &SQLIndex{
		db:     db,
		bind:   bind,
		logger: logger,
		ch:     make(chan req, queue),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s
}

func (s *SQLIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:     len(s.ch),
		QueueCapacity:  cap(s.ch),
		DropTableTotal: s.dropTable.Load(),
		DropEntryTotal: s.dropEntry.Load(),
		DropScoreTotal: s.dropScore.Load(),
	}
}

func (s *SQLIndex) RecordTable(t session.TableRecord) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqTable, table: t}:
	default:
		s.dropTable.Add(1)
	}
}

func (s *SQLIndex) RecordEntry(e session.LogEntry) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqEntry, entry: e}:
	default:
		s.dropEntry.Add(1)
	}
}

func (s *SQLIndex) RecordScores(tableID string, st []session.Standing) {
	if s == nil || s.closed.Load() {
		return
	}
	cp := append([]session.Standing(nil), st...)
	select {
	case s.ch <- req{kind: reqScores, tableID: tableID, scores: cp}:
	default:
		s.dropScore.Add(1)
	}
}

// Scores returns the final standings of a table, best first.
func (s *SQLIndex) Scores(ctx context.Context, tableID string) ([]ScoreRow, error) {
	rows, err := s.db.QueryContext(ctx, s.bind(`SELECT table_id,player_id,name,rank,score,breakdown_json FROM scores WHERE table_id=? ORDER BY rank`), tableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ScoreRow
	for rows.Next() {
		var r ScoreRow
		if err := rows.Scan(&r.TableID, &r.PlayerID, &r.Name, &r.Rank, &r.Score, &r.Breakdown); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ActCount counts indexed ACT entries of a table, optionally only those with the given code.
func (s *SQLIndex) ActCount(ctx context.Context, tableID, code string) (int, error) {
	q := `SELECT COUNT(*) FROM acts WHERE table_id=? AND kind=?`
	args := []any{tableID, string(session.EntryAct)}
	if code != "" {
		q += ` AND code=?`
		args = append(args, code)
	}
	var n int
	err := s.db.QueryRowContext(ctx, s.bind(q), args...).Scan(&n)
	return n, err
}

func (s *SQLIndex) GameDigest(ctx context.Context, tableID string) (string, error) {
	var d string
	err := s.db.QueryRowContext(ctx, s.bind(`SELECT game_digest FROM games WHERE table_id=?`), tableID).Scan(&d)
	return d, err
}

func (s *SQLIndex) printf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

func (s *SQLIndex) loop() {
	ctx := context.Background()

	var (
		tx            *sql.Tx
		opCount       int
		commitEvery   = 512
		commitMaxWait = 500 * time.Millisecond
	)
	ticker := time.NewTicker(commitMaxWait)
	defer ticker.Stop()

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			s.printf("index begin: %v", err)
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.printf("index commit: %v", err)
		}
		tx = nil
		opCount = 0
	}
	rollback := func(err error) {
		s.printf("index write: %v", err)
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
	}

	for {
		select {
		case r, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			begin()
			if tx == nil {
				continue
			}
			if err := s.apply(tx, r, &opCount); err != nil {
				rollback(err)
				continue
			}
			if opCount >= commitEvery {
				commit()
			}
		case <-ticker.C:
			commit()
		}
	}
}

func (s *SQLIndex) apply(tx *sql.Tx, r req, ops *int) error {
	switch r.kind {
	case reqTable:
		t := r.table
		if _, err := tx.Exec(s.bind(upsertGame), t.TableID, t.Seed, t.GameDigest, t.MaxPlayers, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
			return err
		}
		*ops++

	case reqEntry:
		e := r.entry
		actKind, actJSON := "", "{}"
		if e.Act != nil {
			actKind = string(e.Act.Kind)
			b, _ := json.Marshal(e.Act)
			actJSON = string(b)
		}
		if _, err := tx.Exec(s.bind(upsertAct), e.TableID, int64(e.Seq), string(e.Kind), e.PlayerID, actKind, actJSON, e.Code, e.Round, e.Digest); err != nil {
			return err
		}
		*ops++

	case reqScores:
		for i, st := range r.scores {
			b, _ := json.Marshal(st.Breakdown)
			if _, err := tx.Exec(s.bind(upsertScore), r.tableID, st.PlayerID, st.Name, i+1, st.Score, string(b)); err != nil {
				return err
			}
			*ops++
		}
	}
	return nil
}
