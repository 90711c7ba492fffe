package session

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"est8.games/internal/protocol"
)

type JoinRequest struct {
	Name string
	Out  chan []byte
	Resp chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
	Code    string
	Message string
}

type ActEnvelope struct {
	PlayerID string
	Act      protocol.ActMsg
}

// ActLogger receives every log entry in order.
type ActLogger interface {
	WriteEntry(e LogEntry) error
}

// Index is the queryable read model of tables, acts and final scores.
type Index interface {
	RecordTable(t TableRecord)
	RecordEntry(e LogEntry)
	RecordScores(tableID string, st []Standing)
}

type TableRecord struct {
	TableID    string
	Seed       int64
	GameDigest string
	MaxPlayers int
}

// Metrics is implemented by the prometheus collectors in internal/metrics.
type Metrics interface {
	ObserveAct(kind, code string)
	ObserveRound()
	ObserveGameOver()
	SetPlayers(n int)
}

type HubConfig struct {
	// AutoStart starts the game once this many players have joined. Zero waits for Start.
	AutoStart int
}

// Hub owns a Table and serializes every join, act and leave through Run.
type Hub struct {
	cfg   HubConfig
	table *Table
	log   *log.Logger

	join  chan JoinRequest
	inbox chan ActEnvelope
	leave chan string
	start chan chan error
	stop  chan struct{}

	clients map[string]chan []byte
	seq     uint64
	// ended is set once the END entry is written; the log is sealed after that.
	ended bool

	actLog     ActLogger
	index      Index
	metrics    Metrics
	onGameOver func(tableID string)
}

func NewHub(t *Table, cfg HubConfig, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(os.Stdout, "[hub] ", log.LstdFlags|log.Lmicroseconds)
	}
	return &Hub{
		cfg:     cfg,
		table:   t,
		log:     logger,
		join:    make(chan JoinRequest, 16),
		inbox:   make(chan ActEnvelope, 256),
		leave:   make(chan string, 16),
		start:   make(chan chan error, 1),
		stop:    make(chan struct{}),
		clients: map[string]chan []byte{},
	}
}

func (h *Hub) SetActLogger(l ActLogger)           { h.actLog = l }
func (h *Hub) SetIndex(idx Index)                 { h.index = idx }
func (h *Hub) SetMetrics(m Metrics)               { h.metrics = m }
func (h *Hub) OnGameOver(fn func(tableID string)) { h.onGameOver = fn }

func (h *Hub) Join() chan<- JoinRequest  { return h.join }
func (h *Hub) Inbox() chan<- ActEnvelope { return h.inbox }
func (h *Hub) Leave() chan<- string      { return h.leave }
func (h *Hub) TableID() string           { return h.table.ID() }

// Start asks the running hub to deal the first round.
func (h *Hub) Start(ctx context.Context) error {
	resp := make(chan error, 1)
	select {
	case h.start <- resp:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-resp:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) Stop() { close(h.stop) }

func (h *Hub) Run(ctx context.Context) error {
	h.created()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.stop:
			return nil
		case req := <-h.join:
			h.handleJoin(req)
		case resp := <-h.start:
			resp <- h.startGame()
		case id := <-h.leave:
			h.drainInbox()
			h.handleLeave(id)
		case env := <-h.inbox:
			h.handleAct(env)
		}
	}
}

func (h *Hub) created() {
	t := h.table
	gd := t.Definition().Digest()
	if h.index != nil {
		h.index.RecordTable(TableRecord{TableID: t.ID(), Seed: t.Seed(), GameDigest: gd, MaxPlayers: t.cfg.MaxPlayers})
	}
	h.record(LogEntry{Kind: EntryCreate, Seed: t.Seed(), MaxPlayers: t.cfg.MaxPlayers, GameDigest: gd})
	h.log.Printf("table %s ready seed=%d game=%s", t.ID(), t.Seed(), shortDigest(gd))
}

func (h *Hub) handleJoin(req JoinRequest) {
	seat, err := h.table.Join(req.Name)
	if err != nil {
		h.log.Printf("join %q refused: %v", req.Name, err)
		req.Resp <- JoinResponse{Code: Code(err), Message: err.Error()}
		return
	}
	if req.Out != nil {
		h.clients[seat.ID] = req.Out
	}
	h.record(LogEntry{Kind: EntryJoin, PlayerID: seat.ID, Name: seat.Name})
	if h.metrics != nil {
		h.metrics.SetPlayers(len(h.clients))
	}
	h.log.Printf("player %s (%s) joined", seat.ID, seat.Name)

	req.Resp <- JoinResponse{Welcome: protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		PlayerID:        seat.ID,
		TableID:         h.table.ID(),
		Seed:            h.table.Seed(),
		GameDigest:      h.table.Definition().Digest(),
		Seat:            len(h.table.Seats()) - 1,
	}}

	if h.cfg.AutoStart > 0 && len(h.table.Seats()) == h.cfg.AutoStart {
		if err := h.startGame(); err != nil {
			h.log.Printf("auto start: %v", err)
		}
		return
	}
	h.broadcastState()
}

func (h *Hub) startGame() error {
	if err := h.table.Start(); err != nil {
		return err
	}
	h.record(LogEntry{Kind: EntryStart})
	if h.metrics != nil {
		h.metrics.ObserveRound()
	}
	h.log.Printf("table %s started with %d players", h.table.ID(), len(h.table.Seats()))
	h.broadcastState()
	return nil
}

func (h *Hub) handleLeave(id string) {
	delete(h.clients, id)
	if h.metrics != nil {
		h.metrics.SetPlayers(len(h.clients))
	}
	wasOver := h.table.Over()
	if err := h.table.Leave(id); err != nil {
		return
	}
	h.record(LogEntry{Kind: EntryLeave, PlayerID: id})
	h.log.Printf("player %s left", id)
	if !wasOver && h.table.Over() {
		h.finish()
	}
	h.broadcastState()
}

// drainInbox applies acts already queued so a player's last acts land before their leave.
func (h *Hub) drainInbox() {
	for {
		select {
		case env := <-h.inbox:
			h.handleAct(env)
		default:
			return
		}
	}
}

func (h *Hub) handleAct(env ActEnvelope) {
	act, err := ActFromMsg(env.Act)
	if err != nil {
		h.reply(env, err, Outcome{})
		return
	}

	round := h.table.Round()
	out, err := h.table.Apply(env.PlayerID, act)
	code := Code(err)
	if code != "" {
		h.log.Printf("player %s cannot %s: %v", env.PlayerID, act, err)
	}
	h.record(LogEntry{Kind: EntryAct, PlayerID: env.PlayerID, Act: &act, Code: code})
	if h.metrics != nil {
		h.metrics.ObserveAct(string(act.Kind), code)
		if out.RoundStarted {
			h.metrics.ObserveRound()
		}
	}
	h.reply(env, err, out)
	if err != nil {
		return
	}
	if out.RoundStarted {
		h.log.Printf("round %d -> %d", round, h.table.Round())
	}
	if out.GameOver {
		h.finish()
	}
	h.broadcastState()
}

func (h *Hub) reply(env ActEnvelope, err error, out Outcome) {
	ch, ok := h.clients[env.PlayerID]
	if !ok {
		return
	}
	res := protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		AckFor:          env.Act.Seq,
		Accepted:        err == nil,
		Code:            Code(err),
		Round:           h.table.Round(),
	}
	if err != nil {
		res.Message = err.Error()
	}
	if out.Placed != nil {
		res.House = out.Placed.String()
	}
	h.send(ch, res)
}

func (h *Hub) finish() {
	st := h.table.Standings()
	h.record(LogEntry{Kind: EntryEnd, Scores: scoreRecords(st)})
	h.ended = true
	if h.index != nil {
		h.index.RecordScores(h.table.ID(), st)
	}
	if h.metrics != nil {
		h.metrics.ObserveGameOver()
	}
	for i, s := range st {
		h.log.Printf("final #%d %s (%s) score=%d", i+1, s.PlayerID, s.Name, s.Score)
	}
	if h.onGameOver != nil {
		h.onGameOver(h.table.ID())
	}
}

// record appends e to the act log and index. Nothing is recorded after END: the game-over
// hook may already have closed and shipped the log.
func (h *Hub) record(e LogEntry) {
	if h.ended {
		return
	}
	h.seq++
	e.Seq = h.seq
	e.TableID = h.table.ID()
	e.Round = h.table.Round()
	e.Digest = h.table.Digest()
	if h.actLog != nil {
		if err := h.actLog.WriteEntry(e); err != nil {
			h.log.Printf("act log: %v", err)
		}
	}
	if h.index != nil {
		h.index.RecordEntry(e)
	}
}

func (h *Hub) broadcastState() {
	if len(h.clients) == 0 {
		return
	}
	b, err := json.Marshal(h.table.State())
	if err != nil {
		h.log.Printf("marshal state: %v", err)
		return
	}
	for _, ch := range h.clients {
		sendLatest(ch, b)
	}
}

func (h *Hub) send(ch chan []byte, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.log.Printf("marshal %T: %v", v, err)
		return
	}
	sendLatest(ch, b)
}

// sendLatest never blocks the hub: a full client queue loses its oldest message.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
