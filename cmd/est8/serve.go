package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"est8.games/internal/metrics"
	"est8.games/internal/persistence/gamelog"
	"est8.games/internal/persistence/indexdb"
	"est8.games/internal/persistence/s3mirror"
	"est8.games/internal/sim/session"
	"est8.games/internal/transport/ws"
)

type serveConfig struct {
	Addr     string
	DataDir  string
	GamePath string
	TableID  string
	Seed     int64
	Players  int
	IndexDSN string
	S3Prefix string
}

func serveCmd() *cobra.Command {
	var cfg serveConfig
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a websocket table server",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			return runServe(ctx, cfg)
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.Addr, "addr", envString("EST8_ADDR", ":8080"), "http listen address")
	f.StringVar(&cfg.DataDir, "data", envString("EST8_DATA_DIR", "./data"), "runtime data directory")
	f.StringVar(&cfg.GamePath, "game", envString("EST8_GAME", ""), "game definition yaml (default: built-in)")
	f.StringVar(&cfg.TableID, "table", envString("EST8_TABLE_ID", "table_1"), "table id")
	f.Int64Var(&cfg.Seed, "seed", 1337, "deck seed")
	f.IntVar(&cfg.Players, "players", envInt("EST8_PLAYERS", 2), "seats; the game starts when all are taken")
	f.StringVar(&cfg.IndexDSN, "index", envString("EST8_INDEX_DSN", ""), "index database: postgres:// url, sqlite path or none (default: <data>/index/est8.sqlite)")
	f.StringVar(&cfg.S3Prefix, "s3-prefix", envString("EST8_S3_PREFIX", "tables"), "object key prefix for mirrored logs (bucket from EST8_S3_BUCKET)")
	return cmd
}

func runServe(ctx context.Context, cfg serveConfig) error {
	logger := log.New(os.Stdout, "[serve] ", log.LstdFlags|log.Lmicroseconds)

	def, err := loadGame(cfg.GamePath)
	if err != nil {
		return fmt.Errorf("load game: %w", err)
	}
	if cfg.Players < 1 || cfg.Players > 5 {
		return fmt.Errorf("players must be 1..5, got %d", cfg.Players)
	}

	m := metrics.New()

	idx, err := openIndex(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	if idx != nil {
		defer idx.Close()
		m.TrackQueue("index", func() int { return idx.Stats().QueueDepth })
	}

	mirror, err := openMirror(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init s3 mirror: %w", err)
	}
	if mirror != nil {
		defer mirror.Close()
		m.TrackQueue("s3_mirror", func() int { return mirror.Stats().QueueDepth })
	}

	actLog := gamelog.NewActLogger(cfg.DataDir, cfg.TableID)
	defer actLog.Close()

	t := session.NewTable(def, session.TableConfig{ID: cfg.TableID, Seed: cfg.Seed, MaxPlayers: cfg.Players})
	hub := session.NewHub(t, session.HubConfig{AutoStart: cfg.Players}, log.New(os.Stdout, "[hub] ", log.LstdFlags|log.Lmicroseconds))
	hub.SetActLogger(actLog)
	hub.SetMetrics(m)
	if idx != nil {
		hub.SetIndex(idx)
	}
	hub.OnGameOver(func(tableID string) {
		if err := actLog.Close(); err != nil {
			logger.Printf("close act log: %v", err)
		}
		mirror.EnqueueTable(tableID)
	})

	go func() {
		if err := hub.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("hub stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/v1/ws", ws.NewServer(hub, logger).Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("table %s game=%s listening on %s", cfg.TableID, def.Digest()[:12], cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func openIndex(ctx context.Context, cfg serveConfig) (*indexdb.SQLIndex, error) {
	dsn := strings.TrimSpace(cfg.IndexDSN)
	switch strings.ToLower(dsn) {
	case "none", "off", "disabled":
		return nil, nil
	case "":
		dsn = filepath.Join(cfg.DataDir, "index", "est8.sqlite")
	}
	return indexdb.Open(ctx, dsn, log.New(os.Stdout, "[index] ", log.LstdFlags|log.Lmicroseconds))
}

func openMirror(ctx context.Context, cfg serveConfig, logger *log.Logger) (*s3mirror.Mirror, error) {
	s3cfg := s3mirror.ConfigFromEnv()
	if s3cfg.Bucket == "" {
		logger.Printf("s3 mirror disabled (EST8_S3_BUCKET unset)")
		return nil, nil
	}
	client, err := s3mirror.NewClient(ctx, s3cfg)
	if err != nil {
		return nil, err
	}
	return s3mirror.NewMirror(client, s3cfg.Bucket, cfg.DataDir, s3mirror.Options{
		Prefix:  cfg.S3Prefix,
		Workers: envInt("EST8_S3_UPLOAD_WORKERS", 2),
		Logger:  log.New(os.Stdout, "[s3] ", log.LstdFlags|log.Lmicroseconds),
	}), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
