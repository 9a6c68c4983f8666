package server

import (
	"chinchi/internal/broadcast"
	"chinchi/internal/config"
	"chinchi/internal/db"
	"chinchi/internal/engine"
	"chinchi/internal/events"
	"chinchi/internal/game"
	"chinchi/internal/history"
	"chinchi/internal/liveness"
	"chinchi/internal/metrics"
	"chinchi/internal/rooms"
	"chinchi/internal/turntimer"
	"chinchi/internal/wshub"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const busSize = 256

func Run() error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		database *db.DB
		sinks    []game.ResultSink
	)
	// Optional database connection
	if cfg.DatabaseURL != "" {
		d, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] Failed to connect: %v (running without database)\n", err)
		} else if err := d.Migrate(); err != nil {
			log.Printf("[DB] Migration failed: %v (running without database)\n", err)
			d.Close()
		} else {
			database = d
			defer database.Close()
			writer := history.NewWriter(database, 1000)
			go writer.Run(ctx)
			sinks = append(sinks, writer)
			log.Println("[DB] Database connected and migrations applied")
		}
	} else {
		log.Println("[DB] DATABASE_URL not set, running without database")
	}

	srv, eng := New(cfg, database, time.Second, sinks...)
	go func() {
		if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[Engine] stopped: %v\n", err)
		}
	}()

	httpServer := &http.Server{
		Addr:    "0.0.0.0:" + cfg.Port,
		Handler: srv.Routes(),
	}
	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("Server listening on http://localhost:%s\n", cfg.Port)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("[Server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// New wires the room machinery. The returned engine must be running for
// WebSocket traffic to be processed. tick is the countdown interval.
func New(cfg config.Config, database *db.DB, tick time.Duration, sinks ...game.ResultSink) (*Server, *engine.Engine) {
	store := rooms.NewStore()
	bus := events.NewBus(busSize)
	hub := wshub.NewHub()
	m := metrics.New(store.Len)

	defaults := rooms.Settings{TargetLength: cfg.TargetLength, TimeLimit: cfg.TimeLimit}
	machine := game.NewMachine(store, turntimer.NewTicker(tick, bus.PostTick), defaults,
		append([]game.ResultSink{m}, sinks...)...)
	eng := engine.New(bus, machine, broadcast.NewBroadcaster(hub), hub,
		liveness.NewMonitor(cfg.MaxMissedHeartbeats), cfg.Heartbeat(), m)

	srv := &Server{
		Rooms:     store,
		Hub:       hub,
		Bus:       bus,
		DB:        database,
		Metrics:   m,
		Origins:   cfg.AllowedOrigins,
		StaticDir: cfg.StaticDir,
	}
	return srv, eng
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/stats", s.handleStats)
	mux.Handle("/metrics", s.Metrics.Handler())
	mux.Handle("/", http.FileServer(http.Dir(s.StaticDir)))
	return mux
}
