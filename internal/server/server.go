package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/crowdflow/crowdflow/internal/config"
	"github.com/crowdflow/crowdflow/internal/core/engine"
	"github.com/crowdflow/crowdflow/internal/core/observability/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Snapshots are world state, not secrets; any origin may watch.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Frame is one broadcast snapshot of the simulation.
type Frame struct {
	Tick   uint64             `json:"tick"`
	Agents []engine.AgentView `json:"agents"`
}

// statsProvider is implemented by models that expose runtime counters.
type statsProvider interface {
	Stats() map[string]any
}

// Server drives the simulation loop and serves the read and control
// surfaces. The engine is single-threaded by contract, so every engine
// call goes through mu: the tick loop and the HTTP handlers never
// overlap.
type Server struct {
	cfg   config.Config
	model engine.Model
	hub   *Hub
	log   log.Log

	mu   sync.Mutex
	tick uint64
}

// New builds a server hosting the given model. A nil logger disables
// logging.
func New(cfg config.Config, model engine.Model, logger log.Log) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	return &Server{
		cfg:   cfg,
		model: model,
		hub:   NewHub(),
		log:   logger,
	}
}

// Run serves until ctx is cancelled. It owns two goroutines: the tick
// loop and the HTTP listener; both stop on cancellation and Run
// returns the first error encountered.
func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler: s.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.tickLoop(ctx)
		return nil
	})

	g.Go(func() error {
		s.log.Info("control server listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Handler returns the HTTP mux for the read and control surfaces.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/agents", s.handleAgents)
	mux.HandleFunc("/configure", s.handleConfigure)
	mux.HandleFunc("/resize", s.handleResize)
	mux.HandleFunc("/reset", s.handleReset)
	mux.HandleFunc("/stats", s.handleStats)
	return mux
}

// tickLoop advances the model at the configured rate and broadcasts a
// snapshot after every tick. Elapsed wall time is passed through; the
// engine clamps it to its own stability bound.
func (s *Server) tickLoop(ctx context.Context) {
	interval := time.Duration(float64(time.Second) / s.cfg.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last).Seconds()
			last = now

			s.mu.Lock()
			s.model.Update(elapsed)
			s.tick++
			frame := Frame{Tick: s.tick, Agents: s.model.Agents()}
			s.mu.Unlock()

			if s.hub.Count() == 0 {
				continue
			}
			payload, err := json.Marshal(frame)
			if err != nil {
				s.log.Error("encoding frame", zap.Error(err))
				continue
			}
			s.hub.Broadcast(payload)
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	s.hub.Add(conn)
	s.log.Debug("subscriber connected", zap.String("remote", conn.RemoteAddr().String()))

	// Subscribers only read; the read pump exists to notice closes.
	go func() {
		defer s.hub.Remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	frame := Frame{Tick: s.tick, Agents: s.model.Agents()}
	s.mu.Unlock()

	writeJSON(w, frame)
}

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var overrides map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&overrides); err != nil {
		http.Error(w, fmt.Sprintf("invalid overrides: %v", err), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.model.Configure(overrides)
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var dims struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := json.NewDecoder(r.Body).Decode(&dims); err != nil {
		http.Error(w, fmt.Sprintf("invalid dimensions: %v", err), http.StatusBadRequest)
		return
	}
	if dims.Width <= 0 || dims.Height <= 0 {
		http.Error(w, "dimensions must be positive", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.model.Resize(dims.Width, dims.Height)
	s.tick = 0
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	s.model.Reset()
	s.tick = 0
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := map[string]any{"subscribers": s.hub.Count()}
	if sp, ok := s.model.(statsProvider); ok {
		s.mu.Lock()
		for k, v := range sp.Stats() {
			stats[k] = v
		}
		s.mu.Unlock()
	}

	writeJSON(w, stats)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
