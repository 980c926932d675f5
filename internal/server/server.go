// Package server exposes the pipeline's read surface over HTTP: health,
// reward/risk queries, evaluation snapshots, and a websocket feed of
// published signals.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-signal/internal/channel"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/tracker"
	"go.uber.org/zap"
)

// signalPollInterval is how often the websocket feed drains the channel.
const signalPollInterval = 500 * time.Millisecond

// Server serves the status API. The websocket feed is the channel's
// consumer: each published signal is delivered to exactly one websocket
// client, not broadcast.
type Server struct {
	httpServer *http.Server
	channel    channel.Channel
	tracker    tracker.Tracker
	logger     *logger.Logger
	upgrader   websocket.Upgrader
}

// NewServer creates a server bound to the given address.
func NewServer(addr string, signalChannel channel.Channel, outcomeTracker tracker.Tracker, log *logger.Logger) *Server {
	s := &Server{
		channel: signalChannel,
		tracker: outcomeTracker,
		logger:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/reward-risk/{symbol}", s.handleRewardRisk).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/snapshot/{symbol}", s.handleSnapshot).Methods(http.MethodGet)
	router.HandleFunc("/ws/signals", s.handleSignalsFeed)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Start serves until Stop is called. It blocks; run it from a goroutine.
func (s *Server) Start() error {
	s.logger.Info("status server listening", zap.String("addr", s.httpServer.Addr))

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRewardRisk(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	s.writeJSON(w, http.StatusOK, map[string]any{
		"symbol":      symbol,
		"reward_risk": s.tracker.ExpectedRewardToRisk(symbol),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	s.writeJSON(w, http.StatusOK, map[string]any{
		"symbol":   symbol,
		"horizons": s.tracker.EvaluationSnapshot(symbol),
	})
}

func (s *Server) handleSignalsFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))

		return
	}

	defer conn.Close()

	s.logger.Info("signal feed client connected", zap.String("remote", conn.RemoteAddr().String()))

	ticker := time.NewTicker(signalPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			for signal := range s.channel.Consume() {
				if err := conn.WriteJSON(signal); err != nil {
					s.logger.Warn("signal feed client disconnected", zap.Error(err))

					return
				}
			}
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}
