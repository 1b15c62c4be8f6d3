package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

const maxWebhookBody = 64 << 10

// WebhookSource accepts raw signal text over HTTP, for TradingView-style
// alert webhooks.
type WebhookSource struct {
	relay *Relay
	addr  string
	path  string
	log   *slog.Logger
}

func NewWebhookSource(addr, path string, relay *Relay, log *slog.Logger) *WebhookSource {
	return &WebhookSource{relay: relay, addr: addr, path: path, log: log}
}

// Router builds the HTTP routes. Split out from Run so tests can drive the
// handler directly.
func (s *WebhookSource) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(s.path, s.handleSignal).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	return r
}

// Run serves until the context is cancelled.
func (s *WebhookSource) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("webhook source listening", "addr", s.addr, "path", s.path)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *WebhookSource) handleSignal(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil || len(body) == 0 {
		http.Error(w, `{"error":"empty body"}`, http.StatusBadRequest)
		return
	}

	env := NewEnvelope("webhook", string(body))
	s.log.DebugContext(r.Context(), "webhook message received",
		"signal_id", env.ID, "remote", r.RemoteAddr, "bytes", len(body))

	if err := s.relay.Handle(r.Context(), env); err != nil {
		http.Error(w, `{"error":"routing failed"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"signal_id": env.ID.String(),
		"status":    "accepted",
	})
}

func (s *WebhookSource) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}
