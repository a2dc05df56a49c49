package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/INSANE0777/AIS-GARDEN/internal/api"
	"github.com/INSANE0777/AIS-GARDEN/internal/config"
	"github.com/INSANE0777/AIS-GARDEN/internal/store"
)

// Backend is the authoritative store the server fronts.
type Backend interface {
	CreateUser(ctx context.Context, name string) (api.User, error)
	CreateFlower(ctx context.Context, req api.CreateFlowerRequest) (api.FlowerRow, error)
	ListFlowers(ctx context.Context, order api.Order) ([]api.FlowerRow, error)
	Ping(ctx context.Context) error
}

// Server exposes the store over HTTP and pushes every new flower to live
// subscribers.
type Server struct {
	cfg     config.ServerConfig
	backend Backend
	hub     *Hub
	log     zerolog.Logger
	version string
}

// NewServer wires backend behind the garden HTTP API.
func NewServer(cfg config.ServerConfig, backend Backend, version string, log zerolog.Logger) *Server {
	log = log.With().Str("component", "server").Logger()
	return &Server{
		cfg:     cfg,
		backend: backend,
		hub:     NewHub(cfg.AllowedOrigins, log),
		log:     log,
		version: version,
	}
}

// Hub returns the live channel hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the routed, middleware-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users", s.createUser)
	mux.HandleFunc("POST /api/flowers", s.createFlower)
	mux.HandleFunc("GET /api/flowers", s.listFlowers)
	mux.Handle("GET /api/live", s.hub)
	mux.HandleFunc("GET /health", s.health)

	return Chain(RequestID(s.log), AccessLog, Recovery)(mux)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully and disconnects live subscribers.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("garden server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.hub.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down garden server")
	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// POST /api/users
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req api.CreateUserRequest
	if !s.decode(w, r, &req) {
		return
	}
	user, err := s.backend.CreateUser(r.Context(), req.Name)
	if err != nil {
		s.fail(w, r, "create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// POST /api/flowers
func (s *Server) createFlower(w http.ResponseWriter, r *http.Request) {
	var req api.CreateFlowerRequest
	if !s.decode(w, r, &req) {
		return
	}
	row, err := s.backend.CreateFlower(r.Context(), req)
	if err != nil {
		s.fail(w, r, "create flower", err)
		return
	}

	ev, err := api.NewInsertEvent(row)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("flower_id", row.ID).Msg("encode insert event")
	} else {
		s.hub.Publish(ev)
	}
	writeJSON(w, http.StatusCreated, row)
}

// GET /api/flowers?order=asc|desc
func (s *Server) listFlowers(w http.ResponseWriter, r *http.Request) {
	order, err := api.ParseOrder(r.URL.Query().Get("order"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := s.backend.ListFlowers(r.Context(), order)
	if err != nil {
		s.fail(w, r, "list flowers", err)
		return
	}
	if rows == nil {
		rows = []api.FlowerRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string    `json:"status"`
	Version     string    `json:"version,omitempty"`
	Database    string    `json:"database"`
	Subscribers int       `json:"subscribers"`
	Timestamp   time.Time `json:"timestamp"`
}

// GET /health
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:      "ok",
		Version:     s.version,
		Database:    "ok",
		Subscribers: s.hub.Len(),
		Timestamp:   time.Now(),
	}
	status := http.StatusOK
	if err := s.backend.Ping(ctx); err != nil {
		resp.Status, resp.Database = "down", "down"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := statusFor(err)
	ev := zerolog.Ctx(r.Context()).Warn()
	if status >= 500 {
		ev = zerolog.Ctx(r.Context()).Error()
	}
	ev.Err(err).Str("op", op).Msg("request failed")
	writeError(w, status, msg)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, store.ErrAlreadyExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request cancelled"
	}
	return http.StatusInternalServerError, "internal server error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg})
}
