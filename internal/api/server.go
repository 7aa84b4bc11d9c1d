package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/dynlab/internal/dynamo"
)

// ServerConfig holds the listener, timeout and websocket settings.
type ServerConfig struct {
	Host           string        `yaml:"host" json:"host"`
	Port           int           `yaml:"port" json:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins" json:"allowed_origins"`
	EnableLogging  bool          `yaml:"enable_logging" json:"enable_logging"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	WSReadBuffer   int           `yaml:"ws_read_buffer" json:"ws_read_buffer"`
	WSWriteBuffer  int           `yaml:"ws_write_buffer" json:"ws_write_buffer"`
	WSMaxMessage   int64         `yaml:"ws_max_message" json:"ws_max_message"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "localhost",
		Port:           5000,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		AllowedOrigins: []string{"*"},
		EnableLogging:  true,
		MaxBodyBytes:   1 << 20,
		WSReadBuffer:   1024,
		WSWriteBuffer:  1024,
		WSMaxMessage:   1 << 20,
	}
}

// withDefaults fills zero values from DefaultServerConfig.
func (c ServerConfig) withDefaults() ServerConfig {
	d := DefaultServerConfig()
	if c.Host == "" {
		c.Host = d.Host
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = d.IdleTimeout
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = d.MaxBodyBytes
	}
	if c.WSReadBuffer <= 0 {
		c.WSReadBuffer = d.WSReadBuffer
	}
	if c.WSWriteBuffer <= 0 {
		c.WSWriteBuffer = d.WSWriteBuffer
	}
	if c.WSMaxMessage <= 0 {
		c.WSMaxMessage = d.WSMaxMessage
	}
	return c
}

// Server serves a Service over HTTP and websocket.
type Server struct {
	svc    *Service
	cfg    ServerConfig
	logger *log.Logger

	mu         sync.RWMutex
	httpServer *http.Server
	listener   net.Listener
	running    bool
}

func NewServer(svc *Service, cfg ServerConfig, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{svc: svc, cfg: cfg.withDefaults(), logger: logger.WithPrefix("api")}
}

func (s *Server) Config() ServerConfig { return s.cfg }

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/{op}", s.handleOperation)
	mux.HandleFunc("GET /api/operations", s.handleOperations)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, Response{Success: true, Data: map[string]string{"status": "ok"}})
	})
	mux.Handle("GET /ws", newWSHandler(s.svc, s.cfg, s.logger))

	mws := []Middleware{RecoveryMiddleware(s.logger), RequestIDMiddleware}
	if s.cfg.EnableLogging {
		mws = append(mws, LoggingMiddleware(s.logger))
	}
	if len(s.cfg.AllowedOrigins) > 0 {
		mws = append(mws, CORSMiddleware(s.cfg.AllowedOrigins))
	}
	mws = append(mws, ContentTypeMiddleware)
	return Chain(mux, mws...)
}

// Start listens and serves in the background. Port 0 picks a free port;
// Addr reports the bound address.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("server is already running")
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port)))
	if err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
	s.running = true

	srv := s.httpServer
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("serve failed", "err", err)
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}
	}()
	return nil
}

func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.logger.Info("shutting down")
	s.running = false
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Server) handleOperation(w http.ResponseWriter, r *http.Request) {
	op := r.PathValue("op")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		WriteJSON(w, http.StatusRequestEntityTooLarge,
			Failure(&APIError{Code: string(dynamo.KindInvalidInput), Message: "request body too large or unreadable"}))
		return
	}

	start := time.Now()
	resp := s.svc.Call(r.Context(), op, body)
	if !resp.Success {
		s.logger.Warn("operation failed", "op", op, "code", resp.Error.Code, "err", resp.Error.Message,
			"id", RequestID(r.Context()))
	} else {
		s.logger.Debug("operation", "op", op, "latency", time.Since(start))
	}
	WriteJSON(w, statusFor(resp), resp)
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, Response{Success: true, Data: map[string]any{
		"operations": Operations(),
		"aliases":    aliases,
	}})
}

func statusFor(resp Response) int {
	if resp.Success {
		return http.StatusOK
	}
	switch resp.Error.Code {
	case CodeUnknownOperation:
		return http.StatusNotFound
	case string(dynamo.KindInvalidInput), string(dynamo.KindParse):
		return http.StatusBadRequest
	case CodeInternal:
		return http.StatusInternalServerError
	}
	return http.StatusUnprocessableEntity
}

// WriteJSON writes resp with the given status.
func WriteJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
