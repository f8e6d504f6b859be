package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	rtsup "taskmate/internal/runtime/supervisor"
	logx "taskmate/pkg/logx"
)

const DefaultAddr = "127.0.0.1:8080"

// Config controls the API listener.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server runs an http.Handler under a supervisor restart loop and can be
// reconfigured (new address or timeouts) while running.
type Server struct {
	mu      sync.Mutex
	log     logx.Logger
	cfg     Config
	handler http.Handler

	ln       net.Listener
	srv      *http.Server
	sup      *rtsup.Supervisor
	stopDone chan struct{}
	ready    chan struct{}
}

func NewServer(cfg Config, handler http.Handler, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Server{cfg: cfg, handler: handler, log: log.With(logx.String("comp", "web")), ready: make(chan struct{})}
}

// Supervisor returns the server's internal supervisor (nil if not started).
func (s *Server) Supervisor() *rtsup.Supervisor {
	s.mu.Lock()
	sup := s.sup
	s.mu.Unlock()
	return sup
}

// Addr returns the bound listener address, or "" when not listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Ready is closed once the first listener is bound.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Reconfigure applies cfg and restarts the listener if needed.
// Safe to call during hot-reload.
func (s *Server) Reconfigure(ctx context.Context, cfg Config) {
	s.mu.Lock()
	prev := s.cfg
	running := s.sup != nil
	s.cfg = cfg
	s.mu.Unlock()

	if !running {
		s.Start(ctx)
		return
	}
	if needsRestart(prev, cfg) {
		s.log.Info("restarting http server", logx.String("addr", normalizeAddr(cfg.Addr)))
		s.Stop(ctx)
		s.Start(ctx)
	}
}

// FlowBudget is the model deadline for a server with the given write
// timeout. It ends early enough for the 504 to reach the client.
func FlowBudget(writeTimeout time.Duration) time.Duration {
	if writeTimeout <= 0 {
		return 0
	}
	return writeTimeout - writeTimeout/10
}

func needsRestart(a, b Config) bool {
	if normalizeAddr(a.Addr) != normalizeAddr(b.Addr) {
		return true
	}
	return a.ReadTimeout != b.ReadTimeout || a.WriteTimeout != b.WriteTimeout || a.IdleTimeout != b.IdleTimeout
}

func normalizeAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return DefaultAddr
	}
	return addr
}

// Start is idempotent.
func (s *Server) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		s.mu.Lock()
		// If stopping, wait for it to finish before restarting.
		if s.stopDone != nil {
			done := s.stopDone
			s.mu.Unlock()
			select {
			case <-done:
			case <-ctx.Done():
				return
			}
			continue
		}
		if s.sup != nil {
			s.mu.Unlock()
			return
		}
		s.sup = rtsup.NewSupervisor(ctx,
			rtsup.WithLogger(s.log),
			rtsup.WithCancelOnError(false),
		)
		sup := s.sup
		s.mu.Unlock()

		sup.GoRestart("http.serve", s.serveOnce,
			rtsup.WithPublishFirstError(true),
			rtsup.WithRestartBackoff(500*time.Millisecond, 10*time.Second),
		)
		return
	}
}

// Stop shuts the server down gracefully, bounded by ctx.
func (s *Server) Stop(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.sup == nil {
		s.mu.Unlock()
		return
	}
	if s.stopDone != nil {
		done := s.stopDone
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
		}
		return
	}

	done := make(chan struct{})
	s.stopDone = done
	srv := s.srv
	sup := s.sup
	s.mu.Unlock()

	// Shutdown runs asynchronously so callers can time out without leaking state.
	go func() {
		defer close(done)
		if srv != nil {
			_ = srv.Shutdown(ctx)
			_ = srv.Close()
		}
		sup.Cancel()
		_ = sup.Wait(context.Background())

		s.mu.Lock()
		s.ln = nil
		s.srv = nil
		s.sup = nil
		s.stopDone = nil
		s.mu.Unlock()
		s.log.Info("http server stopped")
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// Force-stop internal loops.
		sup.Cancel()
	}
}

func (s *Server) serveOnce(ctx context.Context) error {
	s.mu.Lock()
	cur := s.cfg
	s.mu.Unlock()

	addr := normalizeAddr(cur.Addr)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.log.Error("http listen failed", logx.String("addr", addr), logx.Err(err))
		if ctx.Err() != nil {
			return context.Canceled
		}
		return err
	}
	defer func() { _ = ln.Close() }()

	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       cur.ReadTimeout,
		ReadHeaderTimeout: cur.ReadTimeout,
		WriteTimeout:      cur.WriteTimeout,
		IdleTimeout:       cur.IdleTimeout,
	}
	defer func() { _ = srv.Close() }()

	s.mu.Lock()
	s.ln = ln
	s.srv = srv
	select {
	case <-s.ready:
	default:
		close(s.ready)
	}
	s.mu.Unlock()

	// Stop the server when the supervisor context is cancelled.
	go func() {
		<-ctx.Done()
		cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = srv.Shutdown(cctx)
		cancel()
	}()

	s.log.Info("http server started", logx.String("addr", ln.Addr().String()))
	err = srv.Serve(ln)

	s.mu.Lock()
	if s.srv == srv {
		s.srv = nil
		s.ln = nil
	}
	stopping := s.stopDone != nil
	s.mu.Unlock()

	if stopping || ctx.Err() != nil {
		return context.Canceled
	}
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return errors.New("http server exited unexpectedly")
	}
	return err
}
