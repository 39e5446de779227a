// Package httpserver wires the showcase handlers into one HTTP server.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/hxshowcase/internal/config"
	derrors "git.home.luguber.info/inful/hxshowcase/internal/foundation/errors"
	"git.home.luguber.info/inful/hxshowcase/internal/logfields"
	"git.home.luguber.info/inful/hxshowcase/internal/metrics"
	"git.home.luguber.info/inful/hxshowcase/internal/server/handlers"
	smw "git.home.luguber.info/inful/hxshowcase/internal/server/middleware"
)

// Server manages the showcase HTTP endpoint.
type Server struct {
	cfg          *config.Config
	opts         Options
	errorAdapter *derrors.HTTPErrorAdapter
	startTime    time.Time

	showcaseHandlers   *handlers.ShowcaseHandlers
	monitoringHandlers *handlers.MonitoringHandlers

	handler http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	serveDone  chan struct{}
}

// New builds the handlers and routes. It fails when an example cannot be
// rendered.
func New(cfg *config.Config, opts Options) (*Server, error) {
	if opts.Renderer == nil || opts.Reload == nil || opts.Contacts == nil {
		return nil, derrors.InternalError("server requires a renderer, a reload hub and a contact store").Build()
	}
	opts.Recorder = metrics.OrNoop(opts.Recorder)

	s := &Server{
		cfg:          cfg,
		opts:         opts,
		errorAdapter: derrors.NewHTTPErrorAdapter(slog.Default()),
		startTime:    time.Now(),
	}

	showcase, err := handlers.NewShowcaseHandlers(handlers.ShowcaseOptions{
		Renderer:       opts.Renderer,
		Catalog:        opts.Catalog,
		Versions:       opts.Reload,
		Contacts:       opts.Contacts,
		IndicatorDelay: cfg.Server.IndicatorDelayDuration(),
		Dev:            cfg.Server.Dev,
	})
	if err != nil {
		return nil, err
	}
	s.showcaseHandlers = showcase
	s.monitoringHandlers = handlers.NewMonitoringHandlers(runtimeAdapter{s})

	mchain := smw.Chain(slog.Default(), s.errorAdapter, opts.Recorder)
	s.handler = mchain(s.routes())
	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	sh := s.showcaseHandlers

	mux.HandleFunc("GET /{$}", sh.HandleIndex)
	mux.HandleFunc("GET /get", sh.HandleGet)
	mux.HandleFunc("GET /color", sh.HandleColor)
	mux.HandleFunc("GET /reload", sh.HandleReload)
	mux.Handle("GET /sse", s.opts.Reload)
	if s.opts.Chat != nil {
		mux.Handle("GET /ws", s.opts.Chat)
	}
	mux.HandleFunc("GET /contacts/{id}", sh.HandleContact)
	mux.HandleFunc("GET /contacts/{id}/edit", sh.HandleContactEdit)
	mux.HandleFunc("PUT /contacts/{id}", sh.HandleContactUpdate)
	mux.HandleFunc("GET /rows", sh.HandleRows)
	mux.HandleFunc("POST /indicator", sh.HandleIndicator)
	mux.HandleFunc("GET /modal", sh.HandleModal)
	if s.opts.Styles != nil {
		mux.Handle("GET /styles/", http.StripPrefix("/styles/", http.FileServerFS(s.opts.Styles)))
	}

	mon := s.cfg.Monitoring
	mux.HandleFunc("GET "+mon.Health.Path, s.monitoringHandlers.HandleHealthCheck)
	if mon.Metrics.Enabled && s.opts.MetricsHandler != nil {
		mux.Handle("GET "+mon.Metrics.Path, s.opts.MetricsHandler)
	}
	return mux
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Start binds the configured port and serves in the background. Binding
// happens before Start returns so a taken port fails fast.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryRuntime, "http startup failed").
			WithContext("addr", addr).Fatal().Build()
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	done := make(chan struct{})

	s.mu.Lock()
	s.httpServer, s.listener, s.serveDone = srv, ln, done
	s.mu.Unlock()

	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", logfields.Error(err))
		}
	}()
	slog.Info("HTTP server started",
		slog.String("addr", ln.Addr().String()),
		slog.Bool("dev", s.cfg.Server.Dev),
		logfields.Version(s.opts.Reload.Version()))
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes long-lived streams first so the HTTP drain does not wait on
// them, then shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.opts.Reload.Shutdown()
	if s.opts.Chat != nil {
		s.opts.Chat.Shutdown()
	}

	s.mu.Lock()
	srv, done := s.httpServer, s.serveDone
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	<-done
	return nil
}

type runtimeAdapter struct{ s *Server }

func (a runtimeAdapter) Version() string      { return a.s.opts.Reload.Version() }
func (a runtimeAdapter) StartTime() time.Time { return a.s.startTime }
func (a runtimeAdapter) Dev() bool            { return a.s.cfg.Server.Dev }
func (a runtimeAdapter) ReloadClients() int   { return a.s.opts.Reload.Clients() }
func (a runtimeAdapter) ChatSessions() int {
	if a.s.opts.Chat == nil {
		return 0
	}
	return a.s.opts.Chat.Sessions()
}
