package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rzbill/stockroom/pkg/api/rest"
	"github.com/rzbill/stockroom/pkg/catalog"
	"github.com/rzbill/stockroom/pkg/log"
	"github.com/rzbill/stockroom/pkg/store"
)

// garbageCollector is implemented by stores that reclaim disk space.
type garbageCollector interface {
	RunGC() (int, error)
}

// APIServer serves the catalog REST API and runs store maintenance.
type APIServer struct {
	options *Options
	logger  log.Logger

	catalog    *catalog.Service
	httpServer *http.Server
	listener   net.Listener
	cron       *cron.Cron

	// Shutdown channel
	shutdownCh chan struct{}

	// Wait group for server goroutines
	wg sync.WaitGroup
}

// New creates a new API server with the given options.
func New(opts ...Option) (*APIServer, error) {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.Store == nil {
		return nil, fmt.Errorf("state store is required")
	}

	logger := options.Logger.WithComponent("api-server")
	s := &APIServer{
		options:    options,
		logger:     logger,
		catalog:    catalog.NewService(options.Store, options.Logger),
		shutdownCh: make(chan struct{}),
	}

	handler := rest.NewRouter(rest.NewHandler(s.catalog, options.Logger), rest.RouterOptions{
		APIKeys:        options.APIKeys,
		RequestTimeout: options.RequestTimeout,
	})
	s.httpServer = &http.Server{
		Addr:     options.HTTPAddr,
		Handler:  handler,
		ErrorLog: log.ToStdLogger(logger, log.ErrorLevel),
	}
	return s, nil
}

// Start listens on the configured address and serves in the background.
func (s *APIServer) Start() error {
	s.logger.Info("Starting stockroom server", log.Str("addr", s.options.HTTPAddr))

	lis, err := net.Listen("tcp", s.options.HTTPAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.options.HTTPAddr, err)
	}
	s.listener = lis

	if err := s.startMaintenance(); err != nil {
		lis.Close()
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		var err error
		if s.options.EnableTLS {
			err = s.httpServer.ServeTLS(lis, s.options.TLSCertFile, s.options.TLSKeyFile)
		} else {
			err = s.httpServer.Serve(lis)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", log.Err(err))
		}
	}()

	s.logger.Info("HTTP server listening", log.Str("addr", lis.Addr().String()), log.Bool("tls", s.options.EnableTLS))
	return nil
}

// Addr returns the bound listen address once started.
func (s *APIServer) Addr() string {
	if s.listener == nil {
		return s.options.HTTPAddr
	}
	return s.listener.Addr().String()
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *APIServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// Catalog returns the catalog service the server exposes.
func (s *APIServer) Catalog() *catalog.Service {
	return s.catalog
}

// Done is closed when the server stops.
func (s *APIServer) Done() <-chan struct{} {
	return s.shutdownCh
}

// Stop shuts the server down gracefully.
func (s *APIServer) Stop() error {
	s.logger.Info("Stopping stockroom server")

	// Ensure we only close the channel once
	select {
	case <-s.shutdownCh:
		return nil
	default:
		close(s.shutdownCh)
	}

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
	defer cancel()
	var shutdownErr error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Error shutting down HTTP server", log.Err(err))
		shutdownErr = err
	}

	s.wg.Wait()
	s.logger.Info("stockroom server stopped")
	return shutdownErr
}

// startMaintenance schedules store GC when the store supports it.
func (s *APIServer) startMaintenance() error {
	gc, ok := s.options.Store.(garbageCollector)
	if !ok || s.options.GCSchedule == "" {
		return nil
	}

	s.cron = cron.New(cron.WithParser(cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)))
	_, err := s.cron.AddFunc(s.options.GCSchedule, func() {
		s.runGC(gc)
	})
	if err != nil {
		return fmt.Errorf("invalid store gc schedule %q: %w", s.options.GCSchedule, err)
	}
	s.cron.Start()
	s.logger.Info("Scheduled store GC", log.Str("schedule", s.options.GCSchedule))
	return nil
}

func (s *APIServer) runGC(gc garbageCollector) {
	rewritten, err := gc.RunGC()
	if err != nil {
		s.logger.Warn("Store GC failed", log.Err(err))
		return
	}
	s.logger.Debug("Store GC done", log.Int("rewritten", rewritten))
}

// GetStore returns the server's store.
func (s *APIServer) GetStore() store.Store {
	return s.options.Store
}
