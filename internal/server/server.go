// Package server exposes the latest scan and the lot calculator over HTTP
// and refreshes the scan on a cron schedule.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"

	"github.com/dyike/DivGo/config"
	"github.com/dyike/DivGo/internal/advisory"
	"github.com/dyike/DivGo/internal/directory"
	"github.com/dyike/DivGo/internal/logger"
	"github.com/dyike/DivGo/internal/scanner"
)

var (
	ErrScanInProgress  = errors.New("a scan is already running")
	ErrScanInterrupted = errors.New("scan interrupted, previous results kept")
)

// Snapshot is one completed scan together with the listing it covered.
type Snapshot struct {
	Result  *scanner.BatchResult
	Listing directory.Listing
}

type Server struct {
	cfg     *config.Config
	scanner *scanner.Scanner
	dir     directory.Directory
	advisor *advisory.Advisor
	manager *config.Manager
	router  chi.Router
	now     func() time.Time
	// base outlives single requests so a rescan started over HTTP finishes
	// even when the client goes away.
	base    context.Context

	mu       sync.RWMutex
	snapshot *Snapshot
	scanning atomic.Bool
}

type Option func(*Server)

// WithManager enables live reload of lot size and scan concurrency.
func WithManager(m *config.Manager) Option {
	return func(s *Server) { s.manager = m }
}

func New(cfg *config.Config, sc *scanner.Scanner, dir directory.Directory, adv *advisory.Advisor, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		scanner: sc,
		dir:     dir,
		advisor: adv,
		now:     time.Now,
		base:    context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/rankings", s.handleRankings)
		r.Get("/instruments", s.handleInstruments)
		r.Get("/calc/{symbol}", s.handleCalc)
		r.Get("/advice/{symbol}", s.handleAdvice)
		r.Post("/rescan", s.handleRescan)
	})
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Snapshot returns the latest completed scan, or nil before the first one.
func (s *Server) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Rescan lists the directory, scans it and replaces the snapshot. Only one
// scan runs at a time. A scan cut short by ctx never replaces the snapshot.
func (s *Server) Rescan(ctx context.Context) (*Snapshot, error) {
	if !s.scanning.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer s.scanning.Store(false)

	listing := s.dir.List(ctx)
	if listing.Degraded {
		logger.Component("server").WithField("reason", listing.Reason).Warn("scanning built-in instrument table")
	}
	result := s.scanner.Scan(ctx, listing.Instruments)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanInterrupted, err)
	}

	snap := &Snapshot{Result: result, Listing: listing}
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
	return snap, nil
}

// Run serves until ctx is done. A first scan starts immediately and then on
// the configured schedule.
func (s *Server) Run(ctx context.Context) error {
	log := logger.Component("server")
	s.base = ctx

	c := cron.New()
	if s.cfg.ScanSchedule != "" {
		if _, err := c.AddFunc(s.cfg.ScanSchedule, func() { s.scheduledScan(ctx) }); err != nil {
			return err
		}
		c.Start()
		defer c.Stop()
	}
	go s.scheduledScan(ctx)

	if s.manager != nil {
		err := s.manager.Watch(ctx, func(next config.Config) {
			s.scanner.Configure(next.LotSize, next.ScanConcurrency)
			log.WithField("lot_size", next.LotSize).WithField("scan_concurrency", next.ScanConcurrency).Info("settings reloaded")
		})
		if err != nil {
			log.WithError(err).Warn("config watch disabled")
		}
	}

	srv := &http.Server{
		Addr:              s.cfg.ServerAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", s.cfg.ServerAddr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) scheduledScan(ctx context.Context) {
	if _, err := s.Rescan(ctx); err != nil {
		logger.Component("server").WithError(err).Debug("scheduled scan skipped")
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Component("http").
			WithField("method", r.Method).
			WithField("path", r.URL.Path).
			WithField("status", ww.Status()).
			WithField("request_id", middleware.GetReqID(r.Context())).
			WithField("duration", time.Since(start).String()).
			Debug("request")
	})
}
