// Package web provides an HTTP API over a mininab ledger.
//
// The server keeps the ledger in memory and serializes writes: every command
// takes the write lock, is applied, and is persisted before the lock is
// released. When persisting fails the previous state is restored. Connected
// clients are notified through server-sent events whenever the ledger
// changes.
//
// SECURITY WARNING: This server has no authentication and should only be
// bound to localhost (127.0.0.1). Do not expose it to untrusted networks.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/robinvdvleuten/mininab/ledger"
	"github.com/robinvdvleuten/mininab/storage"
	"github.com/robinvdvleuten/mininab/telemetry"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 5 * time.Second

type Server struct {
	Port         int
	Host         string
	Version      string
	CommitSHA    string
	ReadOnly     bool
	WatchEnabled bool

	store   storage.Store
	logger  zerolog.Logger
	metrics *metrics

	mu     sync.RWMutex
	ledger *ledger.Ledger

	// SSE clients for broadcasting change events
	sseClients map[chan string]struct{}
	sseMu      sync.Mutex
}

func New(port int, store storage.Store) *Server {
	return NewWithVersion(port, store, "", "")
}

func NewWithVersion(port int, store storage.Store, version, commitSHA string) *Server {
	return &Server{
		Port:       port,
		Host:       "127.0.0.1",
		Version:    version,
		CommitSHA:  commitSHA,
		store:      store,
		logger:     zerolog.Nop(),
		metrics:    newMetrics(),
		sseClients: make(map[chan string]struct{}),
	}
}

// Start loads the ledger and serves until ctx is cancelled, then shuts the
// server down gracefully.
func (s *Server) Start(ctx context.Context) error {
	collector := telemetry.FromContext(ctx)
	timer := collector.Start(fmt.Sprintf("web.start %s:%d", s.Host, s.Port))

	s.logger = *zerolog.Ctx(ctx)

	loadTimer := timer.Child(fmt.Sprintf("web.load_ledger %s", filepath.Base(s.store.Path())))
	if err := s.reloadLedger(ctx); err != nil {
		loadTimer.End()
		timer.End()
		return fmt.Errorf("failed to load ledger: %w", err)
	}
	loadTimer.End()

	g, gctx := errgroup.WithContext(ctx)

	if s.WatchEnabled {
		watcher, err := s.newWatcher()
		if err != nil {
			timer.End()
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
		g.Go(func() error {
			s.runWatcher(gctx, watcher)
			return nil
		})
	}

	setupTimer := timer.Child("web.setup_router")
	mux := s.setupRouter()
	setupTimer.End()
	timer.End()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.Host, s.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end with gctx, which closes open SSE streams.
		BaseContext: func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error {
		s.logger.Info().Str("addr", srv.Addr).Msg("web server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info().Msg("web server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) setupRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/version", s.handleGetVersion)
	mux.HandleFunc("GET /api/summary", s.handleGetSummary)
	mux.HandleFunc("GET /api/months/{month}", s.handleGetMonth)
	mux.HandleFunc("GET /api/transactions", s.handleGetTransactions)
	mux.HandleFunc("POST /api/commands", s.requireWritable(s.handlePostCommand))
	mux.HandleFunc("GET /api/events", s.handleSSE)
	mux.Handle("GET /metrics", s.metrics.handler())

	return mux
}

// requireWritable is middleware that rejects write requests in read-only mode.
func (s *Server) requireWritable(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.ReadOnly {
			http.Error(w, "Server is in read-only mode", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// reloadLedger loads or reloads the ledger from the store.
// Caller must NOT hold the mutex - this method acquires it internally.
// The load runs under the write lock so a command cannot save a newer state
// between reading the file and installing the result.
func (s *Server) reloadLedger(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	s.ledger = l
	return nil
}

// newWatcher watches the directory holding the ledger file. Watching the
// directory survives the rename used for atomic saves.
func (s *Server) newWatcher() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.store.Path())); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.store.Path(), err)
	}
	return watcher, nil
}

// runWatcher processes file system events with debouncing.
func (s *Server) runWatcher(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		_ = watcher.Close()
	}()

	// Debounce timer - editors often write files in multiple steps
	const debounceDelay = 100 * time.Millisecond

	target := filepath.Clean(s.store.Path())

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				s.handleFileChange(ctx)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn().Err(err).Msg("file watcher error")
		}
	}
}

// handleFileChange reloads the ledger after an outside write.
func (s *Server) handleFileChange(ctx context.Context) {
	if err := s.reloadLedger(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to reload ledger")
		return
	}
	s.metrics.reloadsTotal.Inc()
	s.logger.Info().Str("path", s.store.Path()).Msg("ledger reloaded")
	s.broadcast("reload")
}

// handleSSE handles Server-Sent Events connections for real-time updates.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	clientChan := make(chan string, 10)

	s.sseMu.Lock()
	s.sseClients[clientChan] = struct{}{}
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseClients, clientChan)
		s.sseMu.Unlock()
	}()

	_, _ = fmt.Fprintf(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-clientChan:
			_, _ = fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}

// broadcast sends an event to all connected SSE clients.
func (s *Server) broadcast(event string) {
	s.sseMu.Lock()
	defer s.sseMu.Unlock()

	for clientChan := range s.sseClients {
		select {
		case clientChan <- event:
		default:
			// Client buffer full, skip
		}
	}
}
