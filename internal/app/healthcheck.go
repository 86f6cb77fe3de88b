package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/vk/axisem/internal/ctxlog"
)

type rankState int

const (
	running rankState = iota
	finished
	failed
)

// status tracks the ranks hosted by this process.
type status struct {
	mu    sync.Mutex
	ranks map[int]rankState
}

func newStatus() *status {
	return &status{ranks: make(map[int]rankState)}
}

func (s *status) start(rank int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ranks[rank] = running
}

func (s *status) finish(rank int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.ranks[rank] = failed
		return
	}
	s.ranks[rank] = finished
}

func (s *status) counts() (run, done, fail int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.ranks {
		switch st {
		case running:
			run++
		case finished:
			done++
		case failed:
			fail++
		}
	}
	return run, done, fail
}

// healthHandler reports the rank counts; it answers 503 once a rank failed.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	run, done, fail := a.status.counts()
	if fail > 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	fmt.Fprintf(w, "run=%s running=%d finished=%d failed=%d\n", a.runID, run, done, fail)
}

// startHealthcheckServer initializes and runs the health check HTTP server.
func (a *App) startHealthcheckServer(ctx context.Context, port int) {
	logger := ctxlog.FromContext(ctx)
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)

	addr := fmt.Sprintf(":%d", port)
	a.httpServer = &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
}

func (a *App) closeHealthcheckServer(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	if a.httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logger.Error("Health check server shutdown failed", "error", err)
	}
}
