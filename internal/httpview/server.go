// Package httpview serves the latest rendered document over HTTP for browser
// preview. GET / returns the newest complete HTML page; GET /events is a
// server-sent event stream that signals the page to reload when a newer
// snapshot is published.
package httpview

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yaklabco/gomdview/internal/logging"
	"github.com/yaklabco/gomdview/pkg/stream"
)

const shutdownGrace = 3 * time.Second

// waitingPage is served before the first snapshot arrives. The reload script
// keeps the tab alive until content shows up.
const waitingPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>gomdview</title></head>
<body><p>Waiting for content&hellip;</p>
<script>
const es = new EventSource("/events");
es.addEventListener("reload", () => location.reload());
</script>
</body></html>`

// reloadScript is appended to served documents so the browser follows the
// stream without manual refreshes.
const reloadScript = `<script>
(() => {
  const es = new EventSource("/events");
  const seq = %d;
  es.addEventListener("reload", (ev) => {
    if (Number(ev.data) > seq) location.reload();
  });
})();
</script>`

// Server exposes the content channel over HTTP. The channel has a single
// consumer elsewhere; that consumer calls Broadcast after each new snapshot
// and the server fans the signal out to any number of event-stream clients.
type Server struct {
	ch     *stream.Channel
	router chi.Router

	mu   sync.Mutex
	subs map[chan uint64]struct{}
}

// New creates a Server reading snapshots from ch.
func New(ch *stream.Channel) *Server {
	s := &Server{
		ch:   ch,
		subs: make(map[chan uint64]struct{}),
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/", s.handleIndex)
	router.Get("/events", s.handleEvents)
	s.router = router

	return s
}

// Handler returns the HTTP handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled. It blocks and returns nil after
// a clean shutdown.
func (s *Server) Run(ctx context.Context, addr string) error {
	logger := logging.FromContext(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("preview server listening", logging.FieldAddr, addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Broadcast tells every connected event-stream client that the snapshot with
// the given sequence number is available. Signals coalesce per client, the
// same way the content channel coalesces for its consumer.
func (s *Server) Broadcast(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		select {
		case sub <- seq:
		default:
		}
	}
}

func (s *Server) subscribe() chan uint64 {
	sub := make(chan uint64, 1)
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	return sub
}

func (s *Server) unsubscribe(sub chan uint64) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	snap, has := s.ch.Latest()
	if !has {
		_, _ = w.Write([]byte(waitingPage))
		return
	}

	_, _ = w.Write([]byte(snap.HTML))
	_, _ = fmt.Fprintf(w, reloadScript, snap.Seq)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := s.subscribe()
	defer s.unsubscribe(sub)

	for {
		select {
		case <-r.Context().Done():
			return
		case seq := <-sub:
			_, _ = fmt.Fprintf(w, "event: reload\ndata: %s\n\n", strconv.FormatUint(seq, 10))
			flusher.Flush()
		}
	}
}
