package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"companion-bot/internal/observability"
)

// AliveText is what the uptime monitor expects on GET /.
const AliveText = "Sanal Arkadaş Botu Aktif ve Çalışıyor!"

// Server answers uptime probes and exposes metrics. It never touches the
// conversation, so it keeps responding while replies are being delayed.
type Server struct {
	server    *http.Server
	port      int
	backend   string
	metrics   *observability.Metrics
	startTime time.Time
}

func NewServer(port int, backend string, metrics *observability.Metrics) *Server {
	return &Server{
		port:      port,
		backend:   backend,
		metrics:   metrics,
		startTime: time.Now(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}

// Start blocks until the server stops. http.ErrServerClosed means a clean Stop.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log.Printf("🌐 Starting liveness server on :%d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(AliveText))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":          "ok",
		"storage_backend": s.backend,
		"uptime":          time.Since(s.startTime).Round(time.Second).String(),
	})
}
