// ABOUTME: Read-only HTTP server over the graph
// ABOUTME: Serves relationship JSON, dependents graphs, and Prometheus metrics
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/kinship/cascade"
	"github.com/harperreed/kinship/db"
	"github.com/harperreed/kinship/logging"
	"github.com/harperreed/kinship/models"
	"github.com/harperreed/kinship/strength"
	"github.com/harperreed/kinship/viz"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	db        *db.DB
	agg       *strength.Aggregator
	engine    *cascade.Engine
	generator *viz.GraphGenerator
	gatherer  prometheus.Gatherer
	logger    *log.Logger
}

func NewServer(database *db.DB, agg *strength.Aggregator, engine *cascade.Engine, gatherer prometheus.Gatherer, logger *log.Logger) *Server {
	return &Server{
		db:        database,
		agg:       agg,
		engine:    engine,
		generator: viz.NewGraphGenerator(engine),
		gatherer:  gatherer,
		logger:    logging.OrDefault(logger),
	}
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /relationships/{id}", s.handleRelationship)
	mux.HandleFunc("GET /relationships/{id}/graph", s.handleGraph)
	mux.HandleFunc("GET /users/{id}/bookmarks", s.handleBookmarks)
	mux.HandleFunc("GET /{kind}/{id}/dependents", s.handleDependents)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting web server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRelationship(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rel, err := s.db.GetRelationship(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	total, err := s.agg.Current(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	changes, err := s.db.Revisions.Changes(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"relationship": rel,
		"strength":     total,
		"changes":      changes,
	})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	dot, err := s.generator.GenerateDependentsGraph(r.Context(), models.RelationshipRef(r.PathValue("id")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	fmt.Fprint(w, dot)
}

func (s *Server) handleBookmarks(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := s.db.BookmarksByUser(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, bookmarks)
}

func (s *Server) handleDependents(w http.ResponseWriter, r *http.Request) {
	kind := models.Kind(r.PathValue("kind"))
	switch kind {
	case "users":
		kind = models.KindUser
	case "relationships":
		kind = models.KindRelationship
	default:
		http.NotFound(w, r)
		return
	}

	stats, err := viz.GenerateDashboardStats(r.Context(), s.engine, s.agg, models.Ref{ID: r.PathValue("id"), Type: kind})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, models.ErrNotFound) {
		status = http.StatusNotFound
	} else {
		s.logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}
