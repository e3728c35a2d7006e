// Package server exposes the scoring engine over HTTP.
package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/scorelens/cluster"
	"github.com/hrygo/scorelens/internal/metrics"
	"github.com/hrygo/scorelens/internal/profile"
	"github.com/hrygo/scorelens/scoring"
	"github.com/hrygo/scorelens/store"
	"github.com/hrygo/scorelens/worker"
)

// Server wires the engine components to the HTTP surface.
type Server struct {
	echoServer *echo.Echo
	Profile    *profile.Profile
	Store      *store.Store

	Predictor *scoring.Predictor
	Processor *worker.Processor
	Clusterer *cluster.Clusterer

	// Exemplar rebuilds for the same scope must not interleave with the
	// delete-then-insert replacement; one weighted(1) semaphore per
	// scope serializes them.
	rebuildLocks sync.Map // scope key -> *semaphore.Weighted
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(profile *profile.Profile, store *store.Store, predictor *scoring.Predictor, processor *worker.Processor, clusterer *cluster.Clusterer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{
		echoServer: e,
		Profile:    profile,
		Store:      store,
		Predictor:  predictor,
		Processor:  processor,
		Clusterer:  clusterer,
	}

	e.GET("/healthz", s.health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	apiV1 := e.Group("/api/v1")
	apiV1.POST("/answers", s.ingestAnswer)
	apiV1.POST("/cases/:caseId/questions/:question/predict", s.predict)
	apiV1.GET("/cases/:caseId/questions/:question/stats", s.corpusStats)
	apiV1.POST("/cases/:caseId/questions/:question/buckets/:bucket/exemplars/rebuild", s.rebuildExemplars)
	apiV1.GET("/cases/:caseId/questions/:question/buckets/:bucket/exemplars", s.listExemplars)
	apiV1.POST("/jobs/process", s.processJobs)

	return s
}

// Start begins serving and blocks until the listener fails or the
// context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.echoServer.Shutdown(context.Background())
	}()
	return s.echoServer.Start(fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port))
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echoServer.Shutdown(ctx)
}

// scopeLock returns the per-scope rebuild semaphore.
func (s *Server) scopeLock(scope string) *semaphore.Weighted {
	if lock, ok := s.rebuildLocks.Load(scope); ok {
		return lock.(*semaphore.Weighted)
	}
	lock, _ := s.rebuildLocks.LoadOrStore(scope, semaphore.NewWeighted(1))
	return lock.(*semaphore.Weighted)
}
