// Package api exposes the maintenance REST surface. Authentication is
// handled upstream by the portal gateway, which forwards the caller's
// identity in X-User-ID and X-User-Role headers.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/fairhaven/upkeep/internal/maintenance"
	"github.com/fairhaven/upkeep/internal/metrics"
	"github.com/gin-gonic/gin"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	Store   *maintenance.Service
	Metrics *metrics.Recorder
	Port    int
	Out     io.Writer
}

// Start launches the API server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Store == nil {
		return fmt.Errorf("api: store is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router := NewRouter(opts.Store, opts.Metrics)

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "API listening on http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

// NewRouter builds the Gin router with all routes registered.
// Exposed separately so tests can exercise handlers without a listener.
func NewRouter(store *maintenance.Service, rec *metrics.Recorder) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, store, rec)
	return router
}
