package server

import (
	"context"
	"net/http"
	"time"

	"fraud/internal/configuration"
	"fraud/internal/metrics"
	"fraud/internal/score"
)

// Server encapsulates the HTTP server of the application, providing controlled startup and shutdown.
type Server struct {
	server *http.Server
}

// ListenAndServe starts the HTTP server and begins listening on the configured address.
// Blocks until the server is stopped; after Shutdown it returns http.ErrServerClosed.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server, letting in-flight batches complete
// within the deadline of ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// NewServer creates and configures a new server instance.
//
// Parameters:
// - serverConfig: listen address and request body limit.
// - predictConfig: fail-fast mode and item limit of /predict.
// - scorer: the record scorer built from the loaded artifacts.
// - registry: prometheus registry, nil when metrics are disabled.
//
// Sets timeouts for reading and writing, and limits header size.
func NewServer(
	serverConfig configuration.ServerConfig,
	predictConfig configuration.PredictConfig,
	scorer *score.Scorer,
	registry *metrics.Registry,
) *Server {
	var observer score.Observer
	if registry != nil {
		observer = registry
	}
	batch := score.NewBatch(scorer, predictConfig.FailFast, observer)

	router := NewApiRouter(scorer, batch, registry, serverConfig.MaxBodyBytes, predictConfig.MaxItems)
	s := Server{&http.Server{
		Addr:              serverConfig.Address,
		Handler:           router.Mux(),
		ReadHeaderTimeout: time.Second * 3,
		ReadTimeout:       time.Second * 10,
		WriteTimeout:      time.Second * 30,
		MaxHeaderBytes:    1024 * 10,
	}}

	return &s
}
