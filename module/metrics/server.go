package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server is the http server that serves the /metrics endpoint for prometheus.
type Server struct {
	server *http.Server
	log    zerolog.Logger
}

// NewServer creates a server listening on addr that responds only to
// the `/metrics` endpoint.
func NewServer(log zerolog.Logger, addr string) *Server {
	mux := http.NewServeMux()
	endpoint := "/metrics"
	mux.Handle(endpoint, promhttp.Handler())

	return &Server{
		server: &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		log:    log.With().Str("component", "metrics_server").Str("address", addr).Logger(),
	}
}

// Run serves metrics until ctx is cancelled, then shuts the server down.
func (m *Server) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.server.Shutdown(shutdownCtx)
	}()

	m.log.Info().Msg("metrics server started")
	err := m.server.ListenAndServe()
	// http.ErrServerClosed is returned when Shutdown is called
	// we don't consider this an error, so print this with debug level instead
	if errors.Is(err, http.ErrServerClosed) {
		m.log.Debug().Msg("metrics server shutdown")
		return
	}
	m.log.Err(err).Msg("error running metrics server")
}
