package util

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsPath is the only path the metrics server answers on
const MetricsPath = "/metrics"

// slogPromLogger routes promhttp encoding errors to slog
type slogPromLogger struct {
	logger *slog.Logger
}

func (l slogPromLogger) Println(v ...any) {
	l.logger.Error("failed to serve metrics", "details", fmt.Sprint(v...))
}

// StartMetricsServerIfEnabled reads "<prefix>.enabled", "<prefix>.listen-address"
// and "<prefix>.listen-port" from configSpec and, when enabled, serves the
// metrics of gatherer (prometheus.DefaultGatherer when nil) on MetricsPath.
//
// The listener is bound before returning, so Addr holds the resolved port.
// A nil server means metrics are disabled; otherwise the caller owns it and
// shuts it down.
func StartMetricsServerIfEnabled(configSpec ConfigSpec, prefix string,
	gatherer prometheus.Gatherer, logger *slog.Logger) (*http.Server, error) {
	if !configSpec.GetBool(prefix + ".enabled") {
		return nil, nil
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	addr := net.JoinHostPort(
		configSpec.GetString(prefix+".listen-address"),
		strconv.Itoa(configSpec.GetInt(prefix+".listen-port")),
	)
	listener, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics server cannot listen on %s: %w", addr, err)
	}

	server := &http.Server{
		Addr:              listener.Addr().String(),
		Handler:           metricsHandler(gatherer, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	logger.Info("metrics server started", "address", server.Addr)
	return server, nil
}

func metricsHandler(gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog: slogPromLogger{logger: logger},
	}))
	return mux
}
