package exporter

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter is responsible for bringing up a web server that serves the
// metrics of a gatherer, collecting them anew for every request.
//
type Exporter struct {
	// ListenAddress is the full address used by prometheus
	// to listen for scraping requests.
	//
	// Examples:
	// - :9305
	// - 127.0.0.1:9305
	//
	listenAddress string

	// TelemetryPath configures the path under which
	// the prometheus metrics are reported.
	//
	// For instance:
	// - /metrics
	// - /telemetry
	//
	telemetryPath string

	// gatherer is where metrics are gathered from on every scrape.
	//
	gatherer prometheus.Gatherer

	// listener is the TCP listener used by the webserver. `nil` if no
	// server is running.
	//
	listener net.Listener

	log logr.Logger
}

// Option.
//
type Option func(e *Exporter)

// WithListenAddress overrides the default address (127.0.0.1:9305).
//
func WithListenAddress(v string) Option {
	return func(e *Exporter) {
		e.listenAddress = v
	}
}

// WithTelemetryPath overrides the default path (/metrics).
//
func WithTelemetryPath(v string) Option {
	return func(e *Exporter) {
		e.telemetryPath = v
	}
}

// WithLogger overrides the default no-op logger.
//
func WithLogger(v logr.Logger) Option {
	return func(e *Exporter) {
		e.log = v
	}
}

// New.
//
func New(gatherer prometheus.Gatherer, opts ...Option) (*Exporter, error) {
	if gatherer == nil {
		return nil, errors.New("gatherer must not be nil")
	}

	e := &Exporter{
		listenAddress: "127.0.0.1:9305",
		telemetryPath: "/metrics",
		gatherer:      gatherer,
		log:           logr.Discard(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Handler is the http handler that Run serves: metrics under the telemetry
// path, and a landing page pointing at it under `/`.
//
func (e *Exporter) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle(e.telemetryPath, promhttp.HandlerFor(e.gatherer,
		promhttp.HandlerOpts{
			ErrorLog:      &promLogger{log: e.log},
			ErrorHandling: promhttp.ContinueOnError,
		},
	))

	if e.telemetryPath != "/" {
		mux.HandleFunc("/", e.landingPage)
	}

	return mux
}

var landingPageTemplate = template.Must(template.New("landing").Parse(`<html>
<head><title>Ether Exporter</title></head>
<body>
<h1>Ether Exporter</h1>
<p><a href="{{ . }}">Metrics</a></p>
</body>
</html>
`))

func (e *Exporter) landingPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := landingPageTemplate.Execute(w, e.telemetryPath); err != nil {
		e.log.Error(err, "landing page")
	}
}

// Run initiates the HTTP server to serve the metrics.
//
// ps.: this is a BLOCKING method - make sure you either make use of goroutines
// to not block if needed.
//
func (e *Exporter) Run(ctx context.Context) error {
	var err error

	e.listener, err = net.Listen("tcp", e.listenAddress)
	if err != nil {
		return fmt.Errorf("listen on '%s': %w", e.listenAddress, err)
	}

	server := &http.Server{
		Handler:           e.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	doneChan := make(chan error, 1)

	go func() {
		defer close(doneChan)

		e.log.WithValues(
			"addr", e.listener.Addr().String(),
			"path", e.telemetryPath,
		).Info("listening")

		if err := server.Serve(e.listener); err != nil {
			doneChan <- fmt.Errorf(
				"failed listening on address %s: %w",
				e.listenAddress, err,
			)
		}
	}()

	select {
	case err = <-doneChan:
		if err != nil {
			return fmt.Errorf("donechan err: %w", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("ctx err: %w", ctx.Err())
	}

	return nil
}

// Close closes the tcp listener associated with it.
//
func (e *Exporter) Close() (err error) {
	if e.listener == nil {
		return nil
	}

	e.log.Info("closing")
	if err := e.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("close: %w", err)
	}

	return nil
}

// promLogger adapts a logr.Logger to what promhttp expects for reporting
// errors that happen while gathering or encoding metrics.
//
type promLogger struct {
	log logr.Logger
}

func (l *promLogger) Println(v ...interface{}) {
	l.log.Info("promhttp", "msg", fmt.Sprint(v...))
}
