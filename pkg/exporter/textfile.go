package exporter

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
)

// Writer periodically renders the metrics of a gatherer into a file, for a
// node_exporter's textfile collector to pick up.
//
type Writer struct {
	// path is where the rendered metrics end up. It's always replaced
	// as a whole, never appended to.
	//
	path string

	// interval is how long to wait after a write before starting the
	// next one.
	//
	interval time.Duration

	// gatherer is where metrics are gathered from on every write.
	//
	gatherer prometheus.Gatherer

	log logr.Logger
}

// WriterOption is a functional argument that overrides Writer defaults.
//
type WriterOption func(w *Writer)

// WithInterval overrides the default interval of one minute.
//
func WithInterval(v time.Duration) WriterOption {
	return func(w *Writer) {
		w.interval = v
	}
}

// WithWriterLogger overrides the default no-op logger.
//
func WithWriterLogger(v logr.Logger) WriterOption {
	return func(w *Writer) {
		w.log = v
	}
}

// NewWriter.
//
func NewWriter(
	path string, gatherer prometheus.Gatherer, opts ...WriterOption,
) (*Writer, error) {
	if path == "" {
		return nil, fmt.Errorf("path must not be empty")
	}

	if gatherer == nil {
		return nil, fmt.Errorf("gatherer must not be nil")
	}

	w := &Writer{
		path:     path,
		interval: time.Minute,
		gatherer: gatherer,
		log:      logr.Discard(),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", w.interval)
	}

	return w, nil
}

// Run writes the metrics, waits for the interval, and repeats until the
// context is cancelled. Failing writes are logged and don't stop the loop.
//
// ps.: this is a BLOCKING method.
//
func (w *Writer) Run(ctx context.Context) error {
	w.log.WithValues(
		"path", w.path,
		"interval", w.interval.String(),
	).Info("writing")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("ctx err: %w", ctx.Err())
		case <-timer.C:
		}

		if err := w.WriteOnce(); err != nil {
			w.log.Error(err, "write")
		}

		timer.Reset(w.interval)
	}
}

// WriteOnce gathers the metrics and atomically replaces the file with their
// text rendering. When gathering fails nothing is written and the previous
// file stays in place.
//
func (w *Writer) WriteOnce() error {
	if err := prometheus.WriteToTextfile(w.path, w.gatherer); err != nil {
		return fmt.Errorf("write to textfile '%s': %w", w.path, err)
	}

	w.log.V(1).Info("wrote", "path", w.path)

	return nil
}
