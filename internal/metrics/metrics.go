// Package metrics provides Prometheus metrics for page runs.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event types and load results are the only labels.
var (
	// ContextEventsTotal counts trusted WebGL context events fired at canvases.
	ContextEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glcontext_context_events_total",
		Help: "Total number of WebGL context events fired, by event type.",
	}, []string{"type"})

	// ScriptErrorsTotal counts uncaught script exceptions and compile errors.
	ScriptErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "glcontext_script_errors_total",
		Help: "Total number of script errors recorded by runtimes.",
	})

	// ScriptLoadsTotal counts external script loads by result (ok/error).
	ScriptLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glcontext_script_loads_total",
		Help: "Total number of external script loads, by result.",
	}, []string{"result"})
)

// RecordScriptLoad counts one external script load.
func RecordScriptLoad(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ScriptLoadsTotal.WithLabelValues(result).Inc()
}

// WriteTextfile writes the default registry in text exposition format,
// for the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
