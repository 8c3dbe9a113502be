// Package metrics exposes the service's prometheus counters.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	WorkbooksGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_sheets_workbooks_generated_total",
			Help: "Workbooks generated, by kind (template, export)",
		},
		[]string{"kind"},
	)

	ImportSessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_sheets_import_sessions_total",
			Help: "Import session events (opened, uploaded, parse_failed, repicked, closed)",
		},
		[]string{"event"},
	)

	ImportSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_sheets_import_submissions_total",
			Help: "Confirmed imports by outcome (success, partial, aborted, error)",
		},
		[]string{"outcome"},
	)

	ImportRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_sheets_import_rows_total",
			Help: "Imported rows by result (created, updated, failed, unmapped)",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// Register adds the collectors to the default registry once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(WorkbooksGenerated, ImportSessions, ImportSubmissions, ImportRows)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveWorkbook(kind string) {
	WorkbooksGenerated.WithLabelValues(kind).Inc()
}

func ObserveSession(event string) {
	ImportSessions.WithLabelValues(event).Inc()
}

func ObserveSubmission(outcome string) {
	ImportSubmissions.WithLabelValues(outcome).Inc()
}

// ObserveRows records the row counts of one confirmed import.
func ObserveRows(created, updated, failed, unmapped int) {
	ImportRows.WithLabelValues("created").Add(float64(created))
	ImportRows.WithLabelValues("updated").Add(float64(updated))
	ImportRows.WithLabelValues("failed").Add(float64(failed))
	ImportRows.WithLabelValues("unmapped").Add(float64(unmapped))
}
