// Package metrics records the outcome of an updater run for the Prometheus
// node_exporter textfile collector. Gauges live in a private registry so that
// a run writes only its own series. Snapshot and pipeline gauges are exported
// only once observed, so a failed run does not report zero records.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ecpharm/internal/models"
	"ecpharm/internal/normalizer"
)

// Recorder holds the gauges of one run.
type Recorder struct {
	registry     *prometheus.Registry
	snapshotOnce sync.Once
	reportOnce   sync.Once

	Records             prometheus.Gauge
	NullIDs             prometheus.Gauge
	EmptyMunicipalities prometheus.Gauge
	MissingColumns      prometheus.Gauge
	AddressRules        *prometheus.GaugeVec
	RunDuration         prometheus.Gauge
	LastSuccess         prometheus.Gauge
	UpToDate            prometheus.Gauge
}

// NewRecorder creates and registers the run gauges.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		Records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecpharm_records",
			Help: "Pharmacy records in the latest snapshot",
		}),
		NullIDs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecpharm_null_ids",
			Help: "Records whose pharmacy number was missing or not numeric",
		}),
		EmptyMunicipalities: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecpharm_empty_municipalities",
			Help: "Records for which no municipality could be guessed",
		}),
		MissingColumns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecpharm_missing_columns",
			Help: "Expected source columns absent from the spreadsheet",
		}),
		AddressRules: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ecpharm_address_rule_hits",
				Help: "Addresses split by each segmentation rule",
			},
			[]string{"rule"},
		),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecpharm_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecpharm_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
		UpToDate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecpharm_up_to_date",
			Help: "1 when the run found the snapshot already present",
		}),
	}

	r.registry.MustRegister(
		r.RunDuration,
		r.LastSuccess,
		r.UpToDate,
	)

	return r
}

// ObserveSnapshot sets the record gauges from the published records. It serves
// both a fresh build and a run that found the snapshot already present.
func (r *Recorder) ObserveSnapshot(records []models.CleanRecord) {
	r.snapshotOnce.Do(func() {
		r.registry.MustRegister(r.Records, r.NullIDs, r.EmptyMunicipalities)
	})

	var nullIDs, emptyMunis int
	for _, rec := range records {
		if rec.ID == nil {
			nullIDs++
		}
		if rec.Muni == "" {
			emptyMunis++
		}
	}

	r.Records.Set(float64(len(records)))
	r.NullIDs.Set(float64(nullIDs))
	r.EmptyMunicipalities.Set(float64(emptyMunis))
}

// ObserveReport copies the counters that only a fresh build produces.
func (r *Recorder) ObserveReport(rep normalizer.Report) {
	r.reportOnce.Do(func() {
		r.registry.MustRegister(r.MissingColumns, r.AddressRules)
	})

	r.MissingColumns.Set(float64(len(rep.MissingColumns)))

	for rule, n := range rep.RuleHits {
		r.AddressRules.WithLabelValues(rule).Set(float64(n))
	}
}

// ObserveRun records how the run ended. Failed runs leave LastSuccess unset.
func (r *Recorder) ObserveRun(took time.Duration, success, upToDate bool, now time.Time) {
	r.RunDuration.Set(took.Seconds())

	if upToDate {
		r.UpToDate.Set(1)
	} else {
		r.UpToDate.Set(0)
	}

	if success {
		r.LastSuccess.Set(float64(now.Unix()))
	}
}

// WriteTextfile writes the gauges in text exposition format. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}

	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}

	return nil
}
