// Package updater runs one update of the pharmacy list: fetch, normalize, write, publish.
package updater

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"slices"
	"time"

	"ecpharm/internal/config"
	"ecpharm/internal/crawler"
	"ecpharm/internal/formatter"
	"ecpharm/internal/logger"
	"ecpharm/internal/metrics"
	"ecpharm/internal/models"
	"ecpharm/internal/normalizer"
	"ecpharm/internal/sheet"
	"ecpharm/internal/snapshot"
	"ecpharm/internal/validator"
	"ecpharm/pkg/digest"
	"ecpharm/pkg/utils"
)

// Run errors.
var (
	ErrInvalidPageURL = errors.New("page URL must be an absolute http(s) URL")
	ErrMissingAsOf    = errors.New("local mode requires an as-of date")
	ErrInvalidAsOf    = errors.New("as-of date must be YYYY-MM-DD")
)

// Options selects the run mode. An empty LocalXLSX means remote mode.
type Options struct {
	LocalXLSX string
	AsOf      string

	// SourceXlsx is recorded as meta.sourceXlsx in local mode. Defaults to LocalXLSX.
	SourceXlsx string
}

// Outcome describes what a run did.
type Outcome struct {
	RunID    string
	AsOf     string
	UpToDate bool
	Paths    snapshot.Paths
	Snapshot models.Snapshot
	Report   normalizer.Report
	Header   *validator.ValidationResult
	Digests  []digest.Sum
	Summary  string
	Duration time.Duration
}

// Runner wires the crawler, the pipeline and the artifact store.
type Runner struct {
	cfg       *config.Config
	log       *logger.Logger
	client    *crawler.Client
	store     *snapshot.Store
	processor *normalizer.Processor
	headers   *validator.HeaderValidator
	metrics   *metrics.Recorder
	urls      *utils.HTTPHelper
	clock     normalizer.Clock
	runID     string
}

// NewRunner creates a runner from configuration using the wall clock.
func NewRunner(cfg *config.Config, log *logger.Logger) (*Runner, error) {
	return NewRunnerWithClock(cfg, log, nil)
}

// NewRunnerWithClock creates a runner whose dates come from clock. A nil clock uses time.Now.
func NewRunnerWithClock(cfg *config.Config, log *logger.Logger, clock normalizer.Clock) (*Runner, error) {
	pattern, err := regexp.Compile(cfg.Source.SpreadsheetPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid spreadsheet pattern: %w", err)
	}

	if clock == nil {
		clock = time.Now
	}

	if log == nil {
		log = logger.NewLogger(cfg.Logging.Level)
	}

	runID := logger.NewRunID()
	runLog := log.ForRun(runID)

	scraper := crawler.NewScraperWithConfig(cfg.Fetch, cfg.Source.UserAgent)

	return &Runner{
		cfg:       cfg,
		log:       runLog,
		client:    crawler.NewClientWithDeps(scraper, pattern, clock),
		store:     snapshot.NewStore(cfg.Output),
		processor: normalizer.NewProcessor(runLog),
		headers:   validator.NewHeaderValidator(),
		metrics:   metrics.NewRecorder(),
		urls:      utils.NewHTTPHelper(cfg.Source.UserAgent),
		clock:     clock,
		runID:     runID,
	}, nil
}

// RunID returns the identifier attached to this runner's log records.
func (r *Runner) RunID() string {
	return r.runID
}

// Run performs one update. A snapshot that already exists for the as-of date
// ends the run early with Outcome.UpToDate set and nothing written.
func (r *Runner) Run(ctx context.Context, opts Options) (*Outcome, error) {
	start := r.clock()

	var (
		out *Outcome
		err error
	)

	if opts.LocalXLSX != "" {
		out, err = r.runLocal(opts)
	} else {
		out, err = r.runRemote(ctx)
	}

	took := r.clock().Sub(start)
	upToDate := out != nil && out.UpToDate

	r.metrics.ObserveRun(took, err == nil, upToDate, r.clock())
	if werr := r.metrics.WriteTextfile(r.cfg.Metrics.Textfile); werr != nil {
		r.log.Warn("Could not write metrics", "error", werr)
	}

	if err != nil {
		r.log.Error("Update failed", "error", err, "duration", took)
		return nil, err
	}

	out.RunID = r.runID
	out.Duration = took

	return out, nil
}

func (r *Runner) runRemote(ctx context.Context) (*Outcome, error) {
	pageURL := r.cfg.Source.PageURL
	if !r.urls.IsValidURL(pageURL) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPageURL, pageURL)
	}

	r.log.Info("Inspecting source page", "url", pageURL)

	info, err := r.client.InspectPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	if !info.AsOfFound {
		r.log.Warn("As-of date not found on page, using today", "as_of", info.AsOf)
	}

	r.log.Info("Source page inspected", "as_of", info.AsOf, "spreadsheet", info.SpreadsheetURL)

	if out, done, err := r.gate(info.AsOf); done || err != nil {
		return out, err
	}

	r.log.Info("Downloading spreadsheet", "url", info.SpreadsheetURL)

	data, err := r.client.DownloadSpreadsheet(ctx, info.SpreadsheetURL)
	if err != nil {
		return nil, err
	}

	return r.build(data, normalizer.Source{
		AsOf:     info.AsOf,
		PageURL:  info.PageURL,
		SheetURL: info.SpreadsheetURL,
	})
}

func (r *Runner) runLocal(opts Options) (*Outcome, error) {
	if opts.AsOf == "" {
		return nil, ErrMissingAsOf
	}

	if _, err := time.Parse(normalizer.DateLayout, opts.AsOf); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAsOf, opts.AsOf)
	}

	if out, done, err := r.gate(opts.AsOf); done || err != nil {
		return out, err
	}

	r.log.Info("Reading local spreadsheet", "path", opts.LocalXLSX)

	data, err := r.client.ReadSpreadsheet(opts.LocalXLSX)
	if err != nil {
		return nil, err
	}

	sheetURL := opts.SourceXlsx
	if sheetURL == "" {
		sheetURL = opts.LocalXLSX
	}

	return r.build(data, normalizer.Source{
		AsOf:     opts.AsOf,
		PageURL:  r.cfg.Source.PageURL,
		SheetURL: sheetURL,
	})
}

// gate reports done when the JSON snapshot for asOf is already on disk.
func (r *Runner) gate(asOf string) (*Outcome, bool, error) {
	exists, err := r.store.Exists(asOf)
	if err != nil {
		return nil, false, err
	}

	if !exists {
		return nil, false, nil
	}

	out := &Outcome{AsOf: asOf, UpToDate: true, Paths: r.store.Paths(asOf)}
	r.log.Info("No update needed", "as_of", asOf, "json", out.Paths.JSON)

	payload, err := r.store.LoadSnapshot(asOf)
	if err != nil {
		r.log.Warn("Existing snapshot unreadable, record metrics omitted", "error", err)
		return out, true, nil
	}

	out.Snapshot = models.Snapshot{Meta: payload.Meta, Records: payload.Data}
	r.metrics.ObserveSnapshot(payload.Data)

	return out, true, nil
}

// build normalizes the workbook bytes and writes every artifact. The JSON
// snapshot goes last so an interrupted run is redone next time.
func (r *Runner) build(data []byte, src normalizer.Source) (*Outcome, error) {
	out := &Outcome{AsOf: src.AsOf, Paths: r.store.Paths(src.AsOf)}

	if r.cfg.Output.KeepRaw {
		path, err := r.store.WriteRaw(src.AsOf, data)
		if err != nil {
			return nil, err
		}

		r.log.Debug("Raw spreadsheet saved", "path", path)
	}

	frame, err := sheet.Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse spreadsheet: %w", err)
	}

	out.Header = r.headers.Validate(frame.Columns())
	for _, w := range out.Header.Warnings {
		r.log.Warn("Source header", "warning", w)
	}

	result, err := r.processor.Process(frame, src)
	if err != nil {
		return nil, err
	}

	out.Report = result.Report
	out.Snapshot = models.Snapshot{
		Meta:    models.NewMeta(src.AsOf, src.PageURL, src.SheetURL, len(result.Records), r.clock()),
		Records: result.Records,
	}

	r.log.Info("Records normalized",
		"records", len(result.Records),
		"null_ids", result.Report.NullIDs,
		"empty_municipalities", result.Report.EmptyMunicipalities,
	)

	if r.log.Enabled(slog.LevelDebug) {
		for _, rule := range slices.Sorted(maps.Keys(result.Report.RuleHits)) {
			r.log.Debug("Address rule", "rule", rule, "hits", result.Report.RuleHits[rule])
		}
	}

	if err := r.store.WriteTables(src.AsOf, result.Clean, out.Snapshot.Meta); err != nil {
		return nil, err
	}

	out.Summary = formatter.Summary(out.Snapshot)
	if r.cfg.Output.WriteSummary {
		if _, err := r.store.WriteSummary(src.AsOf, out.Summary); err != nil {
			return nil, err
		}
	}

	jsonPath, err := r.store.WriteJSON(out.Snapshot)
	if err != nil {
		return nil, err
	}

	out.Digests, err = r.store.Publish(jsonPath)
	if err != nil {
		return nil, err
	}

	r.metrics.ObserveSnapshot(result.Records)
	r.metrics.ObserveReport(result.Report)
	r.log.Info("Snapshot published", "json", jsonPath, "mirrors", len(r.store.Mirrors()))

	return out, nil
}
