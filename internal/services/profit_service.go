package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"batchprofit/internal/config"
	"batchprofit/internal/dataprocessing"
	"batchprofit/internal/exporter"
	"batchprofit/internal/infrastructure"
	"batchprofit/pkg/contracts/domain"
)

// ReloadBroadcaster pushes reload lifecycle events to dashboard clients.
// Implemented by the websocket hub; nil-safe in the service.
type ReloadBroadcaster interface {
	BroadcastReload(event string, payload interface{})
}

// resultSet is one immutable computation result. The service swaps the whole
// set atomically on reload so readers never observe a partial state.
type resultSet struct {
	profits    []domain.BatchProfit
	summary    domain.Summary
	categories []domain.CategorySummary
	quality    domain.QualityReport
	loadedAt   time.Time
}

// BatchFilter narrows the batch listing. Zero values mean no filtering.
type BatchFilter struct {
	Category      string
	Status        string
	UnmatchedOnly bool
	Search        string
}

// ProfitService owns the batch profit pipeline: it loads the workbook,
// computes the result set, holds it in memory and answers dashboard queries.
// The computation itself is a pure function of the workbook contents; the
// service only adds caching and change notification around it.
type ProfitService struct {
	cfg         *config.Config
	loader      *dataprocessing.Loader
	transformer *dataprocessing.Transformer
	calculator  *dataprocessing.Calculator
	csvWriter   *exporter.CSVWriter
	broadcaster ReloadBroadcaster
	metrics     *infrastructure.PipelineMetrics
	logger      *slog.Logger

	mu      sync.RWMutex
	current *resultSet
}

// NewProfitService creates the profit service. broadcaster and metrics may be
// nil; the service then skips notification and instrumentation.
func NewProfitService(cfg *config.Config, broadcaster ReloadBroadcaster, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *ProfitService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "profit_service"))

	return &ProfitService{
		cfg:         cfg,
		loader:      dataprocessing.NewLoader(cfg.Workbook, logger),
		transformer: dataprocessing.NewTransformer(logger),
		calculator:  dataprocessing.NewCalculator(cfg.Shares, cfg.Workbook.IncludeCategories, logger),
		csvWriter:   exporter.NewCSVWriter(cfg.Workbook.ReportsDir, logger),
		broadcaster: broadcaster,
		metrics:     metrics,
		logger:      logger,
	}
}

// Reload runs the full pipeline and swaps in the new result set. Any failure
// leaves the previous result set untouched.
func (s *ProfitService) Reload(ctx context.Context) error {
	start := time.Now()
	s.broadcast("reload_started", map[string]interface{}{
		"workbook": s.cfg.Workbook.Path,
	})

	s.logger.InfoContext(ctx, "reloading workbook",
		slog.String("path", s.cfg.Workbook.Path))

	wb, err := s.loader.Load()
	if err != nil {
		s.recordFailure(ctx, err)
		return fmt.Errorf("load workbook: %w", err)
	}

	if err := ctx.Err(); err != nil {
		s.recordFailure(ctx, err)
		return err
	}

	tr := s.transformer.Transform(wb)
	profits := s.calculator.Calculate(tr.Purchases, tr.Sales)

	next := &resultSet{
		profits:    profits,
		summary:    dataprocessing.Summarize(profits),
		categories: dataprocessing.SummarizeByCategory(profits),
		quality:    dataprocessing.BuildQualityReport(tr, profits),
		loadedAt:   time.Now(),
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.Loads.Add(ctx, 1)
		s.metrics.RowsParsed.Add(ctx, int64(len(tr.Purchases)+len(tr.Sales)))
		s.metrics.RowsSkipped.Add(ctx, int64(len(tr.Skipped)))
		s.metrics.CellsZeroFilled.Add(ctx, int64(tr.ZeroFilledCells))
		s.metrics.BatchesComputed.Add(ctx, int64(len(profits)))
		s.metrics.LoadDuration.Record(ctx, elapsed.Seconds())
	}

	s.logger.InfoContext(ctx, "reload complete",
		slog.Int("batches", len(profits)),
		slog.Int("skipped_rows", len(tr.Skipped)),
		slog.Duration("elapsed", elapsed))

	s.broadcast("reload_completed", map[string]interface{}{
		"batches":      len(profits),
		"skipped_rows": len(tr.Skipped),
		"loaded_at":    next.loadedAt,
	})

	return nil
}

func (s *ProfitService) recordFailure(ctx context.Context, err error) {
	if s.metrics != nil {
		s.metrics.LoadFailures.Add(ctx, 1)
	}
	s.logger.ErrorContext(ctx, "reload failed", slog.String("error", err.Error()))
	s.broadcast("reload_failed", map[string]interface{}{
		"error": err.Error(),
	})
}

func (s *ProfitService) broadcast(event string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastReload(event, payload)
	}
}

// snapshot returns the current result set or ErrNotLoaded.
func (s *ProfitService) snapshot() (*resultSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNotLoaded
	}
	return s.current, nil
}

// Loaded reports whether a result set is available.
func (s *ProfitService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// LoadedAt returns when the current result set was computed.
func (s *ProfitService) LoadedAt() (time.Time, error) {
	rs, err := s.snapshot()
	if err != nil {
		return time.Time{}, err
	}
	return rs.loadedAt, nil
}

// Batches returns the batch profit records matching the filter, in the
// calculator's deterministic order.
func (s *ProfitService) Batches(ctx context.Context, filter BatchFilter) ([]domain.BatchProfit, error) {
	rs, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	matched := make([]domain.BatchProfit, 0, len(rs.profits))
	for _, bp := range rs.profits {
		if !matchesFilter(bp, filter) {
			continue
		}
		matched = append(matched, bp)
	}

	s.logger.DebugContext(ctx, "batches queried",
		slog.Int("matched", len(matched)),
		slog.Int("total", len(rs.profits)))

	return matched, nil
}

// Batch returns one batch by its reference.
func (s *ProfitService) Batch(ctx context.Context, ref string) (domain.BatchProfit, error) {
	rs, err := s.snapshot()
	if err != nil {
		return domain.BatchProfit{}, err
	}
	for _, bp := range rs.profits {
		if bp.BatchRef == ref {
			return bp, nil
		}
	}
	return domain.BatchProfit{}, fmt.Errorf("%w: %s", ErrBatchNotFound, ref)
}

// Summary returns the portfolio summary.
func (s *ProfitService) Summary(ctx context.Context) (domain.Summary, error) {
	rs, err := s.snapshot()
	if err != nil {
		return domain.Summary{}, err
	}
	return rs.summary, nil
}

// CategorySummaries returns the per-category reductions.
func (s *ProfitService) CategorySummaries(ctx context.Context) ([]domain.CategorySummary, error) {
	rs, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return rs.categories, nil
}

// Quality returns the data-quality report for the current load.
func (s *ProfitService) Quality(ctx context.Context) (domain.QualityReport, error) {
	rs, err := s.snapshot()
	if err != nil {
		return domain.QualityReport{}, err
	}
	return rs.quality, nil
}

// ExportCSV streams the batch profit report to out.
func (s *ProfitService) ExportCSV(ctx context.Context, out io.Writer) error {
	rs, err := s.snapshot()
	if err != nil {
		return err
	}
	return s.csvWriter.StreamBatchProfits(out, rs.profits)
}

// WriteReport writes the batch profit report into the reports directory and
// returns the file name used.
func (s *ProfitService) WriteReport(ctx context.Context) (string, error) {
	rs, err := s.snapshot()
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("batch_profit_%s.csv", rs.loadedAt.Format("2006-01-02_150405"))
	if err := s.csvWriter.WriteBatchProfits(name, rs.profits); err != nil {
		return "", err
	}
	return name, nil
}

func matchesFilter(bp domain.BatchProfit, filter BatchFilter) bool {
	if filter.Category != "" && !strings.EqualFold(string(bp.Category), filter.Category) {
		return false
	}
	if filter.Status != "" && !strings.EqualFold(string(bp.Status), filter.Status) {
		return false
	}
	if filter.UnmatchedOnly && !bp.Unmatched() {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(bp.BatchRef), needle) &&
			!strings.Contains(strings.ToLower(bp.ItemCode), needle) &&
			!strings.Contains(strings.ToLower(bp.ItemName), needle) {
			return false
		}
	}
	return true
}
