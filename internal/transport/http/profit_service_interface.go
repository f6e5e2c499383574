package http

import (
	"context"
	"io"

	"batchprofit/internal/services"
	"batchprofit/pkg/contracts/domain"
)

// ProfitReader is the service surface the profit handler depends on.
// Implemented by services.ProfitService; narrowed for testability.
type ProfitReader interface {
	Reload(ctx context.Context) error
	Batches(ctx context.Context, filter services.BatchFilter) ([]domain.BatchProfit, error)
	Batch(ctx context.Context, ref string) (domain.BatchProfit, error)
	Summary(ctx context.Context) (domain.Summary, error)
	CategorySummaries(ctx context.Context) ([]domain.CategorySummary, error)
	Quality(ctx context.Context) (domain.QualityReport, error)
	ExportCSV(ctx context.Context, out io.Writer) error
}
