package domain

import (
	"github.com/shopspring/decimal"
)

// Summary is the portfolio-level reduction over every BatchProfit record.
type Summary struct {
	TotalBatches  int             `json:"total_batches"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalFreeLoss decimal.Decimal `json:"total_free_loss"`
	TotalProfit   decimal.Decimal `json:"total_profit"`
	// OverallMargin is TotalProfit/TotalRevenue; zero when revenue is zero.
	OverallMargin decimal.Decimal `json:"overall_margin"`

	ProfitCount    int `json:"profit_count"`
	LossCount      int `json:"loss_count"`
	BreakevenCount int `json:"breakeven_count"`

	MatchedBatches      int `json:"matched_batches"`
	PurchaseOnlyBatches int `json:"purchase_only_batches"`
	SalesOnlyBatches    int `json:"sales_only_batches"`
}

// CategorySummary is the same reduction keyed by purchase category.
type CategorySummary struct {
	Category      Category        `json:"category"`
	TotalBatches  int             `json:"total_batches"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalProfit   decimal.Decimal `json:"total_profit"`
	OverallMargin decimal.Decimal `json:"overall_margin"`
	ProfitCount   int             `json:"profit_count"`
	LossCount     int             `json:"loss_count"`
}

// SkippedRow records an input row excluded from the computation, with the
// reason it could not be modelled.
type SkippedRow struct {
	Sheet  string `json:"sheet"`
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// QualityReport surfaces the data-quality signals collected during a load:
// rows excluded for invalid values, cells zero-filled for missing values, and
// batches present on only one side of the join.
type QualityReport struct {
	SkippedRows      []SkippedRow `json:"skipped_rows"`
	ZeroFilledCells  int          `json:"zero_filled_cells"`
	UnkeyedPurchases int          `json:"unkeyed_purchases"`
	UnkeyedSales     int          `json:"unkeyed_sales"`
	PurchaseOnly     []string     `json:"purchase_only"`
	SalesOnly        []string     `json:"sales_only"`
}
