package dataprocessing

import (
	"sort"

	"github.com/shopspring/decimal"

	"batchprofit/pkg/contracts/domain"
)

// Summarize reduces the full BatchProfit set into the portfolio summary.
// Pure reduction; the only subtlety is the zero-revenue guard on the margin.
func Summarize(profits []domain.BatchProfit) domain.Summary {
	s := domain.Summary{
		TotalBatches:  len(profits),
		TotalCost:     decimal.Zero,
		TotalRevenue:  decimal.Zero,
		TotalFreeLoss: decimal.Zero,
		TotalProfit:   decimal.Zero,
	}

	for _, bp := range profits {
		s.TotalCost = s.TotalCost.Add(bp.TotalCost)
		s.TotalRevenue = s.TotalRevenue.Add(bp.Revenue)
		s.TotalFreeLoss = s.TotalFreeLoss.Add(bp.FreeGoodsLoss)
		s.TotalProfit = s.TotalProfit.Add(bp.Profit)

		switch bp.Status {
		case domain.StatusProfit:
			s.ProfitCount++
		case domain.StatusLoss:
			s.LossCount++
		default:
			s.BreakevenCount++
		}

		switch {
		case bp.HasPurchase && bp.HasSales:
			s.MatchedBatches++
		case bp.HasPurchase:
			s.PurchaseOnlyBatches++
		default:
			s.SalesOnlyBatches++
		}
	}

	if !s.TotalRevenue.IsZero() {
		s.OverallMargin = s.TotalProfit.Div(s.TotalRevenue)
	}

	return s
}

// SummarizeByCategory produces per-category reductions, sorted by category
// for stable output. Batches without a recognizable category group under "".
func SummarizeByCategory(profits []domain.BatchProfit) []domain.CategorySummary {
	byCategory := make(map[domain.Category]*domain.CategorySummary)

	for _, bp := range profits {
		cs, ok := byCategory[bp.Category]
		if !ok {
			cs = &domain.CategorySummary{
				Category:     bp.Category,
				TotalCost:    decimal.Zero,
				TotalRevenue: decimal.Zero,
				TotalProfit:  decimal.Zero,
			}
			byCategory[bp.Category] = cs
		}
		cs.TotalBatches++
		cs.TotalCost = cs.TotalCost.Add(bp.TotalCost)
		cs.TotalRevenue = cs.TotalRevenue.Add(bp.Revenue)
		cs.TotalProfit = cs.TotalProfit.Add(bp.Profit)
		switch bp.Status {
		case domain.StatusProfit:
			cs.ProfitCount++
		case domain.StatusLoss:
			cs.LossCount++
		}
	}

	summaries := make([]domain.CategorySummary, 0, len(byCategory))
	for _, cs := range byCategory {
		if !cs.TotalRevenue.IsZero() {
			cs.OverallMargin = cs.TotalProfit.Div(cs.TotalRevenue)
		}
		summaries = append(summaries, *cs)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Category < summaries[j].Category
	})

	return summaries
}

// BuildQualityReport assembles the quality report from the transform result
// and the computed batches.
func BuildQualityReport(tr *TransformResult, profits []domain.BatchProfit) domain.QualityReport {
	report := domain.QualityReport{
		SkippedRows:      tr.Skipped,
		ZeroFilledCells:  tr.ZeroFilledCells,
		UnkeyedPurchases: tr.UnkeyedPurchases,
		UnkeyedSales:     tr.UnkeyedSales,
	}
	if report.SkippedRows == nil {
		report.SkippedRows = []domain.SkippedRow{}
	}
	report.PurchaseOnly = []string{}
	report.SalesOnly = []string{}
	for _, bp := range profits {
		switch {
		case bp.HasPurchase && !bp.HasSales:
			report.PurchaseOnly = append(report.PurchaseOnly, bp.BatchRef)
		case bp.HasSales && !bp.HasPurchase:
			report.SalesOnly = append(report.SalesOnly, bp.BatchRef)
		}
	}
	return report
}
