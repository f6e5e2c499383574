package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batchprofit/pkg/contracts/domain"
)

func sampleProfits() []domain.BatchProfit {
	return []domain.BatchProfit{
		{
			BatchRef: "B1", Category: domain.CategoryFinishedGoods,
			TotalCost: dec("50"), Revenue: dec("90"), FreeGoodsLoss: dec("6"),
			Profit: dec("34"), Status: domain.StatusProfit,
			HasPurchase: true, HasSales: true,
		},
		{
			BatchRef: "B2", Category: domain.CategoryFinishedGoods,
			TotalCost: dec("30"), Revenue: dec("10"), FreeGoodsLoss: dec("0"),
			Profit: dec("-20"), Status: domain.StatusLoss,
			HasPurchase: true, HasSales: true,
		},
		{
			BatchRef: "B3", Category: domain.CategoryTraded,
			TotalCost: dec("15"), Revenue: dec("0"), FreeGoodsLoss: dec("0"),
			Profit: dec("-15"), Status: domain.StatusLoss,
			HasPurchase: true, HasSales: false,
		},
		{
			BatchRef: "B4", Category: domain.CategoryTraded,
			TotalCost: dec("0"), Revenue: dec("25"), FreeGoodsLoss: dec("0"),
			Profit: dec("25"), Status: domain.StatusProfit,
			HasPurchase: false, HasSales: true,
		},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleProfits())

	assert.Equal(t, 4, s.TotalBatches)
	assert.True(t, s.TotalCost.Equal(dec("95")))
	assert.True(t, s.TotalRevenue.Equal(dec("125")))
	assert.True(t, s.TotalFreeLoss.Equal(dec("6")))
	assert.True(t, s.TotalProfit.Equal(dec("24")))
	assert.True(t, s.OverallMargin.Equal(dec("24").Div(dec("125"))), "margin = %s", s.OverallMargin)
	assert.Equal(t, 2, s.ProfitCount)
	assert.Equal(t, 2, s.LossCount)
	assert.Equal(t, 0, s.BreakevenCount)
	assert.Equal(t, 2, s.MatchedBatches)
	assert.Equal(t, 1, s.PurchaseOnlyBatches)
	assert.Equal(t, 1, s.SalesOnlyBatches)
}

func TestSummarize_EmptyInput(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.TotalBatches)
	assert.True(t, s.TotalRevenue.IsZero())
	// Zero revenue must not crash the margin computation.
	assert.True(t, s.OverallMargin.IsZero())
}

func TestSummarize_ZeroRevenuePortfolio(t *testing.T) {
	profits := []domain.BatchProfit{
		{BatchRef: "B1", TotalCost: dec("10"), Revenue: dec("0"), Profit: dec("-10"), Status: domain.StatusLoss, HasPurchase: true},
	}

	s := Summarize(profits)
	assert.True(t, s.OverallMargin.IsZero())
	assert.True(t, s.TotalProfit.Equal(dec("-10")))
}

func TestSummarizeByCategory(t *testing.T) {
	summaries := SummarizeByCategory(sampleProfits())

	require.Len(t, summaries, 2)
	// Sorted by category: FG before TR.
	assert.Equal(t, domain.CategoryFinishedGoods, summaries[0].Category)
	assert.Equal(t, 2, summaries[0].TotalBatches)
	assert.True(t, summaries[0].TotalProfit.Equal(dec("14")))
	assert.Equal(t, 1, summaries[0].ProfitCount)
	assert.Equal(t, 1, summaries[0].LossCount)

	assert.Equal(t, domain.CategoryTraded, summaries[1].Category)
	assert.True(t, summaries[1].TotalProfit.Equal(dec("10")))
}

func TestBuildQualityReport(t *testing.T) {
	tr := &TransformResult{
		Skipped: []domain.SkippedRow{
			{Sheet: "Purchases", Row: 5, Reason: "negative quantity"},
		},
		ZeroFilledCells:  3,
		UnkeyedPurchases: 1,
		UnkeyedSales:     2,
	}

	report := BuildQualityReport(tr, sampleProfits())

	assert.Len(t, report.SkippedRows, 1)
	assert.Equal(t, 3, report.ZeroFilledCells)
	assert.Equal(t, 1, report.UnkeyedPurchases)
	assert.Equal(t, 2, report.UnkeyedSales)
	assert.Equal(t, []string{"B3"}, report.PurchaseOnly)
	assert.Equal(t, []string{"B4"}, report.SalesOnly)
}

func TestBuildQualityReport_EmptySlicesNotNil(t *testing.T) {
	report := BuildQualityReport(&TransformResult{}, nil)
	assert.NotNil(t, report.SkippedRows)
	assert.NotNil(t, report.PurchaseOnly)
	assert.NotNil(t, report.SalesOnly)
}
