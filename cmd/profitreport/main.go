package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"batchprofit/internal/config"
	"batchprofit/internal/dataprocessing"
	"batchprofit/internal/exporter"
)

// profitreport runs the workbook pipeline headless and writes the batch
// profit report as CSV, for scheduled exports without the dashboard.
func main() {
	workbook := flag.String("workbook", "", "path to the purchases/sales workbook (overrides config)")
	outDir := flag.String("out", "", "output directory for the report (defaults to configured reports dir)")
	categories := flag.String("categories", "", "comma-separated category filter, e.g. FG,TR (empty keeps the configured filter)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if *workbook != "" {
		cfg.Workbook.Path = *workbook
	}
	if *outDir != "" {
		cfg.Workbook.ReportsDir = *outDir
	}
	if *categories != "" {
		cfg.Workbook.IncludeCategories = strings.Split(*categories, ",")
	}

	logger.Info("loading workbook", "path", cfg.Workbook.Path)
	start := time.Now()

	loader := dataprocessing.NewLoader(cfg.Workbook, logger)
	wb, err := loader.Load()
	if err != nil {
		logger.Error("workbook load failed", "error", err)
		os.Exit(1)
	}

	transformer := dataprocessing.NewTransformer(logger)
	tr := transformer.Transform(wb)

	calculator := dataprocessing.NewCalculator(cfg.Shares, cfg.Workbook.IncludeCategories, logger)
	profits := calculator.Calculate(tr.Purchases, tr.Sales)
	summary := dataprocessing.Summarize(profits)
	quality := dataprocessing.BuildQualityReport(tr, profits)

	writer := exporter.NewCSVWriter(cfg.Workbook.ReportsDir, logger)
	filename := fmt.Sprintf("batch_profit_%s.csv", time.Now().Format("2006-01-02_150405"))
	if err := writer.WriteBatchProfits(filename, profits); err != nil {
		logger.Error("failed to write report", "error", err)
		os.Exit(1)
	}

	logger.Info("report written",
		"file", filename,
		"duration", time.Since(start).String())

	fmt.Printf("Batches:        %d\n", summary.TotalBatches)
	fmt.Printf("  matched:      %d\n", summary.MatchedBatches)
	fmt.Printf("  purchase only: %d\n", summary.PurchaseOnlyBatches)
	fmt.Printf("  sales only:   %d\n", summary.SalesOnlyBatches)
	fmt.Printf("Total cost:     %s\n", summary.TotalCost.StringFixed(2))
	fmt.Printf("Total revenue:  %s\n", summary.TotalRevenue.StringFixed(2))
	fmt.Printf("Free goods:     %s\n", summary.TotalFreeLoss.StringFixed(2))
	fmt.Printf("Total profit:   %s\n", summary.TotalProfit.StringFixed(2))
	fmt.Printf("Overall margin: %s%%\n", summary.OverallMargin.Mul(decimal.NewFromInt(100)).StringFixed(2))
	fmt.Printf("Profit/Loss/BE: %d/%d/%d\n", summary.ProfitCount, summary.LossCount, summary.BreakevenCount)

	if len(quality.SkippedRows) > 0 || quality.ZeroFilledCells > 0 {
		fmt.Printf("Data quality:   %d rows skipped, %d cells zero-filled, %d unkeyed rows\n",
			len(quality.SkippedRows),
			quality.ZeroFilledCells,
			quality.UnkeyedPurchases+quality.UnkeyedSales)
	}
}
