package services

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"batchprofit/internal/config"
	"batchprofit/internal/dataprocessing"
	"batchprofit/pkg/contracts/domain"
)

type capturedEvent struct {
	event   string
	payload interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (f *fakeBroadcaster) BroadcastReload(event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, capturedEvent{event: event, payload: payload})
}

func (f *fakeBroadcaster) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.events))
	for i, e := range f.events {
		names[i] = e.event
	}
	return names
}

func writeTestWorkbook(t *testing.T, path string) {
	t.Helper()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), "Purchases"))
	_, err := f.NewSheet("Sales")
	require.NoError(t, err)

	purchaseRows := [][]interface{}{
		{"BTREFNO", "ITEMTPCD", "ITEMCD", "ITEMNAME", "IN_QTY", "IN_RATE"},
		{"B1", "FG01", "ITM1", "Widget", 10, 5},
		{"B2", "FG02", "ITM2", "Gadget", 2, 8},
	}
	for i, row := range purchaseRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Purchases", cell, &row))
	}

	saleRows := [][]interface{}{
		{"Batch No.", "Sale Qty.", "Free Qty.", "OUT_RATE", "Discount Value", "Gross Value"},
		{"B1", 8, 2, 3, 10, 100},
		{"B9", 1, 0, 5, 0, 5},
	}
	for i, row := range saleRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sales", cell, &row))
	}

	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
}

func newTestService(t *testing.T, broadcaster ReloadBroadcaster) *ProfitService {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "book.xlsx")
	writeTestWorkbook(t, path)

	cfg := &config.Config{
		Workbook: config.WorkbookConfig{
			Path:           path,
			PurchasesSheet: "Purchases",
			SalesSheet:     "Sales",
			HeaderScanRows: 5,
			ReportsDir:     filepath.Join(dir, "reports"),
		},
		Shares: config.SharesConfig{
			Default: config.ShareSplit{SZ: 50, GZ: 50},
		},
	}

	return NewProfitService(cfg, broadcaster, nil, slog.Default())
}

func TestProfitService_NotLoaded(t *testing.T) {
	svc := newTestService(t, nil)

	assert.False(t, svc.Loaded())
	_, err := svc.Summary(context.Background())
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = svc.Batches(context.Background(), BatchFilter{})
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestProfitService_ReloadAndQuery(t *testing.T) {
	broadcaster := &fakeBroadcaster{}
	svc := newTestService(t, broadcaster)

	require.NoError(t, svc.Reload(context.Background()))
	require.True(t, svc.Loaded())

	batches, err := svc.Batches(context.Background(), BatchFilter{})
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Equal(t, "B1", batches[0].BatchRef)
	assert.Equal(t, "B2", batches[1].BatchRef)
	assert.Equal(t, "B9", batches[2].BatchRef)

	// B1: cost 50, revenue 90, free loss 6, profit 34.
	b1, err := svc.Batch(context.Background(), "B1")
	require.NoError(t, err)
	assert.Equal(t, "34", b1.Profit.String())
	assert.Equal(t, domain.StatusProfit, b1.Status)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalBatches)
	assert.Equal(t, 1, summary.SalesOnlyBatches)
	assert.Equal(t, 1, summary.PurchaseOnlyBatches)

	quality, err := svc.Quality(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"B9"}, quality.SalesOnly)
	assert.Equal(t, []string{"B2"}, quality.PurchaseOnly)

	assert.Equal(t, []string{"reload_started", "reload_completed"}, broadcaster.names())
}

func TestProfitService_Filters(t *testing.T) {
	svc := newTestService(t, nil)
	require.NoError(t, svc.Reload(context.Background()))

	unmatched, err := svc.Batches(context.Background(), BatchFilter{UnmatchedOnly: true})
	require.NoError(t, err)
	assert.Len(t, unmatched, 2)

	losses, err := svc.Batches(context.Background(), BatchFilter{Status: "loss"})
	require.NoError(t, err)
	require.Len(t, losses, 1)
	assert.Equal(t, "B2", losses[0].BatchRef)

	bySearch, err := svc.Batches(context.Background(), BatchFilter{Search: "widget"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "B1", bySearch[0].BatchRef)

	byCategory, err := svc.Batches(context.Background(), BatchFilter{Category: "FG"})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)
}

func TestProfitService_BatchNotFound(t *testing.T) {
	svc := newTestService(t, nil)
	require.NoError(t, svc.Reload(context.Background()))

	_, err := svc.Batch(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrBatchNotFound)
}

func TestProfitService_ExportCSV(t *testing.T) {
	svc := newTestService(t, nil)
	require.NoError(t, svc.Reload(context.Background()))

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4) // header + 3 batches
	assert.True(t, strings.HasPrefix(lines[0], "BatchRef,Category"))
	assert.Contains(t, lines[1], "B1")
}

func TestProfitService_WriteReport(t *testing.T) {
	svc := newTestService(t, nil)
	require.NoError(t, svc.Reload(context.Background()))

	name, err := svc.WriteReport(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "batch_profit_"))

	data, err := os.ReadFile(filepath.Join(svc.cfg.Workbook.ReportsDir, name))
	require.NoError(t, err)
	assert.Contains(t, string(data), "B1")
}

func TestProfitService_ReloadFailureKeepsPreviousResult(t *testing.T) {
	broadcaster := &fakeBroadcaster{}
	svc := newTestService(t, broadcaster)
	require.NoError(t, svc.Reload(context.Background()))

	// Point the loader at a missing file; reload must fail but the old
	// result set stays served.
	svc.cfg.Workbook.Path = filepath.Join(t.TempDir(), "gone.xlsx")
	svc.loader = dataprocessing.NewLoader(svc.cfg.Workbook, slog.Default())

	err := svc.Reload(context.Background())
	require.Error(t, err)
	assert.True(t, svc.Loaded())

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalBatches)

	names := broadcaster.names()
	assert.Equal(t, "reload_failed", names[len(names)-1])
}
