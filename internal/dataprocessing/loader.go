package dataprocessing

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"batchprofit/internal/config"
	apperrors "batchprofit/internal/errors"
)

// Column header names as they appear in the source workbook. These are a
// compatibility contract with the exporting system; alternates cover the
// spellings seen across report vintages.
const (
	ColBatchRef      = "BTREFNO"
	ColItemTypeCode  = "ITEMTPCD"
	ColInQty         = "IN_QTY"
	ColInRate        = "IN_RATE"
	ColPurchItemCode = "ITEMCD"
	ColPurchItemName = "ITEMNAME"
	ColVendorName    = "VENDORNAME"
	ColTxDate        = "TXDATE"

	ColBatchNo       = "Batch No."
	ColSaleQty       = "Sale Qty."
	ColFreeQty       = "Free Qty."
	ColOutRate       = "OUT_RATE"
	ColDiscountValue = "Discount Value"
	ColGrossValue    = "Gross Value"
	ColSaleItemCode  = "Item Code"
	ColSaleItemName  = "Item Name"
	ColCustomerName  = "Customer Name"
	ColBillNo        = "Bill No."
	ColSegment       = "Final line wise segment"
)

// purchaseRequired lists the columns that must exist on the Purchases sheet.
var purchaseRequired = []string{ColBatchRef, ColItemTypeCode, ColInQty, ColInRate}

// salesRequired lists the columns that must exist on the Sales sheet.
var salesRequired = []string{ColBatchNo, ColSaleQty, ColFreeQty, ColOutRate, ColDiscountValue, ColGrossValue}

// RawSheet holds one sheet's rows after header resolution. Columns maps
// normalized header names to their column index; Rows contains only data rows.
type RawSheet struct {
	Name         string
	Columns      map[string]int
	Rows         [][]string
	FirstDataRow int // 1-based workbook row number of Rows[0]
}

// Cell returns the trimmed value of a named column in a row, or "" when the
// column is absent or the row is short.
func (s *RawSheet) Cell(row []string, column string) string {
	idx, ok := s.Columns[normalizeHeader(column)]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// HasColumn reports whether the sheet resolved the named column.
func (s *RawSheet) HasColumn(column string) bool {
	_, ok := s.Columns[normalizeHeader(column)]
	return ok
}

// RawWorkbook is the loader output: both sheets ready for transformation.
type RawWorkbook struct {
	Purchases *RawSheet
	Sales     *RawSheet
}

// Loader reads the purchases/sales workbook.
type Loader struct {
	cfg    config.WorkbookConfig
	logger *slog.Logger
}

// NewLoader creates a workbook loader.
func NewLoader(cfg config.WorkbookConfig, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{cfg: cfg, logger: logger}
}

// Load opens the workbook and extracts both sheets. A missing sheet or a
// missing required column aborts the load before any computation.
func (l *Loader) Load() (*RawWorkbook, error) {
	f, err := excelize.OpenFile(l.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", l.cfg.Path, err)
	}
	defer f.Close()

	purchases, err := l.loadSheet(f, l.cfg.PurchasesSheet, purchaseRequired)
	if err != nil {
		return nil, err
	}
	sales, err := l.loadSheet(f, l.cfg.SalesSheet, salesRequired)
	if err != nil {
		return nil, err
	}

	l.logger.Info("workbook loaded",
		slog.String("path", l.cfg.Path),
		slog.Int("purchase_rows", len(purchases.Rows)),
		slog.Int("sale_rows", len(sales.Rows)))

	return &RawWorkbook{Purchases: purchases, Sales: sales}, nil
}

// loadSheet resolves a sheet by name, locates its header row and builds the
// column index, validating that every required column is present.
func (l *Loader) loadSheet(f *excelize.File, sheetName string, required []string) (*RawSheet, error) {
	rows, actualName, err := l.findSheet(f, sheetName, required)
	if err != nil {
		return nil, err
	}

	headerRow := l.findHeaderRow(rows, required)
	if headerRow < 0 {
		// No row carried the join-key header; treat the first required
		// column as the missing one.
		return nil, apperrors.NewSchemaError(actualName, required[0])
	}

	columns := make(map[string]int)
	for idx, header := range rows[headerRow] {
		key := normalizeHeader(header)
		if key == "" {
			continue
		}
		if _, exists := columns[key]; !exists {
			columns[key] = idx
		}
	}

	for _, col := range required {
		if _, ok := columns[normalizeHeader(col)]; !ok {
			return nil, apperrors.NewSchemaError(actualName, col)
		}
	}

	l.logger.Debug("sheet resolved",
		slog.String("sheet", actualName),
		slog.Int("header_row", headerRow+1),
		slog.Int("columns", len(columns)))

	return &RawSheet{
		Name:         actualName,
		Columns:      columns,
		Rows:         rows[headerRow+1:],
		FirstDataRow: headerRow + 2,
	}, nil
}

// findSheet locates a sheet by its configured name, falling back to a
// trimmed case-insensitive match and finally to sniffing for the required
// headers. Source files are known to carry stray spaces in sheet names.
func (l *Loader) findSheet(f *excelize.File, name string, required []string) ([][]string, string, error) {
	if rows, err := f.GetRows(name); err == nil && len(rows) > 0 {
		return rows, name, nil
	}

	want := strings.ToLower(strings.TrimSpace(name))
	for _, candidate := range f.GetSheetList() {
		if strings.ToLower(strings.TrimSpace(candidate)) != want {
			continue
		}
		if rows, err := f.GetRows(candidate); err == nil && len(rows) > 0 {
			l.logger.Debug("sheet matched by trimmed name",
				slog.String("wanted", name),
				slog.String("found", candidate))
			return rows, candidate, nil
		}
	}

	for _, candidate := range f.GetSheetList() {
		rows, err := f.GetRows(candidate)
		if err != nil || len(rows) == 0 {
			continue
		}
		if l.findHeaderRow(rows, required) >= 0 {
			l.logger.Debug("sheet matched by header sniffing",
				slog.String("wanted", name),
				slog.String("found", candidate))
			return rows, candidate, nil
		}
	}

	return nil, "", apperrors.NewSheetNotFoundError(name)
}

// findHeaderRow scans the first HeaderScanRows rows for one that contains the
// join-key column. The source file carries banner rows above the headers.
func (l *Loader) findHeaderRow(rows [][]string, required []string) int {
	key := normalizeHeader(required[0])
	limit := l.cfg.HeaderScanRows
	if limit <= 0 || limit > len(rows) {
		limit = len(rows)
	}
	for i := 0; i < limit; i++ {
		for _, header := range rows[i] {
			if normalizeHeader(header) == key {
				return i
			}
		}
	}
	return -1
}

// normalizeHeader canonicalizes a header cell for matching: trimmed,
// lowercased, internal runs of whitespace collapsed.
func normalizeHeader(header string) string {
	return strings.Join(strings.Fields(strings.ToLower(header)), " ")
}
