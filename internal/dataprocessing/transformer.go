package dataprocessing

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "batchprofit/internal/errors"
	"batchprofit/pkg/contracts/domain"
)

// TransformResult carries the normalized records plus the data-quality
// signals collected while mapping.
type TransformResult struct {
	Purchases []domain.PurchaseRecord
	Sales     []domain.SaleRecord

	Skipped          []domain.SkippedRow
	ZeroFilledCells  int
	UnkeyedPurchases int
	UnkeyedSales     int
}

// Transformer maps raw sheet rows to domain records. The mapping is pure:
// the same input always produces the same result, and nothing outside the
// returned TransformResult is mutated.
type Transformer struct {
	logger *slog.Logger
}

// NewTransformer creates a transformer.
func NewTransformer(logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{logger: logger}
}

// Transform normalizes both sheets. Missing or malformed numeric cells are
// coerced to zero and counted; rows with negative quantities or rates are
// excluded and recorded in Skipped; rows without a join key are dropped and
// counted as unkeyed.
func (t *Transformer) Transform(wb *RawWorkbook) *TransformResult {
	result := &TransformResult{
		Purchases: make([]domain.PurchaseRecord, 0, len(wb.Purchases.Rows)),
		Sales:     make([]domain.SaleRecord, 0, len(wb.Sales.Rows)),
	}

	for i, row := range wb.Purchases.Rows {
		rowNum := wb.Purchases.FirstDataRow + i
		record, ok := t.transformPurchase(wb.Purchases, row, rowNum, result)
		if ok {
			result.Purchases = append(result.Purchases, record)
		}
	}

	for i, row := range wb.Sales.Rows {
		rowNum := wb.Sales.FirstDataRow + i
		record, ok := t.transformSale(wb.Sales, row, rowNum, result)
		if ok {
			result.Sales = append(result.Sales, record)
		}
	}

	t.logger.Info("rows transformed",
		slog.Int("purchases", len(result.Purchases)),
		slog.Int("sales", len(result.Sales)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("zero_filled", result.ZeroFilledCells),
		slog.Int("unkeyed_purchases", result.UnkeyedPurchases),
		slog.Int("unkeyed_sales", result.UnkeyedSales))

	return result
}

func (t *Transformer) transformPurchase(sheet *RawSheet, row []string, rowNum int, result *TransformResult) (domain.PurchaseRecord, bool) {
	if isBlankRow(row) {
		return domain.PurchaseRecord{}, false
	}

	batchRef := sheet.Cell(row, ColBatchRef)
	if batchRef == "" {
		result.UnkeyedPurchases++
		return domain.PurchaseRecord{}, false
	}

	inQty := t.parseQty(sheet, row, rowNum, ColInQty, result)
	inRate := t.parseMoney(sheet, row, rowNum, ColInRate, result)

	if inQty < 0 {
		t.skipRow(sheet, rowNum, ColInQty, "negative quantity", result)
		return domain.PurchaseRecord{}, false
	}
	if inRate.IsNegative() {
		t.skipRow(sheet, rowNum, ColInRate, "negative rate", result)
		return domain.PurchaseRecord{}, false
	}

	return domain.PurchaseRecord{
		BatchRef:   batchRef,
		Category:   categoryFromTypeCode(sheet.Cell(row, ColItemTypeCode)),
		ItemCode:   sheet.Cell(row, ColPurchItemCode),
		ItemName:   sheet.Cell(row, ColPurchItemName),
		VendorName: sheet.Cell(row, ColVendorName),
		InQty:      inQty,
		InRate:     inRate,
		TxDate:     parseDate(sheet.Cell(row, ColTxDate)),
	}, true
}

func (t *Transformer) transformSale(sheet *RawSheet, row []string, rowNum int, result *TransformResult) (domain.SaleRecord, bool) {
	if isBlankRow(row) {
		return domain.SaleRecord{}, false
	}

	batchNo := sheet.Cell(row, ColBatchNo)
	if batchNo == "" {
		result.UnkeyedSales++
		return domain.SaleRecord{}, false
	}

	saleQty := t.parseQty(sheet, row, rowNum, ColSaleQty, result)
	freeQty := t.parseQty(sheet, row, rowNum, ColFreeQty, result)
	outRate := t.parseMoney(sheet, row, rowNum, ColOutRate, result)
	discount := t.parseMoney(sheet, row, rowNum, ColDiscountValue, result)
	gross := t.parseMoney(sheet, row, rowNum, ColGrossValue, result)

	switch {
	case saleQty < 0:
		t.skipRow(sheet, rowNum, ColSaleQty, "negative quantity", result)
		return domain.SaleRecord{}, false
	case freeQty < 0:
		t.skipRow(sheet, rowNum, ColFreeQty, "negative quantity", result)
		return domain.SaleRecord{}, false
	case outRate.IsNegative():
		t.skipRow(sheet, rowNum, ColOutRate, "negative rate", result)
		return domain.SaleRecord{}, false
	case discount.IsNegative():
		t.skipRow(sheet, rowNum, ColDiscountValue, "negative value", result)
		return domain.SaleRecord{}, false
	case gross.IsNegative():
		t.skipRow(sheet, rowNum, ColGrossValue, "negative value", result)
		return domain.SaleRecord{}, false
	}

	return domain.SaleRecord{
		BatchNo:       batchNo,
		ItemCode:      sheet.Cell(row, ColSaleItemCode),
		ItemName:      sheet.Cell(row, ColSaleItemName),
		CustomerName:  sheet.Cell(row, ColCustomerName),
		BillNo:        sheet.Cell(row, ColBillNo),
		Segment:       sheet.Cell(row, ColSegment),
		SaleQty:       saleQty,
		FreeQty:       freeQty,
		OutRate:       outRate,
		DiscountValue: discount,
		GrossValue:    gross,
		TxDate:        parseDate(sheet.Cell(row, ColTxDate)),
	}, true
}

func (t *Transformer) skipRow(sheet *RawSheet, rowNum int, field, reason string, result *TransformResult) {
	err := apperrors.NewValidationError(sheet.Name, rowNum, field, reason)
	t.logger.Warn("row excluded", slog.String("error", err.Error()))
	result.Skipped = append(result.Skipped, domain.SkippedRow{
		Sheet:  sheet.Name,
		Row:    rowNum,
		Reason: err.Error(),
	})
}

// parseQty parses an integer quantity cell. Blank or malformed cells become
// zero and are counted; fractional values are truncated toward zero.
func (t *Transformer) parseQty(sheet *RawSheet, row []string, rowNum int, column string, result *TransformResult) int64 {
	raw := sheet.Cell(row, column)
	if raw == "" {
		result.ZeroFilledCells++
		return 0
	}
	f, err := strconv.ParseFloat(stripThousands(raw), 64)
	if err != nil {
		t.logger.Debug("malformed quantity cell",
			slog.String("sheet", sheet.Name),
			slog.Int("row", rowNum),
			slog.String("column", column),
			slog.String("value", raw))
		result.ZeroFilledCells++
		return 0
	}
	return int64(f)
}

// parseMoney parses a monetary cell. Blank or malformed cells become zero
// and are counted.
func (t *Transformer) parseMoney(sheet *RawSheet, row []string, rowNum int, column string, result *TransformResult) decimal.Decimal {
	raw := sheet.Cell(row, column)
	if raw == "" {
		result.ZeroFilledCells++
		return decimal.Zero
	}
	d, err := decimal.NewFromString(stripThousands(raw))
	if err != nil {
		t.logger.Debug("malformed money cell",
			slog.String("sheet", sheet.Name),
			slog.Int("row", rowNum),
			slog.String("column", column),
			slog.String("value", raw))
		result.ZeroFilledCells++
		return decimal.Zero
	}
	return d
}

// categoryFromTypeCode derives the category from the first two characters of
// the item type code, matching how the source system encodes it.
func categoryFromTypeCode(code string) domain.Category {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < 2 {
		return ""
	}
	return domain.Category(code[:2])
}

// parseDate tries the formats the workbook is known to use; a zero time
// means the cell was blank or unreadable. Dates are display-only.
func parseDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", "01-02-06", "1/2/06 15:04", "2006-01-02 15:04:05", "02/01/2006"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func stripThousands(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
