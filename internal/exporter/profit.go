package exporter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"batchprofit/pkg/contracts/domain"
)

var oneHundred = decimal.NewFromInt(100)

// BatchProfitHeaders is the column contract for the batch profit export.
// Order and naming are consumed by the dashboard and downstream spreadsheets;
// do not reorder without versioning the export.
var BatchProfitHeaders = []string{
	"BatchRef",
	"Category",
	"ItemCode",
	"ItemName",
	"VendorName",
	"PurchaseQty",
	"TotalCost",
	"SaleQty",
	"FreeQty",
	"Revenue",
	"FreeGoodsLoss",
	"Profit",
	"MarginPct",
	"SZShare",
	"GZShare",
	"Status",
	"NumSales",
	"HasPurchase",
	"HasSales",
}

// BatchProfitRecord flattens one BatchProfit into CSV fields, money rounded
// to two places and margin expressed in percent.
func BatchProfitRecord(bp domain.BatchProfit) []string {
	return []string{
		bp.BatchRef,
		string(bp.Category),
		bp.ItemCode,
		bp.ItemName,
		bp.VendorName,
		strconv.FormatInt(bp.PurchaseQty, 10),
		bp.TotalCost.StringFixed(2),
		strconv.FormatInt(bp.SaleQty, 10),
		strconv.FormatInt(bp.FreeQty, 10),
		bp.Revenue.StringFixed(2),
		bp.FreeGoodsLoss.StringFixed(2),
		bp.Profit.StringFixed(2),
		bp.Margin.Mul(oneHundred).StringFixed(2),
		bp.SZShare.StringFixed(2),
		bp.GZShare.StringFixed(2),
		string(bp.Status),
		strconv.Itoa(bp.NumSales),
		strconv.FormatBool(bp.HasPurchase),
		strconv.FormatBool(bp.HasSales),
	}
}

// WriteBatchProfits writes the full batch profit report to a file under the
// writer's base directory.
func (w *CSVWriter) WriteBatchProfits(filePath string, profits []domain.BatchProfit) error {
	records := make([][]string, 0, len(profits))
	for _, bp := range profits {
		records = append(records, BatchProfitRecord(bp))
	}
	if err := w.WriteSimpleCSV(filePath, BatchProfitHeaders, records); err != nil {
		return fmt.Errorf("failed to write batch profit report: %w", err)
	}
	return nil
}

// StreamBatchProfits writes the report to an arbitrary writer, for HTTP
// download responses.
func (w *CSVWriter) StreamBatchProfits(out io.Writer, profits []domain.BatchProfit) error {
	records := make([][]string, 0, len(profits))
	for _, bp := range profits {
		records = append(records, BatchProfitRecord(bp))
	}
	return w.WriteTo(out, BatchProfitHeaders, records)
}
