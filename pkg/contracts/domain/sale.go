package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleRecord represents one sale line from the Sales sheet. BatchNo is
// expected to match a PurchaseRecord.BatchRef; lines that do not match are
// still surfaced as unmatched sales.
type SaleRecord struct {
	BatchNo       string          `json:"batch_no" validate:"required"`
	ItemCode      string          `json:"item_code"`
	ItemName      string          `json:"item_name"`
	CustomerName  string          `json:"customer_name,omitempty"`
	BillNo        string          `json:"bill_no,omitempty"`
	Segment       string          `json:"segment,omitempty"`
	SaleQty       int64           `json:"sale_qty" validate:"min=0"`
	FreeQty       int64           `json:"free_qty" validate:"min=0"`
	OutRate       decimal.Decimal `json:"out_rate"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	GrossValue    decimal.Decimal `json:"gross_value"`
	TxDate        time.Time       `json:"tx_date,omitempty"`
}

// NetValue returns the billed value after discount.
func (s SaleRecord) NetValue() decimal.Decimal {
	return s.GrossValue.Sub(s.DiscountValue)
}

// FreeLoss returns the revenue forgone on free units, valued at the sale rate.
func (s SaleRecord) FreeLoss() decimal.Decimal {
	return s.OutRate.Mul(decimal.NewFromInt(s.FreeQty))
}
