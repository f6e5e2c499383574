package domain

import (
	"github.com/shopspring/decimal"
)

// BatchStatus classifies the sign of a batch's profit.
type BatchStatus string

const (
	StatusProfit    BatchStatus = "Profit"
	StatusLoss      BatchStatus = "Loss"
	StatusBreakeven BatchStatus = "Breakeven"
)

// StatusForProfit returns the status for a profit figure.
func StatusForProfit(profit decimal.Decimal) BatchStatus {
	switch profit.Sign() {
	case 1:
		return StatusProfit
	case -1:
		return StatusLoss
	default:
		return StatusBreakeven
	}
}

// SaleDetail is the per-sale breakdown carried inside a BatchProfit, one entry
// per contributing sale line.
type SaleDetail struct {
	BillNo        string          `json:"bill_no,omitempty"`
	CustomerName  string          `json:"customer_name,omitempty"`
	Segment       string          `json:"segment,omitempty"`
	SaleQty       int64           `json:"sale_qty"`
	FreeQty       int64           `json:"free_qty"`
	OutRate       decimal.Decimal `json:"out_rate"`
	GrossValue    decimal.Decimal `json:"gross_value"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	NetRevenue    decimal.Decimal `json:"net_revenue"`
	FreeLoss      decimal.Decimal `json:"free_loss"`
	ShareRatio    string          `json:"share_ratio"`
}

// BatchProfit is the derived profit record for one batch reference. Exactly
// one record exists per distinct identifier seen in either input; batches seen
// on only one side carry zeros for the missing side and are flagged through
// HasPurchase/HasSales.
type BatchProfit struct {
	BatchRef   string   `json:"batch_ref"`
	Category   Category `json:"category,omitempty"`
	ItemCode   string   `json:"item_code,omitempty"`
	ItemName   string   `json:"item_name,omitempty"`
	VendorName string   `json:"vendor_name,omitempty"`

	PurchaseQty int64           `json:"purchase_qty"`
	TotalCost   decimal.Decimal `json:"total_cost"`

	SaleQty       int64           `json:"sale_qty"`
	FreeQty       int64           `json:"free_qty"`
	Revenue       decimal.Decimal `json:"revenue"`
	FreeGoodsLoss decimal.Decimal `json:"free_goods_loss"`

	Profit decimal.Decimal `json:"profit"`
	// Margin is Profit/Revenue; zero when Revenue is zero.
	Margin decimal.Decimal `json:"margin"`
	Status BatchStatus     `json:"status"`

	// Segment profit split, summed over per-sale contributions.
	SZShare decimal.Decimal `json:"sz_share"`
	GZShare decimal.Decimal `json:"gz_share"`

	HasPurchase bool         `json:"has_purchase"`
	HasSales    bool         `json:"has_sales"`
	NumSales    int          `json:"num_sales"`
	Details     []SaleDetail `json:"details,omitempty"`
}

// Unmatched reports whether the batch is missing one side of the join.
func (b BatchProfit) Unmatched() bool {
	return !b.HasPurchase || !b.HasSales
}
