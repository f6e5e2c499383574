package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies a purchase line by item type.
type Category string

const (
	CategoryFinishedGoods Category = "FG"
	CategoryTraded        Category = "TR"
	CategoryService       Category = "SV"
	CategoryConsumable    Category = "CO"
	CategoryCharge        Category = "CG"
	CategoryAdvertising   Category = "AD"
)

// KnownCategories lists every category the source system emits.
var KnownCategories = []Category{
	CategoryFinishedGoods,
	CategoryTraded,
	CategoryService,
	CategoryConsumable,
	CategoryCharge,
	CategoryAdvertising,
}

// IsValid reports whether the category is one of the known item types.
func (c Category) IsValid() bool {
	for _, known := range KnownCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Tradeable reports whether the category represents sellable stock (FG or TR),
// the default scope of the profit report.
func (c Category) Tradeable() bool {
	return c == CategoryFinishedGoods || c == CategoryTraded
}

// PurchaseRecord represents one purchase line from the Purchases sheet.
// BatchRef is the join key that links the lot to its sales.
type PurchaseRecord struct {
	BatchRef   string          `json:"batch_ref" validate:"required"`
	Category   Category        `json:"category"`
	ItemCode   string          `json:"item_code"`
	ItemName   string          `json:"item_name"`
	VendorName string          `json:"vendor_name,omitempty"`
	InQty      int64           `json:"in_qty" validate:"min=0"`
	InRate     decimal.Decimal `json:"in_rate"`
	TxDate     time.Time       `json:"tx_date,omitempty"`
}

// Cost returns the total purchase cost of the line (InQty * InRate).
func (p PurchaseRecord) Cost() decimal.Decimal {
	return p.InRate.Mul(decimal.NewFromInt(p.InQty))
}
