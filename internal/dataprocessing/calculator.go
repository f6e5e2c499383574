package dataprocessing

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"batchprofit/internal/config"
	"batchprofit/pkg/contracts/domain"
)

var oneHundred = decimal.NewFromInt(100)

// Calculator derives BatchProfit records from normalized purchase and sale
// records. It holds no state across calls; Calculate is a pure function of
// its inputs and the configured share table.
type Calculator struct {
	shares  config.SharesConfig
	include map[domain.Category]bool // empty means all categories
	logger  *slog.Logger
}

// NewCalculator creates a calculator. includeCategories narrows the output to
// the listed categories; an empty list includes everything. Sales-only
// batches have no purchase category and always pass the filter so unmatched
// sales stay visible.
func NewCalculator(shares config.SharesConfig, includeCategories []string, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	include := make(map[domain.Category]bool, len(includeCategories))
	for _, c := range includeCategories {
		cat := domain.Category(strings.ToUpper(strings.TrimSpace(c)))
		if cat != "" {
			include[cat] = true
		}
	}
	return &Calculator{shares: shares, include: include, logger: logger}
}

// purchaseAgg accumulates all purchase rows sharing one batch reference.
type purchaseAgg struct {
	qty      int64
	cost     decimal.Decimal
	category domain.Category
	itemCode string
	itemName string
	vendor   string
}

// salesAgg accumulates all sale rows sharing one batch number.
type salesAgg struct {
	saleQty  int64
	freeQty  int64
	revenue  decimal.Decimal
	freeLoss decimal.Decimal
	itemCode string
	itemName string
	details  []domain.SaleDetail
	segments []string
}

// Calculate outer-joins the two record sets on the batch identifier and
// derives one BatchProfit per distinct identifier. Output order is
// deterministic: sorted by batch reference ascending.
func (c *Calculator) Calculate(purchases []domain.PurchaseRecord, sales []domain.SaleRecord) []domain.BatchProfit {
	purchaseByBatch := c.groupPurchases(purchases)
	salesByBatch := c.groupSales(sales)

	refs := make([]string, 0, len(purchaseByBatch)+len(salesByBatch))
	seen := make(map[string]bool, len(purchaseByBatch)+len(salesByBatch))
	for ref := range purchaseByBatch {
		refs = append(refs, ref)
		seen[ref] = true
	}
	for ref := range salesByBatch {
		if !seen[ref] {
			refs = append(refs, ref)
		}
	}
	sort.Strings(refs)

	profits := make([]domain.BatchProfit, 0, len(refs))
	for _, ref := range refs {
		bp, ok := c.buildBatch(ref, purchaseByBatch[ref], salesByBatch[ref])
		if ok {
			profits = append(profits, bp)
		}
	}

	c.logger.Info("batch profits calculated",
		slog.Int("batches", len(profits)),
		slog.Int("purchase_batches", len(purchaseByBatch)),
		slog.Int("sale_batches", len(salesByBatch)))

	return profits
}

func (c *Calculator) groupPurchases(purchases []domain.PurchaseRecord) map[string]*purchaseAgg {
	grouped := make(map[string]*purchaseAgg)
	for _, p := range purchases {
		agg, ok := grouped[p.BatchRef]
		if !ok {
			agg = &purchaseAgg{cost: decimal.Zero}
			grouped[p.BatchRef] = agg
		}
		agg.qty += p.InQty
		agg.cost = agg.cost.Add(p.Cost())
		// Conflicting categories within one batch resolve last-wins.
		if p.Category != "" {
			if agg.category != "" && agg.category != p.Category {
				c.logger.Warn("conflicting categories within batch",
					slog.String("batch_ref", p.BatchRef),
					slog.String("previous", string(agg.category)),
					slog.String("using", string(p.Category)))
			}
			agg.category = p.Category
		}
		if agg.itemCode == "" {
			agg.itemCode = p.ItemCode
		}
		if agg.itemName == "" {
			agg.itemName = p.ItemName
		}
		if agg.vendor == "" {
			agg.vendor = p.VendorName
		}
	}
	return grouped
}

func (c *Calculator) groupSales(sales []domain.SaleRecord) map[string]*salesAgg {
	grouped := make(map[string]*salesAgg)
	for _, s := range sales {
		agg, ok := grouped[s.BatchNo]
		if !ok {
			agg = &salesAgg{
				revenue:  decimal.Zero,
				freeLoss: decimal.Zero,
			}
			grouped[s.BatchNo] = agg
		}
		net := s.NetValue()
		loss := s.FreeLoss()

		agg.saleQty += s.SaleQty
		agg.freeQty += s.FreeQty
		agg.revenue = agg.revenue.Add(net)
		agg.freeLoss = agg.freeLoss.Add(loss)
		if agg.itemCode == "" {
			agg.itemCode = s.ItemCode
		}
		if agg.itemName == "" {
			agg.itemName = s.ItemName
		}

		split := c.shares.ForSegment(s.Segment)
		agg.details = append(agg.details, domain.SaleDetail{
			BillNo:        s.BillNo,
			CustomerName:  s.CustomerName,
			Segment:       s.Segment,
			SaleQty:       s.SaleQty,
			FreeQty:       s.FreeQty,
			OutRate:       s.OutRate,
			GrossValue:    s.GrossValue,
			DiscountValue: s.DiscountValue,
			NetRevenue:    net,
			FreeLoss:      loss,
			ShareRatio:    fmt.Sprintf("%d/%d", split.SZ, split.GZ),
		})
		agg.segments = append(agg.segments, s.Segment)
	}
	return grouped
}

// buildBatch derives one BatchProfit from the joined aggregates. Either side
// may be nil: purchase-only batches carry zero revenue, sales-only batches
// carry zero cost and are flagged unmatched rather than dropped.
func (c *Calculator) buildBatch(ref string, pa *purchaseAgg, sa *salesAgg) (domain.BatchProfit, bool) {
	bp := domain.BatchProfit{
		BatchRef:      ref,
		TotalCost:     decimal.Zero,
		Revenue:       decimal.Zero,
		FreeGoodsLoss: decimal.Zero,
		SZShare:       decimal.Zero,
		GZShare:       decimal.Zero,
	}

	if pa != nil {
		bp.HasPurchase = true
		bp.Category = pa.category
		bp.ItemCode = pa.itemCode
		bp.ItemName = pa.itemName
		bp.VendorName = pa.vendor
		bp.PurchaseQty = pa.qty
		bp.TotalCost = pa.cost
	}

	if sa != nil {
		bp.HasSales = true
		bp.SaleQty = sa.saleQty
		bp.FreeQty = sa.freeQty
		bp.Revenue = sa.revenue
		bp.FreeGoodsLoss = sa.freeLoss
		bp.NumSales = len(sa.details)
		bp.Details = sa.details
		if bp.ItemCode == "" {
			bp.ItemCode = sa.itemCode
		}
		if bp.ItemName == "" {
			bp.ItemName = sa.itemName
		}
		// Sales-only batches take their category from the item code
		// prefix, the way the source system encodes sale lines.
		if bp.Category == "" {
			bp.Category = categoryFromTypeCode(sa.itemCode)
		}
	}

	// The category filter applies only to batches whose category is known;
	// unrecognized categories stay visible as a data-quality signal.
	if len(c.include) > 0 && bp.Category.IsValid() && !c.include[bp.Category] {
		return domain.BatchProfit{}, false
	}

	bp.Profit = bp.Revenue.Sub(bp.TotalCost).Sub(bp.FreeGoodsLoss)
	if !bp.Revenue.IsZero() {
		bp.Margin = bp.Profit.Div(bp.Revenue)
	}
	bp.Status = domain.StatusForProfit(bp.Profit)

	c.applyShares(&bp)

	return bp, true
}

// applyShares splits the batch profit between the SZ and GZ parties. Each
// sale's segment decides its ratio; the batch profit is allocated across
// sales by their share of net revenue. When the batch has no revenue the
// whole profit (typically a loss) is split by the default ratio.
func (c *Calculator) applyShares(bp *domain.BatchProfit) {
	if !bp.HasSales || bp.Revenue.IsZero() {
		split := c.shares.Default
		bp.SZShare = bp.Profit.Mul(decimal.NewFromInt(int64(split.SZ))).Div(oneHundred)
		bp.GZShare = bp.Profit.Sub(bp.SZShare)
		return
	}

	sz := decimal.Zero
	for _, d := range bp.Details {
		split := c.shares.ForSegment(d.Segment)
		weight := d.NetRevenue.Div(bp.Revenue)
		allocated := bp.Profit.Mul(weight)
		sz = sz.Add(allocated.Mul(decimal.NewFromInt(int64(split.SZ))).Div(oneHundred))
	}
	bp.SZShare = sz
	bp.GZShare = bp.Profit.Sub(sz)
}
