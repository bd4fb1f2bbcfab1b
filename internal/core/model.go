package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Classification labels the price movement of an invoice line against its baseline.
type Classification string

const (
	// FirstPurchase means no prior invoice of the product exists before the line's date.
	FirstPurchase Classification = "FIRST_PURCHASE"
	// Saving means the unit price decreased beyond the absolute tolerance.
	Saving Classification = "SAVING"
	// Inflation means the unit price increased more than 1% over the baseline.
	Inflation Classification = "INFLATION"
	// CostAvoidance means the price was effectively held (within 1% upward,
	// or any decrease too small to clear the absolute tolerance).
	CostAvoidance Classification = "COST_AVOIDANCE"
)

// InvoiceLine is one product row on one fiscal document tied to a purchase order.
// Lines arrive from the extract already governance-filtered: quantity, unit price
// and line total are all > 0 and the purchase order number is non-empty.
type InvoiceLine struct {
	InvoiceNumber       string          `json:"invoice_number"`
	InvoiceSeries       string          `json:"invoice_series"`
	PurchaseOrderNumber string          `json:"purchase_order_number"`
	ProductCode         string          `json:"product_code"`
	ProductDescription  string          `json:"product_description"`
	ProductType         string          `json:"product_type"`
	InvoiceDate         time.Time       `json:"invoice_date"`
	Quantity            decimal.Decimal `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	LineTotal           decimal.Decimal `json:"line_total"`
	SupplierCode        string          `json:"supplier_code"`
	SupplierName        string          `json:"supplier_name"`
	BuyerName           string          `json:"buyer_name"`
	PaymentCondition    string          `json:"payment_condition"`
}

// IdentityKey returns the document identity used for deduplication:
// invoice number + series + supplier + product.
func (l InvoiceLine) IdentityKey() string {
	return l.InvoiceNumber + "\x1f" + l.InvoiceSeries + "\x1f" + l.SupplierCode + "\x1f" + l.ProductCode
}

// HistoryEntry is one point of a product's price history: the denormalized
// projection of an invoice line kept inside the index.
type HistoryEntry struct {
	Date          time.Time       `json:"date"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	SupplierCode  string          `json:"supplier_code"`
	InvoiceNumber string          `json:"invoice_number"`
}

// MatchedPair joins a current invoice line with its baseline history entry.
// Baseline is nil exactly when no entry strictly older than the line's date
// exists for the product.
type MatchedPair struct {
	Current  InvoiceLine
	Baseline *HistoryEntry
}

// ClassifiedVariation is a matched pair plus its classification and monetary impact.
// Impact is nil for FirstPurchase (undefined, rendered as N/A — never zero).
type ClassifiedVariation struct {
	Current        InvoiceLine      `json:"current"`
	Baseline       *HistoryEntry    `json:"baseline,omitempty"`
	Classification Classification   `json:"classification"`
	Impact         *decimal.Decimal `json:"impact,omitempty"`
	// PercentDelta is the price change relative to the baseline, in percent.
	// Zero for FirstPurchase.
	PercentDelta decimal.Decimal `json:"percent_delta"`
}

// KPISet aggregates the monetary effect of one analysis run.
// All amounts are zero-valued (never nil) for an empty result.
type KPISet struct {
	// TotalPaidMore is the sum of Inflation impacts (always >= 0).
	TotalPaidMore decimal.Decimal `json:"total_paid_more"`
	// TotalPaidLess is the absolute sum of Saving impacts (always >= 0).
	TotalPaidLess decimal.Decimal `json:"total_paid_less"`
	// CostAvoidanceValue is the summed line total of held-price rows,
	// reported for information only — it never enters NetBalance.
	CostAvoidanceValue decimal.Decimal `json:"cost_avoidance_value"`
	// NetBalance is the signed sum of all impacts (savings negative).
	NetBalance decimal.Decimal `json:"net_balance"`

	CountSaving        int `json:"count_saving"`
	CountInflation     int `json:"count_inflation"`
	CountCostAvoidance int `json:"count_cost_avoidance"`
	CountFirstPurchase int `json:"count_first_purchase"`
	TotalItems         int `json:"total_items"`
}

// FilterOptions narrows the analysis window. Every field is independently
// optional; the zero value means "no restriction".
type FilterOptions struct {
	DateStart      *time.Time
	DateEnd        *time.Time
	Buyer          string
	Buyers         []string
	ProductType    string
	Suppliers      []string
	SearchText     string
	Classification Classification
}

// ChartPoint is one label/value pair of a chart series, with the value split
// by classification.
type ChartPoint struct {
	Label         string          `json:"label"`
	Total         decimal.Decimal `json:"total"`
	Saving        decimal.Decimal `json:"saving"`
	Inflation     decimal.Decimal `json:"inflation"`
	CostAvoidance decimal.Decimal `json:"cost_avoidance"`
}

// PricePoint is one point of the Analytic-mode price evolution series.
type PricePoint struct {
	Date  time.Time       `json:"date"`
	Price decimal.Decimal `json:"price"`
}

// ModeKind discriminates the two presentation modes.
type ModeKind string

const (
	ModeExecutive ModeKind = "EXECUTIVE"
	ModeAnalytic  ModeKind = "ANALYTIC"
)

// Mode is decided once per request, before any aggregation, and threaded
// explicitly through the pipeline.
type Mode struct {
	Kind ModeKind
	// IsolatedProductCode is set when a search term matched exactly one
	// product code; the working set is then restricted to that product.
	IsolatedProductCode string
}

// Isolated reports whether the mode pins the working set to a single product.
func (m Mode) Isolated() bool {
	return m.Kind == ModeAnalytic && m.IsolatedProductCode != ""
}

// AnalysisResult is the full output of one analysis run.
type AnalysisResult struct {
	Mode Mode                  `json:"mode"`
	KPIs KPISet                `json:"kpis"`
	Rows []ClassifiedVariation `json:"rows"`

	// Chart series, both modes: impact grouped by buyer and by calendar month.
	ByBuyer []ChartPoint `json:"by_buyer"`
	ByMonth []ChartPoint `json:"by_month"`

	// Analytic mode only.
	PriceSeries []PricePoint `json:"price_series,omitempty"`
	// CostAvoidanceAccumulated is the continuing benefit of price cuts that
	// were subsequently held. Zero in Executive mode, where the per-product
	// sequence cannot be reconstructed.
	CostAvoidanceAccumulated decimal.Decimal `json:"cost_avoidance_accumulated"`
}

// Catalog lists the distinct filter values present in the full snapshot,
// used by the presentation layer to populate dropdowns.
type Catalog struct {
	Buyers       []string `json:"buyers"`
	ProductTypes []string `json:"product_types"`
	Suppliers    []string `json:"suppliers"`
}
