// Package extract obtains the flat invoice-line dataset from the external
// relational store. Governance filtering lives here, upstream of the engine:
// only real invoice lines tied to a purchase order, with positive quantity,
// unit price and line total, ever reach the core.
package extract

import (
	"context"
	"fmt"
	"time"

	"pricewatch/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

// defaultExcludedProductTypes are product categories outside price governance
// (consignment goods, services, industrial byproducts).
var defaultExcludedProductTypes = []string{"BN", "SV", "PR"}

// Config tunes the extract query.
type Config struct {
	// HistoryYears bounds how far back the extract reaches. Baselines may be
	// much older than the analysis window, so this floor is generous.
	HistoryYears int
	// ExcludedProductTypes overrides the default exclusion list when non-nil.
	ExcludedProductTypes []string
	// BuyerNames maps raw buyer codes to display names. Codes without a
	// mapping collapse into "Other".
	BuyerNames map[string]string
}

// Loader reads purchase invoice lines from PostgreSQL.
type Loader struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewLoader constructs a Loader backed by the given pool.
func NewLoader(pool *pgxpool.Pool, cfg Config) *Loader {
	if cfg.HistoryYears <= 0 {
		cfg.HistoryYears = 4
	}
	if cfg.ExcludedProductTypes == nil {
		cfg.ExcludedProductTypes = defaultExcludedProductTypes
	}
	return &Loader{pool: pool, cfg: cfg}
}

// Load returns the complete governed extract in one synchronous call. It
// either yields the full history snapshot or fails; there is no partial
// result. Scan failures mean the extract shape changed underneath us and are
// reported as a malformed extract, a configuration error distinct from the
// source being unreachable.
func (l *Loader) Load(ctx context.Context) ([]core.InvoiceLine, error) {
	floor := time.Now().AddDate(-l.cfg.HistoryYears, 0, 0).Format("2006-01-02")

	const q = `
		SELECT ii.invoice_number,
		       COALESCE(ii.invoice_series, ''),
		       TRIM(ii.purchase_order_number),
		       ii.product_code,
		       COALESCE(p.description, ''),
		       COALESCE(p.product_type, ''),
		       ii.invoice_date,
		       ii.quantity,
		       ii.unit_price,
		       ii.line_total,
		       s.supplier_code,
		       COALESCE(s.name, ''),
		       COALESCE(TRIM(s.buyer_code), ''),
		       COALESCE(ii.payment_condition, '')
		FROM purchase_invoice_items ii
		JOIN suppliers s  ON s.supplier_code = ii.supplier_code
		LEFT JOIN products p ON p.code = ii.product_code
		WHERE ii.invoice_date >= $1::date
		  AND ii.quantity   > 0
		  AND ii.unit_price > 0
		  AND ii.line_total > 0
		  AND COALESCE(TRIM(ii.purchase_order_number), '') <> ''
		  AND COALESCE(p.product_type, '') <> ALL($2)
		ORDER BY ii.invoice_date`

	rows, err := l.pool.Query(ctx, q, floor, l.cfg.ExcludedProductTypes)
	if err != nil {
		return nil, fmt.Errorf("query invoice extract: %w", err)
	}
	defer rows.Close()

	var lines []core.InvoiceLine
	for rows.Next() {
		var ln core.InvoiceLine
		var buyerCode string
		if err := rows.Scan(
			&ln.InvoiceNumber, &ln.InvoiceSeries, &ln.PurchaseOrderNumber,
			&ln.ProductCode, &ln.ProductDescription, &ln.ProductType,
			&ln.InvoiceDate, &ln.Quantity, &ln.UnitPrice, &ln.LineTotal,
			&ln.SupplierCode, &ln.SupplierName, &buyerCode, &ln.PaymentCondition,
		); err != nil {
			return nil, fmt.Errorf("%w: scan invoice line: %v", core.ErrMalformedExtract, err)
		}
		ln.BuyerName = l.buyerName(buyerCode)
		lines = append(lines, ln)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read invoice extract: %w", err)
	}
	return lines, nil
}

func (l *Loader) buyerName(code string) string {
	if name, ok := l.cfg.BuyerNames[code]; ok {
		return name
	}
	return "Other"
}
