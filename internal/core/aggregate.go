package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DecideMode picks the presentation mode once, at the start of a request.
//
// A non-empty search text whose term exactly matches an existing product code
// (case-insensitive) switches to single-product Analytic mode: the whole
// working set is restricted to that product before any further computation.
// Search text without an exact code match still yields Analytic mode, but
// spanning whatever the broader substring search admits. No search text means
// Executive mode.
func DecideMode(lines []InvoiceLine, searchText string) Mode {
	terms := SearchTerms(searchText)
	if len(terms) == 0 {
		return Mode{Kind: ModeExecutive}
	}

	codes := make(map[string]string, len(lines))
	for _, l := range lines {
		codes[strings.ToUpper(l.ProductCode)] = l.ProductCode
	}
	for _, term := range terms {
		if code, ok := codes[term]; ok {
			return Mode{Kind: ModeAnalytic, IsolatedProductCode: code}
		}
	}
	return Mode{Kind: ModeAnalytic}
}

// IsolateProduct restricts lines to a single product code.
func IsolateProduct(lines []InvoiceLine, productCode string) []InvoiceLine {
	out := make([]InvoiceLine, 0, len(lines))
	for _, l := range lines {
		if l.ProductCode == productCode {
			out = append(out, l)
		}
	}
	return out
}

// AggregateKPIs sums the monetary effect of classified rows. FirstPurchase
// rows are counted but contribute nothing to the totals. The held-price value
// is informational (summed line totals) and never enters the net balance.
func AggregateKPIs(rows []ClassifiedVariation) KPISet {
	k := KPISet{
		TotalPaidMore:      decimal.Zero,
		TotalPaidLess:      decimal.Zero,
		CostAvoidanceValue: decimal.Zero,
		NetBalance:         decimal.Zero,
		TotalItems:         len(rows),
	}
	for _, r := range rows {
		switch r.Classification {
		case Saving:
			k.CountSaving++
			k.TotalPaidLess = k.TotalPaidLess.Add(r.Impact.Abs())
			k.NetBalance = k.NetBalance.Add(*r.Impact)
		case Inflation:
			k.CountInflation++
			k.TotalPaidMore = k.TotalPaidMore.Add(*r.Impact)
			k.NetBalance = k.NetBalance.Add(*r.Impact)
		case CostAvoidance:
			k.CountCostAvoidance++
			k.CostAvoidanceValue = k.CostAvoidanceValue.Add(r.Current.LineTotal)
		case FirstPurchase:
			k.CountFirstPurchase++
		}
	}
	return k
}

// ExecutiveRows reduces classified rows to one display row per product,
// keeping the row with the max invoice date. This dedup is display-only — KPI
// totals are computed over the full row set before it. Rows are ordered by
// impact ascending (largest savings first, FirstPurchase rows last) and
// capped.
func ExecutiveRows(rows []ClassifiedVariation, limit int) []ClassifiedVariation {
	latest := make(map[string]ClassifiedVariation)
	order := make([]string, 0)
	for _, r := range rows {
		prev, ok := latest[r.Current.ProductCode]
		if !ok {
			order = append(order, r.Current.ProductCode)
			latest[r.Current.ProductCode] = r
			continue
		}
		if r.Current.InvoiceDate.After(prev.Current.InvoiceDate) {
			latest[r.Current.ProductCode] = r
		}
	}

	out := make([]ClassifiedVariation, 0, len(order))
	for _, code := range order {
		out = append(out, latest[code])
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Impact, out[j].Impact
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.LessThan(*b)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// AnalyticRows keeps every distinct invoice, chronologically sorted. The
// redundant-ingestion dedup already happened at snapshot build; no per-product
// reduction is applied here.
func AnalyticRows(rows []ClassifiedVariation) []ClassifiedVariation {
	out := make([]ClassifiedVariation, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Current.InvoiceDate.Before(out[j].Current.InvoiceDate)
	})
	return out
}

// PriceSeries projects chronologically sorted rows onto (date, price) points.
func PriceSeries(rows []ClassifiedVariation) []PricePoint {
	out := make([]PricePoint, len(rows))
	for i, r := range rows {
		out[i] = PricePoint{Date: r.Current.InvoiceDate, Price: r.Current.UnitPrice}
	}
	return out
}

// ChartByBuyer groups rows by buyer, summing impact split by classification.
// Points are ordered by total ascending so the chart leads with the buyers
// delivering the largest savings.
func ChartByBuyer(rows []ClassifiedVariation) []ChartPoint {
	points := chartGroup(rows, func(r ClassifiedVariation) string {
		return r.Current.BuyerName
	})
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Total.LessThan(points[j].Total)
	})
	return points
}

// ChartByMonth groups rows by calendar month of the invoice date (YYYY-MM),
// summing impact split by classification, in month order.
func ChartByMonth(rows []ClassifiedVariation) []ChartPoint {
	points := chartGroup(rows, func(r ClassifiedVariation) string {
		return r.Current.InvoiceDate.Format("2006-01")
	})
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Label < points[j].Label
	})
	return points
}

func chartGroup(rows []ClassifiedVariation, key func(ClassifiedVariation) string) []ChartPoint {
	byLabel := make(map[string]*ChartPoint)
	order := make([]string, 0)
	for _, r := range rows {
		if r.Impact == nil {
			continue
		}
		label := key(r)
		p, ok := byLabel[label]
		if !ok {
			p = &ChartPoint{
				Label:         label,
				Total:         decimal.Zero,
				Saving:        decimal.Zero,
				Inflation:     decimal.Zero,
				CostAvoidance: decimal.Zero,
			}
			byLabel[label] = p
			order = append(order, label)
		}
		p.Total = p.Total.Add(*r.Impact)
		switch r.Classification {
		case Saving:
			p.Saving = p.Saving.Add(*r.Impact)
		case Inflation:
			p.Inflation = p.Inflation.Add(*r.Impact)
		case CostAvoidance:
			p.CostAvoidance = p.CostAvoidance.Add(*r.Impact)
		}
	}

	out := make([]ChartPoint, 0, len(order))
	for _, label := range order {
		out = append(out, *byLabel[label])
	}
	return out
}

// BuildCatalog lists the distinct buyers, product types and suppliers present
// in the full snapshot, sorted, for dropdown population.
func BuildCatalog(lines []InvoiceLine) Catalog {
	buyers := make(map[string]struct{})
	types := make(map[string]struct{})
	suppliers := make(map[string]struct{})
	for _, l := range lines {
		if l.BuyerName != "" {
			buyers[l.BuyerName] = struct{}{}
		}
		if l.ProductType != "" {
			types[l.ProductType] = struct{}{}
		}
		if l.SupplierName != "" {
			suppliers[l.SupplierName] = struct{}{}
		}
	}
	return Catalog{
		Buyers:       sortedKeys(buyers),
		ProductTypes: sortedKeys(types),
		Suppliers:    sortedKeys(suppliers),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
