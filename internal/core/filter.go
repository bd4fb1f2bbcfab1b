package core

import (
	"strings"
	"time"
)

// shortTermLen is the cutoff under which a search term is treated as a code
// lookup (exact-match-first) rather than a free description search.
const shortTermLen = 6

// ApplyFilters narrows lines by the given options, in a fixed stage order,
// short-circuiting as soon as a stage empties the set. The date window applies
// to the line's own invoice date only — never to baseline history dates, which
// may and should reach further back than the window.
//
// The free-text stage is skipped when skipText is set (Analytic isolation has
// already restricted the working set to one product code; re-running the text
// match could leak rows whose PO numbers merely contain the code).
func ApplyFilters(lines []InvoiceLine, f FilterOptions, skipText bool) []InvoiceLine {
	out := filterDates(lines, f.DateStart, f.DateEnd)
	if len(out) == 0 {
		return out
	}
	out = filterSuppliers(out, f.Suppliers)
	if len(out) == 0 {
		return out
	}
	out = filterBuyer(out, f.Buyer, f.Buyers)
	if len(out) == 0 {
		return out
	}
	out = filterProductType(out, f.ProductType)
	if len(out) == 0 {
		return out
	}
	if !skipText {
		out = FilterSearchText(out, f.SearchText)
	}
	return out
}

// FilterClassification keeps only rows carrying the given label. An empty
// label means no restriction. Applied after classification, before KPI
// aggregation.
func FilterClassification(rows []ClassifiedVariation, c Classification) []ClassifiedVariation {
	if c == "" {
		return rows
	}
	out := make([]ClassifiedVariation, 0, len(rows))
	for _, r := range rows {
		if r.Classification == c {
			out = append(out, r)
		}
	}
	return out
}

// filterDates keeps lines whose invoice date falls inside [start, end].
// The end bound is inclusive of the whole day: date < end + 1 day.
func filterDates(lines []InvoiceLine, start, end *time.Time) []InvoiceLine {
	if start == nil && end == nil {
		return lines
	}
	var ceiling time.Time
	if end != nil {
		ceiling = end.AddDate(0, 0, 1)
	}
	out := make([]InvoiceLine, 0, len(lines))
	for _, l := range lines {
		if start != nil && l.InvoiceDate.Before(*start) {
			continue
		}
		if end != nil && !l.InvoiceDate.Before(ceiling) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// filterSuppliers keeps lines whose supplier code or name is in the set.
// Matching is exact and case-sensitive: the values come from the extract's own
// catalog, not free user input.
func filterSuppliers(lines []InvoiceLine, suppliers []string) []InvoiceLine {
	if len(suppliers) == 0 {
		return lines
	}
	set := make(map[string]struct{}, len(suppliers))
	for _, s := range suppliers {
		set[s] = struct{}{}
	}
	out := make([]InvoiceLine, 0, len(lines))
	for _, l := range lines {
		if _, ok := set[l.SupplierCode]; ok {
			out = append(out, l)
			continue
		}
		if _, ok := set[l.SupplierName]; ok {
			out = append(out, l)
		}
	}
	return out
}

// filterBuyer keeps lines for one buyer (case-insensitive exact match) or for
// a list of buyers when given.
func filterBuyer(lines []InvoiceLine, buyer string, buyers []string) []InvoiceLine {
	if len(buyers) > 0 {
		set := make(map[string]struct{}, len(buyers))
		for _, b := range buyers {
			set[strings.ToLower(strings.TrimSpace(b))] = struct{}{}
		}
		out := make([]InvoiceLine, 0, len(lines))
		for _, l := range lines {
			if _, ok := set[strings.ToLower(l.BuyerName)]; ok {
				out = append(out, l)
			}
		}
		return out
	}
	if buyer == "" {
		return lines
	}
	want := strings.ToLower(strings.TrimSpace(buyer))
	out := make([]InvoiceLine, 0, len(lines))
	for _, l := range lines {
		if strings.ToLower(l.BuyerName) == want {
			out = append(out, l)
		}
	}
	return out
}

func filterProductType(lines []InvoiceLine, productType string) []InvoiceLine {
	if productType == "" {
		return lines
	}
	out := make([]InvoiceLine, 0, len(lines))
	for _, l := range lines {
		if l.ProductType == productType {
			out = append(out, l)
		}
	}
	return out
}

// SearchTerms splits a raw search string on commas into distinct upper-cased
// terms, preserving first-seen order.
func SearchTerms(text string) []string {
	var terms []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(text, ",") {
		t := strings.ToUpper(strings.TrimSpace(part))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	return terms
}

// FilterSearchText admits lines matching any search term.
//
// Terms of up to six characters are code lookups: when the term exactly
// matches some line's product code, purchase order number or invoice number,
// only exact matches are admitted — so a short product code does not
// spuriously substring-match an unrelated PO number. With no exact hit
// anywhere, the short term falls back to substring matching over the same
// code fields. Longer terms substring-match across description, PO number,
// payment condition, product code and invoice number.
func FilterSearchText(lines []InvoiceLine, text string) []InvoiceLine {
	terms := SearchTerms(text)
	if len(terms) == 0 {
		return lines
	}

	admit := make([]bool, len(lines))
	for _, term := range terms {
		if len(term) <= shortTermLen {
			matchShortTerm(lines, term, admit)
		} else {
			matchLongTerm(lines, term, admit)
		}
	}

	out := make([]InvoiceLine, 0, len(lines))
	for i, l := range lines {
		if admit[i] {
			out = append(out, l)
		}
	}
	return out
}

func matchShortTerm(lines []InvoiceLine, term string, admit []bool) {
	exactAnywhere := false
	for _, l := range lines {
		if shortTermExact(l, term) {
			exactAnywhere = true
			break
		}
	}
	for i, l := range lines {
		if exactAnywhere {
			if shortTermExact(l, term) {
				admit[i] = true
			}
		} else if shortTermSubstring(l, term) {
			admit[i] = true
		}
	}
}

func shortTermExact(l InvoiceLine, term string) bool {
	return strings.ToUpper(l.ProductCode) == term ||
		strings.ToUpper(l.PurchaseOrderNumber) == term ||
		strings.ToUpper(l.InvoiceNumber) == term
}

func shortTermSubstring(l InvoiceLine, term string) bool {
	return strings.Contains(strings.ToUpper(l.ProductCode), term) ||
		strings.Contains(strings.ToUpper(l.PurchaseOrderNumber), term) ||
		strings.Contains(strings.ToUpper(l.InvoiceNumber), term)
}

func matchLongTerm(lines []InvoiceLine, term string, admit []bool) {
	for i, l := range lines {
		if strings.Contains(strings.ToUpper(l.ProductDescription), term) ||
			strings.Contains(strings.ToUpper(l.PurchaseOrderNumber), term) ||
			strings.Contains(strings.ToUpper(l.PaymentCondition), term) ||
			strings.Contains(strings.ToUpper(l.ProductCode), term) ||
			strings.Contains(strings.ToUpper(l.InvoiceNumber), term) {
			admit[i] = true
		}
	}
}
