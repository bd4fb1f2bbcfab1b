package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// SortedHistory is one product's purchase history as parallel arrays in strict
// ascending date order. Built once, read-only afterwards; entries with the same
// date keep their insertion order and only the first survives deduplication.
type SortedHistory struct {
	dates          []time.Time
	prices         []decimal.Decimal
	supplierCodes  []string
	invoiceNumbers []string
}

// Len returns the number of history points.
func (h *SortedHistory) Len() int { return len(h.dates) }

// Entry returns the history point at position i.
func (h *SortedHistory) Entry(i int) HistoryEntry {
	return HistoryEntry{
		Date:          h.dates[i],
		UnitPrice:     h.prices[i],
		SupplierCode:  h.supplierCodes[i],
		InvoiceNumber: h.invoiceNumbers[i],
	}
}

// HistoryIndex maps product codes to their sorted histories. Products with no
// valid history are simply absent. The index is an immutable snapshot and may
// be shared across goroutines without locking.
type HistoryIndex map[string]*SortedHistory

// BuildHistoryIndex groups the full, unfiltered extract by product code, sorts
// each group by invoice date ascending, and deduplicates entries that collide
// on the exact same (product, date) instant keeping the first inserted.
// Pure function of its input: the lines slice is not retained or mutated.
func BuildHistoryIndex(lines []InvoiceLine) HistoryIndex {
	grouped := make(map[string][]InvoiceLine)
	for _, l := range lines {
		grouped[l.ProductCode] = append(grouped[l.ProductCode], l)
	}

	index := make(HistoryIndex, len(grouped))
	for code, group := range grouped {
		// Stable sort keeps insertion order for same-date entries, which
		// fixes the deterministic tie-break callers rely on.
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].InvoiceDate.Before(group[j].InvoiceDate)
		})

		h := &SortedHistory{
			dates:          make([]time.Time, 0, len(group)),
			prices:         make([]decimal.Decimal, 0, len(group)),
			supplierCodes:  make([]string, 0, len(group)),
			invoiceNumbers: make([]string, 0, len(group)),
		}
		for _, l := range group {
			n := len(h.dates)
			if n > 0 && h.dates[n-1].Equal(l.InvoiceDate) {
				continue // same instant: first inserted wins
			}
			h.dates = append(h.dates, l.InvoiceDate)
			h.prices = append(h.prices, l.UnitPrice)
			h.supplierCodes = append(h.supplierCodes, l.SupplierCode)
			h.invoiceNumbers = append(h.invoiceNumbers, l.InvoiceNumber)
		}
		if h.Len() > 0 {
			index[code] = h
		}
	}
	return index
}

// FindPrior returns the most recent history entry of the product strictly
// older than asOf, or nil when none exists. A missing product code behaves
// identically to an empty history: nil, the FirstPurchase signal, not an error.
func (idx HistoryIndex) FindPrior(productCode string, asOf time.Time) *HistoryEntry {
	h, ok := idx[productCode]
	if !ok {
		return nil
	}
	return h.prior(asOf)
}

// prior locates the insertion point of asOf with a left-biased binary search:
// the match is the entry immediately before it. An entry dated exactly asOf is
// never returned — the baseline must be strictly older.
func (h *SortedHistory) prior(asOf time.Time) *HistoryEntry {
	i := sort.Search(len(h.dates), func(i int) bool {
		return !h.dates[i].Before(asOf)
	})
	if i == 0 {
		return nil
	}
	e := h.Entry(i - 1)
	return &e
}

// FindPriorBatch matches every line against the index, processing lines
// grouped by product code so repeated searches hit the same history array.
// Results are positionally aligned with lines and identical to calling
// FindPrior per item.
func (idx HistoryIndex) FindPriorBatch(lines []InvoiceLine) []MatchedPair {
	byProduct := make(map[string][]int)
	for i, l := range lines {
		byProduct[l.ProductCode] = append(byProduct[l.ProductCode], i)
	}

	pairs := make([]MatchedPair, len(lines))
	for code, positions := range byProduct {
		h := idx[code]
		for _, i := range positions {
			pairs[i] = MatchedPair{Current: lines[i]}
			if h != nil {
				pairs[i].Baseline = h.prior(lines[i].InvoiceDate)
			}
		}
	}
	return pairs
}
