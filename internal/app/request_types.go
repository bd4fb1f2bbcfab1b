package app

import (
	"fmt"
	"time"

	"pricewatch/internal/core"
)

const dateLayout = "2006-01-02"

// AnalysisRequest is the input for AnalyzePriceVariation. Dates arrive as
// YYYY-MM-DD strings; empty fields mean "no restriction".
type AnalysisRequest struct {
	DateStart      string
	DateEnd        string
	Buyer          string
	Buyers         []string
	ProductType    string
	Suppliers      []string
	SearchText     string
	Classification string
}

// FilterOptions validates the request and converts it to core filter options.
func (r AnalysisRequest) FilterOptions() (core.FilterOptions, error) {
	f := core.FilterOptions{
		Buyer:       r.Buyer,
		Buyers:      r.Buyers,
		ProductType: r.ProductType,
		Suppliers:   r.Suppliers,
		SearchText:  r.SearchText,
	}

	if r.DateStart != "" {
		t, err := time.Parse(dateLayout, r.DateStart)
		if err != nil {
			return core.FilterOptions{}, fmt.Errorf("%w: date_start %q: expected YYYY-MM-DD", ErrInvalidRequest, r.DateStart)
		}
		f.DateStart = &t
	}
	if r.DateEnd != "" {
		t, err := time.Parse(dateLayout, r.DateEnd)
		if err != nil {
			return core.FilterOptions{}, fmt.Errorf("%w: date_end %q: expected YYYY-MM-DD", ErrInvalidRequest, r.DateEnd)
		}
		f.DateEnd = &t
	}
	if f.DateStart != nil && f.DateEnd != nil && f.DateEnd.Before(*f.DateStart) {
		return core.FilterOptions{}, fmt.Errorf("%w: date_end precedes date_start", ErrInvalidRequest)
	}

	if r.Classification != "" {
		c := core.Classification(r.Classification)
		switch c {
		case core.FirstPurchase, core.Saving, core.Inflation, core.CostAvoidance:
			f.Classification = c
		default:
			return core.FilterOptions{}, fmt.Errorf("%w: unknown classification %q", ErrInvalidRequest, r.Classification)
		}
	}

	return f, nil
}
