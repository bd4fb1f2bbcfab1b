package core

import "github.com/shopspring/decimal"

// Classification thresholds. A price drop must clear the absolute tolerance to
// count as a Saving; an increase must exceed one percent to count as Inflation.
// Everything in between is a held price.
var (
	toleranceAbs     = decimal.RequireFromString("0.01")
	inflationPercent = decimal.RequireFromString("1.0")
	hundred          = decimal.NewFromInt(100)
)

// Classify labels the price movement of currentPrice against baseline.
// It is total and mutually exclusive: every input lands in exactly one label.
// A nil or non-positive baseline maps to FirstPurchase (the latter defensively;
// the extract contract excludes non-positive prices).
//
// Note the deliberate asymmetry: a decrease smaller than the absolute
// tolerance fails the Saving test and, since its percent delta is negative and
// therefore below the inflation threshold, lands in CostAvoidance. The exact
// boundary delta == -0.01 is NOT a Saving (strict comparison).
func Classify(currentPrice decimal.Decimal, baseline *decimal.Decimal) Classification {
	if baseline == nil || !baseline.IsPositive() {
		return FirstPurchase
	}
	delta := currentPrice.Sub(*baseline)
	if delta.LessThan(toleranceAbs.Neg()) {
		return Saving
	}
	percent := delta.Div(*baseline).Mul(hundred)
	if percent.GreaterThan(inflationPercent) {
		return Inflation
	}
	return CostAvoidance
}

// PercentDelta returns the price change relative to baseline in percent, or
// zero when no valid baseline exists.
func PercentDelta(currentPrice decimal.Decimal, baseline *decimal.Decimal) decimal.Decimal {
	if baseline == nil || !baseline.IsPositive() {
		return decimal.Zero
	}
	return currentPrice.Sub(*baseline).Div(*baseline).Mul(hundred)
}

// Impact computes the signed monetary effect of a classification.
// FirstPurchase has no baseline, so its impact is undefined: nil, never zero.
// CostAvoidance is exactly zero — the held price contributes no delta to the
// headline totals. Saving and Inflation carry (current - baseline) * quantity,
// negative for savings; the sign is meaningful and must survive aggregation.
func Impact(c Classification, currentPrice decimal.Decimal, baseline *decimal.Decimal, quantity decimal.Decimal) *decimal.Decimal {
	switch c {
	case FirstPurchase:
		return nil
	case CostAvoidance:
		zero := decimal.Zero
		return &zero
	default:
		v := currentPrice.Sub(*baseline).Mul(quantity)
		return &v
	}
}

// ClassifyPair classifies a matched pair and fills in impact and percent delta.
func ClassifyPair(p MatchedPair) ClassifiedVariation {
	var baseline *decimal.Decimal
	if p.Baseline != nil {
		baseline = &p.Baseline.UnitPrice
	}
	c := Classify(p.Current.UnitPrice, baseline)
	return ClassifiedVariation{
		Current:        p.Current,
		Baseline:       p.Baseline,
		Classification: c,
		Impact:         Impact(c, p.Current.UnitPrice, baseline, p.Current.Quantity),
		PercentDelta:   PercentDelta(p.Current.UnitPrice, baseline),
	}
}

// AccumulateCostAvoidance walks a single product's chronological variation
// sequence and totals the continuing benefit of price cuts that were
// subsequently held: after each Saving event the pre-cut price is remembered,
// and every following CostAvoidance row contributes
// (price_before_reduction - current_price) * quantity when positive.
// A new Saving resets the tracked pair. Only meaningful in Analytic mode,
// where the full sequence of one product is available.
func AccumulateCostAvoidance(rows []ClassifiedVariation) decimal.Decimal {
	total := decimal.Zero
	var priceBeforeReduction *decimal.Decimal

	for _, r := range rows {
		switch r.Classification {
		case Saving:
			p := r.Baseline.UnitPrice
			priceBeforeReduction = &p
		case CostAvoidance:
			if priceBeforeReduction == nil {
				continue
			}
			benefit := priceBeforeReduction.Sub(r.Current.UnitPrice).Mul(r.Current.Quantity)
			if benefit.IsPositive() {
				total = total.Add(benefit)
			}
		}
	}
	return total
}
