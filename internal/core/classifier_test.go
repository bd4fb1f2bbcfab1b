package core_test

import (
	"testing"

	"pricewatch/internal/core"

	"github.com/shopspring/decimal"
)

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		baseline *decimal.Decimal
		want     core.Classification
	}{
		{"no baseline", "50.0", nil, core.FirstPurchase},
		{"zero baseline is defensive first purchase", "50.0", decPtr("0"), core.FirstPurchase},
		{"negative baseline is defensive first purchase", "50.0", decPtr("-1"), core.FirstPurchase},
		{"clear decrease", "88.0", decPtr("90.0"), core.Saving},
		{"small increase within one percent", "90.3", decPtr("90.0"), core.CostAvoidance},
		{"increase beyond one percent", "95.0", decPtr("90.0"), core.Inflation},
		{"price held exactly", "90.0", decPtr("90.0"), core.CostAvoidance},
		{"increase of exactly one percent stays held", "90.9", decPtr("90.0"), core.CostAvoidance},
		{"increase just over one percent", "90.91", decPtr("90.0"), core.Inflation},
		// A decrease smaller than the absolute tolerance is deliberately NOT a
		// saving: it falls to the percent branch, which is always <= 1 for a
		// negative delta, landing in CostAvoidance. Preserved, not "fixed".
		{"tiny decrease under tolerance", "89.995", decPtr("90.0"), core.CostAvoidance},
		{"decrease exactly at tolerance is not a saving", "89.99", decPtr("90.0"), core.CostAvoidance},
		{"decrease just past tolerance", "89.989", decPtr("90.0"), core.Saving},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.Classify(dec(tt.current), tt.baseline)
			if got != tt.want {
				t.Errorf("Classify(%s, %v) = %s, want %s", tt.current, tt.baseline, got, tt.want)
			}
		})
	}
}

func TestImpact(t *testing.T) {
	t.Run("first purchase impact is nil, never zero", func(t *testing.T) {
		if got := core.Impact(core.FirstPurchase, dec("50.0"), nil, dec("3")); got != nil {
			t.Errorf("Impact(FirstPurchase) = %s, want nil", got)
		}
	})

	t.Run("cost avoidance impact is exactly zero", func(t *testing.T) {
		got := core.Impact(core.CostAvoidance, dec("90.3"), decPtr("90.0"), dec("5"))
		if got == nil || !got.IsZero() {
			t.Errorf("Impact(CostAvoidance) = %v, want exactly 0", got)
		}
	})

	t.Run("saving carries negative sign", func(t *testing.T) {
		got := core.Impact(core.Saving, dec("88.0"), decPtr("90.0"), dec("10"))
		if got == nil || !got.Equal(dec("-20.0")) {
			t.Errorf("Impact(Saving) = %v, want -20.0", got)
		}
	})

	t.Run("inflation carries positive sign", func(t *testing.T) {
		got := core.Impact(core.Inflation, dec("95.0"), decPtr("90.0"), dec("5"))
		if got == nil || !got.Equal(dec("25.0")) {
			t.Errorf("Impact(Inflation) = %v, want 25.0", got)
		}
	})
}

// Worked scenario: P1 history [(2024-01-10, 100.0), (2024-03-05, 90.0)],
// current invoice (2024-06-01, 88.0, qty 10) → baseline (2024-03-05, 90.0),
// Saving, impact -20.0.
func TestClassifyPair_Scenario(t *testing.T) {
	idx := core.BuildHistoryIndex([]core.InvoiceLine{
		line("P1", date(2024, 1, 10), "100.0", "1"),
		line("P1", date(2024, 3, 5), "90.0", "1"),
	})

	current := line("P1", date(2024, 6, 1), "88.0", "10")
	baseline := idx.FindPrior("P1", current.InvoiceDate)
	if baseline == nil {
		t.Fatal("expected a baseline")
	}
	if !baseline.Date.Equal(date(2024, 3, 5)) || !baseline.UnitPrice.Equal(dec("90.0")) {
		t.Fatalf("baseline = (%v, %s), want (2024-03-05, 90.0)", baseline.Date, baseline.UnitPrice)
	}

	v := core.ClassifyPair(core.MatchedPair{Current: current, Baseline: baseline})
	if v.Classification != core.Saving {
		t.Errorf("classification = %s, want Saving", v.Classification)
	}
	if v.Impact == nil || !v.Impact.Equal(dec("-20.0")) {
		t.Errorf("impact = %v, want -20.0", v.Impact)
	}
}

func TestClassifyPair_FirstPurchaseScenario(t *testing.T) {
	idx := core.BuildHistoryIndex(nil)
	current := line("P2", date(2024, 2, 1), "50.0", "3")
	v := core.ClassifyPair(core.MatchedPair{
		Current:  current,
		Baseline: idx.FindPrior("P2", current.InvoiceDate),
	})
	if v.Classification != core.FirstPurchase {
		t.Errorf("classification = %s, want FirstPurchase", v.Classification)
	}
	if v.Impact != nil {
		t.Errorf("impact = %s, want nil", v.Impact)
	}
}

func TestAccumulateCostAvoidance(t *testing.T) {
	// Chronological sequence for one product:
	//   baseline 100 → 90 (Saving, remembers pre-cut price 100)
	//   90 held twice (each contributes (100-90)*qty)
	//   90 → 80 (new Saving, tracked pair resets to pre-cut price 90)
	//   80 held once (contributes (90-80)*qty)
	mk := func(class core.Classification, baselinePrice, currentPrice, qty string) core.ClassifiedVariation {
		cur := line("P1", date(2024, 6, 1), currentPrice, qty)
		b := core.HistoryEntry{Date: date(2024, 1, 1), UnitPrice: dec(baselinePrice)}
		return core.ClassifiedVariation{
			Current:        cur,
			Baseline:       &b,
			Classification: class,
		}
	}

	rows := []core.ClassifiedVariation{
		mk(core.Saving, "100", "90", "1"),
		mk(core.CostAvoidance, "90", "90", "2"),  // (100-90)*2 = 20
		mk(core.CostAvoidance, "90", "90.5", "1"), // (100-90.5)*1 = 9.5
		mk(core.Saving, "90", "80", "1"),
		mk(core.CostAvoidance, "80", "80", "3"), // (90-80)*3 = 30
	}

	got := core.AccumulateCostAvoidance(rows)
	if !got.Equal(dec("59.5")) {
		t.Errorf("accumulated cost avoidance = %s, want 59.5", got)
	}
}

func TestAccumulateCostAvoidance_NoPriorSaving(t *testing.T) {
	rows := []core.ClassifiedVariation{
		{
			Current:        line("P1", date(2024, 3, 1), "90.0", "5"),
			Baseline:       &core.HistoryEntry{Date: date(2024, 1, 1), UnitPrice: dec("90.0")},
			Classification: core.CostAvoidance,
		},
	}
	if got := core.AccumulateCostAvoidance(rows); !got.IsZero() {
		t.Errorf("accumulated = %s, want 0 (held price with no preceding saving)", got)
	}
}
