package app

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pricewatch/internal/core"
)

type stubProvider struct {
	snap     *core.Snapshot
	err      error
	refreshs int
}

func (s *stubProvider) Get(ctx context.Context) (*core.Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snap, nil
}

func (s *stubProvider) Refresh(ctx context.Context) (*core.Snapshot, error) {
	s.refreshs++
	return s.Get(ctx)
}

func newService(lines []core.InvoiceLine) (ApplicationService, *stubProvider) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	provider := &stubProvider{snap: core.BuildSnapshot(lines)}
	engine := core.NewEngine(provider, log, 500)
	return NewAppService(engine, provider), provider
}

func sampleLines() []core.InvoiceLine {
	mk := func(invoice string, d time.Time, price string) core.InvoiceLine {
		p := decimal.RequireFromString(price)
		return core.InvoiceLine{
			InvoiceNumber:       invoice,
			PurchaseOrderNumber: "PO-" + invoice,
			ProductCode:         "481205",
			ProductDescription:  "STEEL PLATE 5MM",
			ProductType:         "MP",
			InvoiceDate:         d,
			Quantity:            decimal.NewFromInt(2),
			UnitPrice:           p,
			LineTotal:           p.Mul(decimal.NewFromInt(2)),
			SupplierCode:        "S01",
			SupplierName:        "Supplier One",
			BuyerName:           "Alice",
		}
	}
	return []core.InvoiceLine{
		mk("NF-1", time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), "90.0"),
		mk("NF-2", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), "70.0"),
	}
}

func TestFilterOptions_Parsing(t *testing.T) {
	req := AnalysisRequest{
		DateStart:      "2025-01-01",
		DateEnd:        "2025-06-30",
		Buyer:          "alice",
		Classification: "SAVING",
	}
	f, err := req.FilterOptions()
	if err != nil {
		t.Fatalf("FilterOptions: %v", err)
	}
	if f.DateStart == nil || !f.DateStart.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("DateStart = %v", f.DateStart)
	}
	if f.Classification != core.Saving {
		t.Errorf("Classification = %q", f.Classification)
	}
}

func TestFilterOptions_Invalid(t *testing.T) {
	cases := []struct {
		name string
		req  AnalysisRequest
	}{
		{"malformed start date", AnalysisRequest{DateStart: "01/02/2025"}},
		{"malformed end date", AnalysisRequest{DateEnd: "2025-13-40"}},
		{"inverted window", AnalysisRequest{DateStart: "2025-06-01", DateEnd: "2025-01-01"}},
		{"unknown classification", AnalysisRequest{Classification: "DISCOUNT"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.req.FilterOptions()
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestAnalyzePriceVariation(t *testing.T) {
	svc, _ := newService(sampleLines())

	result, err := svc.AnalyzePriceVariation(context.Background(), AnalysisRequest{})
	if err != nil {
		t.Fatalf("AnalyzePriceVariation: %v", err)
	}
	if result.Analysis.Mode.Kind != core.ModeExecutive {
		t.Errorf("Mode = %v, want executive", result.Analysis.Mode.Kind)
	}
	if result.Analysis.KPIs.TotalItems != 2 {
		t.Errorf("TotalItems = %d, want 2", result.Analysis.KPIs.TotalItems)
	}
	if !result.Analysis.KPIs.TotalPaidLess.Equal(decimal.RequireFromString("40.0")) {
		t.Errorf("TotalPaidLess = %s, want 40.0", result.Analysis.KPIs.TotalPaidLess)
	}
}

func TestAnalyzePriceVariation_InvalidRequestShortCircuits(t *testing.T) {
	svc, _ := newService(sampleLines())

	_, err := svc.AnalyzePriceVariation(context.Background(), AnalysisRequest{DateStart: "bad"})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestAnalyzePriceVariation_ExtractUnavailable(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	provider := &stubProvider{err: core.ErrExtractUnavailable}
	engine := core.NewEngine(provider, log, 500)
	svc := NewAppService(engine, provider)

	_, err := svc.AnalyzePriceVariation(context.Background(), AnalysisRequest{})
	if !errors.Is(err, core.ErrExtractUnavailable) {
		t.Fatalf("expected ErrExtractUnavailable, got %v", err)
	}
}

func TestGetFilterCatalog(t *testing.T) {
	svc, _ := newService(sampleLines())

	result, err := svc.GetFilterCatalog(context.Background())
	if err != nil {
		t.Fatalf("GetFilterCatalog: %v", err)
	}
	if len(result.Catalog.Buyers) != 1 || result.Catalog.Buyers[0] != "Alice" {
		t.Errorf("Buyers = %v", result.Catalog.Buyers)
	}
	if len(result.Catalog.Suppliers) != 1 {
		t.Errorf("Suppliers = %v", result.Catalog.Suppliers)
	}
}

func TestGetSnapshotStatus(t *testing.T) {
	svc, provider := newService(sampleLines())

	status, err := svc.GetSnapshotStatus(context.Background())
	if err != nil {
		t.Fatalf("GetSnapshotStatus: %v", err)
	}
	if provider.refreshs != 0 {
		t.Errorf("status read must not force a rebuild, Refresh calls = %d", provider.refreshs)
	}
	if status.LoadedAt.IsZero() {
		t.Error("expected LoadedAt to be set")
	}
	if status.Stats.TotalLines != 2 || status.Stats.Products != 1 {
		t.Errorf("Stats = %+v", status.Stats)
	}
}

func TestRefreshSnapshot(t *testing.T) {
	svc, provider := newService(sampleLines())

	status, err := svc.RefreshSnapshot(context.Background())
	if err != nil {
		t.Fatalf("RefreshSnapshot: %v", err)
	}
	if provider.refreshs != 1 {
		t.Errorf("Refresh calls = %d, want 1", provider.refreshs)
	}
	if status.Stats.TotalLines != 2 {
		t.Errorf("TotalLines = %d, want 2", status.Stats.TotalLines)
	}
}
