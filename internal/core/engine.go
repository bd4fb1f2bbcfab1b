package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Loader obtains the flat, already-joined invoice extract from the external
// source. The call is synchronous and atomic: it returns a complete snapshot
// of history or fails; the engine never works from a partial extract.
type Loader interface {
	Load(ctx context.Context) ([]InvoiceLine, error)
}

// SnapshotStats summarizes a built snapshot for logging and diagnostics.
type SnapshotStats struct {
	TotalLines    int       `json:"total_lines"`
	DroppedDupes  int       `json:"dropped_dupes"`
	Products      int       `json:"products"`
	WithBaseline  int       `json:"with_baseline"`
	OldestInvoice time.Time `json:"oldest_invoice"`
	NewestInvoice time.Time `json:"newest_invoice"`
}

// Snapshot is the immutable unit of work shared across requests: the deduped
// extract, the history index built over it, and its build metadata. It is
// never mutated after construction; a refresh replaces the whole snapshot.
type Snapshot struct {
	Lines    []InvoiceLine
	Index    HistoryIndex
	Catalog  Catalog
	Stats    SnapshotStats
	LoadedAt time.Time
}

// SnapshotProvider hands out a ready snapshot, possibly cached. Get may serve
// a previously built snapshot; Refresh must rebuild unconditionally.
type SnapshotProvider interface {
	Get(ctx context.Context) (*Snapshot, error)
	Refresh(ctx context.Context) (*Snapshot, error)
}

// BuildSnapshot deduplicates redundant ingestion — identical
// invoice+series+supplier+product identities resolve to the most recent
// invoice date — and builds the history index over the surviving lines.
func BuildSnapshot(lines []InvoiceLine) *Snapshot {
	byIdentity := make(map[string]int, len(lines))
	deduped := make([]InvoiceLine, 0, len(lines))
	dropped := 0
	for _, l := range lines {
		key := l.IdentityKey()
		if i, ok := byIdentity[key]; ok {
			dropped++
			if l.InvoiceDate.After(deduped[i].InvoiceDate) {
				deduped[i] = l
			}
			continue
		}
		byIdentity[key] = len(deduped)
		deduped = append(deduped, l)
	}

	index := BuildHistoryIndex(deduped)

	stats := SnapshotStats{
		TotalLines:   len(deduped),
		DroppedDupes: dropped,
		Products:     len(index),
	}
	for _, l := range deduped {
		if index.FindPrior(l.ProductCode, l.InvoiceDate) != nil {
			stats.WithBaseline++
		}
		if stats.OldestInvoice.IsZero() || l.InvoiceDate.Before(stats.OldestInvoice) {
			stats.OldestInvoice = l.InvoiceDate
		}
		if l.InvoiceDate.After(stats.NewestInvoice) {
			stats.NewestInvoice = l.InvoiceDate
		}
	}

	return &Snapshot{
		Lines:    deduped,
		Index:    index,
		Catalog:  BuildCatalog(deduped),
		Stats:    stats,
		LoadedAt: time.Now(),
	}
}

// Engine runs the price variation analysis over snapshots handed out by an
// injected provider. It owns no global state and performs no I/O of its own.
type Engine struct {
	provider SnapshotProvider
	log      *logrus.Logger
	rowLimit int
}

// NewEngine constructs an Engine. rowLimit caps Executive display rows;
// zero means uncapped.
func NewEngine(provider SnapshotProvider, log *logrus.Logger, rowLimit int) *Engine {
	return &Engine{provider: provider, log: log, rowLimit: rowLimit}
}

// Analyze runs one full analysis: snapshot → mode decision → filters →
// prior-price matching → classification → aggregation. A zero-row result
// after filtering is not an error: it yields a well-formed all-zero KPI set.
// Only an unavailable extract fails the call.
func (e *Engine) Analyze(ctx context.Context, f FilterOptions) (*AnalysisResult, error) {
	snap, err := e.provider.Get(ctx)
	if err != nil {
		if errors.Is(err, ErrExtractUnavailable) || errors.Is(err, ErrMalformedExtract) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrExtractUnavailable, err)
	}

	mode := DecideMode(snap.Lines, f.SearchText)

	working := snap.Lines
	if mode.Isolated() {
		// Restrict to the matched product before any further computation so a
		// PO number that textually overlaps the code cannot leak in.
		working = IsolateProduct(working, mode.IsolatedProductCode)
	}

	filtered := ApplyFilters(working, f, mode.Isolated())

	// Matching always looks up into the unfiltered index: baselines may be
	// arbitrarily older than the analysis window.
	pairs := snap.Index.FindPriorBatch(filtered)
	classified := make([]ClassifiedVariation, len(pairs))
	for i, p := range pairs {
		classified[i] = ClassifyPair(p)
	}
	classified = FilterClassification(classified, f.Classification)

	result := &AnalysisResult{
		Mode:    mode,
		KPIs:    AggregateKPIs(classified),
		ByBuyer: ChartByBuyer(classified),
		ByMonth: ChartByMonth(classified),
	}

	switch mode.Kind {
	case ModeAnalytic:
		rows := AnalyticRows(classified)
		result.Rows = rows
		result.PriceSeries = PriceSeries(rows)
		result.CostAvoidanceAccumulated = accumulatePerProduct(rows)
	default:
		result.Rows = ExecutiveRows(classified, e.rowLimit)
	}

	e.log.WithFields(logrus.Fields{
		"mode":     mode.Kind,
		"isolated": mode.IsolatedProductCode,
		"rows":     len(result.Rows),
		"items":    result.KPIs.TotalItems,
	}).Debug("price variation analysis complete")

	return result, nil
}

// Catalog returns the filter option catalog of the current snapshot.
func (e *Engine) Catalog(ctx context.Context) (Catalog, error) {
	snap, err := e.provider.Get(ctx)
	if err != nil {
		return Catalog{}, err
	}
	return snap.Catalog, nil
}

// accumulatePerProduct runs the held-price walk per product over already
// chronologically sorted rows and sums the results. With a single isolated
// product this reduces to one sequence walk.
func accumulatePerProduct(rows []ClassifiedVariation) decimal.Decimal {
	byProduct := make(map[string][]ClassifiedVariation)
	order := make([]string, 0)
	for _, r := range rows {
		if _, ok := byProduct[r.Current.ProductCode]; !ok {
			order = append(order, r.Current.ProductCode)
		}
		byProduct[r.Current.ProductCode] = append(byProduct[r.Current.ProductCode], r)
	}
	total := decimal.Zero
	for _, code := range order {
		total = total.Add(AccumulateCostAvoidance(byProduct[code]))
	}
	return total
}
