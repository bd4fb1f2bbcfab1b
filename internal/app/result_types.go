package app

import (
	"time"

	"pricewatch/internal/core"
)

// AnalysisResult is returned by AnalyzePriceVariation.
type AnalysisResult struct {
	Analysis *core.AnalysisResult
}

// CatalogResult is returned by GetFilterCatalog.
type CatalogResult struct {
	Catalog core.Catalog
}

// SnapshotStatusResult is returned by RefreshSnapshot.
type SnapshotStatusResult struct {
	LoadedAt time.Time
	Stats    core.SnapshotStats
}
