package app

import (
	"context"
	"errors"
)

// ErrInvalidRequest marks a request whose parameters could not be parsed or
// validated. Adapters map it to a client error.
var ErrInvalidRequest = errors.New("invalid request")

// ApplicationService is the single interface all adapters call. It decouples
// presentation from business logic. Implementations must contain no display
// logic of any kind.
type ApplicationService interface {
	// AnalyzePriceVariation runs one price-variation analysis over the
	// current invoice snapshot, honoring the request's filters.
	AnalyzePriceVariation(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error)

	// GetFilterCatalog returns the distinct buyers, product types and
	// suppliers present in the snapshot.
	GetFilterCatalog(ctx context.Context) (*CatalogResult, error)

	// GetSnapshotStatus reports the current snapshot's build time and
	// statistics without forcing a rebuild.
	GetSnapshotStatus(ctx context.Context) (*SnapshotStatusResult, error)

	// RefreshSnapshot forces a rebuild of the invoice snapshot regardless of
	// its age and reports the resulting snapshot's statistics.
	RefreshSnapshot(ctx context.Context) (*SnapshotStatusResult, error)
}
