package app

import (
	"context"

	"pricewatch/internal/core"
)

type appService struct {
	engine   *core.Engine
	provider core.SnapshotProvider
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(engine *core.Engine, provider core.SnapshotProvider) ApplicationService {
	return &appService{engine: engine, provider: provider}
}

func (s *appService) AnalyzePriceVariation(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	f, err := req.FilterOptions()
	if err != nil {
		return nil, err
	}

	analysis, err := s.engine.Analyze(ctx, f)
	if err != nil {
		return nil, err
	}
	return &AnalysisResult{Analysis: analysis}, nil
}

func (s *appService) GetFilterCatalog(ctx context.Context) (*CatalogResult, error) {
	catalog, err := s.engine.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return &CatalogResult{Catalog: catalog}, nil
}

func (s *appService) GetSnapshotStatus(ctx context.Context) (*SnapshotStatusResult, error) {
	snap, err := s.provider.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &SnapshotStatusResult{LoadedAt: snap.LoadedAt, Stats: snap.Stats}, nil
}

func (s *appService) RefreshSnapshot(ctx context.Context) (*SnapshotStatusResult, error) {
	snap, err := s.provider.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return &SnapshotStatusResult{LoadedAt: snap.LoadedAt, Stats: snap.Stats}, nil
}
