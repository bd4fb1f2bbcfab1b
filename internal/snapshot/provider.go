// Package snapshot hands out immutable analysis snapshots with time-boxed
// memoization. A snapshot is built once from a full extract load and shared by
// every request until it expires; a rebuild produces a fresh snapshot and
// publishes it atomically, so concurrent readers never block each other or the
// rebuild.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pricewatch/internal/core"

	"github.com/sirupsen/logrus"
)

// Provider implements core.SnapshotProvider over a core.Loader.
type Provider struct {
	loader core.Loader
	ttl    time.Duration
	log    *logrus.Logger

	current atomic.Pointer[core.Snapshot]
	mu      sync.Mutex // serializes rebuilds; readers never take it
}

// New constructs a Provider. A non-positive ttl disables memoization: every
// Get rebuilds.
func New(loader core.Loader, ttl time.Duration, log *logrus.Logger) *Provider {
	return &Provider{loader: loader, ttl: ttl, log: log}
}

// Get returns the cached snapshot while it is younger than the TTL, otherwise
// rebuilds. Readers holding an old snapshot keep using it unharmed while a
// new one is being built.
func (p *Provider) Get(ctx context.Context) (*core.Snapshot, error) {
	if s := p.current.Load(); s != nil && p.ttl > 0 && time.Since(s.LoadedAt) < p.ttl {
		return s, nil
	}
	return p.rebuild(ctx)
}

// Refresh rebuilds unconditionally and publishes the new snapshot.
func (p *Provider) Refresh(ctx context.Context) (*core.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load(ctx)
}

func (p *Provider) rebuild(ctx context.Context) (*core.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// A concurrent rebuild may have just published a fresh snapshot.
	if s := p.current.Load(); s != nil && p.ttl > 0 && time.Since(s.LoadedAt) < p.ttl {
		return s, nil
	}
	return p.load(ctx)
}

// load runs the extract, builds the snapshot and swaps it in. The extract call
// either yields a complete history or fails the whole operation: there is no
// partial or degraded snapshot.
func (p *Provider) load(ctx context.Context) (*core.Snapshot, error) {
	start := time.Now()
	lines, err := p.loader.Load(ctx)
	if err != nil {
		if errors.Is(err, core.ErrExtractUnavailable) || errors.Is(err, core.ErrMalformedExtract) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", core.ErrExtractUnavailable, err)
	}

	snap := core.BuildSnapshot(lines)
	p.current.Store(snap)

	p.log.WithFields(logrus.Fields{
		"lines":         snap.Stats.TotalLines,
		"dropped_dupes": snap.Stats.DroppedDupes,
		"products":      snap.Stats.Products,
		"with_baseline": snap.Stats.WithBaseline,
		"oldest":        snap.Stats.OldestInvoice.Format("2006-01-02"),
		"newest":        snap.Stats.NewestInvoice.Format("2006-01-02"),
		"took":          time.Since(start).String(),
	}).Info("snapshot rebuilt")

	return snap, nil
}
