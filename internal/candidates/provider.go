// internal/candidates/provider.go
package candidates

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"caregiver-matching/internal/common/config"
	"caregiver-matching/internal/common/database"
	commonerrors "caregiver-matching/internal/common/errors"
	"caregiver-matching/internal/common/logger"
	"caregiver-matching/internal/common/metrics"
	"caregiver-matching/internal/models"
)

// Snapshot is an immutable view of the pool. Engines receive its slice read-only.
type Snapshot struct {
	Candidates []models.Candidate `json:"candidates"`
	LoadedAt   time.Time          `json:"loadedAt"`
	Source     string             `json:"source"`
	FromCache  bool               `json:"-"`
}

const (
	defaultLoadTimeout   = 30 * time.Second
	defaultRetryInterval = 30 * time.Second
)

// Provider serves the current pool and reloads it on demand. Once a pool exists, stale
// reloads run in the background and requests keep the previous snapshot.
type Provider struct {
	loader        Loader
	cache         *SnapshotCache
	maxAge        time.Duration
	loadTimeout   time.Duration
	retryInterval time.Duration
	logger        logger.Logger

	current   atomic.Pointer[Snapshot]
	reloading atomic.Bool
	failedAt  atomic.Int64 // unix nanos of the last failed load, 0 after a success
	mu        sync.Mutex
}

type ProviderOption func(*Provider)

// WithCache enables the Redis fallback.
func WithCache(cache *SnapshotCache) ProviderOption {
	return func(p *Provider) { p.cache = cache }
}

// WithMaxAge makes Snapshot reload a pool older than d. Zero keeps the pool until Refresh.
func WithMaxAge(d time.Duration) ProviderOption {
	return func(p *Provider) { p.maxAge = d }
}

// WithLoadTimeout bounds every loader call.
func WithLoadTimeout(d time.Duration) ProviderOption {
	return func(p *Provider) {
		if d > 0 {
			p.loadTimeout = d
		}
	}
}

// WithRetryInterval is the pause after a failed load before a stale pool is reloaded again.
func WithRetryInterval(d time.Duration) ProviderOption {
	return func(p *Provider) {
		if d > 0 {
			p.retryInterval = d
		}
	}
}

func NewProvider(loader Loader, log logger.Logger, opts ...ProviderOption) *Provider {
	p := &Provider{
		loader:        loader,
		loadTimeout:   defaultLoadTimeout,
		retryInterval: defaultRetryInterval,
		logger:        log.WithFields(map[string]interface{}{"source": loader.Source()}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Snapshot returns the current pool. Only the first load blocks the caller; a stale pool
// is returned as is while one background reload runs. After a failed load the pool is
// marked FromCache and the next reload waits for the retry interval.
func (p *Provider) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := p.current.Load()
	if snap == nil {
		return p.load(ctx, false)
	}
	if p.stale(snap) && p.retryDue() {
		p.reloadAsync()
	}
	if p.failedAt.Load() != 0 {
		return fromCache(snap), nil
	}
	return snap, nil
}

func (p *Provider) reloadAsync() {
	if !p.reloading.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer p.reloading.Store(false)
		_, _ = p.load(context.Background(), false)
	}()
}

func (p *Provider) retryDue() bool {
	failed := p.failedAt.Load()
	return failed == 0 || time.Since(time.Unix(0, failed)) >= p.retryInterval
}

// Refresh reloads the pool. When the loader fails it falls back to the last snapshot,
// then to the Redis cache, and marks the result FromCache.
func (p *Provider) Refresh(ctx context.Context) (*Snapshot, error) {
	return p.load(ctx, true)
}

func (p *Provider) load(ctx context.Context, force bool) (*Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Another caller may have loaded while this one waited.
	if snap := p.current.Load(); !force && snap != nil && !p.stale(snap) {
		return snap, nil
	}

	loadCtx, cancel := context.WithTimeout(ctx, p.loadTimeout)
	defer cancel()

	start := time.Now()
	pool, err := p.loader.Load(loadCtx)
	if err == nil {
		snap := &Snapshot{Candidates: pool, LoadedAt: time.Now().UTC(), Source: p.loader.Source()}
		p.current.Store(snap)
		p.failedAt.Store(0)
		metrics.CandidatePoolSize.Set(float64(len(pool)))

		if p.cache != nil {
			if cacheErr := p.cache.Save(ctx, snap); cacheErr != nil {
				p.logger.Warn("Failed to cache candidate snapshot", map[string]interface{}{
					"error": cacheErr.Error(),
				})
			}
		}

		p.logger.Info("Candidate pool loaded", map[string]interface{}{
			"size":     len(pool),
			"duration": time.Since(start).String(),
		})
		return snap, nil
	}

	p.failedAt.Store(time.Now().UnixNano())
	metrics.CandidatePoolFallbacks.WithLabelValues(p.loader.Source()).Inc()
	p.logger.Warn("Candidate pool load failed", map[string]interface{}{"error": err.Error()})

	if last := p.current.Load(); last != nil {
		return fromCache(last), nil
	}

	if p.cache != nil {
		cached, cacheErr := p.cache.Load(ctx)
		if cacheErr == nil {
			p.current.Store(cached)
			metrics.CandidatePoolSize.Set(float64(len(cached.Candidates)))
			return fromCache(cached), nil
		}
		p.logger.Warn("No cached candidate snapshot", map[string]interface{}{"error": cacheErr.Error()})
	}

	return nil, commonerrors.NewDataUnavailableError(p.loader.Source(), err)
}

// Size is the size of the current snapshot, zero before the first load.
func (p *Provider) Size() int {
	if snap := p.current.Load(); snap != nil {
		return len(snap.Candidates)
	}
	return 0
}

func (p *Provider) stale(snap *Snapshot) bool {
	return p.maxAge > 0 && time.Since(snap.LoadedAt) > p.maxAge
}

func fromCache(snap *Snapshot) *Snapshot {
	cp := *snap
	cp.FromCache = true
	return &cp
}

// Deps carries the clients a loader may need. Unused ones may be nil.
type Deps struct {
	Postgres      *database.PostgresClient
	Elasticsearch *database.ElasticsearchClient
}

// NewLoader builds the loader selected by cfg.Source.
func NewLoader(cfg config.CandidatesConfig, deps Deps) (Loader, error) {
	switch cfg.Source {
	case config.SourceFile:
		return NewFileLoader(cfg.Path), nil
	case config.SourceCSV:
		return NewCSVLoader(cfg.Path), nil
	case config.SourcePostgres:
		if deps.Postgres == nil {
			return nil, fmt.Errorf("source %s: postgres client not configured", cfg.Source)
		}
		return NewPostgresLoader(deps.Postgres, cfg.Table)
	case config.SourceElasticsearch:
		if deps.Elasticsearch == nil {
			return nil, fmt.Errorf("source %s: elasticsearch client not configured", cfg.Source)
		}
		return NewElasticsearchLoader(deps.Elasticsearch, cfg.Index), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Source)
	}
}
