// Package oracle maintains a time-windowed cache of the BTC/USD spot price,
// fetched from an ordered list of external sources with fallback and sanity
// bounds.
package oracle

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/coinedge/bitcard/pkg/domain"
	"github.com/coinedge/bitcard/pkg/money"
	"github.com/coinedge/bitcard/pkg/provider"
	"github.com/shopspring/decimal"
)

// SourceCache tags a price served from the fresh cache.
const SourceCache = "cache"

// SourceStaleCache tags a price served from an expired cache because every
// live source failed. Degraded but available; callers can observe the
// staleness through this tag.
const SourceStaleCache = "stale-cache"

// Price is a point-in-time BTC/USD observation.
type Price struct {
	Value         decimal.Decimal `json:"value"`
	Asset         money.Code      `json:"asset"`
	QuoteCurrency money.Code      `json:"quote_currency"`
	Source        string          `json:"source"`
	FetchedAt     time.Time       `json:"fetched_at"`
	Cached        bool            `json:"cached"`
}

// Config holds the per-instance oracle settings. Two independently
// configured instances coexist in the system (a 15s-TTL high-traffic one and
// a 30s-TTL low-traffic one); they share no cache state.
type Config struct {
	TTL          time.Duration
	FetchTimeout time.Duration
	// MinPrice/MaxPrice bound plausible BTC/USD values. A source whose
	// payload parses outside the band is rejected so provider corruption
	// cannot poison downstream pricing.
	MinPrice float64
	MaxPrice float64
}

func (c *Config) applyDefaults() {
	if c.TTL == 0 {
		c.TTL = 15 * time.Second
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = 5 * time.Second
	}
	if c.MinPrice == 0 {
		c.MinPrice = 1_000
	}
	if c.MaxPrice == 0 {
		c.MaxPrice = 1_000_000
	}
}

// Oracle serves cached or freshly fetched BTC/USD prices.
type Oracle struct {
	sources []provider.PriceSource
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	cached *Price
}

// Option configures an Oracle.
type Option func(*Oracle)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(o *Oracle) { o.now = now }
}

// New creates an oracle over the given ordered source list.
func New(sources []provider.PriceSource, cfg Config, logger *slog.Logger, opts ...Option) *Oracle {
	cfg.applyDefaults()
	o := &Oracle{
		sources: sources,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GetPrice returns the current BTC/USD price.
//
// Fresh cache wins; otherwise sources are tried in order and the first valid
// value updates the cache. If every source fails and a stale cache exists,
// the stale price is returned tagged SourceStaleCache — availability is
// prioritized over strict freshness. Only with no cache at all does the call
// fail with domain.ErrAllSourcesUnavailable.
//
// The mutex is held across the fetch so concurrent cache-miss callers wait
// for the winner and then hit the fresh cache instead of issuing redundant
// external fetches.
func (o *Oracle) GetPrice(ctx context.Context) (*Price, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.now()
	if o.cached != nil && now.Sub(o.cached.FetchedAt) < o.cfg.TTL {
		p := *o.cached
		p.Cached = true
		p.Source = SourceCache
		return &p, nil
	}

	for _, src := range o.sources {
		value, err := o.fetchOne(ctx, src)
		if err != nil {
			o.logger.Warn("price source failed",
				"source", src.Name(), "error", err)
			continue
		}
		if !o.valid(value) {
			o.logger.Warn("price source rejected: value outside sanity band",
				"source", src.Name(), "value", value,
				"min", o.cfg.MinPrice, "max", o.cfg.MaxPrice)
			continue
		}

		o.cached = &Price{
			Value:         decimal.NewFromFloat(value),
			Asset:         money.BTC,
			QuoteCurrency: money.USD,
			Source:        src.Name(),
			FetchedAt:     now,
			Cached:        false,
		}
		o.logger.Info("price fetched",
			"source", src.Name(), "value", value)
		p := *o.cached
		return &p, nil
	}

	if o.cached != nil {
		o.logger.Warn("all price sources failed, serving stale cache",
			"fetched_at", o.cached.FetchedAt,
			"age", now.Sub(o.cached.FetchedAt))
		p := *o.cached
		p.Cached = true
		p.Source = SourceStaleCache
		return &p, nil
	}

	return nil, domain.ErrAllSourcesUnavailable
}

func (o *Oracle) fetchOne(ctx context.Context, src provider.PriceSource) (float64, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, o.cfg.FetchTimeout)
	defer cancel()
	return src.FetchPrice(fetchCtx)
}

func (o *Oracle) valid(value float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	return value >= o.cfg.MinPrice && value <= o.cfg.MaxPrice
}
