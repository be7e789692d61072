// Package market is the coordination layer: it captures auction
// snapshots into the historical store, serves cached trend analytics,
// and runs budget-bounded bulk updates across realms.
package market

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/guarzo/wowecon/internal/analytics"
	"github.com/guarzo/wowecon/internal/budget"
	"github.com/guarzo/wowecon/internal/cache"
	"github.com/guarzo/wowecon/internal/history"
	"github.com/guarzo/wowecon/internal/model"
)

const (
	// maxTrendWindowHours caps the trailing window a trends query may
	// request (30 days).
	maxTrendWindowHours = 720

	defaultTrendWindowHours = 24

	// tokenCacheTTL keeps token-price lookups off the API for a while;
	// the index updates upstream roughly every 20 minutes.
	tokenCacheTTL = 5 * time.Minute
)

// API is the slice of the upstream client the service consumes.
type API interface {
	ConnectedRealmID(ctx context.Context, region, slug string) (int64, string, error)
	Auctions(ctx context.Context, region string, connectedRealmID int64) ([]model.AuctionListing, error)
	TokenIndex(ctx context.Context, region string) (model.TokenPrice, error)
}

// Config wires the service's collaborators. Nil fields get working
// defaults; API is required.
type Config struct {
	API       API
	Store     *history.Store
	Cache     *cache.Cache
	Snapshots *history.SnapshotLog
	Limits    budget.Limits
	Logger    *slog.Logger

	// RealmPace spaces realm fetches inside a bulk update. Tests shrink
	// this; production keeps the one-second default.
	RealmPace time.Duration
}

// Service owns the market-data lifecycle: capture, storage, analytics.
type Service struct {
	api       API
	store     *history.Store
	cache     *cache.Cache
	snapshots *history.SnapshotLog
	limits    budget.Limits
	logger    *slog.Logger
	realmPace time.Duration

	mu         sync.Mutex
	lastUpdate time.Time
}

func NewService(cfg Config) *Service {
	s := &Service{
		api:       cfg.API,
		store:     cfg.Store,
		cache:     cfg.Cache,
		snapshots: cfg.Snapshots,
		limits:    cfg.Limits,
		logger:    cfg.Logger,
		realmPace: cfg.RealmPace,
	}
	if s.limits == (budget.Limits{}) {
		s.limits = budget.DefaultLimits()
	}
	if s.store == nil {
		s.store = history.NewStore(s.limits)
	}
	if s.cache == nil {
		s.cache = cache.New(0)
	}
	if s.snapshots == nil {
		s.snapshots = history.NewSnapshotLog()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.realmPace <= 0 {
		s.realmPace = time.Second
	}
	return s
}

// StorePricePoints records a batch of observations under one shared
// timestamp and returns how many were stored.
func (s *Service) StorePricePoints(points []model.PricePoint) int {
	stored := s.store.RecordBatch(points)
	s.logger.Debug("price points stored", "submitted", len(points), "stored", stored)
	return stored
}

// GetPriceTrends summarizes one item's price series over the trailing
// window. Hours outside [1, 720] are clamped. Results are cached under
// a fingerprint of the query; sparse series yield a summary with a low
// DataPoints count and zero analytics rather than an error.
func (s *Service) GetPriceTrends(region, realm string, itemID int64, hours int) model.PriceTrends {
	if hours <= 0 {
		hours = defaultTrendWindowHours
	}
	if hours > maxTrendWindowHours {
		hours = maxTrendWindowHours
	}

	key := cache.BuildKey("trends", region, realm,
		strconv.FormatInt(itemID, 10), strconv.Itoa(hours))
	if v, ok := s.cache.Get(key); ok {
		if trends, ok := v.(model.PriceTrends); ok {
			return trends
		}
	}

	seriesKey := model.SeriesKey{Region: region, Realm: realm, ItemID: itemID}
	trends := analytics.Summarize(seriesKey, s.store.Query(seriesKey, hours), hours)
	s.cache.Set(key, trends, 0)
	return trends
}

// TokenPrice returns the region-wide game-token price, cached for a
// short TTL.
func (s *Service) TokenPrice(ctx context.Context, region string) (model.TokenPrice, error) {
	key := cache.BuildKey("token", region)
	if v, ok := s.cache.Get(key); ok {
		if price, ok := v.(model.TokenPrice); ok {
			return price, nil
		}
	}

	price, err := s.api.TokenIndex(ctx, region)
	if err != nil {
		return model.TokenPrice{}, err
	}
	s.cache.Set(key, price, tokenCacheTTL)
	return price, nil
}

// RecordSnapshot appends one entry to the update log and returns it.
func (s *Service) RecordSnapshot(successCount, itemsTracked int, durationSeconds float64, success bool, errorMessage string) model.UpdateSnapshot {
	return s.snapshots.Record(successCount, itemsTracked, durationSeconds, success, errorMessage)
}

// SnapshotHistory returns update-log entries from the trailing window,
// oldest-first.
func (s *Service) SnapshotHistory(hours int) []model.UpdateSnapshot {
	return s.snapshots.History(hours)
}

// StoreStats reports what the historical store currently holds.
func (s *Service) StoreStats() history.Stats {
	return s.store.Stats()
}

// CacheStats reports result-cache hit/miss counters.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}
