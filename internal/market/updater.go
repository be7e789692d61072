package market

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/guarzo/wowecon/internal/budget"
	"github.com/guarzo/wowecon/internal/model"
)

// Realm update statuses recorded in UpdateSummary.RealmResults.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// UpdateRequest describes one bulk capture run.
type UpdateRequest struct {
	// Region pins every realm lookup; empty auto-detects per realm.
	Region string

	// Realms to capture, bounded by MaxRealmsPerRequest.
	Realms []string

	// ItemIDs restricts which items are stored. Empty tracks every item
	// in the snapshot, which is only allowed for a single realm.
	ItemIDs []int64

	// MaxItemsPerRealm caps items stored per realm; 0 uses the
	// configured default.
	MaxItemsPerRealm int
}

type realmCapture struct {
	auctionCount int
	points       []model.PricePoint
}

// UpdateRealms captures auction snapshots for the requested realms and
// records one price point per item. Validation failures surface as
// *budget.ValidationError before any network call. Realms fail
// independently; running over the execution or item budget truncates
// the run and returns partial results with Truncated set.
func (s *Service) UpdateRealms(ctx context.Context, req UpdateRequest) (model.UpdateSummary, error) {
	start := time.Now()
	summary := model.UpdateSummary{
		Region:       req.Region,
		RealmResults: make(map[string]model.RealmResult),
	}

	if err := s.validateUpdate(req); err != nil {
		return summary, err
	}
	if err := s.gateUpdate(); err != nil {
		return summary, err
	}

	perRealmLimit := req.MaxItemsPerRealm
	if perRealmLimit <= 0 {
		perRealmLimit = s.limits.MaxItemsPerRealm
	}
	filter := make(map[int64]bool, len(req.ItemIDs))
	for _, id := range req.ItemIDs {
		filter[id] = true
	}

	execBudget := s.limits.ExecutionBudget()
	pace := rate.NewLimiter(rate.Every(s.realmPace), 1)
	tracked := make(map[int64]bool)
	errored := 0

	for i, slug := range req.Realms {
		if time.Since(start) >= execBudget {
			s.logger.Warn("execution budget exhausted, truncating update",
				"elapsed", time.Since(start), "realms_remaining", len(req.Realms)-i)
			markSkipped(summary.RealmResults, req.Realms[i:], "execution budget exhausted")
			summary.Truncated = true
			break
		}
		if summary.PointsStored >= s.limits.MaxTotalItems {
			markSkipped(summary.RealmResults, req.Realms[i:], "item budget exhausted")
			summary.Truncated = true
			break
		}
		if err := pace.Wait(ctx); err != nil {
			markSkipped(summary.RealmResults, req.Realms[i:], "cancelled")
			summary.Truncated = true
			break
		}

		capture, err := s.captureRealm(ctx, req.Region, slug, filter, perRealmLimit)
		if err != nil {
			s.logger.Error("realm update failed", "realm", slug, "error", err)
			summary.RealmResults[slug] = model.RealmResult{Status: StatusError, Error: err.Error()}
			errored++
			continue
		}

		points := capture.points
		if remaining := s.limits.MaxTotalItems - summary.PointsStored; len(points) > remaining {
			points = points[:remaining]
			summary.Truncated = true
		}

		stored := s.store.RecordBatch(points)
		summary.PointsStored += stored
		for _, p := range points {
			tracked[p.ItemID] = true
		}
		summary.RealmResults[slug] = model.RealmResult{
			Status:       StatusSuccess,
			AuctionCount: capture.auctionCount,
			ItemsStored:  stored,
		}
		summary.RealmsUpdated++
		s.logger.Info("realm updated",
			"realm", slug, "auctions", capture.auctionCount, "items_stored", stored)
	}

	summary.ItemsTracked = len(tracked)
	summary.DurationSeconds = time.Since(start).Seconds()

	if dropped := s.store.EnforceBudget(); dropped > 0 {
		s.logger.Info("memory budget enforced", "points_dropped", dropped)
	}

	success := errored == 0
	errorMessage := ""
	if !success {
		errorMessage = fmt.Sprintf("%d of %d realms failed", errored, len(req.Realms))
	}
	s.snapshots.Record(summary.RealmsUpdated, summary.ItemsTracked,
		summary.DurationSeconds, success, errorMessage)

	return summary, nil
}

// validateUpdate rejects conflicting or out-of-range parameters before
// any I/O happens.
func (s *Service) validateUpdate(req UpdateRequest) error {
	if len(req.Realms) == 0 {
		return &budget.ValidationError{Field: "realms", Message: "at least one realm is required"}
	}
	if len(req.Realms) > s.limits.MaxRealmsPerRequest {
		return &budget.ValidationError{
			Field:   "realms",
			Message: fmt.Sprintf("%d realms requested, limit is %d", len(req.Realms), s.limits.MaxRealmsPerRequest),
		}
	}
	if req.MaxItemsPerRealm > s.limits.MaxItemsPerRealm {
		return &budget.ValidationError{
			Field:   "max_items_per_realm",
			Message: fmt.Sprintf("%d items per realm requested, limit is %d", req.MaxItemsPerRealm, s.limits.MaxItemsPerRealm),
		}
	}
	if len(req.ItemIDs) == 0 && len(req.Realms) > 1 {
		return &budget.ValidationError{
			Field:   "item_ids",
			Message: "unrestricted item scope is limited to a single realm",
		}
	}
	return nil
}

// gateUpdate enforces the minimum interval between bulk updates. The
// check and the timestamp update happen under one lock so concurrent
// calls cannot both pass.
func (s *Service) gateUpdate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lastUpdate.IsZero() {
		if since := time.Since(s.lastUpdate); since < s.limits.MinUpdateInterval() {
			return &budget.ValidationError{
				Field:   "interval",
				Message: fmt.Sprintf("last update ran %s ago, minimum interval is %s", since.Round(time.Second), s.limits.MinUpdateInterval()),
			}
		}
	}
	s.lastUpdate = time.Now()
	return nil
}

// captureRealm fetches one realm's auction snapshot and reduces it to
// at most limit price points, most-traded items first.
func (s *Service) captureRealm(ctx context.Context, region, slug string, filter map[int64]bool, limit int) (realmCapture, error) {
	connectedID, usedRegion, err := s.api.ConnectedRealmID(ctx, region, slug)
	if err != nil {
		return realmCapture{}, fmt.Errorf("resolving realm %s: %w", slug, err)
	}

	listings, err := s.api.Auctions(ctx, usedRegion, connectedID)
	if err != nil {
		return realmCapture{}, fmt.Errorf("fetching auctions for %s: %w", slug, err)
	}

	stats := AggregateListings(listings)
	points := make([]model.PricePoint, 0, len(stats))
	for _, stat := range stats {
		if len(filter) > 0 && !filter[stat.ItemID] {
			continue
		}
		if len(points) >= limit {
			break
		}
		points = append(points, model.PricePoint{
			Region:   usedRegion,
			Realm:    slug,
			ItemID:   stat.ItemID,
			Price:    int64(math.Round(stat.AvgUnit)),
			Quantity: stat.TotalQuantity,
		})
	}

	return realmCapture{auctionCount: len(listings), points: points}, nil
}

func markSkipped(results map[string]model.RealmResult, slugs []string, reason string) {
	for _, slug := range slugs {
		results[slug] = model.RealmResult{Status: StatusSkipped, Error: reason}
	}
}
