package market

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/guarzo/wowecon/internal/blizzard"
	"github.com/guarzo/wowecon/internal/budget"
	"github.com/guarzo/wowecon/internal/model"
)

// realmAPI returns a fake with two realms. Stormrage aggregates to
// items 20 (qty 10), 30 (qty 7), 10 (qty 4); area-52 to items 10
// (qty 5), 40 (qty 2).
func realmAPI() *fakeAPI {
	return &fakeAPI{
		realmIDs: map[string]int64{"stormrage": 60, "area-52": 3676},
		auctions: map[int64][]model.AuctionListing{
			60: {
				listing(10, 100, 1),
				listing(10, 900, 3),
				listing(20, 50, 10),
				listing(30, 7000, 7),
			},
			3676: {
				listing(10, 500, 5),
				listing(40, 220, 2),
			},
		},
	}
}

func TestUpdateRealms_SingleRealm(t *testing.T) {
	api := realmAPI()
	svc := newTestService(api, budget.DefaultLimits())

	summary, err := svc.UpdateRealms(context.Background(), UpdateRequest{
		Region: "us",
		Realms: []string{"stormrage"},
	})
	if err != nil {
		t.Fatalf("UpdateRealms() error = %v", err)
	}

	if summary.RealmsUpdated != 1 {
		t.Errorf("RealmsUpdated = %d, want 1", summary.RealmsUpdated)
	}
	if summary.PointsStored != 3 || summary.ItemsTracked != 3 {
		t.Errorf("PointsStored = %d, ItemsTracked = %d, want 3, 3",
			summary.PointsStored, summary.ItemsTracked)
	}
	if summary.Truncated {
		t.Error("Truncated should be false")
	}

	result := summary.RealmResults["stormrage"]
	if result.Status != StatusSuccess {
		t.Fatalf("Status = %q, want success", result.Status)
	}
	if result.AuctionCount != 4 || result.ItemsStored != 3 {
		t.Errorf("result = %+v", result)
	}

	// One point per item under the realm's effective region, price is
	// the rounded quantity-weighted average.
	key := model.SeriesKey{Region: "us", Realm: "stormrage", ItemID: 10}
	points := svc.store.Query(key, 1)
	if len(points) != 1 {
		t.Fatalf("item 10 points = %d, want 1", len(points))
	}
	if points[0].Price != 250 || points[0].Quantity != 4 {
		t.Errorf("item 10 point = %+v, want price 250 quantity 4", points[0])
	}

	recent := svc.SnapshotHistory(1)
	if len(recent) != 1 {
		t.Fatalf("snapshot entries = %d, want 1", len(recent))
	}
	if !recent[0].Success || recent[0].RealmsUpdated != 1 || recent[0].ItemsTracked != 3 {
		t.Errorf("snapshot = %+v", recent[0])
	}
}

func TestUpdateRealms_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   UpdateRequest
		field string
	}{
		{
			name:  "no realms",
			req:   UpdateRequest{},
			field: "realms",
		},
		{
			name: "too many realms",
			req: UpdateRequest{
				Realms:  []string{"a", "b", "c", "d", "e", "f"},
				ItemIDs: []int64{1},
			},
			field: "realms",
		},
		{
			name: "per-realm item limit over cap",
			req: UpdateRequest{
				Realms:           []string{"stormrage"},
				ItemIDs:          []int64{1},
				MaxItemsPerRealm: budget.DefaultMaxItemsPerRealm + 1,
			},
			field: "max_items_per_realm",
		},
		{
			name: "unrestricted items across multiple realms",
			req: UpdateRequest{
				Realms: []string{"stormrage", "area-52"},
			},
			field: "item_ids",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := realmAPI()
			svc := newTestService(api, budget.DefaultLimits())

			_, err := svc.UpdateRealms(context.Background(), tt.req)

			var verr *budget.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("UpdateRealms() error = %v, want *budget.ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
			if realms, auctions, _ := api.calls(); realms != 0 || auctions != 0 {
				t.Errorf("API touched before validation: %d realm, %d auction calls", realms, auctions)
			}
		})
	}
}

func TestUpdateRealms_MinIntervalGate(t *testing.T) {
	api := realmAPI()
	svc := newTestService(api, budget.DefaultLimits())
	req := UpdateRequest{Realms: []string{"stormrage"}}

	if _, err := svc.UpdateRealms(context.Background(), req); err != nil {
		t.Fatalf("first UpdateRealms() error = %v", err)
	}

	_, err := svc.UpdateRealms(context.Background(), req)
	var verr *budget.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("second UpdateRealms() error = %v, want *budget.ValidationError", err)
	}
	if verr.Field != "interval" {
		t.Errorf("Field = %q, want interval", verr.Field)
	}

	if realms, _, _ := api.calls(); realms != 1 {
		t.Errorf("realm calls = %d, want 1 (gated run made no calls)", realms)
	}
}

func TestUpdateRealms_PerRealmFailureContinues(t *testing.T) {
	api := realmAPI()
	api.realmErr = map[string]error{
		"stormrage": &blizzard.ForbiddenError{Endpoint: "/data/wow/realm/stormrage"},
	}
	svc := newTestService(api, budget.DefaultLimits())

	summary, err := svc.UpdateRealms(context.Background(), UpdateRequest{
		Realms:  []string{"stormrage", "area-52"},
		ItemIDs: []int64{10, 40},
	})
	if err != nil {
		t.Fatalf("UpdateRealms() error = %v, want partial success", err)
	}

	failed := summary.RealmResults["stormrage"]
	if failed.Status != StatusError {
		t.Errorf("stormrage Status = %q, want error", failed.Status)
	}
	if !strings.Contains(failed.Error, "resolving realm") {
		t.Errorf("stormrage Error = %q", failed.Error)
	}

	ok := summary.RealmResults["area-52"]
	if ok.Status != StatusSuccess || ok.ItemsStored != 2 {
		t.Errorf("area-52 result = %+v", ok)
	}
	if summary.RealmsUpdated != 1 {
		t.Errorf("RealmsUpdated = %d, want 1", summary.RealmsUpdated)
	}

	recent := svc.SnapshotHistory(1)
	if len(recent) != 1 {
		t.Fatalf("snapshot entries = %d, want 1", len(recent))
	}
	if recent[0].Success {
		t.Error("snapshot Success should be false when a realm failed")
	}
	if recent[0].ErrorMessage != "1 of 2 realms failed" {
		t.Errorf("ErrorMessage = %q", recent[0].ErrorMessage)
	}
}

func TestUpdateRealms_ItemFilter(t *testing.T) {
	svc := newTestService(realmAPI(), budget.DefaultLimits())

	summary, err := svc.UpdateRealms(context.Background(), UpdateRequest{
		Realms:  []string{"stormrage"},
		ItemIDs: []int64{20},
	})
	if err != nil {
		t.Fatalf("UpdateRealms() error = %v", err)
	}
	if summary.PointsStored != 1 || summary.ItemsTracked != 1 {
		t.Errorf("PointsStored = %d, ItemsTracked = %d, want 1, 1",
			summary.PointsStored, summary.ItemsTracked)
	}

	if got := svc.store.SeriesLen(model.SeriesKey{Region: "us", Realm: "stormrage", ItemID: 20}); got != 1 {
		t.Errorf("item 20 series length = %d, want 1", got)
	}
	if got := svc.store.SeriesLen(model.SeriesKey{Region: "us", Realm: "stormrage", ItemID: 10}); got != 0 {
		t.Errorf("item 10 series length = %d, want 0 (filtered out)", got)
	}
}

func TestUpdateRealms_PerRealmItemCap(t *testing.T) {
	svc := newTestService(realmAPI(), budget.DefaultLimits())

	summary, err := svc.UpdateRealms(context.Background(), UpdateRequest{
		Realms:           []string{"stormrage"},
		MaxItemsPerRealm: 2,
	})
	if err != nil {
		t.Fatalf("UpdateRealms() error = %v", err)
	}
	if summary.PointsStored != 2 {
		t.Fatalf("PointsStored = %d, want 2", summary.PointsStored)
	}

	// The cap keeps the most traded items: 20 (qty 10) and 30 (qty 7).
	for _, itemID := range []int64{20, 30} {
		key := model.SeriesKey{Region: "us", Realm: "stormrage", ItemID: itemID}
		if got := svc.store.SeriesLen(key); got != 1 {
			t.Errorf("item %d series length = %d, want 1", itemID, got)
		}
	}
	if got := svc.store.SeriesLen(model.SeriesKey{Region: "us", Realm: "stormrage", ItemID: 10}); got != 0 {
		t.Errorf("item 10 series length = %d, want 0 (below cap)", got)
	}
}

func TestUpdateRealms_ExecutionBudget(t *testing.T) {
	api := realmAPI()
	limits := budget.DefaultLimits()
	limits.MaxExecutionSeconds = 0
	svc := newTestService(api, limits)

	summary, err := svc.UpdateRealms(context.Background(), UpdateRequest{
		Realms:  []string{"stormrage", "area-52"},
		ItemIDs: []int64{10},
	})
	if err != nil {
		t.Fatalf("UpdateRealms() error = %v, want truncated summary", err)
	}
	if !summary.Truncated {
		t.Error("Truncated should be true")
	}
	if summary.RealmsUpdated != 0 {
		t.Errorf("RealmsUpdated = %d, want 0", summary.RealmsUpdated)
	}
	for _, slug := range []string{"stormrage", "area-52"} {
		result := summary.RealmResults[slug]
		if result.Status != StatusSkipped {
			t.Errorf("%s Status = %q, want skipped", slug, result.Status)
		}
		if result.Error != "execution budget exhausted" {
			t.Errorf("%s Error = %q", slug, result.Error)
		}
	}
	if realms, _, _ := api.calls(); realms != 0 {
		t.Errorf("realm calls = %d, want 0", realms)
	}
}

func TestUpdateRealms_TotalItemBudget(t *testing.T) {
	limits := budget.DefaultLimits()
	limits.MaxTotalItems = 3
	svc := newTestService(realmAPI(), limits)

	summary, err := svc.UpdateRealms(context.Background(), UpdateRequest{
		Realms:  []string{"stormrage", "area-52"},
		ItemIDs: []int64{10, 20, 30, 40},
	})
	if err != nil {
		t.Fatalf("UpdateRealms() error = %v", err)
	}

	if summary.PointsStored != 3 {
		t.Errorf("PointsStored = %d, want 3", summary.PointsStored)
	}
	if !summary.Truncated {
		t.Error("Truncated should be true once the item budget is spent")
	}
	if got := summary.RealmResults["stormrage"].Status; got != StatusSuccess {
		t.Errorf("stormrage Status = %q, want success", got)
	}
	skipped := summary.RealmResults["area-52"]
	if skipped.Status != StatusSkipped || skipped.Error != "item budget exhausted" {
		t.Errorf("area-52 result = %+v", skipped)
	}
}

func TestUpdateRealms_MidRealmItemBudget(t *testing.T) {
	limits := budget.DefaultLimits()
	limits.MaxTotalItems = 2
	svc := newTestService(realmAPI(), limits)

	summary, err := svc.UpdateRealms(context.Background(), UpdateRequest{
		Realms: []string{"stormrage"},
	})
	if err != nil {
		t.Fatalf("UpdateRealms() error = %v", err)
	}
	if summary.PointsStored != 2 {
		t.Errorf("PointsStored = %d, want 2 (third candidate dropped)", summary.PointsStored)
	}
	if !summary.Truncated {
		t.Error("Truncated should be true")
	}
	if got := summary.RealmResults["stormrage"].ItemsStored; got != 2 {
		t.Errorf("ItemsStored = %d, want 2", got)
	}
}

func TestUpdateRealms_CancelledContext(t *testing.T) {
	api := realmAPI()
	svc := newTestService(api, budget.DefaultLimits())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := svc.UpdateRealms(ctx, UpdateRequest{Realms: []string{"stormrage"}})
	if err != nil {
		t.Fatalf("UpdateRealms() error = %v, want truncated summary", err)
	}
	if !summary.Truncated {
		t.Error("Truncated should be true")
	}
	if got := summary.RealmResults["stormrage"]; got.Status != StatusSkipped || got.Error != "cancelled" {
		t.Errorf("result = %+v", got)
	}
	if realms, _, _ := api.calls(); realms != 0 {
		t.Errorf("realm calls = %d, want 0", realms)
	}
}

func TestUpdateRealms_RegionPropagation(t *testing.T) {
	api := realmAPI()
	svc := newTestService(api, budget.DefaultLimits())

	_, err := svc.UpdateRealms(context.Background(), UpdateRequest{
		Region:  "eu",
		Realms:  []string{"stormrage"},
		ItemIDs: []int64{20},
	})
	if err != nil {
		t.Fatalf("UpdateRealms() error = %v", err)
	}

	api.mu.Lock()
	seen := api.regionsSeen[0]
	api.mu.Unlock()
	if seen != "eu" {
		t.Errorf("region passed to API = %q, want eu", seen)
	}

	// Points land under the effective region the lookup reported.
	if got := svc.store.SeriesLen(model.SeriesKey{Region: "eu", Realm: "stormrage", ItemID: 20}); got != 1 {
		t.Errorf("eu series length = %d, want 1", got)
	}
}
