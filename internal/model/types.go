package model

import "time"

// SeriesKey identifies one price series: a single item on a single realm.
type SeriesKey struct {
	Region string
	Realm  string
	ItemID int64
}

// DataPoint is a single observation in a series. Price is in minor currency
// units (copper). Points are append-only and never mutated after insertion.
type DataPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     int64     `json:"price"`
	Quantity  int64     `json:"quantity"`
}

// PricePoint is an observation submitted for storage, carrying its own key
// fields so batches can span realms.
type PricePoint struct {
	Region   string `json:"region"`
	Realm    string `json:"realm"`
	ItemID   int64  `json:"item_id"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

// Key returns the series the point belongs to.
func (p PricePoint) Key() SeriesKey {
	return SeriesKey{Region: p.Region, Realm: p.Realm, ItemID: p.ItemID}
}

// PriceTrends summarizes one series over a trailing window. A report with
// DataPoints < 2 carries zero analytics rather than an error; sparse history
// is an expected steady state.
type PriceTrends struct {
	Region       string  `json:"region"`
	Realm        string  `json:"realm"`
	ItemID       int64   `json:"item_id"`
	WindowHours  int     `json:"window_hours"`
	DataPoints   int     `json:"data_points"`
	AvgPrice     float64 `json:"avg_price"`
	MinPrice     int64   `json:"min_price"`
	MaxPrice     int64   `json:"max_price"`
	CurrentPrice int64   `json:"current_price"`
	Volatility   float64 `json:"volatility"`
	Trend        float64 `json:"trend"`
	TrendSlope   float64 `json:"trend_slope"`
}

// AuctionListing is one auction-house listing after boundary parsing.
// Buyout is the total lot price; UnitPrice is buyout divided by quantity.
type AuctionListing struct {
	ItemID    int64
	Buyout    int64
	Quantity  int64
	UnitPrice float64
}

// ItemStats aggregates every listing of one item from a single auction
// snapshot. AvgUnit is quantity-weighted.
type ItemStats struct {
	ItemID        int64   `json:"item_id"`
	AuctionCount  int     `json:"auction_count"`
	TotalQuantity int64   `json:"total_quantity"`
	MinUnit       float64 `json:"min_unit"`
	AvgUnit       float64 `json:"avg_unit"`
	MedianUnit    float64 `json:"median_unit"`
	MaxUnit       float64 `json:"max_unit"`
}

// TokenPrice is the region-wide game-token price in minor units.
type TokenPrice struct {
	Price     int64     `json:"price"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Gold converts the token price from copper to whole gold.
func (t TokenPrice) Gold() int64 {
	return t.Price / 10000
}

// RealmResult is the outcome of one realm within a bulk update. Realms fail
// independently; an error here never aborts siblings.
type RealmResult struct {
	Status       string `json:"status"` // "success", "error", "skipped"
	AuctionCount int    `json:"auction_count,omitempty"`
	ItemsStored  int    `json:"items_stored,omitempty"`
	Error        string `json:"error,omitempty"`
}

// UpdateSummary reports a bulk multi-realm update, including partial results
// when the execution budget truncated the run.
type UpdateSummary struct {
	Region          string                 `json:"region"`
	RealmResults    map[string]RealmResult `json:"realm_results"`
	RealmsUpdated   int                    `json:"realms_updated"`
	ItemsTracked    int                    `json:"items_tracked"`
	PointsStored    int                    `json:"points_stored"`
	Truncated       bool                   `json:"truncated"`
	DurationSeconds float64                `json:"duration_seconds"`
}

// UpdateSnapshot is one entry in the bulk-update log.
type UpdateSnapshot struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	RealmsUpdated   int       `json:"realms_updated"`
	ItemsTracked    int       `json:"items_tracked"`
	DurationSeconds float64   `json:"duration_seconds"`
	Success         bool      `json:"success"`
	ErrorMessage    string    `json:"error_message,omitempty"`
}
