package testutil

import (
	"math/rand"
	"time"

	"github.com/guarzo/wowecon/internal/model"
)

// TestDataFactory provides methods for generating dynamic test data
type TestDataFactory struct {
	rand *rand.Rand
}

// NewTestDataFactory creates a new test data factory with a seeded random generator
func NewTestDataFactory(seed int64) *TestDataFactory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &TestDataFactory{
		rand: rand.New(rand.NewSource(seed)),
	}
}

// RealmSlug picks a realm slug from a fixed pool
func (f *TestDataFactory) RealmSlug() string {
	slugs := []string{"stormrage", "area-52", "illidan", "tichondrius", "mal-ganis"}
	return slugs[f.rand.Intn(len(slugs))]
}

// ItemID generates a plausible item id
func (f *TestDataFactory) ItemID() int64 {
	return int64(f.rand.Intn(200000) + 1)
}

// CopperPrice generates a price in copper between 1 silver and 50k gold
func (f *TestDataFactory) CopperPrice() int64 {
	return int64(f.rand.Intn(500000000) + 100)
}

// Quantity generates a lot size between 1 and 200
func (f *TestDataFactory) Quantity() int64 {
	return int64(f.rand.Intn(200) + 1)
}

// SeriesKey generates a series key on a random realm
func (f *TestDataFactory) SeriesKey() model.SeriesKey {
	return model.SeriesKey{
		Region: "us",
		Realm:  f.RealmSlug(),
		ItemID: f.ItemID(),
	}
}

// PricePoint generates one storable observation
func (f *TestDataFactory) PricePoint() model.PricePoint {
	return model.PricePoint{
		Region:   "us",
		Realm:    f.RealmSlug(),
		ItemID:   f.ItemID(),
		Price:    f.CopperPrice(),
		Quantity: f.Quantity(),
	}
}

// PricePoints generates n storable observations
func (f *TestDataFactory) PricePoints(n int) []model.PricePoint {
	points := make([]model.PricePoint, n)
	for i := range points {
		points[i] = f.PricePoint()
	}
	return points
}

// Listing generates one auction listing for the given item
func (f *TestDataFactory) Listing(itemID int64) model.AuctionListing {
	quantity := f.Quantity()
	buyout := f.CopperPrice()
	return model.AuctionListing{
		ItemID:    itemID,
		Buyout:    buyout,
		Quantity:  quantity,
		UnitPrice: float64(buyout) / float64(quantity),
	}
}

// Listings generates n listings spread over roughly n/3 items
func (f *TestDataFactory) Listings(n int) []model.AuctionListing {
	items := n/3 + 1
	listings := make([]model.AuctionListing, n)
	for i := range listings {
		listings[i] = f.Listing(int64(f.rand.Intn(items) + 1))
	}
	return listings
}

// RisingSeries generates n points ending now, stepping up by step each
// hour. Jitter stays within ±step/4 so the direction is preserved.
func (f *TestDataFactory) RisingSeries(n int, start, step int64) []model.DataPoint {
	return f.steppedSeries(n, start, step)
}

// FallingSeries generates n points ending now, stepping down each hour
func (f *TestDataFactory) FallingSeries(n int, start, step int64) []model.DataPoint {
	return f.steppedSeries(n, start, -step)
}

func (f *TestDataFactory) steppedSeries(n int, start, step int64) []model.DataPoint {
	now := time.Now()
	points := make([]model.DataPoint, n)
	price := start
	for i := range points {
		jitter := int64(0)
		if step != 0 {
			span := step / 4
			if span < 0 {
				span = -span
			}
			if span > 0 {
				jitter = f.rand.Int63n(span*2+1) - span
			}
		}
		value := price + jitter
		if value < 1 {
			value = 1
		}
		points[i] = model.DataPoint{
			Timestamp: now.Add(-time.Duration(n-i) * time.Hour),
			Price:     value,
			Quantity:  f.Quantity(),
		}
		price += step
	}
	return points
}
