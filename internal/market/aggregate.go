package market

import (
	"sort"

	"github.com/guarzo/wowecon/internal/model"
)

// AggregateListings reduces an auction snapshot to per-item stats,
// ordered by total quantity descending so callers capping output keep
// the most traded items. AvgUnit and MedianUnit are quantity-weighted;
// for an even total the lower weighted median is used.
func AggregateListings(listings []model.AuctionListing) []model.ItemStats {
	byItem := make(map[int64][]model.AuctionListing)
	for _, listing := range listings {
		byItem[listing.ItemID] = append(byItem[listing.ItemID], listing)
	}

	stats := make([]model.ItemStats, 0, len(byItem))
	for itemID, group := range byItem {
		stats = append(stats, aggregateItem(itemID, group))
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].TotalQuantity != stats[j].TotalQuantity {
			return stats[i].TotalQuantity > stats[j].TotalQuantity
		}
		return stats[i].ItemID < stats[j].ItemID
	})
	return stats
}

func aggregateItem(itemID int64, group []model.AuctionListing) model.ItemStats {
	stat := model.ItemStats{
		ItemID:       itemID,
		AuctionCount: len(group),
		MinUnit:      group[0].UnitPrice,
		MaxUnit:      group[0].UnitPrice,
	}

	weighted := 0.0
	for _, listing := range group {
		stat.TotalQuantity += listing.Quantity
		weighted += listing.UnitPrice * float64(listing.Quantity)
		if listing.UnitPrice < stat.MinUnit {
			stat.MinUnit = listing.UnitPrice
		}
		if listing.UnitPrice > stat.MaxUnit {
			stat.MaxUnit = listing.UnitPrice
		}
	}
	if stat.TotalQuantity > 0 {
		stat.AvgUnit = weighted / float64(stat.TotalQuantity)
	}
	stat.MedianUnit = weightedMedian(group, stat.TotalQuantity)
	return stat
}

// weightedMedian finds the unit price at the midpoint of the cumulative
// quantity distribution.
func weightedMedian(group []model.AuctionListing, totalQuantity int64) float64 {
	if totalQuantity <= 0 {
		return 0
	}

	sorted := make([]model.AuctionListing, len(group))
	copy(sorted, group)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].UnitPrice < sorted[j].UnitPrice })

	target := (totalQuantity + 1) / 2
	var cumulative int64
	for _, listing := range sorted {
		cumulative += listing.Quantity
		if cumulative >= target {
			return listing.UnitPrice
		}
	}
	return sorted[len(sorted)-1].UnitPrice
}
