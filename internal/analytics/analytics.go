// Package analytics computes market statistics over stored price
// history. All functions are pure: sparse or missing history yields
// zero-valued results, never an error.
package analytics

import (
	"github.com/guarzo/wowecon/internal/model"
)

// trendWindow is how many points from each end of a series feed the
// trend comparison.
const trendWindow = 5

// Signal classifies a trading opportunity.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalFlip Signal = "FLIP"
	SignalNone Signal = "NONE"
)

// Opportunity is a scored trading signal for one item.
type Opportunity struct {
	Signal   Signal  `json:"signal"`
	Score    float64 `json:"score"`
	Position float64 `json:"position"`
}

// Average returns the mean price across points, 0 for an empty series.
func Average(points []model.DataPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += float64(p.Price)
	}
	return sum / float64(len(points))
}

// MinMax returns the lowest and highest price across points.
func MinMax(points []model.DataPoint) (min, max int64) {
	if len(points) == 0 {
		return 0, 0
	}
	min, max = points[0].Price, points[0].Price
	for _, p := range points[1:] {
		if p.Price < min {
			min = p.Price
		}
		if p.Price > max {
			max = p.Price
		}
	}
	return min, max
}

// Volatility measures price spread relative to the mean:
// (max - min) / avg. A flat or empty series scores 0.
func Volatility(points []model.DataPoint) float64 {
	avg := Average(points)
	if avg == 0 {
		return 0
	}
	min, max := MinMax(points)
	return float64(max-min) / avg
}

// Trend compares the newest prices against the oldest: the relative
// change from the mean of the first trendWindow points to the mean of
// the last trendWindow points. Points must be in chronological order.
// Fewer than 2 points, or a zero baseline, scores 0.
func Trend(points []model.DataPoint) float64 {
	if len(points) < 2 {
		return 0
	}

	w := trendWindow
	if len(points) < w {
		w = len(points)
	}

	var earliest, recent float64
	for i := 0; i < w; i++ {
		earliest += float64(points[i].Price)
		recent += float64(points[len(points)-w+i].Price)
	}
	earliest /= float64(w)
	recent /= float64(w)

	if earliest == 0 {
		return 0
	}
	return (recent - earliest) / earliest
}

// TrendSlope fits a least-squares line over (index, price) and
// normalizes the slope by the mean price, giving relative change per
// observation interval. Under 2 points scores 0.
func TrendSlope(points []model.DataPoint) float64 {
	if len(points) < 2 {
		return 0
	}

	n := float64(len(points))
	var sumX, sumY, sumXY, sumXX float64
	for i, p := range points {
		x := float64(i)
		y := float64(p.Price)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	slope := (n*sumXY - sumX*sumY) / denom

	avg := sumY / n
	if avg == 0 {
		return 0
	}
	return slope / avg
}

// ScoreOpportunity classifies where the current price sits inside the
// observed range and scores the strongest applicable signal. Position
// is (current - min) / (max - min); a flat range counts as mid-band.
//
// Signals are checked in priority order: a cheap item in an uptrend is
// a BUY, an expensive item in a downtrend is a SELL, anything swinging
// hard enough is a FLIP candidate.
func ScoreOpportunity(current, min, max int64, volatility, trend float64) Opportunity {
	position := 0.5
	if max > min {
		position = float64(current-min) / float64(max-min)
	}

	switch {
	case position <= 0.30 && trend > 0:
		return Opportunity{
			Signal:   SignalBuy,
			Score:    (0.30 - position) / 0.30 * (1 + volatility),
			Position: position,
		}
	case position >= 0.70 && trend < 0:
		return Opportunity{
			Signal:   SignalSell,
			Score:    (position - 0.70) / 0.30 * (1 + volatility),
			Position: position,
		}
	case volatility > 0.2:
		return Opportunity{
			Signal:   SignalFlip,
			Score:    volatility,
			Position: position,
		}
	default:
		return Opportunity{Signal: SignalNone, Position: position}
	}
}

// Summarize computes the full trend report for one series. Points must
// be in chronological order; the newest price is reported as current.
func Summarize(key model.SeriesKey, points []model.DataPoint, windowHours int) model.PriceTrends {
	trends := model.PriceTrends{
		Region:      key.Region,
		Realm:       key.Realm,
		ItemID:      key.ItemID,
		WindowHours: windowHours,
		DataPoints:  len(points),
	}
	if len(points) == 0 {
		return trends
	}

	min, max := MinMax(points)
	trends.AvgPrice = Average(points)
	trends.MinPrice = min
	trends.MaxPrice = max
	trends.CurrentPrice = points[len(points)-1].Price
	trends.Volatility = Volatility(points)
	trends.Trend = Trend(points)
	trends.TrendSlope = TrendSlope(points)
	return trends
}
