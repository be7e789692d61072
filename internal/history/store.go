// Package history keeps in-memory price series per (region, realm,
// item) with a hard per-series cap and a coarse global memory budget.
package history

import (
	"sort"
	"sync"
	"time"

	"github.com/guarzo/wowecon/internal/budget"
	"github.com/guarzo/wowecon/internal/model"
)

// maxBudgetSeries bounds how many series one enforcement pass touches.
const maxBudgetSeries = 100

// Stats summarizes what the store currently holds.
type Stats struct {
	Series      int     `json:"series"`
	Points      int     `json:"points"`
	EstimatedMB float64 `json:"estimated_mb"`
}

// Store maps series keys to chronological price observations. Each
// series is capped; once full, recording evicts the oldest point.
type Store struct {
	mu     sync.RWMutex
	series map[model.SeriesKey][]model.DataPoint
	limits budget.Limits
}

// NewStore creates an empty store governed by the given limits.
func NewStore(limits budget.Limits) *Store {
	return &Store{
		series: make(map[model.SeriesKey][]model.DataPoint),
		limits: limits,
	}
}

// Record appends one observation to the series for key. Points must
// arrive in increasing timestamp order; trend math assumes position
// reflects chronology.
func (s *Store) Record(key model.SeriesKey, price, quantity int64, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	series := append(s.series[key], model.DataPoint{
		Timestamp: ts,
		Price:     price,
		Quantity:  quantity,
	})
	if over := len(series) - s.limits.MaxDataPointsPerItem; over > 0 {
		// Compact in place so the backing array stays near cap size.
		copy(series, series[over:])
		series = series[:s.limits.MaxDataPointsPerItem]
	}
	s.series[key] = series
}

// RecordBatch stores a batch of price points under one shared
// timestamp and returns how many were stored. Points with a
// non-positive price are skipped.
func (s *Store) RecordBatch(points []model.PricePoint) int {
	now := time.Now()
	stored := 0
	for _, p := range points {
		if p.Price <= 0 {
			continue
		}
		s.Record(p.Key(), p.Price, p.Quantity, now)
		stored++
	}
	return stored
}

// Query returns all points for key within the trailing window,
// oldest-first. Unknown keys and empty windows return nil.
func (s *Store) Query(key model.SeriesKey, windowHours int) []model.DataPoint {
	cutoff := time.Now().Add(-time.Duration(windowHours) * time.Hour)

	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.series[key]
	start := len(series)
	for i, p := range series {
		if !p.Timestamp.Before(cutoff) {
			start = i
			break
		}
	}
	if start == len(series) {
		return nil
	}

	out := make([]model.DataPoint, len(series)-start)
	copy(out, series[start:])
	return out
}

// SeriesLen returns how many points are stored for key.
func (s *Store) SeriesLen(key model.SeriesKey) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series[key])
}

// EstimateMemoryMB approximates resident history size from the point
// count alone.
func (s *Store) EstimateMemoryMB() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return budget.EstimateMB(s.totalPointsLocked())
}

// EnforceBudget truncates the largest series when estimated memory
// exceeds the configured cap. At most maxBudgetSeries series are
// truncated per pass, each to the per-item point cap, keeping the most
// recent points. Returns how many points were dropped. Calling it again
// with no new insertions drops nothing.
func (s *Store) EnforceBudget() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if budget.EstimateMB(s.totalPointsLocked()) <= float64(s.limits.MaxHistoricalMB) {
		return 0
	}

	type seriesSize struct {
		key    model.SeriesKey
		points int
	}
	sizes := make([]seriesSize, 0, len(s.series))
	for key, series := range s.series {
		sizes = append(sizes, seriesSize{key, len(series)})
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i].points > sizes[j].points })

	if len(sizes) > maxBudgetSeries {
		sizes = sizes[:maxBudgetSeries]
	}

	dropped := 0
	for _, ss := range sizes {
		series := s.series[ss.key]
		over := len(series) - s.limits.MaxDataPointsPerItem
		if over <= 0 {
			continue
		}
		trimmed := make([]model.DataPoint, s.limits.MaxDataPointsPerItem)
		copy(trimmed, series[over:])
		s.series[ss.key] = trimmed
		dropped += over
	}
	return dropped
}

// Stats reports series count, point count, and the memory estimate.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.totalPointsLocked()
	return Stats{
		Series:      len(s.series),
		Points:      points,
		EstimatedMB: budget.EstimateMB(points),
	}
}

func (s *Store) totalPointsLocked() int {
	total := 0
	for _, series := range s.series {
		total += len(series)
	}
	return total
}
