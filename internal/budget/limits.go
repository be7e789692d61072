package budget

import (
	"fmt"
	"time"
)

// Default limit values. These mirror the quota the upstream API tolerates
// and the memory the process is allowed to hold for history.
const (
	DefaultMaxRealmsPerRequest      = 5
	DefaultMaxItemsPerRealm         = 500
	DefaultMaxTotalItems            = 2000
	DefaultMaxExecutionSeconds      = 300
	DefaultMinUpdateIntervalSeconds = 60
	DefaultMaxHistoricalMB          = 100
	DefaultMaxDataPointsPerItem     = 288

	// BytesPerPoint is the approximate in-memory cost of one stored
	// observation, used by the coarse memory estimate.
	BytesPerPoint = 50
)

// Limits is the static resource-budget table governing bulk updates and
// history retention.
type Limits struct {
	MaxRealmsPerRequest      int
	MaxItemsPerRealm         int
	MaxTotalItems            int
	MaxExecutionSeconds      int
	MinUpdateIntervalSeconds int
	MaxHistoricalMB          int
	MaxDataPointsPerItem     int
}

// DefaultLimits returns the standard budget table.
func DefaultLimits() Limits {
	return Limits{
		MaxRealmsPerRequest:      DefaultMaxRealmsPerRequest,
		MaxItemsPerRealm:         DefaultMaxItemsPerRealm,
		MaxTotalItems:            DefaultMaxTotalItems,
		MaxExecutionSeconds:      DefaultMaxExecutionSeconds,
		MinUpdateIntervalSeconds: DefaultMinUpdateIntervalSeconds,
		MaxHistoricalMB:          DefaultMaxHistoricalMB,
		MaxDataPointsPerItem:     DefaultMaxDataPointsPerItem,
	}
}

// Validate rejects a limits table with non-positive entries.
func (l Limits) Validate() error {
	if l.MaxRealmsPerRequest <= 0 {
		return fmt.Errorf("max realms per request must be positive, got %d", l.MaxRealmsPerRequest)
	}
	if l.MaxItemsPerRealm <= 0 {
		return fmt.Errorf("max items per realm must be positive, got %d", l.MaxItemsPerRealm)
	}
	if l.MaxTotalItems <= 0 {
		return fmt.Errorf("max total items must be positive, got %d", l.MaxTotalItems)
	}
	if l.MaxExecutionSeconds <= 0 {
		return fmt.Errorf("max execution seconds must be positive, got %d", l.MaxExecutionSeconds)
	}
	if l.MinUpdateIntervalSeconds < 0 {
		return fmt.Errorf("min update interval must not be negative, got %d", l.MinUpdateIntervalSeconds)
	}
	if l.MaxHistoricalMB <= 0 {
		return fmt.Errorf("max historical MB must be positive, got %d", l.MaxHistoricalMB)
	}
	if l.MaxDataPointsPerItem <= 0 {
		return fmt.Errorf("max data points per item must be positive, got %d", l.MaxDataPointsPerItem)
	}
	return nil
}

// ExecutionBudget returns the wall-clock budget for one bulk update.
func (l Limits) ExecutionBudget() time.Duration {
	return time.Duration(l.MaxExecutionSeconds) * time.Second
}

// MinUpdateInterval returns the required gap between bulk updates.
func (l Limits) MinUpdateInterval() time.Duration {
	return time.Duration(l.MinUpdateIntervalSeconds) * time.Second
}

// EstimateMB converts a point count into the approximate megabytes held,
// at BytesPerPoint per observation.
func EstimateMB(points int) float64 {
	return float64(points) * BytesPerPoint / 1_000_000
}

// ValidationError reports caller-supplied parameters that were rejected
// before any I/O was attempted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
