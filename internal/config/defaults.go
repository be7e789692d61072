package config

import (
	"time"

	"github.com/guarzo/wowecon/internal/budget"
)

// Default values for optional configuration fields.
const (
	DefaultRegion            = "us"
	DefaultLocale            = "en_US"
	DefaultAPITimeout        = 30 * time.Second
	DefaultRequestsPerSecond = 100
	DefaultCacheTTL          = 5 * time.Minute
	DefaultSchedule          = "0 * * * *"
	DefaultWindowHours       = 72
)

func (c *Config) applyDefaults() {
	if c.API.Region == "" {
		c.API.Region = DefaultRegion
	}
	if c.API.Locale == "" {
		c.API.Locale = DefaultLocale
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}

	if c.Limits.RequestsPerSecond == 0 {
		c.Limits.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.Limits.MaxRealmsPerRequest == 0 {
		c.Limits.MaxRealmsPerRequest = budget.DefaultMaxRealmsPerRequest
	}
	if c.Limits.MaxItemsPerRealm == 0 {
		c.Limits.MaxItemsPerRealm = budget.DefaultMaxItemsPerRealm
	}
	if c.Limits.MaxTotalItems == 0 {
		c.Limits.MaxTotalItems = budget.DefaultMaxTotalItems
	}
	if c.Limits.MaxExecutionSeconds == 0 {
		c.Limits.MaxExecutionSeconds = budget.DefaultMaxExecutionSeconds
	}
	if c.Limits.MinUpdateIntervalSeconds == 0 {
		c.Limits.MinUpdateIntervalSeconds = budget.DefaultMinUpdateIntervalSeconds
	}
	if c.Limits.MaxHistoricalMB == 0 {
		c.Limits.MaxHistoricalMB = budget.DefaultMaxHistoricalMB
	}
	if c.Limits.MaxDataPointsPerItem == 0 {
		c.Limits.MaxDataPointsPerItem = budget.DefaultMaxDataPointsPerItem
	}

	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}

	if c.Updater.Schedule == "" {
		c.Updater.Schedule = DefaultSchedule
	}
	if c.Updater.WindowHours == 0 {
		c.Updater.WindowHours = DefaultWindowHours
	}
}
