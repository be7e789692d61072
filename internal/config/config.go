// Package config loads and validates service configuration from YAML
// files and environment variables.
package config

import (
	"time"

	"github.com/guarzo/wowecon/internal/budget"
)

// Config is the root configuration for the market data service.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Limits  LimitsConfig  `yaml:"limits"`
	Cache   CacheConfig   `yaml:"cache"`
	Updater UpdaterConfig `yaml:"updater"`
	Realms  []RealmConfig `yaml:"realms"`
}

// APIConfig holds Blizzard API credentials and connection settings.
type APIConfig struct {
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	Region       string        `yaml:"region"`
	Locale       string        `yaml:"locale"`
	Timeout      time.Duration `yaml:"timeout"`
}

// LimitsConfig bounds how much work and memory a bulk update may consume.
type LimitsConfig struct {
	RequestsPerSecond        int `yaml:"requests_per_second"`
	MaxRealmsPerRequest      int `yaml:"max_realms_per_request"`
	MaxItemsPerRealm         int `yaml:"max_items_per_realm"`
	MaxTotalItems            int `yaml:"max_total_items"`
	MaxExecutionSeconds      int `yaml:"max_execution_seconds"`
	MinUpdateIntervalSeconds int `yaml:"min_update_interval_seconds"`
	MaxHistoricalMB          int `yaml:"max_historical_mb"`
	MaxDataPointsPerItem     int `yaml:"max_data_points_per_item"`
}

// CacheConfig holds analytics result cache settings.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// UpdaterConfig holds scheduled update settings.
type UpdaterConfig struct {
	Schedule    string `yaml:"schedule"`
	WindowHours int    `yaml:"window_hours"`
}

// RealmConfig names the realms tracked for one region.
type RealmConfig struct {
	Region string   `yaml:"region"`
	Slugs  []string `yaml:"slugs"`
}

// BudgetLimits converts the configured limits into the form the store
// and updater consume.
func (c *Config) BudgetLimits() budget.Limits {
	return budget.Limits{
		MaxRealmsPerRequest:      c.Limits.MaxRealmsPerRequest,
		MaxItemsPerRealm:         c.Limits.MaxItemsPerRealm,
		MaxTotalItems:            c.Limits.MaxTotalItems,
		MaxExecutionSeconds:      c.Limits.MaxExecutionSeconds,
		MinUpdateIntervalSeconds: c.Limits.MinUpdateIntervalSeconds,
		MaxHistoricalMB:          c.Limits.MaxHistoricalMB,
		MaxDataPointsPerItem:     c.Limits.MaxDataPointsPerItem,
	}
}

// RealmsFor returns the tracked realm slugs for a region, or nil when
// the region is not configured.
func (c *Config) RealmsFor(region string) []string {
	for _, r := range c.Realms {
		if r.Region == region {
			return r.Slugs
		}
	}
	return nil
}
