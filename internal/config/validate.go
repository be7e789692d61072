package config

import (
	"errors"
	"fmt"
)

var knownRegions = map[string]bool{
	"us": true,
	"eu": true,
	"kr": true,
	"tw": true,
}

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.API.ClientID == "" {
		return errors.New("api.client_id is required")
	}
	if c.API.ClientSecret == "" {
		return errors.New("api.client_secret is required")
	}
	if !knownRegions[c.API.Region] {
		return fmt.Errorf("api.region %q is not a known region", c.API.Region)
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}

	if c.Limits.RequestsPerSecond < 1 {
		return errors.New("limits.requests_per_second must be >= 1")
	}
	if err := c.BudgetLimits().Validate(); err != nil {
		return fmt.Errorf("limits: %w", err)
	}

	if c.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be positive")
	}

	if c.Updater.WindowHours < 1 {
		return errors.New("updater.window_hours must be >= 1")
	}

	for i, r := range c.Realms {
		if !knownRegions[r.Region] {
			return fmt.Errorf("realms[%d].region %q is not a known region", i, r.Region)
		}
		if len(r.Slugs) == 0 {
			return fmt.Errorf("realms[%d] has no slugs", i)
		}
	}

	return nil
}
