package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/guarzo/wowecon/internal/budget"
)

func TestLoad(t *testing.T) {
	yaml := `
api:
  client_id: test-client
  client_secret: test-secret
  region: eu
  locale: de_DE
realms:
  - region: eu
    slugs: [antonidas, blackmoore]
  - region: us
    slugs: [stormrage]
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.ClientID != "test-client" {
		t.Errorf("API.ClientID = %q, want %q", cfg.API.ClientID, "test-client")
	}
	if cfg.API.Region != "eu" {
		t.Errorf("API.Region = %q, want %q", cfg.API.Region, "eu")
	}
	if len(cfg.Realms) != 2 {
		t.Fatalf("len(Realms) = %d, want 2", len(cfg.Realms))
	}
	if got := cfg.RealmsFor("eu"); len(got) != 2 || got[0] != "antonidas" {
		t.Errorf("RealmsFor(eu) = %v", got)
	}
	if got := cfg.RealmsFor("kr"); got != nil {
		t.Errorf("RealmsFor(kr) = %v, want nil", got)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_WOW_SECRET", "hunter2")

	yaml := `
api:
  client_id: test-client
  client_secret: ${TEST_WOW_SECRET}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.ClientSecret != "hunter2" {
		t.Errorf("API.ClientSecret = %q, want %q", cfg.API.ClientSecret, "hunter2")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	yaml := `
api:
  client_id: test-client
  client_secret: test-secret
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.Region != DefaultRegion {
		t.Errorf("API.Region = %q, want default %q", cfg.API.Region, DefaultRegion)
	}
	if cfg.API.Timeout != DefaultAPITimeout {
		t.Errorf("API.Timeout = %v, want default %v", cfg.API.Timeout, DefaultAPITimeout)
	}
	if cfg.Limits.RequestsPerSecond != DefaultRequestsPerSecond {
		t.Errorf("Limits.RequestsPerSecond = %d, want default %d", cfg.Limits.RequestsPerSecond, DefaultRequestsPerSecond)
	}
	if cfg.Limits.MaxRealmsPerRequest != budget.DefaultMaxRealmsPerRequest {
		t.Errorf("Limits.MaxRealmsPerRequest = %d, want default %d", cfg.Limits.MaxRealmsPerRequest, budget.DefaultMaxRealmsPerRequest)
	}
	if cfg.Cache.TTL != DefaultCacheTTL {
		t.Errorf("Cache.TTL = %v, want default %v", cfg.Cache.TTL, DefaultCacheTTL)
	}
	if cfg.Updater.Schedule != DefaultSchedule {
		t.Errorf("Updater.Schedule = %q, want default %q", cfg.Updater.Schedule, DefaultSchedule)
	}
}

func TestLoadAndValidate(t *testing.T) {
	yaml := `
api:
  client_id: test-client
  client_secret: test-secret
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}
	if cfg.API.ClientID != "test-client" {
		t.Errorf("API.ClientID = %q", cfg.API.ClientID)
	}

	// Missing credentials must fail validation.
	badPath := writeTempFile(t, "api:\n  region: us\n")
	if _, err := LoadAndValidate(badPath); err == nil {
		t.Error("LoadAndValidate should reject config without credentials")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Config{
			API: APIConfig{ClientID: "id", ClientSecret: "secret"},
		}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "missing client id",
			mutate:  func(c *Config) { c.API.ClientID = "" },
			wantErr: "api.client_id is required",
		},
		{
			name:    "missing client secret",
			mutate:  func(c *Config) { c.API.ClientSecret = "" },
			wantErr: "api.client_secret is required",
		},
		{
			name:    "unknown region",
			mutate:  func(c *Config) { c.API.Region = "mars" },
			wantErr: `api.region "mars" is not a known region`,
		},
		{
			name:    "zero requests per second",
			mutate:  func(c *Config) { c.Limits.RequestsPerSecond = -1 },
			wantErr: "limits.requests_per_second must be >= 1",
		},
		{
			name:    "negative realm cap",
			mutate:  func(c *Config) { c.Limits.MaxRealmsPerRequest = -1 },
			wantErr: "limits: max realms per request must be positive, got -1",
		},
		{
			name:    "zero window hours",
			mutate:  func(c *Config) { c.Updater.WindowHours = -1 },
			wantErr: "updater.window_hours must be >= 1",
		},
		{
			name: "realm entry without slugs",
			mutate: func(c *Config) {
				c.Realms = []RealmConfig{{Region: "us"}}
			},
			wantErr: "realms[0] has no slugs",
		},
		{
			name: "realm entry with bad region",
			mutate: func(c *Config) {
				c.Realms = []RealmConfig{{Region: "moon", Slugs: []string{"stormrage"}}}
			},
			wantErr: `realms[0].region "moon" is not a known region`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvClientID, "env-client")
	t.Setenv(EnvClientSecret, "env-secret")
	t.Setenv(EnvRegion, "eu")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if cfg.API.ClientID != "env-client" {
		t.Errorf("API.ClientID = %q, want %q", cfg.API.ClientID, "env-client")
	}
	if cfg.API.Region != "eu" {
		t.Errorf("API.Region = %q, want %q", cfg.API.Region, "eu")
	}
	if cfg.API.Timeout != DefaultAPITimeout {
		t.Errorf("API.Timeout = %v, want default applied", cfg.API.Timeout)
	}
}

func TestFromEnvMissingCredentials(t *testing.T) {
	t.Setenv(EnvClientID, "")
	t.Setenv(EnvClientSecret, "")

	if _, err := FromEnv(); err == nil {
		t.Error("FromEnv should fail without credentials")
	}
}

func TestBudgetLimits(t *testing.T) {
	cfg := Config{API: APIConfig{ClientID: "id", ClientSecret: "secret"}}
	cfg.applyDefaults()

	limits := cfg.BudgetLimits()
	if limits != budget.DefaultLimits() {
		t.Errorf("BudgetLimits() = %+v, want defaults", limits)
	}
	if limits.ExecutionBudget() != time.Duration(budget.DefaultMaxExecutionSeconds)*time.Second {
		t.Errorf("ExecutionBudget() = %v", limits.ExecutionBudget())
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
