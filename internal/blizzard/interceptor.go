package blizzard

import (
	"log/slog"
	"sync"
	"time"
)

// Interceptor observes executed requests. Before fires after a limiter
// slot is granted and before the first send; exactly one of Success or
// Error fires afterwards with the total elapsed time including retries.
type Interceptor interface {
	Before(region, endpoint string)
	Success(region, endpoint string, status int, elapsed time.Duration)
	Error(region, endpoint string, err error, elapsed time.Duration)
}

// LoggingInterceptor writes one structured log line per request outcome.
type LoggingInterceptor struct {
	logger *slog.Logger
}

func NewLoggingInterceptor(logger *slog.Logger) *LoggingInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingInterceptor{logger: logger}
}

func (l *LoggingInterceptor) Before(region, endpoint string) {
	l.logger.Debug("api request", "region", region, "endpoint", endpoint)
}

func (l *LoggingInterceptor) Success(region, endpoint string, status int, elapsed time.Duration) {
	l.logger.Info("api response",
		"region", region, "endpoint", endpoint, "status", status, "elapsed", elapsed)
}

func (l *LoggingInterceptor) Error(region, endpoint string, err error, elapsed time.Duration) {
	l.logger.Error("api request failed",
		"region", region, "endpoint", endpoint, "error", err, "elapsed", elapsed)
}

// UsageStats counts executed requests for the usage report.
type UsageStats struct {
	mu         sync.Mutex
	requests   int64
	successes  int64
	failures   int64
	byEndpoint map[string]int64
	totalTime  time.Duration
}

// Report is a point-in-time snapshot of API usage.
type Report struct {
	Requests   int64            `json:"requests"`
	Successes  int64            `json:"successes"`
	Failures   int64            `json:"failures"`
	ByEndpoint map[string]int64 `json:"by_endpoint"`
	AvgLatency time.Duration    `json:"avg_latency"`
}

func NewUsageStats() *UsageStats {
	return &UsageStats{byEndpoint: make(map[string]int64)}
}

func (u *UsageStats) Before(region, endpoint string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.requests++
	u.byEndpoint[endpoint]++
}

func (u *UsageStats) Success(region, endpoint string, status int, elapsed time.Duration) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.successes++
	u.totalTime += elapsed
}

func (u *UsageStats) Error(region, endpoint string, err error, elapsed time.Duration) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failures++
	u.totalTime += elapsed
}

// Snapshot returns a copy of the counters.
func (u *UsageStats) Snapshot() Report {
	u.mu.Lock()
	defer u.mu.Unlock()

	byEndpoint := make(map[string]int64, len(u.byEndpoint))
	for endpoint, count := range u.byEndpoint {
		byEndpoint[endpoint] = count
	}

	report := Report{
		Requests:   u.requests,
		Successes:  u.successes,
		Failures:   u.failures,
		ByEndpoint: byEndpoint,
	}
	if completed := u.successes + u.failures; completed > 0 {
		report.AvgLatency = u.totalTime / time.Duration(completed)
	}
	return report
}
