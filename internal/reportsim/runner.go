package reportsim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/okian/fieldscout/internal/domain/model"
	"github.com/okian/fieldscout/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

var (
	// ErrSubmissionFailed is returned when the API rejected simulated reports.
	ErrSubmissionFailed = errors.New("report submission failed")
	// ErrInvalidConfig is returned for configurations that cannot run.
	ErrInvalidConfig = errors.New("invalid simulation config")
)

func (cfg *Config) validate() error {
	switch {
	case cfg.Realms < 1:
		return fmt.Errorf("%w: at least one realm is required", ErrInvalidConfig)
	case cfg.ScoutsPerRealm < 1:
		return fmt.Errorf("%w: at least one scout per realm is required", ErrInvalidConfig)
	case cfg.Matches < 1:
		return fmt.Errorf("%w: at least one match is required", ErrInvalidConfig)
	case cfg.Workers < 1:
		return fmt.Errorf("%w: at least one worker is required", ErrInvalidConfig)
	case cfg.Resubmit < 0 || cfg.Resubmit > 1:
		return fmt.Errorf("%w: resubmit must be within [0, 1]", ErrInvalidConfig)
	}
	return nil
}

// Run executes a complete simulation: fixtures, two rounds of report
// submissions, then verification against locally folded statistics.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get()
	stats := &Stats{StartTime: time.Now()}
	if err := cfg.validate(); err != nil {
		return stats, err
	}

	log.Info(ctx, "starting report simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("realms", cfg.Realms),
		logger.Int("scouts", cfg.ScoutsPerRealm),
		logger.Int("matches", cfg.Matches),
		logger.Int("workers", cfg.Workers),
		logger.Float64("resubmit", cfg.Resubmit),
	)

	c := newClient(cfg.BaseURL, cfg.Timeout)

	if err := checkServiceHealth(ctx, c); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	f, err := setupFixture(ctx, c, cfg, rng)
	if err != nil {
		return stats, fmt.Errorf("fixture setup failed: %w", err)
	}
	if cfg.Cleanup {
		defer func() {
			if err := cleanupFixture(context.WithoutCancel(ctx), c, cfg, f); err != nil {
				log.Warn(ctx, "cleanup failed", logger.Error(err))
			}
		}()
	}

	first, second := generateSubmissions(ctx, cfg, f, rng, stats)

	// Replacements go after every original so the final report of each key
	// is known.
	submitReports(ctx, cfg, c, f, first, stats)
	submitReports(ctx, cfg, c, f, second, stats)
	if stats.ReportsFailed > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrSubmissionFailed, stats.ReportsFailed, stats.ReportsSubmitted)
	}

	reports := finalReports(f, first, second)
	if err := verifyResults(ctx, c, f, reports, stats); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := saveReportsToFile(ctx, cfg.OutputFile, reports); err != nil {
			log.Warn(ctx, "failed to save reports to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	log.Info(ctx, "simulation completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, c *client) error {
	logger.Get().Info(ctx, "checking service health")
	if _, err := c.expect(ctx, http.MethodGet, "/healthz", "", nil, nil, http.StatusOK); err != nil {
		return fmt.Errorf("failed to reach service: %w", err)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveReportsToFile writes the final reports as a JSON array sorted by key.
func saveReportsToFile(ctx context.Context, filename string, reports map[model.ReportKey]model.Report) error {
	if len(reports) == 0 {
		return fmt.Errorf("no reports to save")
	}

	out := make([]model.Report, 0, len(reports))
	for _, r := range reports {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.EventKey != b.EventKey {
			return a.EventKey < b.EventKey
		}
		if a.MatchKey != b.MatchKey {
			return a.MatchKey < b.MatchKey
		}
		return a.TeamKey < b.TeamKey
	})

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal reports: %w", err)
	}
	if err := os.WriteFile(filename, raw, filePermission); err != nil {
		return fmt.Errorf("failed to write reports: %w", err)
	}

	logger.Get().Info(ctx, "reports saved to file", logger.String("filename", filename), logger.Int("reports", len(out)))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, reportsPerSecond float64

	if stats.ReportsSubmitted > 0 {
		successRate = float64(stats.ReportsCreated+stats.ReportsReplaced) / float64(stats.ReportsSubmitted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		reportsPerSecond = float64(stats.ReportsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("reportsGenerated", stats.ReportsGenerated),
		logger.Int("reportsSubmitted", stats.ReportsSubmitted),
		logger.Int("reportsCreated", stats.ReportsCreated),
		logger.Int("reportsReplaced", stats.ReportsReplaced),
		logger.Int("reportsFailed", stats.ReportsFailed),
		logger.Int("teamsVerified", stats.TeamsVerified),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("reportsPerSecond", reportsPerSecond),
	)
}
