package reportsim

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/fieldscout/pkg/logger"
)

// Submission outcomes.
const (
	outcomeCreated  = "created"
	outcomeReplaced = "replaced"
	outcomeFailed   = "failed"
)

const progressInterval = time.Second

func reportPath(sub submission) string {
	return "/events/" + sub.Target.EventKey + "/matches/" + sub.Target.MatchKey + "/reports/" + sub.Target.TeamKey
}

// submitSingleReport PUTs one report and classifies the answer.
func submitSingleReport(ctx context.Context, c *client, f *fixture, sub submission) string {
	token := f.realms[sub.Realm].Scouts[sub.Scout].Token
	status, err := c.do(ctx, http.MethodPut, reportPath(sub), token, sub.Input, nil)
	if err != nil {
		return outcomeFailed
	}
	switch status {
	case http.StatusCreated:
		return outcomeCreated
	case http.StatusNoContent:
		return outcomeReplaced
	default:
		return outcomeFailed
	}
}

// submitReports submits subs concurrently using a worker pool.
func submitReports(ctx context.Context, cfg *Config, c *client, f *fixture, subs []submission, stats *Stats) {
	log := logger.Get()
	log.Info(ctx, "submitting reports", logger.Int("reports", len(subs)), logger.Int("workers", cfg.Workers))

	var (
		submitted int64
		created   int64
		replaced  int64
		failed    int64
		lastTick  atomic.Int64
	)

	subChan := make(chan submission, cfg.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range subChan {
				if ctx.Err() != nil {
					continue
				}
				outcome := submitSingleReport(ctx, c, f, sub)
				total := atomic.AddInt64(&submitted, 1)
				switch outcome {
				case outcomeCreated:
					atomic.AddInt64(&created, 1)
				case outcomeReplaced:
					atomic.AddInt64(&replaced, 1)
				default:
					atomic.AddInt64(&failed, 1)
					if cfg.Verbose {
						log.Warn(ctx, "report rejected", logger.String("path", reportPath(sub)))
					}
				}

				now := time.Now().UnixNano()
				last := lastTick.Load()
				if now-last >= int64(progressInterval) && lastTick.CompareAndSwap(last, now) {
					log.Info(ctx, "progress",
						logger.Int64("submitted", total),
						logger.Int("total", len(subs)),
						logger.Int64("failed", atomic.LoadInt64(&failed)),
					)
				}
			}
		}()
	}

	go func() {
		defer close(subChan)
		for _, sub := range subs {
			select {
			case <-ctx.Done():
				return
			case subChan <- sub:
			}
		}
	}()

	wg.Wait()

	stats.ReportsSubmitted += int(atomic.LoadInt64(&submitted))
	stats.ReportsCreated += int(atomic.LoadInt64(&created))
	stats.ReportsReplaced += int(atomic.LoadInt64(&replaced))
	stats.ReportsFailed += int(atomic.LoadInt64(&failed))

	log.Info(ctx, "report submission completed",
		logger.Int64("created", atomic.LoadInt64(&created)),
		logger.Int64("replaced", atomic.LoadInt64(&replaced)),
		logger.Int64("failed", atomic.LoadInt64(&failed)),
	)
}
