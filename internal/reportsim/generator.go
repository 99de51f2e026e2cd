package reportsim

import (
	"context"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	app "github.com/okian/fieldscout/internal/app"
	"github.com/okian/fieldscout/internal/domain/model"
	"github.com/okian/fieldscout/pkg/logger"
)

// Distribution parameters of simulated observations.
const (
	attemptRate  = 0.8
	successRate  = 0.6
	numberMean   = 5.0
	numberStdDev = 2.5
)

var autoNames = []string{"left", "center", "right"}

// observer draws simulated statistics.
type observer struct {
	attempt distuv.Bernoulli
	success distuv.Bernoulli
	count   distuv.Normal
}

func newObserver() *observer {
	return &observer{
		attempt: distuv.Bernoulli{P: attemptRate},
		success: distuv.Bernoulli{P: successRate},
		count:   distuv.Normal{Mu: numberMean, Sigma: numberStdDev},
	}
}

// observe fills one phase following its schema descriptions.
func (o *observer) observe(descs []model.StatDescription) []model.ReportStat {
	stats := make([]model.ReportStat, 0, len(descs))
	for _, d := range descs {
		switch d.Type {
		case model.StatBoolean:
			attempted := o.attempt.Rand() == 1
			succeeded := attempted && o.success.Rand() == 1
			stats = append(stats, model.ReportStat{Name: d.Name, Attempted: &attempted, Succeeded: &succeeded})
		case model.StatNumber:
			attempts := math.Max(0, math.Round(o.count.Rand()))
			successes := 0.0
			for i := 0; i < int(attempts); i++ {
				successes += o.success.Rand()
			}
			stats = append(stats, model.ReportStat{Name: d.Name, Attempts: &attempts, Successes: &successes})
		}
	}
	return stats
}

func (o *observer) report(schema model.Schema, rng *rand.Rand) app.ReportInput {
	return app.ReportInput{
		AutoName: autoNames[rng.IntN(len(autoNames))],
		Data: model.ReportData{
			Auto:   o.observe(schema.Auto),
			Teleop: o.observe(schema.Teleop),
		},
	}
}

// generateSubmissions assigns every team of every match to one scout of the
// realm and draws its report. A Resubmit fraction of them gets a second,
// different report that replaces the first.
func generateSubmissions(ctx context.Context, cfg *Config, f *fixture, rng *rand.Rand, stats *Stats) (first, second []submission) {
	o := newObserver()
	for ri, sr := range f.realms {
		n := 0
		for _, match := range sr.Matches {
			for _, team := range match.Teams() {
				sub := submission{
					Realm: ri,
					Scout: n % len(sr.Scouts),
					Target: app.ReportTarget{
						EventKey: sr.Event.Key,
						MatchKey: match.Key,
						TeamKey:  team,
					},
					Input: o.report(f.schema, rng),
				}
				n++
				first = append(first, sub)
				if rng.Float64() < cfg.Resubmit {
					again := sub
					again.Input = o.report(f.schema, rng)
					second = append(second, again)
				}
			}
		}
	}
	stats.ReportsGenerated = len(first) + len(second)
	logger.Get().Info(ctx, "generated reports",
		logger.Int("reports", len(first)),
		logger.Int("resubmissions", len(second)),
	)
	return first, second
}

// finalReports returns the reports the store holds once both rounds of
// submissions succeeded, keyed like the store keys them.
func finalReports(f *fixture, rounds ...[]submission) map[model.ReportKey]model.Report {
	out := make(map[model.ReportKey]model.Report)
	for _, round := range rounds {
		for _, sub := range round {
			sr := f.realms[sub.Realm]
			r := model.Report{
				EventKey:   sub.Target.EventKey,
				MatchKey:   sub.Target.MatchKey,
				TeamKey:    sub.Target.TeamKey,
				ReporterID: sr.Scouts[sub.Scout].User.ID,
				RealmID:    sr.Realm.ID,
				AutoName:   sub.Input.AutoName,
				Data:       sub.Input.Data,
			}
			out[r.Key()] = r
		}
	}
	return out
}
