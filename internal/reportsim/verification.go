package reportsim

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/okian/fieldscout/internal/domain/aggregate"
	"github.com/okian/fieldscout/internal/domain/model"
	"github.com/okian/fieldscout/pkg/logger"
)

// ErrMismatch is returned when served statistics differ from the expected
// ones.
var ErrMismatch = errors.New("statistics mismatch")

func summaryEqual(a, b aggregate.Summary) bool {
	return scalar.EqualWithinAbs(a.Max, b.Max, floatTolerance) &&
		scalar.EqualWithinAbs(a.Avg, b.Avg, floatTolerance)
}

func statEqual(a, b aggregate.Stat) bool {
	if a.Name != b.Name || a.Type != b.Type {
		return false
	}
	if a.Type == model.StatBoolean {
		return a.AttemptCount == b.AttemptCount && a.SuccessCount == b.SuccessCount
	}
	return summaryEqual(a.Attempts, b.Attempts) && summaryEqual(a.Successes, b.Successes)
}

// compareStats reports the first difference between got and want.
func compareStats(got, want []aggregate.TeamStats) error {
	if len(got) != len(want) {
		return fmt.Errorf("%w: %d teams, want %d", ErrMismatch, len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.Team != w.Team {
			return fmt.Errorf("%w: team %d is %s, want %s", ErrMismatch, i, g.Team, w.Team)
		}
		for _, phase := range []struct {
			name      string
			got, want []aggregate.Stat
		}{{"auto", g.Auto, w.Auto}, {"teleop", g.Teleop, w.Teleop}} {
			if len(phase.got) != len(phase.want) {
				return fmt.Errorf("%w: %s %s has %d statistics, want %d", ErrMismatch, w.Team, phase.name, len(phase.got), len(phase.want))
			}
			for j := range phase.want {
				if !statEqual(phase.got[j], phase.want[j]) {
					return fmt.Errorf("%w: %s %s %q is %+v, want %+v", ErrMismatch, w.Team, phase.name, phase.want[j].Name, phase.got[j], phase.want[j])
				}
			}
		}
	}
	return nil
}

// expectedStats folds the expected reports of one event locally.
func expectedStats(f *fixture, sr simRealm, reports map[model.ReportKey]model.Report) []aggregate.TeamStats {
	var event []model.Report
	for _, r := range reports {
		if r.EventKey == sr.Event.Key {
			event = append(event, r)
		}
	}
	schema := f.schema
	return aggregate.Aggregate(&schema, aggregate.Teams(sr.Matches), event)
}

// verifyResults checks each event's statistics as seen by its own realm and
// by a foreign realm, and each realm's leaderboard.
func verifyResults(ctx context.Context, c *client, f *fixture, reports map[model.ReportKey]model.Report, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "verifying results")

	for i, sr := range f.realms {
		var got []aggregate.TeamStats
		if _, err := c.expect(ctx, http.MethodGet, "/events/"+sr.Event.Key+"/stats", sr.Scouts[0].Token, nil, &got, http.StatusOK); err != nil {
			return err
		}
		if err := compareStats(got, expectedStats(f, sr, reports)); err != nil {
			return fmt.Errorf("event %s: %w", sr.Event.Key, err)
		}
		stats.TeamsVerified += len(got)

		if len(f.realms) > 1 {
			foreign := f.realms[(i+1)%len(f.realms)]
			var hidden []aggregate.TeamStats
			if _, err := c.expect(ctx, http.MethodGet, "/events/"+sr.Event.Key+"/stats", foreign.Scouts[0].Token, nil, &hidden, http.StatusOK); err != nil {
				return err
			}
			schema := f.schema
			if err := compareStats(hidden, aggregate.Aggregate(&schema, aggregate.Teams(sr.Matches), nil)); err != nil {
				return fmt.Errorf("event %s leaked to realm %d: %w", sr.Event.Key, foreign.Realm.ID, err)
			}
		}

		if err := verifyLeaderboard(ctx, c, sr, reports); err != nil {
			return fmt.Errorf("realm %d: %w", sr.Realm.ID, err)
		}
		log.Info(ctx, "event verified", logger.String("event", sr.Event.Key), logger.Int("teams", len(got)))
	}

	log.Info(ctx, "result verification completed", logger.Int("teams", stats.TeamsVerified))
	return nil
}

// verifyLeaderboard checks the report count of every scout of sr.
func verifyLeaderboard(ctx context.Context, c *client, sr simRealm, reports map[model.ReportKey]model.Report) error {
	want := make(map[int64]int)
	for _, r := range reports {
		if r.RealmID == sr.Realm.ID {
			want[r.ReporterID]++
		}
	}
	var board []model.LeaderboardEntry
	if _, err := c.expect(ctx, http.MethodGet, "/leaderboard", sr.Scouts[0].Token, nil, &board, http.StatusOK); err != nil {
		return err
	}
	if len(board) != len(want) {
		return fmt.Errorf("%w: leaderboard has %d reporters, want %d", ErrMismatch, len(board), len(want))
	}
	for i, e := range board {
		if want[e.ReporterID] != e.Reports {
			return fmt.Errorf("%w: reporter %d has %d reports, want %d", ErrMismatch, e.ReporterID, e.Reports, want[e.ReporterID])
		}
		if i > 0 && board[i-1].Reports < e.Reports {
			return fmt.Errorf("%w: leaderboard not sorted at %d", ErrMismatch, i)
		}
	}
	return nil
}
