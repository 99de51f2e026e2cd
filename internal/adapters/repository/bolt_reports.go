package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/fieldscout/internal/domain/model"
	"github.com/okian/fieldscout/pkg/metrics"
	"go.etcd.io/bbolt"
)

func reportKey(k model.ReportKey) []byte {
	return append(compositeKey(k.EventKey, k.MatchKey, k.TeamKey), idKey(k.ReporterID)...)
}

// reportPrefix narrows a scan to the longest key prefix the filter pins down.
func reportPrefix(f ReportFilter) []byte {
	switch {
	case f.EventKey == "":
		return nil
	case f.MatchKey == "":
		return compositeKey(f.EventKey)
	case f.TeamKey == "":
		return compositeKey(f.EventKey, f.MatchKey)
	default:
		return compositeKey(f.EventKey, f.MatchKey, f.TeamKey)
	}
}

// UpsertReport writes report in a single read-write transaction. bbolt
// allows one writer at a time, so concurrent upserts of the same key
// serialize and the last one wins.
func (s *BoltStore) UpsertReport(ctx context.Context, report model.Report) (bool, error) {
	const op = "repository.upsert_report"
	start := time.Now()
	var created bool
	err := s.update(ctx, func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketReports)
		k := reportKey(report.Key())
		created = b.Get(k) == nil
		return putJSON(b, k, report)
	})
	metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

func (s *BoltStore) ListReports(ctx context.Context, filter ReportFilter) ([]model.Report, error) {
	const op = "repository.list_reports"
	start := time.Now()
	reports := []model.Report{}
	err := s.view(ctx, func(tx *bbolt.Tx) error {
		all, err := listJSON[model.Report](tx.Bucket(bucketReports), reportPrefix(filter))
		if err != nil {
			return err
		}
		for _, r := range all {
			if filter.match(r) {
				reports = append(reports, r)
			}
		}
		return nil
	})
	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return reports, nil
}

func (s *BoltStore) DeleteReport(ctx context.Context, key model.ReportKey) error {
	const op = "repository.delete_report"
	err := s.update(ctx, func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketReports)
		k := reportKey(key)
		if b.Get(k) == nil {
			return ErrNotFound
		}
		return b.Delete(k)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *BoltStore) Leaderboard(ctx context.Context, realmID int64) ([]model.LeaderboardEntry, error) {
	const op = "repository.leaderboard"
	reports, err := s.ListReports(ctx, ReportFilter{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	counts := make(map[int64]int)
	for _, r := range reports {
		if r.RealmID == realmID {
			counts[r.ReporterID]++
		}
	}
	return rankLeaderboard(counts), nil
}

// rankLeaderboard orders reporters by report count desc, then id asc.
func rankLeaderboard(counts map[int64]int) []model.LeaderboardEntry {
	out := make([]model.LeaderboardEntry, 0, len(counts))
	for id, n := range counts {
		out = append(out, model.LeaderboardEntry{ReporterID: id, Reports: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Reports != out[j].Reports {
			return out[i].Reports > out[j].Reports
		}
		return out[i].ReporterID < out[j].ReporterID
	})
	return out
}
