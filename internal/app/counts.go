package service

import (
	"context"
	"fmt"

	"github.com/okian/fieldscout/internal/adapters/repository"
	"github.com/okian/fieldscout/pkg/metrics"
)

// Counts returns the number of stored records per kind and publishes them
// as gauges.
func (s *Service) Counts(ctx context.Context) (map[string]int, error) {
	const op = "service.counts"
	realms, err := s.store.ListRealms(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	users, err := s.store.ListUsers(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	reports, err := s.store.ListReports(ctx, repository.ReportFilter{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	counts := map[string]int{
		"realms":  len(realms),
		"users":   len(users),
		"events":  len(events),
		"reports": len(reports),
	}
	for kind, n := range counts {
		metrics.UpdateStoreRecords(kind, n)
	}
	return counts, nil
}
