package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/okian/fieldscout/internal/adapters/repository"
	"github.com/okian/fieldscout/internal/domain/access"
	"github.com/okian/fieldscout/internal/domain/aggregate"
	"github.com/okian/fieldscout/internal/domain/model"
	"github.com/okian/fieldscout/pkg/logger"
	"github.com/okian/fieldscout/pkg/metrics"
)

// ReportTarget names the team of a match a report is about.
type ReportTarget struct {
	EventKey string
	MatchKey string
	TeamKey  string
}

// ReportInput is the client-supplied part of a report.
type ReportInput struct {
	AutoName string           `json:"autoName"`
	Data     model.ReportData `json:"data"`
}

// EventReports groups a team's reports at one event.
type EventReports struct {
	EventKey string         `json:"eventKey"`
	Reports  []model.Report `json:"reports"`
}

// sharing maps realm ids to their shareReports flag.
type sharing map[int64]bool

func (s *Service) sharing(ctx context.Context) (sharing, error) {
	realms, err := s.store.ListRealms(ctx)
	if err != nil {
		return nil, err
	}
	out := make(sharing, len(realms))
	for _, r := range realms {
		out[r.ID] = r.ShareReports
	}
	return out, nil
}

// visible keeps the reports a may see.
func (sh sharing) visible(a access.Actor, reports []model.Report) []model.Report {
	out := make([]model.Report, 0, len(reports))
	for _, r := range reports {
		if access.ReportsVisible(a, r.RealmID, sh[r.RealmID]) {
			out = append(out, r)
		}
	}
	return out
}

// reportTarget checks that the event and match exist and the team plays in
// the match, and returns the event.
func (s *Service) reportTarget(ctx context.Context, t ReportTarget) (model.Event, error) {
	event, err := s.store.GetEvent(ctx, t.EventKey)
	if err != nil {
		return model.Event{}, fmt.Errorf("event: %w", err)
	}
	match, err := s.store.GetMatch(ctx, t.EventKey, t.MatchKey)
	if err != nil {
		return model.Event{}, fmt.Errorf("match: %w", err)
	}
	if !match.HasTeam(t.TeamKey) {
		return model.Event{}, fmt.Errorf("team %s not in match %s: %w", t.TeamKey, t.MatchKey, ErrNotFound)
	}
	return event, nil
}

// reportsResource describes the reports of event for the guard.
func (s *Service) reportsResource(ctx context.Context, event model.Event) (access.Resource, error) {
	realm, err := s.store.GetRealm(ctx, event.RealmID)
	switch {
	case err == nil:
		return access.ReportsResource(event.RealmID, realm.ShareReports), nil
	case errors.Is(err, ErrNotFound):
		return access.ReportsResource(event.RealmID, false), nil
	default:
		return access.Resource{}, err
	}
}

// PutReport stores the caller's report for a team in a match, replacing the
// caller's previous report for it. It reports whether a new report was
// created. Writers must be verified members, admins of the event's realm or
// super-admins.
func (s *Service) PutReport(ctx context.Context, a access.Actor, t ReportTarget, in ReportInput) (bool, error) {
	const op = "service.put_report"
	if err := requireAuth(a); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	event, err := s.reportTarget(ctx, t)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	res, err := s.reportsResource(ctx, event)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.guard.Authorize(a, access.OpWrite, res); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err := model.Validate(in.Data); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	report := model.Report{
		EventKey:   t.EventKey,
		MatchKey:   t.MatchKey,
		TeamKey:    t.TeamKey,
		ReporterID: a.ID,
		RealmID:    a.RealmID,
		AutoName:   in.AutoName,
		Data:       normalizeData(in.Data),
	}
	created, err := s.store.UpsertReport(ctx, report)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	metrics.RecordReportUpsert(created)
	s.logger.Debug(ctx, "report stored",
		logger.String("event", t.EventKey),
		logger.String("match", t.MatchKey),
		logger.String("team", t.TeamKey),
		logger.Int64("reporter", a.ID),
		logger.Bool("created", created),
	)
	return created, nil
}

func normalizeData(d model.ReportData) model.ReportData {
	if d.Auto == nil {
		d.Auto = []model.ReportStat{}
	}
	if d.Teleop == nil {
		d.Teleop = []model.ReportStat{}
	}
	return d
}

// ListReports returns the reports for a team in a match that the caller may
// see. Callers outside the event's realm are forbidden unless it shares.
func (s *Service) ListReports(ctx context.Context, a access.Actor, t ReportTarget) ([]model.Report, error) {
	const op = "service.list_reports"
	event, err := s.reportTarget(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res, err := s.reportsResource(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.guard.Authorize(a, access.OpRead, res); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	reports, err := s.store.ListReports(ctx, repository.ReportFilter{
		EventKey: t.EventKey, MatchKey: t.MatchKey, TeamKey: t.TeamKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sh, err := s.sharing(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sh.visible(a, reports), nil
}

// DeleteReport removes the caller's own report.
func (s *Service) DeleteReport(ctx context.Context, a access.Actor, t ReportTarget) error {
	const op = "service.delete_report"
	if err := requireAuth(a); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	key := model.ReportKey{EventKey: t.EventKey, MatchKey: t.MatchKey, TeamKey: t.TeamKey, ReporterID: a.ID}
	if err := s.store.DeleteReport(ctx, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// TeamReports returns the visible reports of a team across all events,
// grouped per event in event key order.
func (s *Service) TeamReports(ctx context.Context, a access.Actor, teamKey string) ([]EventReports, error) {
	const op = "service.team_reports"
	if !model.IsTeamKey(teamKey) {
		return nil, fmt.Errorf("%s: %w: bad team key %q", op, ErrValidation, teamKey)
	}
	reports, err := s.store.ListReports(ctx, repository.ReportFilter{TeamKey: teamKey})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sh, err := s.sharing(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	byEvent := make(map[string][]model.Report)
	for _, r := range sh.visible(a, reports) {
		byEvent[r.EventKey] = append(byEvent[r.EventKey], r)
	}
	out := make([]EventReports, 0, len(byEvent))
	for key, rs := range byEvent {
		out = append(out, EventReports{EventKey: key, Reports: rs})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventKey < out[j].EventKey })
	return out, nil
}

// EventStats aggregates the reports the caller may see into per-team
// statistics for every team playing at the event.
func (s *Service) EventStats(ctx context.Context, a access.Actor, eventKey string) ([]aggregate.TeamStats, error) {
	const op = "service.event_stats"
	start := time.Now()

	event, err := s.store.GetEvent(ctx, eventKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	schema, err := s.schemaFor(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	matches, err := s.store.ListMatches(ctx, eventKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	reports, err := s.store.ListReports(ctx, repository.ReportFilter{EventKey: eventKey})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sh, err := s.sharing(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stats := aggregate.Aggregate(schema, aggregate.Teams(matches), sh.visible(a, reports))
	metrics.RecordStatsComputed(float64(time.Since(start).Milliseconds()), len(stats))
	return stats, nil
}

// Leaderboard ranks the reporters of the caller's realm by report count.
func (s *Service) Leaderboard(ctx context.Context, a access.Actor) ([]model.LeaderboardEntry, error) {
	const op = "service.leaderboard"
	if err := requireAuth(a); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	board, err := s.store.Leaderboard(ctx, a.RealmID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return board, nil
}
