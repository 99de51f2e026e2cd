package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/okian/fieldscout/internal/domain/access"
	"github.com/okian/fieldscout/internal/domain/aggregate"
	"github.com/okian/fieldscout/internal/domain/model"
)

type statsCmd struct {
	Event string `arg:"" help:"Event key, e.g. 2018flor."`
	As    string `help:"Username whose view of the reports to print. Anonymous when empty."`
}

func formatStat(s aggregate.Stat) (string, string) {
	if s.Type == model.StatBoolean {
		return fmt.Sprintf("%d", s.AttemptCount), fmt.Sprintf("%d", s.SuccessCount)
	}
	return fmt.Sprintf("max %.2f avg %.2f", s.Attempts.Max, s.Attempts.Avg),
		fmt.Sprintf("max %.2f avg %.2f", s.Successes.Max, s.Successes.Avg)
}

func (s *statsCmd) Run(g *globalCmd) error {
	ctx := context.Background()
	svc, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer svc.Stop()

	var actor access.Actor
	if s.As != "" {
		if actor, err = svc.ActorFor(ctx, s.As); err != nil {
			return err
		}
	}
	stats, err := svc.EventStats(ctx, actor, s.Event)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(g.Out)
	t.SetTitle(s.Event)
	t.AppendHeader(table.Row{"Team", "Phase", "Statistic", "Attempts", "Successes"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
		{Number: 2, AutoMerge: true},
	})
	for _, team := range stats {
		for _, phase := range []struct {
			name  string
			stats []aggregate.Stat
		}{{"auto", team.Auto}, {"teleop", team.Teleop}} {
			for _, st := range phase.stats {
				attempts, successes := formatStat(st)
				t.AppendRow(table.Row{team.Team, phase.name, st.Name, attempts, successes})
			}
		}
		t.AppendSeparator()
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}

type countsCmd struct{}

func (c *countsCmd) Run(g *globalCmd) error {
	ctx := context.Background()
	svc, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer svc.Stop()

	counts, err := svc.Counts(ctx)
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.SetOutputMirror(g.Out)
	t.AppendHeader(table.Row{"Kind", "Records"})
	for _, kind := range []string{"realms", "users", "events", "reports"} {
		t.AppendRow(table.Row{kind, counts[kind]})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}
