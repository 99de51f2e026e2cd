// Package aggregate folds scouting reports into per-team statistics.
package aggregate

import (
	"sort"

	"github.com/okian/fieldscout/internal/domain/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary is the max and mean of one numeric field.
type Summary struct {
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// Stat is one folded statistic. Boolean statistics fill the counts, numeric
// statistics fill the summaries; the JSON shape differs accordingly.
type Stat struct {
	Name string
	Type model.StatType

	AttemptCount int
	SuccessCount int

	Attempts  Summary
	Successes Summary
}

// TeamStats is the folded statistics of one team at one event.
type TeamStats struct {
	Team   string `json:"team"`
	Auto   []Stat `json:"auto"`
	Teleop []Stat `json:"teleop"`
}

// folder folds the entries of one statistic, taken from every report of a
// team that carries it, into a Stat.
type folder func(name string, entries []model.ReportStat) Stat

// folders dispatches on the statistic type tag.
var folders = map[model.StatType]folder{ //nolint:gochecknoglobals // dispatch table
	model.StatBoolean: foldBoolean,
	model.StatNumber:  foldNumber,
}

// Teams returns the distinct teams playing in matches, sorted.
func Teams(matches []model.Match) []string {
	seen := make(map[string]struct{})
	for _, m := range matches {
		for _, t := range m.Teams() {
			seen[t] = struct{}{}
		}
	}
	teams := make([]string, 0, len(seen))
	for t := range seen {
		teams = append(teams, t)
	}
	sort.Strings(teams)
	return teams
}

// Aggregate folds reports into one TeamStats per team, sorted by team key.
// Teams without reports are still present. Reports for teams outside teams
// are ignored, as are report statistics the schema does not declare.
// A nil schema yields empty phases.
func Aggregate(schema *model.Schema, teams []string, reports []model.Report) []TeamStats {
	byTeam := make(map[string][]model.Report, len(teams))
	for _, r := range reports {
		byTeam[r.TeamKey] = append(byTeam[r.TeamKey], r)
	}

	sorted := append([]string(nil), teams...)
	sort.Strings(sorted)

	out := make([]TeamStats, 0, len(sorted))
	for i, team := range sorted {
		if i > 0 && sorted[i-1] == team {
			continue
		}
		ts := TeamStats{Team: team, Auto: []Stat{}, Teleop: []Stat{}}
		if schema != nil {
			rs := byTeam[team]
			ts.Auto = foldPhase(schema.Auto, rs, func(r model.Report) []model.ReportStat { return r.Data.Auto })
			ts.Teleop = foldPhase(schema.Teleop, rs, func(r model.Report) []model.ReportStat { return r.Data.Teleop })
		}
		out = append(out, ts)
	}
	return out
}

func foldPhase(descs []model.StatDescription, reports []model.Report, phase func(model.Report) []model.ReportStat) []Stat {
	stats := make([]Stat, 0, len(descs))
	for _, d := range descs {
		fold, ok := folders[d.Type]
		if !ok {
			continue
		}
		entries := make([]model.ReportStat, 0, len(reports))
		for _, r := range reports {
			if e, found := lookup(phase(r), d.Name); found {
				entries = append(entries, e)
			}
		}
		stats = append(stats, fold(d.Name, entries))
	}
	return stats
}

// lookup returns the first entry named name; later duplicates are ignored.
func lookup(entries []model.ReportStat, name string) (model.ReportStat, bool) {
	for _, e := range entries {
		if e.Name == name {
			return e, true
		}
	}
	return model.ReportStat{}, false
}

func foldBoolean(name string, entries []model.ReportStat) Stat {
	s := Stat{Name: name, Type: model.StatBoolean}
	for _, e := range entries {
		if e.Attempted != nil && *e.Attempted {
			s.AttemptCount++
		}
		if e.Succeeded != nil && *e.Succeeded {
			s.SuccessCount++
		}
	}
	return s
}

func foldNumber(name string, entries []model.ReportStat) Stat {
	s := Stat{Name: name, Type: model.StatNumber}
	if len(entries) == 0 {
		return s
	}
	attempts := make([]float64, len(entries))
	successes := make([]float64, len(entries))
	for i, e := range entries {
		if e.Attempts != nil {
			attempts[i] = *e.Attempts
		}
		if e.Successes != nil {
			successes[i] = *e.Successes
		}
	}
	s.Attempts = summarize(attempts)
	s.Successes = summarize(successes)
	return s
}

func summarize(xs []float64) Summary {
	return Summary{Max: floats.Max(xs), Avg: stat.Mean(xs, nil)}
}
