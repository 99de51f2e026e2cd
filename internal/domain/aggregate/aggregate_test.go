package aggregate_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/fieldscout/internal/domain/aggregate"
	"github.com/okian/fieldscout/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func b(v bool) *bool       { return &v }
func f(v float64) *float64 { return &v }

func boolStat(name string, attempted, succeeded bool) model.ReportStat {
	return model.ReportStat{Name: name, Attempted: b(attempted), Succeeded: b(succeeded)}
}

func numStat(name string, attempts, successes float64) model.ReportStat {
	return model.ReportStat{Name: name, Attempts: f(attempts), Successes: f(successes)}
}

func testSchema() *model.Schema {
	return &model.Schema{
		Year: 1968,
		Auto: []model.StatDescription{
			{Name: "Crossed Line", Type: model.StatBoolean},
			{Name: "Cubes", Type: model.StatNumber},
		},
		Teleop: []model.StatDescription{
			{Name: "Climbed", Type: model.StatBoolean},
			{Name: "Cubes", Type: model.StatNumber},
		},
	}
}

func testMatch() model.Match {
	return model.Match{
		Key:          "foo123",
		RedAlliance:  []string{"frc1592", "frc5722", "frc1421"},
		BlueAlliance: []string{"frc6322", "frc4024", "frc5283"},
	}
}

func find(stats []aggregate.TeamStats, team string) aggregate.TeamStats {
	for _, s := range stats {
		if s.Team == team {
			return s
		}
	}
	return aggregate.TeamStats{}
}

func TestTeams(t *testing.T) {
	Convey("Teams are the sorted union of both alliances", t, func() {
		other := model.Match{
			Key:          "qm2",
			RedAlliance:  []string{"frc1421", "frc9999", "frc5722"},
			BlueAlliance: []string{"frc1", "frc2", "frc3"},
		}
		teams := aggregate.Teams([]model.Match{testMatch(), other})
		So(teams, ShouldResemble, []string{
			"frc1", "frc1421", "frc1592", "frc2", "frc3", "frc4024", "frc5283", "frc5722", "frc6322", "frc9999",
		})
	})
}

func TestAggregate(t *testing.T) {
	schema := testSchema()
	teams := aggregate.Teams([]model.Match{testMatch()})

	Convey("Given an event with no reports", t, func() {
		stats := aggregate.Aggregate(schema, teams, nil)

		Convey("Every team is present with zeroed statistics in schema order", func() {
			So(stats, ShouldHaveLength, 6)
			s := find(stats, "frc1421")
			So(s.Auto, ShouldHaveLength, 2)
			So(s.Auto[0].Name, ShouldEqual, "Crossed Line")
			So(s.Auto[0].AttemptCount, ShouldEqual, 0)
			So(s.Auto[1].Name, ShouldEqual, "Cubes")
			So(s.Auto[1].Attempts, ShouldResemble, aggregate.Summary{})
			So(s.Teleop[0].Name, ShouldEqual, "Climbed")
		})

		Convey("Output is sorted by team key", func() {
			for i := 1; i < len(stats); i++ {
				So(stats[i-1].Team < stats[i].Team, ShouldBeTrue)
			}
		})
	})

	Convey("Given two visible reports for a team", t, func() {
		reports := []model.Report{
			{TeamKey: "frc1421", ReporterID: 1, Data: model.ReportData{
				Auto:   []model.ReportStat{boolStat("Crossed Line", true, true), numStat("Cubes", 2, 1)},
				Teleop: []model.ReportStat{boolStat("Climbed", true, true), numStat("Cubes", 6, 7)},
			}},
			{TeamKey: "frc1421", ReporterID: 2, Data: model.ReportData{
				Auto:   []model.ReportStat{boolStat("Crossed Line", true, true), numStat("Cubes", 2, 2)},
				Teleop: []model.ReportStat{numStat("Cubes", 12, 10)},
			}},
			{TeamKey: "frc1592", ReporterID: 1, Data: model.ReportData{
				Auto: []model.ReportStat{boolStat("Crossed Line", false, false), numStat("Cubes", 5, 5)},
			}},
		}
		stats := aggregate.Aggregate(schema, teams, reports)
		s := find(stats, "frc1421")

		Convey("Boolean statistics count true flags", func() {
			So(s.Auto[0].AttemptCount, ShouldEqual, 2)
			So(s.Auto[0].SuccessCount, ShouldEqual, 2)
		})

		Convey("Numeric statistics report max and mean", func() {
			So(s.Auto[1].Attempts, ShouldResemble, aggregate.Summary{Max: 2, Avg: 2})
			So(s.Auto[1].Successes, ShouldResemble, aggregate.Summary{Max: 2, Avg: 1.5})
		})

		Convey("A report omitting a statistic does not contribute to it", func() {
			So(s.Teleop[0].AttemptCount, ShouldEqual, 1)
			So(s.Teleop[0].SuccessCount, ShouldEqual, 1)
			So(s.Teleop[1].Attempts, ShouldResemble, aggregate.Summary{Max: 12, Avg: 9})
			So(s.Teleop[1].Successes, ShouldResemble, aggregate.Summary{Max: 10, Avg: 8})
		})

		Convey("False flags are not counted", func() {
			other := find(stats, "frc1592")
			So(other.Auto[0].AttemptCount, ShouldEqual, 0)
			So(other.Auto[1].Attempts.Max, ShouldEqual, 5)
		})

		Convey("The JSON shape matches the statistic type", func() {
			raw, err := json.Marshal(s.Auto)
			So(err, ShouldBeNil)
			So(string(raw), ShouldEqual,
				`[{"name":"Crossed Line","attempts":2,"successes":2},`+
					`{"name":"Cubes","attempts":{"max":2,"avg":2},"successes":{"max":2,"avg":1.5}}]`)

			var back []aggregate.Stat
			So(json.Unmarshal(raw, &back), ShouldBeNil)
			So(back, ShouldResemble, s.Auto)
		})
	})

	Convey("Given malformed reports", t, func() {
		reports := []model.Report{
			{TeamKey: "frc1421", Data: model.ReportData{
				Auto: []model.ReportStat{
					{Name: "Unknown", Attempts: f(100)},
					numStat("Cubes", 4, 3),
					numStat("Cubes", 40, 30),
					{Name: "Crossed Line"},
				},
			}},
			{TeamKey: "frc1421", Data: model.ReportData{
				Auto: []model.ReportStat{{Name: "Cubes", Attempts: f(2)}},
			}},
			{TeamKey: "frc0000", Data: model.ReportData{
				Auto: []model.ReportStat{numStat("Cubes", 9, 9)},
			}},
		}
		stats := aggregate.Aggregate(schema, teams, reports)
		s := find(stats, "frc1421")

		Convey("Unknown statistics are skipped", func() {
			So(s.Auto, ShouldHaveLength, 2)
		})

		Convey("The first entry of a repeated statistic wins", func() {
			So(s.Auto[1].Attempts.Max, ShouldEqual, 4)
		})

		Convey("A missing numeric field counts as zero", func() {
			So(s.Auto[1].Successes, ShouldResemble, aggregate.Summary{Max: 3, Avg: 1.5})
			So(s.Auto[1].Attempts, ShouldResemble, aggregate.Summary{Max: 4, Avg: 3})
		})

		Convey("A boolean statistic without flags counts nothing", func() {
			So(s.Auto[0].AttemptCount, ShouldEqual, 0)
		})

		Convey("Reports for teams outside the event are ignored", func() {
			So(stats, ShouldHaveLength, 6)
		})
	})

	Convey("Given no schema", t, func() {
		stats := aggregate.Aggregate(nil, []string{"frc2", "frc1", "frc2"}, nil)

		Convey("Teams are deduplicated and phases are empty", func() {
			So(stats, ShouldHaveLength, 2)
			So(stats[0].Team, ShouldEqual, "frc1")
			So(stats[0].Auto, ShouldBeEmpty)
			So(stats[0].Teleop, ShouldNotBeNil)
		})
	})
}
