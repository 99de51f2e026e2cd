package service_test

import (
	"context"
	"errors"
	"testing"

	app "github.com/okian/fieldscout/internal/app"
	"github.com/okian/fieldscout/internal/domain/access"
	"github.com/okian/fieldscout/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPutReport(t *testing.T) {
	Convey("Given an event of realm alpha", t, func() {
		f := newFixture(t)
		f.seedEvent(t)
		ctx := context.Background()

		Convey("A scout's first report is created and the second replaces it", func() {
			created, err := f.svc.PutReport(ctx, f.scoutA, target("qm1", "frc1421"), cubes(2, 1))
			So(err, ShouldBeNil)
			So(created, ShouldBeTrue)

			created, err = f.svc.PutReport(ctx, f.scoutA, target("qm1", "frc1421"), cubes(5, 4))
			So(err, ShouldBeNil)
			So(created, ShouldBeFalse)

			reports, err := f.svc.ListReports(ctx, f.scoutA, target("qm1", "frc1421"))
			So(err, ShouldBeNil)
			So(reports, ShouldHaveLength, 1)
			So(reports[0].ReporterID, ShouldEqual, f.scoutA.ID)
			So(reports[0].RealmID, ShouldEqual, f.alpha.ID)
			So(*reports[0].Data.Auto[1].Attempts, ShouldEqual, 5)
			So(*reports[0].Data.Auto[1].Successes, ShouldEqual, 4)
		})

		Convey("A report round-trips unchanged", func() {
			in := cubes(3, 2)
			in.AutoName = "center switch"
			in.Data.Teleop = []model.ReportStat{{Name: "Climbed", Attempted: b(true), Succeeded: b(false)}}
			_, err := f.svc.PutReport(ctx, f.scoutA, target("qm2", "frc1421"), in)
			So(err, ShouldBeNil)

			reports, err := f.svc.ListReports(ctx, f.adminA, target("qm2", "frc1421"))
			So(err, ShouldBeNil)
			So(reports, ShouldHaveLength, 1)
			So(reports[0].AutoName, ShouldEqual, "center switch")
			So(reports[0].Data, ShouldResemble, in.Data)
		})

		Convey("Anonymous callers are unauthorized", func() {
			_, err := f.svc.PutReport(ctx, access.Actor{}, target("qm1", "frc1421"), cubes(1, 1))
			So(errors.Is(err, app.ErrUnauthorized), ShouldBeTrue)
		})

		Convey("Unverified users and other realms are forbidden", func() {
			_, err := f.svc.PutReport(ctx, f.unverifiedA, target("qm1", "frc1421"), cubes(1, 1))
			So(errors.Is(err, app.ErrForbidden), ShouldBeTrue)

			_, err = f.svc.PutReport(ctx, f.adminB, target("qm1", "frc1421"), cubes(1, 1))
			So(errors.Is(err, app.ErrForbidden), ShouldBeTrue)

			_, err = f.svc.PutReport(ctx, f.scoutC, target("qm1", "frc1421"), cubes(1, 1))
			So(errors.Is(err, app.ErrForbidden), ShouldBeTrue)
		})

		Convey("Unknown events, matches and teams are not found", func() {
			_, err := f.svc.PutReport(ctx, f.scoutA, app.ReportTarget{EventKey: "2018nope", MatchKey: "qm1", TeamKey: "frc1421"}, cubes(1, 1))
			So(errors.Is(err, app.ErrNotFound), ShouldBeTrue)

			_, err = f.svc.PutReport(ctx, f.scoutA, target("qm9", "frc1421"), cubes(1, 1))
			So(errors.Is(err, app.ErrNotFound), ShouldBeTrue)

			_, err = f.svc.PutReport(ctx, f.scoutA, target("qm1", "frc7"), cubes(1, 1))
			So(errors.Is(err, app.ErrNotFound), ShouldBeTrue)
		})

		Convey("Negative numeric values fail validation", func() {
			_, err := f.svc.PutReport(ctx, f.scoutA, target("qm1", "frc1421"), cubes(-1, 0))
			So(errors.Is(err, app.ErrValidation), ShouldBeTrue)
		})

		Convey("A reporter can delete only its own report", func() {
			_, err := f.svc.PutReport(ctx, f.scoutA, target("qm1", "frc1421"), cubes(1, 1))
			So(err, ShouldBeNil)

			So(errors.Is(f.svc.DeleteReport(ctx, f.scoutA2, target("qm1", "frc1421")), app.ErrNotFound), ShouldBeTrue)
			So(f.svc.DeleteReport(ctx, f.scoutA, target("qm1", "frc1421")), ShouldBeNil)

			reports, err := f.svc.ListReports(ctx, f.adminA, target("qm1", "frc1421"))
			So(err, ShouldBeNil)
			So(reports, ShouldBeEmpty)
		})
	})
}

func TestListReportsVisibility(t *testing.T) {
	Convey("Given a report in a realm that does not share", t, func() {
		f := newFixture(t)
		f.seedEvent(t)
		ctx := context.Background()
		_, err := f.svc.PutReport(ctx, f.scoutA, target("qm1", "frc1421"), cubes(2, 1))
		So(err, ShouldBeNil)

		Convey("An admin of another realm is forbidden", func() {
			_, err := f.svc.ListReports(ctx, f.adminB, target("qm1", "frc1421"))
			So(errors.Is(err, app.ErrForbidden), ShouldBeTrue)
		})

		Convey("The realm's own admin reads it", func() {
			reports, err := f.svc.ListReports(ctx, f.adminA, target("qm1", "frc1421"))
			So(err, ShouldBeNil)
			So(reports, ShouldHaveLength, 1)
		})

		Convey("Anonymous callers are forbidden", func() {
			_, err := f.svc.ListReports(ctx, access.Actor{}, target("qm1", "frc1421"))
			So(errors.Is(err, app.ErrForbidden), ShouldBeTrue)
		})

		Convey("Once the realm shares, anyone reads it", func() {
			alpha := f.alpha
			alpha.ShareReports = true
			So(f.svc.UpdateRealm(ctx, f.adminA, alpha), ShouldBeNil)

			reports, err := f.svc.ListReports(ctx, access.Actor{}, target("qm1", "frc1421"))
			So(err, ShouldBeNil)
			So(reports, ShouldHaveLength, 1)

			reports, err = f.svc.ListReports(ctx, f.adminB, target("qm1", "frc1421"))
			So(err, ShouldBeNil)
			So(reports, ShouldHaveLength, 1)
		})
	})
}

func TestEventStats(t *testing.T) {
	Convey("Given two alpha scouts reporting on frc1421", t, func() {
		f := newFixture(t)
		f.seedEvent(t)
		ctx := context.Background()

		first := cubes(2, 1)
		first.Data.Teleop = []model.ReportStat{
			{Name: "Climbed", Attempted: b(true), Succeeded: b(true)},
			{Name: "Cubes", Attempts: n(10), Successes: n(6)},
		}
		second := cubes(2, 2)
		second.Data.Teleop = []model.ReportStat{
			{Name: "Climbed", Attempted: b(false), Succeeded: b(false)},
			{Name: "Cubes", Attempts: n(12), Successes: n(10)},
			{Name: "Wheelie", Attempted: b(true)},
		}
		_, err := f.svc.PutReport(ctx, f.scoutA, target("qm1", "frc1421"), first)
		So(err, ShouldBeNil)
		_, err = f.svc.PutReport(ctx, f.scoutA2, target("qm2", "frc1421"), second)
		So(err, ShouldBeNil)

		Convey("When alpha's admin asks for the event stats", func() {
			stats, err := f.svc.EventStats(ctx, f.adminA, "2018flor")
			So(err, ShouldBeNil)

			Convey("Then every team of the event is listed in key order", func() {
				So(stats, ShouldHaveLength, 11)
				So(stats[0].Team, ShouldEqual, "frc10")
				So(stats[len(stats)-1].Team, ShouldEqual, "frc9")
			})

			Convey("Then boolean statistics are counts", func() {
				team := teamByKey(stats, "frc1421")
				line := statByName(team.Auto, "Crossed Line")
				So(line.AttemptCount, ShouldEqual, 2)
				So(line.SuccessCount, ShouldEqual, 2)
				climbed := statByName(team.Teleop, "Climbed")
				So(climbed.AttemptCount, ShouldEqual, 1)
				So(climbed.SuccessCount, ShouldEqual, 1)
			})

			Convey("Then numeric statistics are max and mean", func() {
				team := teamByKey(stats, "frc1421")
				auto := statByName(team.Auto, "Cubes")
				So(auto.Attempts.Max, ShouldEqual, 2)
				So(auto.Attempts.Avg, ShouldEqual, 2)
				So(auto.Successes.Max, ShouldEqual, 2)
				So(auto.Successes.Avg, ShouldEqual, 1.5)

				teleop := statByName(team.Teleop, "Cubes")
				So(teleop.Attempts.Max, ShouldEqual, 12)
				So(teleop.Attempts.Avg, ShouldEqual, 11)
				So(teleop.Successes.Max, ShouldEqual, 10)
				So(teleop.Successes.Avg, ShouldEqual, 8)
			})

			Convey("Then statistics follow schema order and skip unknown names", func() {
				team := teamByKey(stats, "frc1421")
				So(team.Teleop, ShouldHaveLength, 2)
				So(team.Teleop[0].Name, ShouldEqual, "Climbed")
				So(team.Teleop[1].Name, ShouldEqual, "Cubes")
			})

			Convey("Then teams without reports carry zero folds", func() {
				team := teamByKey(stats, "frc2")
				So(team.Auto, ShouldHaveLength, 2)
				So(statByName(team.Auto, "Crossed Line").AttemptCount, ShouldEqual, 0)
				So(statByName(team.Auto, "Cubes").Attempts.Avg, ShouldEqual, 0)
			})
		})

		Convey("When a third report is added", func() {
			_, err := f.svc.PutReport(ctx, f.adminA, target("qm1", "frc1421"), cubes(10, 10))
			So(err, ShouldBeNil)

			stats, err := f.svc.EventStats(ctx, f.adminA, "2018flor")
			So(err, ShouldBeNil)

			Convey("Then the averages are recomputed over three reports", func() {
				auto := statByName(teamByKey(stats, "frc1421").Auto, "Cubes")
				So(auto.Attempts.Max, ShouldEqual, 10)
				So(auto.Attempts.Avg, ShouldAlmostEqual, 14.0/3.0, 1e-9)
				So(auto.Successes.Avg, ShouldAlmostEqual, 13.0/3.0, 1e-9)
			})
		})

		Convey("When a super-admin reports from its own realm", func() {
			_, err := f.svc.PutReport(ctx, f.super, target("qm1", "frc1421"), cubes(100, 100))
			So(err, ShouldBeNil)

			Convey("Then alpha's stats do not include it", func() {
				stats, err := f.svc.EventStats(ctx, f.adminA, "2018flor")
				So(err, ShouldBeNil)
				So(statByName(teamByKey(stats, "frc1421").Auto, "Cubes").Attempts.Max, ShouldEqual, 2)
			})

			Convey("Then the super-admin sees the reports of every realm", func() {
				stats, err := f.svc.EventStats(ctx, f.super, "2018flor")
				So(err, ShouldBeNil)
				cubes := statByName(teamByKey(stats, "frc1421").Auto, "Cubes")
				So(cubes.Attempts.Max, ShouldEqual, 100)
				So(cubes.Attempts.Avg, ShouldAlmostEqual, 104.0/3.0, 1e-9)

				reports, err := f.svc.ListReports(ctx, f.super, target("qm2", "frc1421"))
				So(err, ShouldBeNil)
				So(reports, ShouldHaveLength, 1)
				So(reports[0].ReporterID, ShouldEqual, f.scoutA2.ID)
			})
		})

		Convey("When an anonymous caller asks", func() {
			stats, err := f.svc.EventStats(ctx, access.Actor{}, "2018flor")
			So(err, ShouldBeNil)

			Convey("Then private reports are left out", func() {
				So(stats, ShouldHaveLength, 11)
				So(statByName(teamByKey(stats, "frc1421").Auto, "Crossed Line").AttemptCount, ShouldEqual, 0)
			})
		})

		Convey("When the event does not exist", func() {
			_, err := f.svc.EventStats(ctx, f.adminA, "2018none")

			Convey("Then it is not found", func() {
				So(errors.Is(err, app.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestTeamReportsAndLeaderboard(t *testing.T) {
	Convey("Given reports by alpha's scouts", t, func() {
		f := newFixture(t)
		f.seedEvent(t)
		ctx := context.Background()
		for _, r := range []struct {
			actor access.Actor
			match string
			team  string
		}{
			{f.scoutA, "qm1", "frc1421"},
			{f.scoutA, "qm2", "frc1421"},
			{f.scoutA, "qm1", "frc2"},
			{f.scoutA2, "qm1", "frc1421"},
		} {
			_, err := f.svc.PutReport(ctx, r.actor, target(r.match, r.team), cubes(1, 1))
			So(err, ShouldBeNil)
		}

		Convey("Team reports are grouped per event for realm members", func() {
			groups, err := f.svc.TeamReports(ctx, f.adminA, "frc1421")
			So(err, ShouldBeNil)
			So(groups, ShouldHaveLength, 1)
			So(groups[0].EventKey, ShouldEqual, "2018flor")
			So(groups[0].Reports, ShouldHaveLength, 3)
		})

		Convey("Team reports are hidden from other realms", func() {
			groups, err := f.svc.TeamReports(ctx, f.adminB, "frc1421")
			So(err, ShouldBeNil)
			So(groups, ShouldBeEmpty)
		})

		Convey("Super-admins read team reports of every realm", func() {
			groups, err := f.svc.TeamReports(ctx, f.super, "frc1421")
			So(err, ShouldBeNil)
			So(groups, ShouldHaveLength, 1)
			So(groups[0].Reports, ShouldHaveLength, 3)
		})

		Convey("A malformed team key fails validation", func() {
			_, err := f.svc.TeamReports(ctx, f.adminA, "1421")
			So(errors.Is(err, app.ErrValidation), ShouldBeTrue)
		})

		Convey("The leaderboard ranks the realm's reporters", func() {
			board, err := f.svc.Leaderboard(ctx, f.scoutA2)
			So(err, ShouldBeNil)
			So(board, ShouldResemble, []model.LeaderboardEntry{
				{ReporterID: f.scoutA.ID, Reports: 3},
				{ReporterID: f.scoutA2.ID, Reports: 1},
			})

			board, err = f.svc.Leaderboard(ctx, f.scoutB)
			So(err, ShouldBeNil)
			So(board, ShouldBeEmpty)

			_, err = f.svc.Leaderboard(ctx, access.Actor{})
			So(errors.Is(err, app.ErrUnauthorized), ShouldBeTrue)
		})

		Convey("Deleting the event removes its reports", func() {
			So(f.svc.DeleteEvent(ctx, f.adminA, "2018flor"), ShouldBeNil)
			groups, err := f.svc.TeamReports(ctx, f.adminA, "frc1421")
			So(err, ShouldBeNil)
			So(groups, ShouldBeEmpty)
		})
	})
}
