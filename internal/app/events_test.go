package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	app "github.com/okian/fieldscout/internal/app"
	"github.com/okian/fieldscout/internal/domain/access"
	"github.com/okian/fieldscout/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSchemas(t *testing.T) {
	Convey("Given a service without schemas", t, func() {
		f := newFixture(t)
		ctx := context.Background()
		schema := model.Schema{
			Year:   2019,
			Auto:   []model.StatDescription{{Name: "Hatches", Type: model.StatNumber}},
			Teleop: []model.StatDescription{{Name: "Hab 3", Type: model.StatBoolean}},
		}

		Convey("Only super-admins create schemas", func() {
			_, err := f.svc.CreateSchema(ctx, f.adminA, schema)
			So(errors.Is(err, app.ErrForbidden), ShouldBeTrue)

			created, err := f.svc.CreateSchema(ctx, f.super, schema)
			So(err, ShouldBeNil)
			So(created.ID, ShouldBeGreaterThan, 0)

			byYear, err := f.svc.GetSchemaByYear(ctx, 2019)
			So(err, ShouldBeNil)
			So(byYear, ShouldResemble, created)

			_, err = f.svc.CreateSchema(ctx, f.super, schema)
			So(errors.Is(err, app.ErrConflict), ShouldBeTrue)
		})

		Convey("Unknown stat types and duplicate names fail validation", func() {
			bad := schema
			bad.Auto = []model.StatDescription{{Name: "Hatches", Type: "percent"}}
			_, err := f.svc.CreateSchema(ctx, f.super, bad)
			So(errors.Is(err, app.ErrValidation), ShouldBeTrue)

			bad.Auto = []model.StatDescription{
				{Name: "Hatches", Type: model.StatNumber},
				{Name: "Hatches", Type: model.StatBoolean},
			}
			_, err = f.svc.CreateSchema(ctx, f.super, bad)
			So(errors.Is(err, app.ErrValidation), ShouldBeTrue)
		})

		Convey("Missing schemas are not found", func() {
			_, err := f.svc.GetSchema(ctx, 42)
			So(errors.Is(err, app.ErrNotFound), ShouldBeTrue)
			_, err = f.svc.GetSchemaByYear(ctx, 1999)
			So(errors.Is(err, app.ErrNotFound), ShouldBeTrue)
		})

		Convey("Events without any schema aggregate to empty phases", func() {
			_, err := f.svc.CreateEvent(ctx, f.adminA, model.Event{Key: "2019flor", Name: "Orlando"})
			So(err, ShouldBeNil)
			_, err = f.svc.CreateMatch(ctx, f.adminA, "2019flor", model.Match{
				Key:          "qm1",
				RedAlliance:  []string{"frc1", "frc2", "frc3"},
				BlueAlliance: []string{"frc4", "frc5", "frc6"},
			})
			So(err, ShouldBeNil)

			stats, err := f.svc.EventStats(ctx, f.adminA, "2019flor")
			So(err, ShouldBeNil)
			So(stats, ShouldHaveLength, 6)
			So(stats[0].Auto, ShouldBeEmpty)
			So(stats[0].Teleop, ShouldBeEmpty)
		})
	})
}

func TestEvents(t *testing.T) {
	Convey("Given the 2018flor event of realm alpha", t, func() {
		f := newFixture(t)
		f.seedEvent(t)
		ctx := context.Background()

		Convey("It belongs to the creating admin's realm", func() {
			event, err := f.svc.GetEvent(ctx, "2018flor")
			So(err, ShouldBeNil)
			So(event.RealmID, ShouldEqual, f.alpha.ID)
			So(event.Webcasts, ShouldResemble, []model.Webcast{})
		})

		Convey("Creating it again conflicts", func() {
			_, err := f.svc.CreateEvent(ctx, f.adminA, model.Event{Key: "2018flor", Name: "Again"})
			So(errors.Is(err, app.ErrConflict), ShouldBeTrue)
		})

		Convey("Scouts and anonymous callers cannot create events", func() {
			_, err := f.svc.CreateEvent(ctx, f.scoutA, model.Event{Key: "2018fltw", Name: "Tallahassee"})
			So(errors.Is(err, app.ErrForbidden), ShouldBeTrue)

			_, err = f.svc.CreateEvent(ctx, access.Actor{}, model.Event{Key: "2018fltw", Name: "Tallahassee"})
			So(errors.Is(err, app.ErrUnauthorized), ShouldBeTrue)
		})

		Convey("Malformed events fail validation", func() {
			_, err := f.svc.CreateEvent(ctx, f.adminA, model.Event{Key: "flor", Name: "No year"})
			So(errors.Is(err, app.ErrValidation), ShouldBeTrue)

			_, err = f.svc.CreateEvent(ctx, f.adminA, model.Event{
				Key: "2018fltw", Name: "Tallahassee",
				Webcasts: []model.Webcast{{Type: "vimeo", URL: "https://vimeo.com/x"}},
			})
			So(errors.Is(err, app.ErrValidation), ShouldBeTrue)

			_, err = f.svc.CreateEvent(ctx, f.adminA, model.Event{Key: "2018fltw", Name: "Tallahassee", SchemaID: i64(99)})
			So(errors.Is(err, app.ErrNotFound), ShouldBeTrue)
		})

		Convey("PUT creates new events and replaces existing ones", func() {
			created, err := f.svc.PutEvent(ctx, f.adminA, "2018fltw", model.Event{Name: "Tallahassee"})
			So(err, ShouldBeNil)
			So(created, ShouldBeTrue)

			created, err = f.svc.PutEvent(ctx, f.adminA, "2018flor", model.Event{
				Name:      "Orlando Regional Renamed",
				StartDate: time.Date(2018, 3, 8, 0, 0, 0, 0, time.UTC),
			})
			So(err, ShouldBeNil)
			So(created, ShouldBeFalse)

			event, err := f.svc.GetEvent(ctx, "2018flor")
			So(err, ShouldBeNil)
			So(event.Name, ShouldEqual, "Orlando Regional Renamed")

			matches, err := f.svc.ListMatches(ctx, "2018flor")
			So(err, ShouldBeNil)
			So(matches, ShouldHaveLength, 2)
		})

		Convey("Admins of other realms cannot replace or delete it", func() {
			_, err := f.svc.PutEvent(ctx, f.adminB, "2018flor", model.Event{Name: "Hijacked"})
			So(errors.Is(err, app.ErrForbidden), ShouldBeTrue)

			So(errors.Is(f.svc.DeleteEvent(ctx, f.adminB, "2018flor"), app.ErrForbidden), ShouldBeTrue)
		})

		Convey("Teams are derived from the matches", func() {
			teams, err := f.svc.EventTeams(ctx, "2018flor")
			So(err, ShouldBeNil)
			So(teams, ShouldHaveLength, 11)
			So(teams[2], ShouldEqual, "frc1421")

			_, err = f.svc.EventTeams(ctx, "2018none")
			So(errors.Is(err, app.ErrNotFound), ShouldBeTrue)
		})

		Convey("Matches", func() {
			match := model.Match{
				Key:          "qm3",
				RedAlliance:  []string{"frc1", "frc2", "frc3"},
				BlueAlliance: []string{"frc4", "frc5", "frc6"},
			}

			Convey("are created by realm admins", func() {
				_, err := f.svc.CreateMatch(ctx, f.adminA, "2018flor", match)
				So(err, ShouldBeNil)

				got, err := f.svc.GetMatch(ctx, "2018flor", "qm3")
				So(err, ShouldBeNil)
				So(got.HasTeam("frc4"), ShouldBeTrue)

				_, err = f.svc.CreateMatch(ctx, f.adminA, "2018flor", match)
				So(errors.Is(err, app.ErrConflict), ShouldBeTrue)
			})

			Convey("need disjoint alliances of three teams", func() {
				match.BlueAlliance = []string{"frc3", "frc5", "frc6"}
				_, err := f.svc.CreateMatch(ctx, f.adminA, "2018flor", match)
				So(errors.Is(err, app.ErrValidation), ShouldBeTrue)

				match.BlueAlliance = []string{"frc4", "frc5"}
				_, err = f.svc.CreateMatch(ctx, f.adminA, "2018flor", match)
				So(errors.Is(err, app.ErrValidation), ShouldBeTrue)

				match.BlueAlliance = []string{"4", "frc5", "frc6"}
				_, err = f.svc.CreateMatch(ctx, f.adminA, "2018flor", match)
				So(errors.Is(err, app.ErrValidation), ShouldBeTrue)
			})

			Convey("need keys free of control bytes", func() {
				match.Key = "qm\x00x"
				_, err := f.svc.CreateMatch(ctx, f.adminA, "2018flor", match)
				So(errors.Is(err, app.ErrValidation), ShouldBeTrue)
			})

			Convey("are deleted with their reports", func() {
				_, err := f.svc.PutReport(ctx, f.scoutA, target("qm1", "frc1421"), cubes(1, 1))
				So(err, ShouldBeNil)
				So(f.svc.DeleteMatch(ctx, f.adminA, "2018flor", "qm1"), ShouldBeNil)

				_, err = f.svc.GetMatch(ctx, "2018flor", "qm1")
				So(errors.Is(err, app.ErrNotFound), ShouldBeTrue)

				groups, err := f.svc.TeamReports(ctx, f.adminA, "frc1421")
				So(err, ShouldBeNil)
				So(groups, ShouldBeEmpty)
			})
		})
	})
}
