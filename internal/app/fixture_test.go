package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/okian/fieldscout/internal/adapters/auth"
	app "github.com/okian/fieldscout/internal/app"
	"github.com/okian/fieldscout/internal/domain/access"
	"github.com/okian/fieldscout/internal/domain/aggregate"
	"github.com/okian/fieldscout/internal/domain/model"
	"github.com/okian/fieldscout/pkg/logger"
)

func init() {
	_ = logger.Init()
	_ = logger.SetLevelString("error")
}

// fixture is a started service over a fresh bbolt store with three realms:
// alpha and bravo keep their reports private, charlie shares them.
type fixture struct {
	svc *app.Service

	super access.Actor

	alpha, bravo, charlie model.Realm

	adminA, scoutA, scoutA2, unverifiedA access.Actor
	adminB, scoutB                       access.Actor
	scoutC                               access.Actor
}

func actorOf(u model.User) access.Actor {
	return access.Actor{
		ID:           u.ID,
		RealmID:      u.RealmID,
		IsVerified:   u.Roles.IsVerified,
		IsAdmin:      u.Roles.IsAdmin,
		IsSuperAdmin: u.Roles.IsSuperAdmin,
	}
}

func b(v bool) *bool       { return &v }
func n(v float64) *float64 { return &v }
func str(v string) *string { return &v }
func i64(v int64) *int64   { return &v }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	svc := app.New(
		app.WithBoltPath(filepath.Join(t.TempDir(), "fieldscout.db")),
		app.WithTokens(auth.NewTokens([]byte("test-secret"), time.Hour)),
		app.WithPasswords(auth.NewPasswords(bcrypt.MinCost)),
	)
	must(t, svc.Start(ctx))
	t.Cleanup(svc.Stop)

	f := &fixture{svc: svc}

	_, root, err := svc.Bootstrap(ctx, "Root", app.NewUser{
		Username: "rootadmin", Password: "rootpassword", FirstName: "Root", LastName: "Admin",
	})
	must(t, err)
	f.super = actorOf(root)

	f.alpha = f.realm(t, "Alpha", false)
	f.bravo = f.realm(t, "Bravo", false)
	f.charlie = f.realm(t, "Charlie", true)

	f.adminA = f.user(t, "adminalpha", f.alpha.ID, model.Roles{IsAdmin: true, IsVerified: true})
	f.scoutA = f.user(t, "scoutalpha", f.alpha.ID, model.Roles{IsVerified: true})
	f.scoutA2 = f.user(t, "scoutalpha2", f.alpha.ID, model.Roles{IsVerified: true})
	f.unverifiedA = f.user(t, "newbalpha", f.alpha.ID, model.Roles{})
	f.adminB = f.user(t, "adminbravo", f.bravo.ID, model.Roles{IsAdmin: true, IsVerified: true})
	f.scoutB = f.user(t, "scoutbravo", f.bravo.ID, model.Roles{IsVerified: true})
	f.scoutC = f.user(t, "scoutcharlie", f.charlie.ID, model.Roles{IsVerified: true})

	return f
}

func (f *fixture) realm(t *testing.T, name string, share bool) model.Realm {
	t.Helper()
	r, err := f.svc.CreateRealm(context.Background(), f.super, model.Realm{Name: name, ShareReports: share})
	must(t, err)
	return r
}

func (f *fixture) user(t *testing.T, username string, realm int64, roles model.Roles) access.Actor {
	t.Helper()
	u, err := f.svc.CreateUser(context.Background(), f.super, app.NewUser{
		Username:  username,
		Password:  "password-" + username,
		RealmID:   realm,
		FirstName: "First",
		LastName:  "Last",
		Roles:     roles,
	})
	must(t, err)
	return actorOf(u)
}

// seedEvent creates the 2018 schema and the 2018flor event of realm alpha
// with two qualification matches sharing frc1421.
func (f *fixture) seedEvent(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.CreateSchema(ctx, f.super, model.Schema{
		Year: 2018,
		Auto: []model.StatDescription{
			{Name: "Crossed Line", Type: model.StatBoolean},
			{Name: "Cubes", Type: model.StatNumber},
		},
		Teleop: []model.StatDescription{
			{Name: "Climbed", Type: model.StatBoolean},
			{Name: "Cubes", Type: model.StatNumber},
		},
	})
	must(t, err)

	_, err = f.svc.CreateEvent(ctx, f.adminA, model.Event{
		Key:       "2018flor",
		Name:      "Orlando Regional",
		StartDate: time.Date(2018, 3, 8, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2018, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	must(t, err)

	for _, m := range []model.Match{
		{Key: "qm1", RedAlliance: []string{"frc1421", "frc2", "frc3"}, BlueAlliance: []string{"frc4", "frc5", "frc6"}},
		{Key: "qm2", RedAlliance: []string{"frc7", "frc8", "frc9"}, BlueAlliance: []string{"frc1421", "frc10", "frc11"}},
	} {
		_, err := f.svc.CreateMatch(ctx, f.adminA, "2018flor", m)
		must(t, err)
	}
}

func cubes(attempts, successes float64) app.ReportInput {
	return app.ReportInput{
		AutoName: "left",
		Data: model.ReportData{
			Auto: []model.ReportStat{
				{Name: "Crossed Line", Attempted: b(true), Succeeded: b(true)},
				{Name: "Cubes", Attempts: n(attempts), Successes: n(successes)},
			},
			Teleop: []model.ReportStat{},
		},
	}
}

func target(match, team string) app.ReportTarget {
	return app.ReportTarget{EventKey: "2018flor", MatchKey: match, TeamKey: team}
}

func statByName(stats []aggregate.Stat, name string) aggregate.Stat {
	for _, s := range stats {
		if s.Name == name {
			return s
		}
	}
	return aggregate.Stat{}
}

func teamByKey(stats []aggregate.TeamStats, team string) aggregate.TeamStats {
	for _, s := range stats {
		if s.Team == team {
			return s
		}
	}
	return aggregate.TeamStats{}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
