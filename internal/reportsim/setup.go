package reportsim

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	app "github.com/okian/fieldscout/internal/app"
	"github.com/okian/fieldscout/internal/domain/model"
	"github.com/okian/fieldscout/pkg/logger"
)

const (
	scoutPassword = "simulated-scout"
	teamPoolSize  = 9999
	allianceSize  = 3
)

// simSchema is created when the season has no schema yet.
func simSchema(year int) model.Schema {
	return model.Schema{
		Year: year,
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

// fixture is everything a run creates before submitting reports.
type fixture struct {
	runID  string
	schema model.Schema
	realms []simRealm
}

// ensureSchema creates the season schema, or reuses the existing one.
func ensureSchema(ctx context.Context, c *client, token string, year int) (model.Schema, error) {
	var schema model.Schema
	status, err := c.expect(ctx, http.MethodPost, "/schemas", token, simSchema(year), &schema, http.StatusCreated, http.StatusConflict)
	if err != nil {
		return model.Schema{}, err
	}
	if status == http.StatusCreated {
		return schema, nil
	}
	_, err = c.expect(ctx, http.MethodGet, "/schemas/year/"+strconv.Itoa(year), "", nil, &schema, http.StatusOK)
	return schema, err
}

// randomMatch draws six distinct teams.
func randomMatch(key string, rng *rand.Rand) model.Match {
	seen := make(map[int]bool, 2*allianceSize)
	teams := make([]string, 0, 2*allianceSize)
	for len(teams) < 2*allianceSize {
		n := rng.IntN(teamPoolSize) + 1
		if seen[n] {
			continue
		}
		seen[n] = true
		teams = append(teams, "frc"+strconv.Itoa(n))
	}
	return model.Match{
		Key:          key,
		RedAlliance:  teams[:allianceSize],
		BlueAlliance: teams[allianceSize:],
	}
}

// setupFixture creates the schema, realms, scouts, events and matches.
func setupFixture(ctx context.Context, c *client, cfg *Config, rng *rand.Rand) (*fixture, error) {
	log := logger.Get()
	superToken, err := c.login(ctx, cfg.Username, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("login as %s: %w", cfg.Username, err)
	}

	f := &fixture{runID: uuid.NewString()[:8]}
	if f.schema, err = ensureSchema(ctx, c, superToken, cfg.Year); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	log.Info(ctx, "using schema", logger.Int("year", f.schema.Year), logger.Int64("schema_id", f.schema.ID))

	for i := 0; i < cfg.Realms; i++ {
		var sr simRealm
		realm := model.Realm{Name: fmt.Sprintf("sim %s %d", f.runID, i)}
		if _, err := c.expect(ctx, http.MethodPost, "/realms", superToken, realm, &sr.Realm, http.StatusCreated); err != nil {
			return nil, fmt.Errorf("realm %d: %w", i, err)
		}

		for j := 0; j < cfg.ScoutsPerRealm; j++ {
			nu := app.NewUser{
				Username:  fmt.Sprintf("sim%sr%ds%d", f.runID, i, j),
				Password:  scoutPassword,
				RealmID:   sr.Realm.ID,
				FirstName: "Sim",
				LastName:  "Scout",
				Roles:     model.Roles{IsVerified: true},
			}
			var s scout
			if _, err := c.expect(ctx, http.MethodPost, "/users", superToken, nu, &s.User, http.StatusCreated); err != nil {
				return nil, fmt.Errorf("scout %s: %w", nu.Username, err)
			}
			if s.Token, err = c.login(ctx, nu.Username, scoutPassword); err != nil {
				return nil, err
			}
			sr.Scouts = append(sr.Scouts, s)
		}

		schemaID := f.schema.ID
		sr.Event = model.Event{
			Key:       fmt.Sprintf("%dsim%s%d", cfg.Year, f.runID, i),
			Name:      fmt.Sprintf("Simulated Regional %d", i),
			StartDate: time.Date(cfg.Year, time.March, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(cfg.Year, time.March, 3, 0, 0, 0, 0, time.UTC),
			SchemaID:  &schemaID,
			RealmID:   sr.Realm.ID,
		}
		if _, err := c.expect(ctx, http.MethodPut, "/events/"+sr.Event.Key, superToken, sr.Event, nil, http.StatusCreated); err != nil {
			return nil, fmt.Errorf("event %s: %w", sr.Event.Key, err)
		}

		for m := 1; m <= cfg.Matches; m++ {
			match := randomMatch("qm"+strconv.Itoa(m), rng)
			if _, err := c.expect(ctx, http.MethodPost, "/events/"+sr.Event.Key+"/matches", superToken, match, nil, http.StatusCreated); err != nil {
				return nil, fmt.Errorf("match %s: %w", match.Key, err)
			}
			match.EventKey = sr.Event.Key
			sr.Matches = append(sr.Matches, match)
		}

		log.Info(ctx, "realm ready",
			logger.Int64("realm_id", sr.Realm.ID),
			logger.String("event", sr.Event.Key),
			logger.Int("scouts", len(sr.Scouts)),
			logger.Int("matches", len(sr.Matches)),
		)
		f.realms = append(f.realms, sr)
	}
	return f, nil
}

// cleanupFixture deletes the events and realms of f. Deleting a realm
// deletes its scouts.
func cleanupFixture(ctx context.Context, c *client, cfg *Config, f *fixture) error {
	superToken, err := c.login(ctx, cfg.Username, cfg.Password)
	if err != nil {
		return err
	}
	for _, sr := range f.realms {
		if _, err := c.expect(ctx, http.MethodDelete, "/events/"+sr.Event.Key, superToken, nil, nil, http.StatusNoContent); err != nil {
			return err
		}
		if _, err := c.expect(ctx, http.MethodDelete, "/realms/"+strconv.FormatInt(sr.Realm.ID, 10), superToken, nil, nil, http.StatusNoContent); err != nil {
			return err
		}
	}
	return nil
}
