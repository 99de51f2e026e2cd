package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/fieldscout/internal/domain/access"
	"github.com/okian/fieldscout/internal/domain/aggregate"
	"github.com/okian/fieldscout/internal/domain/model"
	"github.com/okian/fieldscout/pkg/logger"
)

// CreateSchema is reserved to super-admins. Schemas are immutable.
func (s *Service) CreateSchema(ctx context.Context, a access.Actor, schema model.Schema) (model.Schema, error) {
	const op = "service.create_schema"
	if err := s.guard.Authorize(a, access.OpWrite, access.Resource{}); err != nil {
		return model.Schema{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := schema.Validate(); err != nil {
		return model.Schema{}, fmt.Errorf("%s: %w", op, err)
	}
	schema.ID = 0
	if err := s.store.CreateSchema(ctx, &schema); err != nil {
		return model.Schema{}, fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Info(ctx, "schema created", logger.Int("year", schema.Year), logger.Int("schema_id", int(schema.ID)))
	return schema, nil
}

func (s *Service) ListSchemas(ctx context.Context) ([]model.Schema, error) {
	schemas, err := s.store.ListSchemas(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.list_schemas: %w", err)
	}
	return schemas, nil
}

func (s *Service) GetSchema(ctx context.Context, id int64) (model.Schema, error) {
	schema, err := s.store.GetSchema(ctx, id)
	if err != nil {
		return model.Schema{}, fmt.Errorf("service.get_schema: %w", err)
	}
	return schema, nil
}

func (s *Service) GetSchemaByYear(ctx context.Context, year int) (model.Schema, error) {
	schema, err := s.store.GetSchemaByYear(ctx, year)
	if err != nil {
		return model.Schema{}, fmt.Errorf("service.get_schema_by_year: %w", err)
	}
	return schema, nil
}

// schemaFor resolves the schema of an event: its own schema, else the schema
// of its season, else the most recent one. Returns nil when none exist.
func (s *Service) schemaFor(ctx context.Context, event model.Event) (*model.Schema, error) {
	if event.SchemaID != nil {
		schema, err := s.store.GetSchema(ctx, *event.SchemaID)
		if err == nil {
			return &schema, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	if !event.StartDate.IsZero() {
		schema, err := s.store.GetSchemaByYear(ctx, event.StartDate.Year())
		if err == nil {
			return &schema, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	schemas, err := s.store.ListSchemas(ctx)
	if err != nil {
		return nil, err
	}
	var latest *model.Schema
	for i := range schemas {
		if latest == nil || schemas[i].Year > latest.Year {
			latest = &schemas[i]
		}
	}
	return latest, nil
}

func (s *Service) ListEvents(ctx context.Context) ([]model.Event, error) {
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.list_events: %w", err)
	}
	return events, nil
}

func (s *Service) GetEvent(ctx context.Context, key string) (model.Event, error) {
	event, err := s.store.GetEvent(ctx, key)
	if err != nil {
		return model.Event{}, fmt.Errorf("service.get_event: %w", err)
	}
	return event, nil
}

// prepareEvent assigns the owning realm and checks the payload. The event
// belongs to the caller's realm unless a super-admin names another one.
func (s *Service) prepareEvent(ctx context.Context, a access.Actor, event *model.Event) error {
	if err := requireAuth(a); err != nil {
		return err
	}
	if event.RealmID == 0 || !a.SuperAdmin() {
		event.RealmID = a.RealmID
	}
	if err := s.guard.Authorize(a, access.OpWrite, access.Resource{RealmID: event.RealmID}); err != nil {
		return err
	}
	if err := model.Validate(*event); err != nil {
		return err
	}
	if event.Webcasts == nil {
		event.Webcasts = []model.Webcast{}
	}
	if event.SchemaID != nil {
		if _, err := s.store.GetSchema(ctx, *event.SchemaID); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

// CreateEvent stores a new event owned by the caller's realm.
func (s *Service) CreateEvent(ctx context.Context, a access.Actor, event model.Event) (model.Event, error) {
	const op = "service.create_event"
	if err := s.prepareEvent(ctx, a, &event); err != nil {
		return model.Event{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		return model.Event{}, fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Info(ctx, "event created", logger.String("event", event.Key), logger.Int("realm_id", int(event.RealmID)))
	return event, nil
}

// PutEvent creates or replaces the event at key and reports whether it was
// created. Replacing requires write access to the current owner realm.
func (s *Service) PutEvent(ctx context.Context, a access.Actor, key string, event model.Event) (bool, error) {
	const op = "service.put_event"
	event.Key = key
	existing, err := s.store.GetEvent(ctx, key)
	switch {
	case err == nil:
		if err := s.guard.Authorize(a, access.OpWrite, access.Resource{RealmID: existing.RealmID}); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		if event.RealmID == 0 {
			event.RealmID = existing.RealmID
		}
	case !errors.Is(err, ErrNotFound):
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.prepareEvent(ctx, a, &event); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	created, err := s.store.UpsertEvent(ctx, event)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// DeleteEvent removes an event with its matches and reports.
func (s *Service) DeleteEvent(ctx context.Context, a access.Actor, key string) error {
	const op = "service.delete_event"
	event, err := s.writableEvent(ctx, a, key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.DeleteEvent(ctx, event.Key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Info(ctx, "event deleted", logger.String("event", key), logger.Int("by", int(a.ID)))
	return nil
}

// writableEvent loads an event the caller may administer.
func (s *Service) writableEvent(ctx context.Context, a access.Actor, key string) (model.Event, error) {
	if err := requireAuth(a); err != nil {
		return model.Event{}, err
	}
	event, err := s.store.GetEvent(ctx, key)
	if err != nil {
		return model.Event{}, err
	}
	if err := s.guard.Authorize(a, access.OpWrite, access.Resource{RealmID: event.RealmID}); err != nil {
		return model.Event{}, err
	}
	return event, nil
}

func (s *Service) ListMatches(ctx context.Context, eventKey string) ([]model.Match, error) {
	const op = "service.list_matches"
	if _, err := s.store.GetEvent(ctx, eventKey); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	matches, err := s.store.ListMatches(ctx, eventKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return matches, nil
}

func (s *Service) GetMatch(ctx context.Context, eventKey, matchKey string) (model.Match, error) {
	match, err := s.store.GetMatch(ctx, eventKey, matchKey)
	if err != nil {
		return model.Match{}, fmt.Errorf("service.get_match: %w", err)
	}
	return match, nil
}

// CreateMatch adds a match to an event the caller administers.
func (s *Service) CreateMatch(ctx context.Context, a access.Actor, eventKey string, match model.Match) (model.Match, error) {
	const op = "service.create_match"
	if _, err := s.writableEvent(ctx, a, eventKey); err != nil {
		return model.Match{}, fmt.Errorf("%s: %w", op, err)
	}
	match.EventKey = eventKey
	if err := match.Validate(); err != nil {
		return model.Match{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.CreateMatch(ctx, match); err != nil {
		return model.Match{}, fmt.Errorf("%s: %w", op, err)
	}
	return match, nil
}

func (s *Service) DeleteMatch(ctx context.Context, a access.Actor, eventKey, matchKey string) error {
	const op = "service.delete_match"
	if _, err := s.writableEvent(ctx, a, eventKey); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.DeleteMatch(ctx, eventKey, matchKey); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// EventTeams lists the teams that play in the event's matches.
func (s *Service) EventTeams(ctx context.Context, eventKey string) ([]string, error) {
	matches, err := s.ListMatches(ctx, eventKey)
	if err != nil {
		return nil, err
	}
	return aggregate.Teams(matches), nil
}
