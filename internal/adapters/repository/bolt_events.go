package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/okian/fieldscout/internal/domain/model"
	"go.etcd.io/bbolt"
)

func yearKey(year int) []byte { return []byte(strconv.Itoa(year)) }

// CreateSchema stores schema and assigns its ID. Returns ErrConflict when a
// schema for the year exists.
func (s *BoltStore) CreateSchema(ctx context.Context, schema *model.Schema) error {
	const op = "repository.create_schema"
	err := s.update(ctx, func(tx *bbolt.Tx) error {
		years := tx.Bucket(bucketYears)
		if years.Get(yearKey(schema.Year)) != nil {
			return ErrConflict
		}
		b := tx.Bucket(bucketSchemas)
		id, err := nextID(b)
		if err != nil {
			return err
		}
		schema.ID = id
		if err := years.Put(yearKey(schema.Year), idKey(id)); err != nil {
			return err
		}
		return putJSON(b, idKey(id), schema)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *BoltStore) GetSchema(ctx context.Context, id int64) (model.Schema, error) {
	const op = "repository.get_schema"
	var schema model.Schema
	err := s.view(ctx, func(tx *bbolt.Tx) error {
		var err error
		schema, err = getJSON[model.Schema](tx.Bucket(bucketSchemas), idKey(id))
		return err
	})
	if err != nil {
		return model.Schema{}, fmt.Errorf("%s: %w", op, err)
	}
	return schema, nil
}

func (s *BoltStore) GetSchemaByYear(ctx context.Context, year int) (model.Schema, error) {
	const op = "repository.get_schema_by_year"
	var schema model.Schema
	err := s.view(ctx, func(tx *bbolt.Tx) error {
		id := tx.Bucket(bucketYears).Get(yearKey(year))
		if id == nil {
			return ErrNotFound
		}
		var err error
		schema, err = getJSON[model.Schema](tx.Bucket(bucketSchemas), id)
		return err
	})
	if err != nil {
		return model.Schema{}, fmt.Errorf("%s: %w", op, err)
	}
	return schema, nil
}

func (s *BoltStore) ListSchemas(ctx context.Context) ([]model.Schema, error) {
	const op = "repository.list_schemas"
	var schemas []model.Schema
	err := s.view(ctx, func(tx *bbolt.Tx) error {
		var err error
		schemas, err = listJSON[model.Schema](tx.Bucket(bucketSchemas), nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return schemas, nil
}

func (s *BoltStore) CreateEvent(ctx context.Context, event model.Event) error {
	const op = "repository.create_event"
	err := s.update(ctx, func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEvents)
		if b.Get([]byte(event.Key)) != nil {
			return ErrConflict
		}
		return putJSON(b, []byte(event.Key), event)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *BoltStore) UpsertEvent(ctx context.Context, event model.Event) (bool, error) {
	const op = "repository.upsert_event"
	var created bool
	err := s.update(ctx, func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEvents)
		created = b.Get([]byte(event.Key)) == nil
		return putJSON(b, []byte(event.Key), event)
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

func (s *BoltStore) GetEvent(ctx context.Context, key string) (model.Event, error) {
	const op = "repository.get_event"
	var event model.Event
	err := s.view(ctx, func(tx *bbolt.Tx) error {
		var err error
		event, err = getJSON[model.Event](tx.Bucket(bucketEvents), []byte(key))
		return err
	})
	if err != nil {
		return model.Event{}, fmt.Errorf("%s: %w", op, err)
	}
	return event, nil
}

func (s *BoltStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	const op = "repository.list_events"
	var events []model.Event
	err := s.view(ctx, func(tx *bbolt.Tx) error {
		var err error
		events, err = listJSON[model.Event](tx.Bucket(bucketEvents), nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

// DeleteEvent removes the event with its matches and reports.
func (s *BoltStore) DeleteEvent(ctx context.Context, key string) error {
	const op = "repository.delete_event"
	err := s.update(ctx, func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEvents)
		if b.Get([]byte(key)) == nil {
			return ErrNotFound
		}
		prefix := compositeKey(key)
		if err := deletePrefix(tx.Bucket(bucketMatches), prefix); err != nil {
			return err
		}
		if err := deletePrefix(tx.Bucket(bucketReports), prefix); err != nil {
			return err
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// matchRecord carries the event key, which model.Match hides from JSON.
type matchRecord struct {
	model.Match
	EventKey string `json:"eventKey"`
}

func (s *BoltStore) CreateMatch(ctx context.Context, match model.Match) error {
	const op = "repository.create_match"
	err := s.update(ctx, func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketEvents).Get([]byte(match.EventKey)) == nil {
			return ErrNotFound
		}
		b := tx.Bucket(bucketMatches)
		k := compositeKey(match.EventKey, match.Key)
		if b.Get(k) != nil {
			return ErrConflict
		}
		return putJSON(b, k, matchRecord{Match: match, EventKey: match.EventKey})
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *BoltStore) GetMatch(ctx context.Context, eventKey, matchKey string) (model.Match, error) {
	const op = "repository.get_match"
	var rec matchRecord
	err := s.view(ctx, func(tx *bbolt.Tx) error {
		var err error
		rec, err = getJSON[matchRecord](tx.Bucket(bucketMatches), compositeKey(eventKey, matchKey))
		return err
	})
	if err != nil {
		return model.Match{}, fmt.Errorf("%s: %w", op, err)
	}
	m := rec.Match
	m.EventKey = rec.EventKey
	return m, nil
}

func (s *BoltStore) ListMatches(ctx context.Context, eventKey string) ([]model.Match, error) {
	const op = "repository.list_matches"
	var recs []matchRecord
	err := s.view(ctx, func(tx *bbolt.Tx) error {
		var err error
		recs, err = listJSON[matchRecord](tx.Bucket(bucketMatches), compositeKey(eventKey))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	matches := make([]model.Match, len(recs))
	for i, rec := range recs {
		matches[i] = rec.Match
		matches[i].EventKey = rec.EventKey
	}
	return matches, nil
}

// DeleteMatch removes the match and its reports.
func (s *BoltStore) DeleteMatch(ctx context.Context, eventKey, matchKey string) error {
	const op = "repository.delete_match"
	err := s.update(ctx, func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMatches)
		k := compositeKey(eventKey, matchKey)
		if b.Get(k) == nil {
			return ErrNotFound
		}
		if err := deletePrefix(tx.Bucket(bucketReports), k); err != nil {
			return err
		}
		return b.Delete(k)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
