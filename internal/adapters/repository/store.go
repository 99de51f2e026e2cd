// Package repository defines the persistence contracts for scouting data
// and their bbolt and PostgreSQL implementations.
package repository

import (
	"context"

	"github.com/okian/fieldscout/internal/domain/model"
)

// ReportFilter selects reports. Empty fields match everything.
type ReportFilter struct {
	EventKey   string
	MatchKey   string
	TeamKey    string
	ReporterID int64
}

func (f ReportFilter) match(r model.Report) bool {
	return (f.EventKey == "" || f.EventKey == r.EventKey) &&
		(f.MatchKey == "" || f.MatchKey == r.MatchKey) &&
		(f.TeamKey == "" || f.TeamKey == r.TeamKey) &&
		(f.ReporterID == 0 || f.ReporterID == r.ReporterID)
}

// RealmStore persists realms. Deleting a realm deletes its users.
type RealmStore interface {
	CreateRealm(ctx context.Context, realm *model.Realm) error
	GetRealm(ctx context.Context, id int64) (model.Realm, error)
	ListRealms(ctx context.Context) ([]model.Realm, error)
	UpdateRealm(ctx context.Context, realm model.Realm) error
	DeleteRealm(ctx context.Context, id int64) error
}

// UserStore persists users. Usernames are unique.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id int64) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	// ListUsers returns the users of realmID, or every user when realmID is 0.
	ListUsers(ctx context.Context, realmID int64) ([]model.User, error)
	UpdateUser(ctx context.Context, user model.User) error
	DeleteUser(ctx context.Context, id int64) error
}

// SchemaStore persists season schemas. Years are unique.
type SchemaStore interface {
	CreateSchema(ctx context.Context, schema *model.Schema) error
	GetSchema(ctx context.Context, id int64) (model.Schema, error)
	GetSchemaByYear(ctx context.Context, year int) (model.Schema, error)
	ListSchemas(ctx context.Context) ([]model.Schema, error)
}

// EventStore persists events and their matches. Deleting an event or a
// match deletes everything below it.
type EventStore interface {
	CreateEvent(ctx context.Context, event model.Event) error
	// UpsertEvent stores event and reports whether it was new.
	UpsertEvent(ctx context.Context, event model.Event) (bool, error)
	GetEvent(ctx context.Context, key string) (model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	DeleteEvent(ctx context.Context, key string) error

	CreateMatch(ctx context.Context, match model.Match) error
	GetMatch(ctx context.Context, eventKey, matchKey string) (model.Match, error)
	ListMatches(ctx context.Context, eventKey string) ([]model.Match, error)
	DeleteMatch(ctx context.Context, eventKey, matchKey string) error
}

// ReportStore persists reports, one per (event, match, team, reporter).
type ReportStore interface {
	// UpsertReport atomically inserts or replaces the report with the same
	// key and reports whether the key was new.
	UpsertReport(ctx context.Context, report model.Report) (bool, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]model.Report, error)
	DeleteReport(ctx context.Context, key model.ReportKey) error
	// Leaderboard counts reports filed in realmID per reporter, most first.
	Leaderboard(ctx context.Context, realmID int64) ([]model.LeaderboardEntry, error)
}

// Store is the full persistence surface used by the service.
type Store interface {
	RealmStore
	UserStore
	SchemaStore
	EventStore
	ReportStore

	Close() error
}
