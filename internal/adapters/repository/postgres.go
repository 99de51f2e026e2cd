package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/fieldscout/internal/domain/model"
	"github.com/okian/fieldscout/pkg/metrics"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type realmRow struct {
	ID           int64  `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	ShareReports bool   `gorm:"not null;default:false"`
}

func (realmRow) TableName() string { return "realms" }

type userRow struct {
	ID           int64       `gorm:"primaryKey"`
	Username     string      `gorm:"uniqueIndex;not null"`
	PasswordHash string      `gorm:"not null"`
	RealmID      int64       `gorm:"index;not null"`
	FirstName    string      `gorm:"not null"`
	LastName     string      `gorm:"not null"`
	Stars        []string    `gorm:"serializer:json"`
	Roles        model.Roles `gorm:"serializer:json"`
	Realm        realmRow    `gorm:"foreignKey:RealmID;constraint:OnDelete:CASCADE"`
}

func (userRow) TableName() string { return "users" }

type schemaRow struct {
	ID     int64                   `gorm:"primaryKey"`
	Year   int                     `gorm:"uniqueIndex;not null"`
	Auto   []model.StatDescription `gorm:"serializer:json"`
	Teleop []model.StatDescription `gorm:"serializer:json"`
}

func (schemaRow) TableName() string { return "schemas" }

type eventRow struct {
	Key   string      `gorm:"primaryKey"`
	Event model.Event `gorm:"serializer:json"`
}

func (eventRow) TableName() string { return "events" }

type matchRow struct {
	EventKey string      `gorm:"primaryKey"`
	Key      string      `gorm:"primaryKey"`
	Match    model.Match `gorm:"serializer:json"`
	Event    eventRow    `gorm:"foreignKey:EventKey;references:Key;constraint:OnDelete:CASCADE"`
}

func (matchRow) TableName() string { return "matches" }

type reportRow struct {
	EventKey   string           `gorm:"primaryKey"`
	MatchKey   string           `gorm:"primaryKey"`
	TeamKey    string           `gorm:"primaryKey;index"`
	ReporterID int64            `gorm:"primaryKey;index"`
	RealmID    int64            `gorm:"index;not null"`
	AutoName   string           `gorm:"not null;default:''"`
	Data       model.ReportData `gorm:"serializer:json"`
	Match      matchRow         `gorm:"foreignKey:EventKey,MatchKey;references:EventKey,Key;constraint:OnDelete:CASCADE"`
}

func (reportRow) TableName() string { return "reports" }

func toUserRow(u model.User) userRow {
	return userRow{
		ID: u.ID, Username: u.Username, PasswordHash: u.PasswordHash, RealmID: u.RealmID,
		FirstName: u.FirstName, LastName: u.LastName, Stars: u.Stars, Roles: u.Roles,
	}
}

func (r userRow) user() model.User {
	return model.User{
		ID: r.ID, Username: r.Username, PasswordHash: r.PasswordHash, RealmID: r.RealmID,
		FirstName: r.FirstName, LastName: r.LastName, Stars: r.Stars, Roles: r.Roles,
	}
}

func (r schemaRow) schema() model.Schema {
	return model.Schema{ID: r.ID, Year: r.Year, Auto: r.Auto, Teleop: r.Teleop}
}

func (r matchRow) match() model.Match {
	m := r.Match
	m.EventKey = r.EventKey
	return m
}

func (r reportRow) report() model.Report {
	return model.Report{
		EventKey: r.EventKey, MatchKey: r.MatchKey, TeamKey: r.TeamKey, ReporterID: r.ReporterID,
		RealmID: r.RealmID, AutoName: r.AutoName, Data: r.Data,
	}
}

// PostgresStore is a Store backed by PostgreSQL through gorm. Report upserts
// rely on the composite primary key and INSERT ... ON CONFLICT.
type PostgresStore struct {
	db *gorm.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to dsn and migrates the schema.
func NewPostgresStore(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	const op = "repository.new_postgres_store"
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(o.sqlLogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sqlDB.SetMaxOpenConns(o.maxOpenConn)
	if err := db.WithContext(ctx).AutoMigrate(&realmRow{}, &userRow{}, &schemaRow{}, &eventRow{}, &matchRow{}, &reportRow{}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &PostgresStore{db: db}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps gorm errors onto the package sentinels.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// affected turns a zero-row mutation into ErrNotFound.
func affected(op string, res *gorm.DB) error {
	if res.Error != nil {
		return translate(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) CreateRealm(ctx context.Context, realm *model.Realm) error {
	row := realmRow{Name: realm.Name, ShareReports: realm.ShareReports}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return translate("repository.create_realm", err)
	}
	realm.ID = row.ID
	return nil
}

func (s *PostgresStore) GetRealm(ctx context.Context, id int64) (model.Realm, error) {
	var row realmRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return model.Realm{}, translate("repository.get_realm", err)
	}
	return model.Realm(row), nil
}

func (s *PostgresStore) ListRealms(ctx context.Context) ([]model.Realm, error) {
	var rows []realmRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, translate("repository.list_realms", err)
	}
	out := make([]model.Realm, len(rows))
	for i, r := range rows {
		out[i] = model.Realm(r)
	}
	return out, nil
}

func (s *PostgresStore) UpdateRealm(ctx context.Context, realm model.Realm) error {
	res := s.db.WithContext(ctx).Model(&realmRow{ID: realm.ID}).
		Select("name", "share_reports").
		Updates(realmRow{Name: realm.Name, ShareReports: realm.ShareReports})
	return affected("repository.update_realm", res)
}

func (s *PostgresStore) DeleteRealm(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("realm_id = ?", id).Delete(&userRow{}).Error; err != nil {
			return translate("repository.delete_realm", err)
		}
		return affected("repository.delete_realm", tx.Delete(&realmRow{}, id))
	})
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *model.User) error {
	row := toUserRow(*user)
	row.ID = 0
	if err := s.db.WithContext(ctx).Omit("Realm").Create(&row).Error; err != nil {
		return translate("repository.create_user", err)
	}
	user.ID = row.ID
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id int64) (model.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return model.User{}, translate("repository.get_user", err)
	}
	return row.user(), nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&row).Error; err != nil {
		return model.User{}, translate("repository.get_user_by_username", err)
	}
	return row.user(), nil
}

func (s *PostgresStore) ListUsers(ctx context.Context, realmID int64) ([]model.User, error) {
	q := s.db.WithContext(ctx).Order("id")
	if realmID != 0 {
		q = q.Where("realm_id = ?", realmID)
	}
	var rows []userRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, translate("repository.list_users", err)
	}
	out := make([]model.User, len(rows))
	for i, r := range rows {
		out[i] = r.user()
	}
	return out, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, user model.User) error {
	row := toUserRow(user)
	res := s.db.WithContext(ctx).Model(&userRow{ID: user.ID}).
		Select("username", "password_hash", "realm_id", "first_name", "last_name", "stars", "roles").
		Updates(&row)
	return affected("repository.update_user", res)
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id int64) error {
	return affected("repository.delete_user", s.db.WithContext(ctx).Delete(&userRow{}, id))
}

func (s *PostgresStore) CreateSchema(ctx context.Context, schema *model.Schema) error {
	row := schemaRow{Year: schema.Year, Auto: schema.Auto, Teleop: schema.Teleop}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return translate("repository.create_schema", err)
	}
	schema.ID = row.ID
	return nil
}

func (s *PostgresStore) GetSchema(ctx context.Context, id int64) (model.Schema, error) {
	var row schemaRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return model.Schema{}, translate("repository.get_schema", err)
	}
	return row.schema(), nil
}

func (s *PostgresStore) GetSchemaByYear(ctx context.Context, year int) (model.Schema, error) {
	var row schemaRow
	if err := s.db.WithContext(ctx).Where("year = ?", year).First(&row).Error; err != nil {
		return model.Schema{}, translate("repository.get_schema_by_year", err)
	}
	return row.schema(), nil
}

func (s *PostgresStore) ListSchemas(ctx context.Context) ([]model.Schema, error) {
	var rows []schemaRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, translate("repository.list_schemas", err)
	}
	out := make([]model.Schema, len(rows))
	for i, r := range rows {
		out[i] = r.schema()
	}
	return out, nil
}

func (s *PostgresStore) CreateEvent(ctx context.Context, event model.Event) error {
	err := s.db.WithContext(ctx).Create(&eventRow{Key: event.Key, Event: event}).Error
	return translate("repository.create_event", err)
}

func (s *PostgresStore) UpsertEvent(ctx context.Context, event model.Event) (bool, error) {
	const op = "repository.upsert_event"
	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []eventRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("key = ?", event.Key).Limit(1).Find(&existing).Error; err != nil {
			return err
		}
		created = len(existing) == 0
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"event"}),
		}).Create(&eventRow{Key: event.Key, Event: event}).Error
	})
	if err != nil {
		return false, translate(op, err)
	}
	return created, nil
}

func (s *PostgresStore) GetEvent(ctx context.Context, key string) (model.Event, error) {
	var row eventRow
	if err := s.db.WithContext(ctx).Where("key = ?", key).First(&row).Error; err != nil {
		return model.Event{}, translate("repository.get_event", err)
	}
	return row.Event, nil
}

func (s *PostgresStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	var rows []eventRow
	if err := s.db.WithContext(ctx).Order("key").Find(&rows).Error; err != nil {
		return nil, translate("repository.list_events", err)
	}
	out := make([]model.Event, len(rows))
	for i, r := range rows {
		out[i] = r.Event
	}
	return out, nil
}

func (s *PostgresStore) DeleteEvent(ctx context.Context, key string) error {
	return affected("repository.delete_event", s.db.WithContext(ctx).Where("key = ?", key).Delete(&eventRow{}))
}

func (s *PostgresStore) CreateMatch(ctx context.Context, match model.Match) error {
	row := matchRow{EventKey: match.EventKey, Key: match.Key, Match: match}
	return translate("repository.create_match", s.db.WithContext(ctx).Omit("Event").Create(&row).Error)
}

func (s *PostgresStore) GetMatch(ctx context.Context, eventKey, matchKey string) (model.Match, error) {
	var row matchRow
	err := s.db.WithContext(ctx).Where("event_key = ? AND key = ?", eventKey, matchKey).First(&row).Error
	if err != nil {
		return model.Match{}, translate("repository.get_match", err)
	}
	return row.match(), nil
}

func (s *PostgresStore) ListMatches(ctx context.Context, eventKey string) ([]model.Match, error) {
	var rows []matchRow
	if err := s.db.WithContext(ctx).Where("event_key = ?", eventKey).Order("key").Find(&rows).Error; err != nil {
		return nil, translate("repository.list_matches", err)
	}
	out := make([]model.Match, len(rows))
	for i, r := range rows {
		out[i] = r.match()
	}
	return out, nil
}

func (s *PostgresStore) DeleteMatch(ctx context.Context, eventKey, matchKey string) error {
	res := s.db.WithContext(ctx).Where("event_key = ? AND key = ?", eventKey, matchKey).Delete(&matchRow{})
	return affected("repository.delete_match", res)
}

// upsertReportSQL reports whether the row was inserted: xmax is zero for a
// freshly inserted tuple and set for one rewritten by DO UPDATE.
const upsertReportSQL = `
INSERT INTO reports (event_key, match_key, team_key, reporter_id, realm_id, auto_name, data)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (event_key, match_key, team_key, reporter_id)
DO UPDATE SET realm_id = EXCLUDED.realm_id, auto_name = EXCLUDED.auto_name, data = EXCLUDED.data
RETURNING (xmax = 0) AS inserted`

func (s *PostgresStore) UpsertReport(ctx context.Context, report model.Report) (bool, error) {
	const op = "repository.upsert_report"
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	data, err := json.Marshal(report.Data)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	var inserted bool
	err = s.db.WithContext(ctx).Raw(upsertReportSQL,
		report.EventKey, report.MatchKey, report.TeamKey, report.ReporterID,
		report.RealmID, report.AutoName, string(data),
	).Scan(&inserted).Error
	if err != nil {
		return false, translate(op, err)
	}
	return inserted, nil
}

func (s *PostgresStore) ListReports(ctx context.Context, filter ReportFilter) ([]model.Report, error) {
	start := time.Now()
	q := s.db.WithContext(ctx).Order("event_key, match_key, team_key, reporter_id")
	if filter.EventKey != "" {
		q = q.Where("event_key = ?", filter.EventKey)
	}
	if filter.MatchKey != "" {
		q = q.Where("match_key = ?", filter.MatchKey)
	}
	if filter.TeamKey != "" {
		q = q.Where("team_key = ?", filter.TeamKey)
	}
	if filter.ReporterID != 0 {
		q = q.Where("reporter_id = ?", filter.ReporterID)
	}
	var rows []reportRow
	err := q.Find(&rows).Error
	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, translate("repository.list_reports", err)
	}
	out := make([]model.Report, len(rows))
	for i, r := range rows {
		out[i] = r.report()
	}
	return out, nil
}

func (s *PostgresStore) DeleteReport(ctx context.Context, key model.ReportKey) error {
	res := s.db.WithContext(ctx).
		Where("event_key = ? AND match_key = ? AND team_key = ? AND reporter_id = ?",
			key.EventKey, key.MatchKey, key.TeamKey, key.ReporterID).
		Delete(&reportRow{})
	return affected("repository.delete_report", res)
}

func (s *PostgresStore) Leaderboard(ctx context.Context, realmID int64) ([]model.LeaderboardEntry, error) {
	var rows []struct {
		ReporterID int64
		Reports    int
	}
	err := s.db.WithContext(ctx).Model(&reportRow{}).
		Select("reporter_id, count(*) AS reports").
		Where("realm_id = ?", realmID).
		Group("reporter_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translate("repository.leaderboard", err)
	}
	counts := make(map[int64]int, len(rows))
	for _, r := range rows {
		counts[r.ReporterID] = r.Reports
	}
	return rankLeaderboard(counts), nil
}
