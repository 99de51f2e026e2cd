// Package service implements the scouting operations behind the HTTP API:
// accounts, events, reports and per-event statistics. Every operation runs
// through the access guard before touching the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/fieldscout/internal/adapters/auth"
	"github.com/okian/fieldscout/internal/adapters/repository"
	"github.com/okian/fieldscout/internal/domain/access"
	"github.com/okian/fieldscout/internal/domain/model"
	"github.com/okian/fieldscout/pkg/logger"
	"github.com/okian/fieldscout/pkg/metrics"
)

// Store drivers.
const (
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
)

// TokenIssuer issues and verifies bearer tokens.
type TokenIssuer interface {
	Issue(user model.User) (string, error)
	Verify(bearer string) (access.Actor, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Check(hash, password string) error
}

// Service implements the API dependencies for the scouting system.
type Service struct {
	mu sync.RWMutex

	store     repository.Store
	guard     *access.Guard
	tokens    TokenIssuer
	passwords PasswordHasher

	// Store configuration, used when no store is injected.
	driver      string
	boltPath    string
	databaseURL string

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore injects an opened store; Start will not open another.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithStoreDriver selects the store opened by Start: "bolt" or "postgres".
func WithStoreDriver(driver string) Option {
	return func(s *Service) {
		if driver != "" {
			s.driver = driver
		}
	}
}

// WithBoltPath sets the bbolt database file.
func WithBoltPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.boltPath = path
		}
	}
}

// WithDatabaseURL sets the PostgreSQL connection string.
func WithDatabaseURL(dsn string) Option {
	return func(s *Service) {
		s.databaseURL = dsn
	}
}

// WithTokens sets the token issuer.
func WithTokens(t TokenIssuer) Option {
	return func(s *Service) {
		if t != nil {
			s.tokens = t
		}
	}
}

// WithPasswords sets the password hasher.
func WithPasswords(p PasswordHasher) Option {
	return func(s *Service) {
		if p != nil {
			s.passwords = p
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		guard:     access.NewGuard(),
		passwords: auth.NewPasswords(0),
		driver:    DriverBolt,
		boltPath:  "fieldscout.db",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the configured store unless one was injected.
func (s *Service) Start(ctx context.Context) error {
	const op = "service.start"
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.tokens == nil {
		return fmt.Errorf("%s: %w", op, errors.New("token issuer not configured"))
	}

	s.logger.Info(ctx, "starting scouting service...")
	if s.store == nil {
		store, err := OpenStore(ctx, s.driver, s.boltPath, s.databaseURL)
		if err != nil {
			metrics.RecordErrorByComponent("store", "open_failed")
			return fmt.Errorf("%s: %w", op, err)
		}
		s.store = store
		s.logger.Info(ctx, "store opened", logger.String("driver", s.driver))
	}

	s.started = true
	s.logger.Info(ctx, "scouting service started")
	return nil
}

// Stop closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.store.Close(); err != nil {
		metrics.RecordErrorByComponent("store", "close_failed")
		s.logger.Error(context.Background(), "closing store failed", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "scouting service stopped")
}

// Store exposes the underlying store to administrative tools.
func (s *Service) Store() repository.Store {
	return s.store
}

// Verify resolves a bearer token into an actor.
func (s *Service) Verify(bearer string) (access.Actor, error) {
	actor, err := s.tokens.Verify(bearer)
	if err != nil {
		return access.Actor{}, fmt.Errorf("%w: %s", ErrUnauthorized, err.Error())
	}
	return actor, nil
}

// OpenStore opens the store named by driver.
func OpenStore(ctx context.Context, driver, boltPath, databaseURL string) (repository.Store, error) {
	const openTimeout = 5 * time.Second
	switch driver {
	case DriverBolt:
		return repository.NewBoltStore(ctx, boltPath, repository.WithOpenTimeout(openTimeout))
	case DriverPostgres:
		return repository.NewPostgresStore(ctx, databaseURL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
