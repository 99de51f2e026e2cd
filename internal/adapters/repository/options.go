package repository

import (
	"time"

	"gorm.io/gorm/logger"
)

// Option applies a configuration option to a store.
type Option func(*options)

type options struct {
	openTimeout time.Duration
	sqlLogLevel logger.LogLevel
	maxOpenConn int
}

func defaultOptions() options {
	return options{
		openTimeout: time.Second,
		sqlLogLevel: logger.Silent,
		maxOpenConn: 10,
	}
}

// WithOpenTimeout bounds how long opening a bbolt file waits for its lock.
func WithOpenTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.openTimeout = d
		}
	}
}

// WithSQLLogLevel sets the gorm log level of the PostgreSQL store.
func WithSQLLogLevel(level logger.LogLevel) Option {
	return func(o *options) {
		o.sqlLogLevel = level
	}
}

// WithMaxOpenConns caps the PostgreSQL connection pool.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConn = n
		}
	}
}
