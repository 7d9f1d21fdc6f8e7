package persistence

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/infrastructure/config"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"github.com/retailops/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

type dbOptions struct {
	log           *zap.Logger
	logLevel      gormlogger.LogLevel
	slowThreshold time.Duration
	logSQL        bool
}

// Option configures NewDatabase.
type Option func(*dbOptions)

// WithLogger routes GORM logs through log at the given level.
func WithLogger(log *zap.Logger, level gormlogger.LogLevel) Option {
	return func(o *dbOptions) {
		o.log = log
		o.logLevel = level
	}
}

// WithSlowThreshold sets the slow query warning threshold.
func WithSlowThreshold(d time.Duration) Option {
	return func(o *dbOptions) { o.slowThreshold = d }
}

// WithFullSQL controls whether statements are included in log entries.
func WithFullSQL(enabled bool) Option {
	return func(o *dbOptions) { o.logSQL = enabled }
}

// NewDatabase opens a connection for cfg.Driver and applies the pool settings.
func NewDatabase(cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	d, err := Open(dialector, opts...)
	if err != nil {
		return nil, err
	}

	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// one writer at a time; transactions queue on the pool instead of
		// failing with SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return d, nil
}

// Open wraps an already built dialector. Tests use it with sqlmock and
// in-memory sqlite connections.
func Open(dialector gorm.Dialector, opts ...Option) (*Database, error) {
	o := dbOptions{
		logLevel:      gormlogger.Silent,
		slowThreshold: 200 * time.Millisecond,
		logSQL:        true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	gormCfg := &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 gormlogger.Discard,
	}
	if o.log != nil {
		gormCfg.Logger = logger.NewSQLLogger(o.log, logger.SQLLogConfig{
			Level:         o.logLevel,
			SlowThreshold: o.slowThreshold,
			Statement:     o.logSQL,
		})
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Database{DB: db}, nil
}

// AutoMigrate creates or updates every table from the GORM models.
// Production schemas are managed by the migrate command instead.
func (d *Database) AutoMigrate() error {
	return d.DB.AutoMigrate(models.All()...)
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// Stats returns database connection pool statistics and an error if unable to retrieve
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}

// Transaction executes a function within a database transaction
func (d *Database) Transaction(fn func(tx *gorm.DB) error) error {
	return d.DB.Transaction(fn)
}

// forUpdate adds FOR UPDATE on dialects with row locks. sqlite locks the
// whole database for the writing transaction, so the clause is skipped.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// updateVersioned overwrites the row id with values when its stored version
// still equals version. values must carry version+1. omit names columns or
// associations left untouched.
func updateVersioned(db *gorm.DB, model any, id uuid.UUID, version int, values any, omit ...string) (int64, error) {
	result := db.Model(model).
		Where("id = ? AND version = ?", id, version).
		Select("*").
		Omit(append([]string{"id", "created_at"}, omit...)...).
		Updates(values)
	return result.RowsAffected, result.Error
}

// syncLines upserts lines by primary key and removes rows of parentID whose
// id is not in keep.
func syncLines[T any](db *gorm.DB, lines []T, fkColumn string, parentID uuid.UUID, keep []uuid.UUID) error {
	if len(lines) > 0 {
		if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&lines).Error; err != nil {
			return err
		}
	}
	q := db.Where(fkColumn+" = ?", parentID)
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	var zero T
	return q.Delete(&zero).Error
}

// orderedLines preloads an association sorted by line number.
func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("line_no")
}
