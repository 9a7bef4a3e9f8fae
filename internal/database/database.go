package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gdg-garage/community-events/internal/config"
	"github.com/gdg-garage/community-events/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const MemoryPath = ":memory:"

// Connect opens the configured database and migrates the schema, exiting on failure.
func Connect(cfg *config.Config, log *zap.Logger) *gorm.DB {
	db, err := Open(cfg, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.String("driver", cfg.DatabaseDriver), zap.Error(err))
	}
	return db
}

// Open opens the configured database and migrates the schema. Statement
// logs go to log, which may be nil.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         newZapLogger(log),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DatabaseDriver {
	case "postgres":
		db, err = openPostgres(cfg.DatabaseURL, gormCfg)
	case "sqlite", "":
		db, err = openSQLite(cfg.DatabasePath, gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return db, nil
}

// TxOptions returns the options the registration unit of work runs with.
// Postgres relies on READ COMMITTED plus a row lock on the event so every
// statement after the lock sees the latest committed registrations.
// SQLite ignores isolation levels; writers are serialised by BEGIN IMMEDIATE.
func TxOptions(cfg *config.Config) *sql.TxOptions {
	if cfg.DatabaseDriver == "postgres" {
		return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	}
	return nil
}

func openSQLite(path string, gormCfg *gorm.Config) (*gorm.DB, error) {
	if path == "" {
		path = MemoryPath
	}

	dsn := path
	if path != MemoryPath && !strings.Contains(path, "?") {
		dsn = path + "?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on"
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Every connection to :memory: gets its own empty database.
	if path == MemoryPath {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func openPostgres(url string, gormCfg *gorm.Config) (*gorm.DB, error) {
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
	}

	connCfg, err := pgx.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	if connCfg.RuntimeParams == nil {
		connCfg.RuntimeParams = map[string]string{}
	}
	connCfg.RuntimeParams["application_name"] = "community-events"

	sqlDB := stdlib.OpenDB(*connCfg)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}
