package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/glebarez/sqlite"
	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Tomlord1122/goal-tracker/internal/config"
)

// Service exposes the GORM connection and its health.
type Service interface {
	Health() map[string]string
	Close() error
	GetDB() *gorm.DB
	// Backend is the dialect name: "postgres", "mysql" or "sqlite".
	Backend() string
}

type service struct {
	db   *gorm.DB
	name string
}

// New opens the database configured in cfg, verifies it answers a ping and
// migrates the given models. Unlike a fatal exit, an error here lets the
// caller fall back to another store.
func New(ctx context.Context, cfg config.Database, models ...any) (Service, error) {
	dialector, name, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Warn
	if cfg.LogQueries {
		logLevel = logger.Info
	}
	gormLogger := logger.New(
		slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if db.Dialector.Name() == "sqlite" {
		// One writer at a time; avoids SQLITE_BUSY under concurrent requests.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if len(models) > 0 {
		if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
		}
	}

	slog.Info("database connected", "driver", cfg.Driver, "database", name)
	return &service{db: db, name: name}, nil
}

// Wrap adopts an already opened connection, e.g. one created by tests.
func Wrap(db *gorm.DB, name string) Service {
	return &service{db: db, name: name}
}

func dialectorFor(cfg config.Database) (gorm.Dialector, string, error) {
	timeout := int(cfg.ConnectTimeout.Seconds())
	if timeout < 1 {
		timeout = 1
	}

	switch cfg.Driver {
	case config.DriverPostgres:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable connect_timeout=%d TimeZone=UTC",
			cfg.Host, cfg.Username, cfg.Password, cfg.Name, cfg.Port, timeout)
		if cfg.Schema != "" {
			dsn += " search_path=" + cfg.Schema
		}
		// The "pgx" database/sql driver is registered by the pgx stdlib import.
		return postgres.New(postgres.Config{DSN: dsn, DriverName: "pgx"}), cfg.Name, nil

	case config.DriverMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&timeout=%ds",
			cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Name, timeout)
		return mysql.Open(dsn), cfg.Name, nil

	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, "", fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		dsn := cfg.SQLitePath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		return sqlite.Open(dsn), cfg.SQLitePath, nil
	}

	return nil, "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func (s *service) GetDB() *gorm.DB {
	return s.db
}

func (s *service) Backend() string {
	return s.db.Dialector.Name()
}

// Health check needs to use the underlying sql.DB from GORM
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := map[string]string{"backend": s.Backend()}
	sqlDB, err := s.db.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("failed to get underlying DB for health check: %v", err)
		slog.Error("error getting DB for health check", "error", err)
		return stats
	}

	err = sqlDB.PingContext(ctx)
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		slog.Error("db down", "error", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := sqlDB.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()
	stats["max_idle_closed"] = strconv.FormatInt(dbStats.MaxIdleClosed, 10)
	stats["max_lifetime_closed"] = strconv.FormatInt(dbStats.MaxLifetimeClosed, 10)

	if dbStats.OpenConnections > 80 {
		stats["message"] = "The database is experiencing heavy load."
	}
	if dbStats.WaitCount > 1000 {
		stats["message"] = "The database has a high number of wait events, indicating potential bottlenecks."
	}

	return stats
}

func (s *service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		slog.Error("error getting underlying sql.DB for closing", "error", err)
		return err
	}
	slog.Info("closing connection pool", "database", s.name)
	return sqlDB.Close()
}
