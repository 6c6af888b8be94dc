package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"

	"github.com/Tomlord1122/goal-tracker/internal/config"
)

type widget struct {
	ID   uint
	Name string
}

func sqliteConfig(t *testing.T) config.Database {
	return config.Database{
		Driver:         config.DriverSQLite,
		SQLitePath:     filepath.Join(t.TempDir(), "nested", "test.db"),
		ConnectTimeout: 5 * time.Second,
	}
}

func TestNewSQLite(t *testing.T) {
	srv, err := New(context.Background(), sqliteConfig(t), &widget{})
	require.NoError(t, err)
	defer srv.Close()

	assert.Equal(t, "sqlite", srv.Backend())
	assert.True(t, srv.GetDB().Migrator().HasTable(&widget{}))
}

func TestHealth(t *testing.T) {
	srv, err := New(context.Background(), sqliteConfig(t))
	require.NoError(t, err)

	stats := srv.Health()
	assert.Equal(t, "up", stats["status"])
	assert.Equal(t, "It's healthy", stats["message"])
	assert.Equal(t, "sqlite", stats["backend"])

	require.NoError(t, srv.Close())

	stats = srv.Health()
	assert.Equal(t, "down", stats["status"])
	assert.NotEmpty(t, stats["error"])
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.Database{Driver: "oracle", ConnectTimeout: time.Second})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestNewFailsWhenServerUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("dials a closed port")
	}
	_, err := New(context.Background(), config.Database{
		Driver:         config.DriverPostgres,
		Host:           "127.0.0.1",
		Port:           "1",
		Username:       "user",
		Password:       "password",
		Name:           "goals",
		ConnectTimeout: time.Second,
	})
	assert.Error(t, err)
}

func TestPostgresDialectorUsesPgxStdlibDriver(t *testing.T) {
	d, name, err := dialectorFor(config.Database{
		Driver:         config.DriverPostgres,
		Host:           "localhost",
		Port:           "5432",
		Username:       "user",
		Password:       "password",
		Name:           "goals",
		ConnectTimeout: time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "goals", name)

	pg, ok := d.(*postgres.Dialector)
	require.True(t, ok)
	assert.Equal(t, "pgx", pg.DriverName)
	assert.Contains(t, pg.DSN, "TimeZone=UTC")
	assert.Contains(t, sql.Drivers(), "pgx")
}
