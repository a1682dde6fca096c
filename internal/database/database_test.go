package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger/internal/config"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: DriverSQLite, DSN: ":memory:", MaxOpenConns: 5}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestOpenSQLiteFile(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "ledger.db")
	db, err := Open(config.DatabaseConfig{DSN: dsn, MaxOpenConns: 2}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 2, sqlDB.Stats().MaxOpenConnections)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"}, nil)
	assert.ErrorContains(t, err, `unsupported database driver "oracle"`)
}
