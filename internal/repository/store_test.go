package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLite(t *testing.T) {
	store, err := Open(config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "store.db"),
	}, "")
	require.NoError(t, err)
	defer store.Close()

	summary, err := store.Runs.Get(context.Background(), payroll.Period{Year: 2025, Month: 1})
	assert.Nil(t, summary)
	assert.ErrorIs(t, err, payroll.ErrRunNotFound)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mysql"}, "")
	assert.Error(t, err)
}
