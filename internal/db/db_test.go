package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolroom-console/config"
	"toolroom-console/internal/logger"
	"toolroom-console/internal/model"
)

func TestInit_SQLiteMigrates(t *testing.T) {
	gormDB, err := Init(&config.DatabaseConfig{DSN: "sqlite::memory:"}, logger.Nop())
	require.NoError(t, err)

	assert.True(t, gormDB.Migrator().HasTable(&model.PushSubscription{}))
	assert.True(t, gormDB.Migrator().HasTable(&model.ScanJournalEntry{}))

	entry := model.ScanJournalEntry{Mode: "CHECKOUT", WorkerCode: "QR-W-001", AssetCode: "QR-A-001",
		Outcome: model.OutcomeSuccess, Message: "ok", CreatedAt: time.Now()}
	require.NoError(t, gormDB.Create(&entry).Error)
	assert.NotZero(t, entry.ID)

	// Migrating twice is harmless.
	assert.NoError(t, Migrate(gormDB))
}
