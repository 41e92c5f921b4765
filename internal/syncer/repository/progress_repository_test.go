package repository

import (
	"testing"

	syncerdomain "github.com/containersuper/bct-crm/internal/syncer/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) ProgressRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&syncerdomain.ImportProgress{}))
	return NewProgressRepository(db)
}

func TestGetOrCreateReturnsExistingRow(t *testing.T) {
	repo := newTestRepo(t)

	first, created, err := repo.GetOrCreate("user-1", syncerdomain.ImportTypeTeamleader("deals"), "2024-01")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, syncerdomain.StatusInProgress, first.Status)
	require.NoError(t, repo.Complete(first.ID))

	second, created, err := repo.GetOrCreate("user-1", syncerdomain.ImportTypeTeamleader("deals"), "2024-01")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, syncerdomain.StatusCompleted, second.Status)
}

func TestGetOrCreateSeparatesRanges(t *testing.T) {
	repo := newTestRepo(t)

	jan, _, err := repo.GetOrCreate("user-1", syncerdomain.ImportTypeGmail, "2024-01")
	require.NoError(t, err)
	feb, _, err := repo.GetOrCreate("user-1", syncerdomain.ImportTypeGmail, "2024-02")
	require.NoError(t, err)
	assert.NotEqual(t, jan.ID, feb.ID)

	other, _, err := repo.GetOrCreate("user-2", syncerdomain.ImportTypeGmail, "2024-01")
	require.NoError(t, err)
	assert.NotEqual(t, jan.ID, other.ID)
}

func TestAdvancePersistsCursorAndCounters(t *testing.T) {
	repo := newTestRepo(t)

	row, _, err := repo.GetOrCreate("user-1", syncerdomain.ImportTypeGmail, "2024-03")
	require.NoError(t, err)
	require.NoError(t, repo.Advance(row.ID, "page-token-2", 50, 255))
	require.NoError(t, repo.Advance(row.ID, "page-token-3", 25, 130))

	got, created, err := repo.GetOrCreate("user-1", syncerdomain.ImportTypeGmail, "2024-03")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "page-token-3", got.Cursor)
	assert.Equal(t, 75, got.RecordsImported)
	assert.Equal(t, 385, got.QuotaUsed)
}

func TestFailRecordsErrorAndListOrdersByRange(t *testing.T) {
	repo := newTestRepo(t)

	feb, _, err := repo.GetOrCreate("user-1", syncerdomain.ImportTypeTeamleader("invoices"), "2024-02")
	require.NoError(t, err)
	jan, _, err := repo.GetOrCreate("user-1", syncerdomain.ImportTypeTeamleader("invoices"), "2024-01")
	require.NoError(t, err)
	require.NoError(t, repo.Fail(feb.ID, "provider down"))
	require.NoError(t, repo.Complete(jan.ID))

	rows, err := repo.ListByUser("user-1", syncerdomain.ImportTypeTeamleader("invoices"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01", rows[0].RangeKey)
	assert.Equal(t, syncerdomain.StatusCompleted, rows[0].Status)
	assert.Equal(t, "2024-02", rows[1].RangeKey)
	assert.Equal(t, syncerdomain.StatusFailed, rows[1].Status)
	assert.Equal(t, "provider down", rows[1].LastError)
}
