package plans

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	require.NoError(t, InitSchema(db))

	return db
}

func testPlan(entryID, event int, verdict string) *Plan {
	return &Plan{
		EntryID:               entryID,
		Event:                 event,
		Verdict:               verdict,
		ConservativeTransfers: 1,
		OptimalTransfers:      2,
		ConservativePoints:    30,
		OptimalPoints:         33,
		NetGain:               3,
		HitTransfers:          1,
		Suggestions:           json.RawMessage(`{"optimal":[{"out":13,"in":21}]}`),
	}
}

func TestSaveAndHistory(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	id1, err := repo.Save(testPlan(1234, 2, "optimal"))
	require.NoError(t, err)
	assert.NotEmpty(t, id1)

	id2, err := repo.Save(testPlan(1234, 3, "conservative"))
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	history, err := repo.History(1234, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Newest first
	assert.Equal(t, id2, history[0].UUID)
	assert.Equal(t, "conservative", history[0].Verdict)
	assert.Equal(t, 3, history[0].Event)
	assert.Equal(t, id1, history[1].UUID)
	assert.InDelta(t, 33.0, history[1].OptimalPoints, 1e-9)
	assert.JSONEq(t, `{"optimal":[{"out":13,"in":21}]}`, string(history[1].Suggestions))
	assert.False(t, history[0].CreatedAt.IsZero())
}

func TestHistory_EntryFilterAndLimit(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := repo.Save(testPlan(1234, 2+i, "either"))
		require.NoError(t, err)
	}
	_, err := repo.Save(testPlan(9999, 2, "optimal"))
	require.NoError(t, err)

	scoped, err := repo.History(1234, 10)
	require.NoError(t, err)
	assert.Len(t, scoped, 3)

	all, err := repo.History(0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	limited, err := repo.History(1234, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestLatest(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	latest, err := repo.Latest(1234)
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = repo.Save(testPlan(1234, 2, "optimal"))
	require.NoError(t, err)
	id2, err := repo.Save(testPlan(1234, 3, "either"))
	require.NoError(t, err)

	latest, err = repo.Latest(1234)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, id2, latest.UUID)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSave_EmptySuggestions(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	plan := testPlan(1234, 2, "either")
	plan.Suggestions = nil
	_, err := repo.Save(plan)
	require.NoError(t, err)

	history, err := repo.History(1234, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.JSONEq(t, `{}`, string(history[0].Suggestions))
}

func TestDeleteOlderThan(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	oldID, err := repo.Save(testPlan(1234, 2, "optimal"))
	require.NoError(t, err)
	keptID, err := repo.Save(testPlan(1234, 3, "either"))
	require.NoError(t, err)

	// Age the first run past the cutoff
	aged := time.Now().AddDate(0, 0, -120).UTC().Format(time.RFC3339)
	_, err = db.Exec("UPDATE plans SET created_at = ? WHERE uuid = ?", aged, oldID)
	require.NoError(t, err)

	deleted, err := repo.DeleteOlderThan(time.Now().AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	history, err := repo.History(1234, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, keptID, history[0].UUID)

	// Nothing left past the cutoff
	deleted, err = repo.DeleteOlderThan(time.Now().AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
