package holdings

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockfolio/backend/internal/database"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "holdings_test.db"),
		Name: "holdings_test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewRepository(db, zerolog.Nop())
	require.NoError(t, err)
	return repo
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAddAndGetByUser(t *testing.T) {
	repo := setupTestRepo(t)

	h1, err := repo.Add("user-1", "AAPL", dec("10.5"), dec("150.1234"))
	require.NoError(t, err)
	assert.NotEmpty(t, h1.ID)
	assert.Equal(t, "AAPL", h1.Symbol)

	h2, err := repo.Add("user-1", "MSFT", dec("2"), dec("300"))
	require.NoError(t, err)

	_, err = repo.Add("user-2", "AAPL", dec("1"), dec("100"))
	require.NoError(t, err)

	holdings, err := repo.GetByUser("user-1")
	require.NoError(t, err)
	require.Len(t, holdings, 2)

	// Insertion order, exact decimal round-trip.
	assert.Equal(t, h1.ID, holdings[0].ID)
	assert.Equal(t, h2.ID, holdings[1].ID)
	assert.True(t, holdings[0].Quantity.Equal(dec("10.5")))
	assert.True(t, holdings[0].CostBasis.Equal(dec("150.1234")))
}

func TestGetByUser_Empty(t *testing.T) {
	repo := setupTestRepo(t)

	holdings, err := repo.GetByUser("nobody")
	require.NoError(t, err)
	assert.Empty(t, holdings)
}

func TestAdd_NormalizesSymbol(t *testing.T) {
	repo := setupTestRepo(t)

	h, err := repo.Add("user-1", "  aapl ", dec("1"), dec("100"))
	require.NoError(t, err)
	assert.Equal(t, "AAPL", h.Symbol)
}

func TestAdd_Validation(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Add("user-1", "", dec("1"), dec("100"))
	assert.Error(t, err)

	_, err = repo.Add("user-1", "AAPL", dec("-1"), dec("100"))
	assert.Error(t, err)

	_, err = repo.Add("user-1", "AAPL", dec("1"), dec("-100"))
	assert.Error(t, err)
}

func TestAdd_DuplicateSymbolRejected(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Add("user-1", "AAPL", dec("1"), dec("100"))
	require.NoError(t, err)

	_, err = repo.Add("user-1", "AAPL", dec("2"), dec("200"))
	assert.Error(t, err, "one row per user and symbol")
}

func TestGet(t *testing.T) {
	repo := setupTestRepo(t)

	added, err := repo.Add("user-1", "AAPL", dec("10"), dec("150"))
	require.NoError(t, err)

	got, err := repo.Get(added.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, added.ID, got.ID)
	assert.True(t, got.Quantity.Equal(dec("10")))

	missing, err := repo.Get("no-such-id")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdate(t *testing.T) {
	repo := setupTestRepo(t)

	added, err := repo.Add("user-1", "AAPL", dec("10"), dec("150"))
	require.NoError(t, err)

	updated, err := repo.Update(added.ID, dec("12.25"), dec("148.50"))
	require.NoError(t, err)
	assert.True(t, updated.Quantity.Equal(dec("12.25")))
	assert.True(t, updated.CostBasis.Equal(dec("148.50")))

	_, err = repo.Update("no-such-id", dec("1"), dec("1"))
	assert.Error(t, err)

	_, err = repo.Update(added.ID, dec("-1"), dec("1"))
	assert.Error(t, err)
}

func TestUpdate_ConcurrentDeleteReturnsErrorNotPanic(t *testing.T) {
	repo := setupTestRepo(t)

	// Race Update against Delete repeatedly. The losing Update must come
	// back as a not-found or busy error, never dereference a vanished row.
	for i := 0; i < 50; i++ {
		added, err := repo.Add("user-1", "AAPL", dec("10"), dec("150"))
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = repo.Update(added.ID, dec("11"), dec("151"))
		}()
		go func() {
			defer wg.Done()
			_ = repo.Delete(added.ID)
		}()
		wg.Wait()

		// Clear the row for the next round regardless of who won.
		_ = repo.Delete(added.ID)
	}
}

func TestDelete(t *testing.T) {
	repo := setupTestRepo(t)

	added, err := repo.Add("user-1", "AAPL", dec("10"), dec("150"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(added.ID))

	got, err := repo.Get(added.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Error(t, repo.Delete(added.ID))
}
