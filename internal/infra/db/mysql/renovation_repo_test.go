package mysql

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/renovator/internal/domain/renovation"
)

var columns = []string{"id", "prompt", "source_url", "result_url", "provider", "duration_ms", "created_at"}

func newMockRepo(t *testing.T) (*RenovationRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewRenovationRepository(db), mock
}

func TestEnsureSchema(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS renovations")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
}

func TestSave(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO renovations") + `(?s).*VALUES \(\?,\?,\?,\?,\?,\?,\?\).*` + regexp.QuoteMeta("ON DUPLICATE KEY UPDATE")).
		WithArgs("4b1c", "japandi", "-", "https://fal.media/out.png", "fal", int64(1500), created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), &domain.Record{
		ID:         "4b1c",
		Prompt:     "japandi",
		SourceURL:  "  ",
		ResultURL:  "https://fal.media/out.png",
		Provider:   "fal",
		DurationMS: 1500,
		CreatedAt:  created,
	})
	require.NoError(t, err)
}

func TestSaveDefaultsCreatedAt(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO renovations")).
		WithArgs("id-1", "-", "https://example.com/a.jpg", "https://fal.media/out.png", "-", int64(0), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), &domain.Record{
		ID:        "id-1",
		SourceURL: "https://example.com/a.jpg",
		ResultURL: "https://fal.media/out.png",
	}))
}

func TestLatest(t *testing.T) {
	repo, mock := newMockRepo(t)
	newer := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	older := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC") + `\s+LIMIT \?`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("b", "loft", "https://example.com/b.jpg", "https://fal.media/b.png", "fal", int64(900), newer).
			AddRow("a", "boho", "https://example.com/a.jpg", "https://fal.media/a.png", "openai", int64(1200), older))

	list, err := repo.Latest(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.RecordID("b"), list[0].ID)
	assert.Equal(t, "loft", list[0].Prompt)
	assert.Equal(t, "https://example.com/b.jpg", list[0].SourceURL)
	assert.Equal(t, "https://fal.media/b.png", list[0].ResultURL)
	assert.Equal(t, int64(900), list[0].DurationMS)
	assert.True(t, newer.Equal(list[0].CreatedAt))
	assert.Equal(t, "openai", list[1].Provider)
}

func TestLatestDefaultLimit(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM renovations")).
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows(columns))

	list, err := repo.Latest(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStringOrDash(t *testing.T) {
	assert.Equal(t, "-", stringOrDash(""))
	assert.Equal(t, "-", stringOrDash(" \t"))
	assert.Equal(t, "loft", stringOrDash("loft"))
}
