package activity

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"github.com/angelmondragon/fitcoach-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
	"github.com/angelmondragon/fitcoach-backend/pkg/pagination"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestRecordPersistsEntry(t *testing.T) {
	conn := openTestDB(t, "activity_record")
	svc := buildService(t, NewRepository(conn), allowGate{})

	svc.Record(context.Background(), Entry{
		ClientID:    7,
		Type:        enums.ActivityPlanSaved,
		Title:       "Plan saved",
		Description: "  workout and nutrition  ",
		Metadata:    map[string]any{"source": "admin"},
	})

	var rows []models.Activity
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, int64(7), rows[0].ClientID)
	require.Equal(t, enums.ActivityPlanSaved, rows[0].Type)
	require.NotNil(t, rows[0].Description)
	require.Equal(t, "workout and nutrition", *rows[0].Description)
	require.Equal(t, "admin", rows[0].Metadata["source"])
}

func TestRecordSwallowsFailures(t *testing.T) {
	repo := &failingRepo{err: errors.New("db down")}
	svc := buildService(t, repo, allowGate{})

	svc.Record(context.Background(), Entry{ClientID: 1, Type: enums.ActivityNote, Title: "note"})
	svc.Record(context.Background(), Entry{ClientID: 1, Type: "bogus"})
	svc.Record(context.Background(), Entry{Type: enums.ActivityNote})

	if repo.calls != 1 {
		t.Fatalf("expected only the well-formed entry to reach the store, got %d calls", repo.calls)
	}
}

func TestListPaginatesNewestFirst(t *testing.T) {
	conn := openTestDB(t, "activity_list")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, conn.Create(&models.Activity{
			ClientID:  3,
			Type:      enums.ActivityNote,
			Title:     "note",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}
	require.NoError(t, conn.Create(&models.Activity{ClientID: 4, Type: enums.ActivityNote, Title: "other", CreatedAt: base}).Error)

	svc := buildService(t, NewRepository(conn), allowGate{})
	ctx := context.Background()

	first, err := svc.List(ctx, 3, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.True(t, first.Items[0].CreatedAt.After(first.Items[1].CreatedAt))
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.List(ctx, 3, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	require.True(t, second.Items[0].CreatedAt.Before(first.Items[1].CreatedAt))

	third, err := svc.List(ctx, 3, pagination.Params{Limit: 2, Cursor: second.NextCursor})
	require.NoError(t, err)
	require.Len(t, third.Items, 1)
	require.Empty(t, third.NextCursor)
}

func TestListRequiresAdmin(t *testing.T) {
	svc := buildService(t, &failingRepo{}, denyGate{})
	_, err := svc.List(context.Background(), 1, pagination.Params{})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

func TestListRejectsBadCursor(t *testing.T) {
	svc := buildService(t, &failingRepo{}, allowGate{})
	_, err := svc.List(context.Background(), 1, pagination.Params{Cursor: "%%%"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func openTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Activity{}))
	return conn
}

func buildService(t *testing.T, repo Repository, gate authorizer) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:   repo,
		Gate:   gate,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc
}

type allowGate struct{}

func (allowGate) RequireAdmin(context.Context) error { return nil }

type denyGate struct{}

func (denyGate) RequireAdmin(context.Context) error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized")
}

type failingRepo struct {
	err   error
	calls int
}

func (f *failingRepo) WithTx(*gorm.DB) Repository { return f }

func (f *failingRepo) Create(context.Context, *models.Activity) error {
	f.calls++
	return f.err
}

func (f *failingRepo) ListByClient(context.Context, int64, *pagination.Cursor, int) ([]models.Activity, error) {
	return nil, f.err
}
