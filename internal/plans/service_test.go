package plans

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/fitcoach-backend/internal/activity"
	"github.com/angelmondragon/fitcoach-backend/internal/clients"
	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"github.com/angelmondragon/fitcoach-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestSaveReplacesAllArtifacts(t *testing.T) {
	conn := openTestDB(t, "plans_replace")
	client := &models.Client{Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, conn.Create(client).Error)
	recorder := &spyRecorder{}
	svc := buildService(t, conn, allowGate{}, recorder)
	ctx := context.Background()

	none, err := svc.Get(ctx, client.ID)
	require.NoError(t, err)
	require.Nil(t, none)

	_, err = svc.Save(ctx, client.ID, request("<p>w1</p>", "<p>n1</p>", "BEGIN:VCALENDAR", "BEGIN:VCALENDAR"))
	require.NoError(t, err)

	saved, err := svc.Save(ctx, client.ID, request("<p>w2</p>", "", "", ""))
	require.NoError(t, err)
	require.Equal(t, "<p>w2</p>", saved.WorkoutHTML)
	require.Empty(t, saved.NutritionHTML)
	require.Empty(t, saved.WorkoutICS)
	require.Empty(t, saved.NutritionICS)

	var count int64
	require.NoError(t, conn.Model(&models.ClientPlan{}).Where("client_id = ?", client.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
	require.Len(t, recorder.entries, 2)
	require.Equal(t, enums.ActivityPlanSaved, recorder.entries[1].Type)
}

func TestSaveRejectsPartialPayload(t *testing.T) {
	conn := openTestDB(t, "plans_partial")
	client := &models.Client{Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, conn.Create(client).Error)
	svc := buildService(t, conn, allowGate{}, &spyRecorder{})
	ctx := context.Background()

	_, err := svc.Save(ctx, client.ID, request("<p>w</p>", "<p>n</p>", "ics", "ics"))
	require.NoError(t, err)

	workout := "<p>only workout</p>"
	_, err = svc.Save(ctx, client.ID, SaveRequest{WorkoutHTML: &workout})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "got %v", err)
	details := pkgerrors.As(err).Details().(map[string]any)
	require.Equal(t, []string{"nutrition_html", "nutrition_ics", "workout_ics"}, details["missing"])

	plan, err := svc.Get(ctx, client.ID)
	require.NoError(t, err)
	require.Equal(t, "<p>n</p>", plan.NutritionHTML)
}

func TestSaveRequiresAdminAndClient(t *testing.T) {
	conn := openTestDB(t, "plans_gate")
	ctx := context.Background()

	denied := buildService(t, conn, denyGate{}, &spyRecorder{})
	_, err := denied.Save(ctx, 1, request("a", "b", "c", "d"))
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))

	allowed := buildService(t, conn, allowGate{}, &spyRecorder{})
	_, err = allowed.Save(ctx, 999, request("a", "b", "c", "d"))
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	var count int64
	require.NoError(t, conn.Model(&models.ClientPlan{}).Count(&count).Error)
	require.Zero(t, count)
}

func request(workoutHTML, nutritionHTML, workoutICS, nutritionICS string) SaveRequest {
	return SaveRequest{
		WorkoutHTML:   &workoutHTML,
		NutritionHTML: &nutritionHTML,
		WorkoutICS:    &workoutICS,
		NutritionICS:  &nutritionICS,
	}
}

func openTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))
	return conn
}

func buildService(t *testing.T, conn *gorm.DB, gate authorizer, recorder activity.Recorder) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		Clients:  clients.NewRepository(conn),
		Gate:     gate,
		Activity: recorder,
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
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

type spyRecorder struct {
	entries []activity.Entry
}

func (s *spyRecorder) Record(_ context.Context, entry activity.Entry) {
	s.entries = append(s.entries, entry)
}
