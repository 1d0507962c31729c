package plans

import (
	"time"

	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
)

// SaveRequest must carry all four artifacts. Pointers separate an omitted
// field from an intentionally empty one.
type SaveRequest struct {
	WorkoutHTML   *string `json:"workout_html"`
	NutritionHTML *string `json:"nutrition_html"`
	WorkoutICS    *string `json:"workout_ics"`
	NutritionICS  *string `json:"nutrition_ics"`
}

type PlanDTO struct {
	ClientID      int64     `json:"client_id"`
	WorkoutHTML   string    `json:"workout_html"`
	NutritionHTML string    `json:"nutrition_html"`
	WorkoutICS    string    `json:"workout_ics"`
	NutritionICS  string    `json:"nutrition_ics"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func fromModel(m *models.ClientPlan) *PlanDTO {
	if m == nil {
		return nil
	}
	return &PlanDTO{
		ClientID:      m.ClientID,
		WorkoutHTML:   m.WorkoutHTML,
		NutritionHTML: m.NutritionHTML,
		WorkoutICS:    m.WorkoutICS,
		NutritionICS:  m.NutritionICS,
		UpdatedAt:     m.UpdatedAt,
	}
}
