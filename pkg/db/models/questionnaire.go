package models

import (
	"time"

	"gorm.io/datatypes"
)

// WorkoutAnswers is the typed view over the workout intake blob.
type WorkoutAnswers struct {
	Goal        string   `json:"goal,omitempty"`
	Experience  string   `json:"experience,omitempty"`
	Frequency   string   `json:"frequency,omitempty"`
	Limitations []string `json:"limitations,omitempty"`
	Preferences []string `json:"preferences,omitempty"`
}

// NutritionAnswers is the typed view over the nutrition intake blob.
type NutritionAnswers struct {
	Goal              string   `json:"goal,omitempty"`
	Allergies         []string `json:"allergies,omitempty"`
	DietaryPreference string   `json:"dietary_preference,omitempty"`
	MealFrequency     string   `json:"meal_frequency,omitempty"`
	Restrictions      []string `json:"restrictions,omitempty"`
}

// Questionnaire holds the current intake answers of a client. client_id is
// unique so saves upsert in place.
type Questionnaire struct {
	ID            int64                                `gorm:"column:id;primaryKey;autoIncrement"`
	ClientID      int64                                `gorm:"column:client_id;not null;uniqueIndex:idx_client_questionnaires_client"`
	WorkoutData   datatypes.JSONType[WorkoutAnswers]   `gorm:"column:workout_data"`
	NutritionData datatypes.JSONType[NutritionAnswers] `gorm:"column:nutrition_data"`
	CreatedAt     time.Time                            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                            `gorm:"column:updated_at;autoUpdateTime"`
}

func (Questionnaire) TableName() string { return "client_questionnaires" }
