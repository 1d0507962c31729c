package models

import "time"

// ClientPlan stores the rendered plans delivered to a client. All four
// artifacts are written together.
type ClientPlan struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ClientID      int64     `gorm:"column:client_id;not null;uniqueIndex:idx_client_plans_client"`
	WorkoutHTML   string    `gorm:"column:workout_html;type:text;not null;default:''"`
	NutritionHTML string    `gorm:"column:nutrition_html;type:text;not null;default:''"`
	WorkoutICS    string    `gorm:"column:workout_ics;type:text;not null;default:''"`
	NutritionICS  string    `gorm:"column:nutrition_ics;type:text;not null;default:''"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ClientPlan) TableName() string { return "client_plans" }
