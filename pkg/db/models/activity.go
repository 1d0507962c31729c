package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/angelmondragon/fitcoach-backend/pkg/enums"
)

// Activity is an append-only client timeline entry.
type Activity struct {
	ID          int64              `gorm:"column:id;primaryKey;autoIncrement"`
	ClientID    int64              `gorm:"column:client_id;not null;index:idx_client_activities_client_created,priority:1"`
	Type        enums.ActivityType `gorm:"column:type;not null"`
	Title       string             `gorm:"column:title;not null"`
	Description *string            `gorm:"column:description"`
	Metadata    datatypes.JSONMap  `gorm:"column:metadata"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime;index:idx_client_activities_client_created,priority:2"`
}

func (Activity) TableName() string { return "client_activities" }
