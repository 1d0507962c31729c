package activity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"github.com/angelmondragon/fitcoach-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
	"github.com/angelmondragon/fitcoach-backend/pkg/pagination"
	"gorm.io/datatypes"
)

// Entry describes one timeline event to record.
type Entry struct {
	ClientID    int64
	Type        enums.ActivityType
	Title       string
	Description string
	Metadata    map[string]any
}

// Recorder is the write surface other domains depend on.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// Service records and lists client activities.
type Service interface {
	Recorder
	List(ctx context.Context, clientID int64, params pagination.Params) (*ListResult, error)
}

// ListResult is one page of a client timeline.
type ListResult struct {
	Items      []Item `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// Item is the API view of an activity.
type Item struct {
	ID          int64              `json:"id"`
	ClientID    int64              `json:"client_id"`
	Type        enums.ActivityType `json:"type"`
	Title       string             `json:"title"`
	Description *string            `json:"description,omitempty"`
	Metadata    map[string]any     `json:"metadata,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

type authorizer interface {
	RequireAdmin(ctx context.Context) error
}

type ServiceParams struct {
	Repo   Repository
	Gate   authorizer
	Logger *logger.Logger
}

type service struct {
	repo Repository
	gate authorizer
	logg *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	if params.Gate == nil {
		return nil, fmt.Errorf("authorizer required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: params.Repo, gate: params.Gate, logg: params.Logger}, nil
}

// Record appends an entry. Failures are logged and swallowed.
func (s *service) Record(ctx context.Context, entry Entry) {
	ctx = s.logg.WithClientID(ctx, entry.ClientID)
	if entry.ClientID <= 0 || !entry.Type.IsValid() {
		s.logg.Warn(s.logg.WithField(ctx, "activity_type", entry.Type), "dropping malformed activity")
		return
	}

	row := &models.Activity{
		ClientID: entry.ClientID,
		Type:     entry.Type,
		Title:    strings.TrimSpace(entry.Title),
	}
	if row.Title == "" {
		row.Title = string(entry.Type)
	}
	if desc := strings.TrimSpace(entry.Description); desc != "" {
		row.Description = &desc
	}
	if len(entry.Metadata) > 0 {
		row.Metadata = datatypes.JSONMap(entry.Metadata)
	}

	if err := s.repo.Create(ctx, row); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "activity_type", entry.Type), "failed to record activity", err)
	}
}

func (s *service) List(ctx context.Context, clientID int64, params pagination.Params) (*ListResult, error) {
	if err := s.gate.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	cursor, limit, err := params.Resolve()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListByClient(ctx, clientID, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Upstream(err, "list activities")
	}

	rows, next := pagination.Trim(rows, limit, func(a models.Activity) pagination.Cursor {
		return pagination.Cursor{CreatedAt: a.CreatedAt, ID: a.ID}
	})
	result := &ListResult{Items: make([]Item, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		result.Items = append(result.Items, Item{
			ID:          row.ID,
			ClientID:    row.ClientID,
			Type:        row.Type,
			Title:       row.Title,
			Description: row.Description,
			Metadata:    map[string]any(row.Metadata),
			CreatedAt:   row.CreatedAt,
		})
	}
	return result, nil
}
