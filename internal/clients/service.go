package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/fitcoach-backend/internal/activity"
	"github.com/angelmondragon/fitcoach-backend/pkg/db"
	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"github.com/angelmondragon/fitcoach-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
	"github.com/angelmondragon/fitcoach-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Service manages client identity records.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*ClientDTO, error)
	Get(ctx context.Context, id int64) (*ClientDTO, error)
	List(ctx context.Context, params pagination.Params) (*ListResult, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (*ClientDTO, error)
	Delete(ctx context.Context, id int64) error
}

type authorizer interface {
	RequireAdmin(ctx context.Context) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Repo     Repository
	TxRunner txRunner
	Gate     authorizer
	Activity activity.Recorder
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	tx       txRunner
	gate     authorizer
	activity activity.Recorder
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("client repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Gate == nil {
		return nil, fmt.Errorf("authorizer required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     params.Repo,
		tx:       params.TxRunner,
		gate:     params.Gate,
		activity: params.Activity,
		logg:     params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*ClientDTO, error) {
	if err := s.gate.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and email are required")
	}

	client := &models.Client{Name: name, Email: email, Phone: trimmedPtr(req.Phone)}
	if err := s.repo.Create(ctx, client); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a client with this email already exists")
		}
		return nil, pkgerrors.Upstream(err, "create client")
	}

	s.activity.Record(ctx, activity.Entry{
		ClientID: client.ID,
		Type:     enums.ActivityClientCreated,
		Title:    "Client created",
		Metadata: map[string]any{"email": client.Email},
	})
	return FromModel(client), nil
}

func (s *service) Get(ctx context.Context, id int64) (*ClientDTO, error) {
	if err := s.gate.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	client, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(client), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*ListResult, error) {
	if err := s.gate.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	cursor, limit, err := params.Resolve()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Upstream(err, "list clients")
	}

	rows, next := pagination.Trim(rows, limit, func(c models.Client) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	})
	result := &ListResult{Items: make([]ClientDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		result.Items = append(result.Items, *FromModel(&rows[i]))
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, id int64, req UpdateRequest) (*ClientDTO, error) {
	if err := s.gate.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		fields["name"] = name
	}
	if req.Phone != nil {
		fields["phone"] = trimmedPtr(req.Phone)
	}

	if len(fields) > 0 {
		rows, err := s.repo.UpdateFields(ctx, id, fields)
		if err != nil {
			return nil, pkgerrors.Upstream(err, "update client")
		}
		if rows == 0 {
			return nil, clientNotFound(id)
		}
	}

	client, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(client), nil
}

// Delete removes the client and all of its dependent rows in one transaction.
func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.gate.RequireAdmin(ctx); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.WithTx(tx).DeleteCascade(ctx, id)
		if err != nil {
			return pkgerrors.Upstream(err, "delete client")
		}
		if rows == 0 {
			return clientNotFound(id)
		}
		s.logg.Info(s.logg.WithClientID(ctx, id), "client deleted")
		return nil
	})
}

func (s *service) load(ctx context.Context, id int64) (*models.Client, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Upstream(err, "load client")
	}
	if client == nil {
		return nil, clientNotFound(id)
	}
	return client, nil
}

func clientNotFound(id int64) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("client %d not found", id))
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
