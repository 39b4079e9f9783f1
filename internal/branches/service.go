package branches

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// CreateInput is the admin payload for a new branch.
type CreateInput struct {
	Name          string  `json:"name" validate:"required,max=120"`
	Address       *string `json:"address" validate:"omitempty,max=500"`
	Phone         *string `json:"phone" validate:"omitempty,max=20"`
	WhatsAppPhone *string `json:"whatsappPhone" validate:"omitempty,max=20"`
	Timezone      string  `json:"timezone" validate:"omitempty,timezone"`
	IsActive      *bool   `json:"isActive"`
}

// UpdateInput holds optional branch changes; nil fields are left alone.
type UpdateInput struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=120"`
	Address       *string `json:"address" validate:"omitempty,max=500"`
	Phone         *string `json:"phone" validate:"omitempty,max=20"`
	WhatsAppPhone *string `json:"whatsappPhone" validate:"omitempty,max=20"`
	Timezone      *string `json:"timezone" validate:"omitempty,timezone"`
	IsActive      *bool   `json:"isActive"`
}

// Invalidator drops cached branch lookups after a write.
type Invalidator interface {
	InvalidateLookups()
}

// Service manages branches from the admin back office.
type Service interface {
	List(ctx context.Context, activeOnly bool) ([]models.Branch, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Branch, error)
	Create(ctx context.Context, input CreateInput) (*models.Branch, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Branch, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo  Repository
	cache Invalidator
	logg  *logger.Logger
}

// NewService builds the branch service. cache may be nil.
func NewService(repo Repository, cache Invalidator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("branch repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, cache: cache, logg: logg}, nil
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]models.Branch, error) {
	rows, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list branches")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	branch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load branch")
	}
	return branch, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Branch, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	branch := &models.Branch{
		Name:          name,
		Address:       trimmed(input.Address),
		Phone:         trimmed(input.Phone),
		WhatsAppPhone: trimmed(input.WhatsAppPhone),
		Timezone:      strings.TrimSpace(input.Timezone),
		IsActive:      input.IsActive == nil || *input.IsActive,
	}
	if err := s.repo.Create(ctx, branch); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeWriteFailed, err, err.Error())
	}
	s.written(ctx, branch.ID, "branch created")
	return branch, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Branch, error) {
	branch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
		}
		branch.Name = name
	}
	if input.Address != nil {
		branch.Address = trimmed(input.Address)
	}
	if input.Phone != nil {
		branch.Phone = trimmed(input.Phone)
	}
	if input.WhatsAppPhone != nil {
		branch.WhatsAppPhone = trimmed(input.WhatsAppPhone)
	}
	if input.Timezone != nil && strings.TrimSpace(*input.Timezone) != "" {
		branch.Timezone = strings.TrimSpace(*input.Timezone)
	}
	if input.IsActive != nil {
		branch.IsActive = *input.IsActive
	}
	if err := s.repo.Save(ctx, branch); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeWriteFailed, err, err.Error())
	}
	s.written(ctx, branch.ID, "branch updated")
	return branch, nil
}

// Delete removes the branch. Branches still referenced by orders or stock are refused.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.New(pkgerrors.CodeConflict, "branch still has orders or stock")
		}
		return pkgerrors.Wrap(pkgerrors.CodeWriteFailed, err, err.Error())
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
	}
	s.written(ctx, id, "branch deleted")
	return nil
}

func (s *service) written(ctx context.Context, id uuid.UUID, msg string) {
	if s.cache != nil {
		s.cache.InvalidateLookups()
	}
	s.logg.Info(s.logg.WithBranchID(ctx, id.String()), msg)
}

// trimmed returns nil for nil or blank input so optional columns are stored as NULL.
func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
