package installers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/installerz-backend/pkg/errors"
	"github.com/angelmondragon/installerz-backend/pkg/pagination"
)

// Service exposes installer read and availability operations.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*View, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) ([]View, string, error)
	SetAvailability(ctx context.Context, input SetAvailabilityInput) (*View, error)
}

type service struct {
	repo Repository
}

// NewService builds an installer service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("installers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "installer id required")
	}
	installer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "installer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load installer")
	}
	view := NewView(*installer)
	return &view, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) ([]View, string, error) {
	if filters.Availability != nil && !filters.Availability.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid availability filter")
	}
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list installers")
	}
	views := make([]View, 0, len(list.Installers))
	for _, row := range list.Installers {
		views = append(views, NewView(row))
	}
	return views, list.NextCursor, nil
}

func (s *service) SetAvailability(ctx context.Context, input SetAvailabilityInput) (*View, error) {
	if input.InstallerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "installer id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Availability.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid availability value")
	}

	if err := s.repo.UpdateAvailability(ctx, input.InstallerID, input.Availability); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "installer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update availability")
	}
	return s.Get(ctx, input.InstallerID)
}
