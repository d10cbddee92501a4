package installers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/installerz-backend/pkg/db/models"
	"github.com/angelmondragon/installerz-backend/pkg/enums"
	"github.com/angelmondragon/installerz-backend/pkg/pagination"
)

// Repository defines persistence operations for installer rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Installer, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Installer, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error)
	UpdateAvailability(ctx context.Context, id uuid.UUID, availability enums.InstallerAvailability) error
}

// List is one page of installers plus the cursor for the next page.
type List struct {
	Installers []models.Installer
	NextCursor string
}
