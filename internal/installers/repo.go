package installers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/installerz-backend/pkg/db/models"
	"github.com/angelmondragon/installerz-backend/pkg/enums"
	"github.com/angelmondragon/installerz-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an installers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Installer, error) {
	var installer models.Installer
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&installer).Error
	if err != nil {
		return nil, err
	}
	return &installer, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Installer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Installer
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Installer{})
	if filters.Availability != nil {
		query = query.Where("availability = ?", *filters.Availability)
	}
	if filters.Zone != nil {
		query = query.Where("zone = ?", *filters.Zone)
	}
	if filters.Specialty != nil {
		query = query.Where("specialty = ?", *filters.Specialty)
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Installer
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &List{Installers: rows}
	if len(rows) > normalized {
		next := rows[normalized]
		list.Installers = rows[:normalized]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID})
	}
	return list, nil
}

func (r *repository) UpdateAvailability(ctx context.Context, id uuid.UUID, availability enums.InstallerAvailability) error {
	result := r.db.WithContext(ctx).
		Model(&models.Installer{}).
		Where("id = ?", id).
		Update("availability", availability)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
