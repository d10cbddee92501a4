package assignments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/installerz-backend/pkg/db/models"
	"github.com/angelmondragon/installerz-backend/pkg/pagination"
	"github.com/angelmondragon/installerz-backend/pkg/types"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an assignments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, assignment *models.Assignment) (*models.Assignment, error) {
	if err := r.db.WithContext(ctx).Create(assignment).Error; err != nil {
		return nil, err
	}
	return assignment, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.db.WithContext(ctx).
		Preload("Slots").
		Where("id = ?", id).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID, lockTimeout time.Duration) (*models.Assignment, error) {
	if lockTimeout > 0 {
		// SET LOCAL scopes the timeout to the surrounding transaction; a
		// blocked FOR UPDATE fails with SQLSTATE 55P03 instead of waiting
		// indefinitely.
		timeoutMS := lockTimeout.Milliseconds()
		if timeoutMS < 1 {
			timeoutMS = 1
		}
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeoutMS)
		if err := r.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return nil, err
		}
	}

	var assignment models.Assignment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", id).
		Order("date ASC, start_time ASC, installer_id ASC").
		Find(&assignment.Slots).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.db.WithContext(ctx).
		Preload("Slots").
		Where("order_id = ? AND status <> ?", orderID, "cancelled").
		Order("created_at DESC").
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*AssignmentList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Assignment{}).Preload("Slots")
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.OrderID != nil {
		query = query.Where("order_id = ?", *filters.OrderID)
	}
	if filters.InstallerID != nil {
		query = query.Where(
			"id IN (?)",
			r.db.Model(&models.AssignmentSlot{}).
				Select("assignment_id").
				Where("installer_id = ?", *filters.InstallerID),
		)
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Assignment
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &AssignmentList{Assignments: rows}
	if len(rows) > normalized {
		next := rows[normalized]
		list.Assignments = rows[:normalized]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID})
	}
	return list, nil
}

func (r *repository) FindInstallerSlots(ctx context.Context, installerIDs []uuid.UUID, dates []time.Time, excludeAssignmentID *uuid.UUID) ([]models.AssignmentSlot, error) {
	if len(installerIDs) == 0 || len(dates) == 0 {
		return nil, nil
	}
	normalized := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		normalized = append(normalized, types.NormalizeDate(d))
	}

	query := r.db.WithContext(ctx).
		Model(&models.AssignmentSlot{}).
		Joins("JOIN assignments ON assignments.id = assignment_slots.assignment_id").
		Where("assignment_slots.installer_id IN ?", installerIDs).
		Where("assignment_slots.date IN ?", normalized).
		Where("assignments.status <> ?", "cancelled")
	if excludeAssignmentID != nil {
		query = query.Where("assignment_slots.assignment_id <> ?", *excludeAssignmentID)
	}

	var slots []models.AssignmentSlot
	if err := query.Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *repository) ListInstallerSlots(ctx context.Context, installerID uuid.UUID, from, to time.Time) ([]models.AssignmentSlot, error) {
	query := r.db.WithContext(ctx).
		Model(&models.AssignmentSlot{}).
		Joins("JOIN assignments ON assignments.id = assignment_slots.assignment_id").
		Where("assignment_slots.installer_id = ?", installerID).
		Where("assignments.status <> ?", "cancelled")
	if !from.IsZero() {
		query = query.Where("assignment_slots.date >= ?", types.NormalizeDate(from))
	}
	if !to.IsZero() {
		query = query.Where("assignment_slots.date <= ?", types.NormalizeDate(to))
	}

	var slots []models.AssignmentSlot
	err := query.Order("assignment_slots.date ASC, assignment_slots.start_time ASC").Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *repository) ReplaceSlots(ctx context.Context, assignmentID uuid.UUID, slots []models.AssignmentSlot) error {
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Delete(&models.AssignmentSlot{}).Error; err != nil {
		return err
	}
	if len(slots) == 0 {
		return nil
	}
	for i := range slots {
		slots[i].AssignmentID = assignmentID
	}
	return r.db.WithContext(ctx).Create(&slots).Error
}

func (r *repository) UpdateAssignment(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) MarkSlotCompleted(ctx context.Context, assignmentID, installerID uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.AssignmentSlot{}).
		Where("assignment_id = ? AND installer_id = ? AND completed = ?", assignmentID, installerID, false).
		Updates(map[string]any{
			"completed":    true,
			"completed_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindStartable(ctx context.Context, now time.Time, limit int) ([]models.Assignment, error) {
	if limit <= 0 {
		limit = 100
	}
	today := types.NormalizeDate(now)
	nowClock := types.TimeOfDayFromTime(now)

	var assignments []models.Assignment
	err := r.db.WithContext(ctx).
		Preload("Slots").
		Where("status = ?", "planned").
		Where(
			"id IN (?)",
			r.db.Model(&models.AssignmentSlot{}).
				Select("assignment_id").
				Where("date < ? OR (date = ? AND start_time <= ?)", today, today, nowClock),
		).
		Order("created_at ASC").
		Limit(limit).
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}
