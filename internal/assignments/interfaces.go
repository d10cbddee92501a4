package assignments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/installerz-backend/pkg/db/models"
	"github.com/angelmondragon/installerz-backend/pkg/outbox"
	"github.com/angelmondragon/installerz-backend/pkg/pagination"
)

// Repository defines persistence operations for assignment tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, assignment *models.Assignment) (*models.Assignment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	// FindByIDForUpdate loads the assignment row under FOR UPDATE with a
	// bounded lock wait. Must run inside a transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID, lockTimeout time.Duration) (*models.Assignment, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Assignment, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*AssignmentList, error)
	// FindInstallerSlots returns all non-cancelled slots booked for the given
	// installers on the given dates, used for overlap detection.
	FindInstallerSlots(ctx context.Context, installerIDs []uuid.UUID, dates []time.Time, excludeAssignmentID *uuid.UUID) ([]models.AssignmentSlot, error)
	ListInstallerSlots(ctx context.Context, installerID uuid.UUID, from, to time.Time) ([]models.AssignmentSlot, error)
	ReplaceSlots(ctx context.Context, assignmentID uuid.UUID, slots []models.AssignmentSlot) error
	UpdateAssignment(ctx context.Context, id uuid.UUID, updates map[string]any) error
	MarkSlotCompleted(ctx context.Context, assignmentID, installerID uuid.UUID, at time.Time) error
	// FindStartable returns planned assignments whose earliest slot window has
	// opened as of the provided instant.
	FindStartable(ctx context.Context, now time.Time, limit int) ([]models.Assignment, error)
}

// ListFilters narrows assignment listings.
type ListFilters struct {
	Status      *string
	OrderID     *uuid.UUID
	InstallerID *uuid.UUID
}

// AssignmentList is one page of assignments plus the cursor for the next page.
type AssignmentList struct {
	Assignments []models.Assignment
	NextCursor  string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// InstallerLocker serializes scheduling work per installer across processes.
type InstallerLocker interface {
	// AcquireAll locks every installer id (deduplicated, in sorted order) and
	// returns a release function. Fails with a lock-timeout error when any
	// lock cannot be obtained within the configured wait budget.
	AcquireAll(ctx context.Context, installerIDs []uuid.UUID) (func(), error)
}

// AvailabilityChecker verifies that a requested slot set can be booked.
type AvailabilityChecker interface {
	Check(ctx context.Context, slots []models.AssignmentSlot, excludeAssignmentID *uuid.UUID) error
}
