package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/installerz-backend/pkg/enums"
)

// Assignment is the aggregate root for one order's installation: it owns the
// per-installer slots and the overall status. Cancellation is soft; rows are
// never hard-deleted so the booking history stays auditable.
type Assignment struct {
	ID                  uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             uuid.UUID              `gorm:"column:order_id;type:uuid;not null"`
	Status              enums.AssignmentStatus `gorm:"column:status;type:text;not null;default:'planned'"`
	Notes               *string                `gorm:"column:notes"`
	ClosedByInstallerID *uuid.UUID             `gorm:"column:closed_by_installer_id;type:uuid"`
	StartedAt           *time.Time             `gorm:"column:started_at"`
	CanceledAt          *time.Time             `gorm:"column:canceled_at"`
	CompletedAt         *time.Time             `gorm:"column:completed_at"`
	Slots               []AssignmentSlot       `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
