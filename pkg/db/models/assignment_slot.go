package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/installerz-backend/pkg/types"
)

// AssignmentSlot is one installer's date/time commitment inside an
// assignment. The composite key means an installer holds at most one slot per
// assignment.
type AssignmentSlot struct {
	AssignmentID uuid.UUID       `gorm:"column:assignment_id;type:uuid;primaryKey"`
	InstallerID  uuid.UUID       `gorm:"column:installer_id;type:uuid;primaryKey"`
	Date         time.Time       `gorm:"column:date;type:date;not null"`
	StartTime    types.TimeOfDay `gorm:"column:start_time;type:text;not null"`
	EndTime      types.TimeOfDay `gorm:"column:end_time;type:text;not null"`
	Completed    bool            `gorm:"column:completed;not null;default:false"`
	CompletedAt  *time.Time      `gorm:"column:completed_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// Slot returns the value-type view used by the overlap predicate.
func (s AssignmentSlot) Slot() types.TimeSlot {
	return types.TimeSlot{
		Date:  types.NormalizeDate(s.Date),
		Start: s.StartTime,
		End:   s.EndTime,
	}
}
