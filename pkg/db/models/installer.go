package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/installerz-backend/pkg/enums"
)

// Installer is the read model synced from the external identity system. Only
// the coarse availability flag is writable from this service.
type Installer struct {
	ID           uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey"`
	FullName     string                      `gorm:"column:full_name;not null"`
	Specialty    string                      `gorm:"column:specialty;not null"`
	Zone         string                      `gorm:"column:zone;not null"`
	Availability enums.InstallerAvailability `gorm:"column:availability;type:text;not null;default:'available'"`
	CreatedAt    time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}
