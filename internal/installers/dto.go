package installers

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/installerz-backend/pkg/db/models"
	"github.com/angelmondragon/installerz-backend/pkg/enums"
)

// View is the API-facing shape of an installer.
type View struct {
	ID           uuid.UUID                   `json:"id"`
	FullName     string                      `json:"full_name"`
	Specialty    string                      `json:"specialty"`
	Zone         string                      `json:"zone"`
	Availability enums.InstallerAvailability `json:"availability"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// SetAvailabilityInput carries an availability change request.
type SetAvailabilityInput struct {
	InstallerID  uuid.UUID
	Availability enums.InstallerAvailability
	ActorUserID  uuid.UUID
}

// ListFilters narrows installer listings.
type ListFilters struct {
	Availability *enums.InstallerAvailability
	Zone         *string
	Specialty    *string
}

// NewView maps a model row onto the response shape.
func NewView(m models.Installer) View {
	return View{
		ID:           m.ID,
		FullName:     m.FullName,
		Specialty:    m.Specialty,
		Zone:         m.Zone,
		Availability: m.Availability,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
