package enums

import "fmt"

// InstallerAvailability is the coarse global toggle on an installer, distinct
// from per-slot booking.
type InstallerAvailability string

const (
	InstallerAvailable   InstallerAvailability = "available"
	InstallerUnavailable InstallerAvailability = "unavailable"
	InstallerOnLeave     InstallerAvailability = "on_leave"
)

var validInstallerAvailabilities = []InstallerAvailability{
	InstallerAvailable,
	InstallerUnavailable,
	InstallerOnLeave,
}

// String implements fmt.Stringer.
func (i InstallerAvailability) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InstallerAvailability.
func (i InstallerAvailability) IsValid() bool {
	for _, candidate := range validInstallerAvailabilities {
		if candidate == i {
			return true
		}
	}
	return false
}

// CanTakeWork reports whether the flag permits new slot bookings.
func (i InstallerAvailability) CanTakeWork() bool {
	return i == InstallerAvailable
}

// ParseInstallerAvailability converts raw input into an InstallerAvailability.
func ParseInstallerAvailability(value string) (InstallerAvailability, error) {
	for _, candidate := range validInstallerAvailabilities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid installer availability %q", value)
}
