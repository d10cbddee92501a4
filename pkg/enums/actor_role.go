package enums

import "fmt"

// ActorRole identifies who is calling into the scheduling service.
type ActorRole string

const (
	RoleAdmin     ActorRole = "admin"
	RoleScheduler ActorRole = "scheduler"
	RoleInstaller ActorRole = "installer"
)

var validActorRoles = []ActorRole{RoleAdmin, RoleScheduler, RoleInstaller}

// String implements fmt.Stringer.
func (r ActorRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ActorRole.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
