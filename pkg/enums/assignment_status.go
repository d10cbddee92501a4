package enums

import "fmt"

// AssignmentStatus tracks the lifecycle of an installation assignment.
type AssignmentStatus string

const (
	AssignmentStatusPlanned    AssignmentStatus = "planned"
	AssignmentStatusInProgress AssignmentStatus = "in_progress"
	AssignmentStatusCancelled  AssignmentStatus = "cancelled"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
)

var validAssignmentStatuses = []AssignmentStatus{
	AssignmentStatusPlanned,
	AssignmentStatusInProgress,
	AssignmentStatusCancelled,
	AssignmentStatusCompleted,
}

// String implements fmt.Stringer.
func (a AssignmentStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AssignmentStatus.
func (a AssignmentStatus) IsValid() bool {
	for _, candidate := range validAssignmentStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (a AssignmentStatus) IsTerminal() bool {
	return a == AssignmentStatusCancelled || a == AssignmentStatusCompleted
}

// CanTransitionTo reports whether the status may move to target.
func (a AssignmentStatus) CanTransitionTo(target AssignmentStatus) bool {
	if a.IsTerminal() {
		return false
	}
	switch target {
	case AssignmentStatusInProgress:
		return a == AssignmentStatusPlanned
	case AssignmentStatusCancelled:
		return true
	case AssignmentStatusCompleted:
		return a == AssignmentStatusPlanned || a == AssignmentStatusInProgress
	default:
		return false
	}
}

// ParseAssignmentStatus converts raw input into an AssignmentStatus.
func ParseAssignmentStatus(value string) (AssignmentStatus, error) {
	for _, candidate := range validAssignmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment status %q", value)
}
