package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/installerz-backend/pkg/enums"
	"github.com/angelmondragon/installerz-backend/pkg/types"
)

// SlotPayload mirrors one installer booking inside an assignment event.
type SlotPayload struct {
	InstallerID uuid.UUID       `json:"installer_id"`
	Date        time.Time       `json:"date"`
	StartTime   types.TimeOfDay `json:"start_time"`
	EndTime     types.TimeOfDay `json:"end_time"`
}

// AssignmentScheduledEvent signals a freshly created assignment.
type AssignmentScheduledEvent struct {
	AssignmentID uuid.UUID     `json:"assignment_id"`
	OrderID      uuid.UUID     `json:"order_id"`
	Slots        []SlotPayload `json:"slots"`
}

// AssignmentRescheduledEvent is emitted when an assignment's slots change.
type AssignmentRescheduledEvent struct {
	AssignmentID uuid.UUID     `json:"assignment_id"`
	OrderID      uuid.UUID     `json:"order_id"`
	Slots        []SlotPayload `json:"slots"`
}

// AssignmentStartedEvent reports the first slot window opening.
type AssignmentStartedEvent struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	OrderID      uuid.UUID `json:"order_id"`
	StartedAt    time.Time `json:"started_at"`
}

// AssignmentCanceledEvent is emitted when an assignment is canceled.
type AssignmentCanceledEvent struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	OrderID      uuid.UUID `json:"order_id"`
	CanceledAt   time.Time `json:"canceled_at"`
	Reason       string    `json:"reason,omitempty"`
}

// SlotCompletedEvent reports one installer finishing their portion of the work.
type SlotCompletedEvent struct {
	AssignmentID   uuid.UUID `json:"assignment_id"`
	OrderID        uuid.UUID `json:"order_id"`
	InstallerID    uuid.UUID `json:"installer_id"`
	RemainingSlots int       `json:"remaining_slots"`
	CompletedAt    time.Time `json:"completed_at"`
}

// InstallationCompletedEvent tells the order system the installation is done.
// Emitted at most once per assignment.
type InstallationCompletedEvent struct {
	AssignmentID        uuid.UUID         `json:"assignment_id"`
	OrderID             uuid.UUID         `json:"order_id"`
	OrderStatus         enums.OrderStatus `json:"order_status"`
	ClosedByInstallerID uuid.UUID         `json:"closed_by_installer_id"`
	CompletedAt         time.Time         `json:"completed_at"`
}
