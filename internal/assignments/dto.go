package assignments

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/installerz-backend/pkg/db/models"
	"github.com/angelmondragon/installerz-backend/pkg/enums"
	"github.com/angelmondragon/installerz-backend/pkg/types"
)

// ActorContext identifies who is performing a scheduling operation.
type ActorContext struct {
	UserID      uuid.UUID
	InstallerID *uuid.UUID
	Role        enums.ActorRole
}

// SlotInput is one requested installer booking. Start/End may be zero, in
// which case the configured default working window applies.
type SlotInput struct {
	InstallerID uuid.UUID
	Date        time.Time
	Start       *types.TimeOfDay
	End         *types.TimeOfDay
}

// CreateInput carries everything needed to schedule a new assignment.
type CreateInput struct {
	OrderID uuid.UUID
	Slots   []SlotInput
	Notes   *string
	Actor   ActorContext
}

// RescheduleInput replaces the full slot set of an existing assignment.
type RescheduleInput struct {
	AssignmentID uuid.UUID
	Slots        []SlotInput
	Notes        *string
	Actor        ActorContext
}

// CancelInput cancels an assignment before completion.
type CancelInput struct {
	AssignmentID uuid.UUID
	Reason       string
	Actor        ActorContext
}

// StartInput moves a planned assignment into progress.
type StartInput struct {
	AssignmentID uuid.UUID
	Actor        ActorContext
}

// CompleteSlotInput records one installer finishing their portion.
type CompleteSlotInput struct {
	AssignmentID uuid.UUID
	InstallerID  uuid.UUID
	Actor        ActorContext
}

// SlotView is the API-facing shape of one booking.
type SlotView struct {
	InstallerID uuid.UUID       `json:"installer_id"`
	Date        time.Time       `json:"date"`
	Start       types.TimeOfDay `json:"start_time"`
	End         types.TimeOfDay `json:"end_time"`
	Completed   bool            `json:"completed"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// View is the API-facing shape of an assignment.
type View struct {
	ID                  uuid.UUID              `json:"id"`
	OrderID             uuid.UUID              `json:"order_id"`
	Status              enums.AssignmentStatus `json:"status"`
	Notes               *string                `json:"notes,omitempty"`
	Slots               []SlotView             `json:"slots"`
	ClosedByInstallerID *uuid.UUID             `json:"closed_by_installer_id,omitempty"`
	ExpectedCloserID    *uuid.UUID             `json:"expected_closer_id,omitempty"`
	StartedAt           *time.Time             `json:"started_at,omitempty"`
	CanceledAt          *time.Time             `json:"canceled_at,omitempty"`
	CompletedAt         *time.Time             `json:"completed_at,omitempty"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

// CompletionResult reports the outcome of a slot completion.
type CompletionResult struct {
	Assignment     View `json:"assignment"`
	RemainingSlots int  `json:"remaining_slots"`
	ClosedNow      bool `json:"closed_now"`
}

// Conflict describes one overlap found while checking availability.
type Conflict struct {
	InstallerID     uuid.UUID       `json:"installer_id"`
	AssignmentID    uuid.UUID       `json:"assignment_id"`
	Date            time.Time       `json:"date"`
	Start           types.TimeOfDay `json:"start_time"`
	End             types.TimeOfDay `json:"end_time"`
	RequestedStart  types.TimeOfDay `json:"requested_start"`
	RequestedEnd    types.TimeOfDay `json:"requested_end"`
}

// NewView maps an assignment row (with slots loaded) onto the response shape.
func NewView(m models.Assignment) View {
	view := View{
		ID:                  m.ID,
		OrderID:             m.OrderID,
		Status:              m.Status,
		Notes:               m.Notes,
		ClosedByInstallerID: m.ClosedByInstallerID,
		StartedAt:           m.StartedAt,
		CanceledAt:          m.CanceledAt,
		CompletedAt:         m.CompletedAt,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
	view.Slots = make([]SlotView, 0, len(m.Slots))
	for _, slot := range m.Slots {
		view.Slots = append(view.Slots, SlotView{
			InstallerID: slot.InstallerID,
			Date:        types.NormalizeDate(slot.Date),
			Start:       slot.StartTime,
			End:         slot.EndTime,
			Completed:   slot.Completed,
			CompletedAt: slot.CompletedAt,
		})
	}
	if closer := expectedCloser(m); closer != nil {
		view.ExpectedCloserID = closer
	}
	return view
}

// expectedCloser returns the installer whose slot sorts last among the
// outstanding slots, by (date, start, installer id). Purely informational:
// any installer may record the final completion.
func expectedCloser(m models.Assignment) *uuid.UUID {
	var best *models.AssignmentSlot
	for i := range m.Slots {
		slot := &m.Slots[i]
		if slot.Completed {
			continue
		}
		if best == nil || slotRanksAfter(*slot, *best) {
			best = slot
		}
	}
	if best == nil {
		return nil
	}
	id := best.InstallerID
	return &id
}

func slotRanksAfter(a, b models.AssignmentSlot) bool {
	as, bs := a.Slot(), b.Slot()
	if bs.Less(as) {
		return true
	}
	if as.Less(bs) {
		return false
	}
	return a.InstallerID.String() > b.InstallerID.String()
}
