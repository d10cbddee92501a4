package assignments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/installerz-backend/pkg/db/models"
	"github.com/angelmondragon/installerz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/installerz-backend/pkg/errors"
	"github.com/angelmondragon/installerz-backend/pkg/outbox"
	"github.com/angelmondragon/installerz-backend/pkg/outbox/payloads"
)

// CompleteSlot records one installer finishing their portion of the work. The
// installer whose mark leaves no outstanding slot closes the assignment and
// triggers the order completion signal exactly once; retries of an
// already-recorded completion succeed without side effects.
func (s *service) CompleteSlot(ctx context.Context, input CompleteSlotInput) (*CompletionResult, error) {
	if input.AssignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}
	if input.InstallerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "installer id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Actor.Role == enums.RoleInstaller {
		if input.Actor.InstallerID == nil || *input.Actor.InstallerID != input.InstallerID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "installers may only complete their own slot")
		}
	}

	var result *CompletionResult
	recorded := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		assignment, err := s.lockAssignment(ctx, repo, input.AssignmentID)
		if err != nil {
			return err
		}
		if assignment.Status == enums.AssignmentStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment is cancelled")
		}

		slot := findSlot(assignment.Slots, input.InstallerID)
		if slot == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "installer has no slot on this assignment")
		}

		if slot.Completed {
			// Retry of an already recorded completion. No state change, no
			// second event; the closure answer is derived from the aggregate
			// so retries return the same result as the original call.
			result = &CompletionResult{
				Assignment:     NewView(*assignment),
				RemainingSlots: countOutstanding(assignment.Slots),
				ClosedNow: assignment.Status == enums.AssignmentStatusCompleted &&
					assignment.ClosedByInstallerID != nil &&
					*assignment.ClosedByInstallerID == input.InstallerID,
			}
			return nil
		}
		if assignment.Status == enums.AssignmentStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment is already completed")
		}

		now := s.now()
		if err := repo.MarkSlotCompleted(ctx, assignment.ID, input.InstallerID, now); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "slot was completed concurrently")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark slot completed")
		}
		slot.Completed = true
		slot.CompletedAt = &now
		recorded = true

		remaining := countOutstanding(assignment.Slots)

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSlotCompleted,
			AggregateType: enums.AggregateAssignment,
			AggregateID:   assignment.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: payloads.SlotCompletedEvent{
				AssignmentID:   assignment.ID,
				OrderID:        assignment.OrderID,
				InstallerID:    input.InstallerID,
				RemainingSlots: remaining,
				CompletedAt:    now,
			},
		}); err != nil {
			return err
		}

		closedNow := false
		if remaining == 0 {
			if !assignment.Status.CanTransitionTo(enums.AssignmentStatusCompleted) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment cannot complete from current state")
			}
			updates := map[string]any{
				"status":                 enums.AssignmentStatusCompleted,
				"completed_at":           now,
				"closed_by_installer_id": input.InstallerID,
			}
			if err := repo.UpdateAssignment(ctx, assignment.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete assignment")
			}
			assignment.Status = enums.AssignmentStatusCompleted
			assignment.CompletedAt = &now
			closedBy := input.InstallerID
			assignment.ClosedByInstallerID = &closedBy
			closedNow = true

			// EmitIfNotExists plus the partial unique index guarantee the
			// order workflow hears about completion exactly once.
			if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventInstallationCompleted,
				AggregateType: enums.AggregateAssignment,
				AggregateID:   assignment.ID,
				Version:       1,
				Actor:         buildActor(input.Actor),
				Data: payloads.InstallationCompletedEvent{
					AssignmentID:        assignment.ID,
					OrderID:             assignment.OrderID,
					OrderStatus:         enums.OrderStatusInstallationComplete,
					ClosedByInstallerID: input.InstallerID,
					CompletedAt:         now,
				},
			}); err != nil {
				return err
			}
		}

		result = &CompletionResult{
			Assignment:     NewView(*assignment),
			RemainingSlots: remaining,
			ClosedNow:      closedNow,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if recorded {
		s.metrics.IncSlotCompleted()
		if result.ClosedNow {
			s.metrics.IncInstallationCompleted()
		}
	}
	return result, nil
}

func findSlot(slots []models.AssignmentSlot, installerID uuid.UUID) *models.AssignmentSlot {
	for i := range slots {
		if slots[i].InstallerID == installerID {
			return &slots[i]
		}
	}
	return nil
}

func countOutstanding(slots []models.AssignmentSlot) int {
	outstanding := 0
	for _, slot := range slots {
		if !slot.Completed {
			outstanding++
		}
	}
	return outstanding
}
