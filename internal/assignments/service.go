package assignments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/installerz-backend/pkg/config"
	dbpkg "github.com/angelmondragon/installerz-backend/pkg/db"
	"github.com/angelmondragon/installerz-backend/pkg/db/models"
	"github.com/angelmondragon/installerz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/installerz-backend/pkg/errors"
	"github.com/angelmondragon/installerz-backend/pkg/metrics"
	"github.com/angelmondragon/installerz-backend/pkg/outbox"
	"github.com/angelmondragon/installerz-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/installerz-backend/pkg/pagination"
	"github.com/angelmondragon/installerz-backend/pkg/types"
)

// Service defines the assignment scheduling operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*View, error)
	Reschedule(ctx context.Context, input RescheduleInput) (*View, error)
	Cancel(ctx context.Context, input CancelInput) (*View, error)
	Start(ctx context.Context, input StartInput) (*View, error)
	CompleteSlot(ctx context.Context, input CompleteSlotInput) (*CompletionResult, error)
	Get(ctx context.Context, id uuid.UUID) (*View, error)
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*View, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) ([]View, string, error)
	InstallerSchedule(ctx context.Context, installerID uuid.UUID, from, to time.Time) ([]SlotView, error)
}

type service struct {
	repo         Repository
	tx           txRunner
	outbox       outboxPublisher
	locker       InstallerLocker
	availability AvailabilityChecker
	cfg          config.SchedulingConfig
	metrics      *metrics.SchedulingMetrics
	now          func() time.Time
}

// NewService builds an assignment service with the required dependencies.
func NewService(
	repo Repository,
	tx txRunner,
	outboxSvc outboxPublisher,
	locker InstallerLocker,
	availability AvailabilityChecker,
	cfg config.SchedulingConfig,
	schedMetrics *metrics.SchedulingMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("assignments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if locker == nil {
		return nil, fmt.Errorf("installer locker required")
	}
	if availability == nil {
		return nil, fmt.Errorf("availability checker required")
	}
	return &service{
		repo:         repo,
		tx:           tx,
		outbox:       outboxSvc,
		locker:       locker,
		availability: availability,
		cfg:          cfg,
		metrics:      schedMetrics,
		now:          time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*View, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	slots, err := s.buildSlots(input.Slots)
	if err != nil {
		return nil, err
	}

	release, err := s.acquireInstallerLocks(ctx, slotInstallerIDs(slots))
	if err != nil {
		return nil, err
	}
	defer release()

	var created *models.Assignment
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := s.availability.Check(ctx, slots, nil); err != nil {
			s.countConflict(err)
			return err
		}

		assignment := &models.Assignment{
			OrderID: input.OrderID,
			Status:  enums.AssignmentStatusPlanned,
			Notes:   input.Notes,
			Slots:   slots,
		}
		saved, err := repo.Create(ctx, assignment)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create assignment")
		}
		created = saved

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAssignmentScheduled,
			AggregateType: enums.AggregateAssignment,
			AggregateID:   saved.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: payloads.AssignmentScheduledEvent{
				AssignmentID: saved.ID,
				OrderID:      saved.OrderID,
				Slots:        slotPayloads(saved.Slots),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCreated()
	view := NewView(*created)
	return &view, nil
}

func (s *service) Reschedule(ctx context.Context, input RescheduleInput) (*View, error) {
	if input.AssignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	slots, err := s.buildSlots(input.Slots)
	if err != nil {
		return nil, err
	}

	// Lock the requested installers plus the currently booked ones so both
	// the old and new slot sets stay stable while we swap them.
	current, err := s.repo.FindByID(ctx, input.AssignmentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
	}
	lockIDs := append(slotInstallerIDs(slots), slotInstallerIDs(current.Slots)...)
	release, err := s.acquireInstallerLocks(ctx, lockIDs)
	if err != nil {
		return nil, err
	}
	defer release()

	var updated *models.Assignment
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		assignment, err := s.lockAssignment(ctx, repo, input.AssignmentID)
		if err != nil {
			return err
		}
		if assignment.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment can no longer be rescheduled")
		}
		for _, slot := range assignment.Slots {
			if slot.Completed && !slotStillPresent(slot, slots) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "completed slots cannot be removed or moved").
					WithDetails(map[string]any{"installer_id": slot.InstallerID.String()})
			}
		}

		if err := s.availability.Check(ctx, slots, &assignment.ID); err != nil {
			s.countConflict(err)
			return err
		}

		carryCompletion(assignment.Slots, slots)
		if err := repo.ReplaceSlots(ctx, assignment.ID, slots); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace slots")
		}

		updates := map[string]any{"updated_at": s.now()}
		if input.Notes != nil {
			updates["notes"] = *input.Notes
		}
		if err := repo.UpdateAssignment(ctx, assignment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update assignment")
		}

		reloaded, err := repo.FindByID(ctx, assignment.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload assignment")
		}
		updated = reloaded

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAssignmentRescheduled,
			AggregateType: enums.AggregateAssignment,
			AggregateID:   assignment.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: payloads.AssignmentRescheduledEvent{
				AssignmentID: assignment.ID,
				OrderID:      assignment.OrderID,
				Slots:        slotPayloads(reloaded.Slots),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncRescheduled()
	view := NewView(*updated)
	return &view, nil
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*View, error) {
	if input.AssignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var canceled *models.Assignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		assignment, err := s.lockAssignment(ctx, repo, input.AssignmentID)
		if err != nil {
			return err
		}
		if assignment.Status == enums.AssignmentStatusCancelled {
			canceled = assignment
			return nil
		}
		if !assignment.Status.CanTransitionTo(enums.AssignmentStatusCancelled) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment can no longer be cancelled")
		}

		now := s.now()
		updates := map[string]any{
			"status":      enums.AssignmentStatusCancelled,
			"canceled_at": now,
		}
		if err := repo.UpdateAssignment(ctx, assignment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel assignment")
		}
		assignment.Status = enums.AssignmentStatusCancelled
		assignment.CanceledAt = &now
		canceled = assignment

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAssignmentCanceled,
			AggregateType: enums.AggregateAssignment,
			AggregateID:   assignment.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: payloads.AssignmentCanceledEvent{
				AssignmentID: assignment.ID,
				OrderID:      assignment.OrderID,
				CanceledAt:   now,
				Reason:       input.Reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCanceled()
	view := NewView(*canceled)
	return &view, nil
}

func (s *service) Start(ctx context.Context, input StartInput) (*View, error) {
	if input.AssignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}

	var started *models.Assignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		assignment, err := s.lockAssignment(ctx, repo, input.AssignmentID)
		if err != nil {
			return err
		}
		if assignment.Status == enums.AssignmentStatusInProgress {
			started = assignment
			return nil
		}
		if !assignment.Status.CanTransitionTo(enums.AssignmentStatusInProgress) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment cannot be started in current state")
		}

		now := s.now()
		updates := map[string]any{
			"status":     enums.AssignmentStatusInProgress,
			"started_at": now,
		}
		if err := repo.UpdateAssignment(ctx, assignment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start assignment")
		}
		assignment.Status = enums.AssignmentStatusInProgress
		assignment.StartedAt = &now
		started = assignment

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAssignmentStarted,
			AggregateType: enums.AggregateAssignment,
			AggregateID:   assignment.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: payloads.AssignmentStartedEvent{
				AssignmentID: assignment.ID,
				OrderID:      assignment.OrderID,
				StartedAt:    now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	view := NewView(*started)
	return &view, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
	}
	view := NewView(*assignment)
	return &view, nil
}

func (s *service) GetByOrder(ctx context.Context, orderID uuid.UUID) (*View, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	assignment, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no assignment for order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
	}
	view := NewView(*assignment)
	return &view, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) ([]View, string, error) {
	if filters.Status != nil {
		if _, err := enums.ParseAssignmentStatus(*filters.Status); err != nil {
			return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
		}
	}
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}
	views := make([]View, 0, len(list.Assignments))
	for _, row := range list.Assignments {
		views = append(views, NewView(row))
	}
	return views, list.NextCursor, nil
}

func (s *service) InstallerSchedule(ctx context.Context, installerID uuid.UUID, from, to time.Time) ([]SlotView, error) {
	if installerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "installer id required")
	}
	slots, err := s.repo.ListInstallerSlots(ctx, installerID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list installer slots")
	}
	views := make([]SlotView, 0, len(slots))
	for _, slot := range slots {
		views = append(views, SlotView{
			InstallerID: slot.InstallerID,
			Date:        types.NormalizeDate(slot.Date),
			Start:       slot.StartTime,
			End:         slot.EndTime,
			Completed:   slot.Completed,
			CompletedAt: slot.CompletedAt,
		})
	}
	return views, nil
}

// lockAssignment loads the aggregate row under FOR UPDATE, translating the
// Postgres lock-timeout failure into the retryable error code.
func (s *service) lockAssignment(ctx context.Context, repo Repository, id uuid.UUID) (*models.Assignment, error) {
	assignment, err := repo.FindByIDForUpdate(ctx, id, s.cfg.AggregateLockTimeout)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		if dbpkg.IsLockNotAvailable(err) {
			s.metrics.IncLockTimeout("assignment")
			return nil, pkgerrors.Wrap(pkgerrors.CodeLockTimeout, err, "assignment row is busy")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock assignment")
	}
	return assignment, nil
}

func (s *service) acquireInstallerLocks(ctx context.Context, ids []uuid.UUID) (func(), error) {
	release, err := s.locker.AcquireAll(ctx, ids)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeLockTimeout) {
			s.metrics.IncLockTimeout("installer")
		}
		return nil, err
	}
	return release, nil
}

// buildSlots validates the raw inputs and produces slot rows, applying the
// configured working-day defaults when times are omitted.
func (s *service) buildSlots(inputs []SlotInput) ([]models.AssignmentSlot, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one slot required")
	}

	defaultStart, err := types.ParseTimeOfDay(s.cfg.DefaultSlotStart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "bad default slot start")
	}
	defaultEnd, err := types.ParseTimeOfDay(s.cfg.DefaultSlotEnd)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "bad default slot end")
	}

	seen := make(map[uuid.UUID]bool, len(inputs))
	slots := make([]models.AssignmentSlot, 0, len(inputs))
	for _, in := range inputs {
		if in.InstallerID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "slot installer id required")
		}
		if seen[in.InstallerID] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "installer listed more than once").
				WithDetails(map[string]any{"installer_id": in.InstallerID.String()})
		}
		seen[in.InstallerID] = true
		if in.Date.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "slot date required")
		}

		start, end := defaultStart, defaultEnd
		if in.Start != nil {
			start = *in.Start
		}
		if in.End != nil {
			end = *in.End
		}
		window, err := types.NewTimeSlot(in.Date, start, end)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid slot window")
		}

		slots = append(slots, models.AssignmentSlot{
			InstallerID: in.InstallerID,
			Date:        window.Date,
			StartTime:   window.Start,
			EndTime:     window.End,
		})
	}
	return slots, nil
}

func (s *service) countConflict(err error) {
	if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		s.metrics.IncConflict("overlap")
	}
}

func slotInstallerIDs(slots []models.AssignmentSlot) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(slots))
	for _, slot := range slots {
		ids = append(ids, slot.InstallerID)
	}
	return ids
}

func slotPayloads(slots []models.AssignmentSlot) []payloads.SlotPayload {
	out := make([]payloads.SlotPayload, 0, len(slots))
	for _, slot := range slots {
		out = append(out, payloads.SlotPayload{
			InstallerID: slot.InstallerID,
			Date:        types.NormalizeDate(slot.Date),
			StartTime:   slot.StartTime,
			EndTime:     slot.EndTime,
		})
	}
	return out
}

// slotStillPresent reports whether a completed slot survives a reschedule
// with the same installer, date and window.
func slotStillPresent(existing models.AssignmentSlot, requested []models.AssignmentSlot) bool {
	for _, candidate := range requested {
		if candidate.InstallerID != existing.InstallerID {
			continue
		}
		if candidate.Slot() == existing.Slot() {
			return true
		}
	}
	return false
}

// carryCompletion copies completion marks from the old slot rows onto the new
// ones so a reschedule never un-completes finished work.
func carryCompletion(existing, requested []models.AssignmentSlot) {
	for i := range requested {
		for _, old := range existing {
			if old.InstallerID == requested[i].InstallerID && old.Completed {
				requested[i].Completed = true
				requested[i].CompletedAt = old.CompletedAt
			}
		}
	}
}

func buildActor(actor ActorContext) *outbox.ActorRef {
	if actor.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{
		UserID:      actor.UserID,
		InstallerID: actor.InstallerID,
		Role:        actor.Role.String(),
	}
}
