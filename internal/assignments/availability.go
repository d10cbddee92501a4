package assignments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/installerz-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/installerz-backend/pkg/errors"
	"github.com/angelmondragon/installerz-backend/pkg/types"
)

// installerReader is the slice of the installers repository the checker needs.
type installerReader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Installer, error)
}

type availabilityChecker struct {
	installers installerReader
	repo       Repository
}

// NewAvailabilityChecker wires the conflict detector over the installer and
// assignment stores.
func NewAvailabilityChecker(installers installerReader, repo Repository) (AvailabilityChecker, error) {
	if installers == nil {
		return nil, fmt.Errorf("installer reader required")
	}
	if repo == nil {
		return nil, fmt.Errorf("assignments repository required")
	}
	return &availabilityChecker{installers: installers, repo: repo}, nil
}

// Check validates the requested slots against installer availability and every
// existing non-cancelled booking. A nil error means the whole set can be
// scheduled. excludeAssignmentID skips an assignment's own slots so
// reschedules don't collide with themselves.
func (c *availabilityChecker) Check(ctx context.Context, slots []models.AssignmentSlot, excludeAssignmentID *uuid.UUID) error {
	if len(slots) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one slot required")
	}

	installerIDs := make([]uuid.UUID, 0, len(slots))
	dates := make([]time.Time, 0, len(slots))
	seenInstallers := make(map[uuid.UUID]bool, len(slots))
	seenDates := make(map[time.Time]bool, len(slots))
	for _, slot := range slots {
		if !seenInstallers[slot.InstallerID] {
			seenInstallers[slot.InstallerID] = true
			installerIDs = append(installerIDs, slot.InstallerID)
		}
		date := types.NormalizeDate(slot.Date)
		if !seenDates[date] {
			seenDates[date] = true
			dates = append(dates, date)
		}
	}

	installers, err := c.installers.FindByIDs(ctx, installerIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load installers")
	}
	byID := make(map[uuid.UUID]models.Installer, len(installers))
	for _, installer := range installers {
		byID[installer.ID] = installer
	}
	for _, id := range installerIDs {
		installer, ok := byID[id]
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "installer not found").
				WithDetails(map[string]any{"installer_id": id.String()})
		}
		if !installer.Availability.CanTakeWork() {
			return pkgerrors.New(pkgerrors.CodeConflict, "installer is not available for work").
				WithDetails(map[string]any{
					"installer_id": id.String(),
					"availability": installer.Availability.String(),
				})
		}
	}

	existing, err := c.repo.FindInstallerSlots(ctx, installerIDs, dates, excludeAssignmentID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booked slots")
	}

	var conflicts []Conflict
	for _, requested := range slots {
		want := requested.Slot()
		for _, booked := range existing {
			if booked.InstallerID != requested.InstallerID {
				continue
			}
			if !want.Overlaps(booked.Slot()) {
				continue
			}
			conflicts = append(conflicts, Conflict{
				InstallerID:    booked.InstallerID,
				AssignmentID:   booked.AssignmentID,
				Date:           types.NormalizeDate(booked.Date),
				Start:          booked.StartTime,
				End:            booked.EndTime,
				RequestedStart: want.Start,
				RequestedEnd:   want.End,
			})
		}
	}
	if len(conflicts) > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "installer already booked in requested window").
			WithDetails(map[string]any{"conflicts": conflicts})
	}
	return nil
}
