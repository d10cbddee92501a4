package assignments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/installerz-backend/pkg/db/models"
	"github.com/angelmondragon/installerz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/installerz-backend/pkg/errors"
	"github.com/angelmondragon/installerz-backend/pkg/types"
)

type stubInstallerReader struct {
	installers map[uuid.UUID]models.Installer
}

func newStubInstallerReader() *stubInstallerReader {
	return &stubInstallerReader{installers: make(map[uuid.UUID]models.Installer)}
}

func (s *stubInstallerReader) add(availability enums.InstallerAvailability) uuid.UUID {
	id := uuid.New()
	s.installers[id] = models.Installer{
		ID:           id,
		FullName:     "Test Installer",
		Availability: availability,
	}
	return id
}

func (s *stubInstallerReader) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Installer, error) {
	var out []models.Installer
	for _, id := range ids {
		if installer, ok := s.installers[id]; ok {
			out = append(out, installer)
		}
	}
	return out, nil
}

func newCheckerFixture(t *testing.T) (*stubInstallerReader, *stubAssignmentsRepo, AvailabilityChecker) {
	t.Helper()
	installers := newStubInstallerReader()
	repo := newStubAssignmentsRepo()
	checker, err := NewAvailabilityChecker(installers, repo)
	if err != nil {
		t.Fatalf("build checker: %v", err)
	}
	return installers, repo, checker
}

func slotFor(t *testing.T, installerID uuid.UUID, date time.Time, start, end string) models.AssignmentSlot {
	t.Helper()
	return models.AssignmentSlot{
		InstallerID: installerID,
		Date:        types.NormalizeDate(date),
		StartTime:   mustTime(t, start),
		EndTime:     mustTime(t, end),
	}
}

func TestCheckAcceptsFreeInstaller(t *testing.T) {
	installers, _, checker := newCheckerFixture(t)
	installerID := installers.add(enums.InstallerAvailable)
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	err := checker.Check(context.Background(), []models.AssignmentSlot{
		slotFor(t, installerID, date, "09:00", "12:00"),
	}, nil)
	if err != nil {
		t.Fatalf("expected no conflict, got %v", err)
	}
}

func TestCheckRejectsUnknownInstaller(t *testing.T) {
	_, _, checker := newCheckerFixture(t)
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	err := checker.Check(context.Background(), []models.AssignmentSlot{
		slotFor(t, uuid.New(), date, "09:00", "12:00"),
	}, nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCheckRejectsUnavailableInstaller(t *testing.T) {
	installers, _, checker := newCheckerFixture(t)
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	for _, availability := range []enums.InstallerAvailability{enums.InstallerUnavailable, enums.InstallerOnLeave} {
		installerID := installers.add(availability)
		err := checker.Check(context.Background(), []models.AssignmentSlot{
			slotFor(t, installerID, date, "09:00", "12:00"),
		}, nil)
		if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			t.Fatalf("%s: expected conflict, got %v", availability, err)
		}
	}
}

func TestCheckDetectsOverlap(t *testing.T) {
	installers, repo, checker := newCheckerFixture(t)
	installerID := installers.add(enums.InstallerAvailable)
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	booked := slotFor(t, installerID, date, "09:00", "12:00")
	booked.AssignmentID = uuid.New()
	repo.slotsByInst[installerID] = []models.AssignmentSlot{booked}

	err := checker.Check(context.Background(), []models.AssignmentSlot{
		slotFor(t, installerID, date, "11:00", "15:00"),
	}, nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCheckAllowsTouchingWindows(t *testing.T) {
	installers, repo, checker := newCheckerFixture(t)
	installerID := installers.add(enums.InstallerAvailable)
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	booked := slotFor(t, installerID, date, "09:00", "12:00")
	booked.AssignmentID = uuid.New()
	repo.slotsByInst[installerID] = []models.AssignmentSlot{booked}

	// Back-to-back windows share an endpoint but do not collide.
	err := checker.Check(context.Background(), []models.AssignmentSlot{
		slotFor(t, installerID, date, "12:00", "15:00"),
	}, nil)
	if err != nil {
		t.Fatalf("touching windows must not conflict, got %v", err)
	}
}

func TestCheckAllowsSameWindowDifferentDay(t *testing.T) {
	installers, repo, checker := newCheckerFixture(t)
	installerID := installers.add(enums.InstallerAvailable)
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	booked := slotFor(t, installerID, date, "09:00", "12:00")
	booked.AssignmentID = uuid.New()
	repo.slotsByInst[installerID] = []models.AssignmentSlot{booked}

	err := checker.Check(context.Background(), []models.AssignmentSlot{
		slotFor(t, installerID, date.AddDate(0, 0, 1), "09:00", "12:00"),
	}, nil)
	if err != nil {
		t.Fatalf("different days must not conflict, got %v", err)
	}
}

func TestCheckExcludesOwnAssignment(t *testing.T) {
	installers, repo, checker := newCheckerFixture(t)
	installerID := installers.add(enums.InstallerAvailable)
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	assignmentID := uuid.New()

	booked := slotFor(t, installerID, date, "09:00", "12:00")
	booked.AssignmentID = assignmentID
	repo.slotsByInst[installerID] = []models.AssignmentSlot{booked}

	// A reschedule keeping the same window must not collide with itself.
	err := checker.Check(context.Background(), []models.AssignmentSlot{
		slotFor(t, installerID, date, "10:00", "13:00"),
	}, &assignmentID)
	if err != nil {
		t.Fatalf("own slots must be excluded, got %v", err)
	}
}

func TestCheckReportsConflictDetails(t *testing.T) {
	installers, repo, checker := newCheckerFixture(t)
	installerID := installers.add(enums.InstallerAvailable)
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	booked := slotFor(t, installerID, date, "09:00", "12:00")
	booked.AssignmentID = uuid.New()
	repo.slotsByInst[installerID] = []models.AssignmentSlot{booked}

	err := checker.Check(context.Background(), []models.AssignmentSlot{
		slotFor(t, installerID, date, "10:00", "14:00"),
	}, nil)
	if err == nil {
		t.Fatalf("expected conflict")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected app error, got %T", err)
	}
	details, ok := appErr.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %+v", appErr.Details())
	}
	conflicts, ok := details["conflicts"].([]Conflict)
	if !ok || len(conflicts) != 1 {
		t.Fatalf("expected one conflict detail, got %+v", details)
	}
	if conflicts[0].InstallerID != installerID {
		t.Fatalf("conflict names wrong installer")
	}
}
