package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/installerz-backend/internal/assignments"
	"github.com/angelmondragon/installerz-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/installerz-backend/pkg/errors"
	"github.com/angelmondragon/installerz-backend/pkg/logger"
)

const startableBatchSize = 100

// StartAssignmentsJobParams configure the auto-start sweep.
type StartAssignmentsJobParams struct {
	Logger    *logger.Logger
	Startable startableReader
	Starter   assignmentStarter
	BatchSize int
}

type startableReader interface {
	FindStartable(ctx context.Context, now time.Time, limit int) ([]models.Assignment, error)
}

type assignmentStarter interface {
	Start(ctx context.Context, input assignments.StartInput) (*assignments.View, error)
}

// NewStartAssignmentsJob builds the cron job that flips planned assignments to
// in_progress once their earliest slot window opens.
func NewStartAssignmentsJob(params StartAssignmentsJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Startable == nil {
		return nil, fmt.Errorf("startable reader required")
	}
	if params.Starter == nil {
		return nil, fmt.Errorf("assignment starter required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = startableBatchSize
	}
	return &startAssignmentsJob{
		logg:      params.Logger,
		startable: params.Startable,
		starter:   params.Starter,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type startAssignmentsJob struct {
	logg      *logger.Logger
	startable startableReader
	starter   assignmentStarter
	batchSize int
	now       func() time.Time
}

func (j *startAssignmentsJob) Name() string { return "start-assignments" }

func (j *startAssignmentsJob) Run(ctx context.Context) error {
	due, err := j.startable.FindStartable(ctx, j.now(), j.batchSize)
	if err != nil {
		return fmt.Errorf("find startable assignments: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	started := 0
	var errs error
	for _, assignment := range due {
		_, err := j.starter.Start(ctx, assignments.StartInput{AssignmentID: assignment.ID})
		if err != nil {
			// Another worker may have raced us to the same row; state
			// conflicts and lock timeouts are not failures of the sweep.
			if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) ||
				pkgerrors.IsCode(err, pkgerrors.CodeLockTimeout) {
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("start assignment %s: %w", assignment.ID, err))
			continue
		}
		started++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"due":     len(due),
		"started": started,
	})
	j.logg.Info(logCtx, "assignment auto-start sweep complete")
	return errs
}
