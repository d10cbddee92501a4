package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/installerz-backend/api/responses"
	"github.com/angelmondragon/installerz-backend/api/validators"
	"github.com/angelmondragon/installerz-backend/internal/assignments"
	pkgerrors "github.com/angelmondragon/installerz-backend/pkg/errors"
	"github.com/angelmondragon/installerz-backend/pkg/logger"
	"github.com/angelmondragon/installerz-backend/pkg/pagination"
	"github.com/angelmondragon/installerz-backend/pkg/types"
)

// SlotBody is one requested installer booking in a create or reschedule call.
type SlotBody struct {
	InstallerID uuid.UUID        `json:"installer_id" validate:"required"`
	Date        string           `json:"date" validate:"required"`
	Start       *types.TimeOfDay `json:"start_time,omitempty"`
	End         *types.TimeOfDay `json:"end_time,omitempty"`
}

// CreateAssignmentBody is the request payload for scheduling an assignment.
type CreateAssignmentBody struct {
	OrderID uuid.UUID  `json:"order_id" validate:"required"`
	Slots   []SlotBody `json:"slots" validate:"required,min=1,dive"`
	Notes   *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// RescheduleBody replaces the full slot set of an assignment.
type RescheduleBody struct {
	Slots []SlotBody `json:"slots" validate:"required,min=1,dive"`
	Notes *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// CancelAssignmentBody carries the optional cancellation reason.
type CancelAssignmentBody struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// CompleteSlotBody names the installer whose slot is being completed.
type CompleteSlotBody struct {
	InstallerID uuid.UUID `json:"installer_id" validate:"required"`
}

// AssignmentCreate schedules a new installation assignment.
func AssignmentCreate(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body CreateAssignmentBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		slots, err := buildSlotInputs(body.Slots)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Create(r.Context(), assignments.CreateInput{
			OrderID: body.OrderID,
			Slots:   slots,
			Notes:   body.Notes,
			Actor:   actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// AssignmentReschedule swaps an assignment's slot set for a new one.
func AssignmentReschedule(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assignmentID, err := parseAssignmentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body RescheduleBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		slots, err := buildSlotInputs(body.Slots)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Reschedule(r.Context(), assignments.RescheduleInput{
			AssignmentID: assignmentID,
			Slots:        slots,
			Notes:        body.Notes,
			Actor:        actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AssignmentCancel cancels an assignment before completion.
func AssignmentCancel(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assignmentID, err := parseAssignmentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body CancelAssignmentBody
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		view, err := svc.Cancel(r.Context(), assignments.CancelInput{
			AssignmentID: assignmentID,
			Reason:       validators.SanitizeString(body.Reason, 500),
			Actor:        actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AssignmentStart moves a planned assignment into progress.
func AssignmentStart(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assignmentID, err := parseAssignmentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Start(r.Context(), assignments.StartInput{
			AssignmentID: assignmentID,
			Actor:        actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AssignmentCompleteSlot records one installer finishing their portion.
func AssignmentCompleteSlot(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assignmentID, err := parseAssignmentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body CompleteSlotBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CompleteSlot(r.Context(), assignments.CompleteSlotInput{
			AssignmentID: assignmentID,
			InstallerID:  body.InstallerID,
			Actor:        actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AssignmentDetail returns one assignment with its slots.
func AssignmentDetail(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assignmentID, err := parseAssignmentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), assignmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AssignmentByOrder returns the active assignment scheduled for an order.
func AssignmentByOrder(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawOrderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
		orderID, err := uuid.Parse(rawOrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}
		view, err := svc.GetByOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AssignmentList returns a cursor-paginated page of assignments.
func AssignmentList(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		var filters assignments.ListFilters
		if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
			filters.Status = &status
		}
		if rawInstaller := strings.TrimSpace(r.URL.Query().Get("installer_id")); rawInstaller != "" {
			installerID, err := uuid.Parse(rawInstaller)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid installer id"))
				return
			}
			filters.InstallerID = &installerID
		}

		views, nextCursor, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"assignments": views,
			"next_cursor": nextCursor,
		})
	}
}

func parseAssignmentID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "assignmentId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid assignment id")
	}
	return id, nil
}

func buildSlotInputs(bodies []SlotBody) ([]assignments.SlotInput, error) {
	slots := make([]assignments.SlotInput, 0, len(bodies))
	for _, body := range bodies {
		date, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid slot date").
				WithDetails(map[string]any{"date": body.Date})
		}
		slots = append(slots, assignments.SlotInput{
			InstallerID: body.InstallerID,
			Date:        date,
			Start:       body.Start,
			End:         body.End,
		})
	}
	return slots, nil
}
