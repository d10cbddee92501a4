package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/installerz-backend/api/middleware"
	"github.com/angelmondragon/installerz-backend/api/responses"
	"github.com/angelmondragon/installerz-backend/api/validators"
	"github.com/angelmondragon/installerz-backend/internal/assignments"
	"github.com/angelmondragon/installerz-backend/internal/installers"
	"github.com/angelmondragon/installerz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/installerz-backend/pkg/errors"
	"github.com/angelmondragon/installerz-backend/pkg/logger"
	"github.com/angelmondragon/installerz-backend/pkg/pagination"
)

// SetAvailabilityBody toggles the installer's coarse availability flag.
type SetAvailabilityBody struct {
	Availability string `json:"availability" validate:"required"`
}

// InstallerDetail returns one installer profile.
func InstallerDetail(svc installers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		installerID, err := parseInstallerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), installerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// InstallerList returns a cursor-paginated page of installers.
func InstallerList(svc installers.Service, logg *logger.Logger) http.HandlerFunc {
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

		var filters installers.ListFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("availability")); raw != "" {
			availability, err := enums.ParseInstallerAvailability(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid availability filter"))
				return
			}
			filters.Availability = &availability
		}
		if zone := strings.TrimSpace(r.URL.Query().Get("zone")); zone != "" {
			filters.Zone = &zone
		}
		if specialty := strings.TrimSpace(r.URL.Query().Get("specialty")); specialty != "" {
			filters.Specialty = &specialty
		}

		views, nextCursor, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"installers":  views,
			"next_cursor": nextCursor,
		})
	}
}

// InstallerSetAvailability updates the coarse availability flag.
func InstallerSetAvailability(svc installers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		installerID, err := parseInstallerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body SetAvailabilityBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		availability, err := enums.ParseInstallerAvailability(strings.TrimSpace(body.Availability))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid availability value"))
			return
		}

		view, err := svc.SetAvailability(r.Context(), installers.SetAvailabilityInput{
			InstallerID:  installerID,
			Availability: availability,
			ActorUserID:  actor.UserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// InstallerSchedule returns an installer's booked slots within a date range.
// Installer tokens may only read their own schedule.
func InstallerSchedule(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		installerID, err := parseInstallerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if role := middleware.RoleFromContext(r.Context()); role == string(enums.RoleInstaller) {
			if middleware.InstallerIDFromContext(r.Context()) != installerID.String() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "installers may only view their own schedule"))
				return
			}
		}

		from, err := parseDateQuery(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := parseDateQuery(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		slots, err := svc.InstallerSchedule(r.Context(), installerID, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"installer_id": installerID,
			"slots":        slots,
		})
	}
}

func parseInstallerID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "installerId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "installer id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid installer id")
	}
	return id, nil
}

func parseDateQuery(r *http.Request, key string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return time.Time{}, nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date").
			WithDetails(map[string]any{"field": key})
	}
	return date, nil
}
