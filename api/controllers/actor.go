package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/installerz-backend/api/middleware"
	"github.com/angelmondragon/installerz-backend/internal/assignments"
	"github.com/angelmondragon/installerz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/installerz-backend/pkg/errors"
)

// actorFromRequest rebuilds the authenticated actor from the request context
// seeded by the auth middleware.
func actorFromRequest(r *http.Request) (assignments.ActorContext, error) {
	rawUser := middleware.UserIDFromContext(r.Context())
	if rawUser == "" {
		return assignments.ActorContext{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	userID, err := uuid.Parse(rawUser)
	if err != nil {
		return assignments.ActorContext{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user identity")
	}

	actor := assignments.ActorContext{UserID: userID}
	if rawRole := middleware.RoleFromContext(r.Context()); rawRole != "" {
		role, err := enums.ParseActorRole(rawRole)
		if err != nil {
			return assignments.ActorContext{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor role")
		}
		actor.Role = role
	}
	if rawInstaller := middleware.InstallerIDFromContext(r.Context()); rawInstaller != "" {
		installerID, err := uuid.Parse(rawInstaller)
		if err != nil {
			return assignments.ActorContext{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid installer identity")
		}
		actor.InstallerID = &installerID
	}
	return actor, nil
}
