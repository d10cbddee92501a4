package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/installerz-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	InstallerID *uuid.UUID
	Role        enums.ActorRole
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued to clients. Installer
// accounts carry their installer id so slot-completion calls can be scoped.
type AccessTokenClaims struct {
	UserID      uuid.UUID       `json:"user_id"`
	InstallerID *uuid.UUID      `json:"installer_id,omitempty"`
	Role        enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
