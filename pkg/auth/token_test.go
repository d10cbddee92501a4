package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/installerz-backend/pkg/config"
	"github.com/angelmondragon/installerz-backend/pkg/enums"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "installerz",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()
	userID := uuid.New()
	installerID := uuid.New()

	payload := AccessTokenPayload{
		UserID:      userID,
		InstallerID: &installerID,
		Role:        enums.RoleInstaller,
	}

	token, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user id %s, got %s", userID, claims.UserID)
	}
	if claims.InstallerID == nil || *claims.InstallerID != installerID {
		t.Fatalf("installer id did not round trip")
	}
	if claims.Role != enums.RoleInstaller {
		t.Fatalf("expected installer role, got %s", claims.Role)
	}
	if claims.Issuer != "installerz" {
		t.Fatalf("unexpected issuer %s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatalf("expected generated jti")
	}
}

func TestMintRequiresInstallerIDForInstallerRole(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "installerz",
		ExpirationMinutes: 30,
	}
	payload := AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.RoleInstaller,
	}
	if _, err := MintAccessToken(cfg, time.Now(), payload); err == nil {
		t.Fatalf("expected error for installer token without installer id")
	}
}

func TestMintRejectsInvalidRole(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "installerz",
		ExpirationMinutes: 30,
	}
	payload := AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.ActorRole("plumber"),
	}
	if _, err := MintAccessToken(cfg, time.Now(), payload); err == nil || !strings.Contains(err.Error(), "invalid actor role") {
		t.Fatalf("expected invalid role error, got %v", err)
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	mintCfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "other-service",
		ExpirationMinutes: 30,
	}
	parseCfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "installerz",
		ExpirationMinutes: 30,
	}
	token, err := MintAccessToken(mintCfg, time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.RoleScheduler,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	if _, err := ParseAccessToken(parseCfg, token); err == nil {
		t.Fatalf("expected issuer mismatch error")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "installerz",
		ExpirationMinutes: 1,
	}
	past := time.Now().Add(-time.Hour)
	token, err := MintAccessToken(cfg, past, AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatalf("expected expired token error")
	}
}
