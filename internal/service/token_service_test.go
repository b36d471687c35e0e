package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryandalviplx/OCR-bill/internal/config"
	"github.com/aryandalviplx/OCR-bill/internal/service"
)

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc := service.NewTokenService(config.JWTConfig{Secret: "test-secret", Issuer: "ocrbill"})

	token, err := svc.IssueToken("insurer-portal", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "insurer-portal", claims.ClientID)
	assert.Equal(t, "insurer-portal", claims.Subject)
	assert.Equal(t, "ocrbill", claims.Issuer)
}

func TestTokenService_RejectsWrongSecret(t *testing.T) {
	issuer := service.NewTokenService(config.JWTConfig{Secret: "secret-a", Issuer: "ocrbill"})
	validator := service.NewTokenService(config.JWTConfig{Secret: "secret-b", Issuer: "ocrbill"})

	token, err := issuer.IssueToken("insurer-portal", time.Hour)
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenService_RejectsWrongIssuer(t *testing.T) {
	issuer := service.NewTokenService(config.JWTConfig{Secret: "test-secret", Issuer: "someone-else"})
	validator := service.NewTokenService(config.JWTConfig{Secret: "test-secret", Issuer: "ocrbill"})

	token, err := issuer.IssueToken("insurer-portal", time.Hour)
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenService_RejectsExpiredToken(t *testing.T) {
	svc := service.NewTokenService(config.JWTConfig{Secret: "test-secret", Issuer: "ocrbill"})

	token, err := svc.IssueToken("insurer-portal", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenService_RejectsGarbage(t *testing.T) {
	svc := service.NewTokenService(config.JWTConfig{Secret: "test-secret", Issuer: "ocrbill"})

	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}
