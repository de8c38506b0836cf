package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(JWTConfig{Secret: "test-secret", Issuer: "banking-service", Audience: "banking-api", TTL: time.Minute})
}

func TestGenerateAndParse(t *testing.T) {
	m := newTestManager()

	tok, expires, err := m.Generate("User", "UA12305299123456789")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expires, 2*time.Second)

	claims, err := m.ParseAndValidate(tok)
	require.NoError(t, err)
	assert.Equal(t, "User", claims.Role)
	assert.Equal(t, "UA12305299123456789", claims.AccountNumber)
	assert.Equal(t, "UA12305299123456789", claims.Subject)
}

func TestParseRejectsExpired(t *testing.T) {
	m := newTestManager()
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	tok, _, err := m.Generate("Admin", "")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ParseAndValidate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	other := NewManager(JWTConfig{Secret: "another", Issuer: "banking-service", Audience: "banking-api"})
	tok, _, err := other.Generate("Admin", "")
	require.NoError(t, err)

	_, err = newTestManager().ParseAndValidate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsWrongAudience(t *testing.T) {
	other := NewManager(JWTConfig{Secret: "test-secret", Issuer: "banking-service", Audience: "someone-else"})
	tok, _, err := other.Generate("Admin", "")
	require.NoError(t, err)

	_, err = newTestManager().ParseAndValidate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := newTestManager().ParseAndValidate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
