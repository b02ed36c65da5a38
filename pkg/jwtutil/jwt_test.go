package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	util := NewJWTUtil(&JWTConfig{SigningKey: "secret"})

	token, err := util.GenerateToken("sess-1", "user-1", "a@example.com", time.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := util.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
}

func TestValidateRejectsExpired(t *testing.T) {
	util := NewJWTUtil(&JWTConfig{SigningKey: "secret"})

	token, err := util.GenerateToken("sess-1", "user-1", "a@example.com", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = util.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsForeignKey(t *testing.T) {
	signer := NewJWTUtil(&JWTConfig{SigningKey: "one"})
	verifier := NewJWTUtil(&JWTConfig{SigningKey: "two"})

	token, err := signer.GenerateToken("sess-1", "user-1", "a@example.com", time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestMissingConfig(t *testing.T) {
	util := NewJWTUtil(nil)

	_, err := util.GenerateToken("s", "u", "e", time.Now().Add(time.Hour))
	assert.Error(t, err)

	_, err = util.ValidateToken("garbage")
	assert.Error(t, err)
}
