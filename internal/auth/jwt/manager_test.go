package jwt

import (
	"testing"
	"time"

	"github.com/karobar-labs/karobar-backend/pkg/config"
	"github.com/karobar-labs/karobar-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.JWTConfig {
	return &config.JWTConfig{
		Secret:       "test-secret",
		AccessExpiry: time.Hour,
		Issuer:       "karobar",
	}
}

func TestManager_GenerateAndValidate(t *testing.T) {
	m := NewManager(testConfig())

	user := &UserInfo{
		ID:         "owner-1",
		Role:       RoleOwner,
		BusinessID: "biz-1",
	}

	token, expiry, err := m.Generate(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, 5*time.Second)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", claims.UserID)
	assert.Equal(t, RoleOwner, claims.Role)
	assert.Equal(t, "biz-1", claims.BusinessID)
	assert.Equal(t, "karobar", claims.Issuer)
}

func TestManager_Validate_Expired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessExpiry = -time.Minute
	m := NewManager(cfg)

	token, _, err := m.Generate(&UserInfo{ID: "u1", Role: RoleEmployee})
	require.NoError(t, err)

	_, err = m.Validate(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTokenExpired))
}

func TestManager_Validate_WrongSecret(t *testing.T) {
	m := NewManager(testConfig())
	token, _, err := m.Generate(&UserInfo{ID: "u1", Role: RoleOwner})
	require.NoError(t, err)

	other := NewManager(&config.JWTConfig{Secret: "different", AccessExpiry: time.Hour})
	_, err = other.Validate(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTokenInvalid))
}

func TestManager_Validate_Garbage(t *testing.T) {
	m := NewManager(testConfig())
	_, err := m.Validate("not.a.token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTokenInvalid))
}
