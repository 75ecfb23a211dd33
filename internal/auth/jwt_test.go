package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	i, err := NewTokenIssuer("test-secret", "offline-gateway", "dashboard-surfaces")
	require.NoError(t, err)
	return i
}

func TestIssueAndValidateToken(t *testing.T) {
	i := newIssuer(t)
	token, clientID, err := i.Issue()
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, clientID)

	claims, err := i.Validate(token)
	require.NoError(t, err)
	require.Equal(t, clientID, claims.ClientID)
}

func TestValidateToken_Invalid(t *testing.T) {
	_, err := newIssuer(t).Validate("invalid.token")
	require.Error(t, err)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := newIssuer(t).Generate("c-1")
	require.NoError(t, err)

	other, err := NewTokenIssuer("other-secret", "offline-gateway", "dashboard-surfaces")
	require.NoError(t, err)
	_, err = other.Validate(token)
	require.Error(t, err)
}

func TestValidateToken_WrongAudience(t *testing.T) {
	token, err := newIssuer(t).Generate("c-1")
	require.NoError(t, err)

	other, err := NewTokenIssuer("test-secret", "offline-gateway", "someone-else")
	require.NoError(t, err)
	_, err = other.Validate(token)
	require.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	i := newIssuer(t)
	i.now = func() time.Time { return time.Now().Add(-2 * TokenTTL) }
	token, err := i.Generate("c-1")
	require.NoError(t, err)

	i.now = time.Now
	_, err = i.Validate(token)
	require.Error(t, err)
}

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer("", "iss", "aud")
	require.Error(t, err)
}
