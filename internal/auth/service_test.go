package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*Service, *time.Time) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("lunch"), bcrypt.MinCost)
	require.NoError(t, err)

	s, err := NewService(models.AdminConfig{ID: "admin@bento.com", PasswordHash: string(hash)}, nil)
	require.NoError(t, err)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestCooldownForFailCount(t *testing.T) {
	cases := map[int]time.Duration{
		0:  0,
		1:  2 * time.Second,
		2:  4 * time.Second,
		4:  16 * time.Second,
		5:  30 * time.Second,
		10: 30 * time.Second,
	}
	for failures, want := range cases {
		assert.Equal(t, want, CooldownForFailCount(failures), "failures=%d", failures)
	}
}

func TestLoginAndLogout(t *testing.T) {
	s, _ := newTestService(t)

	var states []bool
	unsubscribe := s.OnAuthStateChange(func(authenticated bool) {
		states = append(states, authenticated)
	})

	assert.False(t, s.Authenticated())
	require.NoError(t, s.Login("admin@bento.com", "lunch"))
	assert.True(t, s.Authenticated())

	require.NoError(t, s.Login("admin@bento.com", "lunch"))
	s.Logout()
	assert.False(t, s.Authenticated())

	unsubscribe()
	require.NoError(t, s.Login("admin@bento.com", "lunch"))

	assert.Equal(t, []bool{true, false}, states)
}

func TestLoginThrottlesAfterFailure(t *testing.T) {
	s, now := newTestService(t)

	assert.ErrorIs(t, s.Login("admin@bento.com", "wrong"), ErrInvalidCredentials)

	err := s.Login("admin@bento.com", "lunch")
	var throttled *ThrottledError
	require.True(t, errors.As(err, &throttled))
	assert.Equal(t, 2*time.Second, throttled.Wait)
	assert.False(t, s.Authenticated())

	*now = now.Add(2 * time.Second)
	assert.ErrorIs(t, s.Login("someone@else", "lunch"), ErrInvalidCredentials)

	err = s.Login("admin@bento.com", "lunch")
	require.True(t, errors.As(err, &throttled))
	assert.Equal(t, 4*time.Second, throttled.Wait)

	*now = now.Add(4 * time.Second)
	require.NoError(t, s.Login("admin@bento.com", "lunch"))
	assert.Equal(t, 0, s.throttle.failures)
}

func TestPlainPasswordIsHashed(t *testing.T) {
	s, err := NewService(models.AdminConfig{ID: "admin", Password: "secret"}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, "secret", string(s.hash))
	assert.True(t, s.Configured())
	require.NoError(t, s.Login("admin", "secret"))
}

func TestUnconfigured(t *testing.T) {
	s, err := NewService(models.AdminConfig{ID: "admin"}, nil)
	require.NoError(t, err)
	assert.False(t, s.Configured())
	assert.ErrorIs(t, s.Login("admin", ""), ErrNotConfigured)

	_, err = NewService(models.AdminConfig{ID: "admin", PasswordHash: "not-a-hash"}, nil)
	assert.Error(t, err)
}
