package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-service.com/todo-service/internal/constants"
	apperrors "todo-service.com/todo-service/internal/errors"
)

func newManager() *TokenManager {
	return NewTokenManager(TokenConfig{Secret: "secret", Issuer: "todo", TTL: time.Minute})
}

func TestIssueAndVerify(t *testing.T) {
	m := newManager()

	token, err := m.Issue("mareNowa", constants.RoleAdmin)
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "mareNowa", claims.Subject)
	assert.Equal(t, constants.RoleAdmin, claims.Role)

	_, err = m.Issue("mareNowa", "ROOT")
	assert.Error(t, err)
}

func TestVerifyRejects(t *testing.T) {
	m := newManager()
	token, err := m.Issue("mareNowa", constants.RoleUser)
	require.NoError(t, err)

	other := NewTokenManager(TokenConfig{Secret: "other", Issuer: "todo", TTL: time.Minute})
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign := NewTokenManager(TokenConfig{Secret: "secret", Issuer: "someone-else", TTL: time.Minute})
	_, err = foreign.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestRequireRoles(t *testing.T) {
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	gate := RequireRoles(constants.RoleAdmin)(ok)

	run := func(p *Principal) error {
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		if p != nil {
			c.Set(principalKey, *p)
		}
		return gate(c)
	}

	assert.ErrorIs(t, run(nil), apperrors.ErrUnauthorized)
	assert.ErrorIs(t, run(&Principal{Subject: "u", Role: constants.RoleUser}), apperrors.ErrForbidden)
	assert.NoError(t, run(&Principal{Subject: "a", Role: constants.RoleAdmin}))
}
