package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/geoquest/internal/progress"
)

func newPlayers(t *testing.T) *Players {
	t.Helper()
	db, err := progress.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, progress.Migrate(db))
	return NewPlayers(db)
}

func TestValidateSignup(t *testing.T) {
	assert.NoError(t, ValidateSignup("euclid_3", "password1"))
	assert.Error(t, ValidateSignup("ab", "password1"))
	assert.Error(t, ValidateSignup("bad name", "password1"))
	assert.Error(t, ValidateSignup("euclid", "short"))
}

func TestCreateAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	ps := newPlayers(t)

	p, err := ps.Create(ctx, "  Euclid ", "elements13")
	require.NoError(t, err)
	assert.Equal(t, "Euclid", p.Username)
	assert.NotEqual(t, "elements13", p.PasswordHash)

	_, err = ps.Create(ctx, "euclid", "another123")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	got, err := ps.Authenticate(ctx, "EUCLID", "elements13")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = ps.Authenticate(ctx, "euclid", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = ps.Authenticate(ctx, "nobody", "elements13")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	byID, err := ps.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Euclid", byID.Username)
	_, err = ps.ByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenID(t *testing.T) {
	a, b := GenID(), GenID()
	assert.Len(t, a, 22)
	assert.NotEqual(t, a, b)
}

func TestTokens(t *testing.T) {
	tk := NewTokens("secret", time.Hour, "tok", false)
	s, exp, err := tk.Sign("id1", "euclid")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	c, err := tk.Parse(s)
	require.NoError(t, err)
	assert.Equal(t, Claims{ID: "id1", Username: "euclid"}, c)

	other := NewTokens("other", time.Hour, "tok", false)
	_, err = other.Parse(s)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokens("secret", -time.Hour, "tok", false)
	old, _, err := expired.Sign("id1", "euclid")
	require.NoError(t, err)
	_, err = tk.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestFromRequest(t *testing.T) {
	tk := NewTokens("secret", time.Hour, "tok", false)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", tk.FromRequest(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "tok", Value: "fromcookie"})
	assert.Equal(t, "fromcookie", tk.FromRequest(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", tk.FromRequest(r))
}

func TestEnsureAnonID(t *testing.T) {
	tk := NewTokens("secret", time.Hour, "tok", false)

	w := httptest.NewRecorder()
	id := tk.EnsureAnonID(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, id)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, id, cookies[0].Value)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: AnonCookieName, Value: "known"})
	w = httptest.NewRecorder()
	assert.Equal(t, "known", tk.EnsureAnonID(w, r))
	assert.Empty(t, w.Result().Cookies())
}
