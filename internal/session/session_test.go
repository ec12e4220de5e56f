package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(store Store) *Manager {
	return NewManager(store, Options{
		CookieName: "comercial.sid",
		Secret:     "test-secret",
		TTL:        time.Hour,
		Path:       "/comercial",
	})
}

func withCookies(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/comercial/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestLoginAndLoad(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(store)

	rec := httptest.NewRecorder()
	s, err := m.Login(rec, httptest.NewRequest(http.MethodPost, "/comercial/login", nil), " joao.silva ")
	require.NoError(t, err)
	assert.Equal(t, "JOAO.SILVA", s.Username)
	assert.True(t, s.LoggedIn)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotContains(t, cookies[0].Value, "JOAO")

	loaded, err := m.Load(withCookies(rec))
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, s.ID, loaded.ID)
}

func TestLoadRejectsTamperedCookie(t *testing.T) {
	m := newTestManager(NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/comercial/", nil)
	req.AddCookie(&http.Cookie{Name: "comercial.sid", Value: "forged"})

	s, err := m.Load(req)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestLoadWithoutCookie(t *testing.T) {
	m := newTestManager(NewMemoryStore())

	s, err := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestLogoutDestroysSession(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(store)

	rec := httptest.NewRecorder()
	_, err := m.Login(rec, httptest.NewRequest(http.MethodPost, "/", nil), "maria")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	out := httptest.NewRecorder()
	require.NoError(t, m.Logout(out, withCookies(rec)))
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, -1, out.Result().Cookies()[0].MaxAge)

	s, err := m.Load(withCookies(rec))
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(context.Background(), &Session{ID: "a", ExpiresAt: now.Add(time.Minute)}))

	_, err := store.Get(context.Background(), "a")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(context.Background(), "a")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDeriveKey(t *testing.T) {
	long := "a-very-long-secret-that-exceeds-thirty-two-bytes"
	assert.Len(t, deriveKey(long), 32)
	assert.NotEqual(t, deriveKey(long+"1"), deriveKey(long+"2"))

	// Short secrets are not zero padded into the key.
	assert.NotEqual(t, []byte("short"), deriveKey("short")[:5])
}
