// Package session implements dashboard login sessions.
//
// A session lives in a Store (Redis in production, memory when Redis is not
// reachable) and is addressed by a random id carried in a signed cookie.
// The cookie holds nothing but the id: the username and login flag only
// exist server-side.
package session

import (
	"context"
	"crypto/sha256"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/pkg/errors"
)

// ErrNotFound is returned by stores for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Session is the server-side state of one logged-in browser.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	LoggedIn  bool      `json:"logged_in"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store persists sessions.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// Options configures the cookie side of the Manager.
type Options struct {
	CookieName string
	Secret     string
	TTL        time.Duration
	Secure     bool
	Path       string
}

// Manager ties the Store to the signed cookie.
type Manager struct {
	store Store
	codec *securecookie.SecureCookie
	opts  Options
	now   func() time.Time
}

func NewManager(store Store, opts Options) *Manager {
	if opts.Path == "" {
		opts.Path = "/"
	}

	codec := securecookie.New(deriveKey(opts.Secret), nil)
	codec.MaxAge(int(opts.TTL.Seconds()))

	return &Manager{
		store: store,
		codec: codec,
		opts:  opts,
		now:   time.Now,
	}
}

// Load returns the session of the request, or nil when the request carries
// no valid session cookie.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.opts.CookieName)
	if err != nil {
		return nil, nil
	}

	var id string
	if err := m.codec.Decode(m.opts.CookieName, cookie.Value, &id); err != nil {
		return nil, nil
	}

	s, err := m.store.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.Expired(m.now()) {
		_ = m.store.Delete(r.Context(), id)
		return nil, nil
	}
	return s, nil
}

// Login starts a new session for username and sets the cookie. Usernames are
// stored upper-cased, the way the directory reports them.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, username string) (*Session, error) {
	// A fresh id on every login prevents session fixation.
	if old, _ := m.Load(r); old != nil {
		_ = m.store.Delete(r.Context(), old.ID)
	}

	now := m.now()
	s := &Session{
		ID:        uuid.NewString(),
		Username:  strings.ToUpper(strings.TrimSpace(username)),
		LoggedIn:  true,
		CreatedAt: now,
		ExpiresAt: now.Add(m.opts.TTL),
	}
	if err := m.store.Save(r.Context(), s); err != nil {
		return nil, errors.Wrap(err, "save session")
	}

	encoded, err := m.codec.Encode(m.opts.CookieName, s.ID)
	if err != nil {
		return nil, errors.Wrap(err, "encode session cookie")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    encoded,
		Path:     m.opts.Path,
		Expires:  s.ExpiresAt,
		MaxAge:   int(m.opts.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return s, nil
}

// Logout destroys the session of the request and clears the cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	s, err := m.Load(r)
	if err != nil {
		return err
	}
	if s != nil {
		if err := m.store.Delete(r.Context(), s.ID); err != nil {
			return errors.Wrap(err, "delete session")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    "",
		Path:     m.opts.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// deriveKey hashes the configured secret into the 32 byte HMAC key
// securecookie expects. Secret length is enforced by the configuration.
func deriveKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}
