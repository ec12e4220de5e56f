package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/grupotelles/comercial/internal/lib/directory"
	"github.com/grupotelles/comercial/internal/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// authenticator checks credentials against the company directory.
type authenticator interface {
	Authenticate(ctx context.Context, usuario, senha string) error
}

// accessList answers whether a user may see invoices.
type accessList interface {
	Allowed(username string) bool
}

// LoginError is a failed login as the login page shows it.
type LoginError struct {
	Message string
	Detail  string
}

func (e *LoginError) Error() string {
	return e.Message + ": " + e.Detail
}

// AuthService logs users in through the directory and keeps their sessions.
type AuthService struct {
	directory authenticator
	sessions  *session.Manager
	invoices  accessList
	logger    *zerolog.Logger
}

func NewAuthService(directory authenticator, sessions *session.Manager, invoices accessList, logger *zerolog.Logger) *AuthService {
	return &AuthService{
		directory: directory,
		sessions:  sessions,
		invoices:  invoices,
		logger:    logger,
	}
}

// Login authenticates usuario and opens a session. Failures are returned as
// *LoginError.
func (s *AuthService) Login(ctx context.Context, w http.ResponseWriter, r *http.Request, usuario, senha string) (*session.Session, error) {
	usuario = strings.TrimSpace(usuario)
	if usuario == "" || senha == "" {
		return nil, &LoginError{Message: "Usuário ou senha inválidos", Detail: "Informe usuário e senha."}
	}

	if err := s.directory.Authenticate(ctx, usuario, senha); err != nil {
		var authErr *directory.AuthError
		if errors.As(err, &authErr) {
			return nil, &LoginError{Message: "Usuário ou senha inválidos", Detail: authErr.Detail}
		}
		return nil, &LoginError{Message: "Falha na autenticação", Detail: errors.Cause(err).Error()}
	}

	sess, err := s.sessions.Login(w, r, usuario)
	if err != nil {
		return nil, errors.Wrap(err, "open session")
	}
	s.logger.Info().Str("user", sess.Username).Msg("user logged in")
	return sess, nil
}

// Logout destroys the session of the request.
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) error {
	return s.sessions.Logout(w, r)
}

// Current returns the logged-in session of the request, or nil.
func (s *AuthService) Current(r *http.Request) (*session.Session, error) {
	sess, err := s.sessions.Load(r)
	if err != nil || sess == nil || !sess.LoggedIn {
		return nil, err
	}
	return sess, nil
}

// CanAccessInvoices reports whether username is on the invoice allow-list.
func (s *AuthService) CanAccessInvoices(username string) bool {
	return s.invoices != nil && s.invoices.Allowed(username)
}
