package handler

import (
	"net/http"

	"github.com/grupotelles/comercial/internal/middleware"
	"github.com/grupotelles/comercial/internal/server"
	"github.com/grupotelles/comercial/internal/service"
	"github.com/grupotelles/comercial/internal/view"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthHandler serves login, logout and the pages that only need a session.
type AuthHandler struct {
	Handler
	auth *service.AuthService
}

func NewAuthHandler(s *server.Server, auth *service.AuthService) *AuthHandler {
	return &AuthHandler{
		Handler: NewHandler(s),
		auth:    auth,
	}
}

// Root sends logged-in users to the dashboard and everyone else to login.
func (h *AuthHandler) Root(c echo.Context) error {
	if middleware.GetUser(c) != "" {
		return c.Redirect(http.StatusFound, view.BasePath)
	}
	return c.Redirect(http.StatusFound, middleware.LoginPath)
}

func (h *AuthHandler) LoginForm(c echo.Context) error {
	return c.Render(http.StatusOK, view.PageLogin, page(c, "Login", "", view.LoginView{}))
}

// Login authenticates against the directory. A rejected login renders the
// form again with the reason instead of going through the error handler.
func (h *AuthHandler) Login(c echo.Context) error {
	req := new(LoginRequest)
	if err := c.Bind(req); err != nil {
		return err
	}

	_, err := h.auth.Login(c.Request().Context(), c.Response(), c.Request(), req.Usuario, req.Senha)
	if err != nil {
		var loginErr *service.LoginError
		if !errors.As(err, &loginErr) {
			return err
		}
		middleware.GetLogger(c).Warn().Str("usuario", req.Usuario).Str("detail", loginErr.Detail).Msg("login rejected")
		return c.Render(http.StatusUnauthorized, view.PageLogin, page(c, "Login", "", view.LoginView{
			Usuario: req.Usuario,
			Erro:    loginErr.Message,
			Detalhe: loginErr.Detail,
		}))
	}
	return c.Redirect(http.StatusFound, view.BasePath+"/")
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.auth.Logout(c.Response(), c.Request()); err != nil {
		middleware.GetLogger(c).Warn().Err(err).Msg("failed to destroy session")
	}
	return c.Redirect(http.StatusFound, middleware.LoginPath)
}

func (h *AuthHandler) Index(c echo.Context) error {
	return c.Render(http.StatusOK, view.PageIndex, page(c, "Comercial", "Home", nil))
}

func (h *AuthHandler) Documentation(c echo.Context) error {
	return c.Render(http.StatusOK, view.PageDoc, page(c, "Documentação", "Documentação", nil))
}

// ForceError renders the error page with fixed content so the page can be
// checked in production. It answers 200: nothing actually failed.
func (h *AuthHandler) ForceError(c echo.Context) error {
	return c.Render(http.StatusOK, view.PageError, page(c, "Erro de Teste", "", view.ErrorView{
		Code:    http.StatusInternalServerError,
		Title:   "Erro de Teste",
		Message: "Essa é uma simulação de erro.",
		Detail:  "Detalhes técnicos fictícios.",
	}))
}
