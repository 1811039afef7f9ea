package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onhs/olms/internal/api/metrics"
	"github.com/onhs/olms/internal/api/middleware"
	"github.com/onhs/olms/internal/core/domain"
	"github.com/onhs/olms/internal/core/ports"
	"github.com/onhs/olms/internal/core/session"
)

type AuthHandler struct {
	authService ports.AuthService
	cookie      session.CookiePolicy
	now         func() time.Time
}

func NewAuthHandler(authService ports.AuthService, cookie session.CookiePolicy) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie, now: time.Now}
}

type loginRequest struct {
	// Identifier is an email address or a username.
	Identifier string `json:"identifier" validate:"required_without=Email"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Password   string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string           `json:"token"`
	ExpiresIn int64            `json:"expiresIn"`
	User      *domain.Identity `json:"user"`
}

type userResponse struct {
	User *domain.Identity `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Login authenticates a user and starts a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Email
	}
	audit := middleware.AuditFrom(c)
	audit.AddDetail("identifier", identifier)

	res, err := h.authService.Login(c.Request().Context(), identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		case errors.Is(err, domain.ErrAccountDeactivated):
			metrics.LoginsTotal.WithLabelValues("deactivated").Inc()
		default:
			metrics.LoginsTotal.WithLabelValues("error").Inc()
			return err
		}
		return middleware.HTTPError(err)
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	audit.SetEntityID(res.Identity.ID)
	audit.User = &domain.AuditUser{
		ID:       res.Identity.ID,
		Username: res.Identity.Username,
		Email:    res.Identity.Email,
		Role:     res.Identity.Role,
	}

	c.SetCookie(h.cookie.Issue(res.Token, res.Lifetime, h.now()))
	return c.JSON(http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresIn: int64(res.Lifetime / time.Second),
		User:      res.Identity,
	})
}

// Logout ends the session by clearing the session cookie.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.cookie.Clear())
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

// Me returns the authenticated identity.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  messageResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		return middleware.HTTPError(domain.ErrUnauthorized)
	}
	return c.JSON(http.StatusOK, userResponse{User: identity})
}
