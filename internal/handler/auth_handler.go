package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"tlgsite/internal/auth"
	"tlgsite/internal/authz"
	apperrors "tlgsite/internal/errors"
	"tlgsite/internal/model"
	"tlgsite/internal/pocketbase"
	"tlgsite/internal/service"
	"tlgsite/internal/view"
)

// AuthHandler handles sign-in, sign-out and the staff gate in front of federated login.
type AuthHandler struct {
	manager *auth.Manager
	staff   service.StaffService
	baseURL string
}

// NewAuthHandler creates a new auth handler. baseURL is the public origin of the site, used
// to build the OAuth redirect URL.
func NewAuthHandler(manager *auth.Manager, staff service.StaffService, baseURL string) *AuthHandler {
	return &AuthHandler{manager: manager, staff: staff, baseURL: baseURL}
}

// LoginRequest represents a password sign-in.
type LoginRequest struct {
	Email    string `form:"email" json:"email" validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required"`
	Next     string `form:"next" json:"next"`
}

// StaffCheckRequest is the staff password form.
type StaffCheckRequest struct {
	Password string `form:"password" json:"password"`
	Next     string `form:"next" json:"next"`
}

// SessionResponse describes the current session.
type SessionResponse struct {
	Authenticated bool        `json:"authenticated"`
	User          *model.User `json:"user,omitempty"`
	CanManage     bool        `json:"canManage"`
	StaffVerified bool        `json:"staffVerified"`
}

const messageSessionNotSaved = "Session indisponible pour le moment, réessayez plus tard."

func (h *AuthHandler) redirectURL() string {
	return h.baseURL + "/auth/oauth/callback"
}

func (h *AuthHandler) LoginPage(c echo.Context) error {
	return h.renderLogin(c, http.StatusOK, view.LoginData{Next: safeNext(c.QueryParam("next"))})
}

func (h *AuthHandler) renderLogin(c echo.Context, status int, data view.LoginData) error {
	methods, err := h.manager.AuthMethods(c.Request().Context())
	if err != nil {
		if !errors.Is(err, apperrors.ErrUnavailable) {
			c.Logger().Warnf("list auth methods: %v", err)
		}
		if data.Error == "" {
			data.Error = "Connexion indisponible pour le moment."
		}
	} else {
		data.PasswordEnabled = methods.Password.Enabled
		if methods.OAuth2.Enabled {
			data.Providers = methods.OAuth2.Providers
		}
	}
	data.StaffVerified = auth.MirrorFrom(c).StaffVerified()
	return render(c, status, "login", "Connexion", data, err != nil && !errors.Is(err, apperrors.ErrUnavailable))
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	data := view.LoginData{Next: safeNext(req.Next), Email: req.Email}

	if err := c.Validate(&req); err != nil {
		data.Error = "Email et mot de passe requis."
		return h.renderLogin(c, http.StatusUnprocessableEntity, data)
	}

	_, err := h.manager.LoginWithPassword(c.Request().Context(), auth.MirrorFrom(c), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrSessionNotSaved):
		c.Logger().Errorf("auth: %v", err)
		data.Error = messageSessionNotSaved
		return h.renderLogin(c, http.StatusServiceUnavailable, data)
	case err != nil:
		data.Error = pocketbase.Message(err)
		return h.renderLogin(c, apperrors.MapErrorToHTTP(err).StatusCode, data)
	}
	return c.Redirect(http.StatusSeeOther, data.Next)
}

// StaffCheck validates the staff password from the login page and unlocks the OAuth buttons.
func (h *AuthHandler) StaffCheck(c echo.Context) error {
	var req StaffCheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	next := safeNext(req.Next)

	if err := h.staff.Check(req.Password); err != nil {
		data := view.LoginData{Next: next, Error: "Mot de passe staff incorrect."}
		if errors.Is(err, apperrors.ErrStaffNotConfigured) {
			data.Error = "Vérification staff non configurée."
		}
		return h.renderLogin(c, apperrors.MapErrorToHTTP(err).StatusCode, data)
	}
	if err := auth.MirrorFrom(c).MarkStaffVerified(c.Request().Context()); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(next))
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.manager.Logout(c.Request().Context(), auth.MirrorFrom(c)); err != nil {
		c.Logger().Warnf("auth: logout: %v", err)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) OAuthBegin(c echo.Context) error {
	next := safeNext(c.QueryParam("next"))
	target, err := h.manager.BeginOAuth(c.Request().Context(), auth.MirrorFrom(c), c.Param("provider"), h.redirectURL(), next)
	switch {
	case err == nil:
		return c.Redirect(http.StatusFound, target)
	case errors.Is(err, auth.ErrStaffCheckRequired):
		return h.renderLogin(c, http.StatusForbidden, view.LoginData{Next: next, Error: "Validez d'abord le mot de passe staff."})
	case errors.Is(err, apperrors.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return h.renderLogin(c, apperrors.MapErrorToHTTP(err).StatusCode, view.LoginData{Next: next, Error: pocketbase.Message(err)})
	}
}

func (h *AuthHandler) OAuthCallback(c echo.Context) error {
	if msg := c.QueryParam("error"); msg != "" {
		return h.renderLogin(c, http.StatusUnauthorized, view.LoginData{Next: "/", Error: "Connexion refusée : " + msg})
	}

	_, next, err := h.manager.CompleteOAuth(c.Request().Context(), auth.MirrorFrom(c), c.QueryParam("state"), c.QueryParam("code"), h.redirectURL())
	switch {
	case err == nil:
		return c.Redirect(http.StatusSeeOther, safeNext(next))
	case errors.Is(err, auth.ErrSessionNotSaved):
		c.Logger().Errorf("auth: %v", err)
		return h.renderLogin(c, http.StatusServiceUnavailable, view.LoginData{Next: "/", Error: messageSessionNotSaved})
	case errors.Is(err, auth.ErrInvalidOAuthState):
		return h.renderLogin(c, http.StatusBadRequest, view.LoginData{Next: "/", Error: "Session de connexion expirée, recommencez."})
	default:
		return h.renderLogin(c, apperrors.MapErrorToHTTP(err).StatusCode, view.LoginData{Next: "/", Error: pocketbase.Message(err)})
	}
}

// Session godoc
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} SessionResponse
// @Router /api/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	m := auth.MirrorFrom(c)
	user := m.User()
	return c.JSON(http.StatusOK, SessionResponse{
		Authenticated: user != nil,
		User:          user,
		CanManage:     authz.CanManage(user),
		StaffVerified: m.StaffVerified(),
	})
}
