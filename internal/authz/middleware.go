package authz

import (
	"context"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "tlgsite/internal/errors"
	"tlgsite/internal/model"
)

// UserFunc extracts the signed-in user of a request, or nil.
type UserFunc func(c echo.Context) *model.User

// RequireManager rejects requests from users CanManage refuses. API requests get a JSON 403,
// page requests are redirected to the login page.
func RequireManager(userFrom UserFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := userFrom(c)
			if FallbackDiverges(user) {
				c.Logger().Warnf("authz: rank_bis disagrees with role for user %q (role=%q rank_bis=%v)", user.ID, user.Role, user.RankBis)
			}
			if CanManage(user) {
				return next(c)
			}

			if wantsJSON(c) {
				return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
					Error: apperrors.ErrForbidden.Error(),
					Code:  "FORBIDDEN",
				})
			}
			if user == nil {
				return c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(c.Request().URL.Path))
			}
			return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrForbidden.Error())
		}
	}
}

func wantsJSON(c echo.Context) bool {
	if strings.HasPrefix(c.Path(), "/api/") {
		return true
	}
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// TemplateFuncs exposes the predicate to templates as canManage and can.
func TemplateFuncs(g *Gate) template.FuncMap {
	return template.FuncMap{
		"canManage": CanManage,
		"can": func(user *model.User, action, resourceType string) bool {
			return g.Can(context.Background(), user, Action(action), resourceType, nil)
		},
	}
}
