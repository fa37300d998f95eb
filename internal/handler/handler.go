package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"tlgsite/internal/auth"
	apperrors "tlgsite/internal/errors"
	"tlgsite/internal/model"
	"tlgsite/internal/view"
)

// backendContext is the request context authenticated as the signed-in user, so backend
// rules see the same identity the page does.
func backendContext(c echo.Context) context.Context {
	return auth.MirrorFrom(c).Context(c.Request().Context())
}

func currentUser(c echo.Context) *model.User {
	return auth.UserFrom(c)
}

func render(c echo.Context, status int, name, title string, data any, retry bool) error {
	return c.Render(status, name, view.Page{Title: title, Data: data, Retry: retry})
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func isAPI(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}

// HTTPErrorHandler answers JSON under /api and renders the error page elsewhere.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	var body any
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		body = he.Message
	} else {
		mapped := apperrors.MapErrorToHTTP(err)
		status = mapped.StatusCode
		body = mapped.ToErrorResponse()
	}
	if status >= http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	if isAPI(c) || c.Request().Method == http.MethodHead {
		var respErr error
		if c.Request().Method == http.MethodHead {
			respErr = c.NoContent(status)
		} else {
			respErr = c.JSON(status, jsonBody(status, body))
		}
		if respErr != nil {
			c.Logger().Error(respErr)
		}
		return
	}

	if err := render(c, status, "error", http.StatusText(status), view.ErrorData{Status: status, Message: pageMessage(status)}, false); err != nil {
		c.Logger().Error(err)
	}
}

// jsonBody wraps the plain messages echo produces (404, 405, bind errors) in ErrorResponse.
func jsonBody(status int, body any) any {
	code := strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	switch b := body.(type) {
	case string:
		return apperrors.ErrorResponse{Error: b, Code: code}
	case nil:
		return apperrors.ErrorResponse{Error: strings.ToLower(http.StatusText(status)), Code: code}
	default:
		return b
	}
}

func pageMessage(status int) string {
	switch status {
	case http.StatusNotFound:
		return "Page introuvable."
	case http.StatusForbidden:
		return "Accès réservé au staff."
	case http.StatusServiceUnavailable:
		return "Le service est momentanément indisponible."
	default:
		if status < http.StatusInternalServerError {
			return "Requête invalide."
		}
		return "Une erreur est survenue. Réessayez plus tard."
	}
}
