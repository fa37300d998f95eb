package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "tlgsite/internal/errors"
	"tlgsite/internal/pocketbase"
	"tlgsite/internal/service"
	"tlgsite/internal/view"
)

// ContactHandler serves the contact page and its newsletter form.
type ContactHandler struct {
	contacts service.ContactService
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(contacts service.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// SubscribeRequest is the newsletter form.
type SubscribeRequest struct {
	Email string `form:"email" json:"email"`
}

func (h *ContactHandler) Page(c echo.Context) error {
	return render(c, http.StatusOK, "contact", "Contacts", view.ContactData{}, false)
}

func (h *ContactHandler) Subscribe(c echo.Context) error {
	var req SubscribeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	err := h.contacts.Subscribe(c.Request().Context(), req.Email)
	switch {
	case err == nil:
		return render(c, http.StatusOK, "contact", "Contacts", view.ContactData{Subscribed: true}, false)
	case errors.Is(err, apperrors.ErrValidation):
		return render(c, http.StatusUnprocessableEntity, "contact", "Contacts", view.ContactData{Email: req.Email, Error: "Adresse email invalide."}, false)
	case errors.Is(err, apperrors.ErrUnavailable):
		return render(c, http.StatusServiceUnavailable, "contact", "Contacts", view.ContactData{Email: req.Email, Error: "Inscription indisponible pour le moment."}, false)
	default:
		c.Logger().Warnf("newsletter subscribe: %v", err)
		return render(c, apperrors.MapErrorToHTTP(err).StatusCode, "contact", "Contacts", view.ContactData{Email: req.Email, Error: pocketbase.Message(err)}, false)
	}
}
