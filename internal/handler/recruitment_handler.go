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

// RecruitmentHandler serves the recruitment page and the role management behind it.
type RecruitmentHandler struct {
	recruitment service.RecruitmentService
	roles       service.RoleService
}

// NewRecruitmentHandler creates a new recruitment handler.
func NewRecruitmentHandler(recruitment service.RecruitmentService, roles service.RoleService) *RecruitmentHandler {
	return &RecruitmentHandler{recruitment: recruitment, roles: roles}
}

// RoleDescriptionResponse is the description of one role.
type RoleDescriptionResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *RecruitmentHandler) Page(c echo.Context) error {
	return h.renderPage(c, http.StatusOK, "")
}

func (h *RecruitmentHandler) renderPage(c echo.Context, status int, errMsg string) error {
	ctx := c.Request().Context()

	roles, rolesErr := h.recruitment.FetchRoles(ctx)
	advertised, adsErr := h.recruitment.FetchAdvertised(ctx)

	data := view.RecruitmentData{
		Roles:      roles,
		Advertised: advertised,
		Open:       make(map[string]bool, len(advertised)),
		Selected:   c.QueryParam("role"),
		Error:      errMsg,
	}
	for _, ad := range advertised {
		data.Open[ad.RoleID] = true
	}
	if data.Selected != "" {
		// the text is the message to show even when err is set
		data.Description, _ = h.recruitment.RoleDescription(ctx, data.Selected)
	}
	return render(c, status, "recruitment", "Recrutement", data, rolesErr != nil || adsErr != nil)
}

// RoleDescription godoc
// @Summary Get the description of a role
// @Tags recruitment
// @Produce json
// @Param name query string true "Role name"
// @Success 200 {object} RoleDescriptionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 502 {object} RoleDescriptionResponse
// @Router /api/roles/description [get]
func (h *RecruitmentHandler) RoleDescription(c echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "missing role name",
			Code:  "INVALID_REQUEST",
		})
	}
	text, err := h.recruitment.RoleDescription(c.Request().Context(), name)
	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	}
	return c.JSON(status, RoleDescriptionResponse{Name: name, Description: text})
}

func (h *RecruitmentHandler) Advertise(c echo.Context) error {
	return h.mutate(c, h.recruitment.Advertise(backendContext(c), currentUser(c), c.Param("id")))
}

func (h *RecruitmentHandler) Withdraw(c echo.Context) error {
	return h.mutate(c, h.recruitment.Withdraw(backendContext(c), currentUser(c), c.Param("id")))
}

func (h *RecruitmentHandler) CreateRole(c echo.Context) error {
	var in service.RoleInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	if err := c.Validate(&in); err != nil {
		return h.renderPage(c, http.StatusUnprocessableEntity, "Le nom du rôle est requis.")
	}
	_, err := h.roles.Create(backendContext(c), currentUser(c), in)
	return h.mutate(c, err)
}

func (h *RecruitmentHandler) UpdateRole(c echo.Context) error {
	var in service.RoleInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	if err := c.Validate(&in); err != nil {
		return h.renderPage(c, http.StatusUnprocessableEntity, "Le nom du rôle est requis.")
	}
	_, err := h.roles.Update(backendContext(c), currentUser(c), c.Param("id"), in)
	return h.mutate(c, err)
}

func (h *RecruitmentHandler) DeleteRole(c echo.Context) error {
	return h.mutate(c, h.roles.Delete(backendContext(c), currentUser(c), c.Param("id")))
}

// mutate redirects back to the page on success and shows the backend message otherwise.
func (h *RecruitmentHandler) mutate(c echo.Context, err error) error {
	if err == nil {
		return c.Redirect(http.StatusSeeOther, "/recruitment")
	}
	if errors.Is(err, apperrors.ErrForbidden) {
		return err
	}
	c.Logger().Warnf("recruitment update failed: %v", err)
	return h.renderPage(c, apperrors.MapErrorToHTTP(err).StatusCode, pocketbase.Message(err))
}
