package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"tlgsite/internal/auth"
	apperrors "tlgsite/internal/errors"
	"tlgsite/internal/model"
	"tlgsite/internal/service"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// APIHandler serves the JSON endpoints used by scripts and the staff login.
type APIHandler struct {
	news  service.NewsService
	staff service.StaffService
	audit service.AuditRecorder
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(news service.NewsService, staff service.StaffService, audit service.AuditRecorder) *APIHandler {
	return &APIHandler{news: news, staff: staff, audit: audit}
}

// ValidateStaffRequest carries the staff password. A missing or non-string password is rejected.
type ValidateStaffRequest struct {
	Password *string `json:"password"`
}

// ValidateStaffResponse is the result of a staff password check.
type ValidateStaffResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// NewsListResponse wraps the latest news.
type NewsListResponse struct {
	Items []model.NewsItem `json:"items"`
}

// AuditListResponse wraps recent audit entries.
type AuditListResponse struct {
	Items []model.AuditEntry `json:"items"`
}

// ValidateStaff godoc
// @Summary Validate the staff password
// @Description Checks the shared staff password on the server. A success also unlocks federated login for the session.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ValidateStaffRequest true "Staff password"
// @Success 200 {object} ValidateStaffResponse
// @Failure 400 {object} ValidateStaffResponse
// @Failure 401 {object} ValidateStaffResponse
// @Failure 405 {object} ValidateStaffResponse
// @Failure 500 {object} ValidateStaffResponse
// @Router /api/validate-staff [post]
func (h *APIHandler) ValidateStaff(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.JSON(http.StatusMethodNotAllowed, ValidateStaffResponse{Message: "Method not allowed"})
	}

	var req ValidateStaffRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil || req.Password == nil {
		return c.JSON(http.StatusBadRequest, ValidateStaffResponse{Message: "Missing password"})
	}

	err := h.staff.Check(*req.Password)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrStaffNotConfigured):
		c.Logger().Error("validate-staff: staff password not configured on server")
		return c.JSON(http.StatusInternalServerError, ValidateStaffResponse{Message: "Server not configured"})
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, ValidateStaffResponse{Message: "Invalid password"})
	default:
		c.Logger().Errorf("validate-staff: %v", err)
		return c.JSON(http.StatusInternalServerError, ValidateStaffResponse{Message: "Internal error"})
	}

	if m := auth.MirrorFrom(c); m != nil {
		if err := m.MarkStaffVerified(c.Request().Context()); err != nil {
			c.Logger().Warnf("validate-staff: remember check: %v", err)
		}
	}
	return c.JSON(http.StatusOK, ValidateStaffResponse{OK: true})
}

// LatestNews godoc
// @Summary Latest news
// @Description Published news with content, newest first. An unreachable backend yields an empty list.
// @Tags news
// @Produce json
// @Param page query int false "Page" default(1)
// @Param perPage query int false "Items per page" default(3)
// @Param sort query string false "Sort expression" default(-created)
// @Param filter query string false "Filter expression"
// @Param expand query string false "Relations to expand" default(tags)
// @Success 200 {object} NewsListResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /api/news/latest [get]
func (h *APIHandler) LatestNews(c echo.Context) error {
	var opts service.FetchNewsOptions
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &opts); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}

	items, err := h.news.FetchLatestNews(c.Request().Context(), opts)
	if err != nil {
		c.Logger().Warnf("latest news: %v", err)
		return echo.NewHTTPError(http.StatusBadGateway, apperrors.ErrorResponse{
			Error: "failed to load news",
			Code:  "BACKEND_ERROR",
		})
	}
	return c.JSON(http.StatusOK, NewsListResponse{Items: items})
}

// Audit godoc
// @Summary Recent privileged changes
// @Description Newest first. Empty when no audit database is configured.
// @Tags audit
// @Produce json
// @Param limit query int false "Maximum entries" default(50)
// @Success 200 {object} AuditListResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /api/audit [get]
func (h *APIHandler) Audit(c echo.Context) error {
	limit := defaultAuditLimit
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if limit <= 0 || limit > maxAuditLimit {
		limit = defaultAuditLimit
	}

	entries, err := h.audit.Recent(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AuditListResponse{Items: entries})
}
