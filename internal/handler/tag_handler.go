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

// TagHandler serves tag management.
type TagHandler struct {
	tags    service.TagService
	content service.ContentService
}

// NewTagHandler creates a new tag handler.
func NewTagHandler(tags service.TagService, content service.ContentService) *TagHandler {
	return &TagHandler{tags: tags, content: content}
}

func (h *TagHandler) Page(c echo.Context) error {
	return h.renderPage(c, http.StatusOK, "")
}

func (h *TagHandler) renderPage(c echo.Context, status int, errMsg string) error {
	tags, err := h.content.FetchTags(c.Request().Context())
	return render(c, status, "tags", "Tags", view.TagsData{Tags: tags, Error: errMsg}, err != nil)
}

func (h *TagHandler) Create(c echo.Context) error {
	in := service.TagInput{Name: c.FormValue("name")}

	upload, err := c.FormFile("picture")
	switch {
	case err == nil:
		f, err := upload.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable upload")
		}
		defer f.Close()
		in.Picture, in.PictureName = f, upload.Filename
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid upload")
	}

	if _, err := h.tags.Create(backendContext(c), currentUser(c), in); err != nil {
		return h.failed(c, err)
	}
	return c.Redirect(http.StatusSeeOther, "/tags")
}

func (h *TagHandler) Delete(c echo.Context) error {
	if err := h.tags.Delete(backendContext(c), currentUser(c), c.Param("id")); err != nil {
		return h.failed(c, err)
	}
	return c.Redirect(http.StatusSeeOther, "/tags")
}

func (h *TagHandler) failed(c echo.Context, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrForbidden):
		return err
	case errors.Is(err, apperrors.ErrValidation):
		return h.renderPage(c, http.StatusUnprocessableEntity, "Le nom du tag est requis.")
	default:
		c.Logger().Warnf("tag update failed: %v", err)
		return h.renderPage(c, apperrors.MapErrorToHTTP(err).StatusCode, pocketbase.Message(err))
	}
}
