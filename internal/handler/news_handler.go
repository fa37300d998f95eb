package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "tlgsite/internal/errors"
	"tlgsite/internal/model"
	"tlgsite/internal/newsform"
	"tlgsite/internal/pocketbase"
	"tlgsite/internal/service"
	"tlgsite/internal/view"
)

const anonymousAuthor = "Anonyme"

// NewsHandler serves the news pages and the authoring form.
type NewsHandler struct {
	news      service.NewsService
	mutations service.NewsMutationService
	content   service.ContentService
}

// NewNewsHandler creates a new news handler.
func NewNewsHandler(news service.NewsService, mutations service.NewsMutationService, content service.ContentService) *NewsHandler {
	return &NewsHandler{news: news, mutations: mutations, content: content}
}

// List renders every news item with the tag filter and ordering from the query string.
func (h *NewsHandler) List(c echo.Context) error {
	all, err := h.news.ListNews(c.Request().Context(), service.NewsQuery{})
	q := service.NewsQuery{Tag: c.QueryParam("tag"), Sort: service.NewsSort(c.QueryParam("sort"))}

	data := view.NewsListData{
		Items: service.FilterNews(all, q),
		Tags:  model.AllTags(all),
		Tag:   q.Tag,
		Sort:  string(q.Sort),
	}
	return render(c, http.StatusOK, "news", "News", data, err != nil)
}

func (h *NewsHandler) Show(c echo.Context) error {
	item, err := h.news.GetNews(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, "news_item", item.Title, view.NewsItemData{Item: item}, false)
}

// New renders an empty authoring form.
func (h *NewsHandler) New(c echo.Context) error {
	form := &newsform.Form{}
	if err := form.Open(); err != nil {
		return err
	}
	return h.renderForm(c, http.StatusOK, form)
}

// Edit renders the authoring form prefilled from an existing item.
func (h *NewsHandler) Edit(c echo.Context) error {
	item, err := h.news.GetNews(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	form := &newsform.Form{}
	if err := form.Edit(*item); err != nil {
		return err
	}
	return h.renderForm(c, http.StatusOK, form)
}

func (h *NewsHandler) Create(c echo.Context) error {
	form := &newsform.Form{}
	if err := form.Open(); err != nil {
		return err
	}
	return h.submit(c, form)
}

func (h *NewsHandler) Update(c echo.Context) error {
	item, err := h.news.GetNews(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	form := &newsform.Form{}
	if err := form.Edit(*item); err != nil {
		return err
	}
	return h.submit(c, form)
}

func (h *NewsHandler) Delete(c echo.Context) error {
	if err := h.mutations.Delete(backendContext(c), currentUser(c), c.Param("id")); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/news")
}

func (h *NewsHandler) submit(c echo.Context, form *newsform.Form) error {
	if err := bindNewsForm(c, form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	user := currentUser(c)
	if form.Author == "" {
		form.Author = user.DisplayName()
		if form.Author == "" {
			form.Author = anonymousAuthor
		}
	}

	upload, err := c.FormFile("image")
	switch {
	case err == nil:
		f, err := upload.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable upload")
		}
		defer f.Close()
		form.File = &pocketbase.File{Field: "image", Name: upload.Filename, Reader: f}
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid upload")
	}

	author := service.NewsAuthor{Service: h.mutations, Actor: user}
	if err := form.Submit(backendContext(c), author, nil); err != nil {
		if errors.Is(err, apperrors.ErrForbidden) {
			return err
		}
		c.Logger().Infof("news form rejected: %v", err)
		return h.renderForm(c, formStatus(err), form)
	}
	return c.Redirect(http.StatusSeeOther, "/news")
}

func (h *NewsHandler) renderForm(c echo.Context, status int, form *newsform.Form) error {
	tags, err := h.content.FetchTags(c.Request().Context())
	title := "Ajouter une News"
	if form.EditingID() != "" {
		title = "Modifier la News"
	}
	return render(c, status, "news_form", title, view.NewsFormData{Form: form, Tags: tags}, err != nil)
}

// bindNewsForm reads the posted fields over the form. The binder skips empty values and
// browsers omit unchecked boxes, so every posted field is cleared first.
func bindNewsForm(c echo.Context, form *newsform.Form) error {
	form.Title, form.Headlines, form.Content = "", "", ""
	form.TagIDs, form.Published = nil, false
	form.PublishDate, form.EventDate, form.Author = "", "", ""
	form.ExternalImageURL, form.VideoURL = "", ""

	return echo.FormFieldBinder(c).
		String("title", &form.Title).
		String("headlines", &form.Headlines).
		String("content", &form.Content).
		Strings("tags", &form.TagIDs).
		Bool("do_publish", &form.Published).
		String("parution_date", &form.PublishDate).
		String("event_date", &form.EventDate).
		String("author", &form.Author).
		String("image_url", &form.ExternalImageURL).
		String("video_url", &form.VideoURL).
		BindError()
}

func formStatus(err error) int {
	if errors.Is(err, apperrors.ErrValidation) || errors.Is(err, apperrors.ErrMediaRequired) {
		return http.StatusUnprocessableEntity
	}
	return apperrors.MapErrorToHTTP(err).StatusCode
}
