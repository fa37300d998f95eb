package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"tlgsite/internal/model"
	"tlgsite/internal/service"
	"tlgsite/internal/view"
)

// GamesFunc lists the games shown on the games page.
type GamesFunc func(ctx context.Context) ([]model.Game, error)

// PageHandler serves the mostly static pages.
type PageHandler struct {
	news    service.NewsService
	content service.ContentService
	games   GamesFunc
}

// NewPageHandler creates a new page handler. games may be nil to read through content.
func NewPageHandler(news service.NewsService, content service.ContentService, games GamesFunc) *PageHandler {
	if games == nil {
		games = content.FetchGames
	}
	return &PageHandler{news: news, content: content, games: games}
}

func (h *PageHandler) Home(c echo.Context) error {
	ctx := c.Request().Context()

	news, newsErr := h.news.FetchLatestNews(ctx, service.FetchNewsOptions{})
	count, countErr := h.content.FetchUserCount(ctx)
	partners, partnersErr := h.content.FetchPartners(ctx)

	retry := newsErr != nil || countErr != nil || partnersErr != nil
	return render(c, http.StatusOK, "home", "", view.HomeData{News: news, UserCount: count, Partners: partners}, retry)
}

func (h *PageHandler) About(c echo.Context) error {
	return render(c, http.StatusOK, "about", "A propos", nil, false)
}

func (h *PageHandler) Games(c echo.Context) error {
	games, err := h.games(c.Request().Context())
	return render(c, http.StatusOK, "games", "Jeux", view.GamesData{Games: games}, err != nil)
}

func (h *PageHandler) Partnerships(c echo.Context) error {
	partners, err := h.content.FetchPartners(c.Request().Context())
	return render(c, http.StatusOK, "partnerships", "Partenariat", view.PartnersData{Partners: partners}, err != nil)
}
