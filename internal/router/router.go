package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"tlgsite/internal/auth"
	"tlgsite/internal/authz"
	"tlgsite/internal/config"
	"tlgsite/internal/handler"
	"tlgsite/internal/view"
)

// Handlers groups the route handlers of the site.
type Handlers struct {
	Pages       *handler.PageHandler
	News        *handler.NewsHandler
	Recruitment *handler.RecruitmentHandler
	Contact     *handler.ContactHandler
	Tags        *handler.TagHandler
	Auth        *handler.AuthHandler
	API         *handler.APIHandler
	Events      *handler.EventsHandler
}

// Session is what the session middleware needs.
type Session struct {
	Manager *auth.Manager
	JWT     *auth.JWTService
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, renderer echo.Renderer, sess Session, h Handlers) {
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}
	e.Renderer = renderer
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.StaticFS("/static", view.Static())

	// Everything below knows who is signed in.
	site := e.Group("",
		auth.SessionJWT(sess.JWT),
		sess.Manager.Attach(sess.JWT, auth.CookieConfig{Secure: cfg.CookieSecure, TTL: cfg.SessionTTL}),
	)

	site.GET("/", h.Pages.Home)
	site.GET("/about", h.Pages.About)
	site.GET("/games", h.Pages.Games)
	site.GET("/partnerships", h.Pages.Partnerships)
	site.GET("/contact", h.Contact.Page)
	site.POST("/contact", h.Contact.Subscribe)
	site.GET("/news", h.News.List)
	site.GET("/news/:id", h.News.Show)
	site.GET("/recruitment", h.Recruitment.Page)

	site.GET("/login", h.Auth.LoginPage)
	site.POST("/login", h.Auth.Login)
	site.POST("/login/staff", h.Auth.StaffCheck)
	site.POST("/logout", h.Auth.Logout)
	site.GET("/auth/oauth/callback", h.Auth.OAuthCallback)
	site.GET("/auth/oauth/:provider", h.Auth.OAuthBegin)

	site.GET("/events/:collection", h.Events.Stream)

	// Staff pages. The guard is per route: a middleware group at the root would also catch
	// unknown paths.
	staff := authz.RequireManager(auth.UserFrom)
	site.GET("/news/new", h.News.New, staff)
	site.POST("/news", h.News.Create, staff)
	site.GET("/news/:id/edit", h.News.Edit, staff)
	site.POST("/news/:id", h.News.Update, staff)
	site.POST("/news/:id/delete", h.News.Delete, staff)
	site.POST("/recruitment/:id/advertise", h.Recruitment.Advertise, staff)
	site.POST("/recruitment/:id/withdraw", h.Recruitment.Withdraw, staff)
	site.POST("/roles", h.Recruitment.CreateRole, staff)
	site.POST("/roles/:id", h.Recruitment.UpdateRole, staff)
	site.POST("/roles/:id/delete", h.Recruitment.DeleteRole, staff)
	site.GET("/tags", h.Tags.Page, staff)
	site.POST("/tags", h.Tags.Create, staff)
	site.POST("/tags/:id/delete", h.Tags.Delete, staff)

	api := site.Group("/api")
	api.Any("/validate-staff", h.API.ValidateStaff)
	api.GET("/news/latest", h.API.LatestNews)
	api.GET("/roles/description", h.Recruitment.RoleDescription)
	api.GET("/session", h.Auth.Session)
	api.GET("/audit", h.API.Audit, staff)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
