package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "tlgsite/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"tlgsite/internal/auth"
	"tlgsite/internal/authz"
	"tlgsite/internal/cache"
	"tlgsite/internal/config"
	"tlgsite/internal/db"
	"tlgsite/internal/handler"
	"tlgsite/internal/model"
	"tlgsite/internal/pocketbase"
	"tlgsite/internal/realtime"
	"tlgsite/internal/repository"
	"tlgsite/internal/router"
	"tlgsite/internal/scheduler"
	"tlgsite/internal/service"
	"tlgsite/internal/view"
)

// @title TLG site API
// @version 1.0
// @description JSON endpoints of the TLG website: latest news, role descriptions, session state, staff check and change notifications.
// @BasePath /
func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.UsesDefaultSessionSecret() {
		log.Warn("config: SESSION_SECRET is the development default, set your own before deploying")
	}

	e := echo.New()
	e.HideBanner = true
	lvl := logLevel(cfg.LogLevel)
	log.SetLevel(lvl)
	e.Logger.SetLevel(lvl)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Without PB_URL the site still serves its static pages; every backend read comes back empty.
	handle := pocketbase.Unavailable()
	if cfg.PocketBaseURL != "" {
		handle = pocketbase.Available(pocketbase.New(cfg.PocketBaseURL, pocketbase.WithTimeout(cfg.PocketBaseTimeout)))
		log.Infof("backend: %s", cfg.PocketBaseURL)
	} else {
		log.Warn("backend: PB_URL not set, running without data")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
	sessions, err := auth.NewSessionStore(pingCtx, cacheClient)
	cancelPing()
	if err != nil {
		log.Warnf("redis %s: %v (sessions kept in memory, lost on restart)", cfg.RedisAddr, err)
	}

	// Auth components
	jwtService := auth.NewJWTService(cfg.SessionSecret)
	manager := auth.NewManager(handle, sessions, cfg.SessionTTL)

	audit := service.NewAuditRecorder(nil)
	if cfg.AuditDSN != "" {
		gormDB, err := db.NewMySQL(cfg.AuditDSN)
		if err != nil {
			log.Fatalf("audit database: %v", err)
		}
		if err := db.Migrate(gormDB); err != nil {
			log.Fatalf("audit database: %v", err)
		}
		audit = service.NewAuditRecorder(repository.NewAuditRepository(gormDB))
	}

	// Repositories
	newsRepo := repository.NewCollectionRepository(handle, model.CollectionNews)
	tagRepo := repository.NewCollectionRepository(handle, model.CollectionTags)
	roleRepo := repository.NewCollectionRepository(handle, model.CollectionRoles)
	recruitmentRepo := repository.NewCollectionRepository(handle, model.CollectionRecruitment)
	contactRepo := repository.NewCollectionRepository(handle, model.CollectionContacts)

	// Services
	newsService := service.NewNewsService(newsRepo, cacheClient, cfg.CacheTTL)
	newsMutations := service.NewNewsMutationService(newsRepo, cacheClient, audit)
	contentService := service.NewContentService(service.ContentRepositories{
		Games:    repository.NewCollectionRepository(handle, model.CollectionGames),
		Partners: repository.NewCollectionRepository(handle, model.CollectionPartners),
		Users:    repository.NewCollectionRepository(handle, model.CollectionUsers),
		Tags:     tagRepo,
	}, cacheClient, cfg.CacheTTL)
	recruitmentService := service.NewRecruitmentService(roleRepo, recruitmentRepo, cacheClient, cfg.CacheTTL, audit)
	roleService := service.NewRoleService(roleRepo, recruitmentRepo, cacheClient, audit)
	tagService := service.NewTagService(tagRepo, cacheClient, audit)
	contactService := service.NewContactService(contactRepo)
	staffService := service.NewStaffService(cfg.StaffPassword, cfg.StaffPasswordHash)
	if !cfg.StaffCheckConfigured() {
		log.Warn("staff password not configured, federated login is disabled")
	}

	// The games page follows the collection live.
	games := realtime.NewFeed(handle, model.CollectionGames,
		func(g model.Game) string { return g.ID },
		contentService.FetchGames,
		model.GameFromRecord,
	)
	if err := games.Start(ctx); err != nil {
		log.Warnf("games feed: %v", err)
	}

	hub := realtime.NewHub(ctx, handle,
		model.CollectionNews,
		model.CollectionGames,
		model.CollectionPartners,
		model.CollectionRecruitment,
		model.CollectionTags,
		model.CollectionRoles,
	)
	// Changes made directly in the backend must not be served from the cache once browsers
	// re-fetch the section that announced them.
	hub.OnEvent(func(topic string, _ pocketbase.Event) {
		ictx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		service.InvalidateCollection(ictx, cacheClient, topic)
	})

	jobs := scheduler.New(ctx)
	defer jobs.Stop()
	if handle.IsAvailable() {
		jobs.Every("warm latest news", cfg.WarmupInterval, func(ctx context.Context) error {
			_, err := newsService.FetchLatestNews(ctx, service.FetchNewsOptions{})
			return err
		})
		jobs.Every("warm user count", cfg.WarmupInterval, func(ctx context.Context) error {
			_, err := contentService.FetchUserCount(ctx)
			return err
		})
	}

	renderer, err := view.New(auth.UserFrom, authz.TemplateFuncs(authz.DefaultGate()))
	if err != nil {
		log.Fatalf("templates: %v", err)
	}

	router.Register(e, cfg, renderer,
		router.Session{Manager: manager, JWT: jwtService},
		router.Handlers{
			Pages:       handler.NewPageHandler(newsService, contentService, games.Items),
			News:        handler.NewNewsHandler(newsService, newsMutations, contentService),
			Recruitment: handler.NewRecruitmentHandler(recruitmentService, roleService),
			Contact:     handler.NewContactHandler(contactService),
			Tags:        handler.NewTagHandler(tagService, contentService),
			Auth:        handler.NewAuthHandler(manager, staffService, cfg.PublicBaseURL),
			API:         handler.NewAPIHandler(newsService, staffService, audit),
			Events:      handler.NewEventsHandler(hub),
		},
	)

	log.Infof("swagger documentation available at: %s/swagger/index.html", swaggerBase(cfg))

	go func() {
		addr := ":" + cfg.ServerPort
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}

func logLevel(name string) log.Lvl {
	switch name {
	case "DEBUG":
		return log.DEBUG
	case "WARN":
		return log.WARN
	case "ERROR":
		return log.ERROR
	case "OFF":
		return log.OFF
	default:
		return log.INFO
	}
}

// swaggerBase is the origin the docs are reachable at. SWAGGER_HOST may carry a scheme.
func swaggerBase(cfg *config.Config) string {
	switch host := cfg.SwaggerHost; {
	case host == "":
		return cfg.PublicBaseURL
	case len(host) >= 7 && host[:7] == "http://", len(host) >= 8 && host[:8] == "https://":
		return host
	default:
		return "http://" + host
	}
}
