package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"

	"tlgsite/internal/cache"
	apperrors "tlgsite/internal/errors"
	"tlgsite/internal/model"
	"tlgsite/internal/pocketbase"
	"tlgsite/internal/repository"
)

const (
	gamesCachePrefix    = "games:"
	partnersCachePrefix = "partners:"
	usersCachePrefix    = "users:"
	tagsCachePrefix     = "tags:"

	gamesCacheKey     = gamesCachePrefix + "all"
	partnersCacheKey  = partnersCachePrefix + "all"
	userCountCacheKey = usersCachePrefix + "count"
)

// ContentService reads the mostly static collections shown across the site.
type ContentService interface {
	FetchGames(ctx context.Context) ([]model.Game, error)
	FetchPartners(ctx context.Context) ([]model.Partner, error)
	FetchUserCount(ctx context.Context) (int, error)
	FetchTags(ctx context.Context) ([]model.Tag, error)
}

// ContentRepositories groups the collections ContentService reads.
type ContentRepositories struct {
	Games    repository.CollectionRepository
	Partners repository.CollectionRepository
	Users    repository.CollectionRepository
	Tags     repository.CollectionRepository
}

type contentService struct {
	repos ContentRepositories
	cache *cache.Client
	ttl   time.Duration
}

// NewContentService creates a new content service.
func NewContentService(repos ContentRepositories, cache *cache.Client, ttl time.Duration) ContentService {
	return &contentService{repos: repos, cache: cache, ttl: ttlOrDefault(ttl)}
}

func (s *contentService) FetchGames(ctx context.Context) ([]model.Game, error) {
	return readList("fetch games", func() ([]model.Game, error) {
		return cached(ctx, s.cache, gamesCacheKey, s.ttl, func() ([]model.Game, error) {
			records, err := s.repos.Games.FullList(ctx, pocketbase.ListOptions{Sort: "name"})
			if err != nil {
				return nil, err
			}
			games := make([]model.Game, 0, len(records))
			for _, rec := range records {
				games = append(games, model.GameFromRecord(rec))
			}
			return games, nil
		})
	})
}

func (s *contentService) FetchPartners(ctx context.Context) ([]model.Partner, error) {
	return readList("fetch partners", func() ([]model.Partner, error) {
		return cached(ctx, s.cache, partnersCacheKey, s.ttl, func() ([]model.Partner, error) {
			records, err := s.repos.Partners.FullList(ctx, pocketbase.ListOptions{Sort: "-created"})
			if err != nil {
				return nil, err
			}
			partners := make([]model.Partner, 0, len(records))
			for _, rec := range records {
				partners = append(partners, model.PartnerFromRecord(rec, s.repos.Partners.FileURL))
			}
			return partners, nil
		})
	})
}

// FetchUserCount returns the number of registered users, 0 without a backend.
func (s *contentService) FetchUserCount(ctx context.Context) (int, error) {
	count, err := cached(ctx, s.cache, userCountCacheKey, s.ttl, func() (int, error) {
		res, err := s.repos.Users.List(ctx, pocketbase.ListOptions{Page: 1, PerPage: 1, Fields: "id"})
		if err != nil {
			return 0, err
		}
		return res.TotalItems, nil
	})
	switch {
	case err == nil:
		return count, nil
	case errors.Is(err, apperrors.ErrUnavailable):
		return 0, nil
	default:
		log.Errorf("fetch user count: %v", err)
		return 0, fmt.Errorf("fetch user count: %w", err)
	}
}

func (s *contentService) FetchTags(ctx context.Context) ([]model.Tag, error) {
	return readList("fetch tags", func() ([]model.Tag, error) {
		return cached(ctx, s.cache, tagsCachePrefix+"all", s.ttl, func() ([]model.Tag, error) {
			records, err := s.repos.Tags.FullList(ctx, pocketbase.ListOptions{Sort: "name"})
			if err != nil {
				return nil, err
			}
			tags := make([]model.Tag, 0, len(records))
			for _, rec := range records {
				tags = append(tags, model.TagFromRecord(rec, s.repos.Tags.FileURL))
			}
			return tags, nil
		})
	})
}
