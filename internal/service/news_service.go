package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"tlgsite/internal/authz"
	"tlgsite/internal/cache"
	apperrors "tlgsite/internal/errors"
	"tlgsite/internal/model"
	"tlgsite/internal/pocketbase"
	"tlgsite/internal/repository"
)

const newsCachePrefix = "news:"

// Defaults of FetchLatestNews.
const (
	DefaultNewsPage    = 1
	DefaultNewsPerPage = 3
	DefaultNewsSort    = "-created"
	DefaultNewsFilter  = `content != ""`
	DefaultNewsExpand  = "tags"
)

// FetchNewsOptions are the query options of FetchLatestNews. Zero fields take the defaults.
type FetchNewsOptions struct {
	Page    int    `query:"page"`
	PerPage int    `query:"perPage"`
	Sort    string `query:"sort"`
	Filter  string `query:"filter"`
	Expand  string `query:"expand"`
}

func (o FetchNewsOptions) withDefaults() FetchNewsOptions {
	if o.Page <= 0 {
		o.Page = DefaultNewsPage
	}
	if o.PerPage <= 0 {
		o.PerPage = DefaultNewsPerPage
	}
	if o.Sort == "" {
		o.Sort = DefaultNewsSort
	}
	if o.Filter == "" {
		o.Filter = DefaultNewsFilter
	}
	if o.Expand == "" {
		o.Expand = DefaultNewsExpand
	}
	return o
}

// NewsSort orders the news page.
type NewsSort string

const (
	SortRecent NewsSort = "recent"
	SortOldest NewsSort = "oldest"
)

// NewsQuery filters and orders the full news list. An empty Tag (or "all") keeps everything.
type NewsQuery struct {
	Tag  string
	Sort NewsSort
}

// NewsService reads news.
type NewsService interface {
	FetchLatestNews(ctx context.Context, opts FetchNewsOptions) ([]model.NewsItem, error)
	ListNews(ctx context.Context, q NewsQuery) ([]model.NewsItem, error)
	GetNews(ctx context.Context, id string) (*model.NewsItem, error)
}

type newsService struct {
	repo  repository.CollectionRepository
	cache *cache.Client
	ttl   time.Duration
}

// NewNewsService creates a new news service.
func NewNewsService(repo repository.CollectionRepository, cache *cache.Client, ttl time.Duration) NewsService {
	return &newsService{repo: repo, cache: cache, ttl: ttlOrDefault(ttl)}
}

func (s *newsService) toItems(records []pocketbase.Record) []model.NewsItem {
	items := make([]model.NewsItem, 0, len(records))
	for _, rec := range records {
		items = append(items, model.NewsFromRecord(rec, s.repo.FileURL))
	}
	return items
}

// FetchLatestNews returns one page of news, newest first by default.
func (s *newsService) FetchLatestNews(ctx context.Context, opts FetchNewsOptions) ([]model.NewsItem, error) {
	opts = opts.withDefaults()
	key := fmt.Sprintf("%slatest:%d:%d:%s:%s:%s", newsCachePrefix, opts.Page, opts.PerPage, opts.Sort, opts.Filter, opts.Expand)

	return readList("fetch latest news", func() ([]model.NewsItem, error) {
		return cached(ctx, s.cache, key, s.ttl, func() ([]model.NewsItem, error) {
			res, err := s.repo.List(ctx, pocketbase.ListOptions{
				Page:    opts.Page,
				PerPage: opts.PerPage,
				Sort:    opts.Sort,
				Filter:  opts.Filter,
				Expand:  opts.Expand,
			})
			if err != nil {
				return nil, err
			}
			return s.toItems(res.Items), nil
		})
	})
}

// ListNews returns every news item with the tag filter and ordering of the news page applied.
func (s *newsService) ListNews(ctx context.Context, q NewsQuery) ([]model.NewsItem, error) {
	all, err := readList("list news", func() ([]model.NewsItem, error) {
		return cached(ctx, s.cache, newsCachePrefix+"all", s.ttl, func() ([]model.NewsItem, error) {
			records, err := s.repo.FullList(ctx, pocketbase.ListOptions{Sort: DefaultNewsSort, Expand: DefaultNewsExpand})
			if err != nil {
				return nil, err
			}
			return s.toItems(records), nil
		})
	})
	if err != nil {
		return all, err
	}
	return FilterNews(all, q), nil
}

// FilterNews applies q to items without touching the input slice.
func FilterNews(items []model.NewsItem, q NewsQuery) []model.NewsItem {
	out := make([]model.NewsItem, 0, len(items))
	tag := strings.TrimSpace(q.Tag)
	for _, item := range items {
		if tag == "" || tag == "all" || item.HasTag(tag) {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.Sort == SortOldest {
			return out[i].Created.Before(out[j].Created)
		}
		return out[i].Created.After(out[j].Created)
	})
	return out
}

// GetNews returns one item with its tags expanded.
func (s *newsService) GetNews(ctx context.Context, id string) (*model.NewsItem, error) {
	item, err := cached(ctx, s.cache, newsCachePrefix+"item:"+id, s.ttl, func() (*model.NewsItem, error) {
		rec, err := s.repo.Get(ctx, id, pocketbase.RecordOptions{Expand: DefaultNewsExpand})
		if err != nil {
			return nil, err
		}
		item := model.NewsFromRecord(rec, s.repo.FileURL)
		return &item, nil
	})
	if err != nil {
		if pocketbase.IsNotFound(err) || errors.Is(err, apperrors.ErrUnavailable) {
			return nil, fmt.Errorf("news %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("get news %s: %w", id, err)
	}
	return item, nil
}

// NewsMutationService creates, edits and deletes news for a manager.
type NewsMutationService interface {
	Create(ctx context.Context, actor *model.User, body pocketbase.Payload) (*model.NewsItem, error)
	Update(ctx context.Context, actor *model.User, id string, body pocketbase.Payload) (*model.NewsItem, error)
	Delete(ctx context.Context, actor *model.User, id string) error
}

type newsMutationService struct {
	repo  repository.CollectionRepository
	cache *cache.Client
	audit AuditRecorder
}

// NewNewsMutationService creates a new news mutation service.
func NewNewsMutationService(repo repository.CollectionRepository, cache *cache.Client, audit AuditRecorder) NewsMutationService {
	return &newsMutationService{repo: repo, cache: cache, audit: audit}
}

// Create sends body once. There is no idempotency key: submitting twice creates two items.
func (s *newsMutationService) Create(ctx context.Context, actor *model.User, body pocketbase.Payload) (*model.NewsItem, error) {
	if !authz.CanManage(actor) {
		return nil, apperrors.ErrForbidden
	}
	rec, err := s.repo.Create(ctx, body, pocketbase.RecordOptions{Expand: DefaultNewsExpand})
	if err != nil {
		return nil, err
	}
	item := model.NewsFromRecord(rec, s.repo.FileURL)
	_ = s.cache.DeletePrefix(ctx, newsCachePrefix)
	s.audit.Record(ctx, actor, model.AuditCreate, s.repo.Collection(), item.ID, item.Title)
	return &item, nil
}

func (s *newsMutationService) Update(ctx context.Context, actor *model.User, id string, body pocketbase.Payload) (*model.NewsItem, error) {
	if !authz.CanManage(actor) {
		return nil, apperrors.ErrForbidden
	}
	rec, err := s.repo.Update(ctx, id, body, pocketbase.RecordOptions{Expand: DefaultNewsExpand})
	if err != nil {
		return nil, err
	}
	item := model.NewsFromRecord(rec, s.repo.FileURL)
	_ = s.cache.DeletePrefix(ctx, newsCachePrefix)
	s.audit.Record(ctx, actor, model.AuditUpdate, s.repo.Collection(), item.ID, item.Title)
	return &item, nil
}

func (s *newsMutationService) Delete(ctx context.Context, actor *model.User, id string) error {
	if !authz.CanManage(actor) {
		return apperrors.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.cache.DeletePrefix(ctx, newsCachePrefix)
	s.audit.Record(ctx, actor, model.AuditDelete, s.repo.Collection(), id, "")
	return nil
}

// NewsAuthor binds a mutation service to the user submitting the authoring form.
type NewsAuthor struct {
	Service NewsMutationService
	Actor   *model.User
}

func (a NewsAuthor) CreateNews(ctx context.Context, body pocketbase.Payload) error {
	_, err := a.Service.Create(ctx, a.Actor, body)
	return err
}

func (a NewsAuthor) UpdateNews(ctx context.Context, id string, body pocketbase.Payload) error {
	_, err := a.Service.Update(ctx, a.Actor, id, body)
	return err
}
