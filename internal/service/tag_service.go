package service

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"tlgsite/internal/authz"
	"tlgsite/internal/cache"
	apperrors "tlgsite/internal/errors"
	"tlgsite/internal/model"
	"tlgsite/internal/pocketbase"
	"tlgsite/internal/repository"
)

// TagInput is a new tag with an optional picture upload.
type TagInput struct {
	Name        string `form:"name" validate:"required,max=64"`
	Picture     io.Reader
	PictureName string
}

// TagService manages tags.
type TagService interface {
	Create(ctx context.Context, actor *model.User, in TagInput) (*model.Tag, error)
	Delete(ctx context.Context, actor *model.User, id string) error
	// EnsureDefaults creates every name in names that does not exist yet and returns how many were created.
	EnsureDefaults(ctx context.Context, names []string) (int, error)
}

type tagService struct {
	repo  repository.CollectionRepository
	cache *cache.Client
	audit AuditRecorder
}

// NewTagService creates a new tag service.
func NewTagService(repo repository.CollectionRepository, cache *cache.Client, audit AuditRecorder) TagService {
	return &tagService{repo: repo, cache: cache, audit: audit}
}

func (s *tagService) invalidate(ctx context.Context) {
	_ = s.cache.DeletePrefix(ctx, tagsCachePrefix)
	// news items embed expanded tags
	_ = s.cache.DeletePrefix(ctx, newsCachePrefix)
}

func (s *tagService) Create(ctx context.Context, actor *model.User, in TagInput) (*model.Tag, error) {
	if !authz.CanManage(actor) {
		return nil, apperrors.ErrForbidden
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("tag name: %w", apperrors.ErrValidation)
	}

	var body pocketbase.Payload = pocketbase.JSONPayload{"name": name}
	if in.Picture != nil {
		body = pocketbase.MultipartPayload{
			Fields: url.Values{"name": {name}},
			Files:  []pocketbase.File{{Field: "picture", Name: in.PictureName, Reader: in.Picture}},
		}
	}

	rec, err := s.repo.Create(ctx, body, pocketbase.RecordOptions{})
	if err != nil {
		return nil, err
	}
	tag := model.TagFromRecord(rec, s.repo.FileURL)
	s.invalidate(ctx)
	s.audit.Record(ctx, actor, model.AuditCreate, s.repo.Collection(), tag.ID, tag.Name)
	return &tag, nil
}

func (s *tagService) Delete(ctx context.Context, actor *model.User, id string) error {
	if !authz.CanManage(actor) {
		return apperrors.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.audit.Record(ctx, actor, model.AuditDelete, s.repo.Collection(), id, "")
	return nil
}

// EnsureDefaults runs with whatever credentials ctx carries; it is meant for the seed command.
func (s *tagService) EnsureDefaults(ctx context.Context, names []string) (int, error) {
	existing, err := s.repo.FullList(ctx, pocketbase.ListOptions{Fields: "id,name"})
	if err != nil {
		return 0, fmt.Errorf("list tags: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, rec := range existing {
		have[strings.ToLower(rec.String("name"))] = true
	}

	created := 0
	for _, name := range names {
		if have[strings.ToLower(name)] {
			continue
		}
		if _, err := s.repo.Create(ctx, pocketbase.JSONPayload{"name": name}, pocketbase.RecordOptions{}); err != nil {
			return created, fmt.Errorf("create tag %q: %w", name, err)
		}
		have[strings.ToLower(name)] = true
		created++
	}
	if created > 0 {
		s.invalidate(ctx)
	}
	return created, nil
}
