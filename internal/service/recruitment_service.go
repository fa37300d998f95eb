package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"tlgsite/internal/authz"
	"tlgsite/internal/cache"
	apperrors "tlgsite/internal/errors"
	"tlgsite/internal/model"
	"tlgsite/internal/pocketbase"
	"tlgsite/internal/repository"
)

const (
	rolesCachePrefix       = "roles:"
	recruitmentCachePrefix = "recruitment:"
)

// Texts shown in the role description panel.
const (
	RoleDescriptionEmpty     = "Pas encore de description disponible pour ce rôle. Revenez bientôt !"
	RoleDescriptionNotFound  = "Aucune description trouvée pour ce rôle."
	roleDescriptionForbidden = "Les descriptions de rôles ne sont pas encore configurées. Contactez un administrateur."
	roleDescriptionBadQuery  = "Erreur de requête. Vérifiez la configuration de la collection Rank."
	roleDescriptionFailed    = "Erreur lors du chargement de la description"
)

// RoleInput is the editable part of a role.
type RoleInput struct {
	Name        string `form:"name" json:"name" validate:"required,max=100"`
	Description string `form:"description" json:"description"`
	List        string `form:"list" json:"list"`
}

func (in RoleInput) payload() pocketbase.JSONPayload {
	return pocketbase.JSONPayload{
		"name":        strings.TrimSpace(in.Name),
		"description": strings.TrimSpace(in.Description),
		"list":        strings.TrimSpace(in.List),
	}
}

// RecruitmentService reads roles and manages which of them are advertised.
type RecruitmentService interface {
	FetchRoles(ctx context.Context) ([]model.Role, error)
	FetchAdvertised(ctx context.Context) ([]model.Recruitment, error)
	RoleDescription(ctx context.Context, name string) (string, error)
	Advertise(ctx context.Context, actor *model.User, roleID string) error
	Withdraw(ctx context.Context, actor *model.User, roleID string) error
}

// RoleService manages the Rank collection.
type RoleService interface {
	Create(ctx context.Context, actor *model.User, in RoleInput) (*model.Role, error)
	Update(ctx context.Context, actor *model.User, id string, in RoleInput) (*model.Role, error)
	Delete(ctx context.Context, actor *model.User, id string) error
}

type recruitmentService struct {
	roles       repository.CollectionRepository
	recruitment repository.CollectionRepository
	cache       *cache.Client
	ttl         time.Duration
	audit       AuditRecorder
}

// NewRecruitmentService creates a new recruitment service.
func NewRecruitmentService(roles, recruitment repository.CollectionRepository, cache *cache.Client, ttl time.Duration, audit AuditRecorder) RecruitmentService {
	return &recruitmentService{roles: roles, recruitment: recruitment, cache: cache, ttl: ttlOrDefault(ttl), audit: audit}
}

func (s *recruitmentService) FetchRoles(ctx context.Context) ([]model.Role, error) {
	return readList("fetch roles", func() ([]model.Role, error) {
		return cached(ctx, s.cache, rolesCachePrefix+"all", s.ttl, func() ([]model.Role, error) {
			records, err := s.roles.FullList(ctx, pocketbase.ListOptions{Sort: "name"})
			if err != nil {
				return nil, err
			}
			roles := make([]model.Role, 0, len(records))
			for _, rec := range records {
				roles = append(roles, model.RoleFromRecord(rec))
			}
			return roles, nil
		})
	})
}

// FetchAdvertised returns the advertised roles with the role record expanded.
func (s *recruitmentService) FetchAdvertised(ctx context.Context) ([]model.Recruitment, error) {
	return readList("fetch recruitment", func() ([]model.Recruitment, error) {
		return cached(ctx, s.cache, recruitmentCachePrefix+"all", s.ttl, func() ([]model.Recruitment, error) {
			records, err := s.recruitment.FullList(ctx, pocketbase.ListOptions{Expand: "name"})
			if err != nil {
				return nil, err
			}
			out := make([]model.Recruitment, 0, len(records))
			for _, rec := range records {
				out = append(out, model.RecruitmentFromRecord(rec))
			}
			return out, nil
		})
	})
}

// roleDescriptionKey keys on the exact name: the backend filter is case sensitive.
func roleDescriptionKey(name string) string {
	return rolesCachePrefix + "desc:" + name
}

// RoleDescription returns the text shown for the role called name. On failure the returned
// text is the message to display and err carries the cause.
func (s *recruitmentService) RoleDescription(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return RoleDescriptionNotFound, nil
	}

	desc, err := cached(ctx, s.cache, roleDescriptionKey(name), s.ttl, func() (string, error) {
		rec, err := s.roles.First(ctx, pocketbase.Filter("name = {:name}", map[string]any{"name": name}), pocketbase.ListOptions{})
		if err != nil {
			if pocketbase.IsNotFound(err) {
				return RoleDescriptionNotFound, nil
			}
			return "", err
		}
		if d := strings.TrimSpace(rec.String("description")); d != "" {
			return d, nil
		}
		return RoleDescriptionEmpty, nil
	})
	if err == nil {
		return desc, nil
	}
	if errors.Is(err, apperrors.ErrUnavailable) {
		return RoleDescriptionNotFound, nil
	}

	log.Errorf("role description %q: %v", name, err)
	switch pocketbase.StatusOf(err) {
	case http.StatusForbidden:
		return roleDescriptionForbidden, err
	case http.StatusBadRequest:
		return roleDescriptionBadQuery, err
	default:
		return roleDescriptionFailed, err
	}
}

func (s *recruitmentService) invalidate(ctx context.Context) {
	_ = s.cache.DeletePrefix(ctx, recruitmentCachePrefix)
}

// Advertise marks roleID as open for recruitment. The marker record reuses the role id.
func (s *recruitmentService) Advertise(ctx context.Context, actor *model.User, roleID string) error {
	if !authz.CanManage(actor) {
		return apperrors.ErrForbidden
	}
	body := pocketbase.JSONPayload{"id": roleID, "name": roleID}
	if _, err := s.recruitment.Create(ctx, body, pocketbase.RecordOptions{}); err != nil {
		return fmt.Errorf("advertise role %s: %w", roleID, err)
	}
	s.invalidate(ctx)
	s.audit.Record(ctx, actor, model.AuditCreate, s.recruitment.Collection(), roleID, "")
	return nil
}

// Withdraw removes the recruitment marker of roleID. Withdrawing a role that is not advertised is a no-op.
func (s *recruitmentService) Withdraw(ctx context.Context, actor *model.User, roleID string) error {
	if !authz.CanManage(actor) {
		return apperrors.ErrForbidden
	}
	if err := s.recruitment.Delete(ctx, roleID); err != nil && !pocketbase.IsNotFound(err) {
		return fmt.Errorf("withdraw role %s: %w", roleID, err)
	}
	s.invalidate(ctx)
	s.audit.Record(ctx, actor, model.AuditDelete, s.recruitment.Collection(), roleID, "")
	return nil
}

type roleService struct {
	roles       repository.CollectionRepository
	recruitment repository.CollectionRepository
	cache       *cache.Client
	audit       AuditRecorder
}

// NewRoleService creates a new role service.
func NewRoleService(roles, recruitment repository.CollectionRepository, cache *cache.Client, audit AuditRecorder) RoleService {
	return &roleService{roles: roles, recruitment: recruitment, cache: cache, audit: audit}
}

func (s *roleService) invalidate(ctx context.Context) {
	_ = s.cache.DeletePrefix(ctx, rolesCachePrefix)
	_ = s.cache.DeletePrefix(ctx, recruitmentCachePrefix)
}

func (s *roleService) Create(ctx context.Context, actor *model.User, in RoleInput) (*model.Role, error) {
	if !authz.CanManage(actor) {
		return nil, apperrors.ErrForbidden
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("role name: %w", apperrors.ErrValidation)
	}
	rec, err := s.roles.Create(ctx, in.payload(), pocketbase.RecordOptions{})
	if err != nil {
		return nil, err
	}
	role := model.RoleFromRecord(rec)
	s.invalidate(ctx)
	s.audit.Record(ctx, actor, model.AuditCreate, s.roles.Collection(), role.ID, role.Name)
	return &role, nil
}

func (s *roleService) Update(ctx context.Context, actor *model.User, id string, in RoleInput) (*model.Role, error) {
	if !authz.CanManage(actor) {
		return nil, apperrors.ErrForbidden
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("role name: %w", apperrors.ErrValidation)
	}
	rec, err := s.roles.Update(ctx, id, in.payload(), pocketbase.RecordOptions{})
	if err != nil {
		return nil, err
	}
	role := model.RoleFromRecord(rec)
	s.invalidate(ctx)
	s.audit.Record(ctx, actor, model.AuditUpdate, s.roles.Collection(), role.ID, role.Name)
	return &role, nil
}

// Delete removes the role and its recruitment marker, so no advertisement points at a missing role.
func (s *roleService) Delete(ctx context.Context, actor *model.User, id string) error {
	if !authz.CanManage(actor) {
		return apperrors.ErrForbidden
	}
	if err := s.recruitment.Delete(ctx, id); err != nil && !pocketbase.IsNotFound(err) {
		return fmt.Errorf("withdraw role %s: %w", id, err)
	}
	if err := s.roles.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.audit.Record(ctx, actor, model.AuditDelete, s.roles.Collection(), id, "")
	return nil
}
