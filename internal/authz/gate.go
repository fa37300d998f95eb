package authz

import (
	"context"
	"errors"

	apperrors "tlgsite/internal/errors"
	"tlgsite/internal/model"
)

// Action is what a user wants to do with a resource.
type Action string

const (
	ActionView   Action = "view"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ErrNoPolicyDefined is returned for a resource type nobody registered a policy for.
var ErrNoPolicyDefined = errors.New("no policy defined")

// Policy decides one action on one resource type.
type Policy interface {
	Can(ctx context.Context, user *model.User, action Action, resource any) bool
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(ctx context.Context, user *model.User, action Action, resource any) bool

func (f PolicyFunc) Can(ctx context.Context, user *model.User, action Action, resource any) bool {
	return f(ctx, user, action, resource)
}

// ContentPolicy lets anyone read and only managers write.
type ContentPolicy struct{}

func (ContentPolicy) Can(_ context.Context, user *model.User, action Action, _ any) bool {
	switch action {
	case ActionView, ActionList:
		return true
	default:
		return CanManage(user)
	}
}

// Gate is the registry of policies keyed by collection name.
type Gate struct {
	policies map[string]Policy
}

func NewGate() *Gate {
	return &Gate{policies: make(map[string]Policy)}
}

// DefaultGate registers ContentPolicy for every content collection of the site.
func DefaultGate() *Gate {
	g := NewGate()
	for _, c := range []string{
		model.CollectionNews,
		model.CollectionTags,
		model.CollectionRoles,
		model.CollectionRecruitment,
		model.CollectionGames,
		model.CollectionPartners,
	} {
		g.Register(c, ContentPolicy{})
	}
	// Anyone may subscribe to the newsletter, nobody reads the list from the site.
	g.Register(model.CollectionContacts, PolicyFunc(func(_ context.Context, _ *model.User, action Action, _ any) bool {
		return action == ActionCreate
	}))
	return g
}

// Register adds or replaces the policy for resourceType.
func (g *Gate) Register(resourceType string, p Policy) {
	g.policies[resourceType] = p
}

// Authorize returns nil when allowed, ErrNoPolicyDefined for unknown types and
// errors.ErrForbidden otherwise.
func (g *Gate) Authorize(ctx context.Context, user *model.User, action Action, resourceType string, resource any) error {
	p, ok := g.policies[resourceType]
	if !ok {
		return ErrNoPolicyDefined
	}
	if !p.Can(ctx, user, action, resource) {
		return apperrors.ErrForbidden
	}
	return nil
}

func (g *Gate) Can(ctx context.Context, user *model.User, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}
