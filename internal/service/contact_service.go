package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "tlgsite/internal/errors"
	"tlgsite/internal/model"
	"tlgsite/internal/pocketbase"
	"tlgsite/internal/repository"
)

// ContactService stores newsletter subscriptions.
type ContactService interface {
	Subscribe(ctx context.Context, email string) error
}

type contactService struct {
	repo     repository.CollectionRepository
	validate *validator.Validate
}

// NewContactService creates a new contact service.
func NewContactService(repo repository.CollectionRepository) ContactService {
	return &contactService{repo: repo, validate: validator.New()}
}

// Subscribe validates and stores email. A backend that rejects a duplicate surfaces its own message.
func (s *contactService) Subscribe(ctx context.Context, email string) error {
	contact := model.Contact{Email: strings.ToLower(strings.TrimSpace(email))}
	if err := s.validate.Struct(contact); err != nil {
		return fmt.Errorf("email %q: %w", contact.Email, apperrors.ErrValidation)
	}
	_, err := s.repo.Create(ctx, pocketbase.JSONPayload{"email": contact.Email}, pocketbase.RecordOptions{})
	return err
}
