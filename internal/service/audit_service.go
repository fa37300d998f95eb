package service

import (
	"context"

	"github.com/labstack/gommon/log"

	"tlgsite/internal/model"
	"tlgsite/internal/repository"
)

// AuditRecorder records privileged mutations.
type AuditRecorder interface {
	Record(ctx context.Context, actor *model.User, action, collection, recordID, details string)
	Recent(ctx context.Context, limit int) ([]model.AuditEntry, error)
}

type auditRecorder struct {
	repo repository.AuditRepository
}

// NewAuditRecorder creates a recorder writing to repo. A nil repo records nothing.
func NewAuditRecorder(repo repository.AuditRepository) AuditRecorder {
	return &auditRecorder{repo: repo}
}

// Record never fails the mutation it describes: write errors are logged.
func (a *auditRecorder) Record(ctx context.Context, actor *model.User, action, collection, recordID, details string) {
	if a.repo == nil {
		return
	}
	entry := &model.AuditEntry{
		Action:     action,
		Collection: collection,
		RecordID:   recordID,
		Details:    details,
	}
	if actor != nil {
		entry.ActorID = actor.ID
		entry.ActorName = actor.DisplayName()
	}
	if err := a.repo.Create(ctx, entry); err != nil {
		log.Errorf("audit %s %s/%s: %v", action, collection, recordID, err)
	}
}

func (a *auditRecorder) Recent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	if a.repo == nil {
		return []model.AuditEntry{}, nil
	}
	return a.repo.ListRecent(ctx, limit)
}
