package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit actions.
const (
	AuditCreate = "create"
	AuditUpdate = "update"
	AuditDelete = "delete"
)

// AuditEntry records one privileged mutation made through the site.
type AuditEntry struct {
	ID         uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	ActorID    string    `json:"actor_id" gorm:"type:varchar(32);not null;index"`
	ActorName  string    `json:"actor_name" gorm:"type:varchar(255)"`
	Action     string    `json:"action" gorm:"type:varchar(20);not null;index"`
	Collection string    `json:"collection" gorm:"type:varchar(64);not null;index"`
	RecordID   string    `json:"record_id" gorm:"type:varchar(32);index"`
	Details    string    `json:"details,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
}

// BeforeCreate sets UUID before creating the record.
func (a *AuditEntry) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
