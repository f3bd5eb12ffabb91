package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arborhaus/arborhaus-backend/pkg/enums"
)

// OrderMessage is an append-only per-order message. Edits and deletions are
// soft flags on the row; the row itself is retained for audit.
type OrderMessage struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	AuthorID   uuid.UUID       `gorm:"column:author_id;type:uuid;not null"`
	AuthorRole enums.ActorRole `gorm:"column:author_role;type:text;not null"`
	Body       string          `gorm:"column:body;not null"`
	Edited     bool            `gorm:"column:edited;not null;default:false"`
	EditedAt   *time.Time      `gorm:"column:edited_at"`
	Deleted    bool            `gorm:"column:deleted;not null;default:false"`
	DeletedAt  *time.Time      `gorm:"column:deleted_at"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (m *OrderMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
