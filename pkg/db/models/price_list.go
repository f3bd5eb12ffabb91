package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PriceList names an alternative price matrix. The site configuration selects
// which list is current; rows without a list belong to the general list.
type PriceList struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PriceList) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
