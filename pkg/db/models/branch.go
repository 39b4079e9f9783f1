package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Branch is a physical store location; inventory and orders are scoped to one branch.
type Branch struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name          string    `gorm:"column:name;not null" json:"name"`
	Address       *string   `gorm:"column:address" json:"address,omitempty"`
	Phone         *string   `gorm:"column:phone" json:"phone,omitempty"`
	WhatsAppPhone *string   `gorm:"column:whatsapp_phone" json:"whatsappPhone,omitempty"`
	Timezone      string    `gorm:"column:timezone;not null" json:"timezone"`
	IsActive      bool      `gorm:"column:is_active;not null" json:"isActive"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Branch) TableName() string { return "branches" }

func (b *Branch) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	if b.Timezone == "" {
		b.Timezone = "Asia/Colombo"
	}
	return nil
}
