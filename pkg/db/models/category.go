package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups products for navigation. ParentID forms an unbounded tree.
type Category struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name        string     `gorm:"column:name;not null" json:"name"`
	Slug        string     `gorm:"column:slug;not null;uniqueIndex:idx_categories_slug" json:"slug"`
	Description *string    `gorm:"column:description" json:"description,omitempty"`
	ParentID    *uuid.UUID `gorm:"column:parent_id;type:uuid" json:"parentId,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (Category) TableName() string { return "categories" }

func (c *Category) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}
