package model

import "time"

// OrderNote is one entry in an order's append-only history log. System
// notes are written by the transition service alongside every state
// change; user notes are added by either party. Notes are never
// updated or deleted.
type OrderNote struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	OrderID   string    `gorm:"index;size:36;not null" json:"orderId"`
	AuthorID  string    `gorm:"size:36;not null" json:"authorId"`
	Content   string    `gorm:"not null" json:"content"`
	IsSystem  bool      `gorm:"not null;default:false" json:"isSystem"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}
