package model

import "time"

// Operator is a telecom operator participating in the marketplace,
// either as a cabinet owner or as a port requester (or both).
type Operator struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Role      string    `gorm:"size:32" json:"role"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}
