package model

import "time"

// Cabinet statuses.
const (
	CabinetActive      = "active"
	CabinetInactive    = "inactive"
	CabinetMaintenance = "maintenance"
)

// Cabinet represents a fiber-distribution box (CTO) holding a fixed
// number of rentable ports. OccupiedPorts is maintained exclusively by
// the port registry, always in the same transaction as the port row it
// reflects.
type Cabinet struct {
	ID            int64  `gorm:"primaryKey" json:"id"`
	OperatorID    string `gorm:"index;size:36;not null" json:"operatorId"`
	Name          string `gorm:"size:128;not null" json:"name"`
	Status        string `gorm:"size:16;not null;default:active" json:"status"`
	TotalPorts    int    `gorm:"not null" json:"totalPorts"`
	OccupiedPorts int    `gorm:"not null;default:0" json:"occupiedPorts"`
	CreatedAt     time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"not null" json:"updatedAt"`

	// Associations
	Ports []Port `gorm:"foreignKey:CabinetID" json:"ports,omitempty"`
}
