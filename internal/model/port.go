package model

import "time"

// PortStatus is the closed set of states a port can be in.
type PortStatus string

const (
	PortAvailable   PortStatus = "available"
	PortReserved    PortStatus = "reserved"
	PortOccupied    PortStatus = "occupied"
	PortMaintenance PortStatus = "maintenance"
)

// Port represents a single rentable connection slot within a cabinet.
// Seq is unique within the owning cabinet (1..TotalPorts).
type Port struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	CabinetID    int64      `gorm:"index:idx_ports_cabinet_seq,unique;not null" json:"cabinetId"`
	Seq          int        `gorm:"index:idx_ports_cabinet_seq,unique;not null" json:"seq"`
	Status       PortStatus `gorm:"size:16;not null;default:available" json:"status"`
	TenantID     *string    `gorm:"size:36" json:"tenantId,omitempty"`
	MonthlyPrice *float64   `json:"monthlyPrice,omitempty"`
	CreatedAt    time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updatedAt"`

	// Associations
	Cabinet Cabinet `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
