package model

import "time"

// OrderStatus is the closed set of rental-order states.
type OrderStatus string

const (
	OrderPendingApproval        OrderStatus = "pending_approval"
	OrderContractGenerated      OrderStatus = "contract_generated"
	OrderContractSigned         OrderStatus = "contract_signed"
	OrderInstallationScheduled  OrderStatus = "installation_scheduled"
	OrderInstallationInProgress OrderStatus = "installation_in_progress"
	OrderCompleted              OrderStatus = "completed"
	OrderRejected               OrderStatus = "rejected"
	OrderCancelled              OrderStatus = "cancelled"
)

// Terminal reports whether s is a terminal order status. Terminal
// orders are kept for history and never transition again.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderCompleted, OrderRejected, OrderCancelled:
		return true
	}
	return false
}

// RentalOrder tracks one operator's request to rent a specific port
// from the operator owning its cabinet. Price and installation fee are
// fixed at creation and immutable afterwards.
type RentalOrder struct {
	ID              string      `gorm:"primaryKey;size:36" json:"id"`
	PortID          int64       `gorm:"index;not null" json:"portId"`
	RequesterID     string      `gorm:"index;size:36;not null" json:"requesterId"`
	OwnerID         string      `gorm:"index;size:36;not null" json:"ownerId"`
	Status          OrderStatus `gorm:"size:32;not null" json:"status"`
	MonthlyPrice    float64     `gorm:"not null" json:"monthlyPrice"`
	InstallationFee float64     `gorm:"not null" json:"installationFee"`
	RequesterSigned bool        `gorm:"not null;default:false" json:"requesterSigned"`
	OwnerSigned     bool        `gorm:"not null;default:false" json:"ownerSigned"`
	ScheduledDate   *time.Time  `json:"scheduledDate,omitempty"`
	CompletedDate   *time.Time  `json:"completedDate,omitempty"`
	CreatedAt       time.Time   `gorm:"not null" json:"createdAt"`
	UpdatedAt       time.Time   `gorm:"not null" json:"updatedAt"`

	// Associations
	Port  Port        `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Notes []OrderNote `gorm:"foreignKey:OrderID" json:"notes,omitempty"`
}

// Participant reports whether the given operator is a party to the
// order.
func (o *RentalOrder) Participant(operatorID string) bool {
	return o.RequesterID == operatorID || o.OwnerID == operatorID
}

// Counterparty returns the other party's operator id, or the empty
// string if actorID is not a participant.
func (o *RentalOrder) Counterparty(actorID string) string {
	switch actorID {
	case o.RequesterID:
		return o.OwnerID
	case o.OwnerID:
		return o.RequesterID
	}
	return ""
}
