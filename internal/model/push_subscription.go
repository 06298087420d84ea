package model

import "time"

// PushSubscription holds a browser push registration for an operator.
// Transition notifications for an order fan out to every subscription
// of the recipient operator.
type PushSubscription struct {
	Endpoint   string    `gorm:"primaryKey" json:"endpoint"`
	P256DH     string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth       string    `gorm:"not null" json:"auth"`
	OperatorID string    `gorm:"index;size:36;not null" json:"operatorId"`
	CreatedAt  time.Time `gorm:"not null" json:"createdAt"`
}
