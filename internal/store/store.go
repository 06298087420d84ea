package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"portshare-backend/internal/apperr"
	"portshare-backend/internal/model"
)

// Direction filters an order listing by the actor's side of the deal.
type Direction string

const (
	DirectionAll      Direction = "all"
	DirectionIncoming Direction = "incoming" // actor is the cabinet owner
	DirectionOutgoing Direction = "outgoing" // actor is the requester
)

// Store defines the persistence operations for orders and notes.
// Methods taking a *gorm.DB handle compose into the caller's
// transaction; the rest manage their own scope.
type Store interface {
	DB() *gorm.DB
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error

	CreateOrder(tx *gorm.DB, order *model.RentalOrder) error
	SaveOrder(tx *gorm.DB, order *model.RentalOrder) error
	GetOrder(ctx context.Context, id string) (*model.RentalOrder, error)
	GetOrderForUpdate(tx *gorm.DB, id string) (*model.RentalOrder, error)
	ListOrders(ctx context.Context, actorID string, dir Direction, status model.OrderStatus) ([]model.RentalOrder, error)
	HasOpenOrderForPort(tx *gorm.DB, portID int64) (bool, error)

	AddNote(tx *gorm.DB, note *model.OrderNote) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *gormStore) CreateOrder(tx *gorm.DB, order *model.RentalOrder) error {
	return tx.Create(order).Error
}

func (s *gormStore) SaveOrder(tx *gorm.DB, order *model.RentalOrder) error {
	return tx.Save(order).Error
}

// GetOrder loads an order with its note history, oldest note first.
func (s *gormStore) GetOrder(ctx context.Context, id string) (*model.RentalOrder, error) {
	var order model.RentalOrder
	err := s.db.WithContext(ctx).
		Preload("Notes", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order %s", id)
		}
		return nil, err
	}
	return &order, nil
}

// GetOrderForUpdate loads an order under a row lock within tx. This is
// the per-order mutual-exclusion scope: two concurrent transitions on
// the same order serialize here, and the second one re-reads the
// first's committed status. The sqlite driver used in tests rejects
// FOR UPDATE; its single-writer model serializes transactions anyway.
func (s *gormStore) GetOrderForUpdate(tx *gorm.DB, id string) (*model.RentalOrder, error) {
	if tx.Dialector.Name() != "sqlite" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var order model.RentalOrder
	if err := tx.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order %s", id)
		}
		return nil, err
	}
	return &order, nil
}

// ListOrders returns the orders the actor participates in, newest
// first, optionally narrowed by direction and status.
func (s *gormStore) ListOrders(ctx context.Context, actorID string, dir Direction, status model.OrderStatus) ([]model.RentalOrder, error) {
	q := s.db.WithContext(ctx).Model(&model.RentalOrder{})
	switch dir {
	case DirectionIncoming:
		q = q.Where("owner_id = ?", actorID)
	case DirectionOutgoing:
		q = q.Where("requester_id = ?", actorID)
	case DirectionAll, "":
		q = q.Where("requester_id = ? OR owner_id = ?", actorID, actorID)
	default:
		return nil, apperr.Validation("unknown direction %q", dir)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var orders []model.RentalOrder
	if err := q.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// HasOpenOrderForPort reports whether any non-terminal order already
// references the port. Called under the port row lock during order
// creation, which is what prevents double-booking.
func (s *gormStore) HasOpenOrderForPort(tx *gorm.DB, portID int64) (bool, error) {
	var count int64
	err := tx.Model(&model.RentalOrder{}).
		Where("port_id = ? AND status NOT IN ?", portID, []model.OrderStatus{
			model.OrderCompleted, model.OrderRejected, model.OrderCancelled,
		}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *gormStore) AddNote(tx *gorm.DB, note *model.OrderNote) error {
	return tx.Create(note).Error
}
