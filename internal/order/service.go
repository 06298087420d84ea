package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"portshare-backend/internal/apperr"
	"portshare-backend/internal/identity"
	"portshare-backend/internal/model"
	"portshare-backend/internal/registry"
	"portshare-backend/internal/store"
)

// Notifier receives transition events after they have committed. The
// service never calls it while holding the order lock.
type Notifier interface {
	NotifyTransition(orderID, recipientID, message string)
}

// Service executes order transitions. Every mutation runs as one
// transaction covering the order row lock, the guard, the status
// write, the registry side effect and the system note.
type Service struct {
	store    store.Store
	registry *registry.Registry
	identity identity.Resolver
	notifier Notifier
	now      func() time.Time
}

// NewService wires the transition service. notifier may be nil (tests,
// deployments without push configured).
func NewService(s store.Store, r *registry.Registry, ids identity.Resolver, n Notifier) *Service {
	return &Service{
		store:    s,
		registry: r,
		identity: ids,
		notifier: n,
		now:      time.Now,
	}
}

// CreateParams carries the caller-supplied fields of a new order.
// Price and installation fee are fixed here and never change.
type CreateParams struct {
	PortID          int64
	MonthlyPrice    float64
	InstallationFee float64
}

// Create opens a new rental order for an available port, reserving the
// port in the same transaction. The port must not already have an
// order in a non-terminal status.
func (s *Service) Create(ctx context.Context, requesterID string, p CreateParams) (*model.RentalOrder, error) {
	if p.MonthlyPrice < 0 {
		return nil, apperr.Validation("monthly price must not be negative")
	}
	if p.InstallationFee < 0 {
		return nil, apperr.Validation("installation fee must not be negative")
	}

	requester, err := s.identity.Lookup(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	var created *model.RentalOrder
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		port, err := s.registry.GetPortForUpdate(tx, p.PortID)
		if err != nil {
			return err
		}

		var cabinet model.Cabinet
		if err := tx.First(&cabinet, port.CabinetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("cabinet %d", port.CabinetID)
			}
			return err
		}
		if cabinet.OperatorID == requesterID {
			return apperr.Validation("cannot rent a port from your own cabinet")
		}

		open, err := s.store.HasOpenOrderForPort(tx, p.PortID)
		if err != nil {
			return err
		}
		if open {
			return apperr.Conflict("port %d already has an open order", p.PortID)
		}

		if err := s.registry.Reserve(tx, p.PortID); err != nil {
			return err
		}

		order := &model.RentalOrder{
			ID:              uuid.NewString(),
			PortID:          p.PortID,
			RequesterID:     requesterID,
			OwnerID:         cabinet.OperatorID,
			Status:          model.OrderPendingApproval,
			MonthlyPrice:    p.MonthlyPrice,
			InstallationFee: p.InstallationFee,
		}
		if err := s.store.CreateOrder(tx, order); err != nil {
			return err
		}

		note := systemNote(order.ID, requesterID,
			fmt.Sprintf("%s requested to rent port %d", requester.Name, p.PortID))
		if err := s.store.AddNote(tx, &note); err != nil {
			return err
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, wrapInfra(err)
	}

	if s.notifier != nil {
		s.notifier.NotifyTransition(created.ID, created.OwnerID,
			fmt.Sprintf("%s requested to rent port %d", requester.Name, created.PortID))
	}
	return created, nil
}

// Transition applies a named transition to the order on behalf of the
// actor. scheduledDate is only consulted for ActionSchedule.
func (s *Service) Transition(ctx context.Context, orderID, actorID string, action Action, scheduledDate *time.Time) (*model.RentalOrder, error) {
	actor, err := s.identity.Lookup(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var updated *model.RentalOrder
	var recipientID, message string
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		order, err := s.store.GetOrderForUpdate(tx, orderID)
		if err != nil {
			return err
		}

		role := Classify(order, actorID)
		outcome, err := Apply(order, action, role, s.now(), scheduledDate)
		if err != nil {
			return err
		}
		if !outcome.Changed {
			updated = order
			return nil
		}

		switch outcome.Effect {
		case EffectReleasePort:
			port, err := s.registry.GetPortForUpdate(tx, order.PortID)
			if err != nil {
				return err
			}
			if port.Status == model.PortReserved || port.Status == model.PortOccupied {
				if err := s.registry.Release(tx, order.PortID); err != nil {
					return err
				}
			}
		case EffectOccupyPort:
			if err := s.registry.Occupy(tx, order.PortID, order.RequesterID); err != nil {
				return err
			}
		}

		if err := s.store.SaveOrder(tx, order); err != nil {
			return err
		}

		note := systemNote(order.ID, actorID, transitionMessage(actor.Name, action, order))
		if err := s.store.AddNote(tx, &note); err != nil {
			return err
		}

		updated = order
		message = note.Content
		recipientID = order.Counterparty(actorID)
		return nil
	})
	if err != nil {
		return nil, wrapInfra(err)
	}

	if s.notifier != nil && recipientID != "" {
		s.notifier.NotifyTransition(orderID, recipientID, message)
	}
	return updated, nil
}

// Get returns the order-with-notes projection. Only participants may
// read an order.
func (s *Service) Get(ctx context.Context, orderID, actorID string) (*model.RentalOrder, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Participant(actorID) {
		return nil, apperr.Forbidden("not a party to order %s", orderID)
	}
	return order, nil
}

// List returns the actor's orders filtered by direction and status.
func (s *Service) List(ctx context.Context, actorID string, dir store.Direction, status model.OrderStatus) ([]model.RentalOrder, error) {
	return s.store.ListOrders(ctx, actorID, dir, status)
}

// AddUserNote appends a user-authored note to an order the actor
// participates in. Notes are append-only.
func (s *Service) AddUserNote(ctx context.Context, orderID, actorID, content string) (*model.OrderNote, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("note content must not be empty")
	}
	if _, err := s.identity.Lookup(ctx, actorID); err != nil {
		return nil, err
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Participant(actorID) {
		return nil, apperr.Forbidden("not a party to order %s", orderID)
	}

	note := model.OrderNote{
		ID:       uuid.NewString(),
		OrderID:  orderID,
		AuthorID: actorID,
		Content:  content,
		IsSystem: false,
	}
	if err := s.store.AddNote(s.store.DB().WithContext(ctx), &note); err != nil {
		return nil, wrapInfra(err)
	}
	return &note, nil
}

func systemNote(orderID, authorID, content string) model.OrderNote {
	return model.OrderNote{
		ID:       uuid.NewString(),
		OrderID:  orderID,
		AuthorID: authorID,
		Content:  content,
		IsSystem: true,
	}
}

func transitionMessage(actorName string, action Action, o *model.RentalOrder) string {
	switch action {
	case ActionApprove:
		return fmt.Sprintf("%s approved the order, contract generated", actorName)
	case ActionReject:
		return fmt.Sprintf("%s rejected the order", actorName)
	case ActionSign:
		if o.Status == model.OrderContractSigned {
			return fmt.Sprintf("%s signed the contract; contract fully signed", actorName)
		}
		return fmt.Sprintf("%s signed the contract", actorName)
	case ActionSchedule:
		return fmt.Sprintf("%s scheduled installation for %s", actorName, o.ScheduledDate.Format(time.RFC3339))
	case ActionStart:
		return fmt.Sprintf("%s started the installation", actorName)
	case ActionComplete:
		return fmt.Sprintf("%s completed the installation", actorName)
	case ActionCancel:
		return fmt.Sprintf("%s cancelled the order", actorName)
	}
	return fmt.Sprintf("%s updated the order", actorName)
}

// wrapInfra maps cancellation and timeout surfacing from the driver to
// the retryable class. The transaction has already rolled back, so the
// attempt had no side effects.
func wrapInfra(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperr.Unavailable(err)
	}
	return err
}
