// Package registry is the only place allowed to change a port's
// status/tenant and its cabinet's occupied-port counter. Every
// status-changing operation covers both rows in one transaction, so
// the counter can never drift from the actual port statuses.
package registry

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"portshare-backend/internal/apperr"
	"portshare-backend/internal/model"
)

// Registry mediates all port-status and cabinet-counter writes.
type Registry struct {
	db *gorm.DB
}

// New creates a registry over the given database handle.
func New(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// DB exposes the underlying handle for read-only API handlers.
func (r *Registry) DB() *gorm.DB {
	return r.db
}

// forUpdate applies a row lock on dialects that support it. The sqlite
// driver used in tests rejects FOR UPDATE; its single-writer model
// serializes transactions anyway.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// lockPort fetches a port under a row lock within tx.
func lockPort(tx *gorm.DB, portID int64) (*model.Port, error) {
	var port model.Port
	if err := forUpdate(tx).First(&port, portID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("port %d", portID)
		}
		return nil, err
	}
	return &port, nil
}

// GetPortForUpdate fetches a port under a row lock within tx, for
// callers composing registry operations into a larger transaction.
func (r *Registry) GetPortForUpdate(tx *gorm.DB, portID int64) (*model.Port, error) {
	return lockPort(tx, portID)
}

// GetPort returns a port by id, without locking.
func (r *Registry) GetPort(ctx context.Context, portID int64) (*model.Port, error) {
	var port model.Port
	if err := r.db.WithContext(ctx).First(&port, portID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("port %d", portID)
		}
		return nil, err
	}
	return &port, nil
}

// Reserve marks an available port as reserved. Reserved ports are not
// counted as occupied, so the cabinet counter is untouched.
func (r *Registry) Reserve(tx *gorm.DB, portID int64) error {
	port, err := lockPort(tx, portID)
	if err != nil {
		return err
	}
	if port.Status != model.PortAvailable {
		return apperr.InvalidState("port %d is %s, expected available", portID, port.Status)
	}
	port.Status = model.PortReserved
	return tx.Save(port).Error
}

// Release returns a reserved or occupied port to available, clearing
// its tenant. If the port was occupied the cabinet counter is
// decremented in the same transaction.
func (r *Registry) Release(tx *gorm.DB, portID int64) error {
	port, err := lockPort(tx, portID)
	if err != nil {
		return err
	}
	if port.Status != model.PortReserved && port.Status != model.PortOccupied {
		return apperr.InvalidState("port %d is %s, expected reserved or occupied", portID, port.Status)
	}
	if port.Status == model.PortOccupied {
		if err := adjustOccupied(tx, port.CabinetID, -1); err != nil {
			return err
		}
	}
	port.Status = model.PortAvailable
	port.TenantID = nil
	return tx.Save(port).Error
}

// Occupy assigns a tenant to an available or reserved port and
// increments the cabinet counter in the same transaction.
func (r *Registry) Occupy(tx *gorm.DB, portID int64, tenantID string) error {
	port, err := lockPort(tx, portID)
	if err != nil {
		return err
	}
	if port.Status != model.PortAvailable && port.Status != model.PortReserved {
		return apperr.InvalidState("port %d is %s, expected available or reserved", portID, port.Status)
	}
	if err := adjustOccupied(tx, port.CabinetID, +1); err != nil {
		return err
	}
	port.Status = model.PortOccupied
	port.TenantID = &tenantID
	return tx.Save(port).Error
}

func adjustOccupied(tx *gorm.DB, cabinetID int64, delta int) error {
	res := tx.Model(&model.Cabinet{}).Where("id = ?", cabinetID).
		UpdateColumn("occupied_ports", gorm.Expr("occupied_ports + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("cabinet %d", cabinetID)
	}
	return nil
}

// cabinetOwner returns the operator owning the cabinet.
func cabinetOwner(tx *gorm.DB, cabinetID int64) (string, error) {
	var cabinet model.Cabinet
	if err := tx.Select("operator_id").First(&cabinet, cabinetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.NotFound("cabinet %d", cabinetID)
		}
		return "", err
	}
	return cabinet.OperatorID, nil
}

// SetPrice updates a port's advertised monthly price. Owner-only. The
// price is advertisement only; orders fix their own price at creation.
func (r *Registry) SetPrice(ctx context.Context, operatorID string, portID int64, price float64) error {
	if price < 0 {
		return apperr.Validation("price must not be negative")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		port, err := lockPort(tx, portID)
		if err != nil {
			return err
		}
		owner, err := cabinetOwner(tx, port.CabinetID)
		if err != nil {
			return err
		}
		if owner != operatorID {
			return apperr.Forbidden("port %d belongs to another operator", portID)
		}
		port.MonthlyPrice = &price
		return tx.Save(port).Error
	})
}

// SetMaintenance flips a port between available and maintenance.
// Owner-only. Ports that are reserved or occupied by a tenant cannot
// be taken down.
func (r *Registry) SetMaintenance(ctx context.Context, operatorID string, portID int64, down bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		port, err := lockPort(tx, portID)
		if err != nil {
			return err
		}
		owner, err := cabinetOwner(tx, port.CabinetID)
		if err != nil {
			return err
		}
		if owner != operatorID {
			return apperr.Forbidden("port %d belongs to another operator", portID)
		}
		if down {
			if port.Status != model.PortAvailable {
				return apperr.InvalidState("port %d is %s, expected available", portID, port.Status)
			}
			port.Status = model.PortMaintenance
		} else {
			if port.Status != model.PortMaintenance {
				return apperr.InvalidState("port %d is %s, expected maintenance", portID, port.Status)
			}
			port.Status = model.PortAvailable
		}
		return tx.Save(port).Error
	})
}

// CreateCabinet creates a cabinet with totalPorts available ports and
// a zeroed occupied counter, all in one transaction.
func (r *Registry) CreateCabinet(ctx context.Context, operatorID, name string, totalPorts int) (*model.Cabinet, error) {
	if totalPorts <= 0 {
		return nil, apperr.Validation("total ports must be positive")
	}
	if name == "" {
		return nil, apperr.Validation("cabinet name must not be empty")
	}
	cabinet := &model.Cabinet{
		OperatorID: operatorID,
		Name:       name,
		Status:     model.CabinetActive,
		TotalPorts: totalPorts,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(cabinet).Error; err != nil {
			return err
		}
		ports := make([]model.Port, totalPorts)
		for i := range ports {
			ports[i] = model.Port{
				CabinetID: cabinet.ID,
				Seq:       i + 1,
				Status:    model.PortAvailable,
			}
		}
		return tx.Create(&ports).Error
	})
	if err != nil {
		return nil, err
	}
	return cabinet, nil
}

// DeleteCabinet removes a cabinet and its ports. Owner-only; refused
// while any port is occupied.
func (r *Registry) DeleteCabinet(ctx context.Context, operatorID string, cabinetID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cabinet model.Cabinet
		if err := forUpdate(tx).First(&cabinet, cabinetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("cabinet %d", cabinetID)
			}
			return err
		}
		if cabinet.OperatorID != operatorID {
			return apperr.Forbidden("cabinet %d belongs to another operator", cabinetID)
		}
		if cabinet.OccupiedPorts > 0 {
			return apperr.InvalidState("cabinet %d still has %d occupied ports", cabinetID, cabinet.OccupiedPorts)
		}
		if err := tx.Where("cabinet_id = ?", cabinetID).Delete(&model.Port{}).Error; err != nil {
			return err
		}
		return tx.Delete(&cabinet).Error
	})
}
