// Package identity resolves actor ids to operator records. The order
// service consumes it for note authorship and notification text; it is
// the only window into the operator directory.
package identity

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"portshare-backend/internal/apperr"
	"portshare-backend/internal/model"
)

// Resolver looks up operators by id.
type Resolver interface {
	Lookup(ctx context.Context, operatorID string) (*model.Operator, error)
}

// gormResolver implements Resolver over the operators table.
type gormResolver struct {
	db *gorm.DB
}

// NewGormResolver creates a resolver backed by the given database.
func NewGormResolver(db *gorm.DB) Resolver {
	return &gormResolver{db: db}
}

func (r *gormResolver) Lookup(ctx context.Context, operatorID string) (*model.Operator, error) {
	var op model.Operator
	if err := r.db.WithContext(ctx).First(&op, "id = ?", operatorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("operator %s", operatorID)
		}
		return nil, err
	}
	return &op, nil
}
