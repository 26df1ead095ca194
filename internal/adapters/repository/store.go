// Package repository persists registered model metadata.
package repository

import (
	"context"

	"github.com/okian/attrition/internal/domain/model"
)

// Store provides read/write access to the model catalogue.
type Store interface {
	// Insert assigns the next version for m.Name, stores the row and, when
	// activate is set, makes it the only active model in the same transaction.
	Insert(ctx context.Context, m *model.RegisteredModel, activate bool) error

	// Activate makes id the only active model. Returns model.ErrModelNotFound
	// if id is unknown.
	Activate(ctx context.Context, id string) error

	// Active returns the active model, or nil when none is active.
	Active(ctx context.Context) (*model.RegisteredModel, error)

	// Best returns the highest-accuracy model (newest on ties), or nil when
	// the catalogue is empty.
	Best(ctx context.Context) (*model.RegisteredModel, error)

	// Get returns model.ErrModelNotFound if id is unknown.
	Get(ctx context.Context, id string) (*model.RegisteredModel, error)

	// List returns models newest first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]model.RegisteredModel, error)

	// Count returns the number of registered models.
	Count(ctx context.Context) (int, error)

	Close() error
}
