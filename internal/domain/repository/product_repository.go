package repository

import (
	"context"

	"github.com/swapyard/swapyard-api/internal/domain/entity"
)

// ProductRepository defines persistence for marketplace listings. Mutations
// that take an ownerID are owner-scoped and return ErrNotFound when the
// listing does not exist or belongs to someone else.
type ProductRepository interface {
	Create(ctx context.Context, p *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	Update(ctx context.Context, ownerID string, p *entity.Product) error
	Delete(ctx context.Context, ownerID, id string) (*entity.Product, error)
	ListByCategory(ctx context.Context, category string, page, limit int) ([]*entity.Product, error)
	ListByOwner(ctx context.Context, ownerID string, page, limit int) ([]*entity.Product, error)
	ListLatest(ctx context.Context, limit int) ([]*entity.Product, error)
}
