package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swapyard/swapyard-api/internal/domain/entity"
	"github.com/swapyard/swapyard-api/internal/domain/repository"
)

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `id, owner_id, name, description, category, price, purchasing_date, thumbnail_url, images, created_at, updated_at`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	p := &entity.Product{}
	var images []byte
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Category,
		&p.Price, &p.PurchasingDate, &p.ThumbnailURL, &images, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (owner_id, name, description, category, price, purchasing_date, thumbnail_url, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, p.OwnerID, p.Name, p.Description, p.Category, p.Price, p.PurchasingDate, p.ThumbnailURL, images)
	return row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

func (r *ProductRepository) Update(ctx context.Context, ownerID string, p *entity.Product) error {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return err
	}
	res, err := r.pool.Exec(ctx, `
		UPDATE products
		SET name = $1, description = $2, category = $3, price = $4,
		    purchasing_date = $5, thumbnail_url = $6, images = $7, updated_at = now()
		WHERE id = $8 AND owner_id = $9
	`, p.Name, p.Description, p.Category, p.Price, p.PurchasingDate, p.ThumbnailURL, images, p.ID, ownerID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes an owner's listing and returns it so callers can clean up
// stored images.
func (r *ProductRepository) Delete(ctx context.Context, ownerID, id string) (*entity.Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `
		DELETE FROM products
		WHERE id = $1 AND owner_id = $2
		RETURNING `+productColumns, id, ownerID))
}

func (r *ProductRepository) ListByCategory(ctx context.Context, category string, page, limit int) ([]*entity.Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE category = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`, category, offset(page, limit), limit)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (r *ProductRepository) ListByOwner(ctx context.Context, ownerID string, page, limit int) ([]*entity.Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE owner_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`, ownerID, offset(page, limit), limit)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (r *ProductRepository) ListLatest(ctx context.Context, limit int) ([]*entity.Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+` FROM products
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

func collectProducts(rows pgx.Rows) ([]*entity.Product, error) {
	defer rows.Close()
	var out []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var _ repository.ProductRepository = (*ProductRepository)(nil)
