// Package mysql implements the catalog repository on MySQL via sqlx.
package mysql

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/forresttindall/paradoxlabs/pkg/catalog/domain/model"
)

type ProductRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

type productRow struct {
	ID            string    `db:"id"`
	Name          string    `db:"name"`
	Description   string    `db:"description"`
	PriceCents    int64     `db:"price_cents"`
	ImageURL      string    `db:"image_url"`
	StockQuantity int       `db:"stock_quantity"`
	Status        int       `db:"status"`
	Version       int       `db:"version"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r *ProductRepository) NextID() (uuid.UUID, error) {
	return uuid.New(), nil
}

func (r *ProductRepository) Create(product *model.Product) error {
	const query = `
		INSERT INTO products (id, name, description, price_cents, image_url, stock_quantity, status, version, created_at, updated_at)
		VALUES (:id, :name, :description, :price_cents, :image_url, :stock_quantity, :status, :version, :created_at, :updated_at)`

	if _, err := r.db.NamedExec(query, toRow(product)); err != nil {
		return errors.Wrapf(err, "insert product %s", product.ID)
	}
	return nil
}

func (r *ProductRepository) Update(product *model.Product) error {
	const query = `
		UPDATE products
		SET name = :name, description = :description, price_cents = :price_cents,
		    image_url = :image_url, stock_quantity = :stock_quantity, status = :status,
		    version = :version, updated_at = :updated_at
		WHERE id = :id AND version = :version - 1`

	res, err := r.db.NamedExec(query, toRow(product))
	if err != nil {
		return errors.Wrapf(err, "update product %s", product.ID)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return model.ErrOptimisticLock
	}
	return nil
}

func (r *ProductRepository) Find(id uuid.UUID) (*model.Product, error) {
	const query = `SELECT * FROM products WHERE id = ?`

	var row productRow
	if err := r.db.Get(&row, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrProductNotFound
		}
		return nil, errors.Wrapf(err, "find product %s", id)
	}
	return fromRow(row)
}

func (r *ProductRepository) ListAvailable() ([]*model.Product, error) {
	const query = `SELECT * FROM products WHERE status = ? ORDER BY created_at DESC`

	var rows []productRow
	if err := r.db.Select(&rows, query, int(model.Available)); err != nil {
		return nil, errors.Wrap(err, "list products")
	}

	products := make([]*model.Product, 0, len(rows))
	for _, row := range rows {
		product, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, nil
}

func toRow(p *model.Product) productRow {
	return productRow{
		ID:            p.ID.String(),
		Name:          p.Name,
		Description:   p.Description,
		PriceCents:    p.PriceCents,
		ImageURL:      p.ImageURL,
		StockQuantity: p.StockQuantity,
		Status:        int(p.Status),
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func fromRow(row productRow) (*model.Product, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "parse product id %q", row.ID)
	}
	return &model.Product{
		ID:            id,
		Name:          row.Name,
		Description:   row.Description,
		PriceCents:    row.PriceCents,
		ImageURL:      row.ImageURL,
		StockQuantity: row.StockQuantity,
		Status:        model.ProductStatus(row.Status),
		Version:       row.Version,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}
