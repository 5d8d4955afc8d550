package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock quantity")
	ErrOptimisticLock    = errors.New("product was modified by another request")
)

type ProductStatus int

const (
	Available ProductStatus = iota
	Unavailable
	Archived
)

type Product struct {
	ID            uuid.UUID
	Name          string
	Description   string
	PriceCents    int64
	ImageURL      string
	StockQuantity int
	Status        ProductStatus
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ProductRepository interface {
	NextID() (uuid.UUID, error)
	Create(product *Product) error
	Update(product *Product) error
	Find(id uuid.UUID) (*Product, error)
	ListAvailable() ([]*Product, error)
}
