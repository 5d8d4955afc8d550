package service

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/forresttindall/paradoxlabs/pkg/catalog/domain/model"
	"github.com/forresttindall/paradoxlabs/pkg/common/domain"
)

var (
	ErrInvalidStockQuantity = errors.New("stock quantity must be a positive number")
	ErrProductNotAvailable  = errors.New("operation cannot be performed on an unavailable or archived product")
	ErrNegativePrice        = errors.New("price cannot be negative")
)

type ProductService interface {
	CreateProduct(name, description, imageURL string, priceCents int64, initialStock int) (*model.Product, error)
	ChangeProductPrice(productID uuid.UUID, newPriceCents int64) error
	ReceiveStock(productID uuid.UUID, quantity int) error
	ArchiveProduct(productID uuid.UUID) error

	GetProduct(productID uuid.UUID) (*model.Product, error)
	ListProducts() ([]*model.Product, error)
}

func NewProductService(repo model.ProductRepository, dispatcher domain.EventDispatcher) ProductService {
	return &productService{repo: repo, dispatcher: dispatcher}
}

type productService struct {
	repo       model.ProductRepository
	dispatcher domain.EventDispatcher
}

func (s *productService) CreateProduct(name, description, imageURL string, priceCents int64, initialStock int) (*model.Product, error) {
	if priceCents < 0 {
		return nil, ErrNegativePrice
	}
	if initialStock < 0 {
		return nil, ErrInvalidStockQuantity
	}

	productID, err := s.repo.NextID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &model.Product{
		ID:            productID,
		Name:          name,
		Description:   description,
		ImageURL:      imageURL,
		PriceCents:    priceCents,
		StockQuantity: initialStock,
		Status:        model.Available,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(product); err != nil {
		return nil, err
	}

	_ = s.dispatcher.Dispatch(model.ProductCreated{ProductID: productID, Name: name})
	return product, nil
}

func (s *productService) ChangeProductPrice(productID uuid.UUID, newPriceCents int64) error {
	if newPriceCents < 0 {
		return ErrNegativePrice
	}

	product, err := s.repo.Find(productID)
	if err != nil {
		return err
	}
	if product.Status != model.Available {
		return ErrProductNotAvailable
	}

	oldPrice := product.PriceCents
	product.PriceCents = newPriceCents

	if err := s.updateProduct(product); err != nil {
		return err
	}

	_ = s.dispatcher.Dispatch(model.ProductPriceChanged{
		ProductID:     productID,
		OldPriceCents: oldPrice,
		NewPriceCents: newPriceCents,
	})
	return nil
}

func (s *productService) ReceiveStock(productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidStockQuantity
	}

	product, err := s.repo.Find(productID)
	if err != nil {
		return err
	}
	if product.Status == model.Archived {
		return ErrProductNotAvailable
	}

	product.StockQuantity += quantity
	if product.Status == model.Unavailable && product.StockQuantity > 0 {
		product.Status = model.Available
	}

	if err := s.updateProduct(product); err != nil {
		return err
	}

	_ = s.dispatcher.Dispatch(model.ProductStockChanged{
		ProductID:    productID,
		ChangeAmount: quantity,
		NewQuantity:  product.StockQuantity,
	})
	return nil
}

func (s *productService) ArchiveProduct(productID uuid.UUID) error {
	product, err := s.repo.Find(productID)
	if err != nil {
		return err
	}

	product.Status = model.Archived

	if err := s.updateProduct(product); err != nil {
		return err
	}

	_ = s.dispatcher.Dispatch(model.ProductArchived{ProductID: productID})
	return nil
}

func (s *productService) GetProduct(productID uuid.UUID) (*model.Product, error) {
	return s.repo.Find(productID)
}

func (s *productService) ListProducts() ([]*model.Product, error) {
	return s.repo.ListAvailable()
}

func (s *productService) updateProduct(product *model.Product) error {
	product.Version++
	product.UpdatedAt = time.Now().UTC()
	return s.repo.Update(product)
}
