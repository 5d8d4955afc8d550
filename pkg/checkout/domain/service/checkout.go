package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/forresttindall/paradoxlabs/pkg/order/domain/model"
)

var (
	ErrNoItems         = errors.New("items array is required and cannot be empty")
	ErrMissingCustomer = errors.New("customer info with email is required")
)

// Pricing policy of the storefront: free shipping above $100, otherwise a
// flat $10, plus a flat 8% tax.
var (
	freeShippingThreshold = decimal.NewFromInt(100)
	flatShippingFee       = decimal.NewFromInt(10)
	taxRate               = decimal.NewFromFloat(0.08)
)

type CheckoutItem struct {
	ID       string
	Name     string
	Quantity int
	Price    float64
}

type CheckoutRequest struct {
	Items    []CheckoutItem
	Customer model.Customer
	Shipping model.ShippingAddress
}

// OrderTotals is the cost breakdown in cents.
type OrderTotals struct {
	SubtotalCents int64
	ShippingCents int64
	TaxCents      int64
	TotalCents    int64
}

type CheckoutResult struct {
	PaymentIntentID string
	ClientSecret    string
	Totals          OrderTotals
}

type CheckoutService interface {
	CreateOrder(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
}

func NewCheckoutService(gateway model.PaymentGateway) CheckoutService {
	return &checkoutService{gateway: gateway, now: time.Now}
}

type checkoutService struct {
	gateway model.PaymentGateway
	now     func() time.Time
}

func (s *checkoutService) CreateOrder(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrNoItems
	}
	if req.Customer.Email == "" {
		return nil, ErrMissingCustomer
	}

	totals := CalculateTotals(req.Items)
	shipping := NormalizeShipping(req.Shipping)

	items := make([]model.Item, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, model.Item{
			ID:       item.ID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	intent, err := s.gateway.CreateIntent(ctx, model.CreateIntentParams{
		AmountCents: totals.TotalCents,
		Currency:    "usd",
		Customer:    req.Customer,
		Shipping:    shipping,
		Metadata:    model.EncodeOrderMetadata(req.Customer, shipping, items, s.now().UTC()),
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"paymentIntentId": intent.ID,
		"amountCents":     totals.TotalCents,
		"itemCount":       len(req.Items),
	}).Info("payment intent created")

	return &CheckoutResult{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Totals:          totals,
	}, nil
}

// CalculateTotals computes the cost breakdown from dollar item prices,
// rounding each component to whole cents.
func CalculateTotals(items []CheckoutItem) OrderTotals {
	subtotal := decimal.Zero
	for _, item := range items {
		price := decimal.NewFromFloat(item.Price)
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	shipping := flatShippingFee
	if subtotal.GreaterThan(freeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(taxRate)

	return OrderTotals{
		SubtotalCents: toCents(subtotal),
		ShippingCents: toCents(shipping),
		TaxCents:      toCents(tax),
		TotalCents:    toCents(subtotal.Add(shipping).Add(tax)),
	}
}

// NormalizeShipping trims the address fields and defaults the country to US.
func NormalizeShipping(addr model.ShippingAddress) model.ShippingAddress {
	normalized := model.ShippingAddress{
		Name:       strings.TrimSpace(addr.Name),
		Line1:      strings.TrimSpace(addr.Line1),
		City:       strings.TrimSpace(addr.City),
		State:      strings.TrimSpace(addr.State),
		PostalCode: strings.TrimSpace(addr.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(addr.Country)),
	}
	if normalized.Country == "" {
		normalized.Country = "US"
	}
	return normalized
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
