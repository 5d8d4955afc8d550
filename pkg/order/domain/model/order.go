package model

import (
	"context"
	"errors"
	"time"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidUpdate        = errors.New("invalid fulfillment update")
	ErrMissingTrackingInfo  = errors.New("tracking number and carrier are required for shipping")
	ErrMissingCustomerEmail = errors.New("customer email not found in payment intent metadata")

	// Payment network failure classes, resolved from the provider error
	// where it exposes a cause.
	ErrPaymentCard        = errors.New("card was declined")
	ErrPaymentInvalid     = errors.New("invalid payment information")
	ErrPaymentUnavailable = errors.New("payment service temporarily unavailable")
)

type FulfillmentStatus string

const (
	StatusPending    FulfillmentStatus = "pending"
	StatusPaid       FulfillmentStatus = "paid"
	StatusProcessing FulfillmentStatus = "processing"
	StatusShipped    FulfillmentStatus = "shipped"
	StatusDelivered  FulfillmentStatus = "delivered"
	StatusCancelled  FulfillmentStatus = "cancelled"
)

func (s FulfillmentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// NextStatuses is the expected fulfillment flow. Admin actions are not
// restricted to it (overrides such as cancelling a shipped order are
// legitimate); off-graph transitions are logged, not rejected.
var NextStatuses = map[FulfillmentStatus][]FulfillmentStatus{
	StatusPending:    {StatusPaid, StatusCancelled},
	StatusPaid:       {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

func (s FulfillmentStatus) CanTransitionTo(next FulfillmentStatus) bool {
	for _, allowed := range NextStatuses[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Customer struct {
	Email string
	Name  string
	Phone string
}

type ShippingAddress struct {
	Name       string
	Line1      string
	City       string
	State      string
	PostalCode string
	Country    string
}

type Item struct {
	ID       string
	Name     string
	Quantity int
	Price    float64
}

type Tracking struct {
	Number            string
	Carrier           string
	URL               string
	ShippedAt         time.Time
	EstimatedDelivery string
}

// TrackingInfo is the admin-supplied payload for marking an order shipped.
type TrackingInfo struct {
	Number            string
	Carrier           string
	URL               string
	EstimatedDelivery string
}

// Order is a view over a payment intent and its metadata; it is never
// stored independently.
type Order struct {
	ID                   string
	AmountCents          int64
	Currency             string
	PaymentStatus        string
	FulfillmentStatus    FulfillmentStatus
	FulfillmentUpdatedAt time.Time
	OrderDate            time.Time
	Customer             Customer
	ShippingAddress      ShippingAddress
	Items                []Item
	ItemCount            int
	Tracking             Tracking
}

type OrderPage struct {
	Orders     []*Order
	HasMore    bool
	TotalCount int
}

// UpdateResult reports a fulfillment mutation. The status write is the
// durable effect; NotificationErr carries a failed advisory email without
// affecting the operation's success.
type UpdateResult struct {
	OrderID         string
	Status          FulfillmentStatus
	Message         string
	NotificationErr error
}

// PaymentIntent is the gateway-level record an Order is decoded from.
type PaymentIntent struct {
	ID           string
	AmountCents  int64
	Currency     string
	Status       string
	ClientSecret string
	Metadata     map[string]string
}

type CreateIntentParams struct {
	AmountCents int64
	Currency    string
	Customer    Customer
	Shipping    ShippingAddress
	Metadata    map[string]string
}

type ListIntentsParams struct {
	Limit         int
	StartingAfter string
}

type IntentPage struct {
	Intents []*PaymentIntent
	HasMore bool
}

type PaymentGateway interface {
	CreateIntent(ctx context.Context, params CreateIntentParams) (*PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*PaymentIntent, error)
	// UpdateMetadata applies a key/value patch; keys absent from the patch
	// keep their current values (provider metadata updates are merges).
	UpdateMetadata(ctx context.Context, id string, patch map[string]string) error
	ListIntents(ctx context.Context, params ListIntentsParams) (*IntentPage, error)
}

// WebhookEvent is a verified, normalized payment network event.
type WebhookEvent struct {
	ID     string
	Type   string
	Intent *PaymentIntent
}

type WebhookVerifier interface {
	VerifyEvent(payload []byte, signatureHeader string) (*WebhookEvent, error)
}
