package model

import "errors"

var (
	ErrUnsupportedStatus = errors.New("unsupported notification status")

	// Transport failure classes, resolved from the SMTP error where the
	// transport exposes a cause.
	ErrMailAuth       = errors.New("email transport authentication failed")
	ErrMailConnection = errors.New("email transport connection failed")
	ErrMailFormat     = errors.New("email message rejected by transport")
)

type OrderItem struct {
	ID       string
	Name     string
	Quantity int
	Price    float64
}

type Address struct {
	Name       string
	Line1      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// OrderDetails is the normalized order view the email templates render.
type OrderDetails struct {
	OrderNumber     string
	CustomerName    string
	CustomerEmail   string
	OrderDate       string
	Items           []OrderItem
	ShippingAddress Address
}

type TrackingDetails struct {
	Number            string
	Carrier           string
	URL               string
	EstimatedDelivery string
}

// MailSender is the outbound email transport. Verify is a connection probe
// run before each send; Send delivers a single HTML message.
type MailSender interface {
	Verify() error
	Send(recipient, subject, htmlBody string) error
}
