package model

type FulfillmentStatusChanged struct {
	OrderID  string
	Previous FulfillmentStatus
	Next     FulfillmentStatus
}

func (e FulfillmentStatusChanged) Type() string { return "FulfillmentStatusChanged" }

type OrderShipped struct {
	OrderID        string
	TrackingNumber string
	Carrier        string
}

func (e OrderShipped) Type() string { return "OrderShipped" }

type NotificationFailed struct {
	OrderID string
	Status  FulfillmentStatus
	Reason  string
}

func (e NotificationFailed) Type() string { return "NotificationFailed" }
