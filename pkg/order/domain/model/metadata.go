package model

import (
	"fmt"
	"strconv"
	"time"
)

// MaxEncodedItems caps how many line items survive the round trip through
// payment intent metadata. Stripe allows at most 50 metadata keys of 500
// characters each per object; four keys per item plus the customer, shipping
// and fulfillment fields leave room for three items. Items beyond the cap are
// dropped from metadata and unrecoverable; item_count keeps the original
// count.
const MaxEncodedItems = 3

const (
	metaCustomerEmail      = "customer_email"
	metaCustomerName       = "customer_name"
	metaCustomerPhone      = "customer_phone"
	metaOrderDate          = "order_date"
	metaItemCount          = "item_count"
	metaShippingName       = "shipping_name"
	metaShippingLine1      = "shipping_line1"
	metaShippingCity       = "shipping_city"
	metaShippingState      = "shipping_state"
	metaShippingPostalCode = "shipping_postal_code"
	metaShippingCountry    = "shipping_country"
	metaFulfillmentStatus  = "fulfillment_status"
	metaFulfillmentUpdated = "fulfillment_updated"
	metaTrackingNumber     = "tracking_number"
	metaTrackingCarrier    = "tracking_carrier"
	metaTrackingURL        = "tracking_url"
	metaShippedDate        = "shipped_date"
	metaEstimatedDelivery  = "estimated_delivery"
)

func itemKey(index int, field string) string {
	return fmt.Sprintf("item_%d_%s", index, field)
}

// EncodeOrderMetadata flattens the order data captured at checkout into the
// metadata bag attached to a new payment intent.
func EncodeOrderMetadata(customer Customer, shipping ShippingAddress, items []Item, orderDate time.Time) map[string]string {
	md := map[string]string{
		metaCustomerEmail:      customer.Email,
		metaCustomerName:       customer.Name,
		metaOrderDate:          orderDate.UTC().Format(time.RFC3339Nano),
		metaItemCount:          strconv.Itoa(len(items)),
		metaShippingName:       shipping.Name,
		metaShippingLine1:      shipping.Line1,
		metaShippingCity:       shipping.City,
		metaShippingState:      shipping.State,
		metaShippingPostalCode: shipping.PostalCode,
		metaShippingCountry:    shipping.Country,
	}
	if customer.Phone != "" {
		md[metaCustomerPhone] = customer.Phone
	}

	for i, item := range items {
		if i >= MaxEncodedItems {
			break
		}
		n := i + 1
		md[itemKey(n, "id")] = item.ID
		md[itemKey(n, "name")] = item.Name
		md[itemKey(n, "quantity")] = strconv.Itoa(item.Quantity)
		md[itemKey(n, "price")] = strconv.FormatFloat(item.Price, 'f', -1, 64)
	}

	return md
}

// EncodeStatusPatch produces the metadata patch for a fulfillment status
// write. Only keys being changed are supplied; unrelated metadata is left
// intact by the gateway's merge semantics.
func EncodeStatusPatch(status FulfillmentStatus, updatedAt time.Time, tracking *TrackingInfo) map[string]string {
	patch := map[string]string{
		metaFulfillmentStatus:  string(status),
		metaFulfillmentUpdated: updatedAt.UTC().Format(time.RFC3339Nano),
	}

	if tracking != nil {
		patch[metaTrackingNumber] = tracking.Number
		patch[metaTrackingCarrier] = tracking.Carrier
		patch[metaTrackingURL] = tracking.URL
		patch[metaShippedDate] = updatedAt.UTC().Format(time.RFC3339Nano)
		if tracking.EstimatedDelivery != "" {
			patch[metaEstimatedDelivery] = tracking.EstimatedDelivery
		}
	}

	return patch
}

// DecodeOrder reconstructs the order view from a payment intent. Malformed
// metadata never fails the decode: missing status means pending, numeric
// garbage becomes zero, items without both id and name are skipped.
func DecodeOrder(pi *PaymentIntent) *Order {
	md := pi.Metadata
	if md == nil {
		md = map[string]string{}
	}

	status := FulfillmentStatus(md[metaFulfillmentStatus])
	if !status.IsValid() {
		status = StatusPending
	}

	return &Order{
		ID:                   pi.ID,
		AmountCents:          pi.AmountCents,
		Currency:             pi.Currency,
		PaymentStatus:        pi.Status,
		FulfillmentStatus:    status,
		FulfillmentUpdatedAt: parseTime(md[metaFulfillmentUpdated]),
		OrderDate:            parseTime(md[metaOrderDate]),
		Customer: Customer{
			Email: md[metaCustomerEmail],
			Name:  md[metaCustomerName],
			Phone: md[metaCustomerPhone],
		},
		ShippingAddress: ShippingAddress{
			Name:       md[metaShippingName],
			Line1:      md[metaShippingLine1],
			City:       md[metaShippingCity],
			State:      md[metaShippingState],
			PostalCode: md[metaShippingPostalCode],
			Country:    md[metaShippingCountry],
		},
		Items:     decodeItems(md),
		ItemCount: atoiDefault(md[metaItemCount]),
		Tracking: Tracking{
			Number:            md[metaTrackingNumber],
			Carrier:           md[metaTrackingCarrier],
			URL:               md[metaTrackingURL],
			ShippedAt:         parseTime(md[metaShippedDate]),
			EstimatedDelivery: md[metaEstimatedDelivery],
		},
	}
}

func decodeItems(md map[string]string) []Item {
	count := atoiDefault(md[metaItemCount])
	if count > MaxEncodedItems {
		count = MaxEncodedItems
	}

	var items []Item
	for n := 1; n <= count; n++ {
		item := Item{
			ID:       md[itemKey(n, "id")],
			Name:     md[itemKey(n, "name")],
			Quantity: atoiDefault(md[itemKey(n, "quantity")]),
			Price:    parseFloatDefault(md[itemKey(n, "price")]),
		}
		if item.ID != "" && item.Name != "" {
			items = append(items, item)
		}
	}
	return items
}

func atoiDefault(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func parseFloatDefault(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
