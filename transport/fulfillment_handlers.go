package transport

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/forresttindall/paradoxlabs/pkg/order/domain/model"
	orderservice "github.com/forresttindall/paradoxlabs/pkg/order/domain/service"
)

const defaultPageLimit = 50

const (
	actionMarkShipped    = "mark_shipped"
	actionMarkProcessing = "mark_processing"
	actionMarkDelivered  = "mark_delivered"
	actionMarkCancelled  = "mark_cancelled"
)

type orderResponse struct {
	ID                 string           `json:"id"`
	OrderNumber        string           `json:"orderNumber"`
	Amount             float64          `json:"amount"`
	Currency           string           `json:"currency"`
	Status             string           `json:"status"`
	FulfillmentStatus  string           `json:"fulfillmentStatus"`
	CustomerEmail      string           `json:"customerEmail"`
	CustomerName       string           `json:"customerName"`
	CustomerPhone      string           `json:"customerPhone"`
	OrderDate          string           `json:"orderDate"`
	ShippingAddress    addressResponse  `json:"shippingAddress"`
	Items              []itemResponse   `json:"items"`
	Tracking           trackingResponse `json:"tracking"`
	FulfillmentUpdated string           `json:"fulfillmentUpdated"`
	ShippedDate        string           `json:"shippedDate"`
}

type addressResponse struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type itemResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type trackingResponse struct {
	Number            string `json:"number"`
	Carrier           string `json:"carrier"`
	URL               string `json:"url"`
	EstimatedDelivery string `json:"estimatedDelivery,omitempty"`
}

type listOrdersResponse struct {
	Orders     []orderResponse `json:"orders"`
	HasMore    bool            `json:"hasMore"`
	TotalCount int             `json:"totalCount"`
}

func (h *handler) listOrders(w http.ResponseWriter, r *http.Request) {
	query := orderservice.ListOrdersQuery{
		Status:        model.FulfillmentStatus(r.URL.Query().Get("status")),
		Limit:         defaultPageLimit,
		StartingAfter: r.URL.Query().Get("starting_after"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			query.Limit = limit
		}
	}

	page, err := h.deps.Fulfillment.ListOrders(r.Context(), query)
	if err != nil {
		log.WithError(err).Error("list orders failed")
		writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}

	resp := listOrdersResponse{
		Orders:     make([]orderResponse, 0, len(page.Orders)),
		HasMore:    page.HasMore,
		TotalCount: page.TotalCount,
	}
	for _, order := range page.Orders {
		resp.Orders = append(resp.Orders, toOrderResponse(order))
	}

	writeJSON(w, http.StatusOK, resp)
}

type trackingInfoRequest struct {
	TrackingNumber    string `json:"trackingNumber"`
	Carrier           string `json:"carrier"`
	TrackingURL       string `json:"trackingUrl"`
	EstimatedDelivery string `json:"estimatedDelivery"`
}

type updateOrderRequest struct {
	OrderID      string               `json:"orderId"`
	Action       string               `json:"action"`
	TrackingInfo *trackingInfoRequest `json:"trackingInfo"`
	Reason       string               `json:"reason"`
}

type updateOrderResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.OrderID == "" || req.Action == "" {
		writeError(w, http.StatusBadRequest, "Order ID and action are required",
			"Missing required fields: orderId or action")
		return
	}

	var (
		result *model.UpdateResult
		err    error
	)

	switch req.Action {
	case actionMarkShipped:
		if req.TrackingInfo == nil || req.TrackingInfo.TrackingNumber == "" || req.TrackingInfo.Carrier == "" {
			writeError(w, http.StatusBadRequest, "Tracking number and carrier are required for shipping",
				"Please provide both tracking number and carrier information")
			return
		}
		result, err = h.deps.Fulfillment.MarkShipped(r.Context(), req.OrderID, model.TrackingInfo{
			Number:            req.TrackingInfo.TrackingNumber,
			Carrier:           req.TrackingInfo.Carrier,
			URL:               req.TrackingInfo.TrackingURL,
			EstimatedDelivery: req.TrackingInfo.EstimatedDelivery,
		})

	case actionMarkProcessing:
		result, err = h.deps.Fulfillment.MarkProcessing(r.Context(), req.OrderID)

	case actionMarkDelivered:
		result, err = h.deps.Fulfillment.MarkDelivered(r.Context(), req.OrderID)

	case actionMarkCancelled:
		result, err = h.deps.Fulfillment.MarkCancelled(r.Context(), req.OrderID, req.Reason)

	default:
		writeError(w, http.StatusBadRequest, "Invalid action",
			"Action '"+req.Action+"' is not supported. Valid actions: mark_shipped, mark_processing, mark_delivered, mark_cancelled")
		return
	}

	if err != nil {
		log.WithFields(log.Fields{
			"orderId": req.OrderID,
			"action":  req.Action,
		}).WithError(err).Error("order update failed")
		writeError(w, fulfillmentErrorStatus(err), "Failed to update order", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, updateOrderResponse{Success: true, Message: result.Message})
}

func fulfillmentErrorStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrMissingTrackingInfo),
		errors.Is(err, model.ErrMissingCustomerEmail),
		errors.Is(err, model.ErrInvalidUpdate):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func toOrderResponse(order *model.Order) orderResponse {
	items := make([]itemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, itemResponse{
			ID:       item.ID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	return orderResponse{
		ID:                order.ID,
		OrderNumber:       order.ID,
		Amount:            float64(order.AmountCents) / 100,
		Currency:          order.Currency,
		Status:            order.PaymentStatus,
		FulfillmentStatus: string(order.FulfillmentStatus),
		CustomerEmail:     order.Customer.Email,
		CustomerName:      order.Customer.Name,
		CustomerPhone:     order.Customer.Phone,
		OrderDate:         formatTime(order.OrderDate),
		ShippingAddress: addressResponse{
			Name:       order.ShippingAddress.Name,
			Line1:      order.ShippingAddress.Line1,
			City:       order.ShippingAddress.City,
			State:      order.ShippingAddress.State,
			PostalCode: order.ShippingAddress.PostalCode,
			Country:    order.ShippingAddress.Country,
		},
		Items: items,
		Tracking: trackingResponse{
			Number:            order.Tracking.Number,
			Carrier:           order.Tracking.Carrier,
			URL:               order.Tracking.URL,
			EstimatedDelivery: order.Tracking.EstimatedDelivery,
		},
		FulfillmentUpdated: formatTime(order.FulfillmentUpdatedAt),
		ShippedDate:        formatTime(order.Tracking.ShippedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
