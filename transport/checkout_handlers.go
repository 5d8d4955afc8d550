package transport

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	checkoutservice "github.com/forresttindall/paradoxlabs/pkg/checkout/domain/service"
	"github.com/forresttindall/paradoxlabs/pkg/order/domain/model"
)

type checkoutItemRequest struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type checkoutAddressRequest struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type checkoutShippingRequest struct {
	Name    string                 `json:"name"`
	Address checkoutAddressRequest `json:"address"`
}

type checkoutCustomerRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type createPaymentIntentRequest struct {
	Items        []checkoutItemRequest   `json:"items"`
	ShippingInfo checkoutShippingRequest `json:"shippingInfo"`
	CustomerInfo checkoutCustomerRequest `json:"customerInfo"`
}

type orderTotalResponse struct {
	Subtotal int64 `json:"subtotal"`
	Shipping int64 `json:"shipping"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

type createPaymentIntentResponse struct {
	ClientSecret string             `json:"client_secret"`
	OrderTotal   orderTotalResponse `json:"order_total"`
}

type checkoutErrorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

func (h *handler) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req createPaymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, checkoutErrorResponse{Error: "Invalid request body", Type: "validation_error"})
		return
	}

	items := make([]checkoutservice.CheckoutItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, checkoutservice.CheckoutItem{
			ID:       item.ID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	result, err := h.deps.Checkout.CreateOrder(r.Context(), checkoutservice.CheckoutRequest{
		Items: items,
		Customer: model.Customer{
			Email: req.CustomerInfo.Email,
			Name:  req.CustomerInfo.Name,
			Phone: req.CustomerInfo.Phone,
		},
		Shipping: model.ShippingAddress{
			Name:       req.ShippingInfo.Name,
			Line1:      req.ShippingInfo.Address.Line1,
			City:       req.ShippingInfo.Address.City,
			State:      req.ShippingInfo.Address.State,
			PostalCode: req.ShippingInfo.Address.PostalCode,
			Country:    req.ShippingInfo.Address.Country,
		},
	})
	if err != nil {
		status, resp := checkoutError(err)
		log.WithError(err).Error("create payment intent failed")
		writeJSON(w, status, resp)
		return
	}

	writeJSON(w, http.StatusOK, createPaymentIntentResponse{
		ClientSecret: result.ClientSecret,
		OrderTotal: orderTotalResponse{
			Subtotal: result.Totals.SubtotalCents,
			Shipping: result.Totals.ShippingCents,
			Tax:      result.Totals.TaxCents,
			Total:    result.Totals.TotalCents,
		},
	})
}

func checkoutError(err error) (int, checkoutErrorResponse) {
	switch {
	case errors.Is(err, checkoutservice.ErrNoItems), errors.Is(err, checkoutservice.ErrMissingCustomer):
		return http.StatusBadRequest, checkoutErrorResponse{Error: err.Error(), Type: "validation_error"}
	case errors.Is(err, model.ErrPaymentCard):
		return http.StatusBadRequest, checkoutErrorResponse{
			Error: "Your card was declined. Please try a different payment method.",
			Type:  "card_error",
		}
	case errors.Is(err, model.ErrPaymentInvalid):
		return http.StatusBadRequest, checkoutErrorResponse{
			Error: "Invalid payment information. Please check your details and try again.",
			Type:  "validation_error",
		}
	case errors.Is(err, model.ErrPaymentUnavailable):
		return http.StatusInternalServerError, checkoutErrorResponse{
			Error: "Payment service temporarily unavailable. Please try again later.",
			Type:  "api_error",
		}
	}
	return http.StatusInternalServerError, checkoutErrorResponse{
		Error: "Failed to create payment intent. Please try again.",
		Type:  "server_error",
	}
}
