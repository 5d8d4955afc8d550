// Package transport exposes the storefront HTTP API: checkout, the payment
// webhook, the admin fulfillment surface and the product catalog.
package transport

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	catalogservice "github.com/forresttindall/paradoxlabs/pkg/catalog/domain/service"
	checkoutservice "github.com/forresttindall/paradoxlabs/pkg/checkout/domain/service"
	"github.com/forresttindall/paradoxlabs/pkg/order/domain/model"
	orderservice "github.com/forresttindall/paradoxlabs/pkg/order/domain/service"
)

type Deps struct {
	Fulfillment orderservice.FulfillmentService
	Checkout    checkoutservice.CheckoutService
	Catalog     catalogservice.ProductService
	Verifier    model.WebhookVerifier
	AdminAPIKey string
}

func Router(deps Deps) http.Handler {
	h := &handler{deps: deps}

	r := mux.NewRouter()

	r.HandleFunc("/stripe-webhook", h.stripeWebhook).Methods(http.MethodPost)

	r.HandleFunc("/fulfillment", h.adminAuth(h.listOrders)).Methods(http.MethodGet)
	r.HandleFunc("/fulfillment", h.adminAuth(h.updateOrder)).Methods(http.MethodPost)
	r.HandleFunc("/fulfillment", h.preflight).Methods(http.MethodOptions)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/create-payment-intent", h.createPaymentIntent).Methods(http.MethodPost)
	api.HandleFunc("/products", h.listProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", h.getProduct).Methods(http.MethodGet)

	return logMiddleware(r)
}

type handler struct {
	deps Deps
}

func (h *handler) preflight(w http.ResponseWriter, _ *http.Request) {
	setCORSHeaders(w)
	w.WriteHeader(http.StatusOK)
}

func (h *handler) adminAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		key := r.Header.Get("X-Admin-Key")
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.deps.AdminAPIKey)) != 1 {
			log.WithFields(log.Fields{
				"method":      r.Method,
				"hasAdminKey": key != "",
			}).Warn("admin authentication failed")
			writeError(w, http.StatusUnauthorized, "Unauthorized", "Invalid or missing admin API key")
			return
		}
		next(w, r)
	}
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Admin-Key")
}

func logMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.WithFields(log.Fields{
			"method":     r.Method,
			"url":        r.URL,
			"remoteAddr": r.RemoteAddr,
			"userAgent":  r.UserAgent(),
		}).Info("got a new request")
		h.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("write response")
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, errText, message string) {
	writeJSON(w, status, errorResponse{Error: errText, Message: message})
}
