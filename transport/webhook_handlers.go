package transport

import (
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

const (
	eventPaymentSucceeded = "payment_intent.succeeded"
	eventPaymentFailed    = "payment_intent.payment_failed"
)

// maxWebhookBody bounds the event payload we are willing to read.
const maxWebhookBody = 1 << 16

type webhookResponse struct {
	Received bool `json:"received"`
}

func (h *handler) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	event, err := h.deps.Verifier.VerifyEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		log.WithError(err).Warn("webhook signature verification failed")
		writeError(w, http.StatusBadRequest, "Webhook signature verification failed", err.Error())
		return
	}

	log.WithFields(log.Fields{
		"eventId":   event.ID,
		"eventType": event.Type,
	}).Info("webhook received")

	switch event.Type {
	case eventPaymentSucceeded:
		if event.Intent == nil {
			writeError(w, http.StatusBadRequest, "Malformed event", "payment_intent.succeeded carries no payment intent")
			return
		}
		if err := h.deps.Fulfillment.MarkPaid(r.Context(), event.Intent.ID); err != nil {
			// The payment network redelivers on 5xx; that is the only retry
			// mechanism for this path.
			log.WithFields(log.Fields{
				"paymentIntentId": event.Intent.ID,
			}).WithError(err).Error("webhook processing failed")
			writeError(w, http.StatusInternalServerError, "Webhook processing failed", err.Error())
			return
		}

	case eventPaymentFailed:
		intentID := ""
		if event.Intent != nil {
			intentID = event.Intent.ID
		}
		log.WithField("paymentIntentId", intentID).Warn("payment failed")

	default:
		// Unknown event types are acknowledged so the provider does not
		// retry them forever.
		log.WithField("eventType", event.Type).Info("unhandled webhook type")
	}

	writeJSON(w, http.StatusOK, webhookResponse{Received: true})
}
