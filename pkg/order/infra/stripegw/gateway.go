// Package stripegw implements the payment gateway and webhook verifier on
// the Stripe API.
package stripegw

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/forresttindall/paradoxlabs/pkg/order/domain/model"
)

type Gateway struct {
	api           *client.API
	webhookSecret string
}

// New builds a gateway around its own API client; nothing is shared through
// package globals, so tests and callers control the instance they get.
func New(secretKey, webhookSecret string) *Gateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Gateway{api: api, webhookSecret: webhookSecret}
}

func (g *Gateway) CreateIntent(ctx context.Context, params model.CreateIntentParams) (*model.PaymentIntent, error) {
	piParams := &stripe.PaymentIntentParams{
		Params:       stripe.Params{Context: ctx},
		Amount:       stripe.Int64(params.AmountCents),
		Currency:     stripe.String(params.Currency),
		ReceiptEmail: stripe.String(params.Customer.Email),
		Shipping: &stripe.ShippingDetailsParams{
			Name: stripe.String(params.Shipping.Name),
			Address: &stripe.AddressParams{
				Line1:      stripe.String(params.Shipping.Line1),
				City:       stripe.String(params.Shipping.City),
				State:      stripe.String(params.Shipping.State),
				PostalCode: stripe.String(params.Shipping.PostalCode),
				Country:    stripe.String(params.Shipping.Country),
			},
		},
	}
	for key, value := range params.Metadata {
		piParams.AddMetadata(key, value)
	}

	pi, err := g.api.PaymentIntents.New(piParams)
	if err != nil {
		return nil, wrapStripeErr(err, "create payment intent")
	}
	return toIntent(pi), nil
}

func (g *Gateway) GetIntent(ctx context.Context, id string) (*model.PaymentIntent, error) {
	pi, err := g.api.PaymentIntents.Get(id, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, wrapStripeErr(err, "retrieve payment intent")
	}
	return toIntent(pi), nil
}

func (g *Gateway) UpdateMetadata(ctx context.Context, id string, patch map[string]string) error {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	}
	for key, value := range patch {
		params.AddMetadata(key, value)
	}

	if _, err := g.api.PaymentIntents.Update(id, params); err != nil {
		return wrapStripeErr(err, "update payment intent metadata")
	}
	return nil
}

func (g *Gateway) ListIntents(ctx context.Context, params model.ListIntentsParams) (*model.IntentPage, error) {
	listParams := &stripe.PaymentIntentListParams{
		ListParams: stripe.ListParams{
			Context: ctx,
			Single:  true, // one provider page per call, no auto-pagination
		},
	}
	if params.Limit > 0 {
		listParams.Limit = stripe.Int64(int64(params.Limit))
	}
	if params.StartingAfter != "" {
		listParams.StartingAfter = stripe.String(params.StartingAfter)
	}

	iter := g.api.PaymentIntents.List(listParams)

	page := &model.IntentPage{}
	for iter.Next() {
		page.Intents = append(page.Intents, toIntent(iter.PaymentIntent()))
	}
	if err := iter.Err(); err != nil {
		return nil, wrapStripeErr(err, "list payment intents")
	}
	if list := iter.PaymentIntentList(); list != nil {
		page.HasMore = list.HasMore
	}
	return page, nil
}

// VerifyEvent checks the webhook signature against the endpoint secret and
// normalizes the event. An invalid signature fails closed.
func (g *Gateway) VerifyEvent(payload []byte, signatureHeader string) (*model.WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, g.webhookSecret)
	if err != nil {
		return nil, errors.Wrap(err, "webhook signature verification failed")
	}

	normalized := &model.WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err == nil && pi.ID != "" {
		normalized.Intent = toIntent(&pi)
	}

	return normalized, nil
}

func toIntent(pi *stripe.PaymentIntent) *model.PaymentIntent {
	return &model.PaymentIntent{
		ID:           pi.ID,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		ClientSecret: pi.ClientSecret,
		Metadata:     pi.Metadata,
	}
}

func wrapStripeErr(err error, op string) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return errors.Wrap(err, op)
	}

	switch {
	case stripeErr.Code == stripe.ErrorCodeResourceMissing:
		return errors.Wrapf(model.ErrOrderNotFound, "%s: %s", op, stripeErr.Msg)
	case stripeErr.Type == stripe.ErrorTypeCard:
		return errors.Wrapf(model.ErrPaymentCard, "%s: %s", op, stripeErr.Msg)
	case stripeErr.Type == stripe.ErrorTypeInvalidRequest:
		return errors.Wrapf(model.ErrPaymentInvalid, "%s: %s", op, stripeErr.Msg)
	case stripeErr.Type == stripe.ErrorTypeAPI:
		return errors.Wrapf(model.ErrPaymentUnavailable, "%s: %s", op, stripeErr.Msg)
	}
	return errors.Wrap(err, op)
}
