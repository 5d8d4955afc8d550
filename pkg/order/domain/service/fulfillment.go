package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/forresttindall/paradoxlabs/pkg/common/domain"
	notifmodel "github.com/forresttindall/paradoxlabs/pkg/notification/domain/model"
	"github.com/forresttindall/paradoxlabs/pkg/order/domain/model"
)

// Notifier sends the customer-facing transactional emails. Delivery is
// advisory: the fulfillment operations treat its failures as non-fatal.
type Notifier interface {
	SendShippingNotification(email string, details notifmodel.OrderDetails, tracking notifmodel.TrackingDetails) error
	SendOrderStatusNotification(email string, details notifmodel.OrderDetails, status string, additionalInfo string) error
}

type ListOrdersQuery struct {
	Status        model.FulfillmentStatus
	Limit         int
	StartingAfter string
}

type FulfillmentService interface {
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, query ListOrdersQuery) (*model.OrderPage, error)

	// SetStatus is the low-level primitive: it writes the status, the update
	// timestamp and, when tracking is supplied, the tracking fields. It sends
	// no notification.
	SetStatus(ctx context.Context, id string, status model.FulfillmentStatus, tracking *model.TrackingInfo) error

	// MarkPaid is driven by the payment network's success webhook. Redelivered
	// events make it run more than once, so an already-paid order is a no-op.
	MarkPaid(ctx context.Context, id string) error

	MarkShipped(ctx context.Context, id string, tracking model.TrackingInfo) (*model.UpdateResult, error)
	MarkProcessing(ctx context.Context, id string) (*model.UpdateResult, error)
	MarkDelivered(ctx context.Context, id string) (*model.UpdateResult, error)
	MarkCancelled(ctx context.Context, id string, reason string) (*model.UpdateResult, error)
}

func NewFulfillmentService(gateway model.PaymentGateway, notifier Notifier, dispatcher domain.EventDispatcher) FulfillmentService {
	return &fulfillmentService{gateway: gateway, notifier: notifier, dispatcher: dispatcher, now: time.Now}
}

type fulfillmentService struct {
	gateway    model.PaymentGateway
	notifier   Notifier
	dispatcher domain.EventDispatcher
	now        func() time.Time
}

func (s *fulfillmentService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	intent, err := s.gateway.GetIntent(ctx, id)
	if err != nil {
		return nil, err
	}
	return model.DecodeOrder(intent), nil
}

// ListOrders filters by decoded fulfillment status after retrieving a page
// from the payment network: the provider cannot filter on metadata natively,
// so a status filter can return fewer matches than exist beyond the fetched
// page.
func (s *fulfillmentService) ListOrders(ctx context.Context, query ListOrdersQuery) (*model.OrderPage, error) {
	page, err := s.gateway.ListIntents(ctx, model.ListIntentsParams{
		Limit:         query.Limit,
		StartingAfter: query.StartingAfter,
	})
	if err != nil {
		return nil, err
	}

	orders := make([]*model.Order, 0, len(page.Intents))
	for _, intent := range page.Intents {
		order := model.DecodeOrder(intent)
		if query.Status != "" && order.FulfillmentStatus != query.Status {
			continue
		}
		orders = append(orders, order)
	}

	return &model.OrderPage{
		Orders:     orders,
		HasMore:    page.HasMore,
		TotalCount: len(orders),
	}, nil
}

func (s *fulfillmentService) SetStatus(ctx context.Context, id string, status model.FulfillmentStatus, tracking *model.TrackingInfo) error {
	if id == "" || !status.IsValid() {
		return errors.Wrapf(model.ErrInvalidUpdate, "id %q, status %q", id, status)
	}

	patch := model.EncodeStatusPatch(status, s.now().UTC(), tracking)
	if err := s.gateway.UpdateMetadata(ctx, id, patch); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"orderId":     id,
		"status":      status,
		"hasTracking": tracking != nil,
	}).Info("fulfillment status updated")
	return nil
}

func (s *fulfillmentService) MarkPaid(ctx context.Context, id string) error {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}

	if order.FulfillmentStatus == model.StatusPaid {
		log.WithField("orderId", id).Info("order already paid, skipping redelivered event")
		return nil
	}

	if err := s.setStatusFrom(ctx, order, model.StatusPaid, nil); err != nil {
		return err
	}
	return nil
}

func (s *fulfillmentService) MarkShipped(ctx context.Context, id string, tracking model.TrackingInfo) (*model.UpdateResult, error) {
	if tracking.Number == "" || tracking.Carrier == "" {
		return nil, model.ErrMissingTrackingInfo
	}

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Customer.Email == "" {
		return nil, errors.Wrapf(model.ErrMissingCustomerEmail, "order %s", id)
	}

	if err := s.setStatusFrom(ctx, order, model.StatusShipped, &tracking); err != nil {
		return nil, err
	}

	_ = s.dispatcher.Dispatch(model.OrderShipped{
		OrderID:        id,
		TrackingNumber: tracking.Number,
		Carrier:        tracking.Carrier,
	})

	notifyErr := s.notifier.SendShippingNotification(order.Customer.Email, orderDetails(order), notifmodel.TrackingDetails{
		Number:            tracking.Number,
		Carrier:           tracking.Carrier,
		URL:               tracking.URL,
		EstimatedDelivery: tracking.EstimatedDelivery,
	})
	s.recordNotifyFailure(id, model.StatusShipped, notifyErr)

	return &model.UpdateResult{
		OrderID:         id,
		Status:          model.StatusShipped,
		Message:         "Order marked as shipped and customer notified",
		NotificationErr: notifyErr,
	}, nil
}

func (s *fulfillmentService) MarkProcessing(ctx context.Context, id string) (*model.UpdateResult, error) {
	return s.markAndNotify(ctx, id, model.StatusProcessing, "Order marked as processing and customer notified", "")
}

func (s *fulfillmentService) MarkDelivered(ctx context.Context, id string) (*model.UpdateResult, error) {
	return s.markAndNotify(ctx, id, model.StatusDelivered, "Order marked as delivered and customer notified", "")
}

func (s *fulfillmentService) MarkCancelled(ctx context.Context, id string, reason string) (*model.UpdateResult, error) {
	return s.markAndNotify(ctx, id, model.StatusCancelled, "Order marked as cancelled and customer notified", reason)
}

// markAndNotify is the two-phase shape of the simple admin actions: a durable
// status write followed by a best-effort status email.
func (s *fulfillmentService) markAndNotify(ctx context.Context, id string, status model.FulfillmentStatus, message, additionalInfo string) (*model.UpdateResult, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.setStatusFrom(ctx, order, status, nil); err != nil {
		return nil, err
	}

	var notifyErr error
	if order.Customer.Email == "" {
		notifyErr = errors.Wrapf(model.ErrMissingCustomerEmail, "order %s", id)
	} else {
		notifyErr = s.notifier.SendOrderStatusNotification(order.Customer.Email, orderDetails(order), string(status), additionalInfo)
	}
	s.recordNotifyFailure(id, status, notifyErr)

	return &model.UpdateResult{
		OrderID:         id,
		Status:          status,
		Message:         message,
		NotificationErr: notifyErr,
	}, nil
}

// setStatusFrom applies the write and dispatches the transition event. The
// transition graph is advisory: admin overrides outside the expected flow are
// allowed and logged, not rejected.
func (s *fulfillmentService) setStatusFrom(ctx context.Context, order *model.Order, status model.FulfillmentStatus, tracking *model.TrackingInfo) error {
	if order.FulfillmentStatus != status && !order.FulfillmentStatus.CanTransitionTo(status) {
		log.WithFields(log.Fields{
			"orderId": order.ID,
			"from":    order.FulfillmentStatus,
			"to":      status,
		}).Warn("fulfillment transition outside expected flow")
	}

	if err := s.SetStatus(ctx, order.ID, status, tracking); err != nil {
		return err
	}

	_ = s.dispatcher.Dispatch(model.FulfillmentStatusChanged{
		OrderID:  order.ID,
		Previous: order.FulfillmentStatus,
		Next:     status,
	})
	return nil
}

func (s *fulfillmentService) recordNotifyFailure(id string, status model.FulfillmentStatus, notifyErr error) {
	if notifyErr == nil {
		return
	}

	log.WithFields(log.Fields{
		"orderId": id,
		"status":  status,
	}).WithError(notifyErr).Warn("status notification failed, keeping status change")

	_ = s.dispatcher.Dispatch(model.NotificationFailed{
		OrderID: id,
		Status:  status,
		Reason:  notifyErr.Error(),
	})
}

func orderDetails(order *model.Order) notifmodel.OrderDetails {
	items := make([]notifmodel.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, notifmodel.OrderItem{
			ID:       item.ID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	details := notifmodel.OrderDetails{
		OrderNumber:   order.ID,
		CustomerName:  order.Customer.Name,
		CustomerEmail: order.Customer.Email,
		Items:         items,
		ShippingAddress: notifmodel.Address{
			Name:       order.ShippingAddress.Name,
			Line1:      order.ShippingAddress.Line1,
			City:       order.ShippingAddress.City,
			State:      order.ShippingAddress.State,
			PostalCode: order.ShippingAddress.PostalCode,
			Country:    order.ShippingAddress.Country,
		},
	}
	if !order.OrderDate.IsZero() {
		details.OrderDate = order.OrderDate.Format(time.RFC3339)
	}
	return details
}
