package service

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/forresttindall/paradoxlabs/pkg/common/domain"
	"github.com/forresttindall/paradoxlabs/pkg/notification/domain/model"
)

type NotificationService interface {
	SendShippingNotification(email string, details model.OrderDetails, tracking model.TrackingDetails) error
	SendOrderStatusNotification(email string, details model.OrderDetails, status string, additionalInfo string) error
}

func NewNotificationService(sender model.MailSender, dispatcher domain.EventDispatcher) NotificationService {
	return &notificationService{sender: sender, dispatcher: dispatcher}
}

type notificationService struct {
	sender     model.MailSender
	dispatcher domain.EventDispatcher
}

func (s *notificationService) SendShippingNotification(email string, details model.OrderDetails, tracking model.TrackingDetails) error {
	subject := fmt.Sprintf("Your order #%s has shipped!", details.OrderNumber)

	body, err := renderShippingEmail(details, tracking)
	if err != nil {
		return errors.Wrap(err, "render shipping email")
	}

	return s.deliver(email, subject, body)
}

func (s *notificationService) SendOrderStatusNotification(email string, details model.OrderDetails, status string, additionalInfo string) error {
	style, ok := statusStyles[status]
	if !ok {
		return errors.Wrapf(model.ErrUnsupportedStatus, "status %q", status)
	}

	subject := fmt.Sprintf(style.subjectFormat, details.OrderNumber)

	body, err := renderStatusEmail(details, style, additionalInfo)
	if err != nil {
		return errors.Wrap(err, "render status email")
	}

	return s.deliver(email, subject, body)
}

// deliver probes the transport before sending; a failed probe aborts the
// send with the transport's classified error. Failures are returned to the
// caller, never swallowed here.
func (s *notificationService) deliver(email, subject, body string) error {
	if err := s.sender.Verify(); err != nil {
		return errors.Wrap(err, "smtp connection check failed")
	}

	if err := s.sender.Send(email, subject, body); err != nil {
		return errors.Wrap(err, "send email")
	}

	_ = s.dispatcher.Dispatch(model.EmailSent{Recipient: email, Subject: subject})
	return nil
}
