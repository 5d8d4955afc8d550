// Package smtp implements the outbound mail transport on a plain SMTP relay.
package smtp

import (
	"net"
	"net/textproto"
	"strings"

	"github.com/pkg/errors"
	gomail "gopkg.in/gomail.v2"

	"github.com/forresttindall/paradoxlabs/pkg/notification/domain/model"
)

type Config struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

type Sender struct {
	dialer *gomail.Dialer
	from   string
}

func New(cfg Config) *Sender {
	return &Sender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
		from:   cfg.From,
	}
}

// Verify dials and authenticates against the relay without sending anything.
func (s *Sender) Verify() error {
	conn, err := s.dialer.Dial()
	if err != nil {
		return classify(err)
	}
	return conn.Close()
}

func (s *Sender) Send(recipient, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return classify(err)
	}
	return nil
}

// classify resolves a raw transport error into one of the failure classes
// the caller can act on. SMTP reply codes come through as textproto errors;
// anything network-level is a connection failure.
func classify(err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch {
		case protoErr.Code == 530 || protoErr.Code == 534 || protoErr.Code == 535:
			return errors.Wrap(model.ErrMailAuth, protoErr.Error())
		case protoErr.Code == 550 || protoErr.Code == 552 || protoErr.Code == 554:
			return errors.Wrap(model.ErrMailFormat, protoErr.Error())
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return errors.Wrap(model.ErrMailConnection, err.Error())
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Wrap(model.ErrMailConnection, err.Error())
	}

	if strings.Contains(strings.ToLower(err.Error()), "auth") {
		return errors.Wrap(model.ErrMailAuth, err.Error())
	}

	return err
}
