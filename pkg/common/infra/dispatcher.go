// Package infra holds cross-cutting adapters shared by the domain services.
package infra

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/forresttindall/paradoxlabs/pkg/common/domain"
)

// LogDispatcher writes domain events to the structured log.
type LogDispatcher struct{}

func NewLogDispatcher() *LogDispatcher { return &LogDispatcher{} }

func (d *LogDispatcher) Dispatch(event domain.Event) error {
	log.WithFields(log.Fields{
		"event":   event.Type(),
		"payload": fmt.Sprintf("%+v", event),
	}).Info("domain event")
	return nil
}
