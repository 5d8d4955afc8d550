// Package domain holds the event contract shared by the domain services.
package domain

type Event interface {
	Type() string
}

type EventDispatcher interface {
	Dispatch(event Event) error
}
