package dispatcher

import (
	"context"
	"fmt"
)

// Handler processes one raw inbound message.
type Handler interface {
	Handle(ctx context.Context, topic string, payload []byte) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, topic string, payload []byte) error

func (f HandlerFunc) Handle(ctx context.Context, topic string, payload []byte) error {
	return f(ctx, topic, payload)
}

// Registry is the explicit topic-to-handler table. Every consumed topic must
// be registered up front; an unregistered topic is a wiring bug surfaced at
// startup, not at message time.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(topic string, handler Handler) {
	r.handlers[topic] = handler
}

func (r *Registry) Handler(topic string) (Handler, error) {
	handler, ok := r.handlers[topic]
	if !ok {
		return nil, fmt.Errorf("no handler registered for topic %s", topic)
	}
	return handler, nil
}
