package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrUnsupported is returned when a feature is not supported by the selected broker.
var ErrUnsupported = errors.New("pkgmessage: unsupported feature")

// Handler processes a single incoming message. Returning a non-nil error
// signals the broker to redeliver when auto-ack is enabled.
type Handler func(ctx context.Context, msg Message) error

// Messaging combines publishing and consuming over one broker connection.
type Messaging interface {
	io.Closer
	Publisher
	Consumer
}

type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

type Consumer interface {
	// Consume blocks until ctx is canceled or the underlying consumer stops.
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Header is a broker-agnostic message header.
type Header struct {
	Key   string
	Value []byte
}

// OutgoingMessage is the payload handed to Publish. Fields that a broker
// cannot express are ignored, except Delay which yields ErrUnsupported
// on brokers without deferred delivery.
type OutgoingMessage struct {
	Body        []byte
	Key         []byte
	Headers     []Header
	Attributes  map[string]string
	OrderingKey string
	Delay       time.Duration
}

// PublishResult reports broker-assigned metadata for a published message.
// Not every broker fills every field.
type PublishResult struct {
	MessageID string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
}

// Message is a received message. Ack and Nack are idempotent; the first
// call wins and later calls are no-ops.
type Message interface {
	Body() []byte
	Headers() []Header
	Attributes() map[string]string
	ID() string
	Topic() string
	Timestamp() time.Time
	Ack(ctx context.Context) error
	Nack(ctx context.Context) error
}
