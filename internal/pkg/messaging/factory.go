package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Driver names accepted in the messaging.driver config key.
const (
	DriverNSQ          = "nsq"
	DriverNATS         = "nats"
	DriverKafka        = "kafka"
	DriverGooglePubSub = "google-pubsub"
)

// ErrUnknownDriver indicates the configured driver name matches no backend.
var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions carries the per-backend configuration; only the block for
// the selected driver is read.
type FactoryOptions struct {
	NSQ    NSQConfig
	NATS   NATSConfig
	Kafka  KafkaConfig
	PubSub PubSubConfig
}

// NewFromDriver builds the Messaging backend named by driver.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Messaging, error) {
	switch strings.TrimSpace(driver) {
	case DriverNSQ:
		return NewNSQ(opts.NSQ)
	case DriverNATS:
		return NewNATS(opts.NATS)
	case DriverKafka:
		return NewKafka(opts.Kafka)
	case DriverGooglePubSub:
		return NewPubSub(ctx, opts.PubSub)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
