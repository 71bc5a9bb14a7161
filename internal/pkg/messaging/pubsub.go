package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"google.golang.org/api/option"
)

var (
	ErrPubSubProjectIDRequired    = errors.New("pkgmessage: pubsub project id is required")
	ErrPubSubTopicRequired        = errors.New("pkgmessage: pubsub topic is required")
	ErrPubSubSubscriptionRequired = errors.New("pkgmessage: pubsub subscription is required")
	ErrPubSubHandlerRequired      = errors.New("pkgmessage: pubsub handler is required")
)

type PubSubConfig struct {
	ProjectID string

	// Client overrides ProjectID/ClientOptions, used by tests with an
	// emulator-backed client.
	Client        *pubsub.Client
	ClientOptions []option.ClientOption
}

// PubSub implements Messaging over Google Cloud Pub/Sub. Consume requires
// WithSubscription unless the source itself is the subscription ID.
type PubSub struct {
	client *pubsub.Client

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
	closed     bool
}

func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	if cfg.Client != nil {
		return &PubSub{client: cfg.Client, publishers: map[string]*pubsub.Publisher{}}, nil
	}
	if cfg.ProjectID == "" {
		return nil, ErrPubSubProjectIDRequired
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, cfg.ClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("pkgmessage: pubsub new client: %w", err)
	}

	return &PubSub{client: client, publishers: map[string]*pubsub.Publisher{}}, nil
}

func (p *PubSub) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	pubs := make([]*pubsub.Publisher, 0, len(p.publishers))
	for _, pub := range p.publishers {
		pubs = append(pubs, pub)
	}
	p.publishers = nil
	p.mu.Unlock()

	for _, pub := range pubs {
		pub.Stop()
	}
	return p.client.Close()
}

func (p *PubSub) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrPubSubTopicRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	attrs := msg.Attributes
	if len(msg.Headers) > 0 {
		attrs = make(map[string]string, len(msg.Headers)+len(msg.Attributes))
		for k, v := range msg.Attributes {
			attrs[k] = v
		}
		for _, h := range msg.Headers {
			if h.Key != "" {
				attrs[h.Key] = string(h.Value)
			}
		}
	}

	pub, err := p.getPublisher(destination)
	if err != nil {
		return PublishResult{}, err
	}

	id, err := pub.Publish(ctx, &pubsub.Message{
		Data:        msg.Body,
		Attributes:  attrs,
		OrderingKey: msg.OrderingKey,
	}).Get(ctx)
	if err != nil {
		return PublishResult{}, fmt.Errorf("pkgmessage: pubsub publish: %w", err)
	}

	return PublishResult{
		MessageID: id,
		Topic:     destination,
	}, nil
}

func (p *PubSub) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrPubSubSubscriptionRequired
	}
	if handler == nil {
		return ErrPubSubHandlerRequired
	}

	co := newConsumeOptions(opts...)
	topic := ""
	subscription := source
	if co.subscription != "" {
		topic = source
		subscription = co.subscription
	}

	sub := p.client.Subscriber(subscription)
	if co.concurrency > 0 {
		sub.ReceiveSettings.NumGoroutines = co.concurrency
	}
	if co.maxInFlight > 0 {
		sub.ReceiveSettings.MaxOutstandingMessages = co.maxInFlight
	}

	err := sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		wrapped := &pubSubMessage{topic: topic, msg: m}
		herr := callHandlerWithRecover(ctx, "pubsub", func() error {
			return handler(ctx, wrapped)
		})

		if wrapped.hasResponded() || !co.autoAck {
			return
		}
		if herr == nil {
			_ = wrapped.Ack(ctx)
		} else {
			_ = wrapped.Nack(ctx)
		}
	})
	if err != nil {
		return fmt.Errorf("pkgmessage: pubsub receive: %w", err)
	}
	return ctx.Err()
}

func (p *PubSub) getPublisher(topic string) (*pubsub.Publisher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, io.ErrClosedPipe
	}
	if pub, ok := p.publishers[topic]; ok {
		return pub, nil
	}
	pub := p.client.Publisher(topic)
	p.publishers[topic] = pub
	return pub, nil
}

type pubSubMessage struct {
	topic string
	msg   *pubsub.Message

	responded atomic.Bool
}

func (m *pubSubMessage) hasResponded() bool { return m.responded.Load() }

func (m *pubSubMessage) Body() []byte { return m.msg.Data }

func (m *pubSubMessage) Headers() []Header { return nil }

func (m *pubSubMessage) Attributes() map[string]string { return m.msg.Attributes }

func (m *pubSubMessage) ID() string { return m.msg.ID }

func (m *pubSubMessage) Topic() string { return m.topic }

func (m *pubSubMessage) Timestamp() time.Time { return m.msg.PublishTime }

func (m *pubSubMessage) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.responded.Swap(true) {
		return nil
	}
	m.msg.Ack()
	return nil
}

func (m *pubSubMessage) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.responded.Swap(true) {
		return nil
	}
	m.msg.Nack()
	return nil
}
