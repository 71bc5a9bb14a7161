package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

var (
	ErrNSQTopicRequired         = errors.New("pkgmessage: nsq topic is required")
	ErrNSQChannelRequired       = errors.New("pkgmessage: nsq channel is required")
	ErrNSQHandlerRequired       = errors.New("pkgmessage: nsq handler is required")
	ErrNSQProducerAddrRequired  = errors.New("pkgmessage: nsq producer address is required")
	ErrNSQConsumerAddrsRequired = errors.New("pkgmessage: nsq consumer addresses are required")
)

type NSQConfig struct {
	ProducerAddr string

	// Lookupd addresses take precedence over direct nsqd addresses.
	ConsumerNSQDAddrs    []string
	ConsumerLookupdAddrs []string
}

// NSQ implements Messaging over nsqd. Publishing requires ProducerAddr,
// consuming requires at least one nsqd or lookupd address.
type NSQ struct {
	producer *nsq.Producer

	nsqdAddrs    []string
	lookupdAddrs []string

	mu        sync.Mutex
	consumers []*nsq.Consumer
	closed    bool
}

func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	var producer *nsq.Producer
	if cfg.ProducerAddr != "" {
		p, err := nsq.NewProducer(cfg.ProducerAddr, nsq.NewConfig())
		if err != nil {
			return nil, fmt.Errorf("pkgmessage: nsq new producer: %w", err)
		}
		p.SetLoggerLevel(nsq.LogLevelError)
		producer = p
	}

	return &NSQ{
		producer:     producer,
		nsqdAddrs:    append([]string{}, cfg.ConsumerNSQDAddrs...),
		lookupdAddrs: append([]string{}, cfg.ConsumerLookupdAddrs...),
	}, nil
}

func (n *NSQ) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	consumers := append([]*nsq.Consumer{}, n.consumers...)
	n.mu.Unlock()

	for _, c := range consumers {
		c.Stop()
		<-c.StopChan
	}
	if n.producer != nil {
		n.producer.Stop()
	}
	return nil
}

func (n *NSQ) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrNSQTopicRequired
	}
	if n.producer == nil {
		return PublishResult{}, ErrNSQProducerAddrRequired
	}

	var err error
	if msg.Delay > 0 {
		err = n.producer.DeferredPublish(destination, msg.Delay, msg.Body)
	} else {
		err = n.producer.Publish(destination, msg.Body)
	}
	if err != nil {
		return PublishResult{}, fmt.Errorf("pkgmessage: nsq publish: %w", err)
	}

	return PublishResult{
		Topic:     destination,
		Timestamp: time.Now(),
	}, nil
}

func (n *NSQ) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrNSQTopicRequired
	}
	if handler == nil {
		return ErrNSQHandlerRequired
	}
	if len(n.nsqdAddrs) == 0 && len(n.lookupdAddrs) == 0 {
		return ErrNSQConsumerAddrsRequired
	}

	co := newConsumeOptions(opts...)
	if co.channel == "" {
		return ErrNSQChannelRequired
	}

	concurrency := co.concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	cfg := nsq.NewConfig()
	cfg.MaxInFlight = concurrency
	if co.maxInFlight > 0 {
		cfg.MaxInFlight = co.maxInFlight
	}

	consumer, err := nsq.NewConsumer(source, co.channel, cfg)
	if err != nil {
		return fmt.Errorf("pkgmessage: nsq new consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelError)
	consumer.AddConcurrentHandlers(n.makeHandler(ctx, source, handler, co.autoAck), concurrency)

	if err := n.track(consumer); err != nil {
		stopNSQConsumer(consumer)
		return err
	}
	if err := n.connect(consumer); err != nil {
		stopNSQConsumer(consumer)
		return err
	}

	select {
	case <-ctx.Done():
		stopNSQConsumer(consumer)
		return ctx.Err()
	case <-consumer.StopChan:
		return nil
	}
}

func (n *NSQ) track(consumer *nsq.Consumer) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return io.ErrClosedPipe
	}
	n.consumers = append(n.consumers, consumer)
	return nil
}

func (n *NSQ) connect(consumer *nsq.Consumer) error {
	if len(n.lookupdAddrs) > 0 {
		if err := consumer.ConnectToNSQLookupds(n.lookupdAddrs); err != nil {
			return fmt.Errorf("pkgmessage: nsq connect lookupd: %w", err)
		}
		return nil
	}
	if err := consumer.ConnectToNSQDs(n.nsqdAddrs); err != nil {
		return fmt.Errorf("pkgmessage: nsq connect nsqd: %w", err)
	}
	return nil
}

func (n *NSQ) makeHandler(ctx context.Context, topic string, handler Handler, autoAck bool) nsq.HandlerFunc {
	return func(m *nsq.Message) error {
		m.DisableAutoResponse()

		wrapped := &nsqMessage{topic: topic, msg: m}
		herr := callHandlerWithRecover(ctx, "nsq", func() error {
			return handler(ctx, wrapped)
		})

		if wrapped.hasResponded() || !autoAck {
			return herr
		}
		if herr == nil {
			return wrapped.Ack(ctx)
		}
		if err := wrapped.Nack(ctx); err != nil {
			return err
		}
		return herr
	}
}

func stopNSQConsumer(consumer *nsq.Consumer) {
	consumer.Stop()
	<-consumer.StopChan
}

type nsqMessage struct {
	topic string
	msg   *nsq.Message

	responded atomic.Bool
}

func (m *nsqMessage) hasResponded() bool { return m.responded.Load() }

func (m *nsqMessage) Body() []byte { return m.msg.Body }

func (m *nsqMessage) Headers() []Header { return nil }

func (m *nsqMessage) Attributes() map[string]string { return nil }

func (m *nsqMessage) ID() string { return fmt.Sprintf("%x", m.msg.ID) }

func (m *nsqMessage) Topic() string { return m.topic }

func (m *nsqMessage) Timestamp() time.Time { return time.Unix(0, m.msg.Timestamp) }

func (m *nsqMessage) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.responded.Swap(true) {
		return nil
	}
	m.msg.Finish()
	return nil
}

func (m *nsqMessage) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.responded.Swap(true) {
		return nil
	}
	m.msg.Requeue(0)
	return nil
}
