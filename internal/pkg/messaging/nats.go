package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

var (
	ErrNATSURLRequired     = errors.New("pkgmessage: nats url is required")
	ErrNATSSubjectRequired = errors.New("pkgmessage: nats subject is required")
	ErrNATSHandlerRequired = errors.New("pkgmessage: nats handler is required")
)

type NATSConfig struct {
	URL string

	// Options are extra connection options appended after the defaults.
	Options []nats.Option
}

// NATS implements Messaging over core NATS. Delivery is at-most-once;
// Nack is a no-op because core NATS has no redelivery.
type NATS struct {
	conn *nats.Conn

	mu     sync.Mutex
	closed bool
}

func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	opts := append([]nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
	}, cfg.Options...)

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("pkgmessage: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

func (n *NATS) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true

	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return fmt.Errorf("pkgmessage: nats drain: %w", err)
	}
	return nil
}

func (n *NATS) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrNATSSubjectRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	nmsg := nats.NewMsg(destination)
	nmsg.Data = msg.Body
	for _, h := range msg.Headers {
		if h.Key == "" {
			continue
		}
		nmsg.Header.Add(h.Key, string(h.Value))
	}
	for k, v := range msg.Attributes {
		nmsg.Header.Add(k, v)
	}

	if err := n.conn.PublishMsg(nmsg); err != nil {
		return PublishResult{}, fmt.Errorf("pkgmessage: nats publish: %w", err)
	}

	return PublishResult{
		Topic:     destination,
		Timestamp: time.Now(),
	}, nil
}

func (n *NATS) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrNATSSubjectRequired
	}
	if handler == nil {
		return ErrNATSHandlerRequired
	}

	co := newConsumeOptions(opts...)
	concurrency := co.concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	buffer := co.maxInFlight
	if buffer <= 0 {
		buffer = concurrency
	}
	msgCh := make(chan *nats.Msg, buffer)

	var sub *nats.Subscription
	var err error
	if co.queueGroup != "" {
		sub, err = n.conn.ChanQueueSubscribe(source, co.queueGroup, msgCh)
	} else {
		sub, err = n.conn.ChanSubscribe(source, msgCh)
	}
	if err != nil {
		return fmt.Errorf("pkgmessage: nats subscribe: %w", err)
	}

	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range msgCh {
				wrapped := &natsMessage{msg: m}
				herr := callHandlerWithRecover(ctx, "nats", func() error {
					return handler(ctx, wrapped)
				})

				if wrapped.hasResponded() || !co.autoAck {
					continue
				}
				if herr == nil {
					_ = wrapped.Ack(ctx)
				} else {
					_ = wrapped.Nack(ctx)
				}
			}
		}()
	}

	<-ctx.Done()
	unsubErr := sub.Unsubscribe()
	close(msgCh)
	wg.Wait()

	if unsubErr != nil && !errors.Is(unsubErr, nats.ErrConnectionClosed) {
		return fmt.Errorf("pkgmessage: nats unsubscribe: %w", unsubErr)
	}
	return ctx.Err()
}

type natsMessage struct {
	msg *nats.Msg

	responded atomic.Bool
}

func (m *natsMessage) hasResponded() bool { return m.responded.Load() }

func (m *natsMessage) Body() []byte { return m.msg.Data }

func (m *natsMessage) Headers() []Header {
	if len(m.msg.Header) == 0 {
		return nil
	}
	headers := make([]Header, 0, len(m.msg.Header))
	for k, vs := range m.msg.Header {
		for _, v := range vs {
			headers = append(headers, Header{Key: k, Value: []byte(v)})
		}
	}
	return headers
}

func (m *natsMessage) Attributes() map[string]string { return nil }

func (m *natsMessage) ID() string { return m.msg.Header.Get(nats.MsgIdHdr) }

func (m *natsMessage) Topic() string { return m.msg.Subject }

func (m *natsMessage) Timestamp() time.Time { return time.Time{} }

func (m *natsMessage) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.responded.Store(true)
	return nil
}

func (m *natsMessage) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.responded.Store(true)
	return nil
}
