package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
)

var (
	ErrKafkaTopicRequired   = errors.New("pkgmessage: kafka topic is required")
	ErrKafkaHandlerRequired = errors.New("pkgmessage: kafka handler is required")
	ErrKafkaBrokersRequired = errors.New("pkgmessage: kafka brokers are required")
	ErrKafkaGroupRequired   = errors.New("pkgmessage: kafka consumer group is required")
)

type KafkaConfig struct {
	Brokers []string
	Dialer  *kafka.Dialer
}

// Kafka implements Messaging over segmentio/kafka-go. One writer is kept
// per topic; readers live for the duration of their Consume call.
type Kafka struct {
	brokers []string
	dialer  *kafka.Dialer

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	readers []*kafka.Reader
	closed  bool
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	return &Kafka{
		brokers: append([]string{}, cfg.Brokers...),
		dialer:  cfg.Dialer,
		writers: map[string]*kafka.Writer{},
	}, nil
}

func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	writers := make([]*kafka.Writer, 0, len(k.writers))
	for _, w := range k.writers {
		writers = append(writers, w)
	}
	k.writers = nil
	readers := append([]*kafka.Reader{}, k.readers...)
	k.readers = nil
	k.mu.Unlock()

	var closeErr error
	for _, r := range readers {
		closeErr = errors.Join(closeErr, r.Close())
	}
	for _, w := range writers {
		closeErr = errors.Join(closeErr, w.Close())
	}
	return closeErr
}

func (k *Kafka) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrKafkaTopicRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	writer, err := k.getWriter(destination)
	if err != nil {
		return PublishResult{}, err
	}

	kmsg := kafka.Message{
		Key:   msg.Key,
		Value: msg.Body,
		Time:  time.Now(),
	}
	for _, h := range msg.Headers {
		if h.Key == "" {
			continue
		}
		kmsg.Headers = append(kmsg.Headers, kafka.Header{Key: h.Key, Value: h.Value})
	}

	if err := writer.WriteMessages(ctx, kmsg); err != nil {
		return PublishResult{}, fmt.Errorf("pkgmessage: kafka publish: %w", err)
	}

	return PublishResult{
		Topic:     destination,
		Timestamp: kmsg.Time,
	}, nil
}

func (k *Kafka) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrKafkaTopicRequired
	}
	if handler == nil {
		return ErrKafkaHandlerRequired
	}

	co := newConsumeOptions(opts...)
	if co.group == "" {
		return ErrKafkaGroupRequired
	}

	concurrency := co.concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.brokers,
		GroupID:  co.group,
		Topic:    source,
		MaxBytes: 10e6,
		Dialer:   k.dialer,
	})
	if err := k.addReader(reader); err != nil {
		_ = reader.Close()
		return err
	}

	consumeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	buffer := co.maxInFlight
	if buffer <= 0 {
		buffer = concurrency
	}
	msgCh := make(chan kafka.Message, buffer)
	errCh := make(chan error, 1)

	go func() {
		defer close(msgCh)
		for {
			m, err := reader.FetchMessage(consumeCtx)
			if err != nil {
				if !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
					select {
					case errCh <- fmt.Errorf("pkgmessage: kafka fetch: %w", err):
					default:
					}
				}
				return
			}

			select {
			case msgCh <- m:
			case <-consumeCtx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range msgCh {
				wrapped := &kafkaMessage{reader: reader, msg: m}
				herr := callHandlerWithRecover(consumeCtx, "kafka", func() error {
					return handler(consumeCtx, wrapped)
				})

				if wrapped.hasResponded() || !co.autoAck {
					continue
				}
				if herr == nil {
					_ = wrapped.Ack(consumeCtx)
				}
				// Kafka has no per-message nack; an uncommitted offset is
				// redelivered after a rebalance or restart.
			}
		}()
	}

	var waitErr error
	select {
	case <-ctx.Done():
		waitErr = ctx.Err()
	case err := <-errCh:
		waitErr = err
	}
	cancel()
	wg.Wait()

	k.removeReader(reader)
	if closeErr := reader.Close(); closeErr != nil {
		return errors.Join(waitErr, closeErr)
	}
	return waitErr
}

func (k *Kafka) getWriter(topic string) (*kafka.Writer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil, io.ErrClosedPipe
	}
	if w, ok := k.writers[topic]; ok {
		return w, nil
	}

	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  k.brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
		Dialer:   k.dialer,
	})
	k.writers[topic] = w
	return w, nil
}

func (k *Kafka) addReader(reader *kafka.Reader) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return io.ErrClosedPipe
	}
	k.readers = append(k.readers, reader)
	return nil
}

func (k *Kafka) removeReader(reader *kafka.Reader) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for i := range k.readers {
		if k.readers[i] == reader {
			k.readers = append(k.readers[:i], k.readers[i+1:]...)
			return
		}
	}
}

type kafkaMessage struct {
	reader *kafka.Reader
	msg    kafka.Message

	responded atomic.Bool
}

func (m *kafkaMessage) hasResponded() bool { return m.responded.Load() }

func (m *kafkaMessage) Body() []byte { return m.msg.Value }

func (m *kafkaMessage) Headers() []Header {
	if len(m.msg.Headers) == 0 {
		return nil
	}
	headers := make([]Header, 0, len(m.msg.Headers))
	for _, h := range m.msg.Headers {
		headers = append(headers, Header{Key: h.Key, Value: h.Value})
	}
	return headers
}

func (m *kafkaMessage) Attributes() map[string]string { return nil }

func (m *kafkaMessage) ID() string {
	return m.msg.Topic + "-" + strconv.Itoa(m.msg.Partition) + "-" + strconv.FormatInt(m.msg.Offset, 10)
}

func (m *kafkaMessage) Topic() string { return m.msg.Topic }

func (m *kafkaMessage) Timestamp() time.Time { return m.msg.Time }

func (m *kafkaMessage) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.responded.Swap(true) {
		return nil
	}
	if err := m.reader.CommitMessages(ctx, m.msg); err != nil {
		m.responded.Store(false)
		return fmt.Errorf("pkgmessage: kafka commit: %w", err)
	}
	return nil
}

func (m *kafkaMessage) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.responded.Swap(true)
	return nil
}
