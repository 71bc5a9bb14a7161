package messaging

type consumeOptions struct {
	concurrency  int
	maxInFlight  int
	autoAck      bool
	group        string
	channel      string
	queueGroup   string
	subscription string
}

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	var co consumeOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&co)
		}
	}
	return co
}

// ConsumeOption tunes a single Consume call.
type ConsumeOption func(*consumeOptions)

// WithConcurrency sets how many handlers run in parallel. Values below
// one fall back to a single handler.
func WithConcurrency(n int) ConsumeOption {
	return func(co *consumeOptions) { co.concurrency = n }
}

// WithMaxInFlight caps unacknowledged messages for brokers that support it.
func WithMaxInFlight(n int) ConsumeOption {
	return func(co *consumeOptions) { co.maxInFlight = n }
}

// WithAutoAck acks a message after the handler returns nil and nacks it
// after an error, unless the handler already responded.
func WithAutoAck(enabled bool) ConsumeOption {
	return func(co *consumeOptions) { co.autoAck = enabled }
}

// WithGroup sets the Kafka consumer group.
func WithGroup(group string) ConsumeOption {
	return func(co *consumeOptions) { co.group = group }
}

// WithChannel sets the NSQ channel.
func WithChannel(channel string) ConsumeOption {
	return func(co *consumeOptions) { co.channel = channel }
}

// WithQueueGroup sets the NATS queue group.
func WithQueueGroup(queueGroup string) ConsumeOption {
	return func(co *consumeOptions) { co.queueGroup = queueGroup }
}

// WithSubscription sets the Pub/Sub subscription ID. When set, the
// Consume source is treated as the topic name for observability only.
func WithSubscription(subscription string) ConsumeOption {
	return func(co *consumeOptions) { co.subscription = subscription }
}
