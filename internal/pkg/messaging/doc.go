// Package messaging publishes and consumes messages without tying the
// caller to one broker.
//
// The OTP flow publishes issuance events and the notifier consumes them
// through the interfaces here; the concrete driver (NATS, NSQ, Kafka or
// Google Pub/Sub) is chosen by configuration at startup.
package messaging
