package kafka

import (
	"github.com/segmentio/kafka-go"
)

// Option configures the Kafka writer.
type Option func(*options)

type options struct {
	balancer  kafka.Balancer
	batchSize int
	async     bool
	dialer    *kafka.Dialer
}

func defaults() options {
	return options{
		balancer:  &kafka.LeastBytes{},
		batchSize: 100,
	}
}

// WithBalancer sets the partition balancer for the writer.
func WithBalancer(b kafka.Balancer) Option {
	return func(o *options) { o.balancer = b }
}

// WithBatchSize sets the maximum batch size for writes.
func WithBatchSize(n int) Option {
	return func(o *options) { o.batchSize = n }
}

// WithAsync enables asynchronous writes.
func WithAsync(async bool) Option {
	return func(o *options) { o.async = async }
}

// WithDialer sets a custom dialer for TLS/SASL connections.
func WithDialer(d *kafka.Dialer) Option {
	return func(o *options) { o.dialer = d }
}
