package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/delaymux/delaymux/core"
	"github.com/delaymux/delaymux/destination"
)

// ErrClosed is returned when a destination is used after its writer was
// closed.
var ErrClosed = errors.New("delaymux/kafka: writer is closed")

func init() {
	destination.Register("kafka", func(cfg destination.Config) (core.Destination, error) {
		if cfg.Topic == "" {
			return nil, fmt.Errorf("delaymux/kafka: a topic is required")
		}
		w, err := NewWriter(cfg.Brokers, optsFromConfig(cfg)...)
		if err != nil {
			return nil, err
		}
		return w.Destination(cfg.Topic), nil
	})
}

// Writer owns a kafka.Writer shared by all destinations it hands out.
//
// Design decisions:
//   - One kafka.Writer per Writer instance (thread-safe by library), with the
//     topic set per message so one Writer serves any number of destinations.
//   - Writer implements core.Resolver, mapping destination names to topics.
type Writer struct {
	w      *kafka.Writer
	mu     sync.Mutex
	closed bool
}

// NewWriter creates a Writer against the given brokers.
func NewWriter(brokers []string, fns ...Option) (*Writer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("delaymux/kafka: at least one broker address is required")
	}

	opts := defaults()
	for _, fn := range fns {
		fn(&opts)
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     opts.balancer,
		BatchSize:    opts.batchSize,
		Async:        opts.async,
		RequiredAcks: kafka.RequireAll,
	}
	if opts.dialer != nil {
		w.Transport = &kafka.Transport{
			TLS:  opts.dialer.TLS,
			SASL: opts.dialer.SASLMechanism,
		}
	}
	return &Writer{w: w}, nil
}

// Destination returns a core.Destination publishing to the given topic.
func (w *Writer) Destination(topic string) *Destination {
	return &Destination{writer: w, topic: topic}
}

// Resolve implements core.Resolver over topics.
func (w *Writer) Resolve(name string) (core.Destination, error) {
	if name == "" {
		return nil, core.ErrDestinationNotFound
	}
	return w.Destination(name), nil
}

// Close flushes and closes the underlying writer.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.w.Close(); err != nil {
		return fmt.Errorf("delaymux/kafka: close writer: %w", err)
	}
	return nil
}

// Destination publishes accepted messages to a fixed Kafka topic.
type Destination struct {
	writer *Writer
	topic  string
}

// Accept publishes msg to the destination's topic. The delaymux message id
// becomes the Kafka message key, keeping releases for one message in one
// partition.
func (d *Destination) Accept(ctx context.Context, msg *core.Message) error {
	d.writer.mu.Lock()
	if d.writer.closed {
		d.writer.mu.Unlock()
		return ErrClosed
	}
	d.writer.mu.Unlock()

	body, err := encodePayload(msg.Payload())
	if err != nil {
		return fmt.Errorf("delaymux/kafka: encode payload: %w", err)
	}

	km := kafka.Message{
		Topic:   d.topic,
		Key:     []byte(msg.ID().String()),
		Value:   body,
		Headers: toHeaders(msg),
	}
	if err := d.writer.w.WriteMessages(ctx, km); err != nil {
		return fmt.Errorf("delaymux/kafka: publish to %q: %w", d.topic, err)
	}
	return nil
}

// optsFromConfig extracts options from the destination.Config.Extra map.
func optsFromConfig(cfg destination.Config) []Option {
	if cfg.Extra == nil {
		return nil
	}
	var opts []Option
	if v, ok := cfg.Extra["async"].(bool); ok && v {
		opts = append(opts, WithAsync(true))
	}
	if v, ok := cfg.Extra["batch_size"].(int); ok {
		opts = append(opts, WithBatchSize(v))
	}
	return opts
}
