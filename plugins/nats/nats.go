package nats

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/delaymux/delaymux/core"
	"github.com/delaymux/delaymux/destination"
)

// ErrClosed is returned when a destination is used after its connection was
// closed.
var ErrClosed = errors.New("delaymux/nats: connection is closed")

func init() {
	destination.Register("nats", func(cfg destination.Config) (core.Destination, error) {
		if len(cfg.Brokers) == 0 {
			return nil, fmt.Errorf("delaymux/nats: at least one broker URL is required")
		}
		if cfg.Topic == "" {
			return nil, fmt.Errorf("delaymux/nats: a subject is required")
		}
		conn, err := Connect(cfg.Brokers[0], optsFromConfig(cfg)...)
		if err != nil {
			return nil, err
		}
		return conn.Destination(context.Background(), cfg.Topic)
	})
}

// Conn owns a NATS connection plus a JetStream context and hands out
// destinations bound to subjects.
//
// Design decisions:
//   - One NATS connection per Conn, shared by all destinations it creates.
//   - JetStream is used for persistence; each Destination ensures its stream
//     exists before the first publish.
//   - Conn implements core.Resolver, so reply/error-destination header names
//     resolve directly to subjects.
type Conn struct {
	nc   *nats.Conn
	js   jetstream.JetStream
	opts options

	mu     sync.Mutex
	closed bool
}

// Connect creates a Conn. url is a standard NATS URL (nats://host:port).
func Connect(url string, fns ...Option) (*Conn, error) {
	opts := defaults()
	for _, fn := range fns {
		fn(&opts)
	}

	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("delaymux/nats: connect to %q: %w", url, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("delaymux/nats: init jetstream: %w", err)
	}

	return &Conn{nc: nc, js: js, opts: opts}, nil
}

// Destination returns a core.Destination publishing to the given subject,
// creating or updating the backing stream.
func (c *Conn) Destination(ctx context.Context, subject string) (*Destination, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.mu.Unlock()

	streamName := sanitizeStreamName(subject)
	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{subject},
		MaxMsgs:   c.opts.maxMsgs,
		MaxBytes:  c.opts.maxBytes,
		MaxAge:    c.opts.maxAge,
		Replicas:  c.opts.replicas,
		Retention: c.opts.retention,
		Storage:   c.opts.storage,
	})
	if err != nil {
		return nil, fmt.Errorf("delaymux/nats: create stream %q: %w", streamName, err)
	}
	return &Destination{conn: c, subject: subject}, nil
}

// Resolve implements core.Resolver over subjects.
func (c *Conn) Resolve(name string) (core.Destination, error) {
	if name == "" {
		return nil, core.ErrDestinationNotFound
	}
	return c.Destination(context.Background(), name)
}

// Close drains the NATS connection. Destinations created from this Conn stop
// accepting messages.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.nc.Close()
	return nil
}

// Destination publishes accepted messages to a fixed JetStream subject.
type Destination struct {
	conn    *Conn
	subject string
}

// Accept publishes msg to the destination's subject.
func (d *Destination) Accept(ctx context.Context, msg *core.Message) error {
	d.conn.mu.Lock()
	if d.conn.closed {
		d.conn.mu.Unlock()
		return ErrClosed
	}
	d.conn.mu.Unlock()

	body, err := encodePayload(msg.Payload())
	if err != nil {
		return fmt.Errorf("delaymux/nats: encode payload: %w", err)
	}

	nm := &nats.Msg{
		Subject: d.subject,
		Data:    body,
		Header:  toHeaders(msg),
	}
	if _, err := d.conn.js.PublishMsg(ctx, nm); err != nil {
		return fmt.Errorf("delaymux/nats: publish to %q: %w", d.subject, err)
	}
	return nil
}

// sanitizeStreamName converts a subject to a valid stream name
// by replacing special characters.
func sanitizeStreamName(subject string) string {
	buf := make([]byte, len(subject))
	for i := 0; i < len(subject); i++ {
		c := subject[i]
		if c == '.' || c == '*' || c == '>' {
			buf[i] = '-'
		} else {
			buf[i] = c
		}
	}
	return string(buf)
}

// optsFromConfig extracts options from destination.Config.Extra.
func optsFromConfig(cfg destination.Config) []Option {
	if cfg.Extra == nil {
		return nil
	}
	var opts []Option
	if v, ok := cfg.Extra["replicas"].(int); ok {
		opts = append(opts, WithReplicas(v))
	}
	if v, ok := cfg.Extra["max_msgs"].(int64); ok {
		opts = append(opts, WithMaxMessages(v))
	}
	return opts
}
