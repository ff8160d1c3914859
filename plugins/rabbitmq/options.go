package rabbitmq

// Option configures the RabbitMQ connection.
type Option func(*options)

type options struct {
	// Exchange settings
	exchange     string
	exchangeType string

	// Queue settings
	durable    bool
	autoDelete bool
	exclusive  bool
}

func defaults() options {
	return options{
		exchange:     "",       // default exchange
		exchangeType: "direct", // direct, fanout, topic, headers
		durable:      true,
	}
}

// WithExchange sets the exchange name and type.
func WithExchange(name, kind string) Option {
	return func(o *options) {
		o.exchange = name
		o.exchangeType = kind
	}
}

// WithDurable controls whether queues survive broker restart.
func WithDurable(d bool) Option {
	return func(o *options) { o.durable = d }
}

// WithAutoDelete controls whether unused queues are deleted automatically.
func WithAutoDelete(a bool) Option {
	return func(o *options) { o.autoDelete = a }
}

// WithExclusive restricts the queue to this connection.
func WithExclusive(e bool) Option {
	return func(o *options) { o.exclusive = e }
}
