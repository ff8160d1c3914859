package destination

// Config holds transport-agnostic destination configuration.
// Plugins extract the fields they need.
type Config struct {
	// Brokers is a list of broker addresses (e.g., "localhost:9092").
	Brokers []string

	// Topic is the topic, subject, or queue messages are delivered to.
	Topic string

	// Extra holds plugin-specific configuration.
	Extra map[string]any
}
