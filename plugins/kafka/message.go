package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/delaymux/delaymux/core"
)

// encodePayload turns an opaque payload into wire bytes. Byte slices and
// strings pass through, errors use their message, everything else is JSON.
func encodePayload(v any) ([]byte, error) {
	switch p := v.(type) {
	case []byte:
		return p, nil
	case string:
		return []byte(p), nil
	case error:
		return []byte(p.Error()), nil
	default:
		return json.Marshal(p)
	}
}

// toHeaders flattens message headers to Kafka headers. Destination-valued
// headers have no wire representation and are dropped.
func toHeaders(msg *core.Message) []kafka.Header {
	src := msg.Headers()
	if len(src) == 0 {
		return nil
	}
	headers := make([]kafka.Header, 0, len(src))
	for k, v := range src {
		if _, ok := v.(core.Destination); ok {
			continue
		}
		headers = append(headers, kafka.Header{Key: k, Value: []byte(fmt.Sprint(v))})
	}
	return headers
}
