package rabbitmq

import (
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

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

// toHeaders copies message headers into an AMQP table. AMQP tables carry
// typed values natively, so values pass through as-is; Destination-valued
// headers have no wire representation and are dropped.
func toHeaders(msg *core.Message) amqp.Table {
	headers := amqp.Table{}
	for k, v := range msg.Headers() {
		if _, ok := v.(core.Destination); ok {
			continue
		}
		headers[k] = v
	}
	return headers
}
