package nats

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/delaymux/delaymux/core"
)

// HeaderMessageID carries the delaymux message id on the wire.
const HeaderMessageID = "delaymux_id"

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

// toHeaders flattens message headers to NATS headers. Destination-valued
// headers have no wire representation and are dropped.
func toHeaders(msg *core.Message) nats.Header {
	h := nats.Header{}
	h.Set(HeaderMessageID, msg.ID().String())
	for k, v := range msg.Headers() {
		if _, ok := v.(core.Destination); ok {
			continue
		}
		h.Set(k, fmt.Sprint(v))
	}
	return h
}
