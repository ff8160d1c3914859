package core

import (
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// delayFor computes the release delay for msg. The configured default applies
// unless the delay header carries an override: an absolute time.Time becomes
// the remaining time until that instant, a time.Duration is taken as-is, and
// anything else is parsed as an integer millisecond count via its textual
// representation. A value that fails to parse keeps the default; that
// fallback is deliberate and surfaces only at debug level.
func delayFor(msg *Message, cfg config, now Clock, log logrus.FieldLogger) time.Duration {
	delay := cfg.defaultDelay
	if cfg.delayHeader == "" {
		return delay
	}
	v, ok := msg.Header(cfg.delayHeader)
	if !ok || v == nil {
		return delay
	}
	switch hv := v.(type) {
	case time.Time:
		return hv.Sub(now())
	case time.Duration:
		return hv
	default:
		ms, err := strconv.ParseInt(fmt.Sprint(hv), 10, 64)
		if err != nil {
			log.WithField("value", hv).Debugf(
				"delaymux: failed to parse delay header %q, falling back to default %s",
				cfg.delayHeader, cfg.defaultDelay)
			return delay
		}
		return time.Duration(ms) * time.Millisecond
	}
}
