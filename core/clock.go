package core

import "time"

// Clock supplies the current time. It exists so absolute-deadline headers can
// be converted to relative delays deterministically in tests.
type Clock func() time.Time

// SystemClock is the wall-clock default.
func SystemClock() time.Time { return time.Now() }
