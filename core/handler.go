package core

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// LowestPrecedence is the default ordering value; handlers with lower values
// run earlier in a surrounding pipeline.
const LowestPrecedence = math.MaxInt32

// Handler delays the continuation of a message flow based on a delay header
// on the inbound message or the handler's configured default delay. Delayed
// releases are delegated to a Scheduler, so the calling goroutine never
// blocks for the delay; many delays, even very long ones, can be pending
// concurrently.
//
// When a delay header name is configured, a value under that header takes
// precedence over the default delay. The header may carry an absolute
// time.Time (release no earlier than that instant), a time.Duration, or a
// value whose textual representation parses as a millisecond count.
//
// The mutable configuration may be changed between calls to Handle; each call
// snapshots it, so a release already scheduled is unaffected by later
// changes.
type Handler struct {
	defaultDelay   atomic.Int64 // nanoseconds
	delayHeader    atomic.Value // string
	output         atomic.Value // outputHolder
	sendTimeout    atomic.Int64 // nanoseconds
	waitOnShutdown atomic.Bool
	order          atomic.Int32

	clock     Clock
	scheduler *Scheduler
	releaser  *releaser
	log       logrus.FieldLogger
}

// output is a Destination interface value; atomic.Value requires a single
// concrete stored type, so it is boxed.
type outputHolder struct {
	d Destination
}

// config is the per-call snapshot of the mutable handler configuration. A
// scheduled release captures it at Handle time.
type config struct {
	defaultDelay time.Duration
	delayHeader  string
	output       Destination
	sendTimeout  time.Duration
}

// Option configures a Handler at construction.
type Option func(*Handler)

// WithDelayHeader sets the name of the header checked for a delay override.
// Unset, only the default delay applies.
func WithDelayHeader(name string) Option {
	return func(h *Handler) { h.delayHeader.Store(name) }
}

// WithOutput sets a fixed output destination. Without one, each inbound
// message must carry a reply-destination header.
func WithOutput(d Destination) Option {
	return func(h *Handler) { h.output.Store(outputHolder{d: d}) }
}

// WithResolver sets the Resolver used for destinations named by headers and
// for the well-known default error destination.
func WithResolver(r Resolver) Option {
	return func(h *Handler) { h.releaser.resolver = r }
}

// WithSendTimeout bounds each outbound send attempt. Zero means no bound
// beyond the caller's context.
func WithSendTimeout(d time.Duration) Option {
	return func(h *Handler) { h.sendTimeout.Store(int64(d)) }
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(h *Handler) { h.clock = c }
}

// WithLogger replaces the default logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(h *Handler) {
		h.log = l
		h.releaser.log = l
	}
}

// WithScheduler replaces the handler-owned Scheduler, allowing several
// handlers to share one.
func WithScheduler(s *Scheduler) Option {
	return func(h *Handler) { h.scheduler = s }
}

// WithWaitForTasksOnShutdown sets the shutdown policy. Default is false:
// Shutdown cancels in-progress releases best-effort. Switch to true to let
// already-fired releases finish at the expense of a longer shutdown.
func WithWaitForTasksOnShutdown(wait bool) Option {
	return func(h *Handler) { h.waitOnShutdown.Store(wait) }
}

// WithOrder sets the pipeline ordering value.
func WithOrder(order int) Option {
	return func(h *Handler) { h.order.Store(int32(order)) }
}

// NewHandler creates a Handler with the given default delay. Unless
// WithScheduler is supplied, releases are scheduled on a handler-owned
// Scheduler.
func NewHandler(defaultDelay time.Duration, opts ...Option) *Handler {
	h := &Handler{
		clock:    SystemClock,
		log:      logrus.StandardLogger(),
		releaser: &releaser{},
	}
	h.releaser.log = h.log
	h.defaultDelay.Store(int64(defaultDelay))
	h.delayHeader.Store("")
	h.output.Store(outputHolder{})
	h.order.Store(int32(LowestPrecedence))
	for _, opt := range opts {
		opt(h)
	}
	if h.scheduler == nil {
		h.scheduler = NewScheduler()
	}
	return h
}

// Handle releases msg after its computed delay. A delay of zero or less
// releases synchronously, with resolution and send errors returned to the
// caller. A positive delay hands the release to the scheduler and returns
// immediately; failures of the deferred release are contained and routed to
// the error path, never to any caller. After Shutdown, scheduling fails with
// ErrSchedulerStopped.
func (h *Handler) Handle(ctx context.Context, msg *Message) error {
	cfg := h.snapshot()
	delay := delayFor(msg, cfg, h.clock, h.log)
	if delay <= 0 {
		return h.releaser.release(ctx, msg, cfg)
	}
	_, err := h.scheduler.Schedule(delay, func(taskCtx context.Context) {
		h.releaser.releaseAndReport(taskCtx, msg, cfg)
	})
	return err
}

// Shutdown stops the scheduler using the configured wait policy. Scheduled
// releases that have not reached their deadline are abandoned. Idempotent.
func (h *Handler) Shutdown() {
	h.scheduler.Shutdown(h.waitOnShutdown.Load())
}

// SetDefaultDelay updates the delay applied to messages without a delay
// header override. Visible to subsequent Handle calls only.
func (h *Handler) SetDefaultDelay(d time.Duration) { h.defaultDelay.Store(int64(d)) }

// SetDelayHeaderName updates the delay header name; empty disables the
// header override.
func (h *Handler) SetDelayHeaderName(name string) { h.delayHeader.Store(name) }

// SetOutput updates the fixed output destination; nil reverts to
// reply-destination headers.
func (h *Handler) SetOutput(d Destination) { h.output.Store(outputHolder{d: d}) }

// SetSendTimeout updates the bound on outbound send attempts.
func (h *Handler) SetSendTimeout(d time.Duration) { h.sendTimeout.Store(int64(d)) }

// SetWaitForTasksOnShutdown updates the shutdown policy.
func (h *Handler) SetWaitForTasksOnShutdown(wait bool) { h.waitOnShutdown.Store(wait) }

// SetOrder updates the pipeline ordering value.
func (h *Handler) SetOrder(order int) { h.order.Store(int32(order)) }

// Order returns the pipeline ordering value.
func (h *Handler) Order() int { return int(h.order.Load()) }

func (h *Handler) snapshot() config {
	return config{
		defaultDelay: time.Duration(h.defaultDelay.Load()),
		delayHeader:  h.delayHeader.Load().(string),
		output:       h.output.Load().(outputHolder).d,
		sendTimeout:  time.Duration(h.sendTimeout.Load()),
	}
}
