package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/delaymux/delaymux/core"
	"github.com/delaymux/delaymux/internal/mock"
)

// quietLogger keeps contained release failures out of the test output.
func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestHandler_ZeroDelayReleasesSynchronously(t *testing.T) {
	out := mock.NewDestination()
	h := core.NewHandler(0, core.WithOutput(out))
	defer h.Shutdown()

	msg := core.NewMessage("payload")
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if out.Count() != 1 {
		t.Fatalf("released %d messages within the call, want 1", out.Count())
	}
	if out.Accepted()[0] != msg {
		t.Error("released message is not the original")
	}
}

func TestHandler_PositiveDelayReleasesLater(t *testing.T) {
	out := mock.NewDestination()
	h := core.NewHandler(100*time.Millisecond, core.WithOutput(out))
	defer h.Shutdown()

	start := time.Now()
	if err := h.Handle(context.Background(), core.NewMessage("payload")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Handle blocked for %s, should return immediately", elapsed)
	}
	if out.Count() != 0 {
		t.Error("message released before its delay elapsed")
	}

	waitFor(t, 2*time.Second, func() bool { return out.Count() == 1 })
	if since := time.Since(start); since < 100*time.Millisecond {
		t.Errorf("released after %s, want at least 100ms", since)
	}
}

func TestHandler_HeaderOverridesDefault(t *testing.T) {
	out := mock.NewDestination()
	h := core.NewHandler(time.Hour,
		core.WithOutput(out),
		core.WithDelayHeader("delay"),
	)
	defer h.Shutdown()

	msg := core.NewMessage("payload").WithHeader("delay", "50")
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return out.Count() == 1 })
}

func TestHandler_PastDeadlineReleasesImmediately(t *testing.T) {
	out := mock.NewDestination()
	clk := mock.NewClock(time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))
	h := core.NewHandler(time.Hour,
		core.WithOutput(out),
		core.WithDelayHeader("delay"),
		core.WithClock(clk.Now),
	)
	defer h.Shutdown()

	msg := core.NewMessage("payload").WithHeader("delay", clk.Now().Add(-10*time.Second))
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if out.Count() != 1 {
		t.Error("past-deadline message should be released within the call")
	}
}

func TestHandler_NoDestinationFailsSynchronously(t *testing.T) {
	h := core.NewHandler(0)
	defer h.Shutdown()

	err := h.Handle(context.Background(), core.NewMessage("payload"))
	if !errors.Is(err, core.ErrNoOutputDestination) {
		t.Errorf("Handle = %v, want ErrNoOutputDestination", err)
	}
}

func TestHandler_ReplyHeaderByName(t *testing.T) {
	out := mock.NewDestination()
	resolver := mock.NewResolver()
	resolver.Add("replies", out)

	h := core.NewHandler(0, core.WithResolver(resolver))
	defer h.Shutdown()

	msg := core.NewMessage("payload").WithHeader(core.HeaderReplyDestination, "replies")
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if out.Count() != 1 {
		t.Error("message should be released to the header-named destination")
	}
}

func TestHandler_ReplyHeaderByObject(t *testing.T) {
	out := mock.NewDestination()
	h := core.NewHandler(0)
	defer h.Shutdown()

	msg := core.NewMessage("payload").WithHeader(core.HeaderReplyDestination, core.Destination(out))
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if out.Count() != 1 {
		t.Error("message should be released to the destination carried in the header")
	}
}

func TestHandler_ReplyHeaderByNameWithoutResolver(t *testing.T) {
	h := core.NewHandler(0)
	defer h.Shutdown()

	msg := core.NewMessage("payload").WithHeader(core.HeaderReplyDestination, "replies")
	if err := h.Handle(context.Background(), msg); !errors.Is(err, core.ErrNoResolver) {
		t.Errorf("Handle = %v, want ErrNoResolver", err)
	}
}

func TestHandler_ScheduledFailureGoesToErrorHeaderDestination(t *testing.T) {
	out := mock.NewDestination()
	out.AcceptErr = errors.New("rejected")
	errDest := mock.NewDestination()

	h := core.NewHandler(10*time.Millisecond,
		core.WithOutput(out),
		core.WithLogger(quietLogger()),
	)
	defer h.Shutdown()

	orig := core.NewMessage("payload").WithHeader(core.HeaderErrorDestination, core.Destination(errDest))
	if err := h.Handle(context.Background(), orig); err != nil {
		t.Fatalf("handle: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return errDest.Count() == 1 })
	report := errDest.Accepted()[0]
	relErr, ok := report.Payload().(*core.ReleaseError)
	if !ok {
		t.Fatalf("error report payload is %T, want *core.ReleaseError", report.Payload())
	}
	if relErr.Msg != orig {
		t.Error("error report should wrap the original message")
	}
}

func TestHandler_ScheduledFailureFallsBackToWellKnownErrorDestination(t *testing.T) {
	out := mock.NewDestination()
	out.AcceptErr = errors.New("rejected")
	errDest := mock.NewDestination()
	resolver := mock.NewResolver()
	resolver.Add(core.DefaultErrorDestinationName, errDest)

	h := core.NewHandler(10*time.Millisecond,
		core.WithOutput(out),
		core.WithResolver(resolver),
		core.WithLogger(quietLogger()),
	)
	defer h.Shutdown()

	if err := h.Handle(context.Background(), core.NewMessage("payload")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return errDest.Count() == 1 })
}

func TestHandler_UnresolvableErrorHeaderStillFallsBack(t *testing.T) {
	out := mock.NewDestination()
	out.AcceptErr = errors.New("rejected")
	errDest := mock.NewDestination()
	resolver := mock.NewResolver()
	resolver.Add(core.DefaultErrorDestinationName, errDest)

	h := core.NewHandler(10*time.Millisecond,
		core.WithOutput(out),
		core.WithResolver(resolver),
		core.WithLogger(quietLogger()),
	)
	defer h.Shutdown()

	// The header names a destination the resolver does not know. That must
	// not escape anywhere; the well-known default takes over.
	msg := core.NewMessage("payload").WithHeader(core.HeaderErrorDestination, "nowhere")
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return errDest.Count() == 1 })
}

func TestHandler_ScheduledFailureWithoutErrorPathIsContained(t *testing.T) {
	h := core.NewHandler(10*time.Millisecond, core.WithLogger(quietLogger()))

	// No output, no reply header, no resolver: the deferred release fails and
	// has nowhere to report. Nothing may panic or propagate.
	if err := h.Handle(context.Background(), core.NewMessage("payload")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	h.Shutdown()
}

func TestHandler_ConfigSnapshotAtHandleTime(t *testing.T) {
	first := mock.NewDestination()
	second := mock.NewDestination()

	h := core.NewHandler(50*time.Millisecond, core.WithOutput(first))
	defer h.Shutdown()

	if err := h.Handle(context.Background(), core.NewMessage("payload")); err != nil {
		t.Fatalf("handle: %v", err)
	}

	// Changing the output after scheduling must not affect the pending task.
	h.SetOutput(second)

	waitFor(t, 2*time.Second, func() bool { return first.Count() == 1 })
	if second.Count() != 0 {
		t.Error("scheduled release used configuration from after Handle")
	}

	// A later message picks up the new output.
	h.SetDefaultDelay(0)
	if err := h.Handle(context.Background(), core.NewMessage("payload")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if second.Count() != 1 {
		t.Error("new configuration not visible to subsequent Handle call")
	}
}

func TestHandler_SendTimeout(t *testing.T) {
	out := mock.NewDestination()
	out.Block = make(chan struct{}) // never closed; Accept obeys ctx
	errDest := mock.NewDestination()

	h := core.NewHandler(10*time.Millisecond,
		core.WithOutput(out),
		core.WithSendTimeout(50*time.Millisecond),
		core.WithLogger(quietLogger()),
	)
	defer h.Shutdown()

	msg := core.NewMessage("payload").WithHeader(core.HeaderErrorDestination, core.Destination(errDest))
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return errDest.Count() == 1 })
}

func TestHandler_ShutdownAbandonsPendingReleases(t *testing.T) {
	out := mock.NewDestination()
	h := core.NewHandler(time.Hour, core.WithOutput(out))

	if err := h.Handle(context.Background(), core.NewMessage("payload")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	h.Shutdown()

	if out.Count() != 0 {
		t.Error("unexpired release should be abandoned on shutdown")
	}
	if err := h.Handle(context.Background(), core.NewMessage("payload")); !errors.Is(err, core.ErrSchedulerStopped) {
		t.Errorf("Handle after shutdown = %v, want ErrSchedulerStopped", err)
	}
	h.Shutdown() // idempotent
}

func TestHandler_Order(t *testing.T) {
	h := core.NewHandler(0)
	defer h.Shutdown()

	if h.Order() != core.LowestPrecedence {
		t.Errorf("default order = %d, want LowestPrecedence", h.Order())
	}
	h.SetOrder(5)
	if h.Order() != 5 {
		t.Errorf("order = %d, want 5", h.Order())
	}
}

func TestHandler_SharedScheduler(t *testing.T) {
	s := core.NewScheduler()
	out := mock.NewDestination()

	h1 := core.NewHandler(10*time.Millisecond, core.WithOutput(out), core.WithScheduler(s))
	h2 := core.NewHandler(10*time.Millisecond, core.WithOutput(out), core.WithScheduler(s))

	if err := h1.Handle(context.Background(), core.NewMessage("one")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := h2.Handle(context.Background(), core.NewMessage("two")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return out.Count() == 2 })

	s.Shutdown(true)
}
