package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	"github.com/doitintl/hello/offset-checkout/logger"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	done    bool
	stopped bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)

	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.done {
		return false
	}

	t.done = true
	t.stopped = true

	return true
}

// Advance moves the clock and runs every timer due on the way, in order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()

		var next *fakeTimer

		for _, t := range c.timers {
			if t.done || t.at.After(target) {
				continue
			}

			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}

		if next == nil {
			c.now = target
			c.mu.Unlock()

			return
		}

		c.now = next.at
		next.done = true
		c.mu.Unlock()

		next.f()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0

	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}

	return n
}

// scriptedGenerator fails with errs in order, then succeeds.
type scriptedGenerator struct {
	mu    sync.Mutex
	clock Clock
	errs  []error
	calls map[string][]time.Duration
	start time.Time
	fail  bool
}

func newScriptedGenerator(clock Clock, errs ...error) *scriptedGenerator {
	return &scriptedGenerator{
		clock: clock,
		errs:  errs,
		calls: make(map[string][]time.Duration),
		start: clock.Now(),
	}
}

func (g *scriptedGenerator) Generate(_ context.Context, certificateID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := len(g.calls[certificateID])
	g.calls[certificateID] = append(g.calls[certificateID], g.clock.Now().Sub(g.start))

	if g.fail {
		return "", errors.New("render unavailable")
	}

	if n < len(g.errs) && g.errs[n] != nil {
		return "", g.errs[n]
	}

	return "memory://certificates/" + certificateID + ".pdf", nil
}

func (g *scriptedGenerator) attempts(certificateID string) []time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]time.Duration(nil), g.calls[certificateID]...)
}

func newTestPoller(gen Generator, clock Clock) *Poller {
	return newPoller(logger.FromContext, gen, DefaultConfig(), clock)
}

func TestConfig_Delay(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, 0},
		{1, 5 * time.Second},
		{2, 15 * time.Second},
		{3, 30 * time.Second},
		{10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempts=%d", tt.attempts), func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.delay(tt.attempts))
		})
	}

	clamped := Config{Delays: []time.Duration{0, 45 * time.Second}, Ceiling: 30 * time.Second}
	assert.Equal(t, 30*time.Second, clamped.delay(1))
}

func TestPoller_FailsTwiceThenSucceeds(t *testing.T) {
	clock := newFakeClock()
	gen := newScriptedGenerator(clock, errors.New("timeout"), errors.New("timeout"))
	p := newTestPoller(gen, clock)

	p.Observe("cert-1", "")

	clock.Advance(0)
	assert.Len(t, gen.attempts("cert-1"), 1)

	clock.Advance(5 * time.Second)
	assert.Len(t, gen.attempts("cert-1"), 2)

	state, _ := p.State("cert-1")
	assert.Equal(t, StateNoArtifact, state)

	clock.Advance(15 * time.Second)

	assert.Equal(t, []time.Duration{0, 5 * time.Second, 20 * time.Second}, gen.attempts("cert-1"))

	state, ok := p.State("cert-1")
	require.True(t, ok)
	assert.Equal(t, StateHasArtifact, state)
	assert.Equal(t, 0, clock.pending())

	snapshot := p.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "memory://certificates/cert-1.pdf", snapshot[0].ArtifactURL)
	assert.Empty(t, snapshot[0].LastError)
	assert.NoError(t, p.Stop())
}

func TestPoller_AlwaysFailingGivesUpAfterThreeAttempts(t *testing.T) {
	clock := newFakeClock()
	gen := newScriptedGenerator(clock)
	gen.fail = true
	p := newTestPoller(gen, clock)

	p.Observe("cert-1", "")
	clock.Advance(time.Hour)

	assert.Len(t, gen.attempts("cert-1"), 3)

	state, _ := p.State("cert-1")
	assert.Equal(t, StateGivenUp, state)

	// observing again does not restart the schedule
	p.Observe("cert-1", "")
	clock.Advance(time.Hour)

	assert.Len(t, gen.attempts("cert-1"), 3)
	assert.Equal(t, 0, clock.pending())

	snapshot := p.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, 3, snapshot[0].Attempts)
	assert.Equal(t, "render unavailable", snapshot[0].LastError)

	err := p.Stop()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cert-1 given_up after 3 attempts")
}

func TestPoller_NoDuplicateTimers(t *testing.T) {
	clock := newFakeClock()
	gen := newScriptedGenerator(clock, errors.New("timeout"))
	p := newTestPoller(gen, clock)

	for i := 0; i < 5; i++ {
		p.Observe("cert-1", "")
	}

	assert.Equal(t, 1, clock.pending())

	clock.Advance(0)
	assert.Len(t, gen.attempts("cert-1"), 1)

	for i := 0; i < 5; i++ {
		p.Observe("cert-1", "")
		require.NoError(t, p.Retry("cert-1"))
	}

	assert.Equal(t, 1, clock.pending())

	clock.Advance(5 * time.Second)
	assert.Len(t, gen.attempts("cert-1"), 2)
}

func TestPoller_ManualRetryAfterGivingUp(t *testing.T) {
	clock := newFakeClock()
	gen := newScriptedGenerator(clock, errors.New("a"), errors.New("b"), errors.New("c"))
	p := newTestPoller(gen, clock)

	p.Observe("cert-1", "")
	clock.Advance(time.Hour)

	state, _ := p.State("cert-1")
	require.Equal(t, StateGivenUp, state)

	require.NoError(t, p.Retry("cert-1"))
	clock.Advance(0)

	attempts := gen.attempts("cert-1")
	require.Len(t, attempts, 4)
	assert.Equal(t, time.Hour, attempts[3])

	state, _ = p.State("cert-1")
	assert.Equal(t, StateHasArtifact, state)

	require.NoError(t, p.Retry("cert-1"))
	clock.Advance(time.Hour)
	assert.Len(t, gen.attempts("cert-1"), 4)

	assert.ErrorIs(t, p.Retry("cert-2"), ErrUnknownCertificate)
}

func TestPoller_ManualRetryIsASingleAttempt(t *testing.T) {
	clock := newFakeClock()
	gen := newScriptedGenerator(clock)
	gen.fail = true
	p := newTestPoller(gen, clock)

	p.Observe("cert-1", "")
	clock.Advance(time.Hour)
	require.NoError(t, p.Retry("cert-1"))
	clock.Advance(time.Hour)

	assert.Len(t, gen.attempts("cert-1"), 4)

	state, _ := p.State("cert-1")
	assert.Equal(t, StateGivenUp, state)
}

func TestPoller_ObservedArtifact(t *testing.T) {
	clock := newFakeClock()
	gen := newScriptedGenerator(clock)
	p := newTestPoller(gen, clock)

	p.Observe("cert-1", "https://storage.example.com/a.pdf")
	p.Observe("cert-2", "")
	assert.Equal(t, 1, clock.pending())

	// the server rendered it before our attempt ran
	p.Observe("cert-2", "https://storage.example.com/b.pdf")
	clock.Advance(time.Hour)

	assert.Empty(t, gen.attempts("cert-1"))
	assert.Empty(t, gen.attempts("cert-2"))

	for _, s := range p.Snapshot() {
		assert.Equal(t, StateHasArtifact, s.State, s.CertificateID)
	}
}

func TestPoller_PermanentErrorGivesUpAtOnce(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "not found", err: apperrors.NotFound("certificate")},
		{name: "revoked", err: apperrors.Validation("certificate is revoked")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			gen := newScriptedGenerator(clock, tt.err, tt.err, tt.err)
			p := newTestPoller(gen, clock)

			p.Observe("cert-1", "")
			clock.Advance(time.Hour)

			assert.Len(t, gen.attempts("cert-1"), 1)

			state, _ := p.State("cert-1")
			assert.Equal(t, StateGivenUp, state)
		})
	}
}

func TestPoller_Stop(t *testing.T) {
	clock := newFakeClock()
	gen := newScriptedGenerator(clock)
	p := newTestPoller(gen, clock)

	p.Observe("cert-1", "")
	require.Equal(t, 1, clock.pending())

	err := p.Stop()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cert-1 no_artifact after 0 attempts")
	assert.Equal(t, 0, clock.pending())

	clock.Advance(time.Hour)
	assert.Empty(t, gen.attempts("cert-1"))

	p.Observe("cert-2", "")
	assert.ErrorIs(t, p.Retry("cert-1"), ErrStopped)
}

func TestPoller_RealClockConverges(t *testing.T) {
	gen := &flakyGenerator{failures: map[string]int{}}

	p := New(logger.FromContext, gen, Config{
		Delays:      []time.Duration{0, time.Millisecond},
		Ceiling:     2 * time.Millisecond,
		MaxAttempts: 3,
	})

	for i := 0; i < 10; i++ {
		p.Observe(fmt.Sprintf("cert-%d", i), "")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, p.WaitIdle(ctx))

	for _, s := range p.Snapshot() {
		assert.Equal(t, StateHasArtifact, s.State, s.CertificateID)
		assert.Equal(t, 2, s.Attempts, s.CertificateID)
	}

	assert.NoError(t, p.Stop())
}

// flakyGenerator fails the first call for every certificate.
type flakyGenerator struct {
	mu       sync.Mutex
	failures map[string]int
}

func (g *flakyGenerator) Generate(_ context.Context, certificateID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.failures[certificateID]++
	if g.failures[certificateID] == 1 {
		return "", errors.New("cold start")
	}

	return "memory://" + certificateID, nil
}
