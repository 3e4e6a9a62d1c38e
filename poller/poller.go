// Package poller drives certificate artifacts to completion from the
// client side. It is a convergence aid: certificates exist and verify
// without it, only their documents may stay unrendered.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/qmuntal/stateless"
	"golang.org/x/time/rate"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	"github.com/doitintl/hello/offset-checkout/logger"
)

var (
	ErrUnknownCertificate = errors.New("certificate is not tracked")
	ErrStopped            = errors.New("poller stopped")
	errNoArtifactURL      = errors.New("render returned no artifact url")
)

// Generator asks the server to render a certificate artifact and returns its url.
type Generator interface {
	Generate(ctx context.Context, certificateID string) (string, error)
}

type Config struct {
	// Delays[n] is the wait before attempt n+1. Later attempts wait Ceiling.
	Delays      []time.Duration
	Ceiling     time.Duration
	MaxAttempts int
	// Rate and Burst bound render requests across all certificates.
	Rate  rate.Limit
	Burst int
}

func DefaultConfig() Config {
	return Config{
		Delays:      []time.Duration{0, 5 * time.Second, 15 * time.Second},
		Ceiling:     30 * time.Second,
		MaxAttempts: 3,
		Rate:        rate.Limit(2),
		Burst:       2,
	}
}

func (c Config) delay(attempts int) time.Duration {
	d := c.Ceiling
	if attempts < len(c.Delays) {
		d = c.Delays[attempts]
	}

	if c.Ceiling > 0 && d > c.Ceiling {
		d = c.Ceiling
	}

	return d
}

// Status is a point in time view of one tracked certificate.
type Status struct {
	CertificateID string `json:"certificate_id"`
	State         State  `json:"state"`
	Attempts      int    `json:"attempts"`
	ArtifactURL   string `json:"artifact_url,omitempty"`
	LastError     string `json:"last_error,omitempty"`
}

type entry struct {
	machine  *stateless.StateMachine
	attempts int
	allowed  int
	url      string
	lastErr  error
	timer    Timer
	inFlight bool
}

func (e *entry) state() State {
	return e.machine.MustState().(State)
}

func (e *entry) busy() bool {
	return e.timer != nil || e.inFlight
}

// Poller keeps at most one pending attempt per certificate id.
type Poller struct {
	loggerProvider logger.Provider
	generator      Generator
	cfg            Config
	clock          Clock
	limiter        *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]*entry
	changed chan struct{}
	stopped bool
}

func New(log logger.Provider, generator Generator, cfg Config) *Poller {
	return newPoller(log, generator, cfg, realClock{})
}

func newPoller(log logger.Provider, generator Generator, cfg Config, clock Clock) *Poller {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}

	if cfg.Rate == 0 {
		cfg.Rate = rate.Inf
	}

	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Poller{
		loggerProvider: log,
		generator:      generator,
		cfg:            cfg,
		clock:          clock,
		limiter:        rate.NewLimiter(cfg.Rate, cfg.Burst),
		ctx:            ctx,
		cancel:         cancel,
		entries:        make(map[string]*entry),
		changed:        make(chan struct{}),
	}
}

// Observe records the latest server view of a certificate. A certificate
// without an artifact gets an attempt scheduled unless one is already
// pending, in flight, or the attempts are used up.
func (p *Poller) Observe(certificateID, artifactURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}

	e, ok := p.entries[certificateID]
	if !ok {
		e = &entry{
			machine: newCertificateMachine(),
			allowed: p.cfg.MaxAttempts,
		}
		p.entries[certificateID] = e
	}

	if artifactURL != "" {
		p.ready(e, artifactURL)
		return
	}

	p.schedule(certificateID, e, p.cfg.delay(e.attempts))
}

// Retry grants a given up certificate one more attempt, run right away.
// Retrying a certificate that is still being worked on schedules nothing.
func (p *Poller) Retry(certificateID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrStopped
	}

	e, ok := p.entries[certificateID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCertificate, certificateID)
	}

	switch e.state() {
	case StateHasArtifact:
		return nil
	case StateGivenUp:
		e.allowed = e.attempts + 1
		p.fire(e, triggerRetry)
		p.schedule(certificateID, e, 0)
	default:
		p.schedule(certificateID, e, p.cfg.delay(e.attempts))
	}

	return nil
}

func (p *Poller) State(certificateID string) (State, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[certificateID]
	if !ok {
		return "", false
	}

	return e.state(), true
}

func (p *Poller) Snapshot() []Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]Status, 0, len(p.entries))

	for id, e := range p.entries {
		s := Status{
			CertificateID: id,
			State:         e.state(),
			Attempts:      e.attempts,
			ArtifactURL:   e.url,
		}

		if e.lastErr != nil && s.State != StateHasArtifact {
			s.LastError = e.lastErr.Error()
		}

		statuses = append(statuses, s)
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].CertificateID < statuses[j].CertificateID
	})

	return statuses
}

// WaitIdle blocks until no attempt is pending or running.
func (p *Poller) WaitIdle(ctx context.Context) error {
	for {
		p.mu.Lock()
		idle := true

		for _, e := range p.entries {
			if e.busy() {
				idle = false
				break
			}
		}

		changed := p.changed
		p.mu.Unlock()

		if idle {
			return nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stop cancels pending attempts, waits for running ones and reports every
// certificate that was left without an artifact.
func (p *Poller) Stop() error {
	p.mu.Lock()
	p.stopped = true

	for _, e := range p.entries {
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
	}

	p.notify()
	p.mu.Unlock()

	p.cancel()

	if err := p.WaitIdle(context.Background()); err != nil {
		return err
	}

	var result *multierror.Error

	for _, s := range p.Snapshot() {
		if s.State == StateHasArtifact {
			continue
		}

		result = multierror.Append(result, fmt.Errorf("certificate %s %s after %d attempts: %s", s.CertificateID, s.State, s.Attempts, s.LastError))
	}

	return result.ErrorOrNil()
}

// schedule must be called with mu held.
func (p *Poller) schedule(id string, e *entry, d time.Duration) {
	if e.state() != StateNoArtifact || e.busy() {
		return
	}

	if e.attempts >= e.allowed {
		p.fire(e, triggerGiveUp)
		return
	}

	e.timer = p.clock.AfterFunc(d, func() { p.attempt(id) })
	p.notify()
}

func (p *Poller) attempt(id string) {
	p.mu.Lock()

	e, ok := p.entries[id]
	if !ok {
		p.mu.Unlock()
		return
	}

	e.timer = nil

	if p.stopped || e.state() != StateNoArtifact {
		p.notify()
		p.mu.Unlock()

		return
	}

	e.inFlight = true
	e.attempts++
	n := e.attempts
	p.mu.Unlock()

	l := p.loggerProvider(p.ctx)

	url, err := p.generate(id)

	p.mu.Lock()
	defer p.mu.Unlock()

	e.inFlight = false
	defer p.notify()

	if e.state() != StateNoArtifact {
		return
	}

	if err == nil {
		p.ready(e, url)
		l.Infof("certificate %s artifact ready after %d attempts", id, n)

		return
	}

	e.lastErr = err
	l.Warningf("certificate %s render attempt %d failed: %s", id, n, err)

	if p.stopped {
		return
	}

	if apperrors.Is(err, apperrors.KindNotFound) || apperrors.Is(err, apperrors.KindValidation) {
		e.allowed = e.attempts
	}

	if e.attempts >= e.allowed {
		p.fire(e, triggerGiveUp)
		l.Warningf("certificate %s given up after %d attempts", id, n)

		return
	}

	p.schedule(id, e, p.cfg.delay(e.attempts))
}

func (p *Poller) generate(id string) (string, error) {
	if err := p.limiter.Wait(p.ctx); err != nil {
		return "", err
	}

	url, err := p.generator.Generate(p.ctx, id)
	if err != nil {
		return "", err
	}

	if url == "" {
		return "", errNoArtifactURL
	}

	return url, nil
}

func (p *Poller) ready(e *entry, url string) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}

	e.url = url
	p.fire(e, triggerReady)
	p.notify()
}

func (p *Poller) fire(e *entry, trigger string) {
	if err := e.machine.Fire(trigger); err != nil {
		p.loggerProvider(p.ctx).Errorf("certificate state %s on %s: %s", e.state(), trigger, err)
	}
}

func (p *Poller) notify() {
	close(p.changed)
	p.changed = make(chan struct{})
}
