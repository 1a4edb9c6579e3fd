package allgood

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/rameerez/allgood/cache"
	"github.com/rameerez/allgood/internal/ratelimit"
)

// DefaultCheckTimeout bounds a check that neither the caller nor the engine
// configured.
const DefaultCheckTimeout = 10 * time.Second

// ErrNilBody rejects a registration without a body.
var ErrNilBody = errors.New("allgood: check body must not be nil")

// Engine owns an ordered list of checks and runs cycles over it. One engine
// per process is the normal setup; tests create their own so no state leaks
// between them.
type Engine struct {
	mu     sync.RWMutex
	checks []*Check

	defaultTimeout time.Duration
	env            string
	log            *zap.Logger
	store          cache.Store
	now            func() time.Time
	registerer     prometheus.Registerer

	gate *ratelimit.Gate

	mRuns        *prometheus.CounterVec
	mRunDur      prometheus.Histogram
	mRateLimited prometheus.Counter
	mCycles      *prometheus.CounterVec
	mCycleDur    prometheus.Histogram
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithEnvironment sets the environment name the OnlyIn and ExceptIn gates
// compare against. Defaults to "development".
func WithEnvironment(env string) Option {
	return func(e *Engine) { e.env = env }
}

// WithLogger sets the engine logger. Defaults to a no-op logger, so an
// embedded engine stays silent unless asked not to be.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithStore sets the cache backend run state persists in. Defaults to an
// in-process store; use cache.Select to probe a durable one first.
func WithStore(s cache.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithClock overrides wall-clock time. Rate-limit periods and last-run
// bookkeeping follow this clock; mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithDefaultTimeout sets the timeout applied to checks registered without
// their own.
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Engine) { e.defaultTimeout = d }
}

// WithRegisterer sets where engine metrics register. Defaults to a private
// registry, so embedding an engine never collides with the host's metrics;
// pass prometheus.DefaultRegisterer to expose them on the usual /metrics.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(e *Engine) { e.registerer = r }
}

// New builds an engine ready for Register calls.
func New(opts ...Option) *Engine {
	e := &Engine{
		defaultTimeout: DefaultCheckTimeout,
		env:            "development",
		log:            zap.NewNop(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = cache.NewMemory()
	}
	if e.registerer == nil {
		e.registerer = prometheus.NewRegistry()
	}
	e.gate = ratelimit.New(e.store, e.log, e.now)

	factory := promauto.With(e.registerer)
	e.mRuns = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "allgood_check_runs_total", Help: "Check results by status",
	}, []string{"status"})
	e.mRunDur = factory.NewHistogram(prometheus.HistogramOpts{
		Name: "allgood_check_duration_seconds", Help: "Executed check duration",
		Buckets: prometheus.DefBuckets,
	})
	e.mRateLimited = factory.NewCounter(prometheus.CounterOpts{
		Name: "allgood_checks_rate_limited_total", Help: "Cycles where a check was skipped by its rate limit",
	})
	e.mCycles = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "allgood_cycles_total", Help: "Completed healthcheck cycles by aggregate status",
	}, []string{"status"})
	e.mCycleDur = factory.NewHistogram(prometheus.HistogramOpts{
		Name: "allgood_cycle_duration_seconds", Help: "Full healthcheck cycle duration",
		Buckets: prometheus.DefBuckets,
	})
	return e
}

// Register appends a named check. Gates are evaluated here, once: a check
// that fails a gate is kept on the list as permanently skipped so the
// status page still shows it, with the reason, on every cycle.
//
// Checks run in registration order. Registering two checks with the same
// name is allowed; they share rate-limit state.
func (e *Engine) Register(name string, body CheckFunc, opts ...CheckOption) error {
	if body == nil {
		return ErrNilBody
	}
	o := &checkOptions{}
	for _, opt := range opts {
		opt(o)
	}

	c := &Check{Name: name, body: body, Timeout: e.DefaultTimeout()}
	if o.hasTimeout {
		c.Timeout = o.timeout
	}
	c.resolve(o, e.env)

	e.mu.Lock()
	e.checks = append(e.checks, c)
	e.mu.Unlock()

	if c.Status == StatusSkipped {
		e.log.Debug("check registered as skipped",
			zap.String("check", name), zap.String("reason", c.SkipReason))
	}
	return nil
}

// Checks returns the registered checks in registration order. The engine
// owns the values; treat them as read-only.
func (e *Engine) Checks() []*Check {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Check, len(e.checks))
	copy(out, e.checks)
	return out
}

// Reset discards every registered check. Rate-limit state in the store is
// left alone; re-registered checks pick it up again by name.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.checks = nil
	e.mu.Unlock()
}

// Environment returns the name the environment gates compare against.
func (e *Engine) Environment() string { return e.env }

// DefaultTimeout returns the timeout applied to new registrations.
func (e *Engine) DefaultTimeout() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.defaultTimeout
}

// SetDefaultTimeout changes the default for checks registered afterwards.
// Already-registered checks keep the timeout they were created with.
func (e *Engine) SetDefaultTimeout(d time.Duration) {
	e.mu.Lock()
	e.defaultTimeout = d
	e.mu.Unlock()
}

// setDecision records the per-cycle verdict for a rate-limited check.
func (e *Engine) setDecision(c *Check, status Status, reason string) {
	e.mu.Lock()
	c.Status = status
	c.SkipReason = reason
	e.mu.Unlock()
}
