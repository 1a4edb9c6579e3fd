package allgood

import (
	"strings"
	"time"
)

// Status is a check's verdict: whether it participates in cycles at all,
// and for rate-limited checks, whether the latest cycle let it run.
type Status int

const (
	StatusPending Status = iota
	StatusActive
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusSkipped:
		return "skipped"
	default:
		return "pending"
	}
}

// CheckFunc is a check body. It runs with a fresh evaluation context and its
// last assertion's outcome becomes the check's result.
type CheckFunc func(c *C) Outcome

// Check is one registered health check. Everything except Status and
// SkipReason is fixed at registration; those two are rewritten by the rate
// limiter every cycle, so they always reflect the latest decision.
type Check struct {
	Name       string
	Timeout    time.Duration
	Status     Status
	SkipReason string
	Rate       *Rate // nil when the check runs every cycle

	body CheckFunc

	// registration-time verdict; a permanently skipped check never comes
	// back, no matter what later cycles write into Status
	permanentSkip bool
}

type checkOptions struct {
	timeout    time.Duration
	hasTimeout bool
	only       []string
	except     []string
	ifCond     Condition
	unlessCond Condition
	frequency  string
	hasRate    bool
}

// CheckOption configures one registration.
type CheckOption func(*checkOptions)

// WithTimeout bounds the body's execution. Without it the engine's default
// timeout at the moment of registration applies.
func WithTimeout(d time.Duration) CheckOption {
	return func(o *checkOptions) { o.timeout, o.hasTimeout = d, true }
}

// OnlyIn restricts the check to the named environments.
func OnlyIn(envs ...string) CheckOption {
	return func(o *checkOptions) { o.only = envs }
}

// ExceptIn keeps the check out of the named environments.
func ExceptIn(envs ...string) CheckOption {
	return func(o *checkOptions) { o.except = envs }
}

// If skips the check unless cond holds.
func If(cond Condition) CheckOption {
	return func(o *checkOptions) { o.ifCond = cond }
}

// Unless skips the check when cond holds.
func Unless(cond Condition) CheckOption {
	return func(o *checkOptions) { o.unlessCond = cond }
}

// Run rate-limits the check to a frequency like "5 times per hour". An
// unparseable frequency registers the check as permanently skipped rather
// than failing registration, so one bad string cannot take the page down.
func Run(frequency string) CheckOption {
	return func(o *checkOptions) { o.frequency, o.hasRate = frequency, true }
}

// resolve applies the registration gates in a fixed order: frequency parse,
// only, except, if, unless. The first gate that skips wins and nothing after
// it is evaluated, predicates included.
func (c *Check) resolve(o *checkOptions, env string) {
	if o.hasRate {
		rate, err := ParseFrequency(o.frequency)
		if err != nil {
			c.skipForever("Invalid run frequency: " + err.Error())
			return
		}
		c.Rate = &rate
	}
	if len(o.only) > 0 && !containsString(o.only, env) {
		c.skipForever("Only runs in " + strings.Join(o.only, ", "))
		return
	}
	if len(o.except) > 0 && containsString(o.except, env) {
		c.skipForever("This check doesn't run in " + strings.Join(o.except, ", "))
		return
	}
	if o.ifCond.isDefined() && !o.ifCond.value() {
		c.skipForever("Check condition not met")
		return
	}
	if o.unlessCond.isDefined() && o.unlessCond.value() {
		c.skipForever("Check `unless` condition met")
		return
	}
	c.Status = StatusActive
}

func (c *Check) skipForever(reason string) {
	c.Status = StatusSkipped
	c.SkipReason = reason
	c.permanentSkip = true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
