package allgood

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rameerez/allgood/cache"
	"github.com/rameerez/allgood/internal/obs"
)

// RunChecks executes one cycle: every check in registration order, each one
// gated, bounded and contained on its own, so a broken check only ever
// shapes its own result. The error return is reserved for a fault in the
// cycle machinery itself; callers should treat it as "the page is down",
// not "a check failed".
func (e *Engine) RunChecks(ctx context.Context) (rep *Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			rep = nil
			err = fmt.Errorf("healthcheck cycle: %v", r)
		}
	}()

	tr := otel.Tracer("allgood")
	ctx, span := tr.Start(ctx, "healthcheck.cycle")
	defer span.End()

	start := time.Now()
	cache.Cleanup(ctx, e.store, e.now(), e.log)

	checks := e.Checks()
	results := make([]Result, 0, len(checks))
	for _, c := range checks {
		results = append(results, e.runOne(ctx, tr, c))
	}

	status := aggregate(results)
	span.SetAttributes(
		attribute.Int("checks.count", len(results)),
		attribute.String("checks.status", status),
	)
	e.mCycles.WithLabelValues(status).Inc()
	e.mCycleDur.Observe(time.Since(start).Seconds())
	e.log.Debug("healthcheck cycle finished",
		zap.Int("checks", len(results)), zap.String("status", status))

	return &Report{Status: status, Results: results}, nil
}

// runOne produces the Result for a single check. The deferred recover is
// the containment boundary: a panic in the gate or the bookkeeping turns
// into a failed result for this check and the cycle moves on.
func (e *Engine) runOne(ctx context.Context, tr trace.Tracer, c *Check) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.mRuns.WithLabelValues("failed").Inc()
			res = Result{Name: c.Name, Message: classifyPanic(r).Message}
		}
	}()

	if c.permanentSkip {
		e.mRuns.WithLabelValues("skipped").Inc()
		return Result{Name: c.Name, Success: true, Message: c.SkipReason, Skipped: true}
	}

	if c.Rate != nil {
		d, err := e.gate.Decide(ctx, c.Name, c.Rate.MaxRuns, string(c.Rate.Period))
		if err != nil {
			e.mRuns.WithLabelValues("failed").Inc()
			return Result{Name: c.Name, Message: "Error: " + err.Error()}
		}
		if !d.Allowed {
			e.setDecision(c, StatusSkipped, d.Reason)
			e.mRuns.WithLabelValues("skipped").Inc()
			e.mRateLimited.Inc()

			// without history the skip is neutral; with it, the last stored
			// outcome decides whether the page stays green
			success := true
			msg := d.Reason
			if d.Last != nil {
				success = d.Last.Success
				msg = fmt.Sprintf("%s. Last run %s ago: %s",
					d.Reason, humanizeSince(e.now().Sub(d.Last.At)), d.Last.Message)
			}
			return Result{Name: c.Name, Success: success, Message: msg, Skipped: true}
		}
		e.setDecision(c, StatusActive, "")
	}

	runCtx, span := tr.Start(ctx, "healthcheck.check",
		trace.WithAttributes(attribute.String("check.name", c.Name)))
	defer span.End()

	start := time.Now()
	out := runBounded(runCtx, c.body, c.Timeout)
	elapsed := time.Since(start)

	if out.Success {
		e.gate.RecordSuccess(runCtx, c.Name, out.Message)
		e.mRuns.WithLabelValues("passed").Inc()
	} else {
		e.gate.RecordFailure(runCtx, c.Name, out.Message)
		e.mRuns.WithLabelValues("failed").Inc()
		obs.WithTrace(runCtx, e.log).Warn("check failed",
			zap.String("check", c.Name), zap.String("message", out.Message))
	}
	e.mRunDur.Observe(elapsed.Seconds())
	span.SetAttributes(attribute.Bool("check.success", out.Success))

	return Result{
		Name:     c.Name,
		Success:  out.Success,
		Message:  out.Message,
		Duration: roundMillis(elapsed),
	}
}

// roundMillis converts to milliseconds with one decimal.
func roundMillis(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000*10) / 10
}

func humanizeSince(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "less than a minute"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour")
	default:
		return plural(int(d.Hours()/24), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
