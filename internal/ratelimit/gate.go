// Package ratelimit decides whether a frequency-capped health check may run
// in the current period, and remembers run outcomes so skipped cycles can
// still report something truthful. All state lives in the cache store; the
// gate itself is stateless.
package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rameerez/allgood/cache"
)

// Period bucket names the gate understands.
const (
	PeriodDay  = "day"
	PeriodHour = "hour"
)

// LastResult is the most recent completed run of a check, surfaced while
// the check is being skipped.
type LastResult struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Decision is the gate's verdict for one cycle.
type Decision struct {
	Allowed bool
	Reason  string // set when not allowed
	Count   int    // runs consumed this period, the current one included when allowed
	Max     int
	Last    *LastResult
}

type errorState struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Gate enforces per-period run budgets and the failure lockout. Counter
// updates are plain read-then-write: two concurrent cycles can occasionally
// both win the same slot, which callers tolerate in exchange for not
// needing cross-backend atomic increments.
type Gate struct {
	store cache.Store
	log   *zap.Logger
	now   func() time.Time
}

func New(store cache.Store, log *zap.Logger, now func() time.Time) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Gate{store: store, log: log, now: now}
}

// Decide runs the scheduling algorithm for one check:
//
//  1. Roll the counter over when the stored period key is not the current
//     one.
//  2. Deny while a failure lockout from the current period is armed,
//     regardless of remaining budget; the retry happens once the next
//     period starts.
//  3. Allow and consume a slot while the counter is below max, deny after.
//
// A cache that loses keys mid-period resets the counter; the check then
// runs more often than asked, never less, which is the safe direction for
// a health check.
func (g *Gate) Decide(ctx context.Context, name string, maxRuns int, period string) (Decision, error) {
	now := g.now().UTC()
	key, err := periodKey(now, period)
	if err != nil {
		return Decision{}, err
	}

	slug := Slug(name)
	count := 0
	if stored := g.readString(ctx, periodStateKey(slug)); stored == key {
		count = g.readInt(ctx, counterKey(slug, key))
	} else {
		g.write(ctx, periodStateKey(slug), []byte(key), ttlFor(period))
		g.write(ctx, counterKey(slug, key), []byte("0"), ttlFor(period))
	}

	last := g.lastResult(ctx, slug)

	// A recorded failure locks the check out for the remainder of the period
	// it failed in. The key outlives the rollover: the retry in the next
	// period clears it on success or re-arms it on failure.
	if es, locked := g.lockout(ctx, slug); locked {
		retryAt := nextPeriodStart(es.At.UTC(), period)
		if now.Before(retryAt) {
			reason := fmt.Sprintf("Rate limited (%d/%d runs this %s). Waiting until %s to retry failed check",
				count, maxRuns, period, formatInstant(retryAt))
			return Decision{Reason: reason, Count: count, Max: maxRuns, Last: last}, nil
		}
	}

	if count < maxRuns {
		g.write(ctx, counterKey(slug, key), []byte(strconv.Itoa(count+1)), ttlFor(period))
		g.write(ctx, lastRunKey(slug), []byte(now.Format(time.RFC3339)), cache.TTLDay)
		return Decision{Allowed: true, Count: count + 1, Max: maxRuns, Last: last}, nil
	}

	reason := fmt.Sprintf("Rate limited (%d/%d runs this %s). Next check at %s",
		count, maxRuns, period, formatInstant(nextPeriodStart(now, period)))
	return Decision{Reason: reason, Count: count, Max: maxRuns, Last: last}, nil
}

// RecordSuccess stores the outcome and clears any failure lockout, letting
// the check fall back to its normal budget.
func (g *Gate) RecordSuccess(ctx context.Context, name, message string) {
	slug := Slug(name)
	g.writeJSON(ctx, resultKey(slug), LastResult{Success: true, Message: message, At: g.now().UTC()})
	if err := g.store.Delete(ctx, lockoutKey(slug)); err != nil {
		g.log.Warn("clearing check error state failed", zap.String("check", name), zap.Error(err))
	}
}

// RecordFailure stores the outcome and arms the lockout for the rest of the
// current period. Each failing retry re-arms it, so a persistently broken
// check runs once per period until it recovers.
func (g *Gate) RecordFailure(ctx context.Context, name, message string) {
	slug := Slug(name)
	now := g.now().UTC()
	g.writeJSON(ctx, resultKey(slug), LastResult{Success: false, Message: message, At: now})
	g.writeJSON(ctx, lockoutKey(slug), errorState{Message: message, At: now})
}

func (g *Gate) lockout(ctx context.Context, slug string) (errorState, bool) {
	raw, ok := g.store.Read(ctx, lockoutKey(slug))
	if !ok {
		return errorState{}, false
	}
	var es errorState
	if err := json.Unmarshal(raw, &es); err != nil {
		// a corrupt key must not wedge the check forever
		_ = g.store.Delete(ctx, lockoutKey(slug))
		return errorState{}, false
	}
	return es, true
}

func (g *Gate) lastResult(ctx context.Context, slug string) *LastResult {
	raw, ok := g.store.Read(ctx, resultKey(slug))
	if !ok {
		return nil
	}
	var lr LastResult
	if err := json.Unmarshal(raw, &lr); err != nil {
		return nil
	}
	return &lr
}

func (g *Gate) readString(ctx context.Context, key string) string {
	raw, ok := g.store.Read(ctx, key)
	if !ok {
		return ""
	}
	return string(raw)
}

func (g *Gate) readInt(ctx context.Context, key string) int {
	n, err := strconv.Atoi(g.readString(ctx, key))
	if err != nil {
		return 0
	}
	return n
}

func (g *Gate) write(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := g.store.Write(ctx, key, value, ttl); err != nil {
		g.log.Warn("rate limit state write failed", zap.String("key", key), zap.Error(err))
	}
}

func (g *Gate) writeJSON(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		g.log.Warn("rate limit state marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	g.write(ctx, key, raw, cache.TTLDay)
}

// Key layout. Counters embed the period key (which starts with a UTC date)
// so stale ones can be swept by date glob; the rest are fixed per check.

func periodStateKey(slug string) string { return "allgood:rate:" + slug + ":period" }

func counterKey(slug, periodKey string) string {
	return "allgood:rate:" + slug + ":count:" + periodKey
}

func lastRunKey(slug string) string { return "allgood:rate:" + slug + ":last_run" }

func lockoutKey(slug string) string { return "allgood:error:" + slug }

func resultKey(slug string) string { return "allgood:result:" + slug }

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives the cache key fragment for a check name. Distinct names can
// collide after slugging; such checks share rate state.
func Slug(name string) string {
	s := slugPattern.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(s, "_")
}

func ttlFor(period string) time.Duration {
	if period == PeriodHour {
		return cache.TTLHour
	}
	return cache.TTLDay
}

func periodKey(now time.Time, period string) (string, error) {
	switch period {
	case PeriodDay:
		return now.Format("2006-01-02"), nil
	case PeriodHour:
		return now.Format("2006-01-02-15"), nil
	default:
		return "", fmt.Errorf("unsupported rate period %q", period)
	}
}

func nextPeriodStart(now time.Time, period string) time.Time {
	if period == PeriodHour {
		return now.Truncate(time.Hour).Add(time.Hour)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

func formatInstant(t time.Time) string {
	return t.Format("2006-01-02 15:04 MST")
}
