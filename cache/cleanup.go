package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const cleanupMarkerKey = "allgood:cleanup:last_run"

// Cleanup sweeps stale date-stamped keys, at most once per calendar day.
// Rate-limit counters embed their period key (a UTC date, hour buckets
// included), so a glob per old date catches all of them. Yesterday's keys
// are left alone: a check on a daily budget may still need them right after
// midnight in a skewed client's view of time.
//
// Everything here is best effort. TTLs already bound every key's lifetime,
// so a failed sweep only delays reclamation.
func Cleanup(ctx context.Context, s Store, now time.Time, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	today := now.UTC().Format("2006-01-02")
	if v, ok := s.Read(ctx, cleanupMarkerKey); ok && string(v) == today {
		return
	}

	for age := 2; age <= 8; age++ {
		day := now.UTC().AddDate(0, 0, -age).Format("2006-01-02")
		if err := s.DeleteMatched(ctx, "allgood:*"+day+"*"); err != nil {
			log.Warn("cache cleanup sweep failed", zap.String("day", day), zap.Error(err))
		}
	}

	if err := s.Write(ctx, cleanupMarkerKey, []byte(today), 2*TTLDay); err != nil {
		log.Warn("cache cleanup marker write failed", zap.Error(err))
	}
}
