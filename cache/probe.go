package cache

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/rameerez/allgood/internal/obs/retry"
)

// Select probes the durable store with a write-read round trip and falls
// back to the in-process store when the probe fails. The engine keeps
// working either way; the fallback just loses persistence across restarts.
func Select(ctx context.Context, durable Store, log *zap.Logger) Store {
	if log == nil {
		log = zap.NewNop()
	}
	if durable == nil {
		log.Info("no durable cache backend configured, using in-process store")
		return NewMemory()
	}
	if err := Probe(ctx, durable); err != nil {
		log.Warn("durable cache backend failed probe, falling back to in-process store",
			zap.Error(err))
		return NewMemory()
	}
	return durable
}

// Probe performs the round trip, retrying briefly to ride out a backend
// that is still starting up.
func Probe(ctx context.Context, s Store) error {
	key := "allgood:probe:" + randomToken()
	want := []byte("ok")
	return retry.Do(ctx, func() error {
		if err := s.Write(ctx, key, want, time.Minute); err != nil {
			return err
		}
		got, ok := s.Read(ctx, key)
		if !ok || !bytes.Equal(got, want) {
			return ErrProbeMismatch
		}
		return s.Delete(ctx, key)
	}, retry.Policy{
		Name:     "cache_probe",
		Attempts: 3,
		Backoff:  retry.ExpoJitter{Base: 50 * time.Millisecond, Max: 500 * time.Millisecond, Jitter: 0.2},
	})
}

// randomToken keeps concurrent probes from clobbering each other's key.
func randomToken() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "static"
	}
	return hex.EncodeToString(b)
}
