package main

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/rameerez/allgood"
	"github.com/rameerez/allgood/cache"
	"github.com/rameerez/allgood/internal/config"
)

// registerChecks wires the built-in checks for the standalone server. Library
// embedders register their own; these cover the server's own dependencies.
func registerChecks(engine *allgood.Engine, cfg *config.Config, store cache.Store) error {
	if err := engine.Register("Cache read/write round trip", func(c *allgood.C) allgood.Outcome {
		const key = "allgood:selftest"
		if err := store.Write(c.Context(), key, []byte("ok"), time.Minute); err != nil {
			return c.MakeSure(false, "Cache write failed: "+err.Error())
		}
		got, found := store.Read(c.Context(), key)
		_ = store.Delete(c.Context(), key)
		return c.MakeSure(found && string(got) == "ok", "Cache round trip works")
	}); err != nil {
		return err
	}

	if err := engine.Register("Heap stays under limit", func(c *allgood.C) allgood.Outcome {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		heapMB := int(ms.HeapAlloc / (1 << 20))
		return c.Expect(heapMB).ToBeLessThan(cfg.Checks.MaxHeapMB)
	}); err != nil {
		return err
	}

	if err := engine.Register("Goroutine count stays sane", func(c *allgood.C) allgood.Outcome {
		return c.Expect(runtime.NumGoroutine()).ToBeLessThan(cfg.Checks.MaxGoroutines)
	}); err != nil {
		return err
	}

	client := &http.Client{}
	for _, url := range cfg.Checks.URLs {
		opts := []allgood.CheckOption{allgood.WithTimeout(cfg.Checks.DefaultTimeout)}
		if cfg.Checks.URLFrequency != "" {
			opts = append(opts, allgood.Run(cfg.Checks.URLFrequency))
		}
		err := engine.Register(fmt.Sprintf("Endpoint %s responds", url), func(c *allgood.C) allgood.Outcome {
			req, err := http.NewRequestWithContext(c.Context(), http.MethodGet, url, nil)
			if err != nil {
				return c.MakeSure(false, "Bad URL: "+err.Error())
			}
			resp, err := client.Do(req)
			if err != nil {
				return c.MakeSure(false, "Request failed: "+err.Error())
			}
			defer resp.Body.Close()
			return c.Expect(resp.StatusCode).ToBeLessThan(400)
		}, opts...)
		if err != nil {
			return err
		}
	}
	return nil
}
