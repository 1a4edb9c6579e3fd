// Package allgood is an embeddable health-check runner. A host registers
// named checks once at startup, then serves the result of RunChecks from a
// /healthcheck endpoint; monitoring pings the endpoint and gets a 200 while
// every check passes.
//
// A check body receives an evaluation context with small assertion helpers
// and reads as a straight line:
//
//	engine := allgood.New(allgood.WithEnvironment("production"))
//	engine.Register("Database responds", func(c *allgood.C) allgood.Outcome {
//		return c.MakeSure(db.PingContext(c.Context()) == nil)
//	})
//	engine.Register("Disk has headroom", func(c *allgood.C) allgood.Outcome {
//		return c.Expect(freeDiskPercent()).ToBeGreaterThan(10)
//	}, allgood.Run("6 times per day"))
//
// A failed assertion aborts the body and becomes the check's message; the
// last assertion's outcome is the result. Checks can be restricted to
// environments (OnlyIn, ExceptIn), gated on conditions (If, Unless) and
// rate limited (Run) with counters kept in a cache store, so restarts and
// multiple processes share the budget. Every body runs under a timeout in
// its own goroutine; a hung check times out, a panicking check fails, and
// the cycle always completes.
//
// The web and grpchealth packages adapt an Engine to HTTP and to the
// standard gRPC health protocol.
package allgood
