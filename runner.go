package allgood

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// runBounded executes a check body under its own deadline. The body runs in
// a goroutine writing to a buffered channel; on timeout the goroutine is
// abandoned and its eventual result discarded, so a stuck body can never
// stall the cycle. Bodies that honor C.Context stop at their next context
// check.
//
// Panic classification happens inside the goroutine. A panic crossing a
// goroutine boundary would kill the process, and assertion failures travel
// as panics.
func runBounded(ctx context.Context, body CheckFunc, timeout time.Duration) Outcome {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out := make(chan Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				out <- classifyPanic(r)
			}
		}()
		out <- normalize(body(&C{ctx: runCtx}))
	}()

	select {
	case o := <-out:
		return o
	case <-runCtx.Done():
		if ctx.Err() != nil {
			return Outcome{Message: "Error: " + ctx.Err().Error()}
		}
		return Outcome{Message: "Check timed out after " + formatSeconds(timeout) + " seconds"}
	}
}

func classifyPanic(r any) Outcome {
	switch v := r.(type) {
	case checkFailed:
		return Outcome{Message: v.msg}
	case earlyExit:
		return Outcome{Message: "Error: " + v.reason}
	case error:
		return Outcome{Message: "Error: " + v.Error()}
	default:
		return Outcome{Message: fmt.Sprintf("Error: %v", v)}
	}
}

// normalize fills in default messages for bodies that build an Outcome by
// hand and leave Message empty.
func normalize(o Outcome) Outcome {
	if o.Message == "" {
		if o.Success {
			o.Message = "Check passed"
		} else {
			o.Message = "Check failed"
		}
	}
	return o
}

// formatSeconds renders a duration in seconds without trailing zeros:
// "10", "0.5", "0.01".
func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
