package allgood

// Aggregate verdicts for a full cycle.
const (
	AggregateOK    = "ok"
	AggregateError = "error"
)

// Result is one check's outcome for a single cycle.
type Result struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	// Duration is wall-clock milliseconds, rounded to one decimal. Skipped
	// checks report zero.
	Duration float64 `json:"duration"`
	Skipped  bool    `json:"skipped,omitempty"`
}

// Report is one full cycle: every registered check's result in registration
// order, plus the aggregate verdict.
type Report struct {
	Status  string   `json:"status"`
	Results []Result `json:"checks"`
}

// OK reports whether every result succeeded. Skipped checks count as
// healthy unless their last stored run failed.
func (r *Report) OK() bool {
	return r.Status == AggregateOK
}

func aggregate(results []Result) string {
	for _, res := range results {
		if !res.Success {
			return AggregateError
		}
	}
	return AggregateOK
}
