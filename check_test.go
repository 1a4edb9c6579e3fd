package allgood

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func passBody(c *C) Outcome { return c.MakeSure(true) }

func registered(t *testing.T, e *Engine, name string, opts ...CheckOption) *Check {
	t.Helper()
	require.NoError(t, e.Register(name, passBody, opts...))
	checks := e.Checks()
	return checks[len(checks)-1]
}

func TestOnlyInMatchingEnvironment(t *testing.T) {
	e := New(WithEnvironment("production"))
	c := registered(t, e, "db", OnlyIn("production"))
	require.Equal(t, StatusActive, c.Status)
}

func TestOnlyInOtherEnvironment(t *testing.T) {
	e := New(WithEnvironment("development"))
	c := registered(t, e, "db", OnlyIn("production", "staging"))
	require.Equal(t, StatusSkipped, c.Status)
	require.Equal(t, "Only runs in production, staging", c.SkipReason)
}

func TestExceptIn(t *testing.T) {
	e := New(WithEnvironment("development"))
	c := registered(t, e, "db", ExceptIn("development", "test"))
	require.Equal(t, StatusSkipped, c.Status)
	require.Equal(t, "This check doesn't run in development, test", c.SkipReason)

	e = New(WithEnvironment("production"))
	c = registered(t, e, "db", ExceptIn("development", "test"))
	require.Equal(t, StatusActive, c.Status)
}

func TestEnvironmentComparesExactStrings(t *testing.T) {
	e := New(WithEnvironment("Production"))
	c := registered(t, e, "db", OnlyIn("production"))
	require.Equal(t, StatusSkipped, c.Status)
}

func TestIfCondition(t *testing.T) {
	e := New()
	c := registered(t, e, "a", If(Bool(true)))
	require.Equal(t, StatusActive, c.Status)

	c = registered(t, e, "b", If(Bool(false)))
	require.Equal(t, StatusSkipped, c.Status)
	require.Equal(t, "Check condition not met", c.SkipReason)

	c = registered(t, e, "c", If(Predicate(func() bool { return true })))
	require.Equal(t, StatusActive, c.Status)
}

func TestUnlessCondition(t *testing.T) {
	e := New()
	c := registered(t, e, "a", Unless(Bool(true)))
	require.Equal(t, StatusSkipped, c.Status)
	require.Equal(t, "Check `unless` condition met", c.SkipReason)

	c = registered(t, e, "b", Unless(Predicate(func() bool { return false })))
	require.Equal(t, StatusActive, c.Status)
}

func TestGateOrderStopsAtFirstSkip(t *testing.T) {
	evaluated := false
	e := New(WithEnvironment("development"))
	c := registered(t, e, "db",
		OnlyIn("production"),
		If(Predicate(func() bool { evaluated = true; return true })),
	)
	require.Equal(t, StatusSkipped, c.Status)
	require.Equal(t, "Only runs in production", c.SkipReason)
	require.False(t, evaluated, "later predicates must not run once the check is skipped")
}

func TestPredicateEvaluatedOnceAtRegistration(t *testing.T) {
	calls := 0
	e := New()
	registered(t, e, "db", If(Predicate(func() bool { calls++; return true })))
	require.Equal(t, 1, calls)

	_, err := e.RunChecks(context.Background())
	require.NoError(t, err)
	_, err = e.RunChecks(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, calls, "predicates are registration-time, not run-time")
}

func TestInvalidFrequencySkipsInsteadOfFailing(t *testing.T) {
	e := New()
	c := registered(t, e, "db", Run("5 times per week"))
	require.Equal(t, StatusSkipped, c.Status)
	require.Contains(t, c.SkipReason, "Invalid run frequency:")
	require.Contains(t, c.SkipReason, "Unsupported format")
}

func TestValidFrequencyKeepsCheckActive(t *testing.T) {
	e := New()
	c := registered(t, e, "db", Run("5 times per hour"))
	require.Equal(t, StatusActive, c.Status)
	require.NotNil(t, c.Rate)
	require.Equal(t, 5, c.Rate.MaxRuns)
	require.Equal(t, PeriodHour, c.Rate.Period)
}

func TestFrequencyParsedBeforeEnvironmentGates(t *testing.T) {
	e := New(WithEnvironment("development"))
	c := registered(t, e, "db", OnlyIn("production"), Run("nonsense"))
	require.Equal(t, StatusSkipped, c.Status)
	require.Contains(t, c.SkipReason, "Invalid run frequency:")
}
