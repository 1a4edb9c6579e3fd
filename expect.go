package allgood

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// Outcome is the structured result a check body reports: a verdict plus a
// human-readable message for the status page.
type Outcome struct {
	Success bool
	Message string
}

// C is the evaluation context handed to a check body. It carries the run's
// context and the assertion primitives; each run gets a fresh C and nothing
// is shared between bodies.
//
// MakeSure and the Expectation operators return an Outcome on success and
// abort the body on failure, so a body reads as a straight line of
// assertions with the last one's outcome becoming the result.
type C struct {
	ctx context.Context
}

// Context returns the context bounding this run. Bodies doing I/O should
// thread it through so the check's timeout cancels the work.
func (c *C) Context() context.Context { return c.ctx }

// checkFailed aborts a body on a failed assertion. It never escapes the
// bounded runner.
type checkFailed struct{ msg string }

// earlyExit aborts a body on an explicit Abort call.
type earlyExit struct{ reason string }

// MakeSure asserts that v is truthy. Truthiness is deliberately loose: only
// false and nil (typed or untyped) fail, so 0, "" and empty collections all
// pass. An optional message replaces both default messages.
func (c *C) MakeSure(v any, msg ...string) Outcome {
	if truthy(v) {
		return Outcome{Success: true, Message: orDefault(msg, "Check passed")}
	}
	panic(checkFailed{msg: orDefault(msg, "Check failed")})
}

// Abort ends the check immediately; its result reports reason as an error.
func (c *C) Abort(reason string) {
	panic(earlyExit{reason: reason})
}

// Expect starts a comparison against v.
func (c *C) Expect(v any) *Expectation {
	return &Expectation{value: v}
}

// Expectation compares a captured value against an expected one.
type Expectation struct {
	value any
}

// ToEq asserts loose equality: numeric values compare by value across types
// (5 equals 5.0), nil equals nil, everything else by deep equality.
func (e *Expectation) ToEq(expected any) Outcome {
	if looseEqual(e.value, expected) {
		return Outcome{Success: true, Message: "Got: " + display(e.value)}
	}
	panic(checkFailed{msg: fmt.Sprintf("Expected %s to equal %s but it doesn't",
		display(expected), display(e.value))})
}

// ToBeGreaterThan asserts the captured value orders strictly above
// expected. Comparing incompatible types (a number against a string, say)
// is a type error, not a failed check.
func (e *Expectation) ToBeGreaterThan(expected any) Outcome {
	if compareOrdered(e.value, expected) > 0 {
		return Outcome{Success: true, Message: fmt.Sprintf("Got: %s (> %s)",
			display(e.value), display(expected))}
	}
	panic(checkFailed{msg: fmt.Sprintf("We were expecting %s to be greater than %s but it's not",
		display(e.value), display(expected))})
}

// ToBeLessThan asserts the captured value orders strictly below expected.
func (e *Expectation) ToBeLessThan(expected any) Outcome {
	if compareOrdered(e.value, expected) < 0 {
		return Outcome{Success: true, Message: fmt.Sprintf("Got: %s (< %s)",
			display(e.value), display(expected))}
	}
	panic(checkFailed{msg: fmt.Sprintf("We were expecting %s to be less than %s but it's not",
		display(e.value), display(expected))})
}

func orDefault(msgs []string, def string) string {
	if len(msgs) > 0 && msgs[0] != "" {
		return msgs[0]
	}
	return def
}

// truthy treats only false and nil-equivalents as falsy.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return !rv.IsNil()
	}
	return true
}

// display renders a value for a result message. Typed and untyped nils both
// print as "nil".
func display(v any) string {
	if v == nil {
		return "nil"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		if rv.IsNil() {
			return "nil"
		}
	}
	return fmt.Sprintf("%v", v)
}

func looseEqual(a, b any) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf // NaN stays unequal to everything, itself included
		}
	}
	return reflect.DeepEqual(a, b)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// compareOrdered returns -1, 0 or 1. Numbers compare across numeric types,
// strings compare lexically; any other pairing panics with a type error the
// runner reports as the check's error.
func compareOrdered(a, b any) int {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return strings.Compare(as, bs)
		}
	}
	panic(fmt.Errorf("cannot order %s against %s", typeName(a), typeName(b)))
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
