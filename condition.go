package allgood

// Condition gates a check at registration time. It is either a literal
// boolean or a zero-argument predicate; the two constructors cover the two
// shapes a conditional option accepts.
type Condition struct {
	pred    func() bool
	literal bool
	defined bool
}

// Bool is a literal condition, for flags known at registration time.
func Bool(v bool) Condition {
	return Condition{literal: v, defined: true}
}

// Predicate defers the decision to fn. The function is evaluated once,
// during registration, and only when no earlier gate already skipped the
// check.
func Predicate(fn func() bool) Condition {
	return Condition{pred: fn, defined: true}
}

func (c Condition) isDefined() bool { return c.defined }

// value resolves the condition. Predicates are invoked here and nowhere
// else.
func (c Condition) value() bool {
	if c.pred != nil {
		return c.pred()
	}
	return c.literal
}
