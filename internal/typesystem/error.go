package typesystem

// ErrNoPossibleTypes is returned by callers that want a plain error value
// for a failed LimitPossibleTypes call without going through the richer
// two-sided diagnostics in package diagnostics (e.g. internal callers that
// only need to know whether unification succeeded).
type ErrNoPossibleTypes struct {
	A, B Group
}

func (e *ErrNoPossibleTypes) Error() string {
	return "no possible types: the two sides share no common constructor"
}
