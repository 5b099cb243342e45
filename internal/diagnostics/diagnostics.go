// Package diagnostics formats type-checking failures as two-sided
// diagnostics: every constraint fed into the type scope carries a
// human-readable reason and a source range, so a unification failure can
// explain both sides of the conflict without the caller inspecting the
// scope itself. Named and shaped after github.com/funvibe/funxy's
// internal/diagnostics package (referenced throughout the donor's analyzer
// and cmd/funxy/main.go as diagnostics.NewError / *diagnostics.DiagnosticError,
// though that file itself was not part of the retrieved reference set, so
// this package is reconstructed from its call-site shape).
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/corelangs/typecheck/internal/token"
	"github.com/corelangs/typecheck/internal/typesystem"
)

// ErrorType enumerates the taxonomy of checking failures.
type ErrorType string

const (
	NoPossibleTypes       ErrorType = "no_possible_types"
	RecursiveConstant     ErrorType = "recursive_constant"
	InvalidParameterCount ErrorType = "invalid_parameter_count"
	ImmutableAssignment   ErrorType = "immutable_assignment"
	VariableWithoutValue  ErrorType = "variable_without_value"
	VariableDoesNotExist  ErrorType = "variable_does_not_exist"
)

// InfoSection is one "why this side had the type it had" annotation
// attached to a DiagnosticError: a message plus the source range it refers
// to.
type InfoSection struct {
	Message string
	Range   token.Range
}

// DiagnosticError is the checker's sole error type. ID is stamped fresh per
// diagnostic so a driver collecting errors from many modules concurrently
// can deduplicate or correlate them without relying on message text.
type DiagnosticError struct {
	ID      uuid.UUID
	Type    ErrorType
	Range   token.Range
	Message string
	Info    []InfoSection
}

func (e *DiagnosticError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, info := range e.Info {
		fmt.Fprintf(&b, "\n  - %s (%s)", info.Message, info.Range)
	}
	return b.String()
}

// NewError constructs a DiagnosticError carrying zero or more info sections.
func NewError(t ErrorType, at token.Range, message string, info ...InfoSection) *DiagnosticError {
	return &DiagnosticError{ID: uuid.New(), Type: t, Range: at, Message: message, Info: info}
}

// TypeAssertion pairs a type group with the source range and human reason
// that put an expectation on it. Assertions are not first-class constraints:
// they are the argument pairs handed to AssertTypes, which performs the
// actual unification and, on failure, builds the two-sided diagnostic.
type TypeAssertion struct {
	Group  typesystem.Group
	Range  token.Range
	Reason string
}

// AssertTypes unifies a.Group and b.Group in scope. On success it returns
// the unified group and a nil error. On failure it renders both sides'
// current possibility sets and produces a NoPossibleTypes diagnostic citing
// both reasons and both source ranges.
func AssertTypes(scope *typesystem.Scope, a, b TypeAssertion) (typesystem.Group, *DiagnosticError) {
	merged, ok := scope.LimitPossibleTypes(a.Group, b.Group)
	if ok {
		return merged, nil
	}

	aRendered := scope.Render(a.Group)
	bRendered := scope.Render(b.Group)

	return typesystem.Group{}, NewError(
		NoPossibleTypes,
		b.Range,
		"no possible types: these two uses cannot share a type",
		InfoSection{Message: fmt.Sprintf("%s, inferred as %s", a.Reason, aRendered), Range: a.Range},
		InfoSection{Message: fmt.Sprintf("%s, inferred as %s", b.Reason, bRendered), Range: b.Range},
	)
}

// Assertion factories. Each yields a TypeAssertion carrying a fixed prose
// reason describing the syntactic role g played at rng, matching the
// enumerated factory list: variable, literal, condition, assigned value,
// returned values, implicit unit return, call parameter/return, called
// closure, arithmetic/comparison/logical operand and result, constant,
// array values, object/array access and its result, array index, branch
// variants, matched value, procedure parameter, and the unexplained
// sentinel for internal uses where no human-facing reason is warranted.

func Variable(name string, g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, fmt.Sprintf("variable %q", name)}
}

func Literal(kind string, g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, fmt.Sprintf("%s literal", kind)}
}

func Condition(g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, "used as a condition"}
}

func AssignedValue(g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, "assigned here"}
}

func ReturnedValues(g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, "previous returned values were of type"}
}

func ImplicitUnitReturn(g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, "falls off the end without a value, implicitly returning unit"}
}

func CallParameter(index int, g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, fmt.Sprintf("this call expects parameter %d to be of type", index)}
}

func CallReturnValue(g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, "the result of this call"}
}

func CalledClosure(g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, "the value being called"}
}

func ArithmeticResult(g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, "result of arithmetic expression"}
}

func ArithmeticArgument(g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, "operand of arithmetic expression"}
}

func ComparisonResult(g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, "result of comparison expression"}
}

func ComparisonArgument(g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, "operand of comparison expression"}
}

func LogicalResult(g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, "result of logical expression"}
}

func LogicalArgument(g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, "operand of logical expression"}
}

func Constant(name string, g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, fmt.Sprintf("constant %q", name)}
}

func ArrayValues(g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, "previous array values were of type"}
}

func AccessedObject(g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, "accessed as an object"}
}

func AccessedArray(g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, "accessed as an array"}
}

func AccessResult(g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, "result of this access"}
}

func ArrayIndex(g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, "used as an array index"}
}

func BranchVariants(g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, "the set of variants handled by this match"}
}

func MatchedValue(g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, "the value being matched"}
}

func ProcedureParameter(name string, g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, fmt.Sprintf("procedure parameter %q", name)}
}

func CallParameterValue(index int, g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, fmt.Sprintf("argument %d passed at this call", index)}
}

// Unexplained is the sentinel reason for internal assertions (e.g. the
// unit Group an implicit return is checked against) where no human-facing
// explanation is warranted — the assertion still needs a reason string to
// satisfy the TypeAssertion shape, but callers should prefer a specific
// factory whenever the assertion can ever surface in a diagnostic.
func Unexplained(g typesystem.Group, rng token.Range) TypeAssertion {
	return TypeAssertion{g, rng, "unexplained"}
}
