package flow

import (
	"errors"
	"fmt"

	"github.com/jward/asyncflow/internal/syntax"
)

const (
	// Name identifies the transformer in error messages and cache keys.
	Name = "asyncflow/async-to-flow-generator"

	// Version must be incremented whenever the output for a given input
	// changes, so that cached results are invalidated.
	Version = 2
)

// ErrUnresolvableMarkedExpression is matched by every
// *UnresolvableMarkedExpressionError.
var ErrUnresolvableMarkedExpression = errors.New("unresolvable marked expression")

// UnresolvableMarkedExpressionError is returned when a marking site applies
// the marker to something that is neither an async function nor a
// generator. Source is the exact text of the marking site.
type UnresolvableMarkedExpressionError struct {
	Source string
	Pos    syntax.Point
}

func (e *UnresolvableMarkedExpressionError) Error() string {
	return fmt.Sprintf("[%s]: Could not resolve expression as async function: %s", Name, e.Source)
}

func (e *UnresolvableMarkedExpressionError) Is(target error) bool {
	return target == ErrUnresolvableMarkedExpression
}

func unresolvable(site *syntax.Node) error {
	return &UnresolvableMarkedExpressionError{Source: site.Source(), Pos: site.Start}
}
