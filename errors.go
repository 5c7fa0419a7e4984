package nlexpr

import (
	"fmt"

	"github.com/pkg/errors"
)

// ============================================================
// Errors
// ============================================================

var (
	// ErrUnsupportedOperator is matched by every *UnsupportedOperatorError.
	ErrUnsupportedOperator = errors.New("nlexpr: unsupported operator")
	// ErrInvalidTree reports a node sequence that breaks the parent-before-child
	// ordering or an operator arity.
	ErrInvalidTree = errors.New("nlexpr: invalid tree")
	// ErrDuplicateOperator is returned when registering a name twice.
	ErrDuplicateOperator = errors.New("nlexpr: duplicate operator")
)

// UnsupportedOperatorError identifies an operator id with no rule for the
// requested evaluation.
type UnsupportedOperatorError struct {
	Kind NodeKind
	ID   int
	// SecondOrder is set when the operator has a first-derivative rule but no
	// second-derivative rule.
	SecondOrder bool
}

func (e *UnsupportedOperatorError) Error() string {
	if e.SecondOrder {
		return fmt.Sprintf("nlexpr: unsupported operator: %s id %d has no second derivative", e.Kind, e.ID)
	}
	return fmt.Sprintf("nlexpr: unsupported operator: %s id %d", e.Kind, e.ID)
}

func (e *UnsupportedOperatorError) Is(target error) bool { return target == ErrUnsupportedOperator }

func unsupported(kind NodeKind, id int) error {
	return &UnsupportedOperatorError{Kind: kind, ID: id}
}
