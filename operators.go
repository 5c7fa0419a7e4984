package nlexpr

import "strconv"

// ============================================================
// Multivariate, comparison and logic operators
// ============================================================

// Multivariate operator ids, the Index of a KindCallMultivariate node.
const (
	OpAdd = iota
	OpSub
	OpMul
	OpPow
	OpDiv
	OpIfElse
	OpAtan2
	OpMin
	OpMax
)

// Comparison operator ids, the Index of a KindComparison node.
const (
	CmpLessEq = iota
	CmpEq
	CmpGreaterEq
	CmpLess
	CmpGreater
)

// Logic operator ids, the Index of a KindLogic node.
const (
	LogicAnd = iota
	LogicOr
)

var (
	multivariateNames = [...]string{
		OpAdd:    "+",
		OpSub:    "-",
		OpMul:    "*",
		OpPow:    "^",
		OpDiv:    "/",
		OpIfElse: "ifelse",
		OpAtan2:  "atan",
		OpMin:    "min",
		OpMax:    "max",
	}
	comparisonNames = [...]string{
		CmpLessEq:    "<=",
		CmpEq:        "==",
		CmpGreaterEq: ">=",
		CmpLess:      "<",
		CmpGreater:   ">",
	}
	logicNames = [...]string{
		LogicAnd: "&&",
		LogicOr:  "||",
	}
)

func lookupName(names []string, name string) (int, bool) {
	for i, n := range names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// MultivariateOperator returns the id of a multivariate operator name.
func MultivariateOperator(name string) (int, bool) { return lookupName(multivariateNames[:], name) }

// ComparisonOperator returns the id of a comparison operator name.
func ComparisonOperator(name string) (int, bool) { return lookupName(comparisonNames[:], name) }

// LogicOperator returns the id of a logic operator name.
func LogicOperator(name string) (int, bool) { return lookupName(logicNames[:], name) }

// MultivariateOperators lists the multivariate operator names in id order.
func MultivariateOperators() []string { return append([]string(nil), multivariateNames[:]...) }

// ComparisonOperators lists the comparison operator names in id order.
func ComparisonOperators() []string { return append([]string(nil), comparisonNames[:]...) }

// LogicOperators lists the logic operator names in id order.
func LogicOperators() []string { return append([]string(nil), logicNames[:]...) }

// operatorName names the operator of a call node for messages; univariate
// names come from DefaultUnivariateTable.
func operatorName(kind NodeKind, id int) string {
	var names []string
	switch kind {
	case KindCallMultivariate:
		names = multivariateNames[:]
	case KindComparison:
		names = comparisonNames[:]
	case KindLogic:
		names = logicNames[:]
	case KindCallUnivariate:
		return DefaultUnivariateTable.Name(id)
	}
	if id >= 0 && id < len(names) {
		return names[id]
	}
	return "#" + strconv.Itoa(id)
}

func compare(op int, a, b float64) bool {
	switch op {
	case CmpLessEq:
		return a <= b
	case CmpEq:
		return a == b
	case CmpGreaterEq:
		return a >= b
	case CmpLess:
		return a < b
	default:
		return a > b
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
