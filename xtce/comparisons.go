package xtce

import (
	"fmt"
	"strconv"
)

// Operator is one of the six comparison operators match criteria support.
type Operator string

const (
	OpEQ Operator = "=="
	OpNE Operator = "!="
	OpLT Operator = "<"
	OpLE Operator = "<="
	OpGT Operator = ">"
	OpGE Operator = ">="
)

// ParseOperator accepts both the symbolic and the XTCE-XML mnemonic spelling
// of an operator ("==" and "eq" both parse to OpEQ), since source XML in the
// wild uses either.
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "==", "eq":
		return OpEQ, nil
	case "!=", "neq":
		return OpNE, nil
	case "<", "lt":
		return OpLT, nil
	case "<=", "leq":
		return OpLE, nil
	case ">", "gt":
		return OpGT, nil
	case ">=", "geq":
		return OpGE, nil
	default:
		return "", ValidationErrorf("unrecognized comparison operator %q", s)
	}
}

// MatchCriteria is satisfied by anything that can be evaluated, true or
// false, against the parameters parsed so far in a packet. Comparison,
// Condition, And, Or, and BooleanExpression all implement it, so they nest
// freely inside one another.
type MatchCriteria interface {
	Evaluate(values ValueSource) (bool, error)
}

// Comparison tests a single referenced parameter against a literal value.
type Comparison struct {
	ParameterName string
	Operator      Operator
	RequiredValue interface{}
	// UseCalibrated selects the derived (calibrated) value of the
	// referenced parameter instead of its raw value.
	UseCalibrated bool
}

func (c *Comparison) Evaluate(values ValueSource) (bool, error) {
	raw, derived, ok := values.Value(c.ParameterName)
	if !ok {
		return false, ComparisonErrorf("comparison referenced parameter %q, which has not been parsed yet", c.ParameterName)
	}
	operand := raw
	if c.UseCalibrated {
		operand = derived
	}
	required, err := coerceLike(c.RequiredValue, operand)
	if err != nil {
		return false, ComparisonErrorf("comparison on %q: %v", c.ParameterName, err)
	}
	return compareValues(operand, required, c.Operator)
}

// Condition compares two parameters, or a parameter against a literal, using
// the same left/right shape regardless of which side is the literal.
type Condition struct {
	LeftParameterName string
	LeftUseCalibrated bool

	Operator Operator

	// Exactly one of RightParameterName or RightValue is set.
	RightParameterName string
	RightUseCalibrated bool
	RightValue         interface{}
	RightIsParameter   bool
}

func (c *Condition) Evaluate(values ValueSource) (bool, error) {
	leftRaw, leftDerived, ok := values.Value(c.LeftParameterName)
	if !ok {
		return false, ComparisonErrorf("condition referenced parameter %q, which has not been parsed yet", c.LeftParameterName)
	}
	left := leftRaw
	if c.LeftUseCalibrated {
		left = leftDerived
	}

	var right interface{}
	if c.RightIsParameter {
		rightRaw, rightDerived, ok := values.Value(c.RightParameterName)
		if !ok {
			return false, ComparisonErrorf("condition referenced parameter %q, which has not been parsed yet", c.RightParameterName)
		}
		right = rightRaw
		if c.RightUseCalibrated {
			right = rightDerived
		}
	} else {
		coerced, err := coerceLike(c.RightValue, left)
		if err != nil {
			return false, ComparisonErrorf("condition on %q: %v", c.LeftParameterName, err)
		}
		right = coerced
	}

	return compareValues(left, right, c.Operator)
}

// And is satisfied only if every child criterion is satisfied.
type And struct {
	Criteria []MatchCriteria
}

func (a *And) Evaluate(values ValueSource) (bool, error) {
	for _, c := range a.Criteria {
		ok, err := c.Evaluate(values)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Or is satisfied if any child criterion is satisfied.
type Or struct {
	Criteria []MatchCriteria
}

func (o *Or) Evaluate(values ValueSource) (bool, error) {
	for _, c := range o.Criteria {
		ok, err := c.Evaluate(values)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// BooleanExpression wraps a tree of And/Or/Comparison/Condition nodes. It
// exists mainly so XML round-tripping has a named wrapper to hang onto; And
// and Or nodes can nest directly without it.
type BooleanExpression struct {
	Root MatchCriteria
}

func (b *BooleanExpression) Evaluate(values ValueSource) (bool, error) {
	if b.Root == nil {
		return false, ValidationErrorf("boolean expression has no root node")
	}
	return b.Root.Evaluate(values)
}

// DiscreteLookup pairs a set of match criteria with a value; the first
// DiscreteLookup in a list whose criteria all hold supplies a size, an
// enumeration label's underlying raw value, or similar table-driven result.
type DiscreteLookup struct {
	Criteria []MatchCriteria
	Value    int64
}

// EvaluateDiscreteLookupList returns the Value of the first entry in lookups
// whose Criteria are all satisfied, in declaration order.
func EvaluateDiscreteLookupList(lookups []DiscreteLookup, values ValueSource) (int64, error) {
	for _, lk := range lookups {
		matched := true
		for _, c := range lk.Criteria {
			ok, err := c.Evaluate(values)
			if err != nil {
				return 0, err
			}
			if !ok {
				matched = false
				break
			}
		}
		if matched {
			return lk.Value, nil
		}
	}
	return 0, ComparisonErrorf("no discrete lookup entry matched")
}

// coerceLike converts literal (typically a string or an already-typed value
// produced by a definition loader) to the dynamic type of like, mirroring
// the reference implementation's "coerce the required value to the type of
// the operand being compared" rule.
func coerceLike(literal, like interface{}) (interface{}, error) {
	switch like.(type) {
	case int64:
		return toInt64(literal)
	case uint64:
		return toUint64(literal)
	case float64:
		return toFloat64(literal)
	case bool:
		return toBool(literal)
	case string:
		if s, ok := literal.(string); ok {
			return s, nil
		}
		return fmt.Sprintf("%v", literal), nil
	default:
		return literal, nil
	}
}

func toInt64(v interface{}) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case uint64:
		return int64(t), nil
	case int:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case string:
		n, err := strconv.ParseInt(t, 0, 64)
		if err != nil {
			return 0, ValidationErrorf("cannot coerce %q to integer: %v", t, err)
		}
		return n, nil
	default:
		return 0, ValidationErrorf("cannot coerce %v (%T) to integer", v, v)
	}
}

func toUint64(v interface{}) (uint64, error) {
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		n, err := strconv.ParseUint(t, 0, 64)
		if err != nil {
			return 0, ValidationErrorf("cannot coerce %q to unsigned integer: %v", t, err)
		}
		return n, nil
	default:
		return 0, ValidationErrorf("cannot coerce %v (%T) to unsigned integer", v, v)
	}
}

func toFloat64(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int64:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, ValidationErrorf("cannot coerce %q to float: %v", t, err)
		}
		return f, nil
	default:
		return 0, ValidationErrorf("cannot coerce %v (%T) to float", v, v)
	}
}

func toBool(v interface{}) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(t)
		if err != nil {
			return false, ValidationErrorf("cannot coerce %q to bool: %v", t, err)
		}
		return b, nil
	case int64:
		return t != 0, nil
	case uint64:
		return t != 0, nil
	case float64:
		return t != 0, nil
	default:
		return false, ValidationErrorf("cannot coerce %v (%T) to bool", v, v)
	}
}

// compareValues applies op to a and b, which are assumed to already be of
// the same dynamic type (coerceLike's job).
func compareValues(a, b interface{}, op Operator) (bool, error) {
	switch av := a.(type) {
	case int64:
		bv, ok := b.(int64)
		if !ok {
			return false, ValidationErrorf("type mismatch comparing %T to %T", a, b)
		}
		return numericCompare(float64(av), float64(bv), op)
	case uint64:
		bv, ok := b.(uint64)
		if !ok {
			return false, ValidationErrorf("type mismatch comparing %T to %T", a, b)
		}
		return numericCompare(float64(av), float64(bv), op)
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return false, ValidationErrorf("type mismatch comparing %T to %T", a, b)
		}
		return numericCompare(av, bv, op)
	case string:
		bv, ok := b.(string)
		if !ok {
			return false, ValidationErrorf("type mismatch comparing %T to %T", a, b)
		}
		switch op {
		case OpEQ:
			return av == bv, nil
		case OpNE:
			return av != bv, nil
		case OpLT:
			return av < bv, nil
		case OpLE:
			return av <= bv, nil
		case OpGT:
			return av > bv, nil
		case OpGE:
			return av >= bv, nil
		}
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return false, ValidationErrorf("type mismatch comparing %T to %T", a, b)
		}
		switch op {
		case OpEQ:
			return av == bv, nil
		case OpNE:
			return av != bv, nil
		default:
			return false, ValidationErrorf("operator %q is not defined for booleans", op)
		}
	}
	return false, ValidationErrorf("unsupported comparison operand type %T", a)
}

func numericCompare(a, b float64, op Operator) (bool, error) {
	switch op {
	case OpEQ:
		return a == b, nil
	case OpNE:
		return a != b, nil
	case OpLT:
		return a < b, nil
	case OpLE:
		return a <= b, nil
	case OpGT:
		return a > b, nil
	case OpGE:
		return a >= b, nil
	default:
		return false, ValidationErrorf("unrecognized operator %q", op)
	}
}
