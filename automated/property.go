package automated

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// Constraint tests one attribute value. present is false when the attribute
// is not set at all.
type Constraint interface {
	Name() string
	Check(value any, present bool) (bool, error)
}

type constraint struct {
	name  string
	check func(value any, present bool) (bool, error)
}

func (c constraint) Name() string { return c.name }

func (c constraint) Check(value any, present bool) (bool, error) {
	return c.check(value, present)
}

// IsEqual passes when the attribute equals expected. Numbers compare by
// value whatever their Go type.
func IsEqual(expected any) Constraint {
	return constraint{name: "is_equal", check: func(value any, present bool) (bool, error) {
		return present && equalValues(value, expected), nil
	}}
}

func IsNotEqual(expected any) Constraint {
	return constraint{name: "is_not_equal", check: func(value any, present bool) (bool, error) {
		return !present || !equalValues(value, expected), nil
	}}
}

// IsNull passes when the attribute is unset or nil.
func IsNull() Constraint {
	return constraint{name: "is_null", check: func(value any, present bool) (bool, error) {
		return !present || isNil(value), nil
	}}
}

func IsNotNull() Constraint {
	return constraint{name: "is_not_null", check: func(value any, present bool) (bool, error) {
		return present && !isNil(value), nil
	}}
}

// IsEmpty passes for unset, nil, zero values and empty collections.
func IsEmpty() Constraint {
	return constraint{name: "is_empty", check: func(value any, present bool) (bool, error) {
		return !present || isEmpty(value), nil
	}}
}

func IsNotEmpty() Constraint {
	return constraint{name: "is_not_empty", check: func(value any, present bool) (bool, error) {
		return present && !isEmpty(value), nil
	}}
}

// IsGreater passes when the attribute is strictly greater than bound.
func IsGreater(bound any) Constraint {
	return constraint{name: "is_greater", check: func(value any, present bool) (bool, error) {
		if !present {
			return false, nil
		}
		cmp, err := compareValues(value, bound)
		return err == nil && cmp > 0, err
	}}
}

// IsLower passes when the attribute is strictly lower than bound.
func IsLower(bound any) Constraint {
	return constraint{name: "is_lower", check: func(value any, present bool) (bool, error) {
		if !present {
			return false, nil
		}
		cmp, err := compareValues(value, bound)
		return err == nil && cmp < 0, err
	}}
}

// ConstraintByName builds the constraint a manifest refers to.
func ConstraintByName(name string, value any) (Constraint, error) {
	switch strings.ToLower(name) {
	case "is_equal", "equal":
		return IsEqual(value), nil
	case "is_not_equal", "not_equal":
		return IsNotEqual(value), nil
	case "is_null", "null":
		return IsNull(), nil
	case "is_not_null", "not_null":
		return IsNotNull(), nil
	case "is_empty", "empty":
		return IsEmpty(), nil
	case "is_not_empty", "not_empty":
		return IsNotEmpty(), nil
	case "is_greater", "greater":
		return IsGreater(value), nil
	case "is_lower", "lower":
		return IsLower(value), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownConstraint, name)
	}
}

// Property asserts constraints on one proxy attribute. Name may be a dotted
// path into nested maps. Every constraint must pass.
type Property struct {
	State       string
	Name        string
	Constraints []Constraint
}

// NewProperty declares that state is enabled when attribute name satisfies
// every constraint.
func NewProperty(state, name string, constraints ...Constraint) *Property {
	return &Property{State: state, Name: name, Constraints: constraints}
}

func (p *Property) StateName() string { return p.State }

func (p *Property) Engine() string { return "property" }

func (p *Property) String() string {
	names := make([]string, len(p.Constraints))
	for i, c := range p.Constraints {
		names[i] = c.Name()
	}
	return p.Name + " " + strings.Join(names, ",")
}

func (p *Property) Check(_ context.Context, subject Subject) (bool, error) {
	value, present := lookupPath(subject.Attributes(), p.Name)
	for _, c := range p.Constraints {
		if c == nil {
			continue
		}
		ok, err := c.Check(value, present)
		if err != nil {
			return false, fmt.Errorf("automated: property %q %s: %w", p.Name, c.Name(), err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func lookupPath(attributes map[string]any, path string) (any, bool) {
	if value, ok := attributes[path]; ok {
		return value, true
	}
	var current any = attributes
	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func isEmpty(value any) bool {
	if isNil(value) {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.String, reflect.Chan:
		return rv.Len() == 0
	}
	return rv.IsZero()
}

func equalValues(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

func compareValues(a, b any) (int, error) {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1, nil
			case fa > fb:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	sa, aok := a.(string)
	sb, bok := b.(string)
	if aok && bok {
		return strings.Compare(sa, sb), nil
	}
	return 0, fmt.Errorf("cannot compare %T with %T", a, b)
}

func toFloat(value any) (float64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
