package query

import (
	"strconv"
	"strings"

	"conference-webapp/errors"
	"conference-webapp/model"
)

// Plan is a compiled conference query: AND-ed conditions plus sort orders.
type Plan struct {
	Kind string
	// InequalityProperty is the single property used with a non-equality
	// operator, or empty.
	InequalityProperty string
	Conditions         []Condition
	Orders             []Order
}

// Compile validates specs and builds a plan ordered by the inequality
// property (when present) and then by name. It does not execute anything.
func Compile(specs []FilterSpec) (Plan, error) {
	plan := Plan{Kind: model.KindConference}

	for _, spec := range specs {
		field, okField := ParseField(spec.Field)
		op, okOp := ParseOperator(spec.Operator)
		if !okField || !okOp {
			return Plan{}, errors.BadRequest("invalid field or operator: %q %q", spec.Field, spec.Operator)
		}

		if op.IsInequality() {
			if plan.InequalityProperty != "" && plan.InequalityProperty != field.Property() {
				return Plan{}, errors.BadRequest("inequality filter is allowed on only one field")
			}
			plan.InequalityProperty = field.Property()
		}

		cond := Condition{Property: field.Property(), Op: op, Value: spec.Value}
		if field.Numeric() {
			n, err := strconv.Atoi(strings.TrimSpace(spec.Value))
			if err != nil {
				return Plan{}, errors.BadRequest("value %q for %s must be an integer", spec.Value, spec.Field)
			}
			cond.Value = n
		}
		plan.Conditions = append(plan.Conditions, cond)
	}

	if plan.InequalityProperty != "" {
		plan.Orders = append(plan.Orders, Order{Property: plan.InequalityProperty})
	}
	plan.Orders = append(plan.Orders, Order{Property: "name"})
	return plan, nil
}
