package query

import (
	"testing"

	"conference-webapp/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		description    string
		filters        []FilterSpec
		expectedError  bool
		expectedOrders []string
		expectedConds  int
	}{
		{
			description:    "no filters sorts by name",
			expectedOrders: []string{"name"},
		},
		{
			description: "equality and one inequality",
			filters: []FilterSpec{
				{Field: "CITY", Operator: "EQ", Value: "Paris"},
				{Field: "MAX_ATTENDEES", Operator: "GT", Value: "20"},
			},
			expectedOrders: []string{"maxAttendees", "name"},
			expectedConds:  2,
		},
		{
			description: "two inequalities on the same field",
			filters: []FilterSpec{
				{Field: "MONTH", Operator: "GTEQ", Value: "3"},
				{Field: "MONTH", Operator: "<", Value: "9"},
			},
			expectedOrders: []string{"month", "name"},
			expectedConds:  2,
		},
		{
			description: "inequalities on two fields",
			filters: []FilterSpec{
				{Field: "CITY", Operator: "GT", Value: "P"},
				{Field: "MONTH", Operator: "LT", Value: "6"},
			},
			expectedError: true,
		},
		{
			description:   "unknown field",
			filters:       []FilterSpec{{Field: "COUNTRY", Operator: "EQ", Value: "FR"}},
			expectedError: true,
		},
		{
			description:   "unknown operator",
			filters:       []FilterSpec{{Field: "CITY", Operator: "LIKE", Value: "P%"}},
			expectedError: true,
		},
		{
			description:   "non integer month",
			filters:       []FilterSpec{{Field: "MONTH", Operator: "EQ", Value: "June"}},
			expectedError: true,
		},
	}

	for _, test := range tests {
		plan, err := Compile(test.filters)
		if test.expectedError {
			assert.Truef(t, errors.Is(err, errors.KindBadRequest), test.description)
			continue
		}
		require.NoErrorf(t, err, test.description)

		var orders []string
		for _, o := range plan.Orders {
			orders = append(orders, o.Property)
		}
		assert.Equalf(t, test.expectedOrders, orders, test.description)
		assert.Lenf(t, plan.Conditions, test.expectedConds, test.description)
	}
}

func TestCompileCoercesNumbers(t *testing.T) {
	plan, err := Compile([]FilterSpec{{Field: "MAX_ATTENDEES", Operator: ">", Value: " 20 "}})
	require.NoError(t, err)
	require.Len(t, plan.Conditions, 1)
	assert.Equal(t, Condition{Property: "maxAttendees", Op: OpGT, Value: 20}, plan.Conditions[0])
	assert.Equal(t, "maxAttendees", plan.InequalityProperty)
}

var (
	fields    = []string{"CITY", "TOPIC", "MONTH", "MAX_ATTENDEES"}
	operators = []string{"EQ", "GT", "GTEQ", "LT", "LTEQ", "NE"}
)

func TestCompileInequalityRule(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 6).Draw(t, "n")
		specs := make([]FilterSpec, n)
		inequalityFields := map[string]bool{}
		for i := range specs {
			f := rapid.SampledFrom(fields).Draw(t, "field")
			op := rapid.SampledFrom(operators).Draw(t, "op")
			specs[i] = FilterSpec{Field: f, Operator: op, Value: "5"}
			if op != "EQ" {
				inequalityFields[f] = true
			}
		}

		plan, err := Compile(specs)
		if len(inequalityFields) > 1 {
			if !errors.Is(err, errors.KindBadRequest) {
				t.Fatalf("expected rejection for %v, got %v", specs, err)
			}
			return
		}
		if err != nil {
			t.Fatalf("compile %v: %v", specs, err)
		}
		if len(plan.Conditions) != n {
			t.Fatalf("got %d conditions, want %d", len(plan.Conditions), n)
		}
		last := plan.Orders[len(plan.Orders)-1]
		if last.Property != "name" {
			t.Fatalf("last order is %q, want name", last.Property)
		}
		if len(inequalityFields) == 1 && plan.Orders[0].Property != plan.InequalityProperty {
			t.Fatalf("first order %q, want inequality property %q", plan.Orders[0].Property, plan.InequalityProperty)
		}
	})
}
