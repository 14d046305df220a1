// Package query compiles caller-supplied conference filters into a sorted,
// validated query plan.
package query

// Field is one of the conference properties a caller may filter on.
type Field int

const (
	FieldCity Field = iota + 1
	FieldTopic
	FieldMonth
	FieldMaxAttendees
)

var fieldTokens = map[string]Field{
	"CITY":          FieldCity,
	"TOPIC":         FieldTopic,
	"MONTH":         FieldMonth,
	"MAX_ATTENDEES": FieldMaxAttendees,
}

func ParseField(token string) (Field, bool) {
	f, ok := fieldTokens[token]
	return f, ok
}

// Property is the stored property name the field filters.
func (f Field) Property() string {
	switch f {
	case FieldCity:
		return "city"
	case FieldTopic:
		return "topics"
	case FieldMonth:
		return "month"
	case FieldMaxAttendees:
		return "maxAttendees"
	}
	return ""
}

// Numeric fields take integer values.
func (f Field) Numeric() bool {
	return f == FieldMonth || f == FieldMaxAttendees
}

type Operator int

const (
	OpEQ Operator = iota + 1
	OpGT
	OpGTEQ
	OpLT
	OpLTEQ
	OpNE
)

var operatorTokens = map[string]Operator{
	"EQ": OpEQ, "=": OpEQ,
	"GT": OpGT, ">": OpGT,
	"GTEQ": OpGTEQ, ">=": OpGTEQ,
	"LT": OpLT, "<": OpLT,
	"LTEQ": OpLTEQ, "<=": OpLTEQ,
	"NE": OpNE, "!=": OpNE,
}

func ParseOperator(token string) (Operator, bool) {
	op, ok := operatorTokens[token]
	return op, ok
}

func (o Operator) String() string {
	switch o {
	case OpEQ:
		return "="
	case OpGT:
		return ">"
	case OpGTEQ:
		return ">="
	case OpLT:
		return "<"
	case OpLTEQ:
		return "<="
	case OpNE:
		return "!="
	}
	return "?"
}

// IsInequality reports whether the operator constrains the primary sort key.
func (o Operator) IsInequality() bool {
	return o != OpEQ
}

// FilterSpec is one raw (field, operator, value) triple from a caller.
type FilterSpec struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// Condition is a validated filter against a stored property. Value is a
// string or an int.
type Condition struct {
	Property string
	Op       Operator
	Value    any
}

type Order struct {
	Property   string
	Descending bool
}
