package store

import "gorm.io/gorm/clause"

// Filter is a single column predicate. Columns always come from code, never
// from request input.
type Filter struct {
	Column string
	Op     Op
	Value  interface{}
}

// Op is a comparison operator supported by Filter.
type Op string

const (
	OpEq Op = "eq"
	OpLt Op = "lt"
	OpIn Op = "in"
)

// Eq matches rows where column equals value.
func Eq(column string, value interface{}) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

// Lt matches rows where column is strictly less than value.
func Lt(column string, value interface{}) Filter {
	return Filter{Column: column, Op: OpLt, Value: value}
}

// In matches rows where column is one of values.
func In(column string, values ...interface{}) Filter {
	return Filter{Column: column, Op: OpIn, Value: values}
}

func (f Filter) expression() clause.Expression {
	col := clause.Column{Name: f.Column}
	switch f.Op {
	case OpLt:
		return clause.Lt{Column: col, Value: f.Value}
	case OpIn:
		values, _ := f.Value.([]interface{})
		return clause.IN{Column: col, Values: values}
	default:
		return clause.Eq{Column: col, Value: f.Value}
	}
}

// Query describes a filtered read or write against one table.
type Query struct {
	Table    string
	Filters  []Filter
	Columns  []string
	OrderBy  string
	Desc     bool
	Max      int
	Distinct bool
}

// From starts a query on table.
func From(table string) Query {
	return Query{Table: table}
}

// Where returns a copy of q with filters appended.
func (q Query) Where(filters ...Filter) Query {
	out := q
	out.Filters = append(append([]Filter(nil), q.Filters...), filters...)
	return out
}

// Eq is shorthand for Where(Eq(column, value)).
func (q Query) Eq(column string, value interface{}) Query {
	return q.Where(Eq(column, value))
}

// Select restricts the returned columns.
func (q Query) Select(columns ...string) Query {
	q.Columns = columns
	return q
}

// Order sorts by column.
func (q Query) Order(column string, desc bool) Query {
	q.OrderBy = column
	q.Desc = desc
	return q
}

// Limit caps the number of rows Select returns. Writes and counts ignore it.
func (q Query) Limit(n int) Query {
	q.Max = n
	return q
}

// Unique marks the selected columns as DISTINCT; with Count it counts
// distinct values.
func (q Query) Unique() Query {
	q.Distinct = true
	return q
}
