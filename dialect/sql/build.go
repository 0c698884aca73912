package sql

import (
	"fmt"

	"github.com/sqlcraft/core/dialect"
)

// ColumnDescriptor is the minimal shape a schema column descriptor must
// have to be coerced into a Column operand by ToOperand/ColumnOperand.
// dialect/sql/schema.BoundColumn satisfies it without this package
// importing dialect/sql/schema (which imports this package).
type ColumnDescriptor interface {
	TableName() string
	ColumnName() string
}

// Table builds a bare TableRef.
func Table(name string) TableRef { return TableRef{Name: name} }

// As returns a copy of t aliased to alias.
func (t TableRef) As(alias string) TableRef {
	t.Alias = alias
	return t
}

// InSchema returns a copy of t qualified with the given schema.
func (t TableRef) InSchema(schema string) TableRef {
	t.Schema = schema
	return t
}

// ColumnOf builds a Column operand referencing table.name.
func ColumnOf(table, name string) Column { return Column{Table: table, Name: name} }

// Col builds an unqualified Column operand.
func Col(name string) Column { return Column{Name: name} }

// As returns a copy of c aliased to alias.
func (c Column) As(alias string) Column {
	c.Alias = alias
	return c
}

// Lit wraps a compile-time-known scalar as a Literal operand.
func Lit(v any) Literal { return Literal{Value: v} }

// RawOperand inlines text verbatim; the caller is responsible for its
// safety.
func RawOperand(text string) Raw { return Raw{Text: text} }

// SubqueryOperand embeds q as a scalar/row operand.
func SubqueryOperand(q *SelectQuery) Subquery { return Subquery{Query: q} }

// ColumnOperand coerces a schema column descriptor into a Column operand,
// per the §4.1 coercion rule for ColumnDef inputs.
func ColumnOperand(c ColumnDescriptor) Column {
	return Column{Table: c.TableName(), Name: c.ColumnName()}
}

// ToOperand coerces a raw Go value, an existing Operand, or a
// ColumnDescriptor into an Operand, per §4.1/§9's "toOperand(input)"
// design note. Strings are always wrapped as string literals — they are
// never parsed as SQL.
func ToOperand(v any) Operand {
	switch t := v.(type) {
	case Operand:
		return t
	case ColumnDescriptor:
		return ColumnOperand(t)
	default:
		return Literal{Value: v}
	}
}

func toOperands(vs []any) []Operand {
	out := make([]Operand, len(vs))
	for i, v := range vs {
		out[i] = ToOperand(v)
	}
	return out
}

// Eq builds an `a = b` expression.
func Eq(a, b any) Expression { return Binary{Left: ToOperand(a), Op: OpEQ, Right: ToOperand(b)} }

// Neq builds an `a <> b` expression.
func Neq(a, b any) Expression { return Binary{Left: ToOperand(a), Op: OpNEQ, Right: ToOperand(b)} }

// Lt builds an `a < b` expression.
func Lt(a, b any) Expression { return Binary{Left: ToOperand(a), Op: OpLT, Right: ToOperand(b)} }

// Lte builds an `a <= b` expression.
func Lte(a, b any) Expression { return Binary{Left: ToOperand(a), Op: OpLTE, Right: ToOperand(b)} }

// Gt builds an `a > b` expression.
func Gt(a, b any) Expression { return Binary{Left: ToOperand(a), Op: OpGT, Right: ToOperand(b)} }

// Gte builds an `a >= b` expression.
func Gte(a, b any) Expression { return Binary{Left: ToOperand(a), Op: OpGTE, Right: ToOperand(b)} }

// And combines two or more expressions with AND. Fails with
// InvalidArgument if fewer than two are given.
func And(exprs ...Expression) (Expression, error) {
	if len(exprs) < 2 {
		return nil, dialect.NewError(dialect.InvalidArgument, "and", errTooFewOperands("and", 2, len(exprs)))
	}
	out := exprs[0]
	for _, e := range exprs[1:] {
		out = Logical{Op: LogicalAnd, Left: out, Right: e}
	}
	return out, nil
}

// Or combines two or more expressions with OR. Fails with
// InvalidArgument if fewer than two are given.
func Or(exprs ...Expression) (Expression, error) {
	if len(exprs) < 2 {
		return nil, dialect.NewError(dialect.InvalidArgument, "or", errTooFewOperands("or", 2, len(exprs)))
	}
	out := exprs[0]
	for _, e := range exprs[1:] {
		out = Logical{Op: LogicalOr, Left: out, Right: e}
	}
	return out, nil
}

// Not negates an expression.
func Not(e Expression) Expression { return Unary{Expr: e} }

// In builds a membership test. An empty vs list is not an error: per
// §4.1/B1 it is a deliberate rewrite to a constant-false expression,
// recognized by the compiler via len(Values) == 0.
func In(operand any, vs ...any) Expression {
	return InList{Operand: ToOperand(operand), Values: toOperands(vs)}
}

// NotIn is the negated form of In.
func NotIn(operand any, vs ...any) Expression {
	return InList{Operand: ToOperand(operand), Values: toOperands(vs), Negate: true}
}

// LikeExpr builds a LIKE predicate.
func LikeExpr(operand any, pattern any) Expression {
	return Like{Operand: ToOperand(operand), Pattern: ToOperand(pattern)}
}

// NotLike builds a negated LIKE predicate.
func NotLike(operand any, pattern any) Expression {
	return Like{Operand: ToOperand(operand), Pattern: ToOperand(pattern), Negate: true}
}

// ILike builds a case-insensitive LIKE predicate.
func ILike(operand any, pattern any) Expression {
	return Like{Operand: ToOperand(operand), Pattern: ToOperand(pattern), CaseInsensitive: true}
}

// IsNullExpr tests an operand for NULL.
func IsNullExpr(operand any) Expression { return IsNull{Operand: ToOperand(operand)} }

// IsNotNull tests an operand for non-NULL.
func IsNotNull(operand any) Expression { return IsNull{Operand: ToOperand(operand), Negate: true} }

// BetweenExpr tests range membership, inclusive.
func BetweenExpr(operand, low, high any) Expression {
	return Between{Operand: ToOperand(operand), Low: ToOperand(low), High: ToOperand(high)}
}

// ExistsExpr tests subquery non-emptiness.
func ExistsExpr(q *SelectQuery) Expression { return Exists{Subquery: q} }

// NotExists tests subquery emptiness.
func NotExists(q *SelectQuery) Expression { return Exists{Subquery: q, Negate: true} }

// Fn builds a function-call operand for the given registry key.
func Fn(key string, args ...any) Function {
	return Function{Key: key, Args: toOperands(args)}
}

// GroupConcat builds an ordered, separated aggregate call, dispatched by
// the registry to GROUP_CONCAT/STRING_AGG per dialect (§4.2).
func GroupConcat(operand any, sep any, order ...OrderBy) Function {
	return Function{
		Key:       "GROUP_CONCAT",
		Args:      []Operand{ToOperand(operand)},
		Separator: ToOperand(sep),
		OrderBy:   order,
	}
}

func errTooFewOperands(op string, want, got int) error {
	return fmt.Errorf("%s requires at least %d operands, got %d", op, want, got)
}
