package sql

import "strings"

// StringField is a string-valued field that provides type-safe predicate
// methods, each returning an Expression ready for Where/On.
//
// Usage:
//
//	var Email = sql.StringField("email")
//	q.Where = Email.Contains("@gmail")
type StringField string

// Name returns the field name.
func (f StringField) Name() string { return string(f) }

func (f StringField) EQ(v string) Expression  { return Eq(Col(string(f)), v) }
func (f StringField) NEQ(v string) Expression { return Neq(Col(string(f)), v) }
func (f StringField) GT(v string) Expression  { return Gt(Col(string(f)), v) }
func (f StringField) GTE(v string) Expression { return Gte(Col(string(f)), v) }
func (f StringField) LT(v string) Expression  { return Lt(Col(string(f)), v) }
func (f StringField) LTE(v string) Expression { return Lte(Col(string(f)), v) }

func (f StringField) In(vs ...string) Expression    { return In(Col(string(f)), anySlice(vs)...) }
func (f StringField) NotIn(vs ...string) Expression { return NotIn(Col(string(f)), anySlice(vs)...) }

// Contains matches values containing v anywhere.
func (f StringField) Contains(v string) Expression {
	return LikeExpr(Col(string(f)), "%"+escapeLikePattern(v)+"%")
}

// ContainsFold is Contains using a case-insensitive LIKE (ILIKE on
// Postgres, UPPER()-folded elsewhere — see sql.Dialect.compileLike).
func (f StringField) ContainsFold(v string) Expression {
	return ILike(Col(string(f)), "%"+escapeLikePattern(v)+"%")
}

// HasPrefix matches values starting with v.
func (f StringField) HasPrefix(v string) Expression {
	return LikeExpr(Col(string(f)), escapeLikePattern(v)+"%")
}

// HasSuffix matches values ending with v.
func (f StringField) HasSuffix(v string) Expression {
	return LikeExpr(Col(string(f)), "%"+escapeLikePattern(v))
}

// EqualFold matches v case-insensitively.
func (f StringField) EqualFold(v string) Expression {
	return ILike(Col(string(f)), escapeLikePattern(v))
}

func (f StringField) IsNull() Expression  { return IsNullExpr(Col(string(f))) }
func (f StringField) NotNull() Expression { return IsNotNull(Col(string(f))) }

// escapeLikePattern escapes LIKE metacharacters in a literal substring
// before it is embedded inside a wildcard pattern.
func escapeLikePattern(v string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return r.Replace(v)
}

func anySlice[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

// OrderedField is a generic field over any ordered/comparable Go type,
// covering int/int64/float64/bool/time.Time/uuid.UUID/enum string
// subtypes and anything else comparable with =, <>, <, <=, >, >=.
type OrderedField[T any] string

// Name returns the field name.
func (f OrderedField[T]) Name() string { return string(f) }

func (f OrderedField[T]) EQ(v T) Expression  { return Eq(Col(string(f)), v) }
func (f OrderedField[T]) NEQ(v T) Expression { return Neq(Col(string(f)), v) }
func (f OrderedField[T]) GT(v T) Expression  { return Gt(Col(string(f)), v) }
func (f OrderedField[T]) GTE(v T) Expression { return Gte(Col(string(f)), v) }
func (f OrderedField[T]) LT(v T) Expression  { return Lt(Col(string(f)), v) }
func (f OrderedField[T]) LTE(v T) Expression { return Lte(Col(string(f)), v) }

func (f OrderedField[T]) In(vs ...T) Expression    { return In(Col(string(f)), anySlice(vs)...) }
func (f OrderedField[T]) NotIn(vs ...T) Expression { return NotIn(Col(string(f)), anySlice(vs)...) }

func (f OrderedField[T]) IsNull() Expression  { return IsNullExpr(Col(string(f))) }
func (f OrderedField[T]) NotNull() Expression { return IsNotNull(Col(string(f))) }

// IntField, Int64Field, Float64Field, BoolField, TimeField, UUIDField and
// EnumField are the concrete instantiations generated code is expected to
// use; all share OrderedField's method set.
type (
	IntField[T ~int]         = OrderedField[T]
	Int64Field[T ~int64]     = OrderedField[T]
	Float64Field[T ~float64] = OrderedField[T]
	BoolField                = OrderedField[bool]
	TimeField[T any]         = OrderedField[T]
	UUIDField[T any]         = OrderedField[T]
	EnumField[T ~string]     = OrderedField[T]
	OtherField[T any]        = OrderedField[T]
)
