// Package sql implements the query AST (§3.1), the expression builders
// (§4.1), the function registry (§4.2), and the per-dialect compiler
// (§4.3) of the core. Every type below is a value: construction never
// mutates an existing node, and a compiled AST can be reused across
// multiple compile calls against different dialects.
package sql

// Op is a binary comparison operator used by a Binary expression.
type Op string

// Comparison operators.
const (
	OpEQ  Op = "="
	OpNEQ Op = "<>"
	OpLT  Op = "<"
	OpLTE Op = "<="
	OpGT  Op = ">"
	OpGTE Op = ">="
)

// LogicalOp combines two expressions.
type LogicalOp string

const (
	LogicalAnd LogicalOp = "AND"
	LogicalOr  LogicalOp = "OR"
)

// JoinKind identifies the kind of a Join.
type JoinKind string

const (
	JoinInner JoinKind = "INNER"
	JoinLeft  JoinKind = "LEFT"
	JoinRight JoinKind = "RIGHT"
	JoinFull  JoinKind = "FULL"
	JoinCross JoinKind = "CROSS"
)

// Direction is an ORDER BY sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// NullsOrder places NULLs first or last in an ORDER BY term.
type NullsOrder string

const (
	NullsFirst NullsOrder = "FIRST"
	NullsLast  NullsOrder = "LAST"
)

// SetOperator is a set-operation keyword combining two SELECTs.
type SetOperator string

const (
	Union        SetOperator = "UNION"
	UnionAll     SetOperator = "UNION ALL"
	Intersect    SetOperator = "INTERSECT"
	Except       SetOperator = "EXCEPT"
)

// Materialization hints a CTE's materialization strategy.
type Materialization string

const (
	Materialized    Materialization = "MATERIALIZED"
	NotMaterialized Materialization = "NOT MATERIALIZED"
)

// ParamDirection is the direction of a ProcedureCall parameter.
type ParamDirection string

const (
	DirIn    ParamDirection = "IN"
	DirOut   ParamDirection = "OUT"
	DirInOut ParamDirection = "INOUT"
)

// TableRef names a table, optionally schema-qualified and aliased.
type TableRef struct {
	Name   string
	Schema string
	Alias  string
}

// TableSource is the variant of things a query can read FROM: a plain
// table reference, a derived subquery, or a table-valued function call.
type TableSource interface{ isTableSource() }

func (TableRef) isTableSource() {}

// DerivedTable is a subquery used as a FROM/JOIN source.
type DerivedTable struct {
	Query         *SelectQuery
	Alias         string
	ColumnAliases []string
}

func (DerivedTable) isTableSource() {}

// FunctionTable is a table-valued function call used as a FROM/JOIN
// source (e.g. json_each, generate_series, OPENJSON, pragma_table_info).
type FunctionTable struct {
	Schema          string
	Name            string
	Args            []Operand
	Lateral         bool
	WithOrdinality  bool
	Alias           string
	ColumnAliases   []string
	// Key is the canonical function-registry key used to resolve a
	// dialect-specific renderer; empty falls through to identifier-based
	// rendering of Name.
	Key string
}

func (FunctionTable) isTableSource() {}

// Operand is a single value slot in an expression: a column reference, a
// literal, a bound parameter, a function call, raw SQL, or a subquery.
type Operand interface{ isOperand() }

// Column references a column, optionally table-qualified and aliased.
type Column struct {
	Table string
	Name  string
	Alias string
}

func (Column) isOperand() {}

// Literal is a compile-time-known scalar value. Value is one of nil,
// bool, int64, float64, string, or []byte.
type Literal struct{ Value any }

func (Literal) isOperand() {}

// Parameter is an already-bound placeholder at a fixed position. It is
// rarely constructed directly by callers; the compiler extracts Literal
// operands into parameters itself. Exposed for callers re-using an
// already-parameterized fragment (e.g. introspection queries built once
// and compiled per connection).
type Parameter struct{ Position int }

func (Parameter) isOperand() {}

// Function is a scalar/aggregate/window function call.
type Function struct {
	// Key is the canonical, upper-case function-registry key (e.g.
	// "LOG_BASE", "GROUP_CONCAT", "DATE_TRUNC").
	Key  string
	Args []Operand

	// OrderBy and Separator are populated for ordered aggregates
	// (GROUP_CONCAT / STRING_AGG); nil/zero otherwise.
	OrderBy   []OrderBy
	Separator Operand

	// Distinct requests DISTINCT semantics inside the aggregate, when the
	// dialect/function supports it.
	Distinct bool
}

func (Function) isOperand() {}

// Raw is inlined verbatim into the compiled SQL text; the caller is
// responsible for its correctness and safety. No parameters are
// extracted from a Raw node even if its text looks like a literal.
type Raw struct{ Text string }

func (Raw) isOperand() {}

// Subquery embeds a SelectQuery as a scalar/row operand (e.g. inside an
// IN list, a SELECT list, or a comparison).
type Subquery struct{ Query *SelectQuery }

func (Subquery) isOperand() {}

// Expression is the variant of predicates usable in WHERE/HAVING/JOIN
// conditions.
type Expression interface{ isExpression() }

// Binary is a simple left-op-right comparison.
type Binary struct {
	Left  Operand
	Op    Op
	Right Operand
}

func (Binary) isExpression() {}

// Logical combines two expressions with AND/OR.
type Logical struct {
	Op    LogicalOp
	Left  Expression
	Right Expression
}

func (Logical) isExpression() {}

// Unary negates an expression (NOT expr).
type Unary struct{ Expr Expression }

func (Unary) isExpression() {}

// InList tests operand membership in a fixed value list.
type InList struct {
	Operand Operand
	Values  []Operand
	Negate  bool
}

func (InList) isExpression() {}

// Like is a pattern match, optionally negated and/or case-insensitive.
type Like struct {
	Operand         Operand
	Pattern         Operand
	Negate          bool
	CaseInsensitive bool
}

func (Like) isExpression() {}

// IsNull tests an operand for (non-)nullness.
type IsNull struct {
	Operand Operand
	Negate  bool
}

func (IsNull) isExpression() {}

// Between tests operand range membership, inclusive on both ends.
type Between struct {
	Operand  Operand
	Low, High Operand
}

func (Between) isExpression() {}

// Exists tests subquery non-emptiness.
type Exists struct {
	Subquery *SelectQuery
	Negate   bool
}

func (Exists) isExpression() {}

// Join attaches a table source to a query with a join kind and
// condition (Condition is nil/ignored for CROSS).
type Join struct {
	Kind          JoinKind
	Table         TableSource
	Condition     Expression
	RelationAlias string
}

// OrderBy is a single ORDER BY term.
type OrderBy struct {
	Term      Operand
	Direction Direction
	Nulls     NullsOrder // zero value means "dialect default"
	Collation string
}

// SetOp is one operand of a set operation (UNION/INTERSECT/EXCEPT),
// applied to the preceding query in SelectQuery.SetOps order.
type SetOp struct {
	Operator SetOperator
	Query    *SelectQuery
}

// Cte is a single WITH entry.
type Cte struct {
	Name            string
	ColumnAliases   []string
	Query           *SelectQuery
	Recursive       bool
	Materialization Materialization // zero value means "unspecified"
}

// SelectQuery is the AST for a SELECT statement.
type SelectQuery struct {
	From     TableSource
	Columns  []Column
	Joins    []Join
	Where    Expression
	GroupBy  []Operand
	Having   Expression
	OrderBy  []OrderBy
	Limit    *int64
	Offset   *int64
	Distinct bool
	Ctes     []Cte
	SetOps   []SetOp
}

// InsertSource is the variant of where INSERT rows come from: an inline
// VALUES list, or a nested SELECT.
type InsertSource interface{ isInsertSource() }

// InsertValues is a literal VALUES(...) row list.
type InsertValues struct{ Rows [][]Operand }

func (InsertValues) isInsertSource() {}

// InsertSelect populates rows from the result of a SELECT.
type InsertSelect struct{ Query *SelectQuery }

func (InsertSelect) isInsertSource() {}

// InsertQuery is the AST for an INSERT statement.
type InsertQuery struct {
	Into      TableRef
	Columns   []Column
	Source    InsertSource
	Returning []Column
}

// Assignment is a single `column = value` pair in an UPDATE's SET list.
type Assignment struct {
	Column Column
	Value  Operand
}

// UpdateQuery is the AST for an UPDATE statement.
type UpdateQuery struct {
	Table     TableRef
	Set       []Assignment
	From      TableSource
	Joins     []Join
	Where     Expression
	Returning []Column
}

// DeleteQuery is the AST for a DELETE statement.
type DeleteQuery struct {
	From      TableRef
	Using     TableSource
	Joins     []Join
	Where     Expression
	Returning []Column
}

// ProcedureParam is a single CALL/EXEC parameter.
type ProcedureParam struct {
	Name      string
	Direction ParamDirection
	Value     Operand
	// DBType is required when Direction is DirOut/DirInOut on dialects
	// that must declare the output variable's type up front (MSSQL).
	DBType string
}

// ProcedureRef names a stored procedure/function, optionally schema-qualified.
type ProcedureRef struct {
	Name   string
	Schema string
}

// ProcedureCall is the AST for a CALL/EXEC statement.
type ProcedureCall struct {
	Ref    ProcedureRef
	Params []ProcedureParam
}
