package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sqlcraft/core/dialect"
)

// Compiled is the {sql, params} pair every compile* operation produces.
// Warnings carries advisory messages about lossy renderings (e.g. a
// dialect that silently drops an ordered aggregate's ORDER BY) that
// don't rise to the level of an error.
type Compiled struct {
	SQL      string
	Params   []any
	Warnings []string
}

// paginateFunc renders the pagination clause for a SELECT, given whether
// an ORDER BY is already present, per the §4.3 pagination strategy.
type paginateFunc func(sb *strings.Builder, ctx *compilerContext, hasOrderBy bool, limit, offset *int64)

// returningFunc renders a RETURNING/OUTPUT clause. suffix is appended at
// the very end of the statement (Postgres/SQLite RETURNING); output is
// inserted between the table name and the VALUES/WHERE clause (MSSQL
// OUTPUT INSERTED.*). At most one of suffix/output is non-empty; both
// are empty when cols is empty.
// MySQL's strategy always returns an UnsupportedFeature error when cols
// is non-empty.
type returningFunc func(ctx *compilerContext, cols []Column) (suffix, output string, err error)

// Dialect is the single capability every target SQL flavor implements,
// per the §9 design note replacing an abstract base-plus-subclass
// hierarchy with "a single Dialect capability... shared rendering logic
// lives in free functions parameterized by the capability". Each of the
// four bundled dialects is a *Dialect value built with different
// strategy funcs/fields, not a different Go type.
type Dialect struct {
	name Name

	quoteIdent    func(string) (string, error)
	formatLit     func(any) (string, error)
	placeholder   func(pos int) string
	allowedJoins  map[JoinKind]bool
	paginate      paginateFunc
	returning     returningFunc
	reAliasJoins  bool // MSSQL "same exposed names" rule (B4)

	registry      *FunctionRegistry
	tableFuncs    *TableFunctionRegistry
}

// Name is re-exported locally so callers writing `sql.Name` don't need a
// second import; it is identical to dialect.Name.
type Name = dialect.Name

// New returns the bundled *Dialect for name, or an error if name isn't
// one of the four supported dialects.
func New(name Name) (*Dialect, error) {
	switch name {
	case dialect.Postgres:
		return newPostgresDialect(DefaultRegistry, DefaultTableFunctions), nil
	case dialect.MySQL:
		return newMySQLDialect(DefaultRegistry, DefaultTableFunctions), nil
	case dialect.MSSQL:
		return newMSSQLDialect(DefaultRegistry, DefaultTableFunctions), nil
	case dialect.SQLite:
		return newSQLiteDialect(DefaultRegistry, DefaultTableFunctions), nil
	default:
		return nil, dialect.NewError(dialect.InvalidArgument, "New", fmt.Errorf("unknown dialect %q", name))
	}
}

// Name returns the dialect's identity.
func (d *Dialect) Name() Name { return d.name }

// QuoteIdentifier quotes a single SQL identifier per the dialect's
// delimiter rules (§4.3, P2).
func (d *Dialect) QuoteIdentifier(name string) (string, error) { return d.quoteIdent(name) }

// FormatLiteral renders a value as inline SQL text, used only when a
// literal must be embedded directly (e.g. a DDL column default).
func (d *Dialect) FormatLiteral(v any) (string, error) { return d.formatLit(v) }

// quoteQualified quotes an optionally schema-qualified, optionally
// empty-named identifier, joining the parts with ".".
func (d *Dialect) quoteQualified(schema, name string) (string, error) {
	qn, err := d.quoteIdent(name)
	if err != nil {
		return "", err
	}
	if schema == "" {
		return qn, nil
	}
	qs, err := d.quoteIdent(schema)
	if err != nil {
		return "", err
	}
	return qs + "." + qn, nil
}

// compileOperand renders a single Operand and threads literal extraction
// through ctx.
func (d *Dialect) compileOperand(ctx *compilerContext, op Operand) (string, error) {
	switch v := op.(type) {
	case Column:
		return d.compileColumnRef(v)
	case Literal:
		pos := ctx.bind(v.Value)
		return d.placeholder(pos), nil
	case Parameter:
		return d.placeholder(v.Position), nil
	case Raw:
		return v.Text, nil
	case Function:
		compile := func(o Operand) (string, error) { return d.compileOperand(ctx, o) }
		return d.registry.Resolve(&v, d.name, compile, d.formatLit, ctx.warn)
	case Subquery:
		inner, err := d.compileSelectInto(ctx, v.Query)
		if err != nil {
			return "", err
		}
		return "(" + inner + ")", nil
	default:
		return "", dialect.NewError(dialect.InvalidArgument, "compileOperand", fmt.Errorf("unknown operand type %T", op))
	}
}

func (d *Dialect) compileColumnRef(c Column) (string, error) {
	qn, err := d.quoteIdent(c.Name)
	if err != nil {
		return "", err
	}
	if c.Table == "" {
		return qn, nil
	}
	qt, err := d.quoteIdent(c.Table)
	if err != nil {
		return "", err
	}
	return qt + "." + qn, nil
}

// compileExpression renders a predicate tree.
func (d *Dialect) compileExpression(ctx *compilerContext, e Expression) (string, error) {
	switch v := e.(type) {
	case Binary:
		l, err := d.compileOperand(ctx, v.Left)
		if err != nil {
			return "", err
		}
		r, err := d.compileOperand(ctx, v.Right)
		if err != nil {
			return "", err
		}
		return l + " " + string(v.Op) + " " + r, nil
	case Logical:
		l, err := d.compileExpression(ctx, v.Left)
		if err != nil {
			return "", err
		}
		r, err := d.compileExpression(ctx, v.Right)
		if err != nil {
			return "", err
		}
		return "(" + l + " " + string(v.Op) + " " + r + ")", nil
	case Unary:
		inner, err := d.compileExpression(ctx, v.Expr)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case InList:
		return d.compileInList(ctx, v)
	case Like:
		return d.compileLike(ctx, v)
	case IsNull:
		operand, err := d.compileOperand(ctx, v.Operand)
		if err != nil {
			return "", err
		}
		if v.Negate {
			return operand + " IS NOT NULL", nil
		}
		return operand + " IS NULL", nil
	case Between:
		operand, err := d.compileOperand(ctx, v.Operand)
		if err != nil {
			return "", err
		}
		lo, err := d.compileOperand(ctx, v.Low)
		if err != nil {
			return "", err
		}
		hi, err := d.compileOperand(ctx, v.High)
		if err != nil {
			return "", err
		}
		return operand + " BETWEEN " + lo + " AND " + hi, nil
	case Exists:
		inner, err := d.compileSelectInto(ctx, v.Subquery)
		if err != nil {
			return "", err
		}
		if v.Negate {
			return "NOT EXISTS (" + inner + ")", nil
		}
		return "EXISTS (" + inner + ")", nil
	default:
		return "", dialect.NewError(dialect.InvalidArgument, "compileExpression", fmt.Errorf("unknown expression type %T", e))
	}
}

// compileInList implements §4.1's documented empty-list rewrite (B1): an
// empty IN list becomes a constant-false expression (constant-true for
// NOT IN), rather than an error or an empty `IN ()`.
func (d *Dialect) compileInList(ctx *compilerContext, v InList) (string, error) {
	if len(v.Values) == 0 {
		if v.Negate {
			return "1 = 1", nil
		}
		return "1 = 0", nil
	}
	operand, err := d.compileOperand(ctx, v.Operand)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(v.Values))
	for i, val := range v.Values {
		s, err := d.compileOperand(ctx, val)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	kw := "IN"
	if v.Negate {
		kw = "NOT IN"
	}
	return operand + " " + kw + " (" + strings.Join(parts, ", ") + ")", nil
}

func (d *Dialect) compileLike(ctx *compilerContext, v Like) (string, error) {
	operand, err := d.compileOperand(ctx, v.Operand)
	if err != nil {
		return "", err
	}
	pattern, err := d.compileOperand(ctx, v.Pattern)
	if err != nil {
		return "", err
	}
	kw := "LIKE"
	if v.CaseInsensitive {
		kw = "ILIKE"
		if d.name != dialect.Postgres {
			// Emulate case-insensitive LIKE on dialects without ILIKE by
			// folding both sides through UPPER().
			operand = "UPPER(" + operand + ")"
			pattern = "UPPER(" + pattern + ")"
			kw = "LIKE"
		}
	}
	if v.Negate {
		kw = "NOT " + kw
	}
	return operand + " " + kw + " " + pattern, nil
}

// compileOrderBy renders a full ORDER BY clause (without the leading
// "ORDER BY" keyword, which the caller writes once).
func (d *Dialect) compileOrderBy(ctx *compilerContext, obs []OrderBy) (string, error) {
	parts := make([]string, len(obs))
	for i, ob := range obs {
		term, err := d.compileOperand(ctx, ob.Term)
		if err != nil {
			return "", err
		}
		dir := ob.Direction
		if dir == "" {
			dir = Asc
		}
		s := term + " " + string(dir)
		if ob.Nulls != "" {
			s += " NULLS " + string(ob.Nulls)
		}
		if ob.Collation != "" {
			qc, err := d.quoteIdent(ob.Collation)
			if err != nil {
				return "", err
			}
			s += " COLLATE " + qc
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}

// --- top level compile entry points -------------------------------------

// CompileSelect renders a SELECT statement and its parameter vector.
func (d *Dialect) CompileSelect(q *SelectQuery) (Compiled, error) {
	ctx := newCompilerContext(d.name)
	sql, err := d.compileSelectInto(ctx, q)
	if err != nil {
		return Compiled{}, err
	}
	return Compiled{SQL: sql, Params: ctx.params, Warnings: ctx.warnings}, nil
}

// CompileInsert renders an INSERT statement and its parameter vector.
func (d *Dialect) CompileInsert(q *InsertQuery) (Compiled, error) {
	ctx := newCompilerContext(d.name)
	sql, err := d.compileInsert(ctx, q)
	if err != nil {
		return Compiled{}, err
	}
	return Compiled{SQL: sql, Params: ctx.params, Warnings: ctx.warnings}, nil
}

// CompileUpdate renders an UPDATE statement and its parameter vector.
func (d *Dialect) CompileUpdate(q *UpdateQuery) (Compiled, error) {
	ctx := newCompilerContext(d.name)
	sql, err := d.compileUpdate(ctx, q)
	if err != nil {
		return Compiled{}, err
	}
	return Compiled{SQL: sql, Params: ctx.params, Warnings: ctx.warnings}, nil
}

// CompileDelete renders a DELETE statement and its parameter vector.
func (d *Dialect) CompileDelete(q *DeleteQuery) (Compiled, error) {
	ctx := newCompilerContext(d.name)
	sql, err := d.compileDelete(ctx, q)
	if err != nil {
		return Compiled{}, err
	}
	return Compiled{SQL: sql, Params: ctx.params, Warnings: ctx.warnings}, nil
}

// CompileProcedureCall renders a CALL/EXEC statement and its parameter vector.
func (d *Dialect) CompileProcedureCall(q *ProcedureCall) (Compiled, error) {
	ctx := newCompilerContext(d.name)
	sql, err := d.compileProcedureCall(ctx, q)
	if err != nil {
		return Compiled{}, err
	}
	return Compiled{SQL: sql, Params: ctx.params, Warnings: ctx.warnings}, nil
}

// --- SELECT ---------------------------------------------------------------

func (d *Dialect) compileSelectInto(ctx *compilerContext, q *SelectQuery) (string, error) {
	var sb strings.Builder
	if len(q.Ctes) > 0 {
		cteSQL, err := d.compileCtes(ctx, q.Ctes)
		if err != nil {
			return "", err
		}
		sb.WriteString(cteSQL)
		sb.WriteString(" ")
	}

	if len(q.SetOps) == 0 {
		body, err := d.compileSelectBody(ctx, q, true)
		if err != nil {
			return "", err
		}
		sb.WriteString(body)
		return sb.String(), nil
	}

	// §3.1 invariant I4 / §4.3: a SELECT with setOps evaluates its own
	// ORDER BY/LIMIT/OFFSET over the combined result; the base query and
	// every set operand compile without tail modifiers.
	base, err := d.compileSelectBody(ctx, q, false)
	if err != nil {
		return "", err
	}
	sb.WriteString("(")
	sb.WriteString(base)
	sb.WriteString(")")
	for _, so := range q.SetOps {
		opBody, err := d.compileSelectBody(ctx, so.Query, false)
		if err != nil {
			return "", err
		}
		sb.WriteString(" ")
		sb.WriteString(string(so.Operator))
		sb.WriteString(" (")
		sb.WriteString(opBody)
		sb.WriteString(")")
	}
	if len(q.OrderBy) > 0 {
		ob, err := d.compileOrderBy(ctx, q.OrderBy)
		if err != nil {
			return "", err
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(ob)
	}
	d.paginate(&sb, ctx, len(q.OrderBy) > 0, q.Limit, q.Offset)
	return sb.String(), nil
}

// compileSelectBody renders `SELECT ... FROM ... [tail]`. When
// includeTail is false, ORDER BY/LIMIT/OFFSET are omitted (used for the
// base query and every set-op operand per invariant I4).
func (d *Dialect) compileSelectBody(ctx *compilerContext, q *SelectQuery, includeTail bool) (string, error) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if q.Distinct {
		sb.WriteString("DISTINCT ")
	}
	if len(q.Columns) == 0 {
		sb.WriteString("*")
	} else {
		cols := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			s, err := d.compileSelectColumn(c)
			if err != nil {
				return "", err
			}
			cols[i] = s
		}
		sb.WriteString(strings.Join(cols, ", "))
	}

	from, err := d.compileTableSource(ctx, q.From)
	if err != nil {
		return "", err
	}
	sb.WriteString(" FROM ")
	sb.WriteString(from)

	joins, err := d.compileJoins(ctx, q.From, q.Joins)
	if err != nil {
		return "", err
	}
	if joins != "" {
		sb.WriteString(" ")
		sb.WriteString(joins)
	}

	if q.Where != nil {
		w, err := d.compileExpression(ctx, q.Where)
		if err != nil {
			return "", err
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(w)
	}

	if len(q.GroupBy) > 0 {
		parts := make([]string, len(q.GroupBy))
		for i, op := range q.GroupBy {
			s, err := d.compileOperand(ctx, op)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	if q.Having != nil {
		h, err := d.compileExpression(ctx, q.Having)
		if err != nil {
			return "", err
		}
		sb.WriteString(" HAVING ")
		sb.WriteString(h)
	}

	if includeTail {
		if len(q.OrderBy) > 0 {
			ob, err := d.compileOrderBy(ctx, q.OrderBy)
			if err != nil {
				return "", err
			}
			sb.WriteString(" ORDER BY ")
			sb.WriteString(ob)
		}
		d.paginate(&sb, ctx, len(q.OrderBy) > 0, q.Limit, q.Offset)
	}
	return sb.String(), nil
}

func (d *Dialect) compileSelectColumn(c Column) (string, error) {
	ref, err := d.compileColumnRef(c)
	if err != nil {
		return "", err
	}
	if c.Alias == "" {
		return ref, nil
	}
	qa, err := d.quoteIdent(c.Alias)
	if err != nil {
		return "", err
	}
	return ref + " AS " + qa, nil
}

func (d *Dialect) compileCtes(ctx *compilerContext, ctes []Cte) (string, error) {
	recursive := false
	for _, c := range ctes {
		if c.Recursive {
			recursive = true
		}
		ctx.pushCTE(c.Name)
	}
	defer func() {
		for range ctes {
			ctx.popCTE()
		}
	}()

	parts := make([]string, len(ctes))
	for i, c := range ctes {
		name, err := d.quoteIdent(c.Name)
		if err != nil {
			return "", err
		}
		if len(c.ColumnAliases) > 0 {
			qs := make([]string, len(c.ColumnAliases))
			for j, a := range c.ColumnAliases {
				qa, err := d.quoteIdent(a)
				if err != nil {
					return "", err
				}
				qs[j] = qa
			}
			name += "(" + strings.Join(qs, ", ") + ")"
		}
		sub, err := d.compileSelectInto(ctx, c.Query)
		if err != nil {
			return "", err
		}
		entry := name + " AS "
		if c.Materialization != "" {
			entry += string(c.Materialization) + " "
		}
		entry += "(" + sub + ")"
		parts[i] = entry
	}
	kw := "WITH "
	if recursive {
		kw = "WITH RECURSIVE "
	}
	return kw + strings.Join(parts, ", "), nil
}

// --- table sources & joins --------------------------------------------

func (d *Dialect) compileTableSource(ctx *compilerContext, src TableSource) (string, error) {
	switch t := src.(type) {
	case TableRef:
		return d.compileTableRef(t)
	case DerivedTable:
		inner, err := d.compileSelectInto(ctx, t.Query)
		if err != nil {
			return "", err
		}
		s := "(" + inner + ")"
		alias, err := d.quoteIdent(t.Alias)
		if err != nil {
			return "", err
		}
		s += " AS " + alias
		if len(t.ColumnAliases) > 0 {
			cols, err := d.quoteIdentList(t.ColumnAliases)
			if err != nil {
				return "", err
			}
			s += "(" + strings.Join(cols, ", ") + ")"
		}
		return s, nil
	case FunctionTable:
		return d.compileFunctionTable(ctx, t)
	default:
		return "", dialect.NewError(dialect.InvalidArgument, "compileTableSource", fmt.Errorf("unknown table source %T", src))
	}
}

func (d *Dialect) compileTableRef(t TableRef) (string, error) {
	name, err := d.quoteQualified(t.Schema, t.Name)
	if err != nil {
		return "", err
	}
	if t.Alias == "" {
		return name, nil
	}
	alias, err := d.quoteIdent(t.Alias)
	if err != nil {
		return "", err
	}
	return name + " AS " + alias, nil
}

func (d *Dialect) quoteIdentList(names []string) ([]string, error) {
	out := make([]string, len(names))
	for i, n := range names {
		q, err := d.quoteIdent(n)
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

// compileFunctionTable implements §4.3's "Function table compilation": a
// registered renderer wins, otherwise the call falls through to
// identifier-based rendering with LATERAL/WITH ORDINALITY/alias handling.
func (d *Dialect) compileFunctionTable(ctx *compilerContext, t FunctionTable) (string, error) {
	compile := func(o Operand) (string, error) { return d.compileOperand(ctx, o) }
	if t.Key != "" {
		if render, ok := d.tableFuncs.lookup(t.Key, d.name); ok {
			return render(TableFuncRenderArgs{Node: &t, Dialect: d.name, Compile: compile})
		}
		return "", dialect.NewError(dialect.UnsupportedTableFunction, "compileFunctionTable", fmt.Errorf("no renderer registered for table function %q on %s", t.Key, d.name))
	}

	var sb strings.Builder
	if t.Lateral {
		sb.WriteString("LATERAL ")
	}
	name, err := d.quoteQualified(t.Schema, t.Name)
	if err != nil {
		return "", err
	}
	sb.WriteString(name)
	sb.WriteString("(")
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		s, err := compile(a)
		if err != nil {
			return "", err
		}
		args[i] = s
	}
	sb.WriteString(strings.Join(args, ", "))
	sb.WriteString(")")
	if t.WithOrdinality {
		sb.WriteString(" WITH ORDINALITY")
	}
	if t.Alias != "" {
		alias, err := d.quoteIdent(t.Alias)
		if err != nil {
			return "", err
		}
		sb.WriteString(" AS ")
		sb.WriteString(alias)
		if len(t.ColumnAliases) > 0 {
			cols, err := d.quoteIdentList(t.ColumnAliases)
			if err != nil {
				return "", err
			}
			sb.WriteString("(")
			sb.WriteString(strings.Join(cols, ", "))
			sb.WriteString(")")
		}
	}
	return sb.String(), nil
}

// compileJoins renders every join, enforcing §4.3's per-dialect join
// legality and (MSSQL only) the B4 "same exposed names" auto-aliasing.
func (d *Dialect) compileJoins(ctx *compilerContext, from TableSource, joins []Join) (string, error) {
	if len(joins) == 0 {
		return "", nil
	}
	exposed := map[string]int{}
	if fromName, ok := exposedName(from); ok {
		exposed[fromName]++
	}

	parts := make([]string, len(joins))
	for i, j := range joins {
		if !d.allowedJoins[j.Kind] {
			return "", dialect.NewError(dialect.UnsupportedFeature, "compileJoins", fmt.Errorf("%s does not support %s JOIN", d.name, j.Kind))
		}
		table := j.Table
		if d.reAliasJoins {
			table = d.maybeReAlias(table, exposed)
		}
		if name, ok := exposedName(table); ok {
			exposed[name]++
		}

		src, err := d.compileTableSource(ctx, table)
		if err != nil {
			return "", err
		}
		var sb strings.Builder
		sb.WriteString(string(j.Kind))
		sb.WriteString(" JOIN ")
		sb.WriteString(src)
		if j.Kind != JoinCross && j.Condition != nil {
			cond, err := d.compileExpression(ctx, j.Condition)
			if err != nil {
				return "", err
			}
			sb.WriteString(" ON ")
			sb.WriteString(cond)
		}
		parts[i] = sb.String()
	}
	return strings.Join(parts, " "), nil
}

// exposedName returns the name a table source exposes to the statement
// (its alias if any, else its raw table name), used for MSSQL's
// same-exposed-names re-aliasing (B4).
func exposedName(src TableSource) (string, bool) {
	t, ok := src.(TableRef)
	if !ok {
		return "", false
	}
	if t.Alias != "" {
		return t.Alias, true
	}
	return t.Name, true
}

// maybeReAlias assigns a fresh alias to a join's TableRef if it has no
// explicit alias and its raw name collides with an already-exposed name
// (B4). Explicit caller-supplied aliases are always preserved.
func (d *Dialect) maybeReAlias(src TableSource, exposed map[string]int) TableSource {
	t, ok := src.(TableRef)
	if !ok || t.Alias != "" {
		return src
	}
	if exposed[t.Name] == 0 {
		return src
	}
	n := exposed[t.Name] + 1
	t.Alias = fmt.Sprintf("%s_%d", t.Name, n)
	return t
}

// --- INSERT / UPDATE / DELETE / CALL ------------------------------------

func (d *Dialect) compileInsert(ctx *compilerContext, q *InsertQuery) (string, error) {
	if len(q.Columns) == 0 {
		return "", dialect.NewError(dialect.InvalidArgument, "compileInsert", fmt.Errorf("insert must name at least one column"))
	}
	into, err := d.compileTableRef(q.Into)
	if err != nil {
		return "", err
	}
	cols, err := d.compileColumnNames(q.Columns)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(into)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(")")

	outputSuffix, outputMid, err := d.returning(ctx, q.Returning)
	if err != nil {
		return "", err
	}
	if outputMid != "" {
		sb.WriteString(" ")
		sb.WriteString(outputMid)
	}

	switch src := q.Source.(type) {
	case InsertValues:
		if len(src.Rows) == 0 {
			return "", dialect.NewError(dialect.InvalidArgument, "compileInsert", fmt.Errorf("insert must supply at least one row"))
		}
		rows := make([]string, len(src.Rows))
		for i, row := range src.Rows {
			if len(row) != len(q.Columns) {
				return "", dialect.NewError(dialect.InvalidArgument, "compileInsert", fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(q.Columns)))
			}
			vals := make([]string, len(row))
			for j, v := range row {
				s, err := d.compileOperand(ctx, v)
				if err != nil {
					return "", err
				}
				vals[j] = s
			}
			rows[i] = "(" + strings.Join(vals, ", ") + ")"
		}
		sb.WriteString(" VALUES ")
		sb.WriteString(strings.Join(rows, ", "))
	case InsertSelect:
		inner, err := d.compileSelectInto(ctx, src.Query)
		if err != nil {
			return "", err
		}
		sb.WriteString(" ")
		sb.WriteString(inner)
	default:
		return "", dialect.NewError(dialect.InvalidArgument, "compileInsert", fmt.Errorf("unknown insert source %T", q.Source))
	}

	if outputSuffix != "" {
		sb.WriteString(" ")
		sb.WriteString(outputSuffix)
	}
	return sb.String(), nil
}

func (d *Dialect) compileColumnNames(cols []Column) ([]string, error) {
	out := make([]string, len(cols))
	for i, c := range cols {
		q, err := d.quoteIdent(c.Name)
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

func (d *Dialect) compileUpdate(ctx *compilerContext, q *UpdateQuery) (string, error) {
	if len(q.Joins) > 0 && q.From == nil {
		return "", dialect.NewError(dialect.InvalidArgument, "compileUpdate", fmt.Errorf("update with joins requires a FROM source"))
	}
	table, err := d.compileTableRef(q.Table)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(table)

	outputSuffix, outputMid, err := d.returning(ctx, q.Returning)
	if err != nil {
		return "", err
	}

	sb.WriteString(" SET ")
	assigns := make([]string, len(q.Set))
	for i, a := range q.Set {
		target, err := d.compileUpdateTarget(a.Column, q.Table)
		if err != nil {
			return "", err
		}
		val, err := d.compileOperand(ctx, a.Value)
		if err != nil {
			return "", err
		}
		assigns[i] = target + " = " + val
	}
	sb.WriteString(strings.Join(assigns, ", "))

	if outputMid != "" {
		sb.WriteString(" ")
		sb.WriteString(outputMid)
	}

	if q.From != nil {
		from, err := d.compileTableSource(ctx, q.From)
		if err != nil {
			return "", err
		}
		sb.WriteString(" FROM ")
		sb.WriteString(from)
	}
	if len(q.Joins) > 0 {
		joins, err := d.compileJoins(ctx, q.From, q.Joins)
		if err != nil {
			return "", err
		}
		sb.WriteString(" ")
		sb.WriteString(joins)
	}
	if q.Where != nil {
		w, err := d.compileExpression(ctx, q.Where)
		if err != nil {
			return "", err
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(w)
	}
	if outputSuffix != "" {
		sb.WriteString(" ")
		sb.WriteString(outputSuffix)
	}
	return sb.String(), nil
}

// compileUpdateTarget implements §4.3's column-qualification rule for
// UPDATE SET targets: rewrite to the table's alias when the column's
// declared table equals the table's raw name; otherwise keep the
// column's own table; a missing qualifier stays bare.
func (d *Dialect) compileUpdateTarget(c Column, table TableRef) (string, error) {
	if table.Alias != "" && c.Table == table.Name {
		return d.compileColumnRef(Column{Table: table.Alias, Name: c.Name})
	}
	return d.compileColumnRef(c)
}

func (d *Dialect) compileDelete(ctx *compilerContext, q *DeleteQuery) (string, error) {
	if len(q.Joins) > 0 && q.Using == nil {
		return "", dialect.NewError(dialect.InvalidArgument, "compileDelete", fmt.Errorf("delete with joins requires a USING source"))
	}
	from, err := d.compileTableRef(q.From)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(from)

	outputSuffix, outputMid, err := d.returning(ctx, q.Returning)
	if err != nil {
		return "", err
	}
	if outputMid != "" {
		sb.WriteString(" ")
		sb.WriteString(outputMid)
	}

	if q.Using != nil {
		using, err := d.compileTableSource(ctx, q.Using)
		if err != nil {
			return "", err
		}
		sb.WriteString(" USING ")
		sb.WriteString(using)
	}
	if len(q.Joins) > 0 {
		joins, err := d.compileJoins(ctx, q.Using, q.Joins)
		if err != nil {
			return "", err
		}
		sb.WriteString(" ")
		sb.WriteString(joins)
	}
	if q.Where != nil {
		w, err := d.compileExpression(ctx, q.Where)
		if err != nil {
			return "", err
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(w)
	}
	if outputSuffix != "" {
		sb.WriteString(" ")
		sb.WriteString(outputSuffix)
	}
	return sb.String(), nil
}

func (d *Dialect) compileProcedureCall(ctx *compilerContext, q *ProcedureCall) (string, error) {
	name, err := d.quoteQualified(q.Ref.Schema, q.Ref.Name)
	if err != nil {
		return "", err
	}
	for _, p := range q.Params {
		if (p.Direction == DirOut || p.Direction == DirInOut) && d.name == dialect.MSSQL && p.DBType == "" {
			return "", dialect.NewError(dialect.UnsupportedFeature, "compileProcedureCall", fmt.Errorf("mssql OUT/INOUT parameter %q requires an explicit dbType", p.Name))
		}
	}
	args := make([]string, 0, len(q.Params))
	for _, p := range q.Params {
		switch p.Direction {
		case DirOut, DirInOut:
			args = append(args, "@"+p.Name+" OUTPUT")
		default:
			if p.Value == nil {
				return "", dialect.NewError(dialect.InvalidArgument, "compileProcedureCall", fmt.Errorf("IN parameter %q requires a value", p.Name))
			}
			s, err := d.compileOperand(ctx, p.Value)
			if err != nil {
				return "", err
			}
			args = append(args, s)
		}
	}
	kw := "CALL"
	if d.name == dialect.MSSQL {
		kw = "EXEC"
	}
	return kw + " " + name + "(" + strings.Join(args, ", ") + ")", nil
}

// formatIntLiteral is a small shared helper for inlining an *int64 as a
// decimal string (used by LIMIT/OFFSET rendering, which is never
// parameterized — every dialect's LIMIT/OFFSET accepts a literal
// integer directly, per B2/B3).
func formatIntLiteral(n int64) string { return strconv.FormatInt(n, 10) }
