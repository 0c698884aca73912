package sql

import (
	"fmt"
	"strings"

	"github.com/sqlcraft/core/dialect"
)

// DefaultRegistry is the process-wide function registry the four bundled
// dialects share. New builds every bundled dialect over it and takes no
// other registry; a registry made with NewFunctionRegistry is used
// through its own Resolve method.
var DefaultRegistry = NewFunctionRegistry()

// DefaultTableFunctions is the process-wide table-function registry the
// four bundled dialects share by default.
var DefaultTableFunctions = NewTableFunctionRegistry()

func init() {
	registerOrderedAggregates(DefaultRegistry)
	registerMathFunctions(DefaultRegistry)
	registerDateFunctions(DefaultRegistry)
}

// compileOrderByTerm renders a single ORDER BY term inside an aggregate call.
func compileOrderByTerm(compile CompileFunc, ob OrderBy) (string, error) {
	term, err := compile(ob.Term)
	if err != nil {
		return "", err
	}
	dir := ob.Direction
	if dir == "" {
		dir = Asc
	}
	return term + " " + string(dir), nil
}

func compileOrderByList(compile CompileFunc, obs []OrderBy) (string, error) {
	parts := make([]string, len(obs))
	for i, ob := range obs {
		s, err := compileOrderByTerm(compile, ob)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}

// registerOrderedAggregates wires GROUP_CONCAT / STRING_AGG, whose
// rendering differs per dialect beyond a simple name swap: MySQL/SQLite
// want `GROUP_CONCAT(x ORDER BY ... SEPARATOR ',')`, Postgres wants
// `STRING_AGG(x, ',' ORDER BY ...)`, MSSQL wants
// `STRING_AGG(x, ',') WITHIN GROUP (ORDER BY ...)` (§4.2, E2).
func registerOrderedAggregates(reg *FunctionRegistry) {
	// Separators are rendered inline (via InlineLiteral), never as a bound
	// parameter: MySQL's SEPARATOR clause requires a constant, and a
	// placeholder there is invalid SQL.
	sepLiteral := func(a FuncRenderArgs) (string, error) {
		if a.Node.Separator == nil {
			return a.InlineLiteral(",")
		}
		if lit, ok := a.Node.Separator.(Literal); ok {
			return a.InlineLiteral(lit.Value)
		}
		return a.Compile(a.Node.Separator)
	}

	mysqlLike := func(name string) FuncRenderer {
		return func(a FuncRenderArgs) (string, error) {
			if len(a.Node.Args) != 1 {
				return "", dialect.NewError(dialect.InvalidArgument, "GROUP_CONCAT", fmt.Errorf("expects exactly one argument, got %d", len(a.Node.Args)))
			}
			arg, err := a.Compile(a.Node.Args[0])
			if err != nil {
				return "", err
			}
			var sb strings.Builder
			sb.WriteString(name)
			sb.WriteString("(")
			if a.Node.Distinct {
				sb.WriteString("DISTINCT ")
			}
			sb.WriteString(arg)
			if len(a.Node.OrderBy) > 0 {
				ob, err := compileOrderByList(a.Compile, a.Node.OrderBy)
				if err != nil {
					return "", err
				}
				sb.WriteString(" ORDER BY ")
				sb.WriteString(ob)
			}
			sep, err := sepLiteral(a)
			if err != nil {
				return "", err
			}
			sb.WriteString(" SEPARATOR ")
			sb.WriteString(sep)
			sb.WriteString(")")
			return sb.String(), nil
		}
	}

	postgresRender := func(a FuncRenderArgs) (string, error) {
		if len(a.Node.Args) != 1 {
			return "", dialect.NewError(dialect.InvalidArgument, "STRING_AGG", fmt.Errorf("expects exactly one argument, got %d", len(a.Node.Args)))
		}
		arg, err := a.Compile(a.Node.Args[0])
		if err != nil {
			return "", err
		}
		sep, err := sepLiteral(a)
		if err != nil {
			return "", err
		}
		var sb strings.Builder
		sb.WriteString("STRING_AGG(")
		if a.Node.Distinct {
			sb.WriteString("DISTINCT ")
		}
		sb.WriteString(arg)
		sb.WriteString(", ")
		sb.WriteString(sep)
		if len(a.Node.OrderBy) > 0 {
			ob, err := compileOrderByList(a.Compile, a.Node.OrderBy)
			if err != nil {
				return "", err
			}
			sb.WriteString(" ORDER BY ")
			sb.WriteString(ob)
		}
		sb.WriteString(")")
		return sb.String(), nil
	}

	mssqlRender := func(a FuncRenderArgs) (string, error) {
		if len(a.Node.Args) != 1 {
			return "", dialect.NewError(dialect.InvalidArgument, "STRING_AGG", fmt.Errorf("expects exactly one argument, got %d", len(a.Node.Args)))
		}
		arg, err := a.Compile(a.Node.Args[0])
		if err != nil {
			return "", err
		}
		sep, err := sepLiteral(a)
		if err != nil {
			return "", err
		}
		sql := fmt.Sprintf("STRING_AGG(%s, %s)", arg, sep)
		if len(a.Node.OrderBy) > 0 {
			ob, err := compileOrderByList(a.Compile, a.Node.OrderBy)
			if err != nil {
				return "", err
			}
			sql += " WITHIN GROUP (ORDER BY " + ob + ")"
		}
		return sql, nil
	}

	// SQLite's GROUP_CONCAT takes the separator as a second positional
	// argument and has no ORDER BY support at all; the lost ordering is
	// surfaced by the caller as an advisory, not an error (§E2).
	sqliteRender := func(a FuncRenderArgs) (string, error) {
		if len(a.Node.Args) != 1 {
			return "", dialect.NewError(dialect.InvalidArgument, "GROUP_CONCAT", fmt.Errorf("expects exactly one argument, got %d", len(a.Node.Args)))
		}
		arg, err := a.Compile(a.Node.Args[0])
		if err != nil {
			return "", err
		}
		sep, err := sepLiteral(a)
		if err != nil {
			return "", err
		}
		if len(a.Node.OrderBy) > 0 {
			a.Warn(fmt.Sprintf("sqlite GROUP_CONCAT has no ORDER BY support; ordering on %q was dropped", a.Node.Key))
		}
		return fmt.Sprintf("GROUP_CONCAT(%s, %s)", arg, sep), nil
	}

	reg.MustRegister(FunctionDef{
		Key:         "GROUP_CONCAT",
		DefaultName: "GROUP_CONCAT",
		Variants: map[dialect.Name]DialectVariant{
			dialect.MySQL:    {Render: mysqlLike("GROUP_CONCAT")},
			dialect.SQLite:   {Render: sqliteRender},
			dialect.Postgres: {Name: "STRING_AGG", Render: postgresRender},
			dialect.MSSQL:    {Name: "STRING_AGG", Render: mssqlRender},
		},
	})
	// STRING_AGG is the same logical aggregate under its Postgres/MSSQL
	// name, registered separately so callers that already think in
	// STRING_AGG terms (rather than GROUP_CONCAT) get identical behavior.
	reg.MustRegister(FunctionDef{
		Key:         "STRING_AGG",
		DefaultName: "STRING_AGG",
		Variants: map[dialect.Name]DialectVariant{
			dialect.MySQL:    {Name: "GROUP_CONCAT", Render: mysqlLike("GROUP_CONCAT")},
			dialect.SQLite:   {Name: "GROUP_CONCAT", Render: sqliteRender},
			dialect.Postgres: {Render: postgresRender},
			dialect.MSSQL:    {Render: mssqlRender},
		},
	})
}

// registerMathFunctions wires LOG_BASE, whose SQLite variant has no
// built-in base-N logarithm and is rewritten to `(LN(x) / LN(base))`
// (§2.3, §4.2, E3). The rewrite recompiles its operands in x-then-base
// order, so the extracted params follow the rendered text (P1) rather
// than the AST argument order.
func registerMathFunctions(reg *FunctionRegistry) {
	sqliteLogBase := func(a FuncRenderArgs) (string, error) {
		if len(a.Node.Args) != 2 {
			return "", dialect.NewError(dialect.InvalidArgument, "LOG_BASE", fmt.Errorf("expects exactly 2 arguments, got %d", len(a.Node.Args)))
		}
		base, x := a.Node.Args[0], a.Node.Args[1]
		xSQL, err := a.Compile(x)
		if err != nil {
			return "", err
		}
		baseSQL, err := a.Compile(base)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(LN(%s) / LN(%s))", xSQL, baseSQL), nil
	}

	reg.MustRegister(FunctionDef{
		Key:         "LOG_BASE",
		DefaultName: "LOG",
		Variants: map[dialect.Name]DialectVariant{
			dialect.SQLite: {Render: sqliteLogBase},
			// Postgres/MySQL/MSSQL all expose a native two-argument LOG;
			// the default renderer ("LOG(base, x)") is sufficient.
		},
	})
}

// registerDateFunctions wires DATE_TRUNC, native on Postgres and
// emulated elsewhere.
func registerDateFunctions(reg *FunctionRegistry) {
	mysqlDateTrunc := func(a FuncRenderArgs) (string, error) {
		if len(a.Node.Args) != 2 {
			return "", dialect.NewError(dialect.InvalidArgument, "DATE_TRUNC", fmt.Errorf("expects exactly 2 arguments, got %d", len(a.Node.Args)))
		}
		unit, ok := a.Node.Args[0].(Literal)
		if !ok {
			return "", dialect.NewError(dialect.InvalidArgument, "DATE_TRUNC", fmt.Errorf("unit must be a literal"))
		}
		ts, err := a.Compile(a.Node.Args[1])
		if err != nil {
			return "", err
		}
		format, err := mysqlTruncFormat(fmt.Sprint(unit.Value))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("DATE_FORMAT(%s, '%s')", ts, format), nil
	}

	sqliteDateTrunc := func(a FuncRenderArgs) (string, error) {
		if len(a.Node.Args) != 2 {
			return "", dialect.NewError(dialect.InvalidArgument, "DATE_TRUNC", fmt.Errorf("expects exactly 2 arguments, got %d", len(a.Node.Args)))
		}
		unit, ok := a.Node.Args[0].(Literal)
		if !ok {
			return "", dialect.NewError(dialect.InvalidArgument, "DATE_TRUNC", fmt.Errorf("unit must be a literal"))
		}
		ts, err := a.Compile(a.Node.Args[1])
		if err != nil {
			return "", err
		}
		format, err := sqliteTruncFormat(fmt.Sprint(unit.Value))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("STRFTIME('%s', %s)", format, ts), nil
	}

	mssqlDateTrunc := func(a FuncRenderArgs) (string, error) {
		if len(a.Node.Args) != 2 {
			return "", dialect.NewError(dialect.InvalidArgument, "DATE_TRUNC", fmt.Errorf("expects exactly 2 arguments, got %d", len(a.Node.Args)))
		}
		unit, ok := a.Node.Args[0].(Literal)
		if !ok {
			return "", dialect.NewError(dialect.InvalidArgument, "DATE_TRUNC", fmt.Errorf("unit must be a literal"))
		}
		ts, err := a.Compile(a.Node.Args[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("DATETRUNC(%s, %s)", fmt.Sprint(unit.Value), ts), nil
	}

	reg.MustRegister(FunctionDef{
		Key:         "DATE_TRUNC",
		DefaultName: "DATE_TRUNC",
		Variants: map[dialect.Name]DialectVariant{
			dialect.MySQL:  {Render: mysqlDateTrunc},
			dialect.SQLite: {Render: sqliteDateTrunc},
			dialect.MSSQL:  {Render: mssqlDateTrunc},
			// Postgres exposes DATE_TRUNC natively; the default renderer
			// ("DATE_TRUNC(unit, ts)") is sufficient.
		},
	})
}

func mysqlTruncFormat(unit string) (string, error) {
	switch strings.ToLower(unit) {
	case "year":
		return "%Y-01-01", nil
	case "month":
		return "%Y-%m-01", nil
	case "day":
		return "%Y-%m-%d", nil
	case "hour":
		return "%Y-%m-%d %H:00:00", nil
	case "minute":
		return "%Y-%m-%d %H:%i:00", nil
	default:
		return "", dialect.NewError(dialect.UnsupportedFeature, "DATE_TRUNC", fmt.Errorf("unsupported truncation unit %q for mysql", unit))
	}
}

func sqliteTruncFormat(unit string) (string, error) {
	switch strings.ToLower(unit) {
	case "year":
		return "%Y-01-01", nil
	case "month":
		return "%Y-%m-01", nil
	case "day":
		return "%Y-%m-%d", nil
	case "hour":
		return "%Y-%m-%d %H:00:00", nil
	case "minute":
		return "%Y-%m-%d %H:%M:00", nil
	default:
		return "", dialect.NewError(dialect.UnsupportedFeature, "DATE_TRUNC", fmt.Errorf("unsupported truncation unit %q for sqlite", unit))
	}
}
