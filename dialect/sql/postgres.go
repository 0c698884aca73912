package sql

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/sqlcraft/core/dialect"
)

func newPostgresDialect(registry *FunctionRegistry, tableFuncs *TableFunctionRegistry) *Dialect {
	return &Dialect{
		name:        dialect.Postgres,
		quoteIdent:  quoteDoubled(`"`, `"`),
		formatLit:   postgresFormatLiteral,
		placeholder: func(pos int) string { return "$" + strconv.Itoa(pos) },
		allowedJoins: map[JoinKind]bool{
			JoinInner: true, JoinLeft: true, JoinRight: true, JoinFull: true, JoinCross: true,
		},
		paginate:     limitOffsetPaginate,
		returning:    returningClause,
		reAliasJoins: false,
		registry:     registry,
		tableFuncs:   tableFuncs,
	}
}

// quoteDoubled builds a quoteIdent func for delimiters that escape by
// doubling the closing character (Postgres/SQLite `"..."`, MSSQL
// `[...]`), per §4.3/P2.
func quoteDoubled(open, close string) func(string) (string, error) {
	return func(name string) (string, error) {
		if name == "" {
			return "", dialect.NewError(dialect.InvalidArgument, "QuoteIdentifier", fmt.Errorf("identifier must not be empty"))
		}
		return open + strings.ReplaceAll(name, close, close+close) + close, nil
	}
}

func postgresFormatLiteral(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if t {
			return "TRUE", nil
		}
		return "FALSE", nil
	case []byte:
		return "'\\x" + hex.EncodeToString(t) + "'", nil
	default:
		return formatScalarLiteral(v)
	}
}

// formatScalarLiteral handles the numeric/string cases shared by every
// dialect; boolean and byte-string rendering is dialect-specific and
// handled by the caller before falling through here.
func formatScalarLiteral(v any) (string, error) {
	switch t := v.(type) {
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'", nil
	default:
		return "", dialect.NewError(dialect.InvalidArgument, "FormatLiteral", fmt.Errorf("unsupported literal type %T", v))
	}
}

// limitOffsetPaginate implements the `LIMIT n [OFFSET m]` strategy
// shared by Postgres and SQLite (§4.3).
func limitOffsetPaginate(sb *strings.Builder, ctx *compilerContext, hasOrderBy bool, limit, offset *int64) {
	if limit != nil {
		sb.WriteString(" LIMIT ")
		sb.WriteString(formatIntLiteral(*limit))
	}
	if offset != nil {
		sb.WriteString(" OFFSET ")
		sb.WriteString(formatIntLiteral(*offset))
	}
}

// returningClause implements the `RETURNING col, ...` strategy shared by
// Postgres and SQLite (§4.3).
func returningClause(ctx *compilerContext, cols []Column) (suffix, output string, err error) {
	if len(cols) == 0 {
		return "", "", nil
	}
	parts := make([]string, len(cols))
	for i, c := range cols {
		qn, err := quoteDoubled(`"`, `"`)(c.Name)
		if err != nil {
			return "", "", err
		}
		parts[i] = qn
	}
	return "RETURNING " + strings.Join(parts, ", "), "", nil
}
