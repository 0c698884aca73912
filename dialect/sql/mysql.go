package sql

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/sqlcraft/core/dialect"
)

func newMySQLDialect(registry *FunctionRegistry, tableFuncs *TableFunctionRegistry) *Dialect {
	return &Dialect{
		name:        dialect.MySQL,
		quoteIdent:  quoteBacktick,
		formatLit:   mysqlFormatLiteral,
		placeholder: func(pos int) string { return "?" },
		allowedJoins: map[JoinKind]bool{
			JoinInner: true, JoinLeft: true, JoinRight: true, JoinCross: true,
		},
		paginate:     mysqlPaginate,
		returning:    mysqlReturning,
		reAliasJoins: false,
		registry:     registry,
		tableFuncs:   tableFuncs,
	}
}

// quoteBacktick implements MySQL's identifier quoting. Per P2, MySQL
// does not support escaping a backtick inside an identifier by doubling
// it here: an identifier containing a backtick is rejected outright
// rather than silently mangled.
func quoteBacktick(name string) (string, error) {
	if name == "" {
		return "", dialect.NewError(dialect.InvalidArgument, "QuoteIdentifier", fmt.Errorf("identifier must not be empty"))
	}
	if strings.Contains(name, "`") {
		return "", dialect.NewError(dialect.InvalidArgument, "QuoteIdentifier", fmt.Errorf("mysql identifier %q contains a backtick, which cannot be escaped", name))
	}
	return "`" + name + "`", nil
}

func mysqlFormatLiteral(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if t {
			return "1", nil
		}
		return "0", nil
	case []byte:
		return "X'" + hex.EncodeToString(t) + "'", nil
	default:
		return formatScalarLiteral(v)
	}
}

// mysqlPaginate implements `LIMIT n [OFFSET m]`, with the MySQL-specific
// wrinkle that an OFFSET without an explicit LIMIT requires a sentinel
// row-count, since bare `OFFSET` isn't valid MySQL syntax.
func mysqlPaginate(sb *strings.Builder, ctx *compilerContext, hasOrderBy bool, limit, offset *int64) {
	switch {
	case limit != nil:
		sb.WriteString(" LIMIT ")
		sb.WriteString(formatIntLiteral(*limit))
		if offset != nil {
			sb.WriteString(" OFFSET ")
			sb.WriteString(formatIntLiteral(*offset))
		}
	case offset != nil:
		// MySQL has no unbounded row count; 2^64-1 is its documented
		// "no limit" sentinel for LIMIT when only OFFSET is wanted.
		sb.WriteString(" LIMIT 18446744073709551615 OFFSET ")
		sb.WriteString(formatIntLiteral(*offset))
	}
}

// mysqlReturning rejects any RETURNING/OUTPUT request: MySQL has no
// equivalent clause for INSERT/UPDATE/DELETE (§4.3).
func mysqlReturning(ctx *compilerContext, cols []Column) (suffix, output string, err error) {
	if len(cols) == 0 {
		return "", "", nil
	}
	return "", "", dialect.NewError(dialect.UnsupportedFeature, "mysqlReturning", fmt.Errorf("mysql does not support RETURNING"))
}
