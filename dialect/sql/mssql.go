package sql

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/sqlcraft/core/dialect"
)

func newMSSQLDialect(registry *FunctionRegistry, tableFuncs *TableFunctionRegistry) *Dialect {
	return &Dialect{
		name:        dialect.MSSQL,
		quoteIdent:  quoteDoubled("[", "]"),
		formatLit:   mssqlFormatLiteral,
		placeholder: func(pos int) string { return "@p" + strconv.Itoa(pos) },
		allowedJoins: map[JoinKind]bool{
			JoinInner: true, JoinLeft: true, JoinRight: true, JoinFull: true, JoinCross: true,
		},
		paginate:     mssqlPaginate,
		returning:    mssqlReturning,
		reAliasJoins: true,
		registry:     registry,
		tableFuncs:   tableFuncs,
	}
}

func mssqlFormatLiteral(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if t {
			return "1", nil
		}
		return "0", nil
	case []byte:
		return "0x" + hex.EncodeToString(t), nil
	default:
		return formatScalarLiteral(v)
	}
}

// mssqlPaginate implements §4.3's MSSQL strategy: paging requires an
// ORDER BY; when the query has none, one is synthesized
// (`ORDER BY (SELECT NULL)`) so `OFFSET ... ROWS [FETCH NEXT ... ROWS
// ONLY]` stays legal.
func mssqlPaginate(sb *strings.Builder, ctx *compilerContext, hasOrderBy bool, limit, offset *int64) {
	if limit == nil && offset == nil {
		return
	}
	if !hasOrderBy {
		sb.WriteString(" ORDER BY (SELECT NULL)")
	}
	off := int64(0)
	if offset != nil {
		off = *offset
	}
	sb.WriteString(" OFFSET ")
	sb.WriteString(formatIntLiteral(off))
	sb.WriteString(" ROWS")
	if limit != nil {
		sb.WriteString(" FETCH NEXT ")
		sb.WriteString(formatIntLiteral(*limit))
		sb.WriteString(" ROWS ONLY")
	}
}

// mssqlReturning implements the `OUTPUT INSERTED.col, ...` strategy.
// MSSQL inserts the OUTPUT clause between the statement's target and
// its VALUES/WHERE rather than at the tail, so it is returned as
// output, not suffix.
func mssqlReturning(ctx *compilerContext, cols []Column) (suffix, output string, err error) {
	if len(cols) == 0 {
		return "", "", nil
	}
	parts := make([]string, len(cols))
	quote := quoteDoubled("[", "]")
	for i, c := range cols {
		qn, err := quote(c.Name)
		if err != nil {
			return "", "", err
		}
		parts[i] = "INSERTED." + qn
	}
	return "", "OUTPUT " + strings.Join(parts, ", "), nil
}
