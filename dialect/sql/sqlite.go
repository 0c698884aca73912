package sql

import (
	"encoding/hex"

	"github.com/sqlcraft/core/dialect"
)

func newSQLiteDialect(registry *FunctionRegistry, tableFuncs *TableFunctionRegistry) *Dialect {
	return &Dialect{
		name:        dialect.SQLite,
		quoteIdent:  quoteDoubled(`"`, `"`),
		formatLit:   sqliteFormatLiteral,
		placeholder: func(pos int) string { return "?" },
		allowedJoins: map[JoinKind]bool{
			JoinInner: true, JoinLeft: true, JoinCross: true,
		},
		paginate:     limitOffsetPaginate,
		returning:    returningClause,
		reAliasJoins: false,
		registry:     registry,
		tableFuncs:   tableFuncs,
	}
}

func sqliteFormatLiteral(v any) (string, error) {
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
