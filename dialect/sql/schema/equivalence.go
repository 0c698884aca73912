package schema

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sqlcraft/core/dialect"
)

var upper = cases.Upper(language.Und)

// synonyms lists type-name pairs considered equivalent for a given
// dialect beyond simple case-folding (§4.5's "normalizes case and known
// synonyms" type equivalence predicate).
var synonyms = map[dialect.Name][][2]string{
	dialect.Postgres: {
		{"INT", "INTEGER"},
		{"INT4", "INTEGER"},
		{"INT8", "BIGINT"},
		{"BOOL", "BOOLEAN"},
		{"VARCHAR", "CHARACTER VARYING"},
		{"SERIAL", "INTEGER"},
	},
	dialect.MySQL: {
		{"INTEGER", "INT"},
		{"BOOL", "TINYINT(1)"},
		{"BOOLEAN", "TINYINT(1)"},
	},
	dialect.MSSQL: {
		{"NVARCHAR(MAX)", "TEXT"},
		{"VARCHAR(MAX)", "TEXT"},
		{"INTEGER", "INT"},
	},
	dialect.SQLite: {
		{"INT", "INTEGER"},
		{"BIGINT", "INTEGER"},
		{"VARCHAR", "TEXT"},
		{"CHARACTER VARYING", "TEXT"},
		{"NVARCHAR", "TEXT"},
	},
}

func normalizeTypeName(d dialect.Name, typ string) string {
	n := strings.TrimSpace(upper.String(typ))
	for _, pair := range synonyms[d] {
		if n == pair[0] {
			return pair[1]
		}
	}
	return n
}

// TypesEquivalent reports whether two rendered SQL type strings are
// considered the same for the purposes of diffing, under the dialect's
// case/synonym normalization rules (§4.5).
func TypesEquivalent(d dialect.Name, a, b string) bool {
	return normalizeTypeName(d, a) == normalizeTypeName(d, b)
}
