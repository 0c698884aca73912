package sql

import "github.com/sqlcraft/core/dialect"

// compilerContext threads the state a single top-level compile call
// accumulates while walking the AST: the growing positional parameter
// vector, the placeholder counter, and the stack of CTE names currently
// in scope (used only for ambiguity diagnostics — the compiler does not
// verify column references per §3.1 invariant I1).
//
// One compilerContext is created per compile* call and passed down to
// every nested compilation (subqueries, set-op operands, CTEs), so
// placeholder numbering stays globally monotonic within one statement,
// per §4.3 "State machines".
type compilerContext struct {
	dialect  dialect.Name
	params   []any
	nextPos  int // 1-based position of the *next* parameter to extract
	cteStack []string
	warnings []string
}

func newCompilerContext(d dialect.Name) *compilerContext {
	return &compilerContext{dialect: d, nextPos: 1}
}

// bind appends v to the parameter vector and returns the 1-based
// position it was bound at.
func (c *compilerContext) bind(v any) int {
	c.params = append(c.params, v)
	pos := c.nextPos
	c.nextPos++
	return pos
}

func (c *compilerContext) pushCTE(name string) { c.cteStack = append(c.cteStack, name) }

func (c *compilerContext) popCTE() {
	if n := len(c.cteStack); n > 0 {
		c.cteStack = c.cteStack[:n-1]
	}
}

// warn records an advisory message about a lossy rendering (e.g. a
// dialect that silently drops an ordered aggregate's ORDER BY).
func (c *compilerContext) warn(msg string) {
	c.warnings = append(c.warnings, msg)
}

func (c *compilerContext) inCTEScope(name string) bool {
	for _, n := range c.cteStack {
		if n == name {
			return true
		}
	}
	return false
}
