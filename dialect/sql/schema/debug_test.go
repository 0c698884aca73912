package schema

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDumpPlan_RendersChangesAndWarnings(t *testing.T) {
	plan := DiffPlan{
		Changes: []Change{
			{Kind: CreateTable, Table: "users", Statements: []string{"CREATE TABLE users (id INTEGER);"}, Safe: true},
			{Kind: DropColumnK, Table: "users", Column: "legacy", Statements: []string{"ALTER TABLE users DROP COLUMN legacy;"}, Safe: false},
		},
		Warnings: []string{"manual review recommended"},
	}

	var buf bytes.Buffer
	DumpPlan(&buf, plan)
	out := buf.String()

	assert.Contains(t, out, "1. [safe] createTable users")
	assert.Contains(t, out, "CREATE TABLE users (id INTEGER);")
	assert.Contains(t, out, "2. [unsafe] dropColumn users.legacy")
	assert.Contains(t, out, "warning: manual review recommended")
}

func TestDumpPlan_EmptyPlanProducesNoOutput(t *testing.T) {
	var buf bytes.Buffer
	DumpPlan(&buf, DiffPlan{})
	assert.Empty(t, buf.String())
}
