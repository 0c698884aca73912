package schema

import (
	"fmt"
	"io"

	"github.com/k0kubun/pp/v3"
)

// Dump pretty-prints v (a TableDef, DatabaseSchema, DiffPlan, or any other
// value from this package) to w, for interactive inspection while
// authoring or debugging a schema config.
func Dump(w io.Writer, v any) {
	printer := pp.New()
	printer.SetOutput(w)
	printer.Print(v)
}

// DumpPlan renders a DiffPlan as a human-readable change list, one line
// per change, annotated with its safety classification.
func DumpPlan(w io.Writer, plan DiffPlan) {
	for i, c := range plan.Changes {
		safety := "safe"
		if !c.Safe {
			safety = "unsafe"
		}
		fmt.Fprintf(w, "%d. [%s] %s %s\n", i+1, safety, c.Kind, changeTarget(c))
		for _, stmt := range c.Statements {
			fmt.Fprintf(w, "     %s\n", stmt)
		}
	}
	for _, warn := range plan.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}
