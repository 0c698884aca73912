package sql

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sqlcraft/core/dialect"
)

// CompileFunc compiles a single operand in the context of the active
// compile call, returning its rendered SQL text. Calling it appends any
// Literal it encounters to the statement's parameter vector in the order
// it is called, which lets a FuncRender reorder its own arguments (e.g.
// LOG_BASE's SQLite rewrite) while keeping params consistent with the
// rendered SQL text, per P1.
type CompileFunc func(Operand) (string, error)

// FuncRenderArgs is passed to a registered renderer. Name is already
// resolved (variant override, falling back to defaultName, falling back
// to the key) by the time the renderer runs.
type FuncRenderArgs struct {
	Node    *Function
	Dialect dialect.Name
	Name    string
	Compile CompileFunc
	// InlineLiteral renders v as literal SQL text (e.g. via the dialect's
	// formatLit), bypassing the parameter vector entirely. Renderers must
	// use this, not Compile, for arguments a dialect requires to be a
	// constant at parse time (MySQL's GROUP_CONCAT ... SEPARATOR, for
	// instance, rejects a placeholder there outright).
	InlineLiteral func(any) (string, error)
	// Warn records an advisory message on the enclosing compile call's
	// Compiled.Warnings, for a rendering that silently drops part of the
	// request (e.g. SQLite's GROUP_CONCAT has no ORDER BY support).
	Warn func(string)
}

// FuncRenderer produces the final SQL text for a function call.
type FuncRenderer func(FuncRenderArgs) (string, error)

// DialectVariant overrides a FunctionDef's rendering for one dialect.
type DialectVariant struct {
	// Name overrides the SQL identifier emitted for the default renderer.
	Name string
	// Render overrides the renderer entirely.
	Render FuncRenderer
	// Available, when explicitly set to false, makes resolution fail
	// with UnsupportedFunction for this dialect. Unset (nil) means
	// available.
	Available *bool
}

func unavailable() *bool { f := false; return &f }

// FunctionDef is one entry in a FunctionRegistry, keyed canonically
// (upper-case).
type FunctionDef struct {
	Key         string
	DefaultName string
	Render      FuncRenderer
	Variants    map[dialect.Name]DialectVariant
}

// FunctionRegistry is a concurrency-safe, read-mostly map from canonical
// function key to its dialect-aware definition. Register fails with
// AlreadyRegistered on a duplicate key so dialects sharing a process-wide
// registry can't silently clobber each other; a key not yet present can
// be registered at any time.
type FunctionRegistry struct {
	mu   sync.RWMutex
	defs map[string]FunctionDef
}

// NewFunctionRegistry returns an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{defs: make(map[string]FunctionDef)}
}

// Register adds def under its (upper-cased) Key. Fails with
// AlreadyRegistered if the key is already present.
func (r *FunctionRegistry) Register(def FunctionDef) error {
	key := strings.ToUpper(def.Key)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[key]; ok {
		return dialect.NewError(dialect.AlreadyRegistered, "Register", fmt.Errorf("function key %q already registered", key))
	}
	def.Key = key
	r.defs[key] = def
	return nil
}

// MustRegister panics on error; used only to build the package-level
// default registries at init time.
func (r *FunctionRegistry) MustRegister(def FunctionDef) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// lookup returns the definition for key (case-insensitive), ok=false if
// absent.
func (r *FunctionRegistry) lookup(key string) (FunctionDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[strings.ToUpper(key)]
	return def, ok
}

// resolveName picks a function's SQL name: the variant's Name, else
// defaultName, else the key.
func (v DialectVariant) resolveName(defaultName, key string) string {
	switch {
	case v.Name != "":
		return v.Name
	case defaultName != "":
		return defaultName
	default:
		return key
	}
}

// Resolve runs the §4.2 resolution algorithm for a scalar/aggregate
// function call and returns its compiled SQL text. inlineLiteral renders
// a value as literal SQL text outside the parameter vector, for
// arguments (e.g. MySQL's GROUP_CONCAT ... SEPARATOR) a dialect requires
// to be a constant rather than a bound placeholder.
func (r *FunctionRegistry) Resolve(node *Function, d dialect.Name, compile CompileFunc, inlineLiteral func(any) (string, error), warn func(string)) (string, error) {
	def, ok := r.lookup(node.Key)
	if !ok {
		return "", dialect.NewError(dialect.UnsupportedFunction, "Resolve", fmt.Errorf("unregistered function %q", node.Key))
	}
	variant := def.Variants[d]
	if variant.Available != nil && !*variant.Available {
		return "", dialect.NewError(dialect.UnsupportedFunction, "Resolve", fmt.Errorf("function %q is unavailable for dialect %s", node.Key, d))
	}
	renderer := variant.Render
	if renderer == nil {
		renderer = def.Render
	}
	name := variant.resolveName(def.DefaultName, def.Key)
	args := FuncRenderArgs{Node: node, Dialect: d, Name: name, Compile: compile, InlineLiteral: inlineLiteral, Warn: warn}
	if renderer != nil {
		return renderer(args)
	}
	return defaultRender(args)
}

// defaultRender implements §4.2 step 5: `"${name}(${compiledArgs.join(', ')})"`.
func defaultRender(a FuncRenderArgs) (string, error) {
	parts := make([]string, len(a.Node.Args))
	for i, arg := range a.Node.Args {
		s, err := a.Compile(arg)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return a.Name + "(" + strings.Join(parts, ", ") + ")", nil
}

// TableFuncRenderArgs is passed to a registered table-function renderer.
type TableFuncRenderArgs struct {
	Node    *FunctionTable
	Dialect dialect.Name
	Compile CompileFunc
}

// TableFuncRenderer produces the final `FROM` source text for a
// table-valued function call.
type TableFuncRenderer func(TableFuncRenderArgs) (string, error)

// TableFunctionRegistry maps a canonical key to a per-dialect table
// function renderer. Kept distinct from FunctionRegistry per §4.2's
// "separate table-function strategy".
type TableFunctionRegistry struct {
	mu   sync.RWMutex
	defs map[string]map[dialect.Name]TableFuncRenderer
}

// NewTableFunctionRegistry returns an empty registry.
func NewTableFunctionRegistry() *TableFunctionRegistry {
	return &TableFunctionRegistry{defs: make(map[string]map[dialect.Name]TableFuncRenderer)}
}

// Register adds a renderer for key+dialect. Fails with AlreadyRegistered
// if one is already registered for that exact pair.
func (r *TableFunctionRegistry) Register(key string, d dialect.Name, render TableFuncRenderer) error {
	key = strings.ToUpper(key)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.defs[key] == nil {
		r.defs[key] = make(map[dialect.Name]TableFuncRenderer)
	}
	if _, ok := r.defs[key][d]; ok {
		return dialect.NewError(dialect.AlreadyRegistered, "Register", fmt.Errorf("table function %q already registered for %s", key, d))
	}
	r.defs[key][d] = render
	return nil
}

func (r *TableFunctionRegistry) MustRegister(key string, d dialect.Name, render TableFuncRenderer) {
	if err := r.Register(key, d, render); err != nil {
		panic(err)
	}
}

// lookup returns the renderer for key+dialect, ok=false if absent.
func (r *TableFunctionRegistry) lookup(key string, d dialect.Name) (TableFuncRenderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byDialect, ok := r.defs[strings.ToUpper(key)]
	if !ok {
		return nil, false
	}
	render, ok := byDialect[d]
	return render, ok
}
