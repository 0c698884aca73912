package dialect

import "fmt"

// Kind is a stable error classification. Every error this module returns
// is tagged with exactly one Kind, so callers can branch on failure mode
// without parsing error strings.
type Kind uint8

const (
	// KindUnknown is never returned by this module; it is the zero value
	// so a missing Kind check is visibly wrong rather than silently "ok".
	KindUnknown Kind = iota

	// InvalidArgument marks malformed input: an empty INSERT column list,
	// an UPDATE/DELETE with joins but no FROM/USING, a variadic combinator
	// called with too few operands, an identifier that cannot be quoted.
	InvalidArgument

	// UnsupportedFeature marks a feature the selected dialect does not
	// have: RETURNING on MySQL, a partial index on MySQL, FULL/RIGHT JOIN
	// on SQLite, an MSSQL OUT parameter without a dbType.
	UnsupportedFeature

	// UnsupportedTableFunction marks a table-function call whose explicit
	// key has no renderer registered for the dialect.
	UnsupportedTableFunction

	// UnsupportedFunction marks a scalar/aggregate function call whose key
	// has no renderer, or whose dialect variant is marked unavailable.
	UnsupportedFunction

	// AlreadyRegistered marks a duplicate function key registered on the
	// same FunctionRegistry.
	AlreadyRegistered

	// IntrospectionFailed marks a catalog query that returned an
	// unexpected shape, or failed at the Executor level.
	IntrospectionFailed

	// DiffAborted marks a destructive change skipped because
	// allowDestructive was false and strict mode was requested.
	DiffAborted

	// SyncFailed marks an execution failure during synchronize, after at
	// least one change statement had already been sent to the Executor.
	SyncFailed
)

// String renders the Kind's stable name.
func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case UnsupportedFeature:
		return "UnsupportedFeature"
	case UnsupportedTableFunction:
		return "UnsupportedTableFunction"
	case UnsupportedFunction:
		return "UnsupportedFunction"
	case AlreadyRegistered:
		return "AlreadyRegistered"
	case IntrospectionFailed:
		return "IntrospectionFailed"
	case DiffAborted:
		return "DiffAborted"
	case SyncFailed:
		return "SyncFailed"
	default:
		return "Unknown"
	}
}

// Error is the single error type every package in this module returns.
// Op names the operation that failed (e.g. "compileSelect", "diffSchema"),
// matching the teacher's convention of prefixing wrapped errors with the
// call site.
type Error struct {
	Kind Kind
	Op   string
	Err  error

	// ChangeIndex, RollbackOK and RollbackApplies are populated only for
	// SyncFailed: the index of the change that failed, whether the
	// rollback succeeded, and whether a rollback was attempted at all.
	ChangeIndex     int
	RollbackOK      bool
	RollbackApplies bool
}

// NewError constructs an *Error with the given kind, operation name, and
// wrapped cause (which may be nil).
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Op != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return e.Kind.String()
	}
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind carried by err, or KindUnknown if err is nil or
// not a *Error (directly or through its Unwrap chain is not followed
// here deliberately: Kind is set once at the point of failure and should
// not be inherited from an unrelated wrapped cause).
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is a *Error of the given Kind, i.e.
// KindOf(err) == k. It is a plain method; errors.Is does not consult it.
func (k Kind) Is(err error) bool { return KindOf(err) == k }
