package tiger

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a diagnostic.
type ErrorKind string

const (
	ErrUndefined        ErrorKind = "undefined-symbol"
	ErrTypeMismatch     ErrorKind = "type-mismatch"
	ErrArity            ErrorKind = "arity-mismatch"
	ErrRedeclared       ErrorKind = "redeclared-symbol"
	ErrScopeStructure   ErrorKind = "scope-structure"
	ErrCycle            ErrorKind = "cycle"
	ErrUnsupported      ErrorKind = "unsupported"
	ErrRegisterOverflow ErrorKind = "register-overflow"
	WarnDegenerate      ErrorKind = "degenerate"
)

// Error is a diagnostic reported during checking or emission.
// Non-fatal diagnostics are warnings.
type Error struct {
	Pos   Pos
	Kind  ErrorKind
	Msg   string
	Fatal bool
}

func (e *Error) Error() string {
	severity := "error"
	if !e.Fatal {
		severity = "warning"
	}
	if !e.Pos.IsKnown() {
		return fmt.Sprintf("%s: %s", severity, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, severity, e.Msg)
}

// ErrorHandler receives every diagnostic as it is reported.
type ErrorHandler func(err *Error)

// ErrorList is a list of diagnostics in report order.
type ErrorList []*Error

func (l ErrorList) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Fatal returns the fatal diagnostics of l.
func (l ErrorList) Fatal() ErrorList {
	var out ErrorList
	for _, e := range l {
		if e.Fatal {
			out = append(out, e)
		}
	}
	return out
}

// Warnings returns the non-fatal diagnostics of l.
func (l ErrorList) Warnings() ErrorList {
	var out ErrorList
	for _, e := range l {
		if !e.Fatal {
			out = append(out, e)
		}
	}
	return out
}

// Err returns the fatal diagnostics as an error, or nil if there are none.
func (l ErrorList) Err() error {
	if fatal := l.Fatal(); len(fatal) > 0 {
		return fatal
	}
	return nil
}

// bailout unwinds an aborted compilation back to its public entry point.
type bailout struct{}

func (c *Compilation) report(err *Error) {
	if c.quiet {
		return
	}
	c.errors = append(c.errors, err)
	if c.conf.Error != nil {
		c.conf.Error(err)
	}
}

// errorf reports a fatal error and keeps going. Callers return the error
// type so the fault is not reported again further up.
func (c *Compilation) errorf(at NodeID, kind ErrorKind, format string, args ...any) {
	c.report(&Error{Pos: c.pos(at), Kind: kind, Msg: fmt.Sprintf(format, args...), Fatal: true})
}

// fatalf reports a fatal error and aborts the compilation.
func (c *Compilation) fatalf(at NodeID, kind ErrorKind, format string, args ...any) {
	err := &Error{Pos: c.pos(at), Kind: kind, Msg: fmt.Sprintf(format, args...), Fatal: true}
	c.report(err)
	panic(bailout{})
}

func (c *Compilation) warnf(at NodeID, format string, args ...any) {
	c.report(&Error{Pos: c.pos(at), Kind: WarnDegenerate, Msg: fmt.Sprintf(format, args...)})
}

func (c *Compilation) pos(id NodeID) Pos {
	if id == NoNode {
		return Pos{}
	}
	return c.tree.Node(id).Pos
}

// recover converts an abort into the compilation's returned error. Once a
// compilation has aborted, later entry points keep failing the same way.
func (c *Compilation) recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if _, ok := r.(bailout); !ok {
		panic(r)
	}
	c.aborted = true
	*err = c.errors.Err()
}

// query runs an exported accessor and reports whether it completed. An abort
// stops here instead of reaching the caller. Once the compilation has
// aborted, queries add no further diagnostics: the first failure stands.
func (c *Compilation) query(eval func()) (ok bool) {
	if c.aborted {
		c.quiet = true
		defer func() { c.quiet = false }()
	}
	defer func() {
		if r := recover(); r != nil {
			if _, bail := r.(bailout); !bail {
				panic(r)
			}
			c.aborted = true
			ok = false
		}
	}()
	eval()
	return true
}
