package tiger

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func checkSource(t *testing.T, src string) (*Compilation, error) {
	t.Helper()
	c := NewCompilation(mustRead(t, src), nil)
	return c, c.Check()
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		src      string
		expected string
	}{
		{`42`, "int"},
		{`"s"`, "string"},
		{`true`, "bool"},
		{`nil`, "nil"},
		{`(seq)`, "void"},
		{`(binary "+" 14 6)`, "int"},
		{`(binary "<" 1 2)`, "bool"},
		{`(binary "<>" "a" "b")`, "bool"},
		{`(if (binary ">" 3 2) "a" "b")`, "string"},
		{`(if true 1)`, "void"},
		{`(seq 1 "two")`, "string"},
		{`(let ((vardec x 5)) x)`, "int"},
		{`(let ((vardec x 1)) (let ((vardec x "s")) x))`, "string"},
		{`(let ((vardec x 1)) (assign x 2))`, "void"},
		{`(let ((type num int) (vardec x num 3)) (binary "+" x 1))`, "int"},
		{`(let ((type p (record (x int)))) (record p (x 1)))`, "p"},
		{`(let ((type p (record (x int))) (vardec v p nil)) (field v x))`, "int"},
		{`(let ((type ints (array int))) (array ints 10 0))`, "ints"},
		{`(let ((type ints (array int)) (vardec a ints (array ints 10 0))) (subscript a 3))`, "int"},
		{`(let ((type p (record (x int)))) (if true nil (record p (x 1))))`, "p"},
		{`(let ((types (type list (record (head int) (tail list))))) (record list (head 1) (tail nil)))`, "list"},
		{`(call chr 65)`, "string"},
		{`(while true break)`, "void"},
		{`(while 1 break)`, "void"},
		{`(for i 1 3 (call printi i))`, "void"},
		{`(let ((fundec f ((n int)) int (if (binary "<" n 1) 0 (call f (binary "-" n 1))))) (call f 3))`, "int"},
	}

	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			c, err := checkSource(t, test.src)
			be.Err(t, err, nil)
			be.Equal(t, TypeToString(c.TypeOf(c.Tree().Main())), test.expected)
		})
	}
}

func TestTypeErrors(t *testing.T) {
	tests := []struct {
		src      string
		expected string
		kind     ErrorKind
	}{
		{`(binary "+" 1 "a")`, "operator +: expected int, found string", ErrTypeMismatch},
		{`(binary "<" 1 "a")`, "operator <: expected int, found string", ErrTypeMismatch},
		{`(binary "=" true false)`, "operator =: expected int or string, found bool", ErrTypeMismatch},
		{`(if 1 2 3)`, "if condition: expected bool, found int", ErrTypeMismatch},
		{`(if true 1 "a")`, "if branches: expected int, found string", ErrTypeMismatch},
		{`(while "s" 0)`, "while condition: expected bool, found string", ErrTypeMismatch},
		{`(for i "a" 2 0)`, "for bound: expected int, found string", ErrTypeMismatch},
		{`(for i 1 2 (assign i 5))`, "cannot assign to loop variable 'i'", ErrTypeMismatch},
		{`(call printi 1 2)`, "function 'printi' expects 1 arguments, found 2", ErrArity},
		{`(call printi "x")`, "argument 1 of 'printi': expected int, found string", ErrTypeMismatch},
		{`(let ((vardec x 1)) (assign x "s"))`, "assignment: expected int, found string", ErrTypeMismatch},
		{`(let ((vardec x int nil)) x)`, "variable 'x': expected int, found nil", ErrTypeMismatch},
		{`(let ((vardec x nil)) 0)`, "variable 'x' initialized with nil needs a record type", ErrTypeMismatch},
		{`(let ((vardec x (call printi 1))) 0)`, "variable 'x' initialized with a valueless expression", ErrTypeMismatch},
		{`(let ((fundec f () int "s")) 0)`, "function 'f' result: expected int, found string", ErrTypeMismatch},
		{`(let ((functions (fundec f () 0) (fundec f () 1))) 0)`, "function 'f' declared twice in one group", ErrRedeclared},
		{`(let ((types (type t int) (type t string))) 0)`, "type 't' declared twice in one group", ErrRedeclared},
		{`(let ((fundec f ((a int) (a int)) 0)) 0)`, "parameter 'a' declared twice in function 'f'", ErrRedeclared},
		{`(let ((type p (record (x int) (x int)))) 0)`, "field 'x' declared twice", ErrRedeclared},
		{`(let ((type p (record (x int)))) (record p (y 1)))`, "record 'p' field 1: expected 'x', found 'y'", ErrTypeMismatch},
		{`(let ((type p (record (x int)))) (record p (x "s")))`, "field 'x': expected int, found string", ErrTypeMismatch},
		{`(let ((type p (record (x int)))) (record p))`, "record 'p' has 1 fields, found 0", ErrArity},
		{`(record int)`, "record creation: expected record type, found int", ErrTypeMismatch},
		{`(let ((type p (record (x int))) (vardec v p nil)) (field v z))`, "record p has no field 'z'", ErrUndefined},
		{`(let ((vardec v 1)) (field v z))`, "field access: expected record, found int", ErrTypeMismatch},
		{`(let ((type ints (array int))) (array ints 10 "x"))`, "array element: expected int, found string", ErrTypeMismatch},
		{`(let ((type ints (array int))) (array ints "n" 0))`, "array size: expected int, found string", ErrTypeMismatch},
		{`(let ((vardec v 1)) (subscript v 0))`, "subscript: expected array, found int", ErrTypeMismatch},
		{
			`(let ((type a (record (x int))) (type b (record (x int))) (vardec v a nil)) (assign v (record b (x 1))))`,
			"assignment: expected a, found b",
			ErrTypeMismatch,
		},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			c, err := checkSource(t, test.src)
			be.Err(t, err, test.expected)
			fatal := c.Errors().Fatal()
			be.Equal(t, len(fatal), 1)
			be.Equal(t, fatal[0].Kind, test.kind)
		})
	}
}

func TestAbortingErrors(t *testing.T) {
	tests := []struct {
		src      string
		expected string
		kind     ErrorKind
	}{
		{`(seq (let ((vardec x 5)) x) x)`, "1:29: error: undefined variable 'x'", ErrUndefined},
		{`(let ((vardec x x)) x)`, "undefined variable 'x'", ErrUndefined},
		{`(call nope)`, "undefined function 'nope'", ErrUndefined},
		{`(let ((vardec x nope 1)) 0)`, "undefined type 'nope'", ErrUndefined},
		{`break`, "break outside of a loop", ErrScopeStructure},
		{`(while true (let ((fundec f () break)) 0))`, "break outside of a loop", ErrScopeStructure},
		{`(let ((types (type a b) (type b a))) 0)`, "depends on itself", ErrCycle},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			c, err := checkSource(t, test.src)
			be.Err(t, err, test.expected)
			be.Equal(t, c.Errors()[len(c.Errors())-1].Kind, test.kind)

			// An aborted compilation keeps failing the same way.
			be.Err(t, c.Check(), test.expected)
			be.Err(t, c.Emit(&strings.Builder{}), test.expected)
		})
	}
}

func TestErrorSentinelSuppressesCascades(t *testing.T) {
	c, err := checkSource(t, `(binary "*" (binary "+" 1 "a") (call printi 1 2))`)
	be.True(t, err != nil)
	fatal := c.Errors().Fatal()
	be.Equal(t, len(fatal), 2)
	be.Equal(t, fatal[0].Msg, "operator +: expected int, found string")
	be.Equal(t, fatal[1].Msg, "function 'printi' expects 1 arguments, found 2")
	be.Equal(t, c.TypeOf(c.Tree().Main()), TypeError)
}

func TestWarnings(t *testing.T) {
	var reported []string
	c := NewCompilation(mustRead(t, `(if true 1)`), &Config{
		Error: func(err *Error) { reported = append(reported, err.Error()) },
	})
	be.Err(t, c.Check(), nil)
	be.Equal(t, strings.Join(reported, "\n"), "1:1: warning: value of if-then without else is discarded")
	be.Equal(t, len(c.Errors().Warnings()), 1)
	be.Equal(t, c.Errors().Warnings()[0].Kind, WarnDegenerate)

	// Asking for the type of a node that has none is degenerate, not fatal.
	tree := mustRead(t, `(let ((vardec x 1)) x)`)
	c = NewCompilation(tree, nil)
	be.Err(t, c.Check(), nil)
	be.Equal(t, c.TypeOf(tree.Node(tree.Main()).Decls), TypeVoid)
	be.Err(t, c.Errors().Warnings()[0], "NodeDeclList has no type; treating it as void")
}

func TestErrorPositionFromMetadata(t *testing.T) {
	_, err := checkSource(t, `(binary "+" 1 (string "a" ^{line: 7, col: 3}))`)
	be.Err(t, err, "7:3: error: operator +: expected int, found string")
}

func TestErrorListFormat(t *testing.T) {
	list := ErrorList{
		{Pos: Pos{3, 5}, Kind: ErrUndefined, Msg: "undefined variable 'x'", Fatal: true},
		{Pos: Pos{4, 1}, Kind: WarnDegenerate, Msg: "odd"},
		{Kind: ErrScopeStructure, Msg: "no root", Fatal: true},
	}
	be.Equal(t, list.Error(), "3:5: error: undefined variable 'x'\n4:1: warning: odd\nerror: no root")
	be.Equal(t, len(list.Fatal()), 2)
	be.Equal(t, list.Err().Error(), "3:5: error: undefined variable 'x'\nerror: no root")
	be.Err(t, ErrorList{list[1]}.Err(), nil)
}

func TestTypesEqual(t *testing.T) {
	a := &TypeNode{Kind: TypeRecord, String: "p", Decl: 1}
	b := &TypeNode{Kind: TypeRecord, String: "p", Decl: 2}
	be.True(t, TypesEqual(TypeInt, TypeInt))
	be.True(t, TypesEqual(TypeInt, &TypeNode{Kind: TypeBuiltin, String: "int"}))
	be.True(t, TypesEqual(a, a))
	be.True(t, !TypesEqual(a, b))
	be.True(t, !TypesEqual(TypeInt, TypeString))
	be.True(t, !TypesEqual(TypeInt, nil))

	be.True(t, assignable(a, TypeNil))
	be.True(t, !assignable(TypeInt, TypeNil))
	be.Equal(t, unify(TypeNil, a), a)
	be.True(t, unify(TypeInt, TypeString) == nil)

	be.Equal(t, TypeToString(&TypeNode{Kind: TypeArray, Child: TypeInt}), "array of int")
	be.Equal(t, TypeToString(&TypeNode{Kind: TypeRecord}), "record")
	be.Equal(t, TypeToString(nil), "<nil>")
}
