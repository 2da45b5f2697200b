package tiger

import (
	"testing"

	"github.com/nalgeon/be"
)

// findNodes returns the nodes of the given kind and name in creation order.
func findNodes(tree *Tree, kind NodeKind, name string) []NodeID {
	var ids []NodeID
	for id := NodeID(1); int(id) < tree.Len(); id++ {
		if n := tree.Node(id); n.Kind == kind && n.Name == name {
			ids = append(ids, id)
		}
	}
	return ids
}

func checkedTree(t *testing.T, src string) (*Tree, *Compilation) {
	t.Helper()
	tree := mustRead(t, src)
	c := NewCompilation(tree, nil)
	be.Err(t, c.Check(), nil)
	return tree, c
}

func TestResolveVariableShadowing(t *testing.T) {
	tree, c := checkedTree(t, `(let ((vardec x 1)) (let ((vardec x "s")) x))`)
	decls := findNodes(tree, NodeVarDecl, "x")
	uses := findNodes(tree, NodeSimpleVar, "x")
	be.Equal(t, len(decls), 2)
	be.Equal(t, len(uses), 1)

	inner, ok := c.ResolveVariable("x", uses[0])
	be.True(t, ok)
	be.Equal(t, inner.Decl, decls[1])
	be.Equal(t, inner.Type, TypeString)
	be.Equal(t, inner.Offset, 1)
	be.Equal(t, inner.Depth, 0)
	be.True(t, !inner.ReadOnly)

	// The inner initializer still sees the outer x.
	outer, ok := c.ResolveVariable("x", tree.Node(decls[1]).Exp)
	be.True(t, ok)
	be.Equal(t, outer.Decl, decls[0])
	be.Equal(t, outer.Type, TypeInt)
	be.Equal(t, outer.Offset, 0)

	// Nothing is visible from the outer initializer.
	_, ok = c.ResolveVariable("x", tree.Node(decls[0]).Exp)
	be.True(t, !ok)
}

func TestResolveVariableBelow(t *testing.T) {
	tree, c := checkedTree(t, `(let ((vardec x 1)) (let ((vardec x 2)) x))`)
	use := findNodes(tree, NodeSimpleVar, "x")[0]
	decls := findNodes(tree, NodeVarDecl, "x")

	info, ok := c.ResolveVariableBelow("x", use, 5)
	be.True(t, ok)
	be.Equal(t, info.Decl, decls[1])

	info, ok = c.ResolveVariableBelow("x", use, 0)
	be.True(t, ok)
	be.Equal(t, info.Decl, decls[0])

	_, ok = c.ResolveVariableBelow("x", use, -1)
	be.True(t, !ok)
}

func TestResolveVariableThroughFunction(t *testing.T) {
	tree, c := checkedTree(t, `(let ((vardec x 10) (fundec g () int x)) (call g))`)
	use := findNodes(tree, NodeSimpleVar, "x")[0]
	be.Equal(t, c.FrameDepth(use), 1)
	be.Equal(t, c.FrameOffset(use), 5)

	info, ok := c.ResolveVariableBelow("x", use, c.FrameOffset(use)-1)
	be.True(t, ok)
	be.Equal(t, info.Offset, 0)
	be.Equal(t, info.Depth, 0)
}

func TestResolveParameters(t *testing.T) {
	tree, c := checkedTree(t, `(let ((fundec f ((a int) (b string)) int a)) (call f 1 "s"))`)
	use := findNodes(tree, NodeSimpleVar, "a")[0]

	a, ok := c.ResolveVariable("a", use)
	be.True(t, ok)
	be.Equal(t, a.Decl, findNodes(tree, NodeField, "a")[0])
	be.Equal(t, a.Offset, 3)
	be.Equal(t, a.Depth, 1)

	b, ok := c.ResolveVariable("b", use)
	be.True(t, ok)
	be.Equal(t, b.Type, TypeString)
	be.Equal(t, b.Offset, 4)

	// Parameters are not visible outside the function.
	_, ok = c.ResolveVariable("a", tree.Main())
	be.True(t, !ok)
}

func TestResolveLoopVariable(t *testing.T) {
	tree, c := checkedTree(t, `(for i 1 3 (call printi i))`)
	use := findNodes(tree, NodeSimpleVar, "i")[0]
	info, ok := c.ResolveVariable("i", use)
	be.True(t, ok)
	be.Equal(t, info.Decl, tree.Main())
	be.Equal(t, info.Type, TypeInt)
	be.Equal(t, info.Offset, 0)
	be.True(t, info.ReadOnly)

	// The bounds are outside the loop variable's scope.
	_, ok = c.ResolveVariable("i", tree.Node(tree.Main()).Lo)
	be.True(t, !ok)
}

func TestResolveRecursiveFunction(t *testing.T) {
	tree, c := checkedTree(t, `
(let ((fundec f ((n int)) int
        (if (binary "<" n 1) 0 (call f (binary "-" n 1)))))
  (call f 3))`)
	decl := findNodes(tree, NodeFuncDecl, "f")[0]
	calls := findNodes(tree, NodeCall, "f")
	be.Equal(t, len(calls), 2)

	for _, call := range calls {
		f, ok := c.ResolveFunction("f", call)
		be.True(t, ok)
		be.Equal(t, f.Decl, decl)
		be.Equal(t, f.Label, "f_f1")
		be.Equal(t, f.Result, TypeInt)
		be.Equal(t, len(f.Params), 1)
		be.Equal(t, f.Depth, 0)
	}

	// Functions and variables live in separate namespaces.
	_, ok := c.ResolveVariable("f", calls[0])
	be.True(t, !ok)
}

func TestResolveMutualRecursion(t *testing.T) {
	tree, c := checkedTree(t, `
(let ((functions
        (fundec even ((n int)) bool (if (binary "=" n 0) true (call odd (binary "-" n 1))))
        (fundec odd ((n int)) bool (if (binary "=" n 0) false (call even (binary "-" n 1))))))
  (call even 4))`)
	be.Equal(t, TypeToString(c.TypeOf(tree.Main())), "bool")

	call := findNodes(tree, NodeCall, "odd")[0]
	even, ok := c.ResolveFunction("even", call)
	be.True(t, ok)
	be.Equal(t, even.Label, "even_f1")
	odd, ok := c.ResolveFunction("odd", call)
	be.True(t, ok)
	be.Equal(t, odd.Label, "odd_f2")
}

func TestResolveLibrary(t *testing.T) {
	tree, c := checkedTree(t, `(call printi 1)`)
	f, ok := c.ResolveFunction("printi", tree.Main())
	be.True(t, ok)
	be.Equal(t, f.Decl, NoNode)
	be.Equal(t, f.Label, "printi")
	be.Equal(t, f.Result, TypeVoid)

	_, ok = c.ResolveFunction("tdiv", tree.Main())
	be.True(t, !ok)
}

func TestUserFunctionShadowsLibrary(t *testing.T) {
	tree, c := checkedTree(t, `(let ((fundec print ((n int)) n)) (call print 1))`)
	f, ok := c.ResolveFunction("print", tree.Node(tree.Main()).Body)
	be.True(t, ok)
	be.Equal(t, f.Label, "print_f1")
	be.Equal(t, f.Params[0], TypeInt)
}

func TestResolveType(t *testing.T) {
	tree, c := checkedTree(t, `(let ((type num int) (type p (record (x num)))) (record p (x 1)))`)
	body := tree.Node(tree.Main()).Body

	num, ok := c.ResolveType("num", body)
	be.True(t, ok)
	be.Equal(t, num, TypeInt)

	p, ok := c.ResolveType("p", body)
	be.True(t, ok)
	be.Equal(t, p.Kind, TypeRecord)
	be.Equal(t, c.TypeOf(body), p)

	str, ok := c.ResolveType("string", body)
	be.True(t, ok)
	be.Equal(t, str, TypeString)

	// Declarations see only the ones before them.
	_, ok = c.ResolveType("p", tree.Node(tree.Main()).Decls)
	be.True(t, !ok)
	_, ok = c.ResolveType("void", body)
	be.True(t, !ok)
}
