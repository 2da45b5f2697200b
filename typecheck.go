package tiger

// typeOf returns the type of an expression, variable or declaration node.
func (c *Compilation) typeOf(id NodeID) *TypeNode {
	return c.types.of(c, id)
}

// TypeOf returns the checked type of id, TypeError if it has none.
func (c *Compilation) TypeOf(id NodeID) *TypeNode {
	t := TypeError
	c.query(func() { t = c.typeOf(id) })
	return t
}

// evalType is the type checker's rule table. Errors are reported once and
// answered with TypeError, which every rule passes through silently.
func (c *Compilation) evalType(id NodeID) *TypeNode {
	n := c.tree.Node(id)
	switch n.Kind {
	case NodeNil:
		return TypeNil
	case NodeInt:
		return TypeInt
	case NodeBool:
		return TypeBool
	case NodeString:
		return TypeString
	case NodeRecord:
		return c.checkRecord(id)
	case NodeArray:
		return c.checkArray(id)
	case NodeVarRef:
		return c.typeOf(n.Var)
	case NodeArith:
		return c.checkArith(id)
	case NodeCompare:
		return c.checkCompare(id)
	case NodeAssign:
		return c.checkAssign(id)
	case NodeLet:
		if n.Body == NoNode {
			return TypeVoid
		}
		return c.typeOf(n.Body)
	case NodeCall:
		return c.checkCall(id)
	case NodeIf:
		return c.checkIf(id)
	case NodeWhile:
		test := c.typeOf(n.Test)
		if !isError(test) && test != TypeBool && test != TypeInt {
			c.errorf(n.Test, ErrTypeMismatch, "while condition: expected bool, found %s", TypeToString(test))
		}
		c.typeOf(n.Body)
		return TypeVoid
	case NodeFor:
		for _, bound := range []NodeID{n.Lo, n.Hi} {
			if t := c.typeOf(bound); !isError(t) && t != TypeInt {
				c.errorf(bound, ErrTypeMismatch, "for bound: expected int, found %s", TypeToString(t))
			}
		}
		c.typeOf(n.Body)
		return TypeVoid
	case NodeBreak:
		c.enclosingLoop(id)
		return TypeVoid
	case NodeSeq:
		items := c.tree.Items(n.Exps)
		t := TypeVoid
		for _, e := range items {
			t = c.typeOf(e)
		}
		return t
	case NodeSimpleVar:
		return c.bindingTypes.of(c, c.mustResolveVarDecl(n.Name, id))
	case NodeFieldVar:
		return c.checkFieldVar(id)
	case NodeIndexVar:
		return c.checkIndexVar(id)
	case NodeVarDecl:
		return c.checkVarDecl(id)
	case NodeFuncDecl:
		return c.checkFuncDecl(id)
	}
	c.warnf(id, "%s has no type; treating it as void", n.Kind)
	return TypeVoid
}

func (c *Compilation) checkArith(id NodeID) *TypeNode {
	n := c.tree.Node(id)
	left, right := c.typeOf(n.Left), c.typeOf(n.Right)
	if isError(left, right) {
		return TypeError
	}
	ok := true
	for _, operand := range []NodeID{n.Left, n.Right} {
		if t := c.typeOf(operand); t != TypeInt {
			c.errorf(operand, ErrTypeMismatch, "operator %s: expected int, found %s", n.Op, TypeToString(t))
			ok = false
		}
	}
	if !ok {
		return TypeError
	}
	return TypeInt
}

func (c *Compilation) checkCompare(id NodeID) *TypeNode {
	n := c.tree.Node(id)
	left, right := c.typeOf(n.Left), c.typeOf(n.Right)
	if isError(left, right) {
		return TypeError
	}
	if left != TypeInt && left != TypeString {
		c.errorf(n.Left, ErrTypeMismatch, "operator %s: expected int or string, found %s", n.Op, TypeToString(left))
		return TypeError
	}
	if !TypesEqual(left, right) {
		c.errorf(n.Right, ErrTypeMismatch, "operator %s: expected %s, found %s", n.Op, TypeToString(left), TypeToString(right))
		return TypeError
	}
	return TypeBool
}

func (c *Compilation) checkAssign(id NodeID) *TypeNode {
	n := c.tree.Node(id)
	target, value := c.typeOf(n.Var), c.typeOf(n.Exp)
	if v := c.tree.Node(n.Var); v.Kind == NodeSimpleVar {
		if d, ok := c.resolveVarDecl(v.Name, n.Var); ok && c.tree.Node(d).Kind == NodeFor {
			c.errorf(id, ErrTypeMismatch, "cannot assign to loop variable '%s'", v.Name)
			return TypeError
		}
	}
	if isError(target, value) {
		return TypeError
	}
	if !assignable(target, value) {
		c.errorf(n.Exp, ErrTypeMismatch, "assignment: expected %s, found %s", TypeToString(target), TypeToString(value))
		return TypeError
	}
	return TypeVoid
}

func (c *Compilation) checkCall(id NodeID) *TypeNode {
	n := c.tree.Node(id)
	f := c.mustResolveFunction(n.Name, id)
	args := c.tree.Items(n.Args)
	if len(args) != len(f.Params) {
		for _, a := range args {
			c.typeOf(a)
		}
		c.errorf(id, ErrArity, "function '%s' expects %d arguments, found %d", n.Name, len(f.Params), len(args))
		return TypeError
	}
	ok := true
	for i, a := range args {
		t := c.typeOf(a)
		if isError(t) {
			ok = false
			continue
		}
		if !assignable(f.Params[i], t) {
			c.errorf(a, ErrTypeMismatch, "argument %d of '%s': expected %s, found %s",
				i+1, n.Name, TypeToString(f.Params[i]), TypeToString(t))
			ok = false
		}
	}
	if !ok {
		return TypeError
	}
	return f.Result
}

func (c *Compilation) checkIf(id NodeID) *TypeNode {
	n := c.tree.Node(id)
	test := c.typeOf(n.Test)
	if !isError(test) && test != TypeBool {
		c.errorf(n.Test, ErrTypeMismatch, "if condition: expected bool, found %s", TypeToString(test))
	}
	then := c.typeOf(n.Then)
	if n.Else == NoNode {
		if !isError(then) && then != TypeVoid {
			c.warnf(id, "value of if-then without else is discarded")
		}
		return TypeVoid
	}
	els := c.typeOf(n.Else)
	if isError(then, els) {
		return TypeError
	}
	t := unify(then, els)
	if t == nil {
		c.errorf(n.Else, ErrTypeMismatch, "if branches: expected %s, found %s", TypeToString(then), TypeToString(els))
		return TypeError
	}
	return t
}

func (c *Compilation) checkVarDecl(id NodeID) *TypeNode {
	n := c.tree.Node(id)
	declared := c.bindingTypes.of(c, id)
	init := c.typeOf(n.Exp)
	if n.TypeName != "" && !isError(declared, init) && !assignable(declared, init) {
		c.errorf(n.Exp, ErrTypeMismatch, "variable '%s': expected %s, found %s", n.Name, TypeToString(declared), TypeToString(init))
	}
	return TypeVoid
}

func (c *Compilation) checkFuncDecl(id NodeID) *TypeNode {
	n := c.tree.Node(id)
	f := c.signatures.of(c, id)
	body := c.typeOf(n.Body)
	if f.Result != TypeVoid && !isError(f.Result, body) && !assignable(f.Result, body) {
		c.errorf(n.Body, ErrTypeMismatch, "function '%s' result: expected %s, found %s", n.Name, TypeToString(f.Result), TypeToString(body))
	}
	return TypeVoid
}

func (c *Compilation) checkRecord(id NodeID) *TypeNode {
	n := c.tree.Node(id)
	t := c.mustResolveType(n.Name, id)
	inits := c.tree.Items(n.Fields)
	if isError(t) {
		return TypeError
	}
	if !isRecord(t) {
		for _, f := range inits {
			c.typeOf(c.tree.Node(f).Exp)
		}
		c.errorf(id, ErrTypeMismatch, "record creation: expected record type, found %s", TypeToString(t))
		return TypeError
	}
	fields := c.recordFields.of(c, t.Decl)
	if len(inits) != len(fields) {
		c.errorf(id, ErrArity, "record '%s' has %d fields, found %d", n.Name, len(fields), len(inits))
		return TypeError
	}
	ok := true
	for i, f := range inits {
		fn := c.tree.Node(f)
		v := c.typeOf(fn.Exp)
		switch {
		case fn.Name != fields[i].Name:
			c.errorf(f, ErrTypeMismatch, "record '%s' field %d: expected '%s', found '%s'", n.Name, i+1, fields[i].Name, fn.Name)
			ok = false
		case isError(v, fields[i].Type):
			ok = false
		case !assignable(fields[i].Type, v):
			c.errorf(fn.Exp, ErrTypeMismatch, "field '%s': expected %s, found %s", fn.Name, TypeToString(fields[i].Type), TypeToString(v))
			ok = false
		}
	}
	if !ok {
		return TypeError
	}
	return t
}

func (c *Compilation) checkArray(id NodeID) *TypeNode {
	n := c.tree.Node(id)
	t := c.mustResolveType(n.Name, id)
	size, init := c.typeOf(n.Size), c.typeOf(n.Exp)
	if isError(t) {
		return TypeError
	}
	if t.Kind != TypeArray {
		c.errorf(id, ErrTypeMismatch, "array creation: expected array type, found %s", TypeToString(t))
		return TypeError
	}
	ok := true
	if !isError(size) && size != TypeInt {
		c.errorf(n.Size, ErrTypeMismatch, "array size: expected int, found %s", TypeToString(size))
		ok = false
	}
	if !isError(init, t.Child) && !assignable(t.Child, init) {
		c.errorf(n.Exp, ErrTypeMismatch, "array element: expected %s, found %s", TypeToString(t.Child), TypeToString(init))
		ok = false
	}
	if !ok || isError(size, init) {
		return TypeError
	}
	return t
}

func (c *Compilation) checkFieldVar(id NodeID) *TypeNode {
	n := c.tree.Node(id)
	base := c.typeOf(n.Var)
	if isError(base) {
		return TypeError
	}
	if !isRecord(base) {
		c.errorf(n.Var, ErrTypeMismatch, "field access: expected record, found %s", TypeToString(base))
		return TypeError
	}
	for _, f := range c.recordFields.of(c, base.Decl) {
		if f.Name == n.Name {
			return f.Type
		}
	}
	c.errorf(id, ErrUndefined, "record %s has no field '%s'", TypeToString(base), n.Name)
	return TypeError
}

func (c *Compilation) checkIndexVar(id NodeID) *TypeNode {
	n := c.tree.Node(id)
	base, index := c.typeOf(n.Var), c.typeOf(n.Exp)
	if !isError(index) && index != TypeInt {
		c.errorf(n.Exp, ErrTypeMismatch, "array index: expected int, found %s", TypeToString(index))
		return TypeError
	}
	if isError(base) {
		return TypeError
	}
	if base.Kind != TypeArray {
		c.errorf(n.Var, ErrTypeMismatch, "subscript: expected array, found %s", TypeToString(base))
		return TypeError
	}
	return base.Child
}

// enclosingLoop returns the while or for loop whose body contains id.
// Function boundaries stop the search.
func (c *Compilation) enclosingLoop(id NodeID) NodeID {
	prev := id
	for n := c.parent(id); ; prev, n = n, c.parent(n) {
		node := c.tree.Node(n)
		switch node.Kind {
		case NodeWhile, NodeFor:
			if prev == node.Body {
				return n
			}
		case NodeFuncDecl, NodeRoot:
			c.fatalf(id, ErrScopeStructure, "break outside of a loop")
		}
	}
}

// Check type-checks every node of the program, children before parents,
// and forces the declarations the program never uses so their errors are
// reported too.
func (c *Compilation) Check() (err error) {
	if c.aborted || c.checked {
		return c.errors.Err()
	}
	defer c.recover(&err)
	if c.tree.root == NoNode {
		c.fatalf(NoNode, ErrScopeStructure, "the tree has no root")
	}
	c.walk(c.tree.root, func(id NodeID) {
		n := c.tree.Node(id)
		switch n.Kind {
		case NodeFuncGroup, NodeTypeGroup:
			c.scopes.of(c, id)
		case NodeFuncDecl:
			c.scopes.of(c, id)
			c.typeOf(id)
		case NodeTypeDecl:
			if t := c.declTypes.of(c, id); isRecord(t) {
				c.recordFields.of(c, t.Decl)
			}
		case NodeVarDecl, NodeSimpleVar, NodeFieldVar, NodeIndexVar:
			c.typeOf(id)
		default:
			if n.Kind.IsExpression() {
				c.typeOf(id)
			}
		}
	})
	c.checked = true
	return c.errors.Err()
}

// walk visits the descendants of id in post-order.
func (c *Compilation) walk(id NodeID, visit func(NodeID)) {
	for _, k := range c.tree.Children(id) {
		c.walk(k, visit)
	}
	visit(id)
}
