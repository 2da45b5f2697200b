package tiger

// VarInfo describes where a variable lives.
type VarInfo struct {
	Name   string
	Type   *TypeNode
	Offset int // slot relative to the frame pointer of the declaring frame
	Depth  int // frame depth of the declaring frame
	// Decl is the NodeVarDecl, the parameter's NodeField or the NodeFor
	// declaring the loop variable.
	Decl     NodeID
	ReadOnly bool
}

// FuncInfo describes a callable function.
type FuncInfo struct {
	Name   string
	Label  string
	Params []*TypeNode
	Result *TypeNode
	// Decl is the NodeFuncDecl; NoNode for library functions.
	Decl NodeID
	// Depth is the frame depth of the frame the function is declared in.
	Depth int
}

// scope is the local symbol table of one scope-introducing node. Each map
// points at the declaring node.
type scope struct {
	vars  map[string]NodeID
	funcs map[string]NodeID
	types map[string]NodeID
}

func newScope() *scope {
	return &scope{
		vars:  map[string]NodeID{},
		funcs: map[string]NodeID{},
		types: map[string]NodeID{},
	}
}

// evalScope builds the local table owned by id, or nil if id's kind does
// not introduce a scope.
func (c *Compilation) evalScope(id NodeID) *scope {
	n := c.tree.Node(id)
	var s *scope
	switch n.Kind {
	case NodeLet:
		s = newScope()
		for _, d := range c.tree.Items(n.Decls) {
			c.declare(s, d, false)
		}
	case NodeDeclList:
		s = newScope()
		c.declare(s, n.Head, false)
	case NodeFuncGroup, NodeTypeGroup:
		s = newScope()
		c.declare(s, id, true)
	case NodeFuncDecl:
		s = newScope()
		for _, p := range c.tree.Items(n.Params) {
			name := c.tree.Node(p).Name
			if _, dup := s.vars[name]; dup {
				c.errorf(p, ErrRedeclared, "parameter '%s' declared twice in function '%s'", name, n.Name)
			}
			s.vars[name] = p
		}
	case NodeFor:
		s = newScope()
		s.vars[n.Name] = id
	}
	return s
}

// declare adds the bindings of declaration d to s. Later declarations of a
// let shadow earlier ones; inside one group a repeated name is an error.
func (c *Compilation) declare(s *scope, d NodeID, strict bool) {
	n := c.tree.Node(d)
	switch n.Kind {
	case NodeVarDecl:
		s.vars[n.Name] = d
	case NodeFuncGroup:
		for _, f := range c.tree.Items(n.Group) {
			// Number entry labels in declaration order.
			c.funcLabel(f)
			name := c.tree.Node(f).Name
			if _, dup := s.funcs[name]; dup && strict {
				c.errorf(f, ErrRedeclared, "function '%s' declared twice in one group", name)
			}
			s.funcs[name] = f
		}
	case NodeTypeGroup:
		for _, td := range c.tree.Items(n.Group) {
			name := c.tree.Node(td).Name
			if _, dup := s.types[name]; dup && strict {
				c.errorf(td, ErrRedeclared, "type '%s' declared twice in one group", name)
			}
			s.types[name] = td
		}
	}
}

// visible reports whether the table owned by scopeNode is in effect for
// code reached through its child from. from is NoNode when the scope node
// itself is asking.
func (c *Compilation) visible(scopeNode, from NodeID) bool {
	n := c.tree.Node(scopeNode)
	switch n.Kind {
	case NodeLet, NodeFor, NodeFuncDecl:
		return from == NoNode || from == n.Body
	case NodeDeclList:
		return from == NoNode || from == n.Tail
	case NodeFuncGroup, NodeTypeGroup:
		return true
	}
	return false
}

// lookup walks outward from from and returns the first binding that pick
// accepts. It reports false when the walk reaches the root.
func (c *Compilation) lookup(from NodeID, pick func(s *scope, n NodeID) (NodeID, bool)) (NodeID, bool) {
	prev := NoNode
	n := from
	for {
		if s := c.scopes.of(c, n); s != nil && c.visible(n, prev) {
			if d, ok := pick(s, n); ok {
				return d, true
			}
		}
		if n == c.tree.root {
			return NoNode, false
		}
		prev, n = n, c.parent(n)
	}
}

// ResolveVariable finds the innermost declaration of name visible from the
// node from.
func (c *Compilation) ResolveVariable(name string, from NodeID) (VarInfo, bool) {
	var info VarInfo
	var found bool
	if !c.query(func() {
		var d NodeID
		if d, found = c.resolveVarDecl(name, from); found {
			info = c.varInfo(d)
		}
	}) {
		return VarInfo{}, false
	}
	return info, found
}

// resolveVarDecl is ResolveVariable without the frame layout. Type checking
// and register planning use it, since frame offsets depend on both.
func (c *Compilation) resolveVarDecl(name string, from NodeID) (NodeID, bool) {
	return c.lookup(from, func(s *scope, _ NodeID) (NodeID, bool) {
		d, ok := s.vars[name]
		return d, ok
	})
}

// ResolveVariableBelow is ResolveVariable restricted to bindings whose
// frame offset is at most ceiling. When the search leaves a function, the
// ceiling becomes the last slot allocated where that function was declared,
// so outer frames are searched as they were at the declaration point.
func (c *Compilation) ResolveVariableBelow(name string, from NodeID, ceiling int) (VarInfo, bool) {
	var info VarInfo
	var found bool
	if !c.query(func() { info, found = c.resolveVariableBelow(name, from, ceiling) }) {
		return VarInfo{}, false
	}
	return info, found
}

func (c *Compilation) resolveVariableBelow(name string, from NodeID, ceiling int) (VarInfo, bool) {
	limit := ceiling
	var found VarInfo
	_, ok := c.lookup(from, func(s *scope, n NodeID) (NodeID, bool) {
		if d, ok := s.vars[name]; ok {
			if info := c.varInfo(d); info.Offset <= limit {
				found = info
				return d, true
			}
		}
		if c.tree.Node(n).Kind == NodeFuncDecl {
			limit = c.frameOffset(n) - 1
		}
		return NoNode, false
	})
	return found, ok
}

// ResolveFunction finds the function name visible from the node from,
// falling back to the standard library at the root.
func (c *Compilation) ResolveFunction(name string, from NodeID) (*FuncInfo, bool) {
	var f *FuncInfo
	var found bool
	if !c.query(func() { f, found = c.resolveFunction(name, from) }) {
		return nil, false
	}
	return f, found
}

func (c *Compilation) resolveFunction(name string, from NodeID) (*FuncInfo, bool) {
	d, ok := c.lookup(from, func(s *scope, _ NodeID) (NodeID, bool) {
		d, ok := s.funcs[name]
		return d, ok
	})
	if ok {
		return c.signatures.of(c, d), true
	}
	f, ok := library[name]
	return f, ok
}

// ResolveType finds the type called name visible from the node from,
// falling back to the builtin types at the root.
func (c *Compilation) ResolveType(name string, from NodeID) (*TypeNode, bool) {
	var t *TypeNode
	var found bool
	if !c.query(func() { t, found = c.resolveType(name, from) }) {
		return nil, false
	}
	return t, found
}

func (c *Compilation) resolveType(name string, from NodeID) (*TypeNode, bool) {
	d, ok := c.lookup(from, func(s *scope, _ NodeID) (NodeID, bool) {
		d, ok := s.types[name]
		return d, ok
	})
	if ok {
		return c.declTypes.of(c, d), true
	}
	t, ok := builtinTypes[name]
	return t, ok
}

func (c *Compilation) mustResolveVarDecl(name string, from NodeID) NodeID {
	d, ok := c.resolveVarDecl(name, from)
	if !ok {
		c.fatalf(from, ErrUndefined, "undefined variable '%s'", name)
	}
	return d
}

func (c *Compilation) mustResolveFunction(name string, from NodeID) *FuncInfo {
	f, ok := c.resolveFunction(name, from)
	if !ok {
		c.fatalf(from, ErrUndefined, "undefined function '%s'", name)
	}
	return f
}

func (c *Compilation) mustResolveType(name string, from NodeID) *TypeNode {
	t, ok := c.resolveType(name, from)
	if !ok {
		c.fatalf(from, ErrUndefined, "undefined type '%s'", name)
	}
	return t
}

func (c *Compilation) varInfo(d NodeID) VarInfo {
	n := c.tree.Node(d)
	return VarInfo{
		Name:     n.Name,
		Type:     c.bindingTypes.of(c, d),
		Offset:   c.frameOffset(d),
		Depth:    c.frameDepth(d),
		Decl:     d,
		ReadOnly: n.Kind == NodeFor,
	}
}

// evalBindingType is the type of the variable bound by declaration d. A
// variable declared without a type takes its initializer's type.
func (c *Compilation) evalBindingType(d NodeID) *TypeNode {
	n := c.tree.Node(d)
	switch n.Kind {
	case NodeVarDecl:
		if n.TypeName != "" {
			return c.mustResolveType(n.TypeName, d)
		}
		t := c.typeOf(n.Exp)
		if t == TypeNil {
			c.errorf(d, ErrTypeMismatch, "variable '%s' initialized with nil needs a record type", n.Name)
			return TypeError
		}
		if t == TypeVoid {
			c.errorf(d, ErrTypeMismatch, "variable '%s' initialized with a valueless expression", n.Name)
			return TypeError
		}
		return t
	case NodeField:
		return c.mustResolveType(n.TypeName, d)
	case NodeFor:
		return TypeInt
	}
	c.warnf(d, "%s declares no variable", n.Kind)
	return TypeError
}

// evalSignature builds the FuncInfo of a NodeFuncDecl.
func (c *Compilation) evalSignature(id NodeID) *FuncInfo {
	n := c.tree.Node(id)
	f := &FuncInfo{
		Name:   n.Name,
		Label:  c.funcLabel(id),
		Result: TypeVoid,
		Decl:   id,
		Depth:  c.frameDepth(id),
	}
	for _, p := range c.tree.Items(n.Params) {
		f.Params = append(f.Params, c.bindingTypes.of(c, p))
	}
	if n.TypeName != "" {
		f.Result = c.mustResolveType(n.TypeName, id)
	}
	return f
}

// evalDeclType resolves a NodeTypeDecl. Record and array types are created
// here, once per declaration, which gives them their identity.
func (c *Compilation) evalDeclType(id NodeID) *TypeNode {
	n := c.tree.Node(id)
	if n.Kind != NodeTypeDecl {
		c.warnf(id, "%s declares no type", n.Kind)
		return TypeError
	}
	ty := c.tree.Node(n.Ty)
	switch ty.Kind {
	case NodeNamedType:
		return c.mustResolveType(ty.Name, n.Ty)
	case NodeRecordType:
		return &TypeNode{Kind: TypeRecord, String: n.Name, Decl: n.Ty}
	case NodeArrayType:
		return &TypeNode{Kind: TypeArray, String: n.Name, Child: c.mustResolveType(ty.Name, n.Ty), Decl: n.Ty}
	}
	c.warnf(n.Ty, "%s is not a type", ty.Kind)
	return TypeError
}

// evalRecordFields resolves the fields of a NodeRecordType. Field types are
// looked up lazily so records may refer to themselves.
func (c *Compilation) evalRecordFields(id NodeID) []RecordField {
	var fields []RecordField
	seen := map[string]bool{}
	for _, f := range c.tree.Items(c.tree.Node(id).Fields) {
		n := c.tree.Node(f)
		if seen[n.Name] {
			c.errorf(f, ErrRedeclared, "field '%s' declared twice", n.Name)
		}
		seen[n.Name] = true
		fields = append(fields, RecordField{Name: n.Name, Type: c.mustResolveType(n.TypeName, f)})
	}
	return fields
}
