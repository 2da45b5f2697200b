package tiger

// Activation record layout, in slots relative to FP:
//
//	0          return address (PC_ret)
//	1          caller's frame pointer
//	2          static link
//	3..3+n-1   arguments; slot 3 also receives the return value
//	window     callee-saved registers R1..Rk
//	window+k   locals and temporaries of the body
const (
	slotReturnAddr = 0
	slotCallerFP   = 1
	slotStaticLink = 2
	slotResult     = 3
	frameHeader    = 3
)

// General purpose registers available to expressions.
const maxRegister = 10

// window returns the number of slots a call with n arguments pushes.
func window(n int) int {
	return frameHeader + max(n, 1)
}

func (c *Compilation) frameOffset(id NodeID) int { return c.offsets.of(c, id) }
func (c *Compilation) frameDepth(id NodeID) int  { return c.depths.of(c, id) }
func (c *Compilation) register(id NodeID) int    { return c.registers.of(c, id) }

// FrameOffset returns the first free frame slot when id's code starts:
// SP == FP + FrameOffset(id). It returns -1 if the program is broken.
func (c *Compilation) FrameOffset(id NodeID) int { return c.queryInt(c.frameOffset, id) }

// FrameDepth returns the number of function frames enclosing id, or -1.
func (c *Compilation) FrameDepth(id NodeID) int { return c.queryInt(c.frameDepth, id) }

// Register returns the register number that holds id's value, or -1.
func (c *Compilation) Register(id NodeID) int { return c.queryInt(c.register, id) }

func (c *Compilation) queryInt(attr func(NodeID) int, id NodeID) int {
	v := -1
	c.query(func() { v = attr(id) })
	return v
}

// offsetFor is the frame offset parent assigns to its child.
func (c *Compilation) offsetFor(parent, child NodeID) int {
	p := c.tree.Node(parent)
	off := c.frameOffset(parent)
	switch p.Kind {
	case NodeLet:
		if child == p.Body {
			return off + c.dataSlots(p.Decls)
		}
	case NodeDeclList:
		if child == p.Tail {
			return off + c.dataSlots(p.Head)
		}
	case NodeVarDecl:
		// The variable's slot is pushed before its initializer runs.
		return off + 1
	case NodeCall:
		// Argument slot numbers.
		return off + frameHeader
	case NodeExpList:
		call := c.argsOwner(parent)
		if call == NoNode {
			break
		}
		if child == p.Head {
			return c.frameOffset(call) + window(c.argCount(call))
		}
		return off + 1
	case NodeArith, NodeCompare:
		if c.isRuntimeCall(parent) {
			return off + window(2)
		}
	case NodeFor:
		if child == p.Body {
			return off + 1
		}
	case NodeFuncDecl:
		if child == p.Params {
			return frameHeader
		}
		return window(c.paramCount(parent)) + c.savedRegisters(parent)
	case NodeFieldList:
		if child == p.Tail {
			return off + 1
		}
	}
	return off
}

// depthFor is the frame depth parent assigns to its child.
func (c *Compilation) depthFor(parent, child NodeID) int {
	depth := c.frameDepth(parent)
	if c.tree.Node(parent).Kind == NodeFuncDecl {
		return depth + 1
	}
	return depth
}

// dataSlots counts the frame slots a declaration or declaration list
// claims. Function and type groups claim none.
func (c *Compilation) dataSlots(id NodeID) int {
	n := 0
	for id != NoNode {
		node := c.tree.Node(id)
		switch node.Kind {
		case NodeVarDecl:
			return n + 1
		case NodeDeclList:
			if c.tree.Node(node.Head).Kind == NodeVarDecl {
				n++
			}
			id = node.Tail
			continue
		}
		return n
	}
	return n
}

// argsOwner returns the call whose argument list contains list cell id, or
// NoNode for expression lists of sequences.
func (c *Compilation) argsOwner(id NodeID) NodeID {
	for c.tree.Node(id).Kind == NodeExpList {
		id = c.parent(id)
	}
	if c.tree.Node(id).Kind == NodeCall {
		return id
	}
	return NoNode
}

func (c *Compilation) argCount(call NodeID) int {
	return len(c.tree.Items(c.tree.Node(call).Args))
}

func (c *Compilation) paramCount(fn NodeID) int {
	return len(c.tree.Items(c.tree.Node(fn).Params))
}

// savedRegisters is how many registers a function saves on entry: every
// register its body may write.
func (c *Compilation) savedRegisters(fn NodeID) int {
	return c.register(c.tree.Node(fn).Body)
}

// isRuntimeCall reports whether an operator node is lowered to a call of a
// runtime helper: string comparison and division.
func (c *Compilation) isRuntimeCall(id NodeID) bool {
	n := c.tree.Node(id)
	switch n.Kind {
	case NodeArith:
		return n.Op == OpDivide
	case NodeCompare:
		return c.typeOf(n.Left) == TypeString
	}
	return false
}

// pairRegister is the register of a node that needs both operands live at
// once.
func (c *Compilation) pairRegister(left, right NodeID) int {
	l, r := c.register(left), c.register(right)
	if l == r {
		return l + 1
	}
	return max(l, r)
}

func (c *Compilation) highestRegister(ids ...NodeID) int {
	reg := 1
	for _, id := range ids {
		if id != NoNode {
			reg = max(reg, c.register(id))
		}
	}
	return reg
}

// evalRegister computes the register of id from its children. Every
// register a subtree writes is at most the subtree root's register.
func (c *Compilation) evalRegister(id NodeID) int {
	n := c.tree.Node(id)
	switch n.Kind {
	case NodeNil, NodeInt, NodeBool, NodeString, NodeBreak,
		NodeRecord, NodeArray, NodeFuncGroup, NodeTypeGroup:
		return 1
	case NodeVarRef:
		return 1
	case NodeArith, NodeCompare:
		if c.isRuntimeCall(id) {
			return 1 + max(c.register(n.Left), c.register(n.Right))
		}
		return c.pairRegister(n.Left, n.Right)
	case NodeAssign:
		reg := c.register(n.Exp)
		if c.nonLocalTarget(id) {
			// The static chain is walked in the register above the value.
			reg++
		}
		return reg
	case NodeLet:
		return c.highestRegister(n.Decls, n.Body)
	case NodeCall:
		if n.Args == NoNode {
			return 1
		}
		return 1 + c.register(n.Args)
	case NodeIf:
		return c.highestRegister(n.Test, n.Then, n.Else)
	case NodeWhile:
		return c.highestRegister(n.Test, n.Body)
	case NodeFor:
		// The limit lives in this register and the loop counter in the one
		// below it, both above anything the bounds or body use.
		return max(c.pairRegister(n.Lo, n.Hi), c.register(n.Body)) + 1
	case NodeSeq:
		return c.highestRegister(n.Exps)
	case NodeExpList, NodeDeclList:
		return c.highestRegister(n.Head, n.Tail)
	case NodeVarDecl:
		return c.register(n.Exp)
	case NodeRoot:
		return c.register(n.Body)
	}
	c.warnf(id, "%s holds no value; using R1", n.Kind)
	return 1
}

// nonLocalTarget reports whether an assignment stores into a variable of an
// enclosing function's frame.
func (c *Compilation) nonLocalTarget(assign NodeID) bool {
	v := c.tree.Node(c.tree.Node(assign).Var)
	if v.Kind != NodeSimpleVar {
		return false
	}
	d, ok := c.resolveVarDecl(v.Name, c.tree.Node(assign).Var)
	if !ok {
		return false
	}
	return c.frameDepth(d) != c.frameDepth(assign)
}
