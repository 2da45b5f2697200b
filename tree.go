package tiger

import "fmt"

// Tree is the arena that owns every node of one program. Nodes are built
// bottom-up with the constructor methods below, then Root links the tree.
// After Root returns the tree must not change.
type Tree struct {
	nodes   []Node
	parents []NodeID
	root    NodeID
}

func NewTree() *Tree {
	// Slot 0 is NoNode.
	return &Tree{nodes: make([]Node, 1)}
}

// Node returns the node with the given ID. The result must not be modified.
func (t *Tree) Node(id NodeID) *Node {
	if id <= NoNode || int(id) >= len(t.nodes) {
		panic(fmt.Sprintf("tiger: invalid node ID %d", id))
	}
	return &t.nodes[id]
}

// Len returns the number of node slots, including the NoNode slot.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// RootID returns the root created by Root, or NoNode.
func (t *Tree) RootID() NodeID {
	return t.root
}

// Main returns the top-level expression of a rooted tree.
func (t *Tree) Main() NodeID {
	if t.root == NoNode {
		return NoNode
	}
	return t.nodes[t.root].Body
}

func (t *Tree) add(n Node) NodeID {
	if t.root != NoNode {
		panic(&Error{Kind: ErrScopeStructure, Pos: n.Pos, Msg: "node added after the tree was linked", Fatal: true})
	}
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree) use(ids ...NodeID) {
	for _, id := range ids {
		if id < NoNode || int(id) >= len(t.nodes) {
			panic(fmt.Sprintf("tiger: invalid child node ID %d", id))
		}
	}
}

// list builds a cons chain of the given kind. It returns NoNode for no items.
func (t *Tree) list(kind NodeKind, items []NodeID) NodeID {
	t.use(items...)
	tail := NoNode
	for i := len(items) - 1; i >= 0; i-- {
		tail = t.add(Node{Kind: kind, Pos: t.nodes[items[i]].Pos, Head: items[i], Tail: tail})
	}
	return tail
}

// Items flattens a cons chain starting at id.
func (t *Tree) Items(id NodeID) []NodeID {
	var items []NodeID
	for id != NoNode {
		n := t.Node(id)
		if !n.Kind.IsList() {
			panic(fmt.Sprintf("tiger: %s is not a list", n.Kind))
		}
		items = append(items, n.Head)
		id = n.Tail
	}
	return items
}

func (t *Tree) Nil(pos Pos) NodeID {
	return t.add(Node{Kind: NodeNil, Pos: pos})
}

func (t *Tree) Int(pos Pos, v int64) NodeID {
	return t.add(Node{Kind: NodeInt, Pos: pos, Int: v})
}

func (t *Tree) Bool(pos Pos, v bool) NodeID {
	return t.add(Node{Kind: NodeBool, Pos: pos, Bool: v})
}

func (t *Tree) Str(pos Pos, s string) NodeID {
	return t.add(Node{Kind: NodeString, Pos: pos, Str: s})
}

// Record builds a record creation expression `typ{name = exp, ...}` from
// FieldInit nodes.
func (t *Tree) Record(pos Pos, typ string, inits ...NodeID) NodeID {
	fields := t.list(NodeFieldInitList, inits)
	return t.add(Node{Kind: NodeRecord, Pos: pos, Name: typ, Fields: fields})
}

// Array builds `typ[size] of init`.
func (t *Tree) Array(pos Pos, typ string, size, init NodeID) NodeID {
	t.use(size, init)
	return t.add(Node{Kind: NodeArray, Pos: pos, Name: typ, Size: size, Exp: init})
}

// Ref builds an expression reading a location.
func (t *Tree) Ref(pos Pos, v NodeID) NodeID {
	t.use(v)
	return t.add(Node{Kind: NodeVarRef, Pos: pos, Var: v})
}

// Op builds an arithmetic or comparison node depending on op.
func (t *Tree) Op(pos Pos, op Oper, left, right NodeID) NodeID {
	if !op.IsValid() {
		panic(fmt.Sprintf("tiger: invalid operator %q", op))
	}
	t.use(left, right)
	kind := NodeArith
	if op.IsComparison() {
		kind = NodeCompare
	}
	return t.add(Node{Kind: kind, Pos: pos, Op: op, Left: left, Right: right})
}

func (t *Tree) Assign(pos Pos, v, exp NodeID) NodeID {
	t.use(v, exp)
	return t.add(Node{Kind: NodeAssign, Pos: pos, Var: v, Exp: exp})
}

// Let builds `let decls in body end`. body may be NoNode.
func (t *Tree) Let(pos Pos, decls []NodeID, body NodeID) NodeID {
	t.use(body)
	list := t.list(NodeDeclList, decls)
	return t.add(Node{Kind: NodeLet, Pos: pos, Decls: list, Body: body})
}

func (t *Tree) Call(pos Pos, name string, args ...NodeID) NodeID {
	list := t.list(NodeExpList, args)
	return t.add(Node{Kind: NodeCall, Pos: pos, Name: name, Args: list})
}

// If builds a conditional. els may be NoNode.
func (t *Tree) If(pos Pos, test, then, els NodeID) NodeID {
	t.use(test, then, els)
	return t.add(Node{Kind: NodeIf, Pos: pos, Test: test, Then: then, Else: els})
}

func (t *Tree) While(pos Pos, test, body NodeID) NodeID {
	t.use(test, body)
	return t.add(Node{Kind: NodeWhile, Pos: pos, Test: test, Body: body})
}

func (t *Tree) For(pos Pos, name string, lo, hi, body NodeID) NodeID {
	t.use(lo, hi, body)
	return t.add(Node{Kind: NodeFor, Pos: pos, Name: name, Lo: lo, Hi: hi, Body: body})
}

func (t *Tree) Break(pos Pos) NodeID {
	return t.add(Node{Kind: NodeBreak, Pos: pos})
}

// Seq builds `(e1; e2; ...)`. With no expressions it is the unit value `()`.
func (t *Tree) Seq(pos Pos, exps ...NodeID) NodeID {
	list := t.list(NodeExpList, exps)
	return t.add(Node{Kind: NodeSeq, Pos: pos, Exps: list})
}

func (t *Tree) SimpleVar(pos Pos, name string) NodeID {
	return t.add(Node{Kind: NodeSimpleVar, Pos: pos, Name: name})
}

// FieldVar builds `base.name`.
func (t *Tree) FieldVar(pos Pos, base NodeID, name string) NodeID {
	t.use(base)
	return t.add(Node{Kind: NodeFieldVar, Pos: pos, Var: base, Name: name})
}

// IndexVar builds `base[index]`.
func (t *Tree) IndexVar(pos Pos, base, index NodeID) NodeID {
	t.use(base, index)
	return t.add(Node{Kind: NodeIndexVar, Pos: pos, Var: base, Exp: index})
}

// VarDecl builds `var name : typ := init`. typ may be empty.
func (t *Tree) VarDecl(pos Pos, name, typ string, init NodeID) NodeID {
	t.use(init)
	return t.add(Node{Kind: NodeVarDecl, Pos: pos, Name: name, TypeName: typ, Exp: init})
}

// FuncGroup builds a group of mutually recursive function declarations.
func (t *Tree) FuncGroup(pos Pos, funcs ...NodeID) NodeID {
	list := t.list(NodeFuncList, funcs)
	return t.add(Node{Kind: NodeFuncGroup, Pos: pos, Group: list})
}

// FuncDecl builds `function name(params) : result = body`. result may be
// empty for procedures.
func (t *Tree) FuncDecl(pos Pos, name string, params []NodeID, result string, body NodeID) NodeID {
	t.use(body)
	list := t.list(NodeFieldList, params)
	return t.add(Node{Kind: NodeFuncDecl, Pos: pos, Name: name, Params: list, TypeName: result, Body: body})
}

// TypeGroup builds a group of mutually recursive type declarations.
func (t *Tree) TypeGroup(pos Pos, decls ...NodeID) NodeID {
	list := t.list(NodeTypeList, decls)
	return t.add(Node{Kind: NodeTypeGroup, Pos: pos, Group: list})
}

func (t *Tree) TypeDecl(pos Pos, name string, ty NodeID) NodeID {
	t.use(ty)
	return t.add(Node{Kind: NodeTypeDecl, Pos: pos, Name: name, Ty: ty})
}

// Field builds `name : typ`, used for parameters and record type fields.
func (t *Tree) Field(pos Pos, name, typ string) NodeID {
	return t.add(Node{Kind: NodeField, Pos: pos, Name: name, TypeName: typ})
}

// FieldInit builds `name = exp` inside a record creation expression.
func (t *Tree) FieldInit(pos Pos, name string, exp NodeID) NodeID {
	t.use(exp)
	return t.add(Node{Kind: NodeFieldInit, Pos: pos, Name: name, Exp: exp})
}

func (t *Tree) NamedType(pos Pos, name string) NodeID {
	return t.add(Node{Kind: NodeNamedType, Pos: pos, Name: name})
}

func (t *Tree) RecordType(pos Pos, fields ...NodeID) NodeID {
	list := t.list(NodeFieldList, fields)
	return t.add(Node{Kind: NodeRecordType, Pos: pos, Fields: list})
}

// ArrayType builds `array of elem`.
func (t *Tree) ArrayType(pos Pos, elem string) NodeID {
	return t.add(Node{Kind: NodeArrayType, Pos: pos, Name: elem})
}
