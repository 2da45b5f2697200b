package tiger

import "fmt"

// Root wraps main in the program root and links every node to its parent.
// It may be called once per tree.
func (t *Tree) Root(main NodeID) NodeID {
	if t.root != NoNode {
		panic(&Error{Kind: ErrScopeStructure, Msg: "tree is already rooted", Fatal: true})
	}
	if main == NoNode {
		panic(&Error{Kind: ErrScopeStructure, Msg: "program has no main expression", Fatal: true})
	}
	t.use(main)
	root := t.add(Node{Kind: NodeRoot, Pos: t.nodes[main].Pos, Body: main})
	t.link(root)
	t.root = root
	return root
}

// link assigns parent back-references in one depth-first pass from root.
func (t *Tree) link(root NodeID) {
	if t.nodes[root].Kind != NodeRoot {
		panic(&Error{Kind: ErrScopeStructure, Pos: t.nodes[root].Pos,
			Msg: fmt.Sprintf("cannot link from %s; only the root is linked", t.nodes[root].Kind), Fatal: true})
	}
	if t.parents != nil {
		panic(&Error{Kind: ErrScopeStructure, Msg: "tree is already linked", Fatal: true})
	}
	t.parents = make([]NodeID, len(t.nodes))
	stack := []NodeID{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range t.Children(n) {
			if c == root || t.parents[c] != NoNode {
				panic(&Error{Kind: ErrScopeStructure, Pos: t.nodes[c].Pos,
					Msg: fmt.Sprintf("%s node %d has more than one parent", t.nodes[c].Kind, c), Fatal: true})
			}
			t.parents[c] = n
			stack = append(stack, c)
		}
	}
}

// Parent returns the structural parent of id. It reports false for the root
// and for nodes of a tree that has not been linked.
func (t *Tree) Parent(id NodeID) (NodeID, bool) {
	if t.parents == nil || int(id) >= len(t.parents) {
		return NoNode, false
	}
	p := t.parents[id]
	return p, p != NoNode
}

// Children returns the structural children of id, in source order.
func (t *Tree) Children(id NodeID) []NodeID {
	n := t.Node(id)
	var kids []NodeID
	switch n.Kind {
	case NodeNil, NodeInt, NodeBool, NodeString, NodeBreak,
		NodeSimpleVar, NodeField, NodeNamedType, NodeArrayType:
		// Leaves.
	case NodeRecord:
		kids = []NodeID{n.Fields}
	case NodeArray:
		kids = []NodeID{n.Size, n.Exp}
	case NodeVarRef:
		kids = []NodeID{n.Var}
	case NodeArith, NodeCompare:
		kids = []NodeID{n.Left, n.Right}
	case NodeAssign:
		kids = []NodeID{n.Var, n.Exp}
	case NodeLet:
		kids = []NodeID{n.Decls, n.Body}
	case NodeCall:
		kids = []NodeID{n.Args}
	case NodeIf:
		kids = []NodeID{n.Test, n.Then, n.Else}
	case NodeWhile:
		kids = []NodeID{n.Test, n.Body}
	case NodeFor:
		kids = []NodeID{n.Lo, n.Hi, n.Body}
	case NodeSeq:
		kids = []NodeID{n.Exps}
	case NodeFieldVar:
		kids = []NodeID{n.Var}
	case NodeIndexVar:
		kids = []NodeID{n.Var, n.Exp}
	case NodeVarDecl:
		kids = []NodeID{n.Exp}
	case NodeFuncGroup, NodeTypeGroup:
		kids = []NodeID{n.Group}
	case NodeFuncDecl:
		kids = []NodeID{n.Params, n.Body}
	case NodeTypeDecl:
		kids = []NodeID{n.Ty}
	case NodeFieldInit:
		kids = []NodeID{n.Exp}
	case NodeRecordType:
		kids = []NodeID{n.Fields}
	case NodeExpList, NodeDeclList, NodeFuncList, NodeTypeList, NodeFieldList, NodeFieldInitList:
		kids = []NodeID{n.Head, n.Tail}
	case NodeRoot:
		kids = []NodeID{n.Body}
	default:
		panic(fmt.Sprintf("tiger: no traversal rule for %s", n.Kind))
	}
	out := kids[:0]
	for _, k := range kids {
		if k != NoNode {
			out = append(out, k)
		}
	}
	return out
}
