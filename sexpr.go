package tiger

import (
	"fmt"
	"strconv"

	"github.com/strager/tiger/sexy"
)

// ReadSExpr builds and roots a tree from its s-expression form and returns
// the root. Positions come from ^{line: L, col: C} metadata when present,
// otherwise from where each form starts in src.
//
//	42  "text"  nil  true  false  break  x
//	(var x) (field LOC name) (subscript LOC EXP)
//	(binary "+" EXP EXP) (assign LOC EXP)
//	(let (DECL...) EXP...) (call f EXP...) (seq EXP...)
//	(if EXP EXP [EXP]) (while EXP EXP) (for i EXP EXP EXP)
//	(record T (name EXP)...) (array T EXP EXP)
//	(vardec x [T] EXP) (functions FUNDEC...) (fundec f ((a T)...) [T] EXP)
//	(types (type t TY)...) (type t TY)
//	TY = T | (record (name T)...) | (array T)
func ReadSExpr(src string) (*Tree, NodeID, error) {
	datum, err := sexy.Parse(src)
	if err != nil {
		return nil, NoNode, fmt.Errorf("reading program: %w", err)
	}
	r := &sexprReader{tree: NewTree()}
	main, err := r.exp(datum)
	if err != nil {
		return nil, NoNode, err
	}
	return r.tree, r.tree.Root(main), nil
}

type sexprReader struct {
	tree *Tree
}

func (r *sexprReader) pos(d *sexy.Node) Pos {
	p := Pos{Line: d.Line, Col: d.Col}
	if v, ok := d.Meta("line"); ok {
		p.Line, _ = strconv.Atoi(v.Text)
	}
	if v, ok := d.Meta("col"); ok {
		p.Col, _ = strconv.Atoi(v.Text)
	}
	return p
}

func (r *sexprReader) errorf(d *sexy.Node, format string, args ...any) error {
	return fmt.Errorf("%s: %s", d.Pos(), fmt.Sprintf(format, args...))
}

// arity checks that list d has between min and max items after its head.
func (r *sexprReader) arity(d *sexy.Node, min, max int) error {
	n := len(d.Items) - 1
	if n < min || n > max {
		if min == max {
			return r.errorf(d, "%s takes %d operands, found %d", d.Head(), min, n)
		}
		return r.errorf(d, "%s takes %d to %d operands, found %d", d.Head(), min, max, n)
	}
	return nil
}

func (r *sexprReader) name(d *sexy.Node) (string, error) {
	if d.Type != sexy.NodeSymbol {
		return "", r.errorf(d, "expected a name, found %s", d.Type)
	}
	return d.Text, nil
}

func (r *sexprReader) exps(ds []*sexy.Node) ([]NodeID, error) {
	var ids []NodeID
	for _, d := range ds {
		id, err := r.exp(d)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *sexprReader) exp(d *sexy.Node) (NodeID, error) {
	t := r.tree
	pos := r.pos(d)
	switch d.Type {
	case sexy.NodeInteger:
		v, err := strconv.ParseInt(d.Text, 10, 64)
		if err != nil {
			return NoNode, r.errorf(d, "bad integer %s", d.Text)
		}
		return t.Int(pos, v), nil
	case sexy.NodeString:
		return t.Str(pos, d.Text), nil
	case sexy.NodeSymbol:
		switch d.Text {
		case "nil":
			return t.Nil(pos), nil
		case "true", "false":
			return t.Bool(pos, d.Text == "true"), nil
		case "break":
			return t.Break(pos), nil
		}
		return t.Ref(pos, t.SimpleVar(pos, d.Text)), nil
	case sexy.NodeList:
	default:
		return NoNode, r.errorf(d, "expected an expression, found %s", d.Type)
	}

	args := d.Items[min(1, len(d.Items)):]
	switch head := d.Head(); head {
	case "int":
		if err := r.arity(d, 1, 1); err != nil {
			return NoNode, err
		}
		v, err := strconv.ParseInt(args[0].Text, 10, 64)
		if args[0].Type != sexy.NodeInteger || err != nil {
			return NoNode, r.errorf(args[0], "expected an integer")
		}
		return t.Int(pos, v), nil
	case "string":
		if err := r.arity(d, 1, 1); err != nil {
			return NoNode, err
		}
		if args[0].Type != sexy.NodeString {
			return NoNode, r.errorf(args[0], "expected a string")
		}
		return t.Str(pos, args[0].Text), nil
	case "var", "field", "subscript":
		v, err := r.location(d)
		if err != nil {
			return NoNode, err
		}
		return t.Ref(pos, v), nil
	case "binary":
		if err := r.arity(d, 3, 3); err != nil {
			return NoNode, err
		}
		op := Oper(args[0].Text)
		if args[0].Type != sexy.NodeString && args[0].Type != sexy.NodeSymbol || !op.IsValid() {
			return NoNode, r.errorf(args[0], "unknown operator %s", args[0])
		}
		operands, err := r.exps(args[1:])
		if err != nil {
			return NoNode, err
		}
		return t.Op(pos, op, operands[0], operands[1]), nil
	case "assign":
		if err := r.arity(d, 2, 2); err != nil {
			return NoNode, err
		}
		v, err := r.location(args[0])
		if err != nil {
			return NoNode, err
		}
		e, err := r.exp(args[1])
		if err != nil {
			return NoNode, err
		}
		return t.Assign(pos, v, e), nil
	case "let":
		if err := r.arity(d, 1, len(d.Items)); err != nil {
			return NoNode, err
		}
		if args[0].Type != sexy.NodeList {
			return NoNode, r.errorf(args[0], "expected a declaration list")
		}
		var decls []NodeID
		for _, dd := range args[0].Items {
			decl, err := r.decl(dd)
			if err != nil {
				return NoNode, err
			}
			decls = append(decls, decl)
		}
		body, err := r.exps(args[1:])
		if err != nil {
			return NoNode, err
		}
		switch len(body) {
		case 0:
			return t.Let(pos, decls, NoNode), nil
		case 1:
			return t.Let(pos, decls, body[0]), nil
		}
		return t.Let(pos, decls, t.Seq(r.pos(args[1]), body...)), nil
	case "call":
		if err := r.arity(d, 1, len(d.Items)); err != nil {
			return NoNode, err
		}
		name, err := r.name(args[0])
		if err != nil {
			return NoNode, err
		}
		callArgs, err := r.exps(args[1:])
		if err != nil {
			return NoNode, err
		}
		return t.Call(pos, name, callArgs...), nil
	case "if":
		if err := r.arity(d, 2, 3); err != nil {
			return NoNode, err
		}
		parts, err := r.exps(args)
		if err != nil {
			return NoNode, err
		}
		els := NoNode
		if len(parts) == 3 {
			els = parts[2]
		}
		return t.If(pos, parts[0], parts[1], els), nil
	case "while":
		if err := r.arity(d, 2, 2); err != nil {
			return NoNode, err
		}
		parts, err := r.exps(args)
		if err != nil {
			return NoNode, err
		}
		return t.While(pos, parts[0], parts[1]), nil
	case "for":
		if err := r.arity(d, 4, 4); err != nil {
			return NoNode, err
		}
		name, err := r.name(args[0])
		if err != nil {
			return NoNode, err
		}
		parts, err := r.exps(args[1:])
		if err != nil {
			return NoNode, err
		}
		return t.For(pos, name, parts[0], parts[1], parts[2]), nil
	case "seq":
		exps, err := r.exps(args)
		if err != nil {
			return NoNode, err
		}
		return t.Seq(pos, exps...), nil
	case "record":
		if err := r.arity(d, 1, len(d.Items)); err != nil {
			return NoNode, err
		}
		typ, err := r.name(args[0])
		if err != nil {
			return NoNode, err
		}
		var inits []NodeID
		for _, fd := range args[1:] {
			if fd.Type != sexy.NodeList || len(fd.Items) != 2 {
				return NoNode, r.errorf(fd, "expected (name value)")
			}
			name, err := r.name(fd.Items[0])
			if err != nil {
				return NoNode, err
			}
			e, err := r.exp(fd.Items[1])
			if err != nil {
				return NoNode, err
			}
			inits = append(inits, t.FieldInit(r.pos(fd), name, e))
		}
		return t.Record(pos, typ, inits...), nil
	case "array":
		if err := r.arity(d, 3, 3); err != nil {
			return NoNode, err
		}
		typ, err := r.name(args[0])
		if err != nil {
			return NoNode, err
		}
		parts, err := r.exps(args[1:])
		if err != nil {
			return NoNode, err
		}
		return t.Array(pos, typ, parts[0], parts[1]), nil
	case "":
		return NoNode, r.errorf(d, "expected an expression, found %s", d)
	default:
		return NoNode, r.errorf(d, "unknown expression form '%s'", head)
	}
}

func (r *sexprReader) location(d *sexy.Node) (NodeID, error) {
	t := r.tree
	pos := r.pos(d)
	if d.Type == sexy.NodeSymbol {
		return t.SimpleVar(pos, d.Text), nil
	}
	args := d.Items[min(1, len(d.Items)):]
	switch d.Head() {
	case "var":
		if err := r.arity(d, 1, 1); err != nil {
			return NoNode, err
		}
		name, err := r.name(args[0])
		if err != nil {
			return NoNode, err
		}
		return t.SimpleVar(pos, name), nil
	case "field":
		if err := r.arity(d, 2, 2); err != nil {
			return NoNode, err
		}
		base, err := r.location(args[0])
		if err != nil {
			return NoNode, err
		}
		name, err := r.name(args[1])
		if err != nil {
			return NoNode, err
		}
		return t.FieldVar(pos, base, name), nil
	case "subscript":
		if err := r.arity(d, 2, 2); err != nil {
			return NoNode, err
		}
		base, err := r.location(args[0])
		if err != nil {
			return NoNode, err
		}
		index, err := r.exp(args[1])
		if err != nil {
			return NoNode, err
		}
		return t.IndexVar(pos, base, index), nil
	}
	return NoNode, r.errorf(d, "expected a variable, found %s", d)
}

func (r *sexprReader) decl(d *sexy.Node) (NodeID, error) {
	t := r.tree
	pos := r.pos(d)
	args := d.Items[min(1, len(d.Items)):]
	switch d.Head() {
	case "vardec":
		if err := r.arity(d, 2, 3); err != nil {
			return NoNode, err
		}
		name, err := r.name(args[0])
		if err != nil {
			return NoNode, err
		}
		typ := ""
		if len(args) == 3 {
			if typ, err = r.name(args[1]); err != nil {
				return NoNode, err
			}
		}
		init, err := r.exp(args[len(args)-1])
		if err != nil {
			return NoNode, err
		}
		return t.VarDecl(pos, name, typ, init), nil
	case "functions":
		var funcs []NodeID
		for _, fd := range args {
			if fd.Head() != "fundec" {
				return NoNode, r.errorf(fd, "expected fundec, found %s", fd)
			}
			f, err := r.fundec(fd)
			if err != nil {
				return NoNode, err
			}
			funcs = append(funcs, f)
		}
		return t.FuncGroup(pos, funcs...), nil
	case "fundec":
		f, err := r.fundec(d)
		if err != nil {
			return NoNode, err
		}
		return t.FuncGroup(pos, f), nil
	case "types":
		var decls []NodeID
		for _, td := range args {
			if td.Head() != "type" {
				return NoNode, r.errorf(td, "expected type, found %s", td)
			}
			decl, err := r.typeDecl(td)
			if err != nil {
				return NoNode, err
			}
			decls = append(decls, decl)
		}
		return t.TypeGroup(pos, decls...), nil
	case "type":
		decl, err := r.typeDecl(d)
		if err != nil {
			return NoNode, err
		}
		return t.TypeGroup(pos, decl), nil
	}
	return NoNode, r.errorf(d, "expected a declaration, found %s", d)
}

func (r *sexprReader) fundec(d *sexy.Node) (NodeID, error) {
	if err := r.arity(d, 3, 4); err != nil {
		return NoNode, err
	}
	args := d.Items[1:]
	name, err := r.name(args[0])
	if err != nil {
		return NoNode, err
	}
	if args[1].Type != sexy.NodeList {
		return NoNode, r.errorf(args[1], "expected a parameter list")
	}
	params, err := r.fields(args[1].Items)
	if err != nil {
		return NoNode, err
	}
	result := ""
	if len(args) == 4 {
		if result, err = r.name(args[2]); err != nil {
			return NoNode, err
		}
	}
	body, err := r.exp(args[len(args)-1])
	if err != nil {
		return NoNode, err
	}
	return r.tree.FuncDecl(r.pos(d), name, params, result, body), nil
}

// fields reads (name type) pairs.
func (r *sexprReader) fields(ds []*sexy.Node) ([]NodeID, error) {
	var ids []NodeID
	for _, fd := range ds {
		if fd.Type != sexy.NodeList || len(fd.Items) != 2 {
			return nil, r.errorf(fd, "expected (name type)")
		}
		name, err := r.name(fd.Items[0])
		if err != nil {
			return nil, err
		}
		typ, err := r.name(fd.Items[1])
		if err != nil {
			return nil, err
		}
		ids = append(ids, r.tree.Field(r.pos(fd), name, typ))
	}
	return ids, nil
}

func (r *sexprReader) typeDecl(d *sexy.Node) (NodeID, error) {
	if err := r.arity(d, 2, 2); err != nil {
		return NoNode, err
	}
	name, err := r.name(d.Items[1])
	if err != nil {
		return NoNode, err
	}
	ty, err := r.ty(d.Items[2])
	if err != nil {
		return NoNode, err
	}
	return r.tree.TypeDecl(r.pos(d), name, ty), nil
}

func (r *sexprReader) ty(d *sexy.Node) (NodeID, error) {
	t := r.tree
	pos := r.pos(d)
	if d.Type == sexy.NodeSymbol {
		return t.NamedType(pos, d.Text), nil
	}
	switch d.Head() {
	case "record":
		fields, err := r.fields(d.Items[1:])
		if err != nil {
			return NoNode, err
		}
		return t.RecordType(pos, fields...), nil
	case "array":
		if err := r.arity(d, 1, 1); err != nil {
			return NoNode, err
		}
		elem, err := r.name(d.Items[1])
		if err != nil {
			return NoNode, err
		}
		return t.ArrayType(pos, elem), nil
	}
	return NoNode, r.errorf(d, "expected a type, found %s", d)
}

// ToSExpr prints the subtree at id in the notation ReadSExpr accepts,
// without positions.
func ToSExpr(tree *Tree, id NodeID) string {
	return toSexy(tree, id).String()
}

func toSexy(tree *Tree, id NodeID) *sexy.Node {
	n := tree.Node(id)
	sym := sexy.NewSymbol
	list := func(head string, items ...*sexy.Node) *sexy.Node {
		return sexy.NewList(append([]*sexy.Node{sym(head)}, items...)...)
	}
	each := func(list NodeID) []*sexy.Node {
		var out []*sexy.Node
		for _, item := range tree.Items(list) {
			out = append(out, toSexy(tree, item))
		}
		return out
	}
	kids := func(ids ...NodeID) []*sexy.Node {
		var out []*sexy.Node
		for _, k := range ids {
			if k != NoNode {
				out = append(out, toSexy(tree, k))
			}
		}
		return out
	}

	switch n.Kind {
	case NodeRoot:
		return toSexy(tree, n.Body)
	case NodeNil:
		return sym("nil")
	case NodeInt:
		return sexy.NewInteger(strconv.FormatInt(n.Int, 10))
	case NodeBool:
		return sym(strconv.FormatBool(n.Bool))
	case NodeString:
		return sexy.NewString(n.Str)
	case NodeBreak:
		return sym("break")
	case NodeVarRef:
		return toSexy(tree, n.Var)
	case NodeSimpleVar:
		return sym(n.Name)
	case NodeFieldVar:
		return list("field", toSexy(tree, n.Var), sym(n.Name))
	case NodeIndexVar:
		return list("subscript", kids(n.Var, n.Exp)...)
	case NodeArith, NodeCompare:
		return list("binary", append([]*sexy.Node{sexy.NewString(string(n.Op))}, kids(n.Left, n.Right)...)...)
	case NodeAssign:
		return list("assign", kids(n.Var, n.Exp)...)
	case NodeLet:
		return list("let", append([]*sexy.Node{sexy.NewList(each(n.Decls)...)}, kids(n.Body)...)...)
	case NodeCall:
		return list("call", append([]*sexy.Node{sym(n.Name)}, each(n.Args)...)...)
	case NodeIf:
		return list("if", kids(n.Test, n.Then, n.Else)...)
	case NodeWhile:
		return list("while", kids(n.Test, n.Body)...)
	case NodeFor:
		return list("for", append([]*sexy.Node{sym(n.Name)}, kids(n.Lo, n.Hi, n.Body)...)...)
	case NodeSeq:
		return list("seq", each(n.Exps)...)
	case NodeRecord:
		return list("record", append([]*sexy.Node{sym(n.Name)}, each(n.Fields)...)...)
	case NodeArray:
		return list("array", append([]*sexy.Node{sym(n.Name)}, kids(n.Size, n.Exp)...)...)
	case NodeFieldInit:
		return sexy.NewList(sym(n.Name), toSexy(tree, n.Exp))
	case NodeVarDecl:
		items := []*sexy.Node{sym(n.Name)}
		if n.TypeName != "" {
			items = append(items, sym(n.TypeName))
		}
		return list("vardec", append(items, toSexy(tree, n.Exp))...)
	case NodeFuncGroup:
		funcs := each(n.Group)
		if len(funcs) == 1 {
			return funcs[0]
		}
		return list("functions", funcs...)
	case NodeFuncDecl:
		items := []*sexy.Node{sym(n.Name), sexy.NewList(each(n.Params)...)}
		if n.TypeName != "" {
			items = append(items, sym(n.TypeName))
		}
		return list("fundec", append(items, toSexy(tree, n.Body))...)
	case NodeTypeGroup:
		decls := each(n.Group)
		if len(decls) == 1 {
			return decls[0]
		}
		return list("types", decls...)
	case NodeTypeDecl:
		return list("type", sym(n.Name), toSexy(tree, n.Ty))
	case NodeField:
		return sexy.NewList(sym(n.Name), sym(n.TypeName))
	case NodeNamedType:
		return sym(n.Name)
	case NodeRecordType:
		return list("record", each(n.Fields)...)
	case NodeArrayType:
		return list("array", sym(n.Name))
	}
	// Bare list cells print as their items.
	return sexy.NewList(each(id)...)
}
