package tiger

import (
	"fmt"
	"strings"
)

// emitter produces HERA-C text for a checked program. Output is buffered
// so an aborted compilation writes nothing.
type emitter struct {
	c    *Compilation
	data strings.Builder
	code strings.Builder
}

// SET takes a 16-bit immediate, read as signed or unsigned.
const (
	minImmediate = -1 << 15
	maxImmediate = 1<<16 - 1
)

// escapeString writes s as the body of a C string literal. Bytes outside
// printable ASCII become three-digit octal escapes.
func escapeString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; {
		case ch == '\\' || ch == '"':
			sb.WriteByte('\\')
			sb.WriteByte(ch)
		case ch == '\n':
			sb.WriteString(`\n`)
		case ch == '\t':
			sb.WriteString(`\t`)
		case ch < ' ' || ch > '~':
			fmt.Fprintf(&sb, `\%03o`, ch)
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String()
}

func (e *emitter) program() {
	c := e.c
	fmt.Fprintf(&e.data, "#include \"%s\"\n\n", c.conf.StdlibInclude)
	c.walk(c.tree.root, func(id NodeID) {
		if n := c.tree.Node(id); n.Kind == NodeString {
			fmt.Fprintf(&e.data, "DLABEL(%s)\n", c.stringLabel(id))
			fmt.Fprintf(&e.data, "    LP_STRING(\"%s\")\n", escapeString(n.Str))
		}
	})
	e.op("CBON()")
	e.op("MOVE(FP, SP)")
	e.emit(c.tree.Main())
	e.op("HALT()")
}

func (e *emitter) op(format string, args ...any) {
	e.code.WriteString("    ")
	fmt.Fprintf(&e.code, format, args...)
	e.code.WriteByte('\n')
}

func (e *emitter) label(name string) {
	fmt.Fprintf(&e.code, "LABEL(%s)\n", name)
}

func (e *emitter) comment(format string, args ...any) {
	if e.c.conf.Comments {
		e.op("// "+format, args...)
	}
}

// reg names the register holding id's value.
func (e *emitter) reg(id NodeID) string {
	return e.r(id, e.c.register(id))
}

func (e *emitter) r(at NodeID, n int) string {
	if n > maxRegister {
		e.c.fatalf(at, ErrRegisterOverflow, "%s needs R%d; only R1 to R%d are available", e.c.describe(at), n, maxRegister)
	}
	return fmt.Sprintf("R%d", n)
}

// move copies src's value into dst's register when they differ.
func (e *emitter) move(dst, src NodeID) {
	if e.c.typeOf(dst) == TypeVoid {
		return
	}
	if d, s := e.reg(dst), e.reg(src); d != s {
		e.op("MOVE(%s, %s)", d, s)
	}
}

func (e *emitter) emit(id NodeID) {
	c := e.c
	n := c.tree.Node(id)
	switch n.Kind {
	case NodeNil:
		e.op("SET(%s, 0)", e.reg(id))
	case NodeInt:
		if n.Int < minImmediate || n.Int > maxImmediate {
			c.fatalf(id, ErrUnsupported, "integer %d does not fit in 16 bits", n.Int)
		}
		e.op("SET(%s, %d)", e.reg(id), n.Int)
	case NodeBool:
		v := 0
		if n.Bool {
			v = 1
		}
		e.op("SET(%s, %d)", e.reg(id), v)
	case NodeString:
		e.op("SET(%s, %s)", e.reg(id), c.stringLabel(id))
	case NodeVarRef:
		e.varRef(id)
	case NodeArith:
		e.arith(id)
	case NodeCompare:
		e.compare(id)
	case NodeAssign:
		e.assign(id)
	case NodeLet:
		e.let(id)
	case NodeCall:
		e.call(id)
	case NodeIf:
		e.ifThenElse(id)
	case NodeWhile:
		e.while(id)
	case NodeFor:
		e.forLoop(id)
	case NodeBreak:
		e.breakLoop(id)
	case NodeSeq:
		items := c.tree.Items(n.Exps)
		for _, item := range items {
			e.emit(item)
		}
		if len(items) > 0 {
			e.move(id, items[len(items)-1])
		}
	case NodeDeclList:
		for _, d := range c.tree.Items(id) {
			e.emit(d)
		}
	case NodeVarDecl:
		e.op("INC(SP, 1)")
		e.emit(n.Exp)
		e.op("STORE(%s, %d, FP)", e.reg(n.Exp), c.frameOffset(id))
	case NodeFuncGroup:
		for _, fn := range c.tree.Items(n.Group) {
			e.function(fn)
		}
	case NodeTypeGroup:
		// Types produce no code.
	case NodeRecord:
		c.fatalf(id, ErrUnsupported, "record creation is not supported by the code generator")
	case NodeArray:
		c.fatalf(id, ErrUnsupported, "array creation is not supported by the code generator")
	default:
		c.fatalf(id, ErrUnsupported, "cannot generate code for %s", n.Kind)
	}
}

// operands emits left and right so that both are live at once, evaluating
// the one with the higher register first. On a tie the left value is moved
// into target. It returns the registers holding left and right.
func (e *emitter) operands(at NodeID, target int, left, right NodeID) (string, string) {
	rl, rr := e.c.register(left), e.c.register(right)
	if rl >= rr {
		e.emit(left)
		a := e.reg(left)
		if target != rl {
			a = e.r(at, target)
			e.op("MOVE(%s, %s)", a, e.reg(left))
		}
		e.emit(right)
		return a, e.reg(right)
	}
	e.emit(right)
	e.emit(left)
	return e.reg(left), e.reg(right)
}

// runtimeCall emits id's operands as the two arguments of a runtime helper
// and loads its result into id's register.
func (e *emitter) runtimeCall(id NodeID, label string) {
	c := e.c
	n := c.tree.Node(id)
	off := c.frameOffset(id)
	w := window(2)
	e.op("INC(SP, %d)", w)
	e.emit(n.Left)
	e.op("STORE(%s, %d, FP)", e.reg(n.Left), off+slotResult)
	e.emit(n.Right)
	e.op("STORE(%s, %d, FP)", e.reg(n.Right), off+slotResult+1)
	e.op("MOVE(FP_alt, SP)")
	e.op("DEC(FP_alt, %d)", w)
	e.op("CALL(FP_alt, %s)", label)
	e.op("LOAD(%s, %d, FP_alt)", e.reg(id), slotResult)
	e.op("DEC(SP, %d)", w)
}

var arithOps = map[Oper]string{
	OpPlus:  "ADD",
	OpMinus: "SUB",
	OpTimes: "MUL",
}

func (e *emitter) arith(id NodeID) {
	n := e.c.tree.Node(id)
	if n.Op == OpDivide {
		e.runtimeCall(id, runtimeDivide)
		return
	}
	a, b := e.operands(id, e.c.register(id), n.Left, n.Right)
	e.op("%s(%s, %s, %s)", arithOps[n.Op], e.reg(id), a, b)
}

var branchOps = map[Oper]string{
	OpEq:  "BZ",
	OpNeq: "BNZ",
	OpLt:  "BL",
	OpLe:  "BLE",
	OpGt:  "BG",
	OpGe:  "BGE",
}

// compare materializes a comparison as 0 or 1 in id's register.
func (e *emitter) compare(id NodeID) {
	c := e.c
	n := c.tree.Node(id)
	if c.isRuntimeCall(id) {
		e.runtimeCall(id, runtimeStrcmp)
		e.op("CMP(%s, R0)", e.reg(id))
	} else {
		a, b := e.operands(id, c.register(id), n.Left, n.Right)
		e.op("CMP(%s, %s)", a, b)
	}
	l := c.cmpLabels(id)
	r := e.reg(id)
	e.op("%s(%s)", branchOps[n.Op], l.isTrue)
	e.op("SET(%s, 0)", r)
	e.op("BR(%s)", l.end)
	e.label(l.isTrue)
	e.op("SET(%s, 1)", r)
	e.label(l.end)
}

// variable resolves a simple variable for code generation. Only bindings
// already allocated below the variable's own frame offset qualify.
func (e *emitter) variable(v NodeID) VarInfo {
	c := e.c
	n := c.tree.Node(v)
	if n.Kind != NodeSimpleVar {
		c.fatalf(v, ErrUnsupported, "%s is not supported by the code generator", n.Kind)
	}
	info, ok := c.resolveVariableBelow(n.Name, v, c.frameOffset(v)-1)
	if !ok {
		c.fatalf(v, ErrUndefined, "undefined variable '%s'", n.Name)
	}
	return info
}

// frameOf leaves in reg the frame pointer of the frame hops levels out.
func (e *emitter) frameOf(reg string, hops int) string {
	if hops == 0 {
		return "FP"
	}
	e.op("LOAD(%s, %d, FP)", reg, slotStaticLink)
	for i := 1; i < hops; i++ {
		e.op("LOAD(%s, %d, %s)", reg, slotStaticLink, reg)
	}
	return reg
}

func (e *emitter) varRef(id NodeID) {
	v := e.c.tree.Node(id).Var
	info := e.variable(v)
	r := e.reg(id)
	base := e.frameOf(r, e.c.frameDepth(v)-info.Depth)
	e.op("LOAD(%s, %d, %s)", r, info.Offset, base)
}

func (e *emitter) assign(id NodeID) {
	c := e.c
	n := c.tree.Node(id)
	info := e.variable(n.Var)
	e.emit(n.Exp)
	val := e.reg(n.Exp)
	base := "FP"
	if hops := c.frameDepth(n.Var) - info.Depth; hops > 0 {
		base = e.frameOf(e.r(id, c.register(n.Exp)+1), hops)
	}
	e.op("STORE(%s, %d, %s)", val, info.Offset, base)
}

func (e *emitter) let(id NodeID) {
	c := e.c
	n := c.tree.Node(id)
	e.comment("let %d", c.letNumber(id))
	if n.Decls != NoNode {
		e.emit(n.Decls)
	}
	if n.Body != NoNode {
		e.emit(n.Body)
		e.move(id, n.Body)
	}
	if slots := c.dataSlots(n.Decls); slots > 0 {
		e.op("DEC(SP, %d)", slots)
	}
}

func (e *emitter) call(id NodeID) {
	c := e.c
	n := c.tree.Node(id)
	f := c.mustResolveFunction(n.Name, id)
	args := c.tree.Items(n.Args)
	off := c.frameOffset(id)
	w := window(len(args))
	e.comment("call %s", n.Name)
	e.op("INC(SP, %d)", w)
	for i, a := range args {
		e.emit(a)
		e.op("STORE(%s, %d, FP)", e.reg(a), off+slotResult+i)
	}
	if f.Decl != NoNode {
		link := e.frameOf(e.reg(id), c.frameDepth(id)-f.Depth)
		e.op("STORE(%s, %d, FP)", link, off+slotStaticLink)
	}
	e.op("MOVE(FP_alt, SP)")
	e.op("DEC(FP_alt, %d)", w)
	e.op("CALL(FP_alt, %s)", f.Label)
	if f.Result != TypeVoid {
		e.op("LOAD(%s, %d, FP_alt)", e.reg(id), slotResult)
	}
	e.op("DEC(SP, %d)", w)
}

// function emits one function declaration in place, behind a branch that
// skips over it.
func (e *emitter) function(fn NodeID) {
	c := e.c
	n := c.tree.Node(fn)
	f := c.signatures.of(c, fn)
	skip := c.skipLabel(fn)
	saved := c.savedRegisters(fn)
	base := window(c.paramCount(fn))

	e.op("BR(%s)", skip)
	e.label(f.Label)
	e.comment("function %s", n.Name)
	e.op("STORE(PC_ret, %d, FP)", slotReturnAddr)
	e.op("STORE(FP_alt, %d, FP)", slotCallerFP)
	if saved > 0 {
		e.op("INC(SP, %d)", saved)
	}
	for i := 1; i <= saved; i++ {
		e.op("STORE(%s, %d, FP)", e.r(fn, i), base+i-1)
	}
	e.emit(n.Body)
	if f.Result != TypeVoid {
		e.op("STORE(%s, %d, FP)", e.reg(n.Body), slotResult)
	}
	for i := 1; i <= saved; i++ {
		e.op("LOAD(%s, %d, FP)", e.r(fn, i), base+i-1)
	}
	if saved > 0 {
		e.op("DEC(SP, %d)", saved)
	}
	e.op("LOAD(PC_ret, %d, FP)", slotReturnAddr)
	e.op("LOAD(FP_alt, %d, FP)", slotCallerFP)
	e.op("RETURN(FP_alt, PC_ret)")
	e.label(skip)
}

func (e *emitter) ifThenElse(id NodeID) {
	c := e.c
	n := c.tree.Node(id)
	l := c.ifLabels(id)
	e.emit(n.Test)
	e.op("CMP(%s, R0)", e.reg(n.Test))
	if n.Else != NoNode {
		e.op("BZ(%s)", l.els)
	} else {
		e.op("BZ(%s)", l.post)
	}
	e.label(l.then)
	e.emit(n.Then)
	e.move(id, n.Then)
	if n.Else != NoNode {
		e.op("BR(%s)", l.post)
		e.label(l.els)
		e.emit(n.Else)
		e.move(id, n.Else)
	}
	e.label(l.post)
}

func (e *emitter) while(id NodeID) {
	c := e.c
	n := c.tree.Node(id)
	l := c.loopLabels(id)
	e.label(l.cond)
	e.emit(n.Test)
	e.op("CMP(%s, R0)", e.reg(n.Test))
	e.op("BZ(%s)", l.post)
	e.emit(n.Body)
	e.op("BR(%s)", l.cond)
	e.label(l.post)
}

// forLoop keeps the counter in its frame slot and the limit in id's
// register, which the body never writes.
func (e *emitter) forLoop(id NodeID) {
	c := e.c
	n := c.tree.Node(id)
	l := c.loopLabels(id)
	off := c.frameOffset(id)
	limit := e.reg(id)
	tmp := e.r(id, c.register(id)-1)

	lo, hi := e.operands(id, c.pairRegister(n.Lo, n.Hi), n.Lo, n.Hi)
	e.op("INC(SP, 1)")
	e.op("STORE(%s, %d, FP)", lo, off)
	if hi != limit {
		e.op("MOVE(%s, %s)", limit, hi)
	}
	e.label(l.cond)
	e.op("LOAD(%s, %d, FP)", tmp, off)
	e.op("CMP(%s, %s)", tmp, limit)
	e.op("BG(%s)", l.post)
	e.emit(n.Body)
	e.op("LOAD(%s, %d, FP)", tmp, off)
	e.op("INC(%s, 1)", tmp)
	e.op("STORE(%s, %d, FP)", tmp, off)
	e.op("BR(%s)", l.cond)
	e.label(l.post)
	e.op("DEC(SP, 1)")
}

// breakLoop pops the slots claimed since the loop body started, then jumps
// past the loop.
func (e *emitter) breakLoop(id NodeID) {
	c := e.c
	loop := c.enclosingLoop(id)
	base := c.frameOffset(loop)
	if c.tree.Node(loop).Kind == NodeFor {
		base++
	}
	if slots := c.frameOffset(id) - base; slots > 0 {
		e.op("DEC(SP, %d)", slots)
	}
	e.op("BR(%s)", c.loopLabels(loop).post)
}
