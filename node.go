package tiger

import "fmt"

// Pos is a source position. The zero Pos means "unknown".
type Pos struct {
	Line int
	Col  int
}

func (p Pos) IsKnown() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsKnown() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// NodeID addresses a node inside its Tree.
type NodeID int32

// NoNode marks an absent child.
const NoNode NodeID = 0

// NodeKind represents different types of AST nodes
type NodeKind string

const (
	// Expressions
	NodeNil     NodeKind = "NodeNil"
	NodeInt     NodeKind = "NodeInt"
	NodeBool    NodeKind = "NodeBool"
	NodeString  NodeKind = "NodeString"
	NodeRecord  NodeKind = "NodeRecord"
	NodeArray   NodeKind = "NodeArray"
	NodeVarRef  NodeKind = "NodeVarRef"
	NodeArith   NodeKind = "NodeArith"
	NodeCompare NodeKind = "NodeCompare"
	NodeAssign  NodeKind = "NodeAssign"
	NodeLet     NodeKind = "NodeLet"
	NodeCall    NodeKind = "NodeCall"
	NodeIf      NodeKind = "NodeIf"
	NodeWhile   NodeKind = "NodeWhile"
	NodeFor     NodeKind = "NodeFor"
	NodeBreak   NodeKind = "NodeBreak"
	NodeSeq     NodeKind = "NodeSeq"

	// Assignable locations
	NodeSimpleVar NodeKind = "NodeSimpleVar"
	NodeFieldVar  NodeKind = "NodeFieldVar"
	NodeIndexVar  NodeKind = "NodeIndexVar"

	// Declarations
	NodeVarDecl   NodeKind = "NodeVarDecl"
	NodeFuncGroup NodeKind = "NodeFuncGroup"
	NodeTypeGroup NodeKind = "NodeTypeGroup"
	NodeFuncDecl  NodeKind = "NodeFuncDecl"
	NodeTypeDecl  NodeKind = "NodeTypeDecl"
	NodeField     NodeKind = "NodeField"
	NodeFieldInit NodeKind = "NodeFieldInit"

	// Type syntax
	NodeNamedType  NodeKind = "NodeNamedType"
	NodeRecordType NodeKind = "NodeRecordType"
	NodeArrayType  NodeKind = "NodeArrayType"

	// Lists (cons cells)
	NodeExpList       NodeKind = "NodeExpList"
	NodeDeclList      NodeKind = "NodeDeclList"
	NodeFuncList      NodeKind = "NodeFuncList"
	NodeTypeList      NodeKind = "NodeTypeList"
	NodeFieldList     NodeKind = "NodeFieldList"
	NodeFieldInitList NodeKind = "NodeFieldInitList"

	NodeRoot NodeKind = "NodeRoot"
)

// AllKinds lists every node kind.
var AllKinds = []NodeKind{
	NodeNil, NodeInt, NodeBool, NodeString, NodeRecord, NodeArray,
	NodeVarRef, NodeArith, NodeCompare, NodeAssign, NodeLet, NodeCall,
	NodeIf, NodeWhile, NodeFor, NodeBreak, NodeSeq,
	NodeSimpleVar, NodeFieldVar, NodeIndexVar,
	NodeVarDecl, NodeFuncGroup, NodeTypeGroup, NodeFuncDecl, NodeTypeDecl,
	NodeField, NodeFieldInit,
	NodeNamedType, NodeRecordType, NodeArrayType,
	NodeExpList, NodeDeclList, NodeFuncList, NodeTypeList, NodeFieldList,
	NodeFieldInitList,
	NodeRoot,
}

// IsExpression reports whether nodes of this kind produce a value.
func (k NodeKind) IsExpression() bool {
	switch k {
	case NodeNil, NodeInt, NodeBool, NodeString, NodeRecord, NodeArray,
		NodeVarRef, NodeArith, NodeCompare, NodeAssign, NodeLet, NodeCall,
		NodeIf, NodeWhile, NodeFor, NodeBreak, NodeSeq:
		return true
	}
	return false
}

// IsList reports whether k is a cons-cell kind.
func (k NodeKind) IsList() bool {
	switch k {
	case NodeExpList, NodeDeclList, NodeFuncList, NodeTypeList, NodeFieldList, NodeFieldInitList:
		return true
	}
	return false
}

// Oper is an arithmetic or comparison operator.
type Oper string

const (
	OpPlus   Oper = "+"
	OpMinus  Oper = "-"
	OpTimes  Oper = "*"
	OpDivide Oper = "/"
	OpEq     Oper = "="
	OpNeq    Oper = "<>"
	OpLt     Oper = "<"
	OpLe     Oper = "<="
	OpGt     Oper = ">"
	OpGe     Oper = ">="
)

func (op Oper) IsComparison() bool {
	switch op {
	case OpEq, OpNeq, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

func (op Oper) IsValid() bool {
	switch op {
	case OpPlus, OpMinus, OpTimes, OpDivide:
		return true
	}
	return op.IsComparison()
}

// Node represents a node in the abstract syntax tree. Which fields are
// meaningful depends on Kind; unused child slots hold NoNode.
type Node struct {
	Kind NodeKind
	Pos  Pos

	// NodeInt:
	Int int64
	// NodeBool:
	Bool bool
	// NodeString:
	Str string
	// Identifier: variable, function, field or type name.
	Name string
	// Declared type name: NodeVarDecl, NodeField, NodeFuncDecl (result).
	// Empty when omitted.
	TypeName string
	// NodeArith, NodeCompare:
	Op Oper

	Left, Right NodeID // NodeArith, NodeCompare
	Var         NodeID // NodeVarRef, NodeAssign, NodeFieldVar, NodeIndexVar
	Exp         NodeID // NodeAssign, NodeVarDecl, NodeFieldInit, NodeIndexVar, NodeArray (initial value)
	Size        NodeID // NodeArray
	Decls       NodeID // NodeLet
	Body        NodeID // NodeLet, NodeWhile, NodeFor, NodeFuncDecl, NodeRoot
	Args        NodeID // NodeCall
	Test        NodeID // NodeIf, NodeWhile
	Then, Else  NodeID // NodeIf
	Lo, Hi      NodeID // NodeFor
	Exps        NodeID // NodeSeq
	Params      NodeID // NodeFuncDecl
	Fields      NodeID // NodeRecord, NodeRecordType
	Ty          NodeID // NodeTypeDecl
	Group       NodeID // NodeFuncGroup, NodeTypeGroup
	Head, Tail  NodeID // list cells
}
