package tiger

// TypeKind represents different kinds of types
type TypeKind string

const (
	TypeBuiltin TypeKind = "TypeBuiltin"
	TypeRecord  TypeKind = "TypeRecord"
	TypeArray   TypeKind = "TypeArray"
)

// TypeNode represents a type. Builtins are shared singletons; record and
// array types are created once per declaring node and compared by identity.
type TypeNode struct {
	Kind TypeKind
	// Builtin name, or the declared name of a record/array type.
	String string
	// TypeArray: element type.
	Child *TypeNode
	// TypeRecord, TypeArray: the NodeRecordType or NodeArrayType declaring it.
	Decl NodeID
}

// RecordField is one field of a record type.
type RecordField struct {
	Name string
	Type *TypeNode
}

var (
	TypeInt    = &TypeNode{Kind: TypeBuiltin, String: "int"}
	TypeString = &TypeNode{Kind: TypeBuiltin, String: "string"}
	TypeBool   = &TypeNode{Kind: TypeBuiltin, String: "bool"}
	TypeVoid   = &TypeNode{Kind: TypeBuiltin, String: "void"}
	TypeNil    = &TypeNode{Kind: TypeBuiltin, String: "nil"}
	// TypeError is the sentinel for expressions that failed to check.
	TypeError = &TypeNode{Kind: TypeBuiltin, String: "<error>"}
)

// builtinTypes are the type names visible at the program root.
var builtinTypes = map[string]*TypeNode{
	"int":    TypeInt,
	"string": TypeString,
	"bool":   TypeBool,
}

// TypesEqual reports whether a and b denote the same type.
func TypesEqual(a, b *TypeNode) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	if a.Kind == TypeBuiltin {
		return a.String == b.String
	}
	return false
}

// TypeToString returns a human-readable type name.
func TypeToString(t *TypeNode) string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case TypeArray:
		if t.String == "" {
			return "array of " + TypeToString(t.Child)
		}
	case TypeRecord:
		if t.String == "" {
			return "record"
		}
	}
	return t.String
}

func isRecord(t *TypeNode) bool {
	return t.Kind == TypeRecord
}

func isError(ts ...*TypeNode) bool {
	for _, t := range ts {
		if t == TypeError {
			return true
		}
	}
	return false
}

// assignable reports whether a value of type src may be stored in dst.
func assignable(dst, src *TypeNode) bool {
	if TypesEqual(dst, src) {
		return true
	}
	return src == TypeNil && isRecord(dst)
}

// unify returns the common type of two branches, or nil if they disagree.
func unify(a, b *TypeNode) *TypeNode {
	switch {
	case TypesEqual(a, b):
		return a
	case a == TypeNil && isRecord(b):
		return b
	case b == TypeNil && isRecord(a):
		return a
	}
	return nil
}
