package tiger

// Functions provided by the HERA Tiger runtime. They live at depth 0, take
// no static link and are called by their plain name.
var library = map[string]*FuncInfo{
	"print":     libFunc("print", TypeVoid, TypeString),
	"printi":    libFunc("printi", TypeVoid, TypeInt),
	"printint":  libFunc("printint", TypeVoid, TypeInt),
	"flush":     libFunc("flush", TypeVoid),
	"getchar":   libFunc("getchar", TypeString),
	"ord":       libFunc("ord", TypeInt, TypeString),
	"chr":       libFunc("chr", TypeString, TypeInt),
	"size":      libFunc("size", TypeInt, TypeString),
	"substring": libFunc("substring", TypeString, TypeString, TypeInt, TypeInt),
	"concat":    libFunc("concat", TypeString, TypeString, TypeString),
	"not":       libFunc("not", TypeInt, TypeInt),
	"exit":      libFunc("exit", TypeVoid, TypeInt),
}

// Runtime helpers that lowering calls directly; they are not visible to
// programs.
const (
	runtimeStrcmp = "tstrcmp"
	runtimeDivide = "tdiv"
)

func libFunc(name string, result *TypeNode, params ...*TypeNode) *FuncInfo {
	return &FuncInfo{Name: name, Label: name, Params: params, Result: result}
}
