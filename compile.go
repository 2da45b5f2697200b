package tiger

import (
	"io"
	"strings"
)

// DefaultStdlibInclude is the runtime header every program includes.
const DefaultStdlibInclude = "Tiger-stdlib-stack-data.hera"

// Config configures a compilation.
type Config struct {
	// Error, if set, is called for every diagnostic as it is reported.
	Error ErrorHandler
	// StdlibInclude names the runtime header. Empty means DefaultStdlibInclude.
	StdlibInclude string
	// Comments adds explanatory comments to the emitted code.
	Comments bool
}

// Compilation holds the state of compiling one rooted tree: attribute
// caches, label counters and diagnostics. A tree may be compiled any number
// of times; compilations never share state.
type Compilation struct {
	tree   *Tree
	conf   Config
	labels *Labels
	errors ErrorList

	types        *attribute[*TypeNode]
	registers    *attribute[int]
	offsets      *attribute[int]
	depths       *attribute[int]
	scopes       *attribute[*scope]
	bindingTypes *attribute[*TypeNode]
	declTypes    *attribute[*TypeNode]
	recordFields *attribute[[]RecordField]
	signatures   *attribute[*FuncInfo]

	checked bool
	aborted bool
	quiet   bool
}

func NewCompilation(tree *Tree, conf *Config) *Compilation {
	c := &Compilation{tree: tree, labels: NewLabels()}
	if conf != nil {
		c.conf = *conf
	}
	if c.conf.StdlibInclude == "" {
		c.conf.StdlibInclude = DefaultStdlibInclude
	}
	c.types = synthesized("type", c.evalType)
	c.registers = synthesized("register", c.evalRegister)
	c.offsets = inherited("frame offset", 0, c.offsetFor)
	c.depths = inherited("frame depth", 0, c.depthFor)
	c.scopes = synthesized("scope", c.evalScope)
	c.bindingTypes = synthesized("variable type", c.evalBindingType)
	c.declTypes = synthesized("declared type", c.evalDeclType)
	c.recordFields = synthesized("record fields", c.evalRecordFields)
	c.signatures = synthesized("signature", c.evalSignature)
	return c
}

func (c *Compilation) Tree() *Tree {
	return c.tree
}

// Errors returns every diagnostic reported so far.
func (c *Compilation) Errors() ErrorList {
	return c.errors
}

// Compile checks the rooted tree and returns its HERA assembly.
func Compile(tree *Tree, conf *Config) (string, error) {
	var sb strings.Builder
	if err := NewCompilation(tree, conf).Emit(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Emit checks the program and writes its assembly to w. Nothing is written
// when the program has errors.
func (c *Compilation) Emit(w io.Writer) (err error) {
	if err := c.Check(); err != nil {
		return err
	}
	defer c.recover(&err)
	e := &emitter{c: c}
	e.program()
	if err := c.errors.Err(); err != nil {
		return err
	}
	_, err = io.WriteString(w, e.data.String()+e.code.String())
	return err
}
