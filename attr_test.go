package tiger

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestDirectionString(t *testing.T) {
	be.Equal(t, Synthesized.String(), "synthesized")
	be.Equal(t, Inherited.String(), "inherited")
}

func TestAttributesAreLazy(t *testing.T) {
	tree := mustRead(t, `(binary "+" 14 6)`)
	c := NewCompilation(tree, nil)
	be.True(t, !c.types.cached(tree.Main()))
	be.True(t, !c.offsets.cached(tree.Main()))

	be.Err(t, c.Check(), nil)
	be.True(t, c.types.cached(tree.Main()))
	be.True(t, !c.offsets.cached(tree.Main()))

	// A second compilation of the same tree starts from scratch.
	other := NewCompilation(tree, nil)
	be.True(t, !other.types.cached(tree.Main()))
}

func TestInheritedAtRoot(t *testing.T) {
	tree := mustRead(t, `1`)
	c := NewCompilation(tree, nil)
	be.Equal(t, c.FrameOffset(tree.RootID()), 0)
	be.Equal(t, c.FrameDepth(tree.RootID()), 0)
	be.Equal(t, c.FrameOffset(tree.Main()), 0)
}

func TestAttributeCycle(t *testing.T) {
	tree := mustRead(t, `1`)
	c := NewCompilation(tree, nil)
	var loop *attribute[int]
	loop = synthesized("loop", func(id NodeID) int {
		return loop.of(c, id) + 1
	})

	err := func() (err error) {
		defer c.recover(&err)
		loop.of(c, tree.Main())
		return nil
	}()
	be.Err(t, err, "1:1: error: loop of NodeInt depends on itself")
	be.Equal(t, c.Errors()[0].Kind, ErrCycle)
	be.True(t, c.aborted)
	be.True(t, !loop.cached(tree.Main()))
	be.Equal(t, loop.state[tree.Main()], unevaluated)
}

func TestQueriesAfterFailedCheck(t *testing.T) {
	tree := mustRead(t, `(seq (let ((vardec x 5)) x) x)`)
	items := tree.Items(tree.Node(tree.Main()).Exps)
	c := NewCompilation(tree, nil)
	be.Err(t, c.Check(), "1:29: error: undefined variable 'x'")

	for range 2 {
		be.Equal(t, c.TypeOf(tree.Main()), TypeError)
		be.Equal(t, c.TypeOf(items[0]), TypeInt)
		be.Equal(t, c.Register(tree.Main()), 1)
		be.Equal(t, c.FrameOffset(items[1]), 0)
		_, ok := c.ResolveVariable("x", items[1])
		be.True(t, !ok)
	}
	be.Equal(t, len(c.Errors()), 1)
	be.Err(t, c.Check(), "1:29: error: undefined variable 'x'")
}

func TestQueryBeforeCheck(t *testing.T) {
	tree := mustRead(t, `(seq (let ((vardec x 5)) x) x)`)
	c := NewCompilation(tree, nil)
	be.Equal(t, c.TypeOf(tree.Main()), TypeError)
	be.Equal(t, len(c.Errors()), 1)

	be.Err(t, c.Check(), "1:29: error: undefined variable 'x'")
	var sb strings.Builder
	be.Err(t, c.Emit(&sb), "undefined variable 'x'")
	be.Equal(t, len(c.Errors()), 1)
	be.Equal(t, c.Errors()[0].Kind, ErrUndefined)
}

// Every query gives the same answer however often it is asked.
func TestAttributesAreIdempotent(t *testing.T) {
	tree, c := checkedTree(t, labelProgram)
	type answer struct {
		typ    *TypeNode
		reg    int
		offset int
		depth  int
	}
	ask := func(id NodeID) answer {
		a := answer{offset: c.FrameOffset(id), depth: c.FrameDepth(id)}
		if tree.Node(id).Kind.IsExpression() {
			a.typ, a.reg = c.TypeOf(id), c.Register(id)
		}
		return a
	}

	first := make([]answer, tree.Len())
	for id := NodeID(1); int(id) < tree.Len(); id++ {
		first[id] = ask(id)
	}
	_, err := Compile(tree, nil)
	be.Err(t, err, nil)
	for id := NodeID(1); int(id) < tree.Len(); id++ {
		be.Equal(t, ask(id), first[id])
	}
	be.Equal(t, len(c.Errors()), 0)
}
