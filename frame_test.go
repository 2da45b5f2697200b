package tiger

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestWindow(t *testing.T) {
	be.Equal(t, window(0), 4)
	be.Equal(t, window(1), 4)
	be.Equal(t, window(2), 5)
	be.Equal(t, window(4), 7)
}

func TestLetFrameOffsets(t *testing.T) {
	tree, c := checkedTree(t, `(let ((vardec a 1) (fundec f () 0) (vardec b 2)) 0)`)
	let := tree.Node(tree.Main())
	be.Equal(t, c.FrameOffset(tree.Main()), 0)
	be.Equal(t, c.FrameOffset(findNodes(tree, NodeVarDecl, "a")[0]), 0)
	be.Equal(t, c.FrameOffset(findNodes(tree, NodeVarDecl, "b")[0]), 1)
	be.Equal(t, c.FrameOffset(let.Body), 2)
	be.Equal(t, c.dataSlots(let.Decls), 2)

	// The let releases exactly the slots its variables claimed.
	asm := compileSource(t, `(let ((vardec a 1) (fundec f () 0) (vardec b 2)) 0)`, nil)
	be.True(t, strings.HasSuffix(asm, lines("SET(R1, 0)", "DEC(SP, 2)", "HALT()")))
}

func TestFunctionFrameOffsets(t *testing.T) {
	tree, c := checkedTree(t, `(let ((fundec f ((a int) (b int)) int (binary "+" a b))) (call f 1 2))`)
	fn := findNodes(tree, NodeFuncDecl, "f")[0]
	body := tree.Node(fn).Body

	be.Equal(t, c.FrameOffset(findNodes(tree, NodeField, "a")[0]), 3)
	be.Equal(t, c.FrameOffset(findNodes(tree, NodeField, "b")[0]), 4)
	be.Equal(t, c.savedRegisters(fn), 2)
	be.Equal(t, c.FrameOffset(body), window(2)+2)
	be.Equal(t, c.FrameDepth(fn), 0)
	be.Equal(t, c.FrameDepth(body), 1)
	be.Equal(t, c.FrameDepth(tree.Node(tree.Main()).Body), 0)
}

func TestCallFrameOffsets(t *testing.T) {
	tree, c := checkedTree(t, `(let ((vardec s "a")) (call concat s (call chr 66)))`)
	outer := findNodes(tree, NodeCall, "concat")[0]
	inner := findNodes(tree, NodeCall, "chr")[0]
	be.Equal(t, c.FrameOffset(outer), 1)
	// Every argument runs above the whole call window.
	for _, arg := range tree.Items(tree.Node(outer).Args) {
		be.Equal(t, c.FrameOffset(arg), 1+window(2))
	}
	be.Equal(t, c.FrameOffset(inner), 6)
	be.Equal(t, c.FrameOffset(tree.Items(tree.Node(inner).Args)[0]), 6+window(1))
}

func TestRuntimeCallFrameOffsets(t *testing.T) {
	tree, c := checkedTree(t, `(binary "/" (binary "+" 1 2) 3)`)
	div := tree.Node(tree.Main())
	be.Equal(t, c.FrameOffset(div.Left), window(2))
	be.Equal(t, c.FrameOffset(div.Right), window(2))
	be.Equal(t, c.Register(tree.Main()), 3)
}

func TestForFrameOffsets(t *testing.T) {
	tree, c := checkedTree(t, `(for i 1 3 (let ((vardec y i)) (seq)))`)
	loop := tree.Node(tree.Main())
	be.Equal(t, c.FrameOffset(loop.Lo), 0)
	be.Equal(t, c.FrameOffset(loop.Body), 1)
	be.Equal(t, c.FrameOffset(findNodes(tree, NodeVarDecl, "y")[0]), 1)
}

func TestRegisters(t *testing.T) {
	tests := []struct {
		src      string
		expected int
	}{
		{`1`, 1},
		{`x`, 1},
		{`(binary "+" 1 2)`, 2},
		{`(binary "+" (binary "+" 1 2) 3)`, 2},
		{`(binary "+" (binary "+" 1 2) (binary "+" 3 4))`, 3},
		{`(binary "<" "a" "b")`, 2},
		{`(binary "/" 1 2)`, 2},
		{`(call printi 1)`, 2},
		{`(call flush)`, 1},
		{`(call concat "a" (call chr 1))`, 3},
		{`(if true 1 (binary "+" 1 2))`, 2},
		{`(while true (binary "+" 1 2))`, 2},
		{`(for i 1 2 (seq))`, 3},
		{`(for i 1 2 (call printi (binary "+" i 1)))`, 4},
		{`(let ((vardec x (binary "+" 1 2))) x)`, 2},
		{`(seq 1 (binary "*" 2 3) 4)`, 2},
	}

	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			tree := mustRead(t, test.src)
			c := NewCompilation(tree, nil)
			be.Equal(t, c.Register(tree.Main()), test.expected)
		})
	}
}

// Operands that are live together never share a register.
func TestRegistersDoNotCollide(t *testing.T) {
	tree, c := checkedTree(t, `
(let ((vardec a 1) (vardec b 2))
  (seq
    (binary "*" (binary "+" a b) (binary "-" (binary "*" a 2) b))
    (binary "<" (binary "+" a (binary "+" b 1)) a)
    (binary "+" 1 (binary "-" (binary "+" a b) (binary "+" b a)))))`)
	seen := 0
	for id := NodeID(1); int(id) < tree.Len(); id++ {
		n := tree.Node(id)
		if (n.Kind != NodeArith && n.Kind != NodeCompare) || c.isRuntimeCall(id) {
			continue
		}
		seen++
		l, r, reg := c.Register(n.Left), c.Register(n.Right), c.Register(id)
		be.True(t, reg >= l && reg >= r)
		if l == r {
			be.True(t, reg > l)
		}
	}
	be.Equal(t, seen, 11)
}

var spOp = regexp.MustCompile(`^(INC|DEC)\(SP, (\d+)\)$`)

// spDelta sums every stack pointer adjustment in asm.
func spDelta(t *testing.T, asm string) int {
	delta := 0
	for _, line := range strings.Split(asm, "\n") {
		m := spOp.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[2])
		be.Err(t, err, nil)
		if m[1] == "INC" {
			delta += n
		} else {
			delta -= n
		}
	}
	return delta
}

// Without break, every slot a construct claims is released on every path,
// so the adjustments of the whole program cancel out.
func TestStackBalance(t *testing.T) {
	programs := []string{
		`(let ((vardec x 5)) (binary "+" x 1))`,
		`(let ((vardec a 1) (fundec f () 0) (vardec b 2)) 0)`,
		`(let ((vardec x 1)) (let ((vardec y x) (vardec z y)) (binary "*" y z)))`,
		`(for i 1 3 (let ((vardec y i)) (call printi y)))`,
		`(let ((vardec i 0)) (while (binary "<" i 3) (assign i (binary "+" i 1))))`,
		`(binary "/" (binary "/" 8 2) 2)`,
		`(if (binary "=" "a" "b") (call print "same") (call print "different"))`,
		`(let ((fundec f ((n int)) int (if (binary "<" n 1) 0 (call f (binary "-" n 1))))) (call f 3))`,
		`(let ((vardec x 1) (fundec bump () (let ((vardec d 1)) (assign x (binary "+" x d))))) (call bump))`,
	}

	for _, src := range programs {
		t.Run(src, func(t *testing.T) {
			be.Equal(t, spDelta(t, compileSource(t, src, nil)), 0)
		})
	}
}
