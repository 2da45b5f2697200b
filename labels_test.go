package tiger

import (
	"regexp"
	"testing"

	"github.com/nalgeon/be"
)

func TestLabelsNumber(t *testing.T) {
	l := NewLabels()
	be.Equal(t, l.Number(LabelIf, 5), 1)
	be.Equal(t, l.Number(LabelIf, 7), 2)
	be.Equal(t, l.Number(LabelIf, 5), 1)
	be.Equal(t, l.Number(LabelWhile, 5), 1)
	be.Equal(t, l.Number(LabelIf, 9), 3)
}

const labelProgram = `
(let ((vardec n 0)
      (functions
        (fundec count ((k int)) int (if (binary ">" k 0) (call count (binary "-" k 1)) 0))
        (fundec shout ((s string)) (if (binary "=" s "") (call print "empty") (call print s)))))
  (seq
    (while (binary "<" n 5)
      (seq
        (if (binary "=" n 3) break)
        (assign n (binary "+" n 1))))
    (for i 1 n (call shout "x"))
    (if (binary "<>" (call count n) 0) (call print "nonzero"))
    (let ((fundec count () int 7)) (call printi (call count)))))`

var (
	labelDef = regexp.MustCompile(`(?m)^\s*D?LABEL\((\w+)\)`)
	labelUse = regexp.MustCompile(`(?m)^\s*(?:BR|BZ|BNZ|BL|BLE|BG|BGE)\((\w+)\)|CALL\(FP_alt, (\w+)\)`)
)

func TestLabelsAreUnique(t *testing.T) {
	asm := compileSource(t, labelProgram, nil)
	defined := map[string]bool{}
	for _, m := range labelDef.FindAllStringSubmatch(asm, -1) {
		be.True(t, !defined[m[1]])
		defined[m[1]] = true
	}
	be.True(t, defined["count_f1"])
	be.True(t, defined["shout_f2"])
	be.True(t, defined["count_f3"])

	runtime := map[string]bool{"print": true, "printi": true, runtimeStrcmp: true}
	for _, m := range labelUse.FindAllStringSubmatch(asm, -1) {
		target := m[1] + m[2]
		be.True(t, defined[target] || runtime[target])
	}
}

func TestCompilationsAreIndependent(t *testing.T) {
	tree := mustRead(t, labelProgram)
	first, err := Compile(tree, nil)
	be.Err(t, err, nil)
	second, err := Compile(tree, nil)
	be.Err(t, err, nil)
	be.Equal(t, first, second)

	// Reading the program again builds an equal tree with equal output.
	third, err := Compile(mustRead(t, labelProgram), nil)
	be.Err(t, err, nil)
	be.Equal(t, first, third)
}
