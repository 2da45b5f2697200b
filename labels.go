package tiger

import "fmt"

// LabelCategory selects one of the label counters.
type LabelCategory uint8

const (
	LabelIf LabelCategory = iota
	LabelWhile
	LabelFor
	LabelCmp
	LabelString
	LabelSkip
	LabelFunc
	LabelLet
	numLabelCategories
)

type labelKey struct {
	cat  LabelCategory
	node NodeID
}

// Labels hands out label numbers, one counter per category. A node keeps
// the number it was first given. One Labels belongs to one compilation.
type Labels struct {
	next     [numLabelCategories]int
	assigned map[labelKey]int
}

func NewLabels() *Labels {
	return &Labels{assigned: map[labelKey]int{}}
}

// Number returns the label number of node in category cat, allocating the
// next one on first request.
func (l *Labels) Number(cat LabelCategory, node NodeID) int {
	key := labelKey{cat, node}
	if n, ok := l.assigned[key]; ok {
		return n
	}
	l.next[cat]++
	l.assigned[key] = l.next[cat]
	return l.next[cat]
}

type ifLabels struct {
	then, els, post string
}

type loopLabels struct {
	cond, post string
}

type cmpLabels struct {
	isTrue, end string
}

func (c *Compilation) ifLabels(id NodeID) ifLabels {
	n := c.labels.Number(LabelIf, id)
	return ifLabels{
		then: fmt.Sprintf("if_then_%d", n),
		els:  fmt.Sprintf("if_else_%d", n),
		post: fmt.Sprintf("if_post_%d", n),
	}
}

// loopLabels returns the labels of a while or for loop.
func (c *Compilation) loopLabels(id NodeID) loopLabels {
	if c.tree.Node(id).Kind == NodeFor {
		n := c.labels.Number(LabelFor, id)
		return loopLabels{cond: fmt.Sprintf("for_cond_%d", n), post: fmt.Sprintf("for_post_%d", n)}
	}
	n := c.labels.Number(LabelWhile, id)
	return loopLabels{cond: fmt.Sprintf("while_cond_%d", n), post: fmt.Sprintf("while_post_%d", n)}
}

func (c *Compilation) cmpLabels(id NodeID) cmpLabels {
	n := c.labels.Number(LabelCmp, id)
	return cmpLabels{isTrue: fmt.Sprintf("cmp_true_%d", n), end: fmt.Sprintf("cmp_end_%d", n)}
}

func (c *Compilation) stringLabel(id NodeID) string {
	return fmt.Sprintf("str_%d", c.labels.Number(LabelString, id))
}

func (c *Compilation) skipLabel(fn NodeID) string {
	return fmt.Sprintf("fun_skip_%d", c.labels.Number(LabelSkip, fn))
}

// funcLabel is the entry label of a user function. The suffix keeps
// functions with the same name in different scopes apart.
func (c *Compilation) funcLabel(fn NodeID) string {
	return fmt.Sprintf("%s_f%d", c.tree.Node(fn).Name, c.labels.Number(LabelFunc, fn))
}

func (c *Compilation) letNumber(id NodeID) int {
	return c.labels.Number(LabelLet, id)
}
