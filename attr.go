package tiger

// Direction says where an attribute's value comes from.
type Direction uint8

const (
	// Synthesized attributes are computed from the node itself and its children.
	Synthesized Direction = iota
	// Inherited attributes are supplied by the node's parent.
	Inherited
)

func (d Direction) String() string {
	if d == Inherited {
		return "inherited"
	}
	return "synthesized"
}

type evalState uint8

const (
	unevaluated evalState = iota
	evaluating
	evaluated
)

// attribute is a lazily computed, memoized per-node value. Each compilation
// owns its own attributes, so two compilations of one tree never share state.
type attribute[T any] struct {
	name string
	dir  Direction

	// Synthesized: evaluated on the node itself, dispatched on its kind.
	self func(id NodeID) T
	// Inherited: evaluated by the parent for one of its children,
	// dispatched on the parent's kind. atRoot is the root's value.
	child  func(parent, child NodeID) T
	atRoot T

	state []evalState
	vals  []T
}

func synthesized[T any](name string, eval func(id NodeID) T) *attribute[T] {
	return &attribute[T]{name: name, dir: Synthesized, self: eval}
}

func inherited[T any](name string, atRoot T, eval func(parent, child NodeID) T) *attribute[T] {
	return &attribute[T]{name: name, dir: Inherited, child: eval, atRoot: atRoot}
}

// of returns the attribute's value for id, computing it on first use.
func (a *attribute[T]) of(c *Compilation, id NodeID) T {
	if a.state == nil {
		a.state = make([]evalState, c.tree.Len())
		a.vals = make([]T, c.tree.Len())
	}
	switch a.state[id] {
	case evaluated:
		return a.vals[id]
	case evaluating:
		c.fatalf(id, ErrCycle, "%s of %s depends on itself", a.name, c.describe(id))
	}
	a.state[id] = evaluating
	defer func() {
		// An abort leaves the node free to be asked again.
		if a.state[id] == evaluating {
			a.state[id] = unevaluated
		}
	}()
	var v T
	if a.dir == Synthesized {
		v = a.self(id)
	} else if id == c.tree.root {
		v = a.atRoot
	} else {
		v = a.child(c.parent(id), id)
	}
	a.vals[id] = v
	a.state[id] = evaluated
	return v
}

// cached reports whether the attribute has been computed for id.
func (a *attribute[T]) cached(id NodeID) bool {
	return a.state != nil && a.state[id] == evaluated
}

// parent returns id's parent. Asking for the parent of the root or of an
// unlinked node is a construction bug.
func (c *Compilation) parent(id NodeID) NodeID {
	p, ok := c.tree.Parent(id)
	if !ok {
		if id == c.tree.root {
			c.fatalf(id, ErrScopeStructure, "the program root has no parent")
		}
		c.fatalf(id, ErrScopeStructure, "%s has no parent link; the tree was not rooted", c.describe(id))
	}
	return p
}

func (c *Compilation) describe(id NodeID) string {
	n := c.tree.Node(id)
	if n.Name != "" {
		return string(n.Kind) + " '" + n.Name + "'"
	}
	return string(n.Kind)
}
