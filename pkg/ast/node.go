package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Loc carries source-location metadata for a Node. It is metadata only: it
// never affects compilation, but is preserved through Updated whenever the
// caller supplies one. Two shapes are supported because the external parser
// interface (see pkg/parsing) exposes both: a flat shape, and one with a
// nested Expression sub-location that itself carries Line/EndPos.
type Loc struct {
	Line       int
	EndPos     int
	BufferName string
	Source     string
	Expression *Loc
	// Parenthesized is true when the originating call site used explicit
	// parentheses. IsMethod reads this to disambiguate getter-style access
	// (x.keys) from an explicit call (x.keys()).
	Parenthesized bool
}

// Node is the canonical AST node: a kind tag plus an ordered list of
// children. Nodes are immutable after construction; every transformation
// goes through Updated, which returns a new Node rather than mutating the
// receiver. Two Nodes that look alike are never assumed to be the same
// object — compare with Equal, not ==.
type Node struct {
	Kind     Tag
	Children []Value
	Loc      *Loc
}

// Value is the type of a Node child: another *Node, a primitive
// (string, int64, float64, bool, nil), or an option map used by property
// descriptors (attr_accessor visibility, computed-property flags, etc.).
type Value any

// New constructs a Node from a kind and its children. It never copies an
// existing Node's identity — every call site that wants a variant of an
// existing node should go through Updated instead.
func New(kind Tag, children ...Value) *Node {
	return &Node{Kind: kind, Children: children}
}

// WithLoc returns a copy of n carrying the given location. Used by parser
// adapters and by rewriters that fabricate nodes but want to keep the
// original node's source position for diagnostics.
func (n *Node) WithLoc(loc *Loc) *Node {
	if n == nil {
		return nil
	}

	return &Node{Kind: n.Kind, Children: n.Children, Loc: loc}
}

// Updated returns a new Node with the given kind/children, defaulting to
// n's own kind/children when omitted (kind == "" or children == nil). The
// new node inherits n's location and any comments attached to n. Calling
// Updated(n, n.Kind, n.Children) is a structural no-op: the result Equals n.
func Updated(n *Node, kind Tag, children []Value) *Node {
	if n == nil {
		return nil
	}

	if kind == "" {
		kind = n.Kind
	}

	if children == nil {
		children = n.Children
	}

	updated := &Node{Kind: kind, Children: children, Loc: n.Loc}

	return updated
}

// Equal reports whether a and b are structurally identical: same kind, same
// children recursively (nested nodes compared with Equal, primitives
// compared by value). Locations are never considered, since they carry no
// semantic weight. Equal is the only comparison rewriters may rely on —
// pointer identity is explicitly not a substitute, since cloning is routine.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}

	if a.Kind != b.Kind || len(a.Children) != len(b.Children) {
		return false
	}

	for i := range a.Children {
		if !valueEqual(a.Children[i], b.Children[i]) {
			return false
		}
	}

	return true
}

func valueEqual(a, b Value) bool {
	an, aIsNode := a.(*Node)
	bn, bIsNode := b.(*Node)

	if aIsNode || bIsNode {
		if !aIsNode || !bIsNode {
			return false
		}

		return Equal(an, bn)
	}

	aMap, aIsMap := a.(map[string]Value)
	bMap, bIsMap := b.(map[string]Value)

	if aIsMap || bIsMap {
		if !aIsMap || !bIsMap || len(aMap) != len(bMap) {
			return false
		}

		for key, av := range aMap {
			bv, ok := bMap[key]
			if !ok || !valueEqual(av, bv) {
				return false
			}
		}

		return true
	}

	return a == b
}

// IsMethod reports whether the call site that produced n used explicit
// parentheses. Rules consult this to decide whether a send node like
// `x.keys` should be treated as a getter (pass through unchanged) or as a
// genuine method call eligible for rewriting — `x.keys()` is unambiguous,
// `x.keys` is not, unless the method name is in the configured include set.
func IsMethod(n *Node) bool {
	if n == nil || n.Loc == nil {
		return false
	}

	return n.Loc.Parenthesized
}

// Child returns the i'th child, or nil if out of range or not a *Node.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}

	child, _ := n.Children[i].(*Node)

	return child
}

// ChildNodes returns every child that is itself a *Node, in order,
// skipping primitive children.
func (n *Node) ChildNodes() []*Node {
	if n == nil {
		return nil
	}

	out := make([]*Node, 0, len(n.Children))

	for _, c := range n.Children {
		if node, ok := c.(*Node); ok && node != nil {
			out = append(out, node)
		}
	}

	return out
}

// String renders a compact debug representation; never used for emission.
func (n *Node) String() string {
	if n == nil {
		return "nil"
	}

	var b strings.Builder

	b.WriteString("(")
	b.WriteString(string(n.Kind))

	for _, c := range n.Children {
		b.WriteString(" ")
		b.WriteString(valueString(c))
	}

	b.WriteString(")")

	return b.String()
}

func valueString(v Value) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case *Node:
		return val.String()
	case string:
		return strconv.Quote(val)
	case map[string]Value:
		return fmt.Sprintf("%v", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
