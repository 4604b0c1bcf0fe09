package ast

// Find returns every node in the tree rooted at n (including n) for which
// predicate returns true, in pre-order. Used by rewrite rules that need to
// answer questions like "does this begin body contain a next?" before
// deciding how to lower it.
func Find(n *Node, predicate func(*Node) bool) []*Node {
	if n == nil {
		return nil
	}

	var out []*Node

	VisitPreOrder(n, func(cur *Node) {
		if predicate(cur) {
			out = append(out, cur)
		}
	})

	return out
}

// VisitPreOrder calls fn on n and then on every descendant, parent before
// child, left child before right.
func VisitPreOrder(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}

	fn(n)

	for _, child := range n.ChildNodes() {
		VisitPreOrder(child, fn)
	}
}

// VisitPostOrder calls fn on every descendant before calling it on n.
func VisitPostOrder(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}

	for _, child := range n.ChildNodes() {
		VisitPostOrder(child, fn)
	}

	fn(n)
}

// Ancestors returns the path from root to target's parent (exclusive of
// target), or nil if target does not occur in the tree rooted at root.
// Nodes are compared by Equal, since pointer identity cannot be relied upon
// once a rewriter has cloned a subtree.
func Ancestors(root, target *Node) []*Node {
	path, ok := findPath(root, target, nil)
	if !ok {
		return nil
	}

	return path
}

func findPath(cur, target *Node, trail []*Node) ([]*Node, bool) {
	if cur == nil {
		return nil, false
	}

	if Equal(cur, target) {
		return trail, true
	}

	for _, child := range cur.ChildNodes() {
		if path, ok := findPath(child, target, append(trail, cur)); ok {
			return path, true
		}
	}

	return nil, false
}

// CountMatching reports how many nodes in the tree rooted at n satisfy
// predicate. Used, for example, by the emitter's async-detection rule
// ("does this function body contain an await?").
func CountMatching(n *Node, predicate func(*Node) bool) int {
	count := 0

	VisitPreOrder(n, func(cur *Node) {
		if predicate(cur) {
			count++
		}
	})

	return count
}

// Contains reports whether the tree rooted at n contains any node of one of
// the given kinds.
func Contains(n *Node, kinds ...Tag) bool {
	set := make(map[Tag]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}

	found := false

	VisitPreOrder(n, func(cur *Node) {
		if _, ok := set[cur.Kind]; ok {
			found = true
		}
	})

	return found
}
