package ast

import (
	"crypto/sha1" //nolint:gosec // fingerprinting only, not security-sensitive.
	"encoding/hex"
	"fmt"
)

// Comments is a translation-unit-scoped association from Node to its
// attached comment strings, kept separate from the Node tree itself.
// Keeping comments out-of-band means Updated-produced copies can inherit
// them by a fingerprint lookup instead of requiring every rewriter to thread
// a comment field through every node shape it builds.
//
// The table is owned by one translation unit and must not be shared across
// concurrently running compiles.
type Comments struct {
	byFingerprint map[string][]string
}

// NewComments creates an empty comment table.
func NewComments() *Comments {
	return &Comments{byFingerprint: make(map[string][]string)}
}

// Attach records comment lines for n, in source order.
func (c *Comments) Attach(n *Node, lines ...string) {
	if c == nil || n == nil || len(lines) == 0 {
		return
	}

	key := fingerprint(n)
	c.byFingerprint[key] = append(c.byFingerprint[key], lines...)
}

// For returns the comment lines attached to n, or nil.
func (c *Comments) For(n *Node) []string {
	if c == nil || n == nil {
		return nil
	}

	return c.byFingerprint[fingerprint(n)]
}

// Transfer copies from's comments onto to, used by rewrite rules that
// replace one node with a structurally different one but want to preserve
// documentation. Rules that intentionally discard a node's comments should
// wrap it in a TagHide node instead of calling Transfer.
func (c *Comments) Transfer(from, to *Node) {
	if c == nil || from == nil || to == nil {
		return
	}

	if lines := c.For(from); len(lines) > 0 {
		c.Attach(to, lines...)
	}
}

// fingerprint derives a stable key from a node's structure so that an
// Updated copy — a new pointer with identical kind/children — resolves to
// the same comment entry as its predecessor.
func fingerprint(n *Node) string {
	h := sha1.New() //nolint:gosec // fingerprinting only, not security-sensitive.
	writeFingerprint(h, n)

	return hex.EncodeToString(h.Sum(nil))
}

func writeFingerprint(h interface{ Write([]byte) (int, error) }, n *Node) {
	if n == nil {
		_, _ = h.Write([]byte("nil"))

		return
	}

	_, _ = h.Write([]byte(n.Kind))

	for _, c := range n.Children {
		writeValueFingerprint(h, c)
	}
}

func writeValueFingerprint(h interface{ Write([]byte) (int, error) }, v Value) {
	switch val := v.(type) {
	case *Node:
		writeFingerprint(h, val)
	case map[string]Value:
		for k, mv := range val {
			_, _ = h.Write([]byte(k))
			writeValueFingerprint(h, mv)
		}
	default:
		_, _ = h.Write([]byte(fmt.Sprintf("%T:%v", val, val)))
	}
}
