// Package namespace implements the scope stack that rewrite rules consult
// to resolve a bare identifier to a binding kind — self, autobind, setter,
// module/class constant, or plain local — before lowering it to its TGT
// form.
package namespace

import (
	"github.com/ruby2js/ruby2go/pkg/ast"
)

// Kind names the binding a frame associates with an identifier.
type Kind int

// Binding kinds, in the order a lookup should prefer them when a name is
// ambiguous within a single frame (it never is — DefineProps overwrites —
// but the order documents precedence intent).
const (
	KindLocal Kind = iota
	KindSelf
	KindAutobind
	KindSetter
	KindModule
	KindConst
)

// String renders a Kind for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindSelf:
		return "self"
	case KindAutobind:
		return "autobind"
	case KindSetter:
		return "setter"
	case KindModule:
		return "module"
	case KindConst:
		return "const"
	default:
		return "local"
	}
}

// Binding is what a frame stores per name: the kind, and for Module/Const
// bindings the node that declared them (used to resolve dotted paths).
type Binding struct {
	Kind Kind
	Decl *ast.Node
}

// Frame is one scope level: a class body, module body, or block. Extend
// reports whether the frame's name already existed in an enclosing scope
// at Enter time — SRC's `class Foo; end` reopening an existing class, for
// instance, behaves differently from a fresh declaration.
type Frame struct {
	Name     string
	bindings map[string]Binding
	Extend   bool
}

func newFrame(name string, extend bool) *Frame {
	return &Frame{Name: name, bindings: map[string]Binding{}, Extend: extend}
}

// Stack is the scope stack threaded through a single translation unit's
// filter run. It is not safe for concurrent use.
type Stack struct {
	frames  []*Frame
	entered map[string]bool
}

// NewStack returns an empty stack with one implicit top-level frame.
func NewStack() *Stack {
	s := &Stack{}
	s.frames = append(s.frames, newFrame("", false))

	return s
}

// Enter pushes a new frame named name. It returns true when a frame of
// the same name is on the stack or was entered (and left) earlier on this
// Stack — SRC's reopened-class semantics — so the caller can decide
// whether to treat the body as `extend`ing prior state rather than
// starting fresh.
func (s *Stack) Enter(name string) bool {
	extend := s.entered[name]

	for _, f := range s.frames {
		if f.Name == name {
			extend = true

			break
		}
	}

	if s.entered == nil {
		s.entered = map[string]bool{}
	}

	s.entered[name] = true

	s.frames = append(s.frames, newFrame(name, extend))

	return extend
}

// Leave pops the current frame, merging its bindings into the enclosing
// frame so that, e.g., a class's public methods remain visible to code
// that reopens it later in the same file.
func (s *Stack) Leave() *Frame {
	if len(s.frames) <= 1 {
		return nil
	}

	popped := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]

	enclosing := s.frames[len(s.frames)-1]
	for name, binding := range popped.bindings {
		enclosing.bindings[name] = binding
	}

	return popped
}

// Current returns the innermost frame.
func (s *Stack) Current() *Frame {
	return s.frames[len(s.frames)-1]
}

// Define records a single binding in the current frame.
func (s *Stack) Define(name string, kind Kind, decl *ast.Node) {
	s.Current().bindings[name] = Binding{Kind: kind, Decl: decl}
}

// DefineProps registers bindings learned mid-body — the typical case being
// attr_accessor/attr_reader/attr_writer expansion, which defines Self
// bindings for each accessor name only once the declaration is seen.
func (s *Stack) DefineProps(names []string, kind Kind) {
	for _, name := range names {
		s.Define(name, kind, nil)
	}
}

// Find resolves name by walking the stack from innermost outward, and
// reports whether any frame bound it.
func (s *Stack) Find(name string) (Binding, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if binding, ok := s.frames[i].bindings[name]; ok {
			return binding, true
		}
	}

	return Binding{}, false
}

// FindNode resolves a constant-path node (a chain of ast.TagConstRead
// nodes) to its declaring frame's binding, walking the path's leading
// segment against Find. Rewriters use this to decide whether a bare
// constant reference needs a dotted-path prefix in the emitted output.
func (s *Stack) FindNode(path *ast.Node) (Binding, bool) {
	if path == nil {
		return Binding{}, false
	}

	name, ok := path.Children[0].(string)
	if !ok {
		return Binding{}, false
	}

	return s.Find(name)
}

// Depth reports how many frames are currently pushed, including the
// implicit top-level frame.
func (s *Stack) Depth() int {
	return len(s.frames)
}
