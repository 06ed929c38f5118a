package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"
)

// envID addresses a node in the compile-time environment arena. SPEC_FULL.md
// Section 9 requires an arena of integer handles here rather than the reference
// counted Env tree of the original implementation (env.rs's Rc<Env>), so every
// scope the generator opens is appended to a single slice and referred to by its
// index for the remainder of compilation.
type envID int

type envNode struct {
	parent    envID
	hasParent bool
	names     map[string]int
	counter   int
	frame     llvm.Value
}

// envArena owns every environment node created during one Compile call.
type envArena struct {
	nodes []envNode
}

func newArena() *envArena {
	return &envArena{}
}

// create opens a new scope with the given parent (ignored when hasParent is false)
// and returns its handle.
func (a *envArena) create(parent envID, hasParent bool) envID {
	a.nodes = append(a.nodes, envNode{
		parent:    parent,
		hasParent: hasParent,
		names:     make(map[string]int),
		counter:   1,
	})
	return envID(len(a.nodes) - 1)
}

// addName assigns the next free slot in scope id to name and returns it.
func (a *envArena) addName(id envID, name string) int {
	n := &a.nodes[id]
	slot := n.counter
	n.names[name] = slot
	n.counter++
	return slot
}

// declCount returns the number of declarations assigned in scope id so far.
func (a *envArena) declCount(id envID) int {
	return a.nodes[id].counter - 1
}

func (a *envArena) setFrame(id envID, frame llvm.Value) {
	a.nodes[id].frame = frame
}

// lookup resolves name starting at scope id, returning how many static links to
// chase and the slot index in the scope where it was found.
func (a *envArena) lookup(id envID, name string) (jumps, slot int, err error) {
	cur := id
	for {
		n := &a.nodes[cur]
		if s, ok := n.names[name]; ok {
			return jumps, s, nil
		}
		if !n.hasParent {
			return 0, 0, fmt.Errorf("unresolved name: %s", name)
		}
		cur = n.parent
		jumps++
	}
}
