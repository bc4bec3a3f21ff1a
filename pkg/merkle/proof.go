package merkle

import (
	"fmt"
	"sort"
)

// Step is one sibling on the path from a leaf to the root.
type Step struct {
	Left    bool // sibling is the left input to the parent hash
	Sibling [32]byte
}

// Proof shows that a leaf is included under a root.
type Proof struct {
	Leaf  Leaf
	Steps []Step
}

// Prove builds the inclusion proof for the leaf with the given key.
func (t *Tree) Prove(key string) (*Proof, error) {
	idx := sort.Search(len(t.leaves), func(i int) bool { return t.leaves[i].Key >= key })
	if idx == len(t.leaves) || t.leaves[idx].Key != key {
		return nil, fmt.Errorf("merkle: no leaf %q", key)
	}

	p := &Proof{Leaf: t.leaves[idx]}
	for _, level := range t.levels[:len(t.levels)-1] {
		sib := idx ^ 1
		if sib >= len(level) {
			sib = idx // the odd tail node pairs with itself
		}
		p.Steps = append(p.Steps, Step{Left: sib < idx, Sibling: level[sib]})
		idx /= 2
	}
	return p, nil
}

// Verify recomputes the root from the proof and reports whether the walk
// ends at want.
func (p *Proof) Verify(want [32]byte) bool {
	cur := leafHash(p.Leaf)
	for _, s := range p.Steps {
		if s.Left {
			cur = nodeHash(s.Sibling, cur)
		} else {
			cur = nodeHash(cur, s.Sibling)
		}
	}
	return cur == want
}
