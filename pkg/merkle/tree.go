package merkle

import (
	"sort"

	"lukechampine.com/blake3"
)

// Domain prefixes keep leaf and interior hashes from colliding.
const (
	leafPrefix = "ucf:corpus:leaf:v1"
	nodePrefix = "ucf:corpus:node:v1"
)

// Leaf is a named digest folded into the tree.
type Leaf struct {
	Key    string
	Digest [32]byte
}

// Tree is a BLAKE3 Merkle tree over named digests. Leaves are ordered by
// key before hashing, so two trees over the same set produce the same
// root regardless of insertion order.
type Tree struct {
	leaves []Leaf
	levels [][][32]byte // levels[0] holds leaf hashes, the last the root
}

// Build hashes the leaves and folds them bottom-up. The odd node at the
// end of a level is paired with itself.
func Build(leaves []Leaf) *Tree {
	sorted := make([]Leaf, len(leaves))
	copy(sorted, leaves)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	t := &Tree{leaves: sorted}
	if len(sorted) == 0 {
		return t
	}

	level := make([][32]byte, len(sorted))
	for i, l := range sorted {
		level[i] = leafHash(l)
	}
	t.levels = append(t.levels, level)

	for len(level) > 1 {
		level = nextLevel(level)
		t.levels = append(t.levels, level)
	}
	return t
}

// Root returns the tree root. An empty tree has the zero root, which the
// ledger refuses to accept.
func (t *Tree) Root() [32]byte {
	if len(t.levels) == 0 {
		return [32]byte{}
	}
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Len reports the number of leaves.
func (t *Tree) Len() int {
	return len(t.leaves)
}

func leafHash(l Leaf) [32]byte {
	buf := make([]byte, 0, len(leafPrefix)+len(l.Key)+len(l.Digest)+2)
	buf = append(buf, leafPrefix...)
	buf = append(buf, 0)
	buf = append(buf, l.Key...)
	buf = append(buf, 0)
	buf = append(buf, l.Digest[:]...)
	return blake3.Sum256(buf)
}

func nodeHash(left, right [32]byte) [32]byte {
	buf := make([]byte, 0, len(nodePrefix)+len(left)+len(right)+1)
	buf = append(buf, nodePrefix...)
	buf = append(buf, 0)
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	return blake3.Sum256(buf)
}

func nextLevel(level [][32]byte) [][32]byte {
	if len(level)%2 != 0 {
		level = append(level, level[len(level)-1])
	}
	next := make([][32]byte, len(level)/2)
	for i := 0; i < len(level); i += 2 {
		next[i/2] = nodeHash(level[i], level[i+1])
	}
	return next
}
