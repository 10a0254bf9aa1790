package ir

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"strconv"
)

// StructuralHash computes a deterministic 64-bit fingerprint over a node's
// structure and literal content. Positions and metadata do not participate,
// so the same identifier written anywhere in the workspace hashes alike.
func StructuralHash(n Node) uint64 {
	h := fnv.New64a()
	hashNode(h, n)
	return h.Sum64()
}

// ComplexKey derives the stable symbol-table key for a contract identifier
// that is not a simple name: `@complex_<kind>_<hex64>`. The original node
// is retained alongside the key for structural re-matching at call sites.
func ComplexKey(n Node) string {
	return fmt.Sprintf("@complex_%s_%016x", n.Kind(), StructuralHash(n))
}

type hashWriter interface {
	Write(p []byte) (int, error)
}

func hashNode(h hashWriter, n Node) {
	if n == nil {
		h.Write([]byte{0})
		return
	}
	h.Write([]byte(n.Kind()))
	switch v := n.(type) {
	case *BoolLit:
		h.Write([]byte(strconv.FormatBool(v.Value)))
	case *LongLit:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(v.Value))
		h.Write(buf[:])
	case *StringLit:
		h.Write([]byte(v.Value))
	case *URILit:
		h.Write([]byte(v.Value))
	case *BytesLit:
		h.Write(v.Value)
	case *Var:
		h.Write([]byte(v.Name))
	}
	for _, c := range n.Children() {
		h.Write([]byte{'('})
		hashNode(h, c)
		h.Write([]byte{')'})
	}
}
