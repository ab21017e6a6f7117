package obj

// VertexKey identifies a unique vertex by its attribute references. Two keys
// are equal only when all three references are equal, even if different
// references resolve to the same values.
type VertexKey struct {
	Pos, Tex, Norm int
}

// DedupTable assigns dense ids to vertex keys in first-seen order.
type DedupTable struct {
	ids  map[VertexKey]uint32
	keys []VertexKey
}

// NewDedupTable creates an empty table sized for about n keys.
func NewDedupTable(n int) *DedupTable {
	return &DedupTable{
		ids:  make(map[VertexKey]uint32, n),
		keys: make([]VertexKey, 0, n),
	}
}

// ID returns the id of k, assigning the next free id on first sight.
func (t *DedupTable) ID(k VertexKey) uint32 {
	if id, ok := t.ids[k]; ok {
		return id
	}
	id := uint32(len(t.keys))
	t.ids[k] = id
	t.keys = append(t.keys, k)
	return id
}

// Len returns the number of unique keys.
func (t *DedupTable) Len() int {
	return len(t.keys)
}

// Keys returns the unique keys ordered by id. The slice must not be
// modified.
func (t *DedupTable) Keys() []VertexKey {
	return t.keys
}

// Dedup collapses the corners of m into unique vertices. It returns the
// table and the primitives rewritten as dense ids, in corner order.
func Dedup(m *Model) (*DedupTable, []uint32) {
	table := NewDedupTable(len(m.Corners))
	indices := make([]uint32, len(m.Corners))
	for i, c := range m.Corners {
		indices[i] = table.ID(c.Key())
	}
	return table, indices
}
