package store

import (
	"encoding/binary"
	"math"
	"sort"
	"sync"
)

// memoryIndex is an in-memory vector index using brute-force cosine search.
// It mirrors the entries table and is rebuilt from disk when the store opens.
type memoryIndex struct {
	mu      sync.RWMutex
	ids     []string
	vectors [][]float32
	pos     map[string]int
}

func newMemoryIndex() *memoryIndex {
	return &memoryIndex{pos: make(map[string]int)}
}

func (m *memoryIndex) add(id string, vector []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vec := make([]float32, len(vector))
	copy(vec, vector)
	if i, ok := m.pos[id]; ok {
		m.vectors[i] = vec
		return
	}
	m.pos[id] = len(m.ids)
	m.ids = append(m.ids, id)
	m.vectors = append(m.vectors, vec)
}

func (m *memoryIndex) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.pos[id]
	if !ok {
		return
	}
	last := len(m.ids) - 1
	m.ids[i] = m.ids[last]
	m.vectors[i] = m.vectors[last]
	m.pos[m.ids[i]] = i
	m.ids = m.ids[:last]
	m.vectors = m.vectors[:last]
	delete(m.pos, id)
}

type indexHit struct {
	id       string
	distance float64
}

// search returns up to k ids ordered by ascending cosine distance to query.
func (m *memoryIndex) search(query []float32, k int) []indexHit {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.ids) == 0 {
		return nil
	}
	hits := make([]indexHit, len(m.ids))
	for i, vec := range m.vectors {
		hits[i] = indexHit{id: m.ids[i], distance: cosineDistance(query, vec)}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k]
}

func (m *memoryIndex) size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// cosineDistance is 1 - cosine similarity; smaller means more similar.
// Vectors of mismatched length or zero magnitude get the maximum distance.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 2
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// encodeVector serializes a vector as little-endian float32s for the
// embedding blob column.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
