package srm

// RegionStore keeps the per-pixel region statistics and the union-find
// forest over the flat pixel index space.
//
// index[i] >= 0 marks i as a root. A negative value -1-j redirects i to
// pixel j, and j < i always holds, so following redirections terminates.
type RegionStore struct {
	average []float64
	count   []int
	index   []int
}

// NewRegionStore makes every pixel a singleton region holding its own
// intensity.
func NewRegionStore(pixels []uint8) *RegionStore {
	n := len(pixels)
	s := &RegionStore{
		average: make([]float64, n),
		count:   make([]int, n),
		index:   make([]int, n),
	}
	for i, v := range pixels {
		s.average[i] = float64(v)
		s.count[i] = 1
		s.index[i] = i
	}
	return s
}

// Len returns the number of pixels tracked by the store.
func (s *RegionStore) Len() int {
	return len(s.index)
}

// IsRoot reports whether pixel i currently represents a region.
func (s *RegionStore) IsRoot(i int) bool {
	return s.index[i] >= 0
}

// Root returns the root of the region containing pixel i. It does not
// modify the store.
func (s *RegionStore) Root(i int) int {
	for s.index[i] < 0 {
		i = -1 - s.index[i]
	}
	return i
}

// find is Root with path compression. Every pixel on the chain is pointed
// straight at the root; the root is the smallest index on the chain so the
// redirect-to-smaller invariant is kept.
func (s *RegionStore) find(i int) int {
	root := s.Root(i)
	redirect := -1 - root
	for s.index[i] < 0 {
		next := -1 - s.index[i]
		s.index[i] = redirect
		i = next
	}
	return root
}

// Average returns the running mean intensity stored at root.
func (s *RegionStore) Average(root int) float64 {
	return s.average[root]
}

// Count returns the number of pixels merged into root.
func (s *RegionStore) Count(root int) int {
	return s.count[root]
}

// Merge unites the regions rooted at a and b. The higher index is
// redirected to the lower one, which receives the pooled statistics.
// Merge returns the surviving root.
func (s *RegionStore) Merge(a, b int) int {
	if a == b {
		return a
	}
	lo, hi := a, b
	if hi < lo {
		lo, hi = hi, lo
	}
	n := s.count[lo] + s.count[hi]
	s.average[lo] = (s.average[lo]*float64(s.count[lo]) + s.average[hi]*float64(s.count[hi])) / float64(n)
	s.count[lo] = n
	s.index[hi] = -1 - lo
	return lo
}
