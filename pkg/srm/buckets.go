package srm

// levels is the number of distinct intensity differences between two
// 8-bit pixels.
const levels = 256

// noPair terminates a bucket list.
const noPair = -1

// BucketSorter orders every 4-connected pixel pair by absolute intensity
// difference in linear time. Each difference owns a singly linked list of
// pair ids threaded through next.
//
// Pair id 2*i is the pair (i, i+1) and 2*i+1 is the pair (i, i+width).
// Within one difference, pairs come out in raster order of their first
// pixel, the horizontal pair before the vertical one.
type BucketSorter struct {
	width  int
	height int
	head   [levels]int
	next   []int
	pairs  int
}

// NewBucketSorter builds the bucket lists for an image of the given size.
// pixels must hold width*height intensities.
func NewBucketSorter(pixels []uint8, width, height int) *BucketSorter {
	b := &BucketSorter{
		width:  width,
		height: height,
		next:   make([]int, 2*width*height),
	}
	for d := range b.head {
		b.head[d] = noPair
	}

	// Lists are filled by pushing to the front, so walk the image backwards
	// to get raster order out of them.
	for y := height - 1; y >= 0; y-- {
		for x := width - 1; x >= 0; x-- {
			i := x + width*y
			if y+1 < height {
				b.push(2*i+1, absDiff(pixels[i], pixels[i+width]))
			}
			if x+1 < width {
				b.push(2*i, absDiff(pixels[i], pixels[i+1]))
			}
		}
	}
	return b
}

func (b *BucketSorter) push(id, d int) {
	b.next[id] = b.head[d]
	b.head[d] = id
	b.pairs++
}

// Pairs returns the number of adjacency pairs in all buckets.
func (b *BucketSorter) Pairs() int {
	return b.pairs
}

// First returns the first pair id with the given difference, or -1.
func (b *BucketSorter) First(difference int) int {
	return b.head[difference]
}

// Next returns the pair following id in its bucket, or -1.
func (b *BucketSorter) Next(id int) int {
	return b.next[id]
}

// Endpoints decodes a pair id into its two pixel indices.
func (b *BucketSorter) Endpoints(id int) (int, int) {
	i := id >> 1
	if id&1 == 0 {
		return i, i + 1
	}
	return i, i + b.width
}

// Each calls fn for every pair in non-decreasing difference order.
func (b *BucketSorter) Each(fn func(difference, i, j int)) {
	for d := 0; d < levels; d++ {
		for id := b.head[d]; id != noPair; id = b.next[id] {
			i, j := b.Endpoints(id)
			fn(d, i, j)
		}
	}
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
