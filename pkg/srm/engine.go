package srm

import "context"

// EngineStats records what a merge run did.
type EngineStats struct {
	// Pairs is the number of adjacency pairs evaluated
	Pairs int
	// Merges is the number of unions performed
	Merges int
}

// MergeEngine drains the bucket-sorted pairs in ascending difference order
// and greedily merges the regions they connect.
type MergeEngine struct {
	store     *RegionStore
	buckets   *BucketSorter
	predicate MergePredicate
	stats     EngineStats
}

// NewMergeEngine wires the three collaborators of a merge run.
func NewMergeEngine(store *RegionStore, buckets *BucketSorter, predicate MergePredicate) *MergeEngine {
	return &MergeEngine{
		store:     store,
		buckets:   buckets,
		predicate: predicate,
	}
}

// Run evaluates every pair exactly once. The context is checked before
// each difference level; on cancellation Run stops and returns ctx.Err(),
// leaving the store partially merged.
func (e *MergeEngine) Run(ctx context.Context) error {
	s := e.store
	for d := 0; d < levels; d++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for id := e.buckets.First(d); id != noPair; id = e.buckets.Next(id) {
			i, j := e.buckets.Endpoints(id)
			e.stats.Pairs++

			ri := s.find(i)
			rj := s.find(j)
			if ri == rj {
				continue
			}
			if e.predicate.Eligible(s.average[ri], s.count[ri], s.average[rj], s.count[rj]) {
				s.Merge(ri, rj)
				e.stats.Merges++
			}
		}
	}
	return nil
}

// Stats returns the counters of the last Run.
func (e *MergeEngine) Stats() EngineStats {
	return e.stats
}
