package srm

import "srmsegment/internal/models"

// consolidate renumbers the forest into dense labels 0..n-1 in one forward
// pass and returns the labels with one summary per region. Every redirect
// points at a smaller index that the pass has already labelled, so the
// store's index array is rewritten in place and holds labels afterwards.
func consolidate(s *RegionStore) ([]int, []models.RegionSummary) {
	idx := s.index
	var regions []models.RegionSummary
	next := 0
	for i := range idx {
		if idx[i] < 0 {
			idx[i] = idx[-1-idx[i]]
			continue
		}
		regions = append(regions, models.RegionSummary{
			Label:   next,
			Root:    i,
			Count:   s.count[i],
			Average: s.average[i],
		})
		idx[i] = next
		next++
	}
	return idx, regions
}

// packLabels stores labels in the narrowest buffer the depth request
// allows. If the region count does not fit, the buffer is widened to the
// smallest type that holds it and overflow is reported; labels are never
// truncated.
func packLabels(r *Result, labels []int, depth models.LabelDepth) {
	limit := 1 << 16
	if depth == models.Depth8 {
		limit = 1 << 8
	}
	r.Overflow = r.Regions > limit

	switch {
	case r.Regions <= 1<<8 && depth != models.Depth16:
		r.BitDepth = 8
		r.Labels8 = make([]uint8, len(labels))
		for i, l := range labels {
			r.Labels8[i] = uint8(l)
		}
	case r.Regions <= 1<<16:
		r.BitDepth = 16
		r.Labels16 = make([]uint16, len(labels))
		for i, l := range labels {
			r.Labels16[i] = uint16(l)
		}
	default:
		r.BitDepth = 32
		r.Labels32 = make([]uint32, len(labels))
		for i, l := range labels {
			r.Labels32[i] = uint32(l)
		}
	}
}

// fillAverages writes the mean intensity of each pixel's region.
func fillAverages(r *Result, labels []int) {
	r.BitDepth = 32
	r.Averages = make([]float32, len(labels))
	for i, l := range labels {
		r.Averages[i] = float32(r.regions[l].Average)
	}
}
