// Package srm implements statistical region merging (SRM) segmentation of
// single-channel 8-bit images.
//
// Every pixel starts as its own region. All 4-connected pixel pairs are
// visited once in order of increasing absolute intensity difference, and the
// two regions a pair touches are merged whenever their average intensities
// are statistically indistinguishable under a concentration bound controlled
// by the complexity parameter Q. The bound scales with 1/Q, so a larger Q is
// stricter and keeps more, smaller regions.
//
// Basic usage:
//
//	opts := srm.DefaultOptions()
//	opts.Q = 50
//	res, err := srm.Segment(pixels, width, height, opts)
//	// res.Regions is the number of regions
//	// res.Labels8 / res.Labels16 / res.Labels32 hold the label map,
//	// whichever res.BitDepth says is populated
//
// The merge loop is sequential by nature. Independent images may be
// segmented concurrently since every call owns its working arrays.
package srm
