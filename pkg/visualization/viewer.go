package visualization

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"path/filepath"

	"srmsegment/internal/models"
	"srmsegment/pkg/imageio"
	"srmsegment/pkg/srm"
)

// Rendering kinds understood by Render
const (
	KindLabels     = "labels"
	KindAverages   = "averages"
	KindColor      = "color"
	KindBoundaries = "boundaries"
)

// ErrLabelRange is returned for label maps with more regions than a 16-bit
// image can address
var ErrLabelRange = errors.New("label map exceeds the 16-bit range")

// Viewer turns a segmentation result into displayable images
type Viewer struct {
	// source is the segmented image
	source *models.GrayImage

	// result is the segmentation of source
	result *srm.Result

	// boundaryColor marks region borders in the boundary overlay
	boundaryColor color.RGBA
}

// NewViewer creates a viewer for a segmentation of src
func NewViewer(src *models.GrayImage, res *srm.Result) *Viewer {
	return &Viewer{
		source:        src,
		result:        res,
		boundaryColor: color.RGBA{R: 255, G: 0, B: 0, A: 255},
	}
}

// SetBoundaryColor changes the color used by Boundaries
func (v *Viewer) SetBoundaryColor(c color.RGBA) {
	v.boundaryColor = c
}

// Render produces the image of the given kind
func (v *Viewer) Render(kind string) (image.Image, error) {
	switch kind {
	case KindLabels:
		return v.LabelImage()
	case KindAverages:
		return v.AverageImage(), nil
	case KindColor:
		return v.ColorLabels(), nil
	case KindBoundaries:
		return v.Boundaries(), nil
	default:
		return nil, fmt.Errorf("invalid rendering: %s (must be labels, averages, color or boundaries)", kind)
	}
}

// LabelImage returns the label map as an 8-bit or 16-bit gray image,
// matching the result's bit depth. Averaged results are labelled with the
// narrowest depth that fits. Label maps wider than 16 bits cannot be
// represented and return ErrLabelRange.
func (v *Viewer) LabelImage() (image.Image, error) {
	r := v.result
	rect := image.Rect(0, 0, r.Width, r.Height)

	switch {
	case r.Labels8 != nil:
		return &image.Gray{Pix: append([]uint8(nil), r.Labels8...), Stride: r.Width, Rect: rect}, nil
	case r.Labels16 != nil:
		img := image.NewGray16(rect)
		for i, l := range r.Labels16 {
			img.SetGray16(i%r.Width, i/r.Width, color.Gray16{Y: l})
		}
		return img, nil
	case r.Regions > 1<<16:
		return nil, fmt.Errorf("%d regions: %w", r.Regions, ErrLabelRange)
	case r.Regions <= 1<<8:
		img := image.NewGray(rect)
		for i := range img.Pix {
			img.Pix[i] = uint8(r.Label(i))
		}
		return img, nil
	default:
		img := image.NewGray16(rect)
		for i := 0; i < r.Width*r.Height; i++ {
			img.SetGray16(i%r.Width, i/r.Width, color.Gray16{Y: uint16(r.Label(i))})
		}
		return img, nil
	}
}

// AverageImage replaces every pixel by its region's mean intensity
func (v *Viewer) AverageImage() image.Image {
	r := v.result
	img := image.NewGray(image.Rect(0, 0, r.Width, r.Height))
	for i := range img.Pix {
		img.Pix[i] = uint8(math.Max(0, math.Min(255, math.Round(r.Average(i)))))
	}
	return img
}

// ColorLabels paints every region with a color derived from its label
func (v *Viewer) ColorLabels() image.Image {
	r := v.result
	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	for i := 0; i < r.Width*r.Height; i++ {
		img.SetRGBA(i%r.Width, i/r.Width, LabelColor(r.Label(i)))
	}
	return img
}

// Boundaries draws the source image with pixels on a region border
// highlighted. A pixel is on a border when its right or lower neighbour
// belongs to another region.
func (v *Viewer) Boundaries() image.Image {
	r := v.result
	w, h := r.Width, r.Height
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := x + w*y
			l := r.Label(i)
			edge := (x+1 < w && r.Label(i+1) != l) || (y+1 < h && r.Label(i+w) != l)
			if edge {
				img.SetRGBA(x, y, v.boundaryColor)
				continue
			}
			g := v.source.Pix[i]
			img.SetRGBA(x, y, color.RGBA{R: g, G: g, B: g, A: 255})
		}
	}
	return img
}

// LabelColor maps a label to a stable, well spread opaque color
func LabelColor(label int) color.RGBA {
	h := uint32(label+1) * 2654435761
	return color.RGBA{
		R: uint8(h >> 24),
		G: uint8(h >> 16),
		B: uint8(h >> 8),
		A: 255,
	}
}

// SaveAll renders every kind in kinds and writes them to outputDir as
// <base>_<kind><ext>. It returns the written paths. A label map too wide
// for an image is not an error: its kind is returned in skipped and the
// remaining kinds are still written.
func (v *Viewer) SaveAll(outputDir, base, ext string, kinds []string) (paths, skipped []string, err error) {
	for _, kind := range kinds {
		img, err := v.Render(kind)
		if errors.Is(err, ErrLabelRange) {
			skipped = append(skipped, kind)
			continue
		}
		if err != nil {
			return paths, skipped, err
		}

		path := filepath.Join(outputDir, fmt.Sprintf("%s_%s%s", base, kind, ext))
		if err := imageio.Save(path, img); err != nil {
			return paths, skipped, err
		}
		paths = append(paths, path)
	}
	return paths, skipped, nil
}
