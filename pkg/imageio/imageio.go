// Package imageio loads rasters of any supported format into 8-bit gray
// buffers and writes rendered results back to disk.
package imageio

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"srmsegment/internal/models"
)

// SupportedExtensions lists the file extensions Load understands
var SupportedExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".tif", ".tiff", ".bmp"}

// WritableExtensions lists the file extensions Save can encode
var WritableExtensions = []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp"}

// IsSupported reports whether the file extension names a readable format
func IsSupported(path string) bool {
	return hasExtension(path, SupportedExtensions)
}

// IsWritable reports whether Save can encode the format named by the file
// extension
func IsWritable(path string) bool {
	return hasExtension(path, WritableExtensions)
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}

// Decode reads an image from a file
func Decode(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// Load reads an image file and converts it to 8-bit gray. When maxDimension
// is positive, images whose width or height exceeds it are downscaled first.
func Load(path string, maxDimension int) (*models.GrayImage, error) {
	img, err := Decode(path)
	if err != nil {
		return nil, err
	}
	if maxDimension > 0 {
		img = Downscale(img, maxDimension)
	}
	gray := ToGray(img)
	gray.Name = filepath.Base(path)
	return gray, nil
}

// ToGray converts any image into a flat 8-bit gray buffer using the
// standard luma conversion. The result's origin is always (0, 0).
func ToGray(img image.Image) *models.GrayImage {
	b := img.Bounds()
	out := models.NewGrayImage(b.Dx(), b.Dy())

	if src, ok := img.(*image.Gray); ok {
		for y := 0; y < out.Height; y++ {
			start := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*out.Width:(y+1)*out.Width], src.Pix[start:start+out.Width])
		}
		return out
	}

	dst := &image.Gray{Pix: out.Pix, Stride: out.Width, Rect: image.Rect(0, 0, out.Width, out.Height)}
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return out
}

// FromGray wraps a GrayImage as an *image.Gray sharing its pixels
func FromGray(g *models.GrayImage) *image.Gray {
	return &image.Gray{
		Pix:    g.Pix,
		Stride: g.Width,
		Rect:   image.Rect(0, 0, g.Width, g.Height),
	}
}

// Downscale shrinks img so that neither side exceeds maxDimension, keeping
// the aspect ratio. Images already small enough are returned unchanged.
func Downscale(img image.Image, maxDimension int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDimension <= 0 || (w <= maxDimension && h <= maxDimension) {
		return img
	}

	scale := float64(maxDimension) / float64(w)
	if h > w {
		scale = float64(maxDimension) / float64(h)
	}
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))

	dst := image.NewGray(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Rect, img, b, draw.Src, nil)
	return dst
}

// Save encodes img in the format named by the file extension
func Save(path string, img image.Image) error {
	if !IsWritable(path) {
		return fmt.Errorf("unsupported output format: %s", filepath.Ext(path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer file.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		err = png.Encode(file, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
	case ".tif", ".tiff":
		err = tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate})
	case ".bmp":
		err = bmp.Encode(file, img)
	default:
		return fmt.Errorf("unsupported output format: %s", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}
