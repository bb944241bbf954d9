package ocr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	"piiscan/internal/models"
)

// Scanned documents embed their pages as DCT-encoded (JPEG) image streams.
// The probe locates the first such stream by its JPEG markers instead of
// walking the container's object graph; rendering born-digital vector pages
// is an external capability this module does not implement.
var (
	jpegSOI = []byte{0xff, 0xd8, 0xff}
	jpegEOI = []byte{0xff, 0xd9}
)

// minRasterBytes filters out thumbnails and icons so the probe lands on a
// full page scan.
const minRasterBytes = 4 * 1024

// firstPageRaster returns the first embedded JPEG large enough to be a page
// scan. For scanned documents (one raster per page) this is the first page's
// image in document order.
func firstPageRaster(raw []byte) ([]byte, error) {
	offset := 0
	for {
		rel := bytes.Index(raw[offset:], jpegSOI)
		if rel < 0 {
			return nil, models.ErrNoRaster
		}
		start := offset + rel

		end := bytes.Index(raw[start:], jpegEOI)
		if end < 0 {
			return nil, models.ErrNoRaster
		}
		segment := raw[start : start+end+len(jpegEOI)]

		if len(segment) >= minRasterBytes {
			return segment, nil
		}
		offset = start + len(segment)
	}
}

// upscaleImage decodes the raster, stretches it by factor, and re-encodes it
// as PNG. Low-resolution scans recognize noticeably better when enlarged.
func upscaleImage(raster []byte, factor float64) ([]byte, error) {
	if factor <= 1 {
		return raster, nil
	}

	src, _, err := image.Decode(bytes.NewReader(raster))
	if err != nil {
		return nil, fmt.Errorf("decode raster: %w", err)
	}

	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0,
		int(float64(bounds.Dx())*factor),
		int(float64(bounds.Dy())*factor)))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode raster: %w", err)
	}
	return buf.Bytes(), nil
}
