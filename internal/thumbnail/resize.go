package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strconv"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Sizes are the thumbnail widths produced for every image, largest first.
var Sizes = []int{500, 250, 100}

const jpegQuality = 85

const (
	// maxSourcePixels bounds the decoded size of an original image.
	maxSourcePixels = 40_000_000
	// maxHeightFactor bounds a thumbnail's height to this multiple of its width.
	maxHeightFactor = 4
)

// ErrImageTooLarge is returned for sources whose declared size exceeds maxSourcePixels.
var ErrImageTooLarge = errors.New("image too large")

// ValidSize reports whether width is one of Sizes.
func ValidSize(width int) bool {
	for _, size := range Sizes {
		if size == width {
			return true
		}
	}
	return false
}

// ParseSize returns the thumbnail width named by raw, or 0 when raw does not
// name one. Callers fall back to the original content for 0.
func ParseSize(raw string) int {
	width, err := strconv.Atoi(raw)
	if err != nil || !ValidSize(width) {
		return 0
	}
	return width
}

// VariantKey returns the blob key of the width-wide variant of key.
func VariantKey(key string, width int) string {
	return key + "_" + strconv.Itoa(width)
}

// Resize decodes src and re-encodes it scaled to width pixels wide, keeping
// the aspect ratio. Very tall sources are fitted inside a width by
// maxHeightFactor*width box instead. JPEG and GIF inputs keep their format;
// everything else becomes PNG.
func Resize(src []byte, width int) ([]byte, error) {
	if width <= 0 {
		return nil, fmt.Errorf("invalid width %d", width)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode image config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("empty image")
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxSourcePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("empty image")
	}
	dstW, dstH := fitBox(bounds.Dx(), bounds.Dy(), width, maxHeightFactor*width)

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var out bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&out, dst, &jpeg.Options{Quality: jpegQuality})
	case "gif":
		err = gif.Encode(&out, dst, nil)
	default:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&out, dst)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s thumbnail: %w", format, err)
	}
	return out.Bytes(), nil
}

// fitBox scales srcW x srcH to width wide, or to maxHeight tall when the
// width-scaled height would exceed it. Both results are at least 1.
func fitBox(srcW, srcH, width, maxHeight int) (int, int) {
	w64, h64 := int64(srcW), int64(srcH)
	height := (h64*int64(width) + w64/2) / w64
	if height <= int64(maxHeight) {
		return width, max(int(height), 1)
	}
	scaledW := (w64*int64(maxHeight) + h64/2) / h64
	return max(int(scaledW), 1), maxHeight
}
