package image

import (
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"room-stager/internal/logger"
)

// DefaultMaxDimension bounds the long side of a normalized photo.
const DefaultMaxDimension = 2048

// NormalizedImage is a photo cropped to a supported ratio and bounded in
// size. Its dimensions size the native mask buffer.
type NormalizedImage struct {
	pix   *image.NRGBA
	ratio AspectRatio
}

// Width returns the pixel width.
func (n *NormalizedImage) Width() int { return n.pix.Bounds().Dx() }

// Height returns the pixel height.
func (n *NormalizedImage) Height() int { return n.pix.Bounds().Dy() }

// AspectLabel returns the chosen ratio label, e.g. "4:3".
func (n *NormalizedImage) AspectLabel() string { return n.ratio.Label }

// AspectValue returns the chosen ratio as W/H.
func (n *NormalizedImage) AspectValue() float64 { return n.ratio.Value() }

// Image returns the pixels. Callers must not modify them.
func (n *NormalizedImage) Image() image.Image { return n.pix }

// NewNormalizedImage wraps pixels that are already normalized, such as a
// cleaned photo returned by the collaborator.
func NewNormalizedImage(img image.Image, ratio AspectRatio) *NormalizedImage {
	return &NormalizedImage{pix: imaging.Clone(img), ratio: ratio}
}

// Normalizer crops and downscales photos.
type Normalizer struct {
	MaxDimension int
	Ratios       []AspectRatio
	logger       *zap.Logger
}

// NewNormalizer creates a Normalizer. Empty ratios fall back to SupportedRatios.
func NewNormalizer(maxDim int, ratios []AspectRatio, l *zap.Logger) *Normalizer {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	if len(ratios) == 0 {
		ratios = SupportedRatios
	}
	return &Normalizer{MaxDimension: maxDim, Ratios: ratios, logger: logger.OrNop(l)}
}

// Normalize center-crops src to the closest supported ratio and downscales it
// so the long side is at most MaxDimension. It never upscales.
func (n *Normalizer) Normalize(src image.Image) (*NormalizedImage, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil image", ErrImageDecode)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty image %dx%d", ErrImageDecode, w, h)
	}

	ratio := ClosestRatio(w, h, n.Ratios)
	cw, ch := cropSize(w, h, ratio)
	cropped := imaging.CropCenter(src, cw, ch)

	tw, th := targetSize(cw, ch, n.MaxDimension, ratio)
	out := cropped
	if tw != cw || th != ch {
		out = resample(cropped, tw, th)
	}

	n.logger.Debug("normalized photo",
		zap.Int("src_width", w), zap.Int("src_height", h),
		zap.String("ratio", ratio.Label),
		zap.Int("width", tw), zap.Int("height", th))

	return &NormalizedImage{pix: out, ratio: ratio}, nil
}

// NormalizeReader decodes r and normalizes the result.
func (n *Normalizer) NormalizeReader(r io.Reader) (*NormalizedImage, error) {
	img, _, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return n.Normalize(img)
}
