package mask

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"

	roomimage "room-stager/internal/image"
)

var (
	// ErrMaskExport wraps every export failure.
	ErrMaskExport = errors.New("mask export failed")
	// ErrEmptyMask means there are no strokes to export.
	ErrEmptyMask = errors.New("mask is empty")
	// ErrDimensionMismatch means the native buffer does not match the photo.
	ErrDimensionMismatch = errors.New("mask dimensions do not match image")
	// ErrZeroDimension means a buffer or image has no pixels.
	ErrZeroDimension = errors.New("mask has zero dimension")
)

// DimensionMismatchError reports the expected and actual native sizes.
type DimensionMismatchError struct {
	ImageWidth, ImageHeight   int
	BufferWidth, BufferHeight int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%v: %v: image %dx%d, buffer %dx%d",
		ErrMaskExport, ErrDimensionMismatch,
		e.ImageWidth, e.ImageHeight, e.BufferWidth, e.BufferHeight)
}

func (e *DimensionMismatchError) Unwrap() []error {
	return []error{ErrMaskExport, ErrDimensionMismatch}
}

// ExportedMask is an encoded 8-bit grayscale PNG of the native buffer.
type ExportedMask struct {
	PNG      []byte
	Width    int
	Height   int
	Coverage float64
}

// DataURL returns the PNG as a data: URL.
func (m *ExportedMask) DataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(m.PNG)
}

// Export validates and encodes the native buffer of pair. It fails without
// side effects if the buffer is empty-sized, does not match img, or no
// strokes have been drawn.
func Export(img *roomimage.NormalizedImage, pair *BufferPair, history *History) (*ExportedMask, error) {
	if img == nil || pair == nil || pair.Native.Width() == 0 || pair.Native.Height() == 0 {
		return nil, fmt.Errorf("%w: %w", ErrMaskExport, ErrZeroDimension)
	}
	if pair.Native.Width() != img.Width() || pair.Native.Height() != img.Height() {
		return nil, &DimensionMismatchError{
			ImageWidth:   img.Width(),
			ImageHeight:  img.Height(),
			BufferWidth:  pair.Native.Width(),
			BufferHeight: pair.Native.Height(),
		}
	}
	if history == nil || history.Len() == 0 {
		return nil, fmt.Errorf("%w: %w", ErrMaskExport, ErrEmptyMask)
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, pair.Native.Gray()); err != nil {
		return nil, fmt.Errorf("%w: encode: %w", ErrMaskExport, err)
	}
	return &ExportedMask{
		PNG:      buf.Bytes(),
		Width:    pair.Native.Width(),
		Height:   pair.Native.Height(),
		Coverage: pair.Native.Coverage(),
	}, nil
}
