// Package image normalizes room photos to a supported aspect ratio and
// composites product previews.
package image

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrImageDecode is returned when the input is not a decodable image.
var ErrImageDecode = errors.New("image decode failed")

// Decode reads an image in any registered format.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", fmt.Errorf("%w: empty image %dx%d", ErrImageDecode, b.Dx(), b.Dy())
	}
	return img, format, nil
}

// DecodeFile opens and decodes the image at path.
func DecodeFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
