package main

import (
	"bytes"
	"image"
	"image/png"
	"os"

	"room-stager/internal/app"
	roomimage "room-stager/internal/image"
)

func writePNG(path string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func loadPhoto(s *app.Session, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.LoadPhoto(f)
}

func decodeFile(path string) (image.Image, error) {
	img, _, err := roomimage.DecodeFile(path)
	return img, err
}
