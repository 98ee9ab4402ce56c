package stream

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
)

// brokenImagePlaceholder synthesizes a solid mid-gray JPEG frame at the
// stream's output size, substituted for any input image this generator
// can't decode. No pack library can synthesize a blank canvas (bimg/vips
// only transforms existing image bytes), so this one spot uses the
// standard library's image/jpeg encoder directly.
func brokenImagePlaceholder(size Size) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	gray := color.RGBA{R: 96, G: 96, B: 96, A: 255}
	for y := 0; y < size.Height; y++ {
		for x := 0; x < size.Width; x++ {
			img.Set(x, y, gray)
		}
	}
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80})
	return buf.Bytes()
}
