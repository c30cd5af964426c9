package ocr

import (
	"image"
	"image/color"
)

// Grayscale converts any decoded image to 8-bit grayscale using the standard
// luminance weights. Images that are already grayscale pass through copied.
func Grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// Binarize applies a fixed-threshold binarization: pixels at or above the
// cutoff become white, everything else black. Tesseract performs noticeably
// better on binarized certificate scans than on raw grayscale.
func Binarize(gray *image.Gray, cutoff uint8) *image.Gray {
	bounds := gray.Bounds()
	bin := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if gray.GrayAt(x, y).Y >= cutoff {
				bin.SetGray(x, y, color.Gray{Y: 255})
			} else {
				bin.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return bin
}
