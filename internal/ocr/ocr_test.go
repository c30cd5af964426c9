package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhakiki/verification-engine/internal/logging"
)

// fakeEngine records the image it was handed and returns canned output.
type fakeEngine struct {
	text string
	err  error
	got  image.Image
}

func (f *fakeEngine) Recognize(ctx context.Context, img image.Image) (string, error) {
	f.got = img
	return f.text, f.err
}

func gradientImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 16)})
		}
	}
	return img
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "HELLO WORLD", Normalize("  hello\n\tworld  "))
	assert.Equal(t, "KENYA CERTIFICATE", Normalize("Kenya   Certificate"))
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize(" \n\t "))
}

func TestExtractorNormalizesEngineOutput(t *testing.T) {
	engine := &fakeEngine{text: "  john\ndoe  12345678 "}
	e := NewExtractor(engine, 150, logging.NewLogger("test"))

	got := e.ExtractText(context.Background(), gradientImage())
	assert.Equal(t, "JOHN DOE 12345678", got)
}

func TestExtractorAbsorbsEngineFailure(t *testing.T) {
	engine := &fakeEngine{err: errors.New("tesseract exploded")}
	e := NewExtractor(engine, 150, logging.NewLogger("test"))

	got := e.ExtractText(context.Background(), gradientImage())
	assert.Equal(t, "", got, "OCR failure degrades to empty text, never an error")
}

func TestExtractorBinarizesBeforeRecognition(t *testing.T) {
	engine := &fakeEngine{text: "ok"}
	e := NewExtractor(engine, 150, logging.NewLogger("test"))

	e.ExtractText(context.Background(), gradientImage())

	require.NotNil(t, engine.got)
	bin, ok := engine.got.(*image.Gray)
	require.True(t, ok)
	for _, p := range bin.Pix {
		assert.True(t, p == 0 || p == 255, "binarized pixels must be pure black or white")
	}
}

func TestBinarizeCutoff(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(0, 0, color.Gray{Y: 149})
	gray.SetGray(1, 0, color.Gray{Y: 150})

	bin := Binarize(gray, 150)
	assert.Equal(t, uint8(0), bin.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(255), bin.GrayAt(1, 0).Y)
}

func TestGrayscaleConvertsColor(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 1, 1))
	rgba.Set(0, 0, color.RGBA{R: 255, G: 0, B: 0, A: 255})

	gray := Grayscale(rgba)
	// Standard luminance weight for pure red.
	assert.InDelta(t, 76, int(gray.GrayAt(0, 0).Y), 1)
}
