package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract performs recognition with a local Tesseract installation.
type Tesseract struct {
	language string
}

// TesseractConfig holds Tesseract configuration.
type TesseractConfig struct {
	Language string
}

// NewTesseract creates a Tesseract engine.
func NewTesseract(cfg *TesseractConfig) *Tesseract {
	language := "eng"
	if cfg != nil && cfg.Language != "" {
		language = cfg.Language
	}
	return &Tesseract{language: language}
}

// Recognize runs Tesseract over the preprocessed image. A fresh client per
// call keeps the engine safe under concurrent requests.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return "", fmt.Errorf("failed to set OCR language %q: %w", t.language, err)
	}

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract OCR failed: %w", err)
	}

	return text, nil
}

// Probe verifies the Tesseract installation once at process startup by
// recognizing a trivial image. A probe failure must not be fatal: callers log
// it and keep serving, with per-request OCR failures degrading to empty text.
func (t *Tesseract) Probe() error {
	blank := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range blank.Pix {
		blank.Pix[i] = 255
	}
	blank.SetGray(4, 4, color.Gray{Y: 0})

	_, err := t.Recognize(context.Background(), blank)
	return err
}
