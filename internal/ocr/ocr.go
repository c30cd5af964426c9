/**
 * Text extraction for credential images.
 *
 * The Extractor owns preprocessing (grayscale + fixed-threshold binarization)
 * and output normalization; recognition itself is delegated to an Engine.
 * Engine choice is a wiring concern: the pipeline sees one Extractor type
 * regardless of which OCR backend is configured.
 */

package ocr

import (
	"context"
	"image"
	"strings"

	"github.com/uhakiki/verification-engine/internal/logging"
)

// Engine is the external OCR collaborator. Best effort: it may fail, and the
// Extractor absorbs the failure.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Extractor wraps a recognition engine with the preprocessing and
// normalization the verification pipeline depends on.
type Extractor struct {
	engine Engine
	cutoff uint8
	log    *logging.Logger
}

// NewExtractor builds an Extractor around an engine. cutoff is the
// binarization threshold (0-255) applied before recognition.
func NewExtractor(engine Engine, cutoff uint8, log *logging.Logger) *Extractor {
	return &Extractor{engine: engine, cutoff: cutoff, log: log}
}

// ExtractText recognizes text in a decoded credential image and returns it
// normalized (uppercase, collapsed whitespace). OCR failure is absorbed, not
// propagated: the empty string is a valid, penalized pipeline input.
func (e *Extractor) ExtractText(ctx context.Context, img image.Image) string {
	prepared := Binarize(Grayscale(img), e.cutoff)

	text, err := e.engine.Recognize(ctx, prepared)
	if err != nil {
		e.log.Warn("OCR recognition failed, continuing with empty text", "error", err)
		return ""
	}

	return Normalize(text)
}

// Normalize uppercases text and collapses all runs of whitespace to single
// spaces. Empty input stays empty.
func Normalize(text string) string {
	return strings.ToUpper(strings.Join(strings.Fields(text), " "))
}
