package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhakiki/verification-engine/internal/config"
	"github.com/uhakiki/verification-engine/internal/logging"
	"github.com/uhakiki/verification-engine/internal/registry"
)

// fakeExtractor satisfies TextExtractor with canned normalized text.
type fakeExtractor struct {
	text  string
	calls int
}

func (f *fakeExtractor) ExtractText(ctx context.Context, img image.Image) string {
	f.calls++
	return f.text
}

// countingRegistry wraps a Registry and counts lookups.
type countingRegistry struct {
	inner registry.Registry
	calls int
}

func (c *countingRegistry) Lookup(ctx context.Context, indexNumber string) (*registry.Record, error) {
	c.calls++
	return c.inner.Lookup(ctx, indexNumber)
}

// uniformPNG encodes a flat gray image: noise sigma 0, synthetic tier.
func uniformPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	return encodePNG(t, img)
}

// stripePNG alternates two gray values column-wise; with an even width the
// population std-dev is exactly half the difference between the values.
func stripePNG(t *testing.T, a, b uint8) []byte {
	t.Helper()
	return encodePNG(t, stripeImage(a, b))
}

func stripeImage(a, b uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := a
			if x%2 == 1 {
				v = b
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestPipeline(t *testing.T, ext TextExtractor, reg registry.Registry) *Pipeline {
	t.Helper()
	return New(config.DefaultPipeline(), ext, reg, logging.NewLogger("test"))
}

func TestUndecodableImageIsTerminalError(t *testing.T) {
	ext := &fakeExtractor{text: "KENYA CERTIFICATE EXAMINATION 12345678"}
	reg := &countingRegistry{inner: registry.NewMemory()}
	p := newTestPipeline(t, ext, reg)

	verdict := p.Verify(context.Background(), []byte("definitely not an image"))

	assert.Equal(t, DecisionError, verdict.FinalDecision)
	assert.Equal(t, 0, verdict.RiskScore)
	assert.Equal(t, []string{"File is not a valid image"}, verdict.Details)
	assert.Equal(t, 0, ext.calls, "no OCR on decode failure")
	assert.Equal(t, 0, reg.calls, "no registry lookup on decode failure")
}

func TestScenarioCleanDocumentWithMatchingRecord(t *testing.T) {
	mem := registry.NewMemory()
	mem.Seed(registry.Record{
		IndexNumber: "12345678",
		FullName:    "John Doe",
		MeanGrade:   "B+",
		SchoolName:  "Nairobi High School",
	})
	reg := &countingRegistry{inner: mem}
	ext := &fakeExtractor{text: "KENYA CERTIFICATE EXAMINATION 12345678 JOHN DOE B+"}
	p := newTestPipeline(t, ext, reg)

	verdict := p.Verify(context.Background(), stripePNG(t, 100, 160))

	assert.Equal(t, DecisionVerified, verdict.FinalDecision)
	assert.Equal(t, 0, verdict.RiskScore)
	assert.Empty(t, verdict.Details)
	assert.Equal(t, 1, reg.calls)
	assert.Equal(t, map[string]string{
		"index_number":         "12345678",
		"verified_name":        "JOHN DOE",
		"verified_institution": "Nairobi High School",
	}, verdict.ExtractedData)
}

func TestScenarioSyntheticImageEmptyText(t *testing.T) {
	reg := &countingRegistry{inner: registry.NewMemory()}
	ext := &fakeExtractor{text: ""}
	p := newTestPipeline(t, ext, reg)

	verdict := p.Verify(context.Background(), uniformPNG(t))

	// forensic 40 + keyword 25 + missing identifier 50
	assert.Equal(t, 115, verdict.RiskScore)
	assert.Equal(t, DecisionRejected, verdict.FinalDecision)
	assert.Equal(t, 0, reg.calls, "no identifier, registry never consulted")
	assert.Empty(t, verdict.ExtractedData)

	require.Len(t, verdict.Details, 3)
	assert.Contains(t, verdict.Details[0], "synthetic generation")
	assert.Contains(t, verdict.Details[1], "standard terminology")
	assert.Contains(t, verdict.Details[2], "index number")
}

func TestScenarioRegistryHardNegative(t *testing.T) {
	reg := &countingRegistry{inner: registry.NewMemory()}
	ext := &fakeExtractor{text: "KENYA CERTIFICATE EXAMINATION 98765432"}
	p := newTestPipeline(t, ext, reg)

	verdict := p.Verify(context.Background(), stripePNG(t, 100, 160))

	assert.Equal(t, 100, verdict.RiskScore, "hard override, not incremented")
	assert.Equal(t, DecisionFraud, verdict.FinalDecision)
	assert.Equal(t, 1, reg.calls)
	require.Len(t, verdict.Details, 1)
	assert.Contains(t, verdict.Details[0], "98765432 NOT FOUND")
}

func TestRegistryHardNegativeOverridesZeroScore(t *testing.T) {
	// Even with a pre-lookup score of 0, a confirmed negative is FRAUD.
	reg := registry.NewMemory()
	ext := &fakeExtractor{text: "KENYA CERTIFICATE EXAMINATION 11112222"}
	p := newTestPipeline(t, ext, reg)

	verdict := p.Verify(context.Background(), stripePNG(t, 100, 160))

	assert.Equal(t, 100, verdict.RiskScore)
	assert.Equal(t, DecisionFraud, verdict.FinalDecision)
}

func TestNameAndGradeMismatchPenalties(t *testing.T) {
	mem := registry.NewMemory()
	mem.Seed(registry.Record{
		IndexNumber: "12345678",
		FullName:    "Jane Wanjiku",
		MeanGrade:   "A-",
		SchoolName:  "Mombasa Academy",
	})
	ext := &fakeExtractor{text: "KENYA CERTIFICATE EXAMINATION 12345678 JOHN DOE B+"}
	p := newTestPipeline(t, ext, mem)

	verdict := p.Verify(context.Background(), stripePNG(t, 100, 160))

	// name mismatch 50 + grade mismatch 40
	assert.Equal(t, 90, verdict.RiskScore)
	assert.Equal(t, DecisionRejected, verdict.FinalDecision)
	require.Len(t, verdict.Details, 2)
	assert.Contains(t, verdict.Details[0], "Name mismatch")
	assert.Contains(t, verdict.Details[0], "JANE WANJIKU")
	assert.Contains(t, verdict.Details[1], "Grade mismatch")

	// extracted_data is still populated on lookup success with mismatches
	assert.Equal(t, "JANE WANJIKU", verdict.ExtractedData["verified_name"])
	assert.Equal(t, "Mombasa Academy", verdict.ExtractedData["verified_institution"])
}

func TestEmptyGradeSkipsGradeComparison(t *testing.T) {
	mem := registry.NewMemory()
	mem.Seed(registry.Record{
		IndexNumber: "12345678",
		FullName:    "John Doe",
		MeanGrade:   "",
		SchoolName:  "Nairobi High School",
	})
	ext := &fakeExtractor{text: "KENYA CERTIFICATE EXAMINATION 12345678 JOHN DOE"}
	p := newTestPipeline(t, ext, mem)

	verdict := p.Verify(context.Background(), stripePNG(t, 100, 160))

	assert.Equal(t, 0, verdict.RiskScore)
	assert.Equal(t, DecisionVerified, verdict.FinalDecision)
}

func TestRegistryUnreachableFailsOpen(t *testing.T) {
	mem := registry.NewMemory()
	mem.FailWith(errors.New("connection refused"))
	ext := &fakeExtractor{text: "KENYA CERTIFICATE EXAMINATION 12345678 JOHN DOE"}
	p := newTestPipeline(t, ext, mem)

	verdict := p.Verify(context.Background(), stripePNG(t, 100, 160))

	assert.Equal(t, 0, verdict.RiskScore, "unavailability is not evidence of fraud")
	assert.Equal(t, DecisionVerified, verdict.FinalDecision)
	require.Len(t, verdict.Details, 1)
	assert.Contains(t, verdict.Details[0], "Skipped registry check")
	assert.Empty(t, verdict.ExtractedData)
}

func TestNilRegistryFailsOpen(t *testing.T) {
	ext := &fakeExtractor{text: "KENYA CERTIFICATE EXAMINATION 12345678"}
	p := newTestPipeline(t, ext, nil)

	verdict := p.Verify(context.Background(), stripePNG(t, 100, 160))

	assert.Equal(t, 0, verdict.RiskScore)
	assert.Equal(t, DecisionVerified, verdict.FinalDecision)
	require.Len(t, verdict.Details, 1)
	assert.Contains(t, verdict.Details[0], "not configured")
}

func TestRegistryGateSkipsLookupWhenRiskAlreadyHigh(t *testing.T) {
	cfg := config.DefaultPipeline()
	cfg.RegistryGate = 60

	reg := &countingRegistry{inner: registry.NewMemory()}
	// Identifier present, but synthetic image (40) + missing keywords (25)
	// put the score at 65, past the gate.
	ext := &fakeExtractor{text: "12345678"}
	p := New(cfg, ext, reg, logging.NewLogger("test"))

	verdict := p.Verify(context.Background(), uniformPNG(t))

	assert.Equal(t, 65, verdict.RiskScore)
	assert.Equal(t, 0, reg.calls, "gate skips the external lookup")
	assert.Equal(t, DecisionManualReview, verdict.FinalDecision)
}

func TestReasoningOrderIsStageOrder(t *testing.T) {
	mem := registry.NewMemory()
	mem.Seed(registry.Record{
		IndexNumber: "12345678",
		FullName:    "Jane Wanjiku",
		SchoolName:  "Mombasa Academy",
	})
	// Manipulation-tier image, no keywords, identifier present, name mismatch:
	// one detail per stage, in stage order.
	ext := &fakeExtractor{text: "SOME OTHER DOCUMENT 12345678"}
	p := newTestPipeline(t, ext, mem)

	verdict := p.Verify(context.Background(), stripePNG(t, 100, 120))

	require.Len(t, verdict.Details, 3)
	assert.Contains(t, verdict.Details[0], "manipulation")
	assert.Contains(t, verdict.Details[1], "standard terminology")
	assert.Contains(t, verdict.Details[2], "Name mismatch")
	// manipulation 15 + keyword 25 + name mismatch 50
	assert.Equal(t, 90, verdict.RiskScore)
}

func TestKeywordDiagnosticListsFoundTerms(t *testing.T) {
	ext := &fakeExtractor{text: "KENYA SOMETHING 12345678"}
	p := newTestPipeline(t, ext, nil)

	verdict := p.Verify(context.Background(), stripePNG(t, 100, 160))

	require.NotEmpty(t, verdict.Details)
	assert.Contains(t, verdict.Details[0], "Found: [KENYA]")
}

func TestDecisionBoundaries(t *testing.T) {
	cfg := config.DefaultPipeline()

	cases := []struct {
		score int
		want  Decision
	}{
		{0, DecisionVerified},
		{29, DecisionVerified},
		{30, DecisionManualReview},
		{69, DecisionManualReview},
		{70, DecisionRejected},
		{100, DecisionRejected},
		{115, DecisionRejected},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, decide(tc.score, cfg), "score %d", tc.score)
	}
}
