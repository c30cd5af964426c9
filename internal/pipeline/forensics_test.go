package pipeline

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/uhakiki/verification-engine/internal/config"
)

func TestNoiseSigma(t *testing.T) {
	uniform := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range uniform.Pix {
		uniform.Pix[i] = 200
	}
	assert.InDelta(t, 0.0, noiseSigma(uniform), 1e-9)

	// Half 100, half 120: sigma is exactly 10.
	assert.InDelta(t, 10.0, noiseSigma(stripeImage(100, 120)), 1e-9)

	// Half 100, half 160: sigma is exactly 30.
	assert.InDelta(t, 30.0, noiseSigma(stripeImage(100, 160)), 1e-9)
}

func TestForensicTiers(t *testing.T) {
	cfg := config.DefaultPipeline()

	cases := []struct {
		name        string
		img         image.Image
		wantPenalty int
		wantFlags   int
	}{
		{"uniform is synthetic tier", stripeImage(128, 128), 40, 1},
		{"low noise is manipulation tier", stripeImage(100, 120), 15, 1},
		{"natural noise is clean", stripeImage(100, 160), 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			findings := analyzeForensics(tc.img, cfg)
			assert.Equal(t, tc.wantPenalty, findings.Penalty)
			assert.Len(t, findings.Flags, tc.wantFlags)
		})
	}
}

func TestForensicTierBoundaries(t *testing.T) {
	cfg := config.DefaultPipeline()

	// Sigma exactly 5.0 falls into the manipulation tier, not synthetic.
	atSynthetic := analyzeForensics(stripeImage(100, 110), cfg) // sigma 5.0
	assert.Equal(t, cfg.ManipulationPenalty, atSynthetic.Penalty)

	// Sigma exactly 12.0 is clean.
	atManipulation := analyzeForensics(stripeImage(100, 124), cfg) // sigma 12.0
	assert.Equal(t, 0, atManipulation.Penalty)
	assert.Empty(t, atManipulation.Flags)
}
