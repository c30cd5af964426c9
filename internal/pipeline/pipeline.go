/**
 * Credential verification pipeline.
 *
 * One synchronous, stateless computation per request:
 *   decode → forensics → text extraction → {keyword, identifier} →
 *   registry cross-reference (conditional) → decision.
 *
 * Stage order is a contract, not an optimization: reasoning entries must
 * appear in the same order on every run. The pipeline shares no state across
 * requests, so concurrent calls need no locking.
 */

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/uhakiki/verification-engine/internal/config"
	"github.com/uhakiki/verification-engine/internal/logging"
	"github.com/uhakiki/verification-engine/internal/registry"
)

// TextExtractor is the contract the OCR adapter fulfils: it owns
// preprocessing and normalization and absorbs recognition failure, returning
// normalized (uppercase, collapsed whitespace) text or "".
type TextExtractor interface {
	ExtractText(ctx context.Context, img image.Image) string
}

// Pipeline runs the verification stages. Construct once and share; each
// Verify call owns its Verdict.
type Pipeline struct {
	cfg       config.Pipeline
	extractor TextExtractor
	registry  registry.Registry
	log       *logging.Logger
}

// New builds a pipeline. registry may be nil, in which case cross-reference
// is skipped fail-open on every request.
func New(cfg config.Pipeline, extractor TextExtractor, reg registry.Registry, log *logging.Logger) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		extractor: extractor,
		registry:  reg,
		log:       log,
	}
}

// Verify inspects one credential image and returns a finalized Verdict. The
// only fatal condition is an undecodable image; every other failure mode is
// absorbed into the score and reasoning.
func (p *Pipeline) Verify(ctx context.Context, imageBytes []byte) *Verdict {
	verdict := newVerdict()

	// Stage 1: decode. Failure is terminal: no forensic, OCR or registry
	// work happens for bytes that are not an image.
	img, format, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		verdict.FinalDecision = DecisionError
		verdict.Details = append(verdict.Details, "File is not a valid image")
		return verdict
	}
	p.log.Debug("image decoded", "format", format, "bounds", img.Bounds())

	// Stage 2: forensics.
	findings := analyzeForensics(img, p.cfg)
	verdict.RiskScore += findings.Penalty
	verdict.Details = append(verdict.Details, findings.Flags...)

	// Stage 3: text extraction. Empty text is valid, penalized input.
	text := p.extractor.ExtractText(ctx, img)

	// Stage 4a: keyword heuristic.
	found := foundKeywords(text, p.cfg.Keywords)
	if len(found) < p.cfg.MinKeywordMatches {
		verdict.addPenalty(p.cfg.KeywordPenalty,
			fmt.Sprintf("Document lacks standard terminology. Found: [%s]", strings.Join(found, ", ")))
	}

	// Stage 4b: identifier extraction.
	indexNumber, hasIndex := extractIndexNumber(text)
	if !hasIndex {
		verdict.addPenalty(p.cfg.MissingIndexPenalty, "Could not identify a valid index number")
	}

	// Stage 5: registry cross-reference. Skipped once risk is already high
	// enough that a match cannot change the outcome.
	if hasIndex && verdict.RiskScore < p.cfg.RegistryGate {
		p.crossReference(ctx, verdict, indexNumber, text)
	}

	// Stage 6: decision, unless an earlier stage pre-set a terminal one.
	if verdict.FinalDecision == DecisionUncertain {
		verdict.FinalDecision = decide(verdict.RiskScore, p.cfg)
	}

	return verdict
}

// crossReference checks the extracted identity against the national registry.
// A confirmed negative fails closed (hard override to maximum risk); an
// unreachable or unconfigured registry fails open (skip, zero penalty) —
// collaborator unavailability is not evidence of fraud.
func (p *Pipeline) crossReference(ctx context.Context, verdict *Verdict, indexNumber, text string) {
	if p.registry == nil {
		verdict.Details = append(verdict.Details, "Skipped registry check (not configured)")
		return
	}

	rec, err := p.registry.Lookup(ctx, indexNumber)
	switch {
	case errors.Is(err, registry.ErrNotFound):
		verdict.RiskScore = 100
		verdict.FinalDecision = DecisionFraud
		verdict.Details = append(verdict.Details,
			fmt.Sprintf("Identity %s NOT FOUND in national registry", indexNumber))
		return
	case err != nil:
		p.log.Warn("registry lookup failed", "index_number", indexNumber, "error", err)
		verdict.Details = append(verdict.Details, "Skipped registry check (registry unreachable)")
		return
	}

	// Plain substring containment against the full OCR blob. Fuzzy and
	// field-aware matching are out of contract.
	name := strings.ToUpper(strings.TrimSpace(rec.FullName))
	if !strings.Contains(text, name) {
		verdict.addPenalty(p.cfg.NameMismatchPenalty,
			fmt.Sprintf("Name mismatch. Expected: %s", name))
	}

	grade := strings.ToUpper(strings.TrimSpace(rec.MeanGrade))
	if grade != "" && !strings.Contains(text, grade) {
		verdict.addPenalty(p.cfg.GradeMismatchPenalty,
			fmt.Sprintf("Grade mismatch. Expected: %s", grade))
	}

	// The only stage producing user-facing verified identity data.
	verdict.ExtractedData["index_number"] = indexNumber
	verdict.ExtractedData["verified_name"] = name
	verdict.ExtractedData["verified_institution"] = rec.SchoolName
}

// decide maps the final accumulated score to a decision. Exhaustive over all
// non-negative scores.
func decide(score int, cfg config.Pipeline) Decision {
	switch {
	case score >= cfg.RejectThreshold:
		return DecisionRejected
	case score >= cfg.ReviewThreshold:
		return DecisionManualReview
	default:
		return DecisionVerified
	}
}
