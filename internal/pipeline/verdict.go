package pipeline

// Decision is the terminal classification of a verification request.
type Decision string

const (
	DecisionVerified     Decision = "VERIFIED"
	DecisionManualReview Decision = "MANUAL_REVIEW"
	DecisionRejected     Decision = "REJECTED"
	DecisionFraud        Decision = "FRAUD"
	DecisionError        Decision = "ERROR"
	DecisionUncertain    Decision = "UNCERTAIN"
)

// Verdict accumulates risk evidence over a single request. RiskScore is
// strictly additive and unclamped: it may exceed 100 before the decision
// mapping runs, and the emitted value is the raw accumulated score. Details
// are appended in fixed stage order (forensics, keyword, identifier,
// registry) so output is reproducible and reviewable.
type Verdict struct {
	FinalDecision Decision          `json:"final_decision"`
	RiskScore     int               `json:"risk_score"`
	Details       []string          `json:"details"`
	ExtractedData map[string]string `json:"extracted_data"`
}

func newVerdict() *Verdict {
	return &Verdict{
		FinalDecision: DecisionUncertain,
		Details:       []string{},
		ExtractedData: map[string]string{},
	}
}

func (v *Verdict) addPenalty(points int, detail string) {
	v.RiskScore += points
	v.Details = append(v.Details, detail)
}
