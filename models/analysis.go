package models

import "strings"

// FailureMessage is the only failure text ever shown to end users.
const FailureMessage = "Failed to analyze. Please try again."

type Mode string

const (
	ModeText Mode = "text"
	ModeURL  Mode = "url"
)

type AnalysisRequest struct {
	Mode    Mode   `json:"mode"`
	Content string `json:"content"`
}

type Verdict string

const (
	VerdictReal       Verdict = "Real"
	VerdictSuspicious Verdict = "Suspicious"
	VerdictFake       Verdict = "Fake"
)

// Is compares verdicts case-insensitively.
func (v Verdict) Is(other Verdict) bool {
	return strings.EqualFold(strings.TrimSpace(string(v)), string(other))
}

// Known reports whether the model returned one of the three documented verdicts.
func (v Verdict) Known() bool {
	return v.Is(VerdictReal) || v.Is(VerdictSuspicious) || v.Is(VerdictFake)
}

type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// AnalysisResult is the model's verdict. CredibilityScore is nil when the
// model omitted it or sent something that is not a number.
type AnalysisResult struct {
	CredibilityScore *int       `json:"credibility_score,omitempty"`
	Verdict          Verdict    `json:"verdict,omitempty"`
	Confidence       Confidence `json:"confidence,omitempty"`
	KeyIndicators    []string   `json:"key_indicators"`
	RedFlags         []string   `json:"red_flags"`
	Reasoning        string     `json:"reasoning,omitempty"`
	Recommendations  []string   `json:"recommendations"`
}

// Score returns the credibility score and whether it was present.
func (r *AnalysisResult) Score() (int, bool) {
	if r == nil || r.CredibilityScore == nil {
		return 0, false
	}
	return *r.CredibilityScore, true
}

type AnalysisError struct {
	Occurred bool   `json:"error"`
	Message  string `json:"message"`
}

func NewAnalysisError() *AnalysisError {
	return &AnalysisError{Occurred: true, Message: FailureMessage}
}

type OutcomeKind string

const (
	OutcomeNone   OutcomeKind = "none"
	OutcomeResult OutcomeKind = "result"
	OutcomeError  OutcomeKind = "error"
)

// Outcome is the tagged union {None, Result, Error}. Exactly one of Result
// and Error is set when Kind says so.
type Outcome struct {
	Kind   OutcomeKind     `json:"kind"`
	Result *AnalysisResult `json:"result,omitempty"`
	Error  *AnalysisError  `json:"error,omitempty"`
}

func NoOutcome() Outcome {
	return Outcome{Kind: OutcomeNone}
}

func ResultOutcome(r *AnalysisResult) Outcome {
	return Outcome{Kind: OutcomeResult, Result: r}
}

func ErrorOutcome() Outcome {
	return Outcome{Kind: OutcomeError, Error: NewAnalysisError()}
}

func (o Outcome) Succeeded() bool { return o.Kind == OutcomeResult && o.Result != nil }
func (o Outcome) Failed() bool    { return o.Kind == OutcomeError }
