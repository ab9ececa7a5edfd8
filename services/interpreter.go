package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"news-detector/models"
)

// fenceRe matches a markdown fence line with an optional language tag
// (```json, ```JSON, ```). Backticks inside JSON strings never start a line.
var fenceRe = regexp.MustCompile("(?m)^[ \t]*```[A-Za-z]*[ \t\r]*$")

// Interpret maps the raw completion (or the error of the call that should
// have produced it) onto an outcome. The returned error is the diagnostic
// cause and is nil on success; it is meant for logs only, the outcome
// already carries the user-facing message.
func Interpret(resp *CompletionResponse, callErr error) (models.Outcome, error) {
	if callErr != nil {
		if !errors.Is(callErr, ErrTransport) {
			callErr = fmt.Errorf("%w: %w", ErrTransport, callErr)
		}
		return models.ErrorOutcome(), callErr
	}

	text := ConcatText(resp)
	result, err := ParseResult(StripFences(text))
	if err != nil {
		// The model sometimes wraps the object in prose; retry on the
		// outermost braces before giving up.
		if inner, ok := outermostObject(text); ok {
			if r, innerErr := ParseResult(inner); innerErr == nil {
				return models.ResultOutcome(r), nil
			}
		}
		return models.ErrorOutcome(), err
	}
	return models.ResultOutcome(result), nil
}

// ConcatText joins all text segments in order.
func ConcatText(resp *CompletionResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, seg := range resp.Content {
		if seg.Type == SegmentText {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

// StripFences removes markdown code-fence markers and trims the result.
// Text without fences is only trimmed.
func StripFences(text string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))
}

func outermostObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// ParseResult decodes cleaned text into an AnalysisResult. Only syntax
// errors and non-object payloads fail; individual fields of an unexpected
// shape are dropped instead.
func ParseResult(cleaned string) (*models.AnalysisResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: null payload", ErrMalformed)
	}

	return &models.AnalysisResult{
		CredibilityScore: decodeScore(fields["credibility_score"]),
		Verdict:          models.Verdict(decodeString(fields["verdict"])),
		Confidence:       models.Confidence(decodeString(fields["confidence"])),
		KeyIndicators:    decodeStrings(fields["key_indicators"]),
		RedFlags:         decodeStrings(fields["red_flags"]),
		Reasoning:        decodeString(fields["reasoning"]),
		Recommendations:  decodeStrings(fields["recommendations"]),
	}, nil
}

func decodeScore(raw json.RawMessage) *int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
	}
	if math.IsNaN(f) {
		return nil
	}

	score := int(math.Round(math.Max(0, math.Min(100, f))))
	return &score
}

func decodeString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// decodeStrings always returns a non-nil slice. A bare string becomes a
// one-element list, numbers and booleans are kept as their JSON text,
// nested objects and arrays are skipped.
func decodeStrings(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		if s := decodeString(raw); s != "" {
			out = append(out, s)
		}
		return out
	}

	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 {
			continue
		}
		switch item[0] {
		case '"':
			if s := decodeString(item); s != "" {
				out = append(out, s)
			}
		case '{', '[', 'n':
			// objects, arrays and null carry nothing displayable
		default:
			out = append(out, string(item))
		}
	}
	return out
}
