package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-detector/models"
)

func textResponse(parts ...string) *CompletionResponse {
	resp := &CompletionResponse{}
	for _, p := range parts {
		resp.Content = append(resp.Content, ContentSegment{Type: SegmentText, Text: p})
	}
	return resp
}

const fullResult = `{"credibility_score": 15, "verdict": "Fake", "confidence": "High",
 "key_indicators": ["no sources"], "red_flags": ["sensational headline", "anonymous author"],
 "reasoning": "Claims are unverifiable.", "recommendations": ["check official sources"]}`

func TestInterpret_Success(t *testing.T) {
	outcome, err := Interpret(textResponse(fullResult), nil)
	require.NoError(t, err)
	require.True(t, outcome.Succeeded())

	r := outcome.Result
	score, ok := r.Score()
	assert.True(t, ok)
	assert.Equal(t, 15, score)
	assert.Equal(t, models.VerdictFake, r.Verdict)
	assert.Equal(t, models.ConfidenceHigh, r.Confidence)
	assert.Equal(t, []string{"no sources"}, r.KeyIndicators)
	assert.Equal(t, []string{"sensational headline", "anonymous author"}, r.RedFlags)
	assert.Equal(t, "Claims are unverifiable.", r.Reasoning)
	assert.Equal(t, []string{"check official sources"}, r.Recommendations)
}

func TestInterpret_Fences(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"json tag", "```json\n" + fullResult + "\n```"},
		{"bare fence", "```\n" + fullResult + "\n```"},
		{"upper tag with padding", "  \n```JSON\n" + fullResult + "\n```\n  "},
		{"no fence", fullResult},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := Interpret(textResponse(tt.text), nil)
			require.NoError(t, err)
			require.True(t, outcome.Succeeded())
			assert.Equal(t, models.VerdictFake, outcome.Result.Verdict)
		})
	}
}

func TestInterpret_ConcatenatesTextSegments(t *testing.T) {
	resp := &CompletionResponse{Content: []ContentSegment{
		{Type: SegmentText, Text: `{"verdict": "Re`},
		{Type: "tool_use"},
		{Type: SegmentText, Text: `al", "credibility_score": 88}`},
	}}

	outcome, err := Interpret(resp, nil)
	require.NoError(t, err)
	assert.Equal(t, models.VerdictReal, outcome.Result.Verdict)
}

func TestInterpret_MissingListsAreEmpty(t *testing.T) {
	outcome, err := Interpret(textResponse(`{"credibility_score": 72, "verdict": "Real"}`), nil)
	require.NoError(t, err)

	r := outcome.Result
	assert.NotNil(t, r.KeyIndicators)
	assert.NotNil(t, r.RedFlags)
	assert.NotNil(t, r.Recommendations)
	assert.Empty(t, r.KeyIndicators)
	assert.Empty(t, r.Reasoning)
	assert.Empty(t, r.Confidence)
}

func TestInterpret_Failures(t *testing.T) {
	tests := []struct {
		name    string
		resp    *CompletionResponse
		callErr error
		cause   error
	}{
		{"transport", nil, errors.New("connection refused"), ErrTransport},
		{"already classified transport", nil, ErrTransport, ErrTransport},
		{"truncated json", textResponse(`{"credibility_score": 15, "verdict": "Fa`), nil, ErrMalformed},
		{"truncated after comma", textResponse(`{"credibility_score": 42,`), nil, ErrMalformed},
		{"no text segments", &CompletionResponse{Content: []ContentSegment{{Type: "tool_use"}}}, nil, ErrMalformed},
		{"empty content", &CompletionResponse{}, nil, ErrMalformed},
		{"nil response", nil, nil, ErrMalformed},
		{"prose only", textResponse("I cannot analyze this article."), nil, ErrMalformed},
		{"array payload", textResponse(`[1, 2, 3]`), nil, ErrMalformed},
		{"null payload", textResponse(`null`), nil, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := Interpret(tt.resp, tt.callErr)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.cause)

			assert.True(t, outcome.Failed())
			assert.Nil(t, outcome.Result)
			require.NotNil(t, outcome.Error)
			assert.True(t, outcome.Error.Occurred)
			assert.Equal(t, "Failed to analyze. Please try again.", outcome.Error.Message)
		})
	}
}

func TestInterpret_ProseWrappedObject(t *testing.T) {
	outcome, err := Interpret(textResponse("Here is my analysis:\n"+fullResult+"\nLet me know if you need more."), nil)
	require.NoError(t, err)
	assert.Equal(t, models.VerdictFake, outcome.Result.Verdict)
}

func TestParseResult_Score(t *testing.T) {
	tests := []struct {
		raw   string
		want  int
		valid bool
	}{
		{`{"credibility_score": 42}`, 42, true},
		{`{"credibility_score": 42.6}`, 43, true},
		{`{"credibility_score": "55"}`, 55, true},
		{`{"credibility_score": 150}`, 100, true},
		{`{"credibility_score": -3}`, 0, true},
		{`{"credibility_score": "high"}`, 0, false},
		{`{"credibility_score": null}`, 0, false},
		{`{}`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r, err := ParseResult(tt.raw)
			require.NoError(t, err)
			score, ok := r.Score()
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, score)
		})
	}
}

func TestParseResult_LenientLists(t *testing.T) {
	r, err := ParseResult(`{"red_flags": "single flag", "key_indicators": ["a", 3, null, {"x": 1}, true], "recommendations": 7}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"single flag"}, r.RedFlags)
	assert.Equal(t, []string{"a", "3", "true"}, r.KeyIndicators)
	assert.Equal(t, []string{}, r.Recommendations)
}

func TestParseResult_UnknownVerdictKept(t *testing.T) {
	r, err := ParseResult(`{"verdict": "Satire", "credibility_score": 30}`)
	require.NoError(t, err)
	assert.Equal(t, models.Verdict("Satire"), r.Verdict)
	assert.False(t, r.Verdict.Known())
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("  {\"a\":1}\n"))
	assert.Equal(t, "", StripFences("```"))
	assert.Equal(t, `{"a":1}`, StripFences("```json\r\n{\"a\":1}\r\n```\r\n"))
}

func TestInterpret_BackticksInsideStringsSurvive(t *testing.T) {
	reply := "```json\n" + `{"verdict": "Suspicious", "reasoning": "The post embeds ` + "```python" + ` snippets and ` + "```" + ` markers."}` + "\n```"

	outcome, err := Interpret(textResponse(reply), nil)
	require.NoError(t, err)
	assert.Equal(t, "The post embeds ```python snippets and ``` markers.", outcome.Result.Reasoning)
}
