package main

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"news-detector/models"
	"news-detector/session"
)

const listLimit = 5

func escHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func clamp(n, max int) int {
	if n > max {
		return max
	}
	return n
}

func verdictBadge(v models.Verdict) (emoji, label string) {
	switch {
	case v.Is(models.VerdictReal):
		return "🟢", "REAL"
	case v.Is(models.VerdictSuspicious):
		return "🟡", "SUSPICIOUS"
	case v.Is(models.VerdictFake):
		return "🔴", "FAKE"
	case v == "":
		return "⚪", "NO VERDICT"
	}
	return "⚪", strings.ToUpper(string(v))
}

// scoreBar renders a 0..100 score as ten cells.
func scoreBar(score int) string {
	filled := (score + 5) / 10
	if filled < 0 {
		filled = 0
	}
	if filled > 10 {
		filled = 10
	}
	return "<code>[" + strings.Repeat("█", filled) + strings.Repeat("░", 10-filled) + "]</code>"
}

func FormatResult(r *models.AnalysisResult, sourceLabel string) string {
	var b strings.Builder

	if sourceLabel != "" {
		fmt.Fprintf(&b, "📢 <b>Source:</b> %s\n", sourceLabel)
	}

	emoji, label := verdictBadge(r.Verdict)
	fmt.Fprintf(&b, "%s <b>%s</b>", emoji, escHTML(label))
	if r.Confidence != "" {
		fmt.Fprintf(&b, " · %s confidence", escHTML(string(r.Confidence)))
	}
	b.WriteString("\n")

	if score, ok := r.Score(); ok {
		fmt.Fprintf(&b, "%s %d/100\n", scoreBar(score), score)
	}

	if r.Reasoning != "" {
		fmt.Fprintf(&b, "\n📝 %s\n", escHTML(r.Reasoning))
	}

	writeList(&b, "🔍 <b>Key indicators:</b>", r.KeyIndicators)
	writeList(&b, "⚠️ <b>Red flags:</b>", r.RedFlags)
	writeList(&b, "✅ <b>Recommendations:</b>", r.Recommendations)

	return strings.TrimRight(b.String(), "\n")
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n" + title + "\n")
	for _, item := range items[:clamp(len(items), listLimit)] {
		fmt.Fprintf(b, "• %s\n", escHTML(item))
	}
}

func FormatFailure() string {
	return "❌ " + escHTML(models.FailureMessage)
}

func FormatPending(sourceLabel string) string {
	if sourceLabel != "" {
		return fmt.Sprintf("⏳ <b>Analyzing...</b>\n📢 Source: %s", sourceLabel)
	}
	return "⏳ <b>Analyzing...</b>"
}

// FormatSnapshot renders whatever the session currently shows.
func FormatSnapshot(snap session.Snapshot, sourceLabel string) string {
	switch snap.State {
	case session.StateSucceeded:
		return FormatResult(snap.Outcome.Result, sourceLabel)
	case session.StateFailed:
		return FormatFailure()
	case session.StatePending:
		return FormatPending(sourceLabel)
	}
	return "Nothing analyzed yet."
}

func utf16Units(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

func fromUTF16(units []uint16) string {
	return string(utf16.Decode(units))
}
