package ai

import (
	"fmt"
	"strings"

	"github.com/qanoonbuddy/backend/internal/domain"
	"github.com/qanoonbuddy/backend/internal/model/caselaw"
)

const (
	// DefaultMaxDocumentChars bounds the document text placed in one prompt.
	DefaultMaxDocumentChars = 4000
	// PreviewChars is the length of the extracted-text preview.
	PreviewChars = 2000
)

// Language of a generated summary.
type Language string

const (
	English Language = "en"
	Urdu    Language = "ur"
)

// Direction of a translation.
type Direction string

const (
	EnglishToUrdu Direction = "en-ur"
	UrduToEnglish Direction = "ur-en"
)

var summaryInstructions = map[Language]string{
	English: "Summarize the following Pakistani legal document in clear, simple English. " +
		"Include: main parties, key issues, legal provisions cited, and outcome/decision:",
	Urdu: "Summarize the following Pakistani legal document in simple Urdu " +
		"that a common person can understand:",
}

var translationInstructions = map[Direction]string{
	EnglishToUrdu: "Translate the following legal or formal English text into clear, natural Urdu " +
		"that maintains legal accuracy:",
	UrduToEnglish: "Translate the following Urdu legal text into formal, accurate English " +
		"while preserving legal terminology:",
}

const mergeInstruction = "The following are summaries of consecutive parts of one Pakistani legal document. " +
	"Combine them into a single coherent summary in the same language, keeping parties, issues, " +
	"provisions cited and the outcome:"

const explainInstruction = "Explain the following Pakistani case in simple language for a non-lawyer. " +
	"Also explain why this case is important:"

// Compose joins an instruction and its subject with a blank line. An empty
// instruction yields the body unchanged.
func Compose(instruction, body string) string {
	if instruction == "" {
		return body
	}
	return instruction + "\n\n" + body
}

// Truncate keeps at most limit characters of text. The second result reports
// whether anything was dropped.
func Truncate(text string, limit int) (string, bool) {
	if limit <= 0 {
		return text, false
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text, false
	}
	return string(runes[:limit]), true
}

// Preview returns the first PreviewChars characters of text, with "..." when
// the text is longer.
func Preview(text string) string {
	head, cut := Truncate(text, PreviewChars)
	if cut {
		return head + "..."
	}
	return head
}

// Chunks splits text into consecutive pieces of at most size characters.
func Chunks(text string, size int) []string {
	runes := []rune(text)
	if size <= 0 || len(runes) <= size {
		return []string{text}
	}
	out := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// ParseLanguage validates a summary language code; empty means English.
func ParseLanguage(raw string) (Language, error) {
	switch lang := Language(strings.ToLower(strings.TrimSpace(raw))); lang {
	case "":
		return English, nil
	case English, Urdu:
		return lang, nil
	default:
		return "", fmt.Errorf("unsupported language %q: %w", raw, domain.ErrInvalidInput)
	}
}

// ParseDirection validates a translation direction; empty means English to Urdu.
func ParseDirection(raw string) (Direction, error) {
	switch dir := Direction(strings.ToLower(strings.TrimSpace(raw))); dir {
	case "":
		return EnglishToUrdu, nil
	case EnglishToUrdu, UrduToEnglish:
		return dir, nil
	default:
		return "", fmt.Errorf("unsupported direction %q: %w", raw, domain.ErrInvalidInput)
	}
}

// SummaryPrompt builds the single-shot summary prompt. Text beyond maxChars
// is dropped.
func SummaryPrompt(text string, lang Language, maxChars int) (prompt string, truncated bool) {
	body, truncated := Truncate(text, maxChars)
	return Compose(summaryInstructions[lang], body), truncated
}

// MergePrompt asks the model to fold partial summaries into one.
func MergePrompt(partials []string) string {
	var b strings.Builder
	for i, part := range partials {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Part %d:\n%s", i+1, strings.TrimSpace(part))
	}
	return Compose(mergeInstruction, b.String())
}

// TranslationPrompt builds the translation prompt. The text is not truncated.
func TranslationPrompt(text string, dir Direction) string {
	return Compose(translationInstructions[dir], text)
}

// ExplainCasePrompt builds the plain-language explanation prompt for a record.
func ExplainCasePrompt(rec caselaw.Record) string {
	body := fmt.Sprintf("Case: %s\nYear: %d\nSummary: %s", rec.Title, rec.Year, rec.Summary)
	return Compose(explainInstruction, body)
}
