// Package legal implements the single-shot assistant tasks: document
// summaries, translation, case search and case explanations. None of them
// keeps conversation state.
package legal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/qanoonbuddy/backend/internal/config"
	"github.com/qanoonbuddy/backend/internal/domain"
	"github.com/qanoonbuddy/backend/internal/model/caselaw"
	"github.com/qanoonbuddy/backend/internal/observability"
	"github.com/qanoonbuddy/backend/internal/service/ai"
	"github.com/qanoonbuddy/backend/internal/service/document"
)

// Resolver hands out a backend for an optional caller-supplied credential.
type Resolver interface {
	Available(sessionOverride string) bool
	Resolve(ctx context.Context, sessionOverride string) (ai.Backend, error)
}

// Service runs the single-shot tasks.
type Service struct {
	resolver  Resolver
	extractor document.Extractor
	cases     *caselaw.Index
	docs      config.DocumentConfig
	logger    *zap.Logger
	metrics   *observability.Collector
}

// NewService wires the task service.
func NewService(resolver Resolver, extractor document.Extractor, cases *caselaw.Index, docs config.DocumentConfig, logger *zap.Logger, metrics *observability.Collector) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if docs.MaxChars <= 0 {
		docs.MaxChars = ai.DefaultMaxDocumentChars
	}
	return &Service{
		resolver:  resolver,
		extractor: extractor,
		cases:     cases,
		docs:      docs,
		logger:    logger,
		metrics:   metrics,
	}
}

// SummaryRequest describes one summary job.
type SummaryRequest struct {
	Text       string
	Language   ai.Language
	Chunked    bool
	Credential string
}

// Summary is a generated summary plus what was fed to the model.
type Summary struct {
	Language  ai.Language `json:"language"`
	Text      string      `json:"summary"`
	UsedChars int         `json:"usedChars"`
	Truncated bool        `json:"truncated"`
	Chunks    int         `json:"chunks"`
}

// DocumentSummary adds the extraction result to a Summary.
type DocumentSummary struct {
	Summary
	ExtractedChars int    `json:"extractedChars"`
	Preview        string `json:"preview"`
}

// MaxUploadBytes is the configured upload limit.
func (s *Service) MaxUploadBytes() int64 {
	return s.docs.MaxUploadBytes
}

// Summarize summarizes text. By default only the first MaxChars characters
// are sent; Chunked (or DOCUMENT_CHUNKED) summarizes every part and merges.
func (s *Service) Summarize(ctx context.Context, req SummaryRequest) (Summary, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Summary{}, fmt.Errorf("nothing to summarize: %w", domain.ErrInvalidInput)
	}
	lang := req.Language
	if lang == "" {
		lang = ai.English
	}

	backend, err := s.resolver.Resolve(ctx, req.Credential)
	if err != nil {
		return Summary{}, err
	}
	ctx = ai.WithTask(ctx, "summarize")

	if req.Chunked || s.docs.Chunked {
		return s.summarizeChunked(ctx, backend, text, lang)
	}

	prompt, truncated := ai.SummaryPrompt(text, lang, s.docs.MaxChars)
	out, err := generate(ctx, backend, prompt)
	if err != nil {
		return Summary{}, err
	}

	used := len([]rune(text))
	if truncated {
		used = s.docs.MaxChars
	}
	return Summary{Language: lang, Text: out, UsedChars: used, Truncated: truncated, Chunks: 1}, nil
}

func (s *Service) summarizeChunked(ctx context.Context, backend ai.Backend, text string, lang ai.Language) (Summary, error) {
	parts := ai.Chunks(text, s.docs.MaxChars)
	partials := make([]string, 0, len(parts))
	for i, part := range parts {
		prompt, _ := ai.SummaryPrompt(part, lang, s.docs.MaxChars)
		out, err := generate(ctx, backend, prompt)
		if err != nil {
			return Summary{}, fmt.Errorf("chunk %d/%d: %w", i+1, len(parts), err)
		}
		partials = append(partials, out)
	}

	final := partials[0]
	if len(partials) > 1 {
		out, err := generate(ctx, backend, ai.MergePrompt(partials))
		if err != nil {
			return Summary{}, fmt.Errorf("merge: %w", err)
		}
		final = out
	}
	return Summary{Language: lang, Text: final, UsedChars: len([]rune(text)), Chunks: len(parts)}, nil
}

// SummarizeDocument extracts the text of an uploaded PDF and summarizes it.
// Extraction failures only abort this upload.
func (s *Service) SummarizeDocument(ctx context.Context, data []byte, req SummaryRequest) (DocumentSummary, error) {
	if !s.resolver.Available(req.Credential) {
		return DocumentSummary{}, domain.ErrBackendUnavailable
	}

	text, err := s.ExtractDocument(ctx, data)
	if err != nil {
		return DocumentSummary{}, err
	}

	req.Text = text
	summary, err := s.Summarize(ctx, req)
	if err != nil {
		return DocumentSummary{}, err
	}
	return DocumentSummary{
		Summary:        summary,
		ExtractedChars: len([]rune(text)),
		Preview:        ai.Preview(text),
	}, nil
}

// ExtractDocument returns the text of an uploaded PDF without calling the
// backend. A document with no extractable text is an extraction failure.
func (s *Service) ExtractDocument(ctx context.Context, data []byte) (string, error) {
	text, err := s.extractor.ExtractText(ctx, data)
	if err != nil {
		s.metrics.ObserveDocument("failed")
		s.logger.Warn("document extraction failed", zap.Int("bytes", len(data)), zap.Error(err))
		if !errors.Is(err, domain.ErrExtraction) && ctx.Err() == nil {
			err = fmt.Errorf("%w: %w", domain.ErrExtraction, err)
		}
		return "", err
	}
	if text == "" {
		s.metrics.ObserveDocument("empty")
		return "", fmt.Errorf("%w: no extractable text", domain.ErrExtraction)
	}
	s.metrics.ObserveDocument("ok")
	return text, nil
}

// Translate translates legal text in the requested direction.
func (s *Service) Translate(ctx context.Context, text string, dir ai.Direction, credential string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("nothing to translate: %w", domain.ErrInvalidInput)
	}
	if dir == "" {
		dir = ai.EnglishToUrdu
	}

	backend, err := s.resolver.Resolve(ctx, credential)
	if err != nil {
		return "", err
	}
	out, err := generate(ai.WithTask(ctx, "translate"), backend, ai.TranslationPrompt(text, dir))
	if err != nil {
		return "", err
	}
	return out, nil
}

// Cases lists the whole catalog.
func (s *Service) Cases() []caselaw.Record {
	return s.cases.List()
}

// BackendAvailable reports whether tasks can reach the backend with the
// given credential.
func (s *Service) BackendAvailable(credential string) bool {
	return s.resolver.Available(credential)
}

// SearchCases runs a keyword search over the catalog.
func (s *Service) SearchCases(keyword string) ([]caselaw.Record, error) {
	results, err := s.cases.Search(keyword)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveCaseSearch(len(results))
	return results, nil
}

// Explanation is a plain-language explanation of one catalog record.
type Explanation struct {
	Case        caselaw.Record `json:"case"`
	Explanation string         `json:"explanation"`
}

// ExplainCase explains the catalog record at position index.
func (s *Service) ExplainCase(ctx context.Context, index int, credential string) (Explanation, error) {
	rec, err := s.cases.At(index)
	if err != nil {
		return Explanation{}, err
	}

	backend, err := s.resolver.Resolve(ctx, credential)
	if err != nil {
		return Explanation{}, err
	}
	out, err := generate(ai.WithTask(ctx, "explain"), backend, ai.ExplainCasePrompt(rec))
	if err != nil {
		return Explanation{}, err
	}
	return Explanation{Case: rec, Explanation: out}, nil
}

// generate calls the backend and maps every failure, including blank
// output, to domain.ErrBackend.
func generate(ctx context.Context, backend ai.Backend, prompt string) (string, error) {
	out, err := backend.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, domain.ErrBackend) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.ErrBackend, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: empty response", domain.ErrBackend)
	}
	return out, nil
}
