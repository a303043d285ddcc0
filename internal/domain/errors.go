package domain

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrBackendUnavailable = errors.New("text generation backend unavailable")
	ErrBackend            = errors.New("text generation failed")
	ErrExtraction         = errors.New("document text extraction failed")
	ErrSessionNotFound    = errors.New("session not found")
	ErrPersonaNotFound    = errors.New("persona not found")
	ErrCaseNotFound       = errors.New("case not found")
)

// UnavailableWarning 提示用户配置 API Key，无可用后端时随响应返回。
const UnavailableWarning = "Please enter your API key to use all features."
