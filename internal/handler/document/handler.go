package document

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/qanoonbuddy/backend/internal/domain"
	"github.com/qanoonbuddy/backend/internal/service/ai"
	"github.com/qanoonbuddy/backend/internal/service/legal"
	"github.com/qanoonbuddy/backend/pkg/utils"
)

// multipart 表单额外开销
const formOverhead = 1 << 20

// Handler 文档上传与摘要
type Handler struct {
	legalSvc *legal.Service
	logger   *zap.Logger
}

// New 创建文档处理器
func New(legalSvc *legal.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{legalSvc: legalSvc, logger: logger}
}

// RegisterRoutes 注册文档相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/documents/summarize", h.handleSummarize)
	r.Post("/documents/extract", h.handleExtract)
}

type extractResponse struct {
	FileName       string `json:"fileName"`
	ExtractedChars int    `json:"extractedChars"`
	Preview        string `json:"preview"`
}

type summarizeResponse struct {
	FileName string `json:"fileName"`
	legal.DocumentSummary
}

// handleSummarize 提取PDF文本并生成摘要。lang 为 en 或 ur，chunked=true 时分段摘要。
func (h *Handler) handleSummarize(w http.ResponseWriter, r *http.Request) {
	name, data, err := h.readUpload(w, r)
	if err != nil {
		utils.RespondDomainError(w, err)
		return
	}

	lang, err := ai.ParseLanguage(r.FormValue("lang"))
	if err != nil {
		utils.RespondDomainError(w, err)
		return
	}
	chunked, err := parseBool(r.FormValue("chunked"))
	if err != nil {
		utils.RespondDomainError(w, err)
		return
	}

	summary, err := h.legalSvc.SummarizeDocument(r.Context(), data, legal.SummaryRequest{
		Language:   lang,
		Chunked:    chunked,
		Credential: utils.CredentialFrom(r),
	})
	if err != nil {
		h.logger.Info("document summary failed", zap.String("file", name), zap.Error(err))
		utils.RespondDomainError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, summarizeResponse{FileName: name, DocumentSummary: summary})
}

// handleExtract 只提取文本，不调用模型
func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	name, data, err := h.readUpload(w, r)
	if err != nil {
		utils.RespondDomainError(w, err)
		return
	}

	text, err := h.legalSvc.ExtractDocument(r.Context(), data)
	if err != nil {
		utils.RespondDomainError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, extractResponse{
		FileName:       name,
		ExtractedChars: len([]rune(text)),
		Preview:        ai.Preview(text),
	})
}

// readUpload 读取 multipart 的 file 字段，限制大小并要求是 PDF
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	limit := h.legalSvc.MaxUploadBytes()
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+formOverhead)
	}

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, err
		}
		return "", nil, fmt.Errorf("%w: expected multipart form with a file field", domain.ErrInvalidInput)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("%w: file is required", domain.ErrInvalidInput)
	}
	defer file.Close()

	if limit > 0 && header.Size > limit {
		return "", nil, &http.MaxBytesError{Limit: limit}
	}
	if !isPDF(header.Filename, header.Header.Get("Content-Type")) {
		return "", nil, fmt.Errorf("%w: only PDF uploads are supported", domain.ErrInvalidInput)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, data, nil
}

func isPDF(name, contentType string) bool {
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		return true
	}
	return strings.HasPrefix(strings.ToLower(contentType), "application/pdf")
}

func parseBool(raw string) (bool, error) {
	if strings.TrimSpace(raw) == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: chunked must be true or false", domain.ErrInvalidInput)
	}
	return v, nil
}
