package caselaw

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qanoonbuddy/backend/internal/service/legal"
	"github.com/qanoonbuddy/backend/pkg/utils"
)

// Handler 案例检索与解读
type Handler struct {
	legalSvc *legal.Service
}

// New 创建案例处理器
func New(legalSvc *legal.Service) *Handler {
	return &Handler{legalSvc: legalSvc}
}

// RegisterRoutes 注册案例相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/cases", h.handleSearch)
	r.Get("/cases/catalog", h.handleCatalog)
	r.Post("/cases/explain", h.handleExplain)
}

type explainRequest struct {
	Index *int `json:"index" validate:"required,min=0"`
}

// handleSearch 关键词检索，结果按目录顺序返回
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("q")
	results, err := h.legalSvc.SearchCases(keyword)
	if err != nil {
		utils.RespondDomainError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"query":   keyword,
		"count":   len(results),
		"results": results,
	})
}

func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.legalSvc.Cases())
}

// handleExplain 用通俗语言解释目录中的某个案例
func (h *Handler) handleExplain(w http.ResponseWriter, r *http.Request) {
	var payload explainRequest
	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondDomainError(w, err)
		return
	}

	explanation, err := h.legalSvc.ExplainCase(r.Context(), *payload.Index, utils.CredentialFrom(r))
	if err != nil {
		utils.RespondDomainError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, explanation)
}
