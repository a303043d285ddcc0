package translate

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qanoonbuddy/backend/internal/service/ai"
	"github.com/qanoonbuddy/backend/internal/service/legal"
	"github.com/qanoonbuddy/backend/pkg/utils"
)

// Handler 英乌互译
type Handler struct {
	legalSvc *legal.Service
}

// New 创建翻译处理器
func New(legalSvc *legal.Service) *Handler {
	return &Handler{legalSvc: legalSvc}
}

// RegisterRoutes 注册翻译路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/translate", h.handleTranslate)
}

type translateRequest struct {
	Text      string `json:"text" validate:"notblank,max=20000"`
	Direction string `json:"direction" validate:"omitempty,oneof=en-ur ur-en"`
}

type translateResponse struct {
	Direction   ai.Direction `json:"direction"`
	Translation string       `json:"translation"`
}

func (h *Handler) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var payload translateRequest
	r.Body = http.MaxBytesReader(w, r.Body, 256<<10)
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondDomainError(w, err)
		return
	}

	dir, err := ai.ParseDirection(payload.Direction)
	if err != nil {
		utils.RespondDomainError(w, err)
		return
	}

	out, err := h.legalSvc.Translate(r.Context(), payload.Text, dir, utils.CredentialFrom(r))
	if err != nil {
		utils.RespondDomainError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, translateResponse{Direction: dir, Translation: out})
}
