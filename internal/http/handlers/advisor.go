package handlers

import (
	"context"
	"net/http"

	"github.com/ArnavJain-cy/sih-app/internal/actorctx"
	"github.com/ArnavJain-cy/sih-app/internal/advisor"
	"github.com/ArnavJain-cy/sih-app/internal/auth"
	"github.com/ArnavJain-cy/sih-app/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type AdvisorService interface {
	Ask(ctx context.Context, id auth.Identity, recommendation, message string) (string, error)
	ClearHistory(ctx context.Context, id auth.Identity) error
}

type AdvisorHandler struct {
	svc AdvisorService
}

func NewAdvisorHandler(svc AdvisorService) *AdvisorHandler {
	return &AdvisorHandler{svc: svc}
}

type ChatRequest struct {
	Message        string `json:"message"`
	Recommendation string `json:"recommendation" binding:"max=200"`
}

// Welcome returns the greeting shown before the first question.
func (h *AdvisorHandler) Welcome(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"reply": advisor.Welcome(ctx.Query("recommendation"))})
}

func (h *AdvisorHandler) Chat(ctx *gin.Context) {
	id, ok := actorctx.IdentityFrom(ctx.Request.Context())
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", middlewares.MsgTokenRequired, nil)
		return
	}

	var req ChatRequest
	if !BindJSON(ctx, &req) {
		return
	}

	reply, err := h.svc.Ask(ctx.Request.Context(), id, req.Recommendation, req.Message)
	if err != nil {
		RespondServiceError(ctx, err, "Internal server error")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (h *AdvisorHandler) ClearHistory(ctx *gin.Context) {
	id, ok := actorctx.IdentityFrom(ctx.Request.Context())
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", middlewares.MsgTokenRequired, nil)
		return
	}

	if err := h.svc.ClearHistory(ctx.Request.Context(), id); err != nil {
		RespondServiceError(ctx, err, "Internal server error")
		return
	}

	ctx.Status(http.StatusNoContent)
}
