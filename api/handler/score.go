package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/claritytasks/backend/pkg/httpcontext"
	scoringUC "github.com/claritytasks/backend/usecase/scoring"
)

type ScoreHandler struct {
	baseHandler
	svc *scoringUC.Service
}

func NewScoreHandler(svc *scoringUC.Service, adapter *httpcontext.Adapter, logger *zap.Logger) *ScoreHandler {
	return &ScoreHandler{
		baseHandler: newBaseHandler(adapter, logger),
		svc:         svc,
	}
}

// @Summary Global leaderboard, highest score first
// @Tags scores
// @Router /api/v1/leaderboard [get]
func (h *ScoreHandler) Leaderboard(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	board, err := h.svc.ComputeLeaderboard(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, board)
}

// @Summary Score for the authenticated owner
// @Tags scores
// @Router /api/v1/score [get]
func (h *ScoreHandler) OwnerScore(ctx *fasthttp.RequestCtx) {
	owner := h.owner(ctx)
	if owner == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	score, err := h.svc.OwnerScore(stdCtx, owner)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, score)
}

// @Summary Weekly progress for the authenticated owner
// @Tags scores
// @Router /api/v1/progress/weekly [get]
func (h *ScoreHandler) WeeklyProgress(ctx *fasthttp.RequestCtx) {
	owner := h.owner(ctx)
	if owner == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	progress, err := h.svc.ComputeWeeklyProgress(stdCtx, owner)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, progress)
}
