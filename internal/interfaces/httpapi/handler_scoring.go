package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/esports-fantasy/internal/domain/scoring"
	"github.com/riskibarqy/esports-fantasy/internal/usecase"
)

type scoringWeightsDTO struct {
	Weights  scoring.Weights `json:"weights"`
	Warnings []string        `json:"warnings,omitempty"`
}

func (h *Handler) GetScoringWeights(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "GetScoringWeights")
	defer span.End()

	if h.weights == nil {
		writeError(ctx, w, fmt.Errorf("%w: scoring engine is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	weights := h.weights.Weights()
	writeSuccess(w, http.StatusOK, scoringWeightsDTO{
		Weights:  weights,
		Warnings: weights.Warnings(),
	})
}
