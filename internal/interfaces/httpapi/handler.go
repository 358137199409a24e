package httpapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/esports-fantasy/internal/domain/scoring"
	"github.com/riskibarqy/esports-fantasy/internal/platform/logging"
	"github.com/riskibarqy/esports-fantasy/internal/usecase"
)

type PollRunner interface {
	PollOnce(ctx context.Context) (usecase.PollSummary, error)
	State() usecase.PollerState
}

type MatchProcessor interface {
	ProcessExternalID(ctx context.Context, externalID string) usecase.Result
}

type WeightsSource interface {
	Weights() scoring.Weights
}

// BackgroundRunner starts fn outside the request lifetime.
type BackgroundRunner func(fn func(ctx context.Context))

type HandlerDeps struct {
	Poller        PollRunner
	Pipeline      MatchProcessor
	Weights       WeightsSource
	Background    BackgroundRunner
	StorageDriver string
	Logger        *logging.Logger
}

type Handler struct {
	poller        PollRunner
	pipeline      MatchProcessor
	weights       WeightsSource
	background    BackgroundRunner
	storageDriver string
	logger        *logging.Logger
	validator     *validator.Validate
}

func NewHandler(deps HandlerDeps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	background := deps.Background
	if background == nil {
		background = func(fn func(ctx context.Context)) {
			go fn(context.Background())
		}
	}

	return &Handler{
		poller:        deps.Poller,
		pipeline:      deps.Pipeline,
		weights:       deps.Weights,
		background:    background,
		storageDriver: strings.TrimSpace(deps.StorageDriver),
		logger:        logger,
		validator:     validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, req any) error {
	if err := h.validator.StructCtx(ctx, req); err != nil {
		return fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}
