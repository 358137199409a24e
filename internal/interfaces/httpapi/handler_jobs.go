package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/esports-fantasy/internal/usecase"
	"go.opentelemetry.io/otel/attribute"
)

const maxJobRequestBytes = 64 << 10

type pollJobAcceptedDTO struct {
	Accepted bool                `json:"accepted"`
	State    usecase.PollerState `json:"state"`
}

type processMatchRequest struct {
	ExternalID string `json:"external_id" validate:"required,max=512"`
}

// RunPollJob triggers one poll cycle. The cycle runs in the background unless wait=true.
func (h *Handler) RunPollJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "RunPollJob")
	defer span.End()

	if h.poller == nil {
		writeError(ctx, w, fmt.Errorf("%w: poller is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	wait, err := parseBoolQuery(r, "wait")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if wait {
		summary, err := h.poller.PollOnce(ctx)
		if err != nil {
			h.logger.WarnContext(ctx, "run poll job failed", "run_id", summary.RunID, "error", err)
			writeError(ctx, w, err)
			return
		}
		writeSuccess(w, http.StatusOK, summary)
		return
	}

	state := h.poller.State()
	if state.InFlight {
		writeSuccess(w, http.StatusOK, pollJobAcceptedDTO{Accepted: false, State: state})
		return
	}

	h.background(func(bgCtx context.Context) {
		if _, err := h.poller.PollOnce(bgCtx); err != nil {
			h.logger.WarnContext(bgCtx, "background poll job failed", "error", err)
		}
	})
	writeSuccess(w, http.StatusAccepted, pollJobAcceptedDTO{Accepted: true, State: state})
}

func (h *Handler) GetPollerState(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "GetPollerState")
	defer span.End()

	if h.poller == nil {
		writeError(ctx, w, fmt.Errorf("%w: poller is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	writeSuccess(w, http.StatusOK, h.poller.State())
}

// ProcessMatch ingests the game named in the path. Slashes in the id must be escaped as %2F.
func (h *Handler) ProcessMatch(w http.ResponseWriter, r *http.Request) {
	externalID := strings.TrimSpace(r.PathValue("externalID"))
	ctx, span := startHandlerSpan(r, "ProcessMatch", attribute.String("match.external_id", externalID))
	defer span.End()

	h.processMatch(ctx, w, processMatchRequest{ExternalID: externalID})
}

// ProcessMatchByBody reads {"external_id": "..."} for ids that are awkward in a path.
func (h *Handler) ProcessMatchByBody(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ProcessMatchByBody")
	defer span.End()

	req, err := decodeProcessMatchRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	span.SetAttributes(attribute.String("match.external_id", req.ExternalID))
	h.processMatch(ctx, w, req)
}

func (h *Handler) processMatch(ctx context.Context, w http.ResponseWriter, req processMatchRequest) {
	if h.pipeline == nil {
		writeError(ctx, w, fmt.Errorf("%w: ingestion pipeline is not configured", usecase.ErrDependencyUnavailable))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result := h.pipeline.ProcessExternalID(ctx, req.ExternalID)
	err := result.Err()
	switch {
	case err == nil:
		writeSuccess(w, http.StatusOK, result)
	case errors.Is(err, usecase.ErrUpstreamFailed):
		h.logger.WarnContext(ctx, "process match job failed", "external_id", req.ExternalID, "message", result.Message)
		writeUpstreamFailure(ctx, w, err, result)
	default:
		writeError(ctx, w, err)
	}
}

func decodeProcessMatchRequest(r *http.Request) (processMatchRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJobRequestBytes))
	if err != nil {
		return processMatchRequest{}, fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return processMatchRequest{}, fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
	}

	var req processMatchRequest
	if err := sonic.Unmarshal(body, &req); err != nil {
		return processMatchRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	req.ExternalID = strings.TrimSpace(req.ExternalID)
	return req, nil
}

func parseBoolQuery(r *http.Request, key string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: query %s must be a boolean", usecase.ErrInvalidInput, key)
	}
	return value, nil
}
