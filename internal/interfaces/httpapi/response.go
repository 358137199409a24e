package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/esports-fantasy/internal/usecase"
)

const (
	apiVersion  = "2.0"
	errorDomain = "esports-fantasy"
)

// envelope follows the Google JSON style guide: data on success, error otherwise.
type envelope struct {
	APIVersion string     `json:"apiVersion"`
	Data       any        `json:"data,omitempty"`
	Error      *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Status  string      `json:"status"`
	Errors  []errorItem `json:"errors,omitempty"`
}

type errorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type errorMapping struct {
	target     error
	httpStatus int
	reason     string
	status     string
}

// First match wins.
var errorMappings = []errorMapping{
	{usecase.ErrInvalidInput, http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"},
	{usecase.ErrNotFound, http.StatusNotFound, "notFound", "NOT_FOUND"},
	{usecase.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"},
	{usecase.ErrEntityResolution, http.StatusUnprocessableEntity, "entityResolution", "FAILED_PRECONDITION"},
	{usecase.ErrUpstreamFailed, http.StatusBadGateway, "upstreamFailed", "UNAVAILABLE"},
	{usecase.ErrDependencyUnavailable, http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"},
}

var internalErrorMapping = errorMapping{httpStatus: http.StatusInternalServerError, reason: "internalError", status: "INTERNAL"}

func mapError(err error) errorMapping {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m
		}
	}
	return internalErrorMapping
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{APIVersion: apiVersion, Data: data})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	m := mapError(err)
	markSpanError(ctx, m.httpStatus, err)
	writeProblem(w, m, err.Error(), nil)
}

// writeUpstreamFailure reports a 502 but still returns the pipeline result so
// operators can see which stage failed.
func writeUpstreamFailure(ctx context.Context, w http.ResponseWriter, err error, result any) {
	m := mapError(err)
	markSpanError(ctx, m.httpStatus, err)
	writeProblem(w, m, err.Error(), result)
}

// writeInternalError hides the cause from the client.
func writeInternalError(ctx context.Context, w http.ResponseWriter, cause error) {
	markSpanError(ctx, http.StatusInternalServerError, cause)
	writeProblem(w, internalErrorMapping, "internal server error", nil)
}

func writeProblem(w http.ResponseWriter, m errorMapping, message string, data any) {
	writeJSON(w, m.httpStatus, envelope{
		APIVersion: apiVersion,
		Data:       data,
		Error: &errorBody{
			Code:    m.httpStatus,
			Message: message,
			Status:  m.status,
			Errors:  []errorItem{{Domain: errorDomain, Reason: m.reason, Message: message}},
		},
	})
}
