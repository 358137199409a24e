package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/esports-fantasy/internal/platform/logging"
)

type RouterConfig struct {
	InternalJobToken string
}

func NewRouter(handler *Handler, cfg RouterConfig, logger *logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler)
	registerInternalJobRoutes(mux, handler, cfg.InternalJobToken)

	return RequestTracing(RequestLogging(logger, recoverPanic(logger, mux)))
}

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /v1/scoring/weights", handler.GetScoringWeights)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/poll", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunPollJob)))
	mux.Handle("GET /v1/internal/poller", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.GetPollerState)))
	mux.Handle("POST /v1/internal/matches/process", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ProcessMatchByBody)))
	mux.Handle("POST /v1/internal/matches/{externalID}/process", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ProcessMatch)))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				ctx := r.Context()
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(ctx, w, fmt.Errorf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
