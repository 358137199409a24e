package httpapi

import "net/http"

type healthDTO struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, healthDTO{Status: "ok", Storage: h.storageDriver})
}
