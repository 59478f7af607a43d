package handlers

import (
	"encoding/json"
	"net/http"
	"taskManager/internal/logger"
	"taskManager/internal/middleware"

	"go.uber.org/zap"
)

type Payload struct {
	Key     string
	Payload any
}

func toPayload(key string, pl any) Payload {
	return Payload{Key: key, Payload: pl}
}

func responseWithJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("HTTP: failed to write response body", zap.Error(err))
	}
}

// responseWithPayload assembles an object body from key/value pairs; nil values are skipped.
func responseWithPayload(w http.ResponseWriter, code int, payload ...Payload) {
	storage := make(map[string]any, len(payload))
	for _, pl := range payload {
		if pl.Payload == nil {
			continue
		}
		storage[pl.Key] = pl.Payload
	}
	responseWithJSON(w, code, storage)
}

func responseWithError(w http.ResponseWriter, r *http.Request, code int, errCode, message string) {
	responseWithPayload(w, code,
		toPayload("error", errCode),
		toPayload("message", message),
		toPayload("request_id", middleware.GetRequestID(r.Context())),
	)
}
