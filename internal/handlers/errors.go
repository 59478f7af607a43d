package handlers

import (
	"net/http"
	"taskManager/internal/logger"
	"taskManager/internal/middleware"
	"taskManager/internal/service"

	"go.uber.org/zap"
)

// handleServiceError writes the HTTP rendition of a service failure.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	businessErr, ok := service.AsBusinessError(err)
	if !ok {
		businessErr = service.NewInternal("unexpected error", err)
	}

	statusCode := mapBusinessErrorToHTTP(businessErr)
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("error_code", string(businessErr.Code)),
		zap.Int("http_status", statusCode),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("HTTP: service failure", err, fields...)
	} else {
		logger.Warn("HTTP: business error", fields...)
	}

	payload := []Payload{
		toPayload("error", string(businessErr.Code)),
		toPayload("message", businessErr.Message),
		toPayload("request_id", middleware.GetRequestID(r.Context())),
	}
	if len(businessErr.Fields) > 0 {
		payload = append(payload, toPayload("errors", businessErr.Fields))
	}
	responseWithPayload(w, statusCode, payload...)
}

func mapBusinessErrorToHTTP(err *service.BusinessError) int {
	switch err.Code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeConcurrencyError, service.CodeConflict:
		return http.StatusConflict
	case service.CodeUnauthorized:
		return http.StatusUnauthorized
	case service.CodeForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
