package util

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"snippet-sharing-server/internal/model/requestresponse"
)

// LogError : пишет ошибку в общий логгер и возвращает её обёрнутой в message
func LogError(message string, err error) error {
	zap.L().WithOptions(zap.AddCallerSkip(1)).Error(message, zap.Error(err))
	return fmt.Errorf("%s: %w", message, err)
}

// HandleError : единый формат ошибки API, {"error":{"code":..,"text":..}}
func HandleError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := requestresponse.ErrorResponse{
		Error: requestresponse.ErrorDetail{
			Code: statusCode,
			Text: message,
		},
	}
	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		zap.L().Warn("ошибка кодирования ответа", zap.Error(err))
	}
}
