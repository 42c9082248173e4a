package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"snippet-sharing-server/internal/model"
	"snippet-sharing-server/internal/model/requestresponse"
	"snippet-sharing-server/internal/util"
)

// statusFor : доменная ошибка -> HTTP статус. Всё остальное 500
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrAuthentication),
		errors.Is(err, model.ErrInvalidPassword):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrUserNotActive),
		errors.Is(err, model.ErrNoPermission):
		return http.StatusForbidden
	case errors.Is(err, model.ErrUserNotFound),
		errors.Is(err, model.ErrSnippetNotFound),
		errors.Is(err, model.ErrTokenNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrUserAlreadyExists),
		errors.Is(err, model.ErrSnippetAlreadyExists),
		errors.Is(err, model.ErrFavoriteAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, model.ErrTokenExpired):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// sendServiceError : текст доменной ошибки отдаётся клиенту, детали хранилищ нет
func sendServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("внутренняя ошибка обработки запроса", zap.Error(err))
		sendErrorResponse(w, status, "внутренняя ошибка сервера")
		return
	}
	sendErrorResponse(w, status, err.Error())
}

func sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	util.HandleError(w, message, statusCode)
}

func sendJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("ошибка кодирования ответа", zap.Error(err))
	}
}

func sendStatus(w http.ResponseWriter, statusCode int) {
	resp := requestresponse.StatusResponse{}
	resp.Response.Status = "ok"
	sendJSON(w, statusCode, resp)
}
