package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"snippet-sharing-server/internal/model/requestresponse"
	"snippet-sharing-server/internal/ports"
	"snippet-sharing-server/internal/security"
)

type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Register godoc
// @Summary Регистрация пользователя
// @Description Создаёт неактивного пользователя и отправляет токен активации
// @Tags Users
// @Accept json
// @Produce json
// @Param body body requestresponse.RegisterRequest true "Тело запроса"
// @Success 201 {object} requestresponse.RegisterResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 409 {object} requestresponse.ErrorResponse
// @Router /api/users/register [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "некорректный JSON")
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	resp := requestresponse.RegisterResponse{}
	resp.Response.ID = user.ID
	resp.Response.Email = user.Email
	resp.Response.Username = user.Username
	resp.Response.IsActive = user.IsActive

	sendJSON(w, http.StatusCreated, resp)
}

func (h *UserHandler) Activate(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Activate(r.Context(), chi.URLParam(r, "token")); err != nil {
		sendServiceError(w, err)
		return
	}

	sendStatus(w, http.StatusOK)
}

// RequestPasswordReset : ответ не зависит от того, существует ли email
func (h *UserHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		sendErrorResponse(w, http.StatusBadRequest, "email обязателен")
		return
	}

	if err := h.users.RequestPasswordReset(r.Context(), req.Email); err != nil {
		sendServiceError(w, err)
		return
	}

	sendStatus(w, http.StatusAccepted)
}

func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.PasswordResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "некорректный JSON")
		return
	}

	if err := h.users.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.NewPassword); err != nil {
		sendServiceError(w, err)
		return
	}

	sendStatus(w, http.StatusOK)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendServiceError(w, err)
		return
	}

	var req requestresponse.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "некорректный JSON")
		return
	}

	if err := h.users.ChangePassword(r.Context(), claims.UserID, req.OldPassword, req.NewPassword); err != nil {
		sendServiceError(w, err)
		return
	}

	sendStatus(w, http.StatusOK)
}
