package handler

import (
	"encoding/json"
	"net/http"

	"snippet-sharing-server/internal/model"
	"snippet-sharing-server/internal/model/requestresponse"
	"snippet-sharing-server/internal/ports"
	"snippet-sharing-server/internal/security"
)

type AuthenticationHandler struct {
	sessions ports.SessionService
	users    ports.UserService
}

func NewAuthenticationHandler(sessions ports.SessionService, users ports.UserService) *AuthenticationHandler {
	return &AuthenticationHandler{sessions: sessions, users: users}
}

func tokensResponse(tokens *model.TokensPair) requestresponse.TokensResponse {
	resp := requestresponse.TokensResponse{}
	resp.Response.AccessToken = tokens.AccessToken
	resp.Response.RefreshToken = tokens.RefreshToken
	resp.Response.TokenType = tokens.TokenType
	return resp
}

// Login godoc
// @Summary Аутентификация пользователя
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LoginRequest true "Тело запроса"
// @Success 200 {object} requestresponse.TokensResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "некорректный JSON")
		return
	}

	if req.Login == "" || req.Password == "" {
		sendErrorResponse(w, http.StatusBadRequest, "login и password обязательны")
		return
	}

	tokens, err := h.sessions.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, tokensResponse(tokens))
}

// Refresh godoc
// @Summary Новый access-токен по refresh-токену
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.RefreshTokenRequest true "Тело запроса"
// @Success 200 {object} requestresponse.TokensResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Router /api/auth/refresh [post]
func (h *AuthenticationHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		sendErrorResponse(w, http.StatusBadRequest, "refresh_token обязателен")
		return
	}

	tokens, err := h.sessions.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, tokensResponse(tokens))
}

// Logout : refresh-токен из тела, access-токен из заголовка. Повторный вызов тоже успешен
func (h *AuthenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "некорректный JSON")
		return
	}

	accessToken, _ := security.BearerToken(r)
	if req.RefreshToken == "" && accessToken == "" {
		sendErrorResponse(w, http.StatusBadRequest, "не передан ни один токен")
		return
	}

	if err := h.sessions.Logout(r.Context(), req.RefreshToken, accessToken); err != nil {
		sendServiceError(w, err)
		return
	}

	sendStatus(w, http.StatusOK)
}

// RevokeAll : завершает все сессии текущего пользователя
func (h *AuthenticationHandler) RevokeAll(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendServiceError(w, err)
		return
	}

	if err := h.sessions.RevokeAll(r.Context(), claims.UserID); err != nil {
		sendServiceError(w, err)
		return
	}

	sendStatus(w, http.StatusOK)
}

func (h *AuthenticationHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendServiceError(w, err)
		return
	}

	user, err := h.users.GetUser(r.Context(), claims.UserID)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	resp := requestresponse.CurrentUserResponse{}
	resp.Response.ID = user.ID
	resp.Response.Email = user.Email
	resp.Response.Username = user.Username
	resp.Response.IsActive = user.IsActive
	resp.Response.IsAdmin = user.IsAdmin

	sendJSON(w, http.StatusOK, resp)
}
