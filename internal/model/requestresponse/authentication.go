package requestresponse

// LoginRequest : login это email или имя пользователя
type LoginRequest struct {
	Login    string `json:"login" example:"alice"`
	Password string `json:"password" example:"P@ssw0rd123"`
}

// TokensResponse : ответ на вход и обновление токена
type TokensResponse struct {
	Response struct {
		AccessToken  string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
		RefreshToken string `json:"refresh_token,omitempty" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
		TokenType    string `json:"token_type" example:"bearer"`
	} `json:"response"`
}

// RefreshTokenRequest : запрос нового access-токена
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// LogoutRequest : access-токен берётся из заголовка Authorization
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// CurrentUserResponse : информация о текущем пользователе
type CurrentUserResponse struct {
	Response struct {
		ID       int64  `json:"id" example:"1"`
		Email    string `json:"email" example:"alice@example.com"`
		Username string `json:"username" example:"alice"`
		IsActive bool   `json:"is_active" example:"true"`
		IsAdmin  bool   `json:"is_admin" example:"false"`
	} `json:"response"`
}

// StatusResponse : ответ на операции без данных
type StatusResponse struct {
	Response struct {
		Status string `json:"status" example:"ok"`
	} `json:"response"`
}
