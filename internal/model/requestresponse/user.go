package requestresponse

// RegisterRequest : тело запроса регистрации
type RegisterRequest struct {
	Email    string `json:"email" example:"alice@example.com"`
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"P@ssw0rd!"`
}

// RegisterResponse : пользователь создан неактивным
type RegisterResponse struct {
	Response struct {
		ID       int64  `json:"id" example:"1"`
		Email    string `json:"email" example:"alice@example.com"`
		Username string `json:"username" example:"alice"`
		IsActive bool   `json:"is_active" example:"false"`
	} `json:"response"`
}

// ErrorDetail : детальная информация об ошибке
type ErrorDetail struct {
	Code int    `json:"code" example:"400"`
	Text string `json:"text" example:"некорректные данные"`
}

// ErrorResponse : стандартная структура ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type PasswordResetRequest struct {
	Email string `json:"email" example:"alice@example.com"`
}

type PasswordResetConfirmRequest struct {
	NewPassword string `json:"new_password" example:"N3w!Password"`
}

// ChangePasswordRequest : тело запроса смены пароля
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" example:"P@ssw0rd123"`
	NewPassword string `json:"new_password" example:"N3w!Password"`
}
