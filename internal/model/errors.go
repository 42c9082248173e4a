package model

import "errors"

var (
	ErrAuthentication = errors.New("ошибка аутентификации")

	ErrUserNotFound      = errors.New("пользователь не найден")
	ErrUserNotActive     = errors.New("пользователь не активирован")
	ErrInvalidPassword   = errors.New("неверный пароль")
	ErrUserAlreadyExists = errors.New("пользователь уже существует")

	ErrTokenNotFound = errors.New("токен не найден")
	ErrTokenExpired  = errors.New("срок действия токена истёк")

	ErrSnippetNotFound      = errors.New("сниппет не найден")
	ErrSnippetAlreadyExists = errors.New("сниппет с таким названием уже существует")
	ErrNoPermission         = errors.New("доступ запрещён")

	ErrFavoriteAlreadyExists = errors.New("сниппет уже в избранном")

	ErrDocumentNotFound = errors.New("документ не найден")

	ErrValidation = errors.New("некорректные данные")
)
