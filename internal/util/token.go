package util

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateRandomToken : генерирует случайный hex-токен длиной length символов
func GenerateRandomToken(length int) (string, error) {
	byteLength := (length + 1) / 2 // hex кодирует 1 байт = 2 символа
	bytes := make([]byte, byteLength)

	if _, err := rand.Read(bytes); err != nil {
		return "", LogError("[util] ошибка генерации токена", err)
	}

	return hex.EncodeToString(bytes)[:length], nil
}
