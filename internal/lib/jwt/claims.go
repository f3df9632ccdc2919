package jwt

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims описывает данные, хранящиеся в токене.
type CustomClaims struct {
	UserID               string `json:"id"`    // Идентификатор пользователя
	Email                string `json:"email"` // Email пользователя
	jwt.RegisteredClaims        // Стандартные claims (sub, iat, exp)
}

// GenerateToken создаёт токен HS256 для пользователя.
//
// Время выпуска берётся из часов MakerImpl, срок действия равен выпуску плюс tokenTTL.
func (j *MakerImpl) GenerateToken(userID, email string) (string, error) {
	const op = "jwt.GenerateToken"
	issuedAt := j.now()
	claims := CustomClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken проверяет подпись и срок действия токена и возвращает его claims.
//
// Любая причина отказа сводится к ErrInvalidToken; исходная ошибка
// сохраняется в цепочке только для логирования.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return j.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, errors.Join(ErrInvalidToken, err))
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	return claims, nil
}
