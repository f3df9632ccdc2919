// Package password реализует хеширование и проверку паролей на bcrypt.
//
// GetHash создаёт солёный bcrypt-хеш, CompareHash сверяет пароль с хешем.
// DummyHash отдаёт заранее посчитанный хеш, с которым сверяется пароль
// при входе с неизвестным email, чтобы время ответа не зависело от наличия пользователя.
package password

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch возвращается, когда пароль не соответствует хешу.
var ErrMismatch = errors.New("password does not match hash")

// GetHash принимает пароль пользователя и возвращает его bcrypt-хеш.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt-хеш с введённым паролем.
//
// Возвращает nil при совпадении, ErrMismatch при несовпадении
// и обёрнутую ошибку bcrypt, если хеш повреждён.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

var dummyHash = sync.OnceValue(func() string {
	hash, err := GetHash("dummy-password-for-timing")
	if err != nil {
		panic(err)
	}
	return hash
})

// DummyHash возвращает валидный bcrypt-хеш той же стоимости, что и у настоящих паролей.
func DummyHash() string {
	return dummyHash()
}
