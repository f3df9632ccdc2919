// Package models содержит доменные структуры: пользователя и задание на генерацию.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID           string    // Уникальный идентификатор пользователя (UUID)
	Email        string    // Электронная почта, хранится в нижнем регистре
	PasswordHash string    // bcrypt-хеш пароля, наружу не отдаётся
	Name         *string   // Отображаемое имя (опционально)
	CreatedAt    time.Time // Дата регистрации
}

// PublicUser — несекретные поля пользователя, которые возвращаются клиенту.
type PublicUser struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
}

// Public возвращает представление пользователя без хеша пароля.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
	}
}
