// Package storage определяет ошибки уровня хранилища, общие для всех реализаций.
package storage

import "errors"

var (
	// ErrUserExists — пользователь с таким email уже существует.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound — пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrGenerationNotFound — задание не найдено (или принадлежит другому пользователю).
	ErrGenerationNotFound = errors.New("generation not found")
)
