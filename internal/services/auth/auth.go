// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/generation-service/internal/lib/jwt"
	"github.com/magabrotheeeer/generation-service/internal/lib/password"
	"github.com/magabrotheeeer/generation-service/internal/models"
	"github.com/magabrotheeeer/generation-service/internal/storage"
)

var (
	// ErrDuplicateEmail — пользователь с таким email уже зарегистрирован.
	ErrDuplicateEmail = errors.New("user with this email already exists")
	// ErrInvalidCredentials — неизвестный email или неверный пароль, без различия.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound — пользователь из токена больше не существует.
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя. Для занятого email возвращает storage.ErrUserExists.
	CreateUser(ctx context.Context, user models.User) (*models.User, error)

	// GetUserByEmail возвращает пользователя по email или storage.ErrUserNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUser возвращает пользователя по ID или storage.ErrUserNotFound.
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// Session содержит выданный токен и публичные данные пользователя.
type Session struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// NormalizeEmail приводит email к виду, в котором он хранится и ищется.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создает пользователя с bcrypt-хэшем пароля и сразу выдаёт токен.
func (s *AuthService) Register(ctx context.Context, email, rawPassword string, name *string) (*Session, error) {
	const op = "services.Register"

	email = NormalizeEmail(email)
	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%s: %w", op, ErrDuplicateEmail)
	case !errors.Is(err, storage.ErrUserNotFound):
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.users.CreateUser(ctx, models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashed,
		Name:         name,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrDuplicateEmail)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.issue(op, created)
}

// Login проверяет пароль и выдаёт токен.
//
// Для неизвестного email сравнение выполняется с фиктивным хэшем, чтобы
// время ответа не выдавало существование учётной записи.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*Session, error) {
	const op = "services.Login"

	user, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		_ = password.CompareHash(password.DummyHash(), rawPassword)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.issue(op, user)
}

// GetCurrentUser возвращает публичные данные пользователя по ID из токена.
func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*models.PublicUser, error) {
	const op = "services.GetCurrentUser"

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	public := user.Public()
	return &public, nil
}

// ValidateToken проверяет JWT и возвращает идентичность его владельца.
// Любая ошибка проверки оборачивает jwt.ErrInvalidToken.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*models.PublicUser, error) {
	const op = "services.ValidateToken"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		if !errors.Is(err, jwt.ErrInvalidToken) {
			err = errors.Join(jwt.ErrInvalidToken, err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.PublicUser{
		ID:    claims.UserID,
		Email: claims.Email,
	}, nil
}

func (s *AuthService) issue(op string, user *models.User) (*Session, error) {
	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Session{
		Token: token,
		User:  user.Public(),
	}, nil
}
