// Package jwt реализует выпуск и проверку подписанных сессионных токенов.
//
// Maker определяет интерфейс сервиса токенов: выпуск токена для пары (id пользователя, email)
// и обратная проверка с извлечением идентичности. MakerImpl реализует его на HS256
// с секретным ключом и временем жизни, которые задаются один раз при старте процесса.
package jwt

import (
	"errors"
	"time"
)

// ErrInvalidToken возвращается при любой ошибке проверки токена:
// неверная подпись, неожиданный алгоритм, повреждённый формат или истёкший срок.
var ErrInvalidToken = errors.New("invalid or expired token")

// DefaultTokenTTL — время жизни токена по умолчанию (7 дней).
const DefaultTokenTTL = 7 * 24 * time.Hour

// Maker описывает интерфейс для выпуска и проверки токенов.
type Maker interface {
	// GenerateToken выпускает токен для пользователя с указанными id и email.
	GenerateToken(userID, email string) (string, error)
	// ParseToken проверяет токен и возвращает его claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует Maker с использованием секретного ключа и TTL.
type MakerImpl struct {
	secretKey []byte           // Секретный ключ для подписи токенов
	tokenTTL  time.Duration    // Время жизни токена
	now       func() time.Time // Источник текущего времени
}

// Option настраивает MakerImpl.
type Option func(*MakerImpl)

// WithClock подменяет источник времени, используемый при выпуске и проверке.
func WithClock(now func() time.Time) Option {
	return func(m *MakerImpl) {
		m.now = now
	}
}

// NewJWTMaker создаёт новый MakerImpl. Неположительный ttl заменяется на DefaultTokenTTL.
func NewJWTMaker(secretKey string, ttl time.Duration, opts ...Option) *MakerImpl {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	m := &MakerImpl{
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL возвращает время жизни выпускаемых токенов.
func (j *MakerImpl) TTL() time.Duration {
	return j.tokenTTL
}
