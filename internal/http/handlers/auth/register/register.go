// Package register реализует HTTP-обработчик регистрации пользователя.
//
// Handler декодирует и валидирует JSON, делегирует регистрацию сервису авторизации
// и возвращает 201 с токеном и публичными данными пользователя.
package register

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/generation-service/internal/http/response"
	"github.com/magabrotheeeer/generation-service/internal/lib/sl"
	"github.com/magabrotheeeer/generation-service/internal/metrics"
	services "github.com/magabrotheeeer/generation-service/internal/services/auth"
)

// Request — входные данные для регистрации
type Request struct {
	Email    string  `json:"email" validate:"required,email,max=254"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Name     *string `json:"name,omitempty" validate:"omitempty,max=100"`
}

// Service описывает регистрацию в сервисе авторизации.
type Service interface {
	Register(ctx context.Context, email, password string, name *string) (*services.Session, error)
}

// Handler обрабатывает запросы на регистрацию.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Регистрация нового пользователя
// @Description Создаёт пользователя и сразу возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Email, пароль и имя"
// @Success 201 {object} services.Session
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации или email уже занят"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid request"))
			return
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(verrs))
		return
	}

	session, err := h.service.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateEmail) {
			log.Info("email already registered")
			metrics.AuthRegistrationsTotal.WithLabelValues(metrics.ResultFailure).Inc()
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("user with this email already exists"))
			return
		}
		log.Error("registration failed", sl.Err(err))
		metrics.AuthRegistrationsTotal.WithLabelValues(metrics.ResultError).Inc()
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to register user"))
		return
	}

	metrics.AuthRegistrationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	log.Info("user registered", slog.String("user_id", session.User.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, session)
}
