// Package me реализует HTTP-обработчик получения текущего пользователя по токену.
package me

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/generation-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/generation-service/internal/http/response"
	"github.com/magabrotheeeer/generation-service/internal/lib/sl"
	"github.com/magabrotheeeer/generation-service/internal/models"
	services "github.com/magabrotheeeer/generation-service/internal/services/auth"
)

// Service описывает получение текущего пользователя.
type Service interface {
	GetCurrentUser(ctx context.Context, userID string) (*models.PublicUser, error)
}

// Handler возвращает публичные данные владельца токена.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Текущий пользователь
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} models.PublicUser
// @Failure 401 {object} response.ErrorResponse "Нет или неверный токен"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.me"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		log.Error("user id missing in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			log.Info("user from token not found", slog.String("user_id", userID))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to get current user", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get user"))
		return
	}

	render.JSON(w, r, user)
}
