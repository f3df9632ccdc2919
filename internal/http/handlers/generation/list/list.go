// Package list реализует HTTP-обработчик списка последних заданий пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/generation-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/generation-service/internal/http/response"
	"github.com/magabrotheeeer/generation-service/internal/lib/sl"
	"github.com/magabrotheeeer/generation-service/internal/models"
)

// Service описывает получение последних заданий.
type Service interface {
	ListRecent(ctx context.Context, userID string, limit int) ([]*models.Generation, error)
}

// Response содержит задания от новых к старым.
type Response struct {
	Generations []*models.Generation `json:"generations"`
}

// Handler возвращает до limit последних заданий текущего пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
	limit   int
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, limit int) *Handler {
	return &Handler{
		log:     log,
		service: service,
		limit:   limit,
	}
}

// ServeHTTP godoc
// @Summary Последние задания
// @Description Возвращает последние задания пользователя, от новых к старым.
// @Tags Generations
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} Response
// @Failure 401 {object} response.ErrorResponse "Нет или неверный токен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /generations [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.generation.list"

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

	generations, err := h.service.ListRecent(r.Context(), userID, h.limit)
	if err != nil {
		log.Error("failed to list generations", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get generations"))
		return
	}
	if generations == nil {
		generations = []*models.Generation{}
	}

	render.JSON(w, r, Response{Generations: generations})
}
