// Package read реализует HTTP-обработчик получения задания по ID.
//
// Отсутствующее и чужое задание неразличимы: в обоих случаях ответ 404.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/generation-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/generation-service/internal/http/response"
	"github.com/magabrotheeeer/generation-service/internal/lib/sl"
	"github.com/magabrotheeeer/generation-service/internal/models"
	services "github.com/magabrotheeeer/generation-service/internal/services/generation"
)

// Handler обрабатывает запросы на получение задания по уникальному идентификатору.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики заданий
}

// Service описывает интерфейс бизнес-логики чтения задания.
type Service interface {
	Get(ctx context.Context, id, userID string) (*models.Generation, error)
}

// Response тело успешного ответа.
type Response struct {
	Generation *models.Generation `json:"generation"`
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Задание по ID
// @Tags Generations
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID задания"
// @Success 200 {object} Response
// @Failure 401 {object} response.ErrorResponse "Нет или неверный токен"
// @Failure 404 {object} response.ErrorResponse "Задание не найдено"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /generations/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.generation.read"

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

	id := chi.URLParam(r, "id")
	generation, err := h.service.Get(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			log.Info("generation not found", slog.String("generation_id", id))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("generation not found"))
			return
		}
		log.Error("failed to get generation", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get generation"))
		return
	}

	render.JSON(w, r, Response{Generation: generation})
}
