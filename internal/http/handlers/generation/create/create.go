// Package create реализует HTTP-обработчик создания задания на генерацию.
//
// Handler принимает multipart-форму с изображением (поле image) и промптом (поле prompt),
// проверяет размер и тип файла, сохраняет его и создаёт задание в статусе pending.
// Обработка продолжается в фоне, ответ 201 возвращается сразу.
package create

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/generation-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/generation-service/internal/http/response"
	"github.com/magabrotheeeer/generation-service/internal/lib/sl"
	"github.com/magabrotheeeer/generation-service/internal/models"
	services "github.com/magabrotheeeer/generation-service/internal/services/generation"
	"github.com/magabrotheeeer/generation-service/internal/storage/files"
)

const (
	imageField  = "image"
	promptField = "prompt"

	// multipartOverhead запас на заголовки формы и поле prompt сверх размера файла.
	multipartOverhead = 1 << 20
	sniffLen          = 512
)

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".webp": true,
}

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// Service описывает создание задания.
type Service interface {
	Create(ctx context.Context, userID, imagePath, prompt string) (*models.Generation, error)
}

// FileStore сохраняет загруженные изображения.
type FileStore interface {
	Save(r io.Reader, ext string) (string, error)
	Remove(path string) error
}

// Response — тело успешного ответа.
type Response struct {
	Message    string             `json:"message" example:"Generation started"`
	Generation *models.Generation `json:"generation"`
}

// Handler обрабатывает загрузку изображения и создание задания.
type Handler struct {
	log         *slog.Logger
	service     Service
	files       FileStore
	maxFileSize int64
}

// New создает новый Handler. maxFileSize задаёт предельный размер изображения в байтах.
func New(log *slog.Logger, service Service, files FileStore, maxFileSize int64) *Handler {
	return &Handler{
		log:         log,
		service:     service,
		files:       files,
		maxFileSize: maxFileSize,
	}
}

// ServeHTTP godoc
// @Summary Создать задание на генерацию
// @Description Загружает изображение (jpeg, jpg, png, webp) и промпт. Обработка идёт в фоне.
// @Tags Generations
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param image formData file true "Исходное изображение"
// @Param prompt formData string true "Промпт"
// @Success 201 {object} Response
// @Failure 400 {object} response.ErrorResponse "Нет изображения или промпта, неверный тип или размер файла"
// @Failure 401 {object} response.ErrorResponse "Нет или неверный токен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /generations [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.generation.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		log.Error("user id missing in context")
		h.fail(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		if isTooLarge(err) {
			log.Info("request body too large", sl.Err(err))
			h.fail(w, r, http.StatusBadRequest, "file is too large")
			return
		}
		log.Info("failed to parse multipart form", sl.Err(err))
		h.fail(w, r, http.StatusBadRequest, "image file is required")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(imageField)
	if err != nil {
		log.Info("image file missing", sl.Err(err))
		h.fail(w, r, http.StatusBadRequest, "image file is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	prompt := strings.TrimSpace(r.FormValue(promptField))
	if prompt == "" {
		h.fail(w, r, http.StatusBadRequest, "prompt is required")
		return
	}

	if header.Size > h.maxFileSize {
		log.Info("file too large", slog.Int64("size", header.Size))
		h.fail(w, r, http.StatusBadRequest, "file is too large")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] || !allowedDeclaredType(header.Header.Get("Content-Type")) {
		log.Info("unsupported file type", slog.String("filename", header.Filename))
		h.fail(w, r, http.StatusBadRequest, "only image files are allowed (jpeg, jpg, png, webp)")
		return
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		log.Error("failed to read uploaded file", sl.Err(err))
		h.fail(w, r, http.StatusBadRequest, "failed to read image file")
		return
	}
	if !allowedContentTypes[http.DetectContentType(head[:n])] {
		log.Info("file content is not an image", slog.String("filename", header.Filename))
		h.fail(w, r, http.StatusBadRequest, "only image files are allowed (jpeg, jpg, png, webp)")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		log.Error("failed to rewind uploaded file", sl.Err(err))
		h.fail(w, r, http.StatusInternalServerError, "failed to store image")
		return
	}

	imagePath, err := h.files.Save(file, ext)
	if err != nil {
		if errors.Is(err, files.ErrTooLarge) {
			h.fail(w, r, http.StatusBadRequest, "file is too large")
			return
		}
		log.Error("failed to store uploaded file", sl.Err(err))
		h.fail(w, r, http.StatusInternalServerError, "failed to store image")
		return
	}

	generation, err := h.service.Create(r.Context(), userID, imagePath, prompt)
	if err != nil {
		if rmErr := h.files.Remove(imagePath); rmErr != nil {
			log.Warn("failed to remove orphaned upload", sl.Err(rmErr))
		}
		if errors.Is(err, services.ErrValidation) {
			h.fail(w, r, http.StatusBadRequest, "image and prompt are required")
			return
		}
		log.Error("failed to create generation", sl.Err(err))
		h.fail(w, r, http.StatusInternalServerError, "failed to create generation")
		return
	}

	log.Info("generation created", slog.String("generation_id", generation.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, Response{
		Message:    "Generation started",
		Generation: generation,
	})
}

// isTooLarge распознаёт превышение лимита MaxBytesReader, в том числе
// когда multipart теряет тип ошибки при обёртке.
func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, response.Error(msg))
}

// allowedDeclaredType проверяет Content-Type части формы. Пустой заголовок
// допускается: решающей остаётся проверка содержимого.
func allowedDeclaredType(declared string) bool {
	if declared == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return false
	}
	return allowedContentTypes[strings.ToLower(mediaType)]
}
