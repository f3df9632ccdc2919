// Package services содержит бизнес-логику заданий на генерацию: создание,
// фоновую обработку и чтение с проверкой владельца.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/generation-service/internal/lib/sl"
	"github.com/magabrotheeeer/generation-service/internal/lib/worker"
	"github.com/magabrotheeeer/generation-service/internal/metrics"
	"github.com/magabrotheeeer/generation-service/internal/models"
	"github.com/magabrotheeeer/generation-service/internal/storage"
)

var (
	// ErrValidation — не передано изображение или промпт пуст.
	ErrValidation = errors.New("image and prompt are required")
	// ErrNotFound — задания нет или оно принадлежит другому пользователю.
	ErrNotFound = errors.New("generation not found")
	// ErrTransformPanic возвращается, если преобразователь завершился паникой.
	ErrTransformPanic = errors.New("transformer panicked")
)

const (
	// DefaultRecentLimit — максимальное число заданий в списке последних.
	DefaultRecentLimit = 5
	// DefaultWriteTimeout ограничивает запись терминального статуса.
	DefaultWriteTimeout = 10 * time.Second
)

// Repository описывает хранилище заданий.
type Repository interface {
	CreateGeneration(ctx context.Context, g models.Generation) (*models.Generation, error)
	GetGeneration(ctx context.Context, id, userID string) (*models.Generation, error)
	GetGenerationByID(ctx context.Context, id string) (*models.Generation, error)
	ListRecentGenerations(ctx context.Context, userID string, limit int) ([]*models.Generation, error)
	UpdateGenerationStatus(ctx context.Context, id string, status models.GenerationStatus, resultPath *string) (*models.Generation, error)
}

// Transformer преобразует изображение по промпту.
// Возвращает ссылку на результат, отличную от imagePath.
type Transformer interface {
	Transform(ctx context.Context, imagePath, prompt string) (string, error)
}

// Cache хранит задания в терминальном статусе.
type Cache interface {
	GetGeneration(ctx context.Context, id string) (*models.Generation, bool, error)
	SetGeneration(ctx context.Context, g *models.Generation) error
}

// Notifier сообщает внешним системам о завершении задания.
type Notifier interface {
	NotifyGenerationFinished(ctx context.Context, g *models.Generation) error
}

// Dispatcher запускает фоновую задачу, не дожидаясь её завершения.
type Dispatcher interface {
	Go(task worker.Task) error
}

// Service управляет жизненным циклом заданий: pending → completed | failed.
type Service struct {
	repo         Repository
	transformer  Transformer
	dispatcher   Dispatcher
	cache        Cache
	notifier     Notifier
	log          *slog.Logger
	recentLimit  int
	writeTimeout time.Duration
}

// Option настраивает Service.
type Option func(*Service)

// WithCache подключает кэш завершённых заданий.
func WithCache(c Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithNotifier подключает публикацию событий о завершении.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithRecentLimit задаёт верхнюю границу для ListRecent.
func WithRecentLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.recentLimit = limit
		}
	}
}

// WithWriteTimeout задаёт время на запись результата обработки.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// New создаёт сервис генераций.
func New(log *slog.Logger, repo Repository, transformer Transformer, dispatcher Dispatcher, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		transformer:  transformer,
		dispatcher:   dispatcher,
		cache:        nopCache{},
		notifier:     nopNotifier{},
		log:          log,
		recentLimit:  DefaultRecentLimit,
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create сохраняет задание в статусе pending и планирует ровно одну попытку обработки.
// Ошибка планирования не возвращается: задание остаётся в pending.
func (s *Service) Create(ctx context.Context, userID, imagePath, prompt string) (*models.Generation, error) {
	const op = "services.Create"

	prompt = strings.TrimSpace(prompt)
	if strings.TrimSpace(imagePath) == "" || prompt == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrValidation)
	}

	created, err := s.repo.CreateGeneration(ctx, models.Generation{
		ID:        uuid.NewString(),
		UserID:    userID,
		ImagePath: imagePath,
		Prompt:    prompt,
		Status:    models.StatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.GenerationsCreatedTotal.Inc()

	id := created.ID
	if err := s.dispatcher.Go(func(taskCtx context.Context) {
		s.Process(taskCtx, id)
	}); err != nil {
		s.log.Error("failed to schedule generation processing",
			sl.Op(op), slog.String("generation_id", id), sl.Err(err))
	}

	return created, nil
}

// Process выполняет единственную попытку обработки задания и записывает терминальный статус.
// Ошибки не возвращаются: они поглощаются статусом failed и попадают только в лог.
func (s *Service) Process(ctx context.Context, id string) {
	const op = "services.Process"
	log := s.log.With(sl.Op(op), slog.String("generation_id", id))

	g, err := s.repo.GetGenerationByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrGenerationNotFound) {
			log.Warn("generation disappeared before processing")
			return
		}
		log.Error("failed to load generation", sl.Err(err))
		return
	}
	if g.Status != models.StatusPending {
		log.Info("generation already finished, skipping", slog.String("status", string(g.Status)))
		return
	}

	metrics.GenerationsInFlight.Inc()
	start := time.Now()
	resultPath, transformErr := s.transform(ctx, g)
	metrics.GenerationProcessingSeconds.Observe(time.Since(start).Seconds())
	metrics.GenerationsInFlight.Dec()

	status, result := models.StatusCompleted, &resultPath
	if transformErr != nil {
		status, result = models.StatusFailed, nil
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()

	updated, err := s.repo.UpdateGenerationStatus(writeCtx, id, status, result)
	if err != nil {
		log.Error("failed to store generation status",
			slog.String("status", string(status)), sl.Err(err))
		return
	}
	metrics.GenerationsFinishedTotal.WithLabelValues(string(status)).Inc()

	if transformErr != nil {
		log.Warn("generation failed", sl.Err(transformErr))
	} else {
		log.Info("generation completed", slog.String("result_path", resultPath))
	}

	if err := s.cache.SetGeneration(writeCtx, updated); err != nil {
		log.Warn("failed to cache generation", sl.Err(err))
	}
	if err := s.notifier.NotifyGenerationFinished(writeCtx, updated); err != nil {
		log.Warn("failed to publish generation event", sl.Err(err))
	}
}

func (s *Service) transform(ctx context.Context, g *models.Generation) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = "", fmt.Errorf("%w: %v", ErrTransformPanic, r)
		}
	}()

	result, err = s.transformer.Transform(ctx, g.ImagePath, g.Prompt)
	if err == nil && result == "" {
		err = errors.New("transformer returned empty result")
	}
	return result, err
}

// Get возвращает задание, только если оно принадлежит userID.
// Отсутствие задания, чужое задание и некорректный ID неразличимы для вызывающего.
func (s *Service) Get(ctx context.Context, id, userID string) (*models.Generation, error) {
	const op = "services.Get"

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	cached, found, err := s.cache.GetGeneration(ctx, id)
	if err != nil {
		s.log.Warn("failed to read generation from cache", sl.Op(op), sl.Err(err))
	}
	if found {
		if cached.UserID != userID {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return cached, nil
	}

	g, err := s.repo.GetGeneration(ctx, id, userID)
	if err != nil {
		if errors.Is(err, storage.ErrGenerationNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if g.Status.IsTerminal() {
		if err := s.cache.SetGeneration(ctx, g); err != nil {
			s.log.Warn("failed to cache generation", sl.Op(op), sl.Err(err))
		}
	}
	return g, nil
}

// ListRecent возвращает до limit последних заданий пользователя, от новых к старым.
// limit вне (0, recentLimit] заменяется на recentLimit.
func (s *Service) ListRecent(ctx context.Context, userID string, limit int) ([]*models.Generation, error) {
	const op = "services.ListRecent"

	if limit <= 0 || limit > s.recentLimit {
		limit = s.recentLimit
	}
	list, err := s.repo.ListRecentGenerations(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

type nopCache struct{}

func (nopCache) GetGeneration(context.Context, string) (*models.Generation, bool, error) {
	return nil, false, nil
}

func (nopCache) SetGeneration(context.Context, *models.Generation) error { return nil }

type nopNotifier struct{}

func (nopNotifier) NotifyGenerationFinished(context.Context, *models.Generation) error { return nil }
