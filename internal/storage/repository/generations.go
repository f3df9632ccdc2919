package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/generation-service/internal/models"
	"github.com/magabrotheeeer/generation-service/internal/storage"
)

const generationColumns = `id, user_id, image_path, prompt, result_path, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// CreateGeneration сохраняет новое задание и возвращает его с проставленными датами.
func (s *Storage) CreateGeneration(ctx context.Context, g models.Generation) (*models.Generation, error) {
	const op = "storage.CreateGeneration"

	query := `INSERT INTO generations (id, user_id, image_path, prompt, result_path, status)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING ` + generationColumns
	created, err := scanGeneration(s.DB.QueryRowContext(ctx, query,
		g.ID, g.UserID, g.ImagePath, g.Prompt, g.ResultPath, string(g.Status)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetGeneration возвращает задание по ID, только если оно принадлежит userID.
func (s *Storage) GetGeneration(ctx context.Context, id, userID string) (*models.Generation, error) {
	const op = "storage.GetGeneration"

	query := `SELECT ` + generationColumns + `
			  FROM generations
			  WHERE id = $1 AND user_id = $2`
	g, err := scanGeneration(s.DB.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrGenerationNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return g, nil
}

// GetGenerationByID возвращает задание по ID без проверки владельца.
// Используется только фоновой обработкой.
func (s *Storage) GetGenerationByID(ctx context.Context, id string) (*models.Generation, error) {
	const op = "storage.GetGenerationByID"

	query := `SELECT ` + generationColumns + `
			  FROM generations
			  WHERE id = $1`
	g, err := scanGeneration(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrGenerationNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return g, nil
}

// ListRecentGenerations возвращает до limit последних заданий пользователя,
// от новых к старым.
func (s *Storage) ListRecentGenerations(ctx context.Context, userID string, limit int) ([]*models.Generation, error) {
	const op = "storage.ListRecentGenerations"

	query := `SELECT ` + generationColumns + `
			  FROM generations
			  WHERE user_id = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Generation, 0, limit)
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateGenerationStatus перезаписывает статус и ссылку на результат задания.
func (s *Storage) UpdateGenerationStatus(ctx context.Context, id string, status models.GenerationStatus, resultPath *string) (*models.Generation, error) {
	const op = "storage.UpdateGenerationStatus"

	query := `UPDATE generations
			  SET status = $1, result_path = $2, updated_at = NOW()
			  WHERE id = $3
			  RETURNING ` + generationColumns
	g, err := scanGeneration(s.DB.QueryRowContext(ctx, query, string(status), resultPath, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrGenerationNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return g, nil
}

func scanGeneration(row rowScanner) (*models.Generation, error) {
	g := &models.Generation{}
	var resultPath sql.NullString
	if err := row.Scan(&g.ID, &g.UserID, &g.ImagePath, &g.Prompt, &resultPath,
		&g.Status, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	if resultPath.Valid {
		g.ResultPath = &resultPath.String
	}
	return g, nil
}
