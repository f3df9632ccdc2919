package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/generation-service/internal/migrations"
	"github.com/magabrotheeeer/generation-service/internal/models"
	"github.com/magabrotheeeer/generation-service/internal/storage/pgtest"
)

func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	db := pgtest.Open(t)
	require.NoError(t, migrations.Run(db, pgtest.MigrationsPath(t)))

	_, err := db.Exec(`TRUNCATE generations, users CASCADE`)
	require.NoError(t, err)

	return &Storage{DB: db}
}

// TestDataFactory создаёт тестовые записи напрямую через репозиторий.
type TestDataFactory struct {
	storage *Storage
}

func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

func (f *TestDataFactory) CreateUser(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := f.storage.CreateUser(context.Background(), models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: "$2a$10$hashedpasswordplaceholder",
	})
	require.NoError(t, err)
	return u
}

func (f *TestDataFactory) CreateGeneration(t *testing.T, userID, prompt string) *models.Generation {
	t.Helper()
	g, err := f.storage.CreateGeneration(context.Background(), models.Generation{
		ID:        uuid.NewString(),
		UserID:    userID,
		ImagePath: "uploads/upload_" + uuid.NewString() + ".png",
		Prompt:    prompt,
		Status:    models.StatusPending,
	})
	require.NoError(t, err)
	return g
}
