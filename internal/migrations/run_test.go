package migrations

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/generation-service/internal/storage/pgtest"
)

func TestRunMigrations(t *testing.T) {
	db := pgtest.Open(t)

	err := Run(db, pgtest.MigrationsPath(t))
	require.NoError(t, err)

	for _, table := range []string{"users", "generations"} {
		var exists bool
		err = db.QueryRow(`
			SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = $1
			)
		`, table).Scan(&exists)
		require.NoError(t, err)
		require.Truef(t, exists, "table %q should exist", table)
	}

	var exists bool
	err = db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM pg_indexes
			WHERE schemaname = 'public'
			AND tablename = 'users'
			AND indexname = 'idx_users_email_lower'
		)
	`).Scan(&exists)
	require.NoError(t, err)
	require.True(t, exists, "email uniqueness index should exist")
}

func TestMigrationIdempotency(t *testing.T) {
	db := pgtest.Open(t)
	path := pgtest.MigrationsPath(t)

	require.NoError(t, Run(db, path))
	require.NoError(t, Run(db, path), "running migrations twice should not fail")
}

func TestRun_InvalidPath(t *testing.T) {
	db := pgtest.Open(t)

	err := Run(db, "/definitely/not/here")
	require.Error(t, err)
	require.Contains(t, err.Error(), "migrations.Run")
}
