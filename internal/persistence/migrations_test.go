package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeMigrations(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func TestRunMigrationsAppliesPendingInOrder(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"002_second.sql": "CREATE TABLE second_table (id INT);",
		"001_first.sql":  "CREATE TABLE first_table (id INT);",
		"README.md":      "not a migration",
	})

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).WithArgs("001_first.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).WithArgs("002_second.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE second_table").WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs("002_second.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, RunMigrations(context.Background(), mock, dir, zap.NewNop()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsRollsBackOnFailure(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"001_broken.sql": "CREATE TABLE broken (",
	})

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).WithArgs("001_broken.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE broken (")).WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	err = RunMigrations(context.Background(), mock, dir, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_broken.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsMissingDir(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	err = RunMigrations(context.Background(), mock, filepath.Join(t.TempDir(), "absent"), zap.NewNop())
	assert.Error(t, err)
}

func TestNilHandlesPing(t *testing.T) {
	var pg *Postgres
	var rd *Redis

	assert.ErrorIs(t, pg.Ping(context.Background()), ErrPostgresNotConfigured)
	assert.ErrorIs(t, rd.Ping(context.Background()), ErrRedisNotConfigured)
	assert.Nil(t, pg.PoolHandle())
}
