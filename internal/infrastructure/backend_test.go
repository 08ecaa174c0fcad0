package infrastructure

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/chat-survey/api/internal/config"
	"github.com/sngm3741/chat-survey/api/internal/infrastructure/memory"
	"github.com/sngm3741/chat-survey/api/internal/infrastructure/sqlite"
	"github.com/sngm3741/chat-survey/api/internal/survey/application"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestOpen_Memory(t *testing.T) {
	store, closeStore, err := Open(context.Background(), config.Config{StoreDriver: config.DriverMemory}, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)
	assert.NoError(t, closeStore(context.Background()))
}

func TestOpen_SQLite(t *testing.T) {
	cfg := config.Config{StoreDriver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "survey.db")}
	store, closeStore, err := Open(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, store)

	ctx := context.Background()
	_, err = store.Insert(ctx, application.CollectionSurveys, application.Record{application.FieldShortCode: "F6MQ"})
	require.NoError(t, err)
	assert.NoError(t, store.Ping(ctx))
	require.NoError(t, closeStore(ctx))

	// Reopening runs the migrations again over the existing schema.
	reopened, closeAgain, err := Open(ctx, cfg, quietLogger())
	require.NoError(t, err)
	defer closeAgain(ctx)
	_, err = reopened.FindOne(ctx, application.CollectionSurveys, application.EqFold{Field: application.FieldShortCode, Value: "f6mq"})
	assert.NoError(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, _, err := Open(context.Background(), config.Config{StoreDriver: "postgres"}, quietLogger())
	assert.ErrorContains(t, err, "postgres")
}
