// Package infrastructure selects and connects the record store named by STORE_DRIVER.
package infrastructure

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/sngm3741/chat-survey/api/internal/config"
	"github.com/sngm3741/chat-survey/api/internal/infrastructure/memory"
	mongostore "github.com/sngm3741/chat-survey/api/internal/infrastructure/mongo"
	"github.com/sngm3741/chat-survey/api/internal/infrastructure/sqlite"
	"github.com/sngm3741/chat-survey/api/internal/survey/application"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Backend is a connected record store.
type Backend interface {
	application.RecordStore
	Ping(ctx context.Context) error
}

// CloseFunc releases the backend's connections.
type CloseFunc func(ctx context.Context) error

// Open connects the configured backend, prepares its schema or indexes and
// returns it together with its close function.
func Open(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (Backend, CloseFunc, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Warn("インメモリストアを使用します。再起動でデータは失われます")
		return memory.New(), func(context.Context) error { return nil }, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := sqlite.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		store, err := sqlite.New(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.WithField("path", cfg.SQLitePath).Info("SQLite ストアに接続しました")
		return store, func(context.Context) error { return db.Close() }, nil

	case config.DriverMongo, "":
		connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()

		clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
		client, err := mongo.Connect(connectCtx, clientOptions)
		if err != nil {
			return nil, nil, fmt.Errorf("MongoDB 接続に失敗しました: %w", err)
		}
		store := mongostore.NewRecordStore(client, client.Database(cfg.MongoDatabase), mongostore.CollectionNames{
			Surveys:             cfg.SurveyCollection,
			Responses:           cfg.ResponseCollection,
			FailedNotifications: cfg.FailedNotificationCollection,
		})
		if err := store.EnsureIndexes(connectCtx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		log.WithField("database", cfg.MongoDatabase).Info("MongoDB ストアに接続しました")
		return store, store.Disconnect, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
