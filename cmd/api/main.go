package main

import (
	"context"
	"log"

	"github.com/sngm3741/chat-survey/api/internal/config"
	"github.com/sngm3741/chat-survey/api/internal/infrastructure"
	"github.com/sngm3741/chat-survey/api/internal/logger"
	"github.com/sngm3741/chat-survey/api/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}
	if err := cfg.RequireAuth(); err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	appLog := logger.New("chat-survey-api", cfg.LogLevel)

	store, closeStore, err := infrastructure.Open(context.Background(), cfg, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("ストアの初期化に失敗しました")
	}

	app := server.New(cfg, appLog, store, server.WithStoreCloser(closeStore))
	if err := app.Run(); err != nil {
		appLog.WithError(err).Fatal("サーバー起動に失敗")
	}
}
