package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/sngm3741/chat-survey/api/internal/config"
	"github.com/sngm3741/chat-survey/api/internal/infrastructure/messenger"
	commonhttp "github.com/sngm3741/chat-survey/api/internal/interfaces/http/common"
	creatorhttp "github.com/sngm3741/chat-survey/api/internal/interfaces/http/creator"
	publichttp "github.com/sngm3741/chat-survey/api/internal/interfaces/http/public"
	"github.com/sngm3741/chat-survey/api/internal/logger"
	"github.com/sngm3741/chat-survey/api/internal/metrics"
	"github.com/sngm3741/chat-survey/api/internal/survey/application"
)

// Store is the record store plus the health probe every backend provides.
type Store interface {
	application.RecordStore
	Ping(ctx context.Context) error
}

// Server は HTTP サーバーのライフサイクルを管理し、Public/Creator の各ハンドラへ依存注入するコンポジションルート。
type Server struct {
	logger         *logrus.Logger
	store          Store
	closeStore     func(context.Context) error
	metrics        *metrics.Metrics
	location       *time.Location
	jwtConfig      config.JWTConfig
	jwtAudience    string
	addr           string
	allowedOrigins []string

	resolver  *application.Resolver
	lifecycle *application.ResponseLifecycle
	issuer    *application.IdentifierIssuer
	surveys   *application.SurveyService
	notifier  application.CompletionNotifier

	// notifications counts completion notifications still being delivered.
	notifications sync.WaitGroup
	drainTimeout  time.Duration
}

// Option customises New.
type Option func(*Server)

// WithStoreCloser registers a function run after the HTTP server stops.
func WithStoreCloser(closeFn func(context.Context) error) Option {
	return func(s *Server) { s.closeStore = closeFn }
}

// WithDrainTimeout bounds how long shutdown waits for pending notifications.
func WithDrainTimeout(d time.Duration) Option {
	return func(s *Server) { s.drainTimeout = d }
}

// WithNotifier overrides the messenger notifier built from config.
func WithNotifier(n application.CompletionNotifier) Option {
	return func(s *Server) { s.notifier = n }
}

// New は Config とストアを受け取り、アプリケーションサービスとハンドラを組み立てた Server を返す。
func New(cfg config.Config, log *logrus.Logger, store Store, opts ...Option) *Server {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.FixedZone("JST", 9*60*60)
		log.WithError(err).Warnf("タイムゾーン %s の読み込みに失敗, JST を使用します", cfg.Timezone)
	}

	m := metrics.New()
	srv := &Server{
		logger:         log,
		store:          store,
		metrics:        m,
		location:       loc,
		jwtConfig:      cfg.JWT,
		jwtAudience:    cfg.JWTAudience,
		addr:           cfg.Addr,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
		drainTimeout:   15 * time.Second,
	}

	srv.resolver = application.NewResolver(store,
		application.WithRejectAmbiguous(cfg.RejectAmbiguousIdentifiers),
		application.WithResolverObserver(m))
	srv.lifecycle = application.NewResponseLifecycle(store, application.WithLifecycleObserver(m))
	srv.issuer = application.NewIdentifierIssuer(store, application.WithIssuerObserver(m))
	srv.surveys = application.NewSurveyService(store, srv.resolver, srv.issuer)
	srv.notifier = messenger.New(messenger.Config{
		Endpoint:           cfg.MessengerEndpoint,
		DiscordDestination: cfg.DiscordDestination,
		SlackDestination:   cfg.SlackDestination,
		DashboardBaseURL:   cfg.DashboardBaseURL,
		HTTPClient:         &http.Client{Timeout: cfg.MessengerTimeout},
		Logger:             log,
		Failures:           store,
	})

	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// Router はミドルウェアとルーティングを組み立てる。ドメインロジックはここに書かない。
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logger.Middleware(s.logger))
	router.Use(middleware.Recoverer)
	router.Use(s.metrics.Middleware)
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())
	router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	publicHandler := publichttp.NewHandler(publichttp.Config{
		Logger:    s.logger,
		Resolver:  s.resolver,
		Lifecycle: s.lifecycle,
		Notifier:  s.notifier,
		Pending:   &s.notifications,
		Location:  s.location,
	})
	publicHandler.Register(router)

	creatorHandler := creatorhttp.NewHandler(creatorhttp.Config{
		Logger:    s.logger,
		Surveys:   s.surveys,
		Responses: s.lifecycle,
		Issuer:    s.issuer,
		Location:  s.location,
	})
	router.Route("/creator", func(r chi.Router) {
		r.Use(s.authMiddleware)
		creatorHandler.Register(r)
	})
	return router
}

// Run は HTTP サーバーを起動し、シグナル受信で graceful shutdown する。
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Infof("HTTP サーバー起動: http://%s", s.addr)
		errChan <- httpServer.ListenAndServe()
	}()

	return s.waitForShutdown(httpServer, errChan)
}

// withCORS は許可されたオリジン情報をもとに CORS ヘッダーを付与するミドルウェアを返す。
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && len(allowed) > 0 && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[origin]
	return ok
}

// healthHandler はストアへの疎通確認のみを返す。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.store.Ping(ctx); err != nil {
			commonhttp.WriteJSON(s.logger, w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}

		commonhttp.WriteJSON(s.logger, w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().In(s.location).Format(time.RFC3339),
		})
	}
}

// shutdown lets pending notifications finish (they may still write
// failed_notifications) before the store is closed.
func (s *Server) shutdown(ctx context.Context) {
	if !s.drainNotifications(s.drainTimeout) {
		s.logger.Warnf("通知の送信完了を %s 待機しましたが未完了のまま停止します", s.drainTimeout)
	}
	if s.closeStore == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.closeStore(shutdownCtx); err != nil {
		s.logger.WithError(err).Warn("ストア切断時にエラー")
	}
}

// drainNotifications reports whether every pending notification finished within timeout.
func (s *Server) drainNotifications(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.notifications.Wait()
		close(done)
	}()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// waitForShutdown は ListenAndServe の終了と OS シグナルを監視する。
func (s *Server) waitForShutdown(httpServer *http.Server, errChan <-chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("サーバーが異常終了: %w", err)
		}
	case sig := <-sigChan:
		s.logger.Infof("シグナル %s を受信。サーバー停止処理を開始します。", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			s.logger.WithError(err).Warn("サーバー停止時にエラー")
		}
	}

	s.shutdown(context.Background())
	return runErr
}
