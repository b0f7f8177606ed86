package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/stakevault/internal/metrics"
	"github.com/hitoshi/stakevault/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger             *slog.Logger
	Metrics            metrics.MetricsCollector
	CORSAllowedOrigins []string

	// ヘルスチェック
	DB Pinger

	// 購読
	SubscriptionService SubscriptionServiceInterface

	// アカウント
	AccountService AccountServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → CORS → Logging → Metrics → Recovery → SecurityHeaders
//
// パニックはRecoveryで500に変換されるため、LoggingとMetricsには500として記録される。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.NopCollector{}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(collector))
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	subHandler := NewSubscriptionHandler(deps.SubscriptionService)
	accountHandler := NewAccountHandler(deps.AccountService)

	r.Get("/health_check", HealthCheck(deps.DB))

	// 購読
	r.Route("/subscriptions", func(r chi.Router) {
		r.Post("/", subHandler.Subscribe)
		r.Get("/confirm", subHandler.Confirm)
	})

	// アカウント
	r.Post("/account/create", accountHandler.Create)

	return r
}
