// Package app はサブコマンドの解析と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/stakevault/internal/account"
	"github.com/hitoshi/stakevault/internal/config"
	"github.com/hitoshi/stakevault/internal/database"
	"github.com/hitoshi/stakevault/internal/email"
	"github.com/hitoshi/stakevault/internal/handler"
	"github.com/hitoshi/stakevault/internal/logger"
	"github.com/hitoshi/stakevault/internal/metrics"
	"github.com/hitoshi/stakevault/internal/observability"
	"github.com/hitoshi/stakevault/internal/repository"
	"github.com/hitoshi/stakevault/internal/security"
	"github.com/hitoshi/stakevault/internal/subscription"
)

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、LOG_LEVELに従ってJSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, *slog.Logger, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	log := logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたレベルでロガーを作り直す
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn("unknown LOG_LEVEL, falling back to info", slog.String("log_level", cfg.LogLevel))
	}
	log = logger.SetupDefault(w, level)

	return cfg, log, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, log, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	log.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("addr", cfg.ServerAddr()),
		slog.String("base_url", cfg.BaseURL),
		slog.String("email_provider", cfg.EmailProvider),
	)

	switch cmd {
	case CommandMigrate:
		action, err := ParseMigrateAction(args)
		if err != nil {
			return err
		}
		return runMigrate(cfg, log, action)
	default:
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg, log)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、APIサーバーとメトリクスサーバーを起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// 1. トレーシング
	shutdownTracing := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.OTelEnabled,
		ServiceName: cfg.ServiceName,
	}, log)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracer shutdown failed", slog.String("error", err.Error()))
		}
	}()

	// 2. DB接続
	db, err := database.Open(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:   cfg.DBMaxOpenConns,
		MaxIdleConns:   cfg.DBMaxIdleConns,
		ConnectTimeout: cfg.DBConnectTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DBConnectTimeout)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("database connection established")

	// 3. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 4. メール送信
	sender, err := newSender(ctx, cfg, log)
	if err != nil {
		return err
	}
	composer, err := email.NewComposer(security.NewContentSanitizer())
	if err != nil {
		return fmt.Errorf("failed to build email templates: %w", err)
	}

	// 5. ドメインサービス
	subService := subscription.NewService(subscription.Deps{
		Repo:     repository.NewPostgresSubscriptionRepo(db),
		Sender:   sender,
		Composer: composer,
		BaseURL:  cfg.BaseURL,
		Logger:   log,
		Metrics:  collector,
	})
	accountService := account.NewService(repository.NewPostgresAccountRepo(db), log)

	// 6. ルーター
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:              log,
		Metrics:             collector,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		DB:                  db,
		SubscriptionService: subService,
		AccountService:      accountService,
	})

	apiServer := &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr(),
		Handler:           metrics.SetupMetricsRoute(registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return serveHTTP(ctx, log, apiServer, metricsServer)
}

// serveHTTP は複数のHTTPサーバーを起動し、ctxの終了またはいずれかの失敗で全てを停止する。
func serveHTTP(ctx context.Context, log *slog.Logger, servers ...*http.Server) error {
	listeners := make([]net.Listener, 0, len(servers))
	for _, srv := range servers {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			for _, opened := range listeners {
				opened.Close()
			}
			return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
		}
		listeners = append(listeners, ln)
	}

	g, gctx := errgroup.WithContext(ctx)

	for i, srv := range servers {
		ln := listeners[i]
		g.Go(func() error {
			log.Info("HTTP server starting", slog.String("addr", ln.Addr().String()))
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server on %s failed: %w", ln.Addr(), err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down HTTP servers...")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(sctx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("HTTP servers stopped gracefully")
	return nil
}

// newSender はEMAIL_PROVIDERに応じたSenderを生成し、送信レート制限を掛ける。
func newSender(ctx context.Context, cfg *config.Config, log *slog.Logger) (email.Sender, error) {
	var sender email.Sender
	switch cfg.EmailProvider {
	case config.EmailProviderSES:
		ses, err := email.NewSESSender(ctx, cfg.AWSRegion, cfg.EmailSender, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create ses sender: %w", err)
		}
		sender = ses
	default:
		sender = email.NewAPIClient(email.APIClientConfig{
			BaseURL:   cfg.EmailBaseURL,
			Sender:    cfg.EmailSender,
			AuthToken: cfg.EmailAuthToken,
			Timeout:   cfg.EmailTimeout,
		}, log)
	}
	return email.NewThrottledSender(sender, cfg.EmailMaxPerSecond), nil
}

// runMigrate はmigrateサブコマンドの操作を実行する。
// upは未適用分をすべて適用し、downは直近の1つを戻し、statusは現在のバージョンを表示するだけ。
func runMigrate(cfg *config.Config, log *slog.Logger, action MigrateAction) error {
	log.Info("running database migrations",
		slog.String("action", string(action)),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	var (
		status database.MigrationStatus
		err    error
	)
	switch action {
	case MigrateDown:
		status, err = database.RollbackMigration(cfg.DatabaseURL, log)
	case MigrateStatus:
		status, err = database.CurrentStatus(cfg.DatabaseURL)
	default:
		status, err = database.RunMigrations(cfg.DatabaseURL, log)
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", action, err)
	}

	log.Info("database migrations completed",
		slog.String("action", string(action)),
		slog.Uint64("version", uint64(status.Version)),
		slog.Bool("dirty", status.Dirty),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health_check エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	return checkHealth(fmt.Sprintf("http://localhost:%s/health_check", port))
}

func checkHealth(target string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
