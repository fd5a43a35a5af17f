// Package server wires the relay components together and runs the HTTP
// surface: the Telegram webhook, the WeCom callback endpoints, health
// checks and metrics.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-telegram/bot"

	appconfig "github.com/lewisedginton/support_relay/internal/config"
	"github.com/lewisedginton/support_relay/internal/relay"
	"github.com/lewisedginton/support_relay/internal/storage"
	"github.com/lewisedginton/support_relay/internal/store"
	"github.com/lewisedginton/support_relay/internal/translate"
	"github.com/lewisedginton/support_relay/internal/wecom"
	"github.com/lewisedginton/support_relay/pkg/health"
	"github.com/lewisedginton/support_relay/pkg/health/checkers"
	"github.com/lewisedginton/support_relay/pkg/logger"
	"github.com/lewisedginton/support_relay/pkg/metrics"
)

// Server encapsulates all relay components and lifecycle management.
type Server struct {
	cfg     *appconfig.AppConfig
	log     logger.Logger
	bot     *bot.Bot
	engine  *relay.Engine
	store   *store.Store
	crypto  *wecom.Crypto
	metrics metrics.Metrics
	health  *health.HealthChecker
	cancel  context.CancelFunc
}

// New creates a Server with all components initialized.
func New(ctx context.Context, cfg *appconfig.AppConfig, log logger.Logger) (*Server, error) {
	s := &Server{
		cfg: cfg,
		log: log,
	}

	provider, err := s.createFileProvider(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage provider: %w", err)
	}
	s.store = store.New(provider, cfg.Storage.StateFile, cfg.Relay.RouteIndexCapacity, log)

	if !cfg.Telegram.Enabled() {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	s.bot, err = bot.New(cfg.Telegram.BotToken, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	var wecomSender relay.WeComSender
	if cfg.WeCom.Enabled() {
		wecomSender = wecom.NewClient(cfg.WeCom.CorpID, cfg.WeCom.CorpSecret, cfg.WeCom.AgentID, log)
	} else {
		log.Info("WeCom outbound client disabled (missing WECOM_CORP_ID or WECOM_CORP_SECRET)")
	}

	if cfg.WeCom.CallbackConfigured() {
		s.crypto, err = wecom.NewCrypto(cfg.WeCom.CallbackToken, cfg.WeCom.EncodingAESKey, cfg.WeCom.CorpID)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize WeCom callback crypto: %w", err)
		}
	} else {
		log.Info("WeCom callback endpoints disabled (missing callback token or AES key)")
	}

	s.metrics = metrics.NewMetrics(cfg.Metrics.EnableHTTPMetrics, true, log)

	s.engine = relay.NewEngine(s.bot, wecomSender, s.store, s.createTranslator(), &s.metrics, log, relay.Options{
		AdminChatID:      cfg.Telegram.AdminChatID,
		AdminLanguage:    cfg.Translate.AdminLanguage,
		AckInterval:      cfg.Relay.AckInterval,
		AckText:          cfg.Relay.AckText,
		TranslateTimeout: cfg.Translate.Timeout,
	})

	s.health = s.createHealthChecker()

	return s, nil
}

// Run starts the HTTP servers and blocks until shutdown.
func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	defer cancel()

	s.setupGracefulShutdown()

	if err := s.registerWebhook(ctx); err != nil {
		return err
	}

	if s.cfg.Metrics.ExposeMetrics {
		go func() {
			if err := s.metrics.Listen(ctx, s.cfg.Metrics.Port); err != nil {
				s.log.Error("Metrics server failed", logger.ErrorField(err))
			}
		}()
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.HTTP.Port),
		Handler:      s.buildRouter(),
		ReadTimeout:  s.cfg.HTTP.ReadTimeout(),
		WriteTimeout: s.cfg.HTTP.WriteTimeout(),
		IdleTimeout:  s.cfg.HTTP.IdleTimeout(),
	}

	go func() {
		s.log.Info("Relay server listening", logger.IntField("port", s.cfg.HTTP.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("HTTP server failed", logger.ErrorField(err))
			cancel()
		}
	}()

	<-ctx.Done()
	s.log.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second) //nolint:contextcheck // New context needed for shutdown
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil { //nolint:contextcheck // Using new context for graceful shutdown
		s.log.Error("HTTP server shutdown error", logger.ErrorField(err))
		return err
	}

	s.log.Info("Server stopped")
	return nil
}

// registerWebhook points the Telegram webhook at this deployment if a public
// base URL is configured. Without one, deliveries are expected to arrive via
// an externally managed webhook or a tunnel.
func (s *Server) registerWebhook(ctx context.Context) error {
	if s.cfg.Telegram.WebhookBaseURL == "" {
		s.log.Info("No webhook base URL configured, skipping webhook registration")
		return nil
	}
	url := fmt.Sprintf("%s/telegram/%s", s.cfg.Telegram.WebhookBaseURL, s.cfg.Telegram.WebhookSecret)
	ok, err := s.bot.SetWebhook(ctx, &bot.SetWebhookParams{URL: url})
	if err != nil {
		return fmt.Errorf("failed to register Telegram webhook: %w", err)
	}
	if !ok {
		return fmt.Errorf("telegram webhook registration was not confirmed")
	}
	s.log.Info("Telegram webhook registered", logger.StringField("base_url", s.cfg.Telegram.WebhookBaseURL))
	return nil
}

// createFileProvider creates the storage backend for the state file.
func (s *Server) createFileProvider(ctx context.Context) (storage.FileProvider, error) {
	cfg := &s.cfg.Storage

	switch cfg.Backend {
	case "local":
		s.log.Info("Using local file-based storage", logger.StringField("directory", cfg.LocalDir))

		if err := os.MkdirAll(cfg.LocalDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
		return storage.NewProvider(storage.Config{
			Backend:     storage.BackendLocal,
			LocalConfig: &storage.LocalConfig{BaseDir: cfg.LocalDir},
		})

	case "s3":
		s.log.Info("Using S3-based storage",
			logger.StringField("bucket", cfg.S3Bucket),
			logger.StringField("prefix", cfg.S3Prefix),
			logger.StringField("region", cfg.S3Region))

		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3 bucket is required when using S3 storage")
		}

		configOptions := []func(*awsconfig.LoadOptions) error{}
		if cfg.S3Profile != "" {
			configOptions = append(configOptions, awsconfig.WithSharedConfigProfile(cfg.S3Profile))
		}
		if cfg.S3Region != "" {
			configOptions = append(configOptions, awsconfig.WithRegion(cfg.S3Region))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		return storage.NewProvider(storage.Config{
			Backend: storage.BackendS3,
			S3Config: &storage.S3Config{
				Bucket: cfg.S3Bucket,
				Prefix: cfg.S3Prefix,
				Client: s3.NewFromConfig(awsCfg),
			},
		})

	default:
		return nil, fmt.Errorf("unsupported storage backend: %s (must be 'local' or 's3')", cfg.Backend)
	}
}

// createTranslator builds the ordered fallback chain from configuration.
// Backends without credentials are skipped.
func (s *Server) createTranslator() *translate.Gateway {
	cfg := &s.cfg.Translate
	var chain []translate.Translator
	for _, name := range cfg.Backends {
		switch name {
		case "openai":
			if cfg.OpenAIAPIKey != "" {
				chain = append(chain, translate.NewOpenAITranslator(cfg.OpenAIAPIKey, cfg.OpenAIModel))
			}
		case "anthropic":
			if cfg.AnthropicAPIKey != "" {
				chain = append(chain, translate.NewAnthropicTranslator(cfg.AnthropicAPIKey, cfg.AnthropicModel))
			}
		}
	}
	if len(chain) == 0 {
		s.log.Info("Translation disabled (no backend credentials configured)")
	} else {
		s.log.Info("Translation chain configured", logger.IntField("backends", len(chain)))
	}
	return translate.NewGateway(s.log, chain...)
}

// createHealthChecker wires liveness and readiness checks.
func (s *Server) createHealthChecker() *health.HealthChecker {
	checker := health.New(
		health.WithLogger(s.log),
		health.WithTimeout(s.cfg.Health.Timeout),
		health.WithFailureThreshold(s.cfg.Health.FailureThreshold),
	)

	// Readiness requires the state snapshot to be loadable and savable.
	checker.AddReadinessCheck(health.NewCheckFunc("state_store", func(ctx context.Context) error {
		state := s.store.Load(ctx)
		return s.store.Save(ctx, state)
	}))

	checker.AddReadinessCheck(checkers.NewHTTPChecker("https://api.telegram.org", "telegram_api"))
	if s.cfg.WeCom.Enabled() {
		checker.AddReadinessCheck(checkers.NewHTTPChecker("https://qyapi.weixin.qq.com", "wecom_api"))
	}

	return checker
}

// setupGracefulShutdown sets up signal handling for graceful shutdown.
func (s *Server) setupGracefulShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		s.log.Info("Received shutdown signal", logger.StringField("signal", sig.String()))

		if s.cancel != nil {
			s.cancel()
		}

		time.AfterFunc(30*time.Second, func() {
			s.log.Warn("Force exiting due to timeout")
			os.Exit(1)
		})
	}()
}
