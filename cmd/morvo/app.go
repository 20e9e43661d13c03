package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kitbuilder587/morvo/internal/agent"
	"github.com/kitbuilder587/morvo/internal/cache"
	cacheMemory "github.com/kitbuilder587/morvo/internal/cache/memory"
	cacheRedis "github.com/kitbuilder587/morvo/internal/cache/redis"
	"github.com/kitbuilder587/morvo/internal/config"
	"github.com/kitbuilder587/morvo/internal/cultural"
	"github.com/kitbuilder587/morvo/internal/llm"
	llmMock "github.com/kitbuilder587/morvo/internal/llm/mock"
	"github.com/kitbuilder587/morvo/internal/llm/openai"
	"github.com/kitbuilder587/morvo/internal/metrics"
	"github.com/kitbuilder587/morvo/internal/perplexity"
	"github.com/kitbuilder587/morvo/internal/ratelimit"
	"github.com/kitbuilder587/morvo/internal/repository"
	"github.com/kitbuilder587/morvo/internal/repository/memory"
	"github.com/kitbuilder587/morvo/internal/repository/postgres"
	"github.com/kitbuilder587/morvo/internal/repository/sqlite"
	"github.com/kitbuilder587/morvo/internal/seranking"
	"github.com/kitbuilder587/morvo/internal/service"
)

// app - собранный граф зависимостей процесса
type app struct {
	metrics       *metrics.Metrics
	store         *repository.Store
	cache         cache.Cache
	registry      *agent.Registry
	limiter       *ratelimit.Limiter
	chat          *service.ChatService
	conversations *service.ConversationService
	profiles      *service.ProfileService
	history       *service.BacklinkHistoryService
	logger        *zap.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) (*app, error) {
	a := &app{
		metrics: metrics.New(reg),
		logger:  logger,
	}

	store, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a.store = store

	c, err := openCache(ctx, cfg.Redis, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.cache = c

	classifier := agent.NewClassifier()
	if cfg.Intent.KeywordsPath != "" {
		classifier, err = agent.LoadClassifier(cfg.Intent.KeywordsPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		logger.Info("intent keywords loaded", zap.String("path", cfg.Intent.KeywordsPath))
	}

	registry, err := newRegistry(cfg, c, store.Backlinks, a.metrics, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.registry = registry

	a.conversations = service.NewConversationService(store.Conversations, a.metrics, logger.Named("conversations"))
	a.profiles = service.NewProfileService(store.Profiles, c, cfg.Cache.ProfileTTL, logger.Named("profiles"))
	a.history = service.NewBacklinkHistoryService(store.Backlinks, domainAnalyzer(registry))

	coordinator := agent.NewCoordinator(
		classifier,
		registry,
		cultural.NewAdapter(nil),
		a.conversations,
		a.profiles,
		agent.CoordinatorConfig{
			SpecialistTimeout: cfg.Timeouts.Specialist,
			TotalTimeout:      cfg.Timeouts.Total,
			Observer:          a.metrics,
		},
		logger.Named("coordinator"),
	)

	a.limiter = ratelimit.New(ratelimit.Config{RequestsPerMinute: cfg.RateLimit.RequestsPerMinute})
	a.chat = service.NewChatService(service.ChatServiceDeps{
		Coordinator: coordinator,
		Limiter:     a.limiter,
		Metrics:     a.metrics,
		Logger:      logger.Named("chat"),
	})

	return a, nil
}

// Close отпускает ресурсы в обратном порядке. Адаптеры дожидаются фоновой записи истории до закрытия хранилища.
func (a *app) Close() {
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.registry != nil {
		if err := a.registry.Close(); err != nil {
			a.logger.Warn("failed to close specialists", zap.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close cache", zap.Error(err))
		}
	}
	if a.store != nil {
		a.store.Close()
	}
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*repository.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("postgres store ready")
		return db.Store(), nil
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info("sqlite store ready", zap.String("path", cfg.URL))
		return db.Store(), nil
	case config.DriverMemory:
		logger.Warn("using in-memory store, conversations are lost on restart")
		return memory.NewStore(), nil
	}
	return nil, config.ErrInvalidDriver
}

// openCache: redis если задан адрес, иначе кеш в памяти процесса
func openCache(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (cache.Cache, error) {
	if cfg.Addr == "" {
		return cacheMemory.New(), nil
	}

	c := cacheRedis.New(cacheRedis.Config{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := c.Ping(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("redis cache ready", zap.String("addr", cfg.Addr))
	return c, nil
}

// newRegistry регистрирует специалистов, для которых есть ключи.
// Незарегистрированный специалист отвечает координатору ошибкой not configured.
func newRegistry(cfg *config.Config, c cache.Cache, history agent.HistoryRecorder, m *metrics.Metrics, logger *zap.Logger) (*agent.Registry, error) {
	var adapters []agent.Adapter

	if cfg.Perplexity.APIKey != "" {
		client := perplexity.New(perplexity.Config{
			APIKey:  cfg.Perplexity.APIKey,
			Model:   cfg.Perplexity.Model,
			BaseURL: cfg.Perplexity.BaseURL,
			Timeout: cfg.Perplexity.Timeout,
		}, logger.Named("perplexity"))
		adapters = append(adapters, agent.NewWebIntelAdapter(client, agent.WebIntelConfig{
			Cache:    c,
			CacheTTL: cfg.Cache.PayloadTTL,
			Observer: m,
		}, logger.Named("web_intelligence")))
	} else {
		logger.Warn("PERPLEXITY_API_KEY not set, web intelligence disabled")
	}

	if cfg.SERanking.APIKey != "" {
		client := seranking.New(seranking.Config{
			APIKey:            cfg.SERanking.APIKey,
			BaseURL:           cfg.SERanking.BaseURL,
			Timeout:           cfg.SERanking.Timeout,
			RequestsPerSecond: cfg.SERanking.RequestsPerSecond,
		}, logger.Named("seranking"))
		adapters = append(adapters, agent.NewBacklinkAdapter(client, agent.BacklinkConfig{
			History:  history,
			Cache:    c,
			CacheTTL: cfg.Cache.PayloadTTL,
			Observer: m,
		}, logger.Named("backlink")))
	} else {
		logger.Warn("SERANKING_API_KEY not set, backlink analysis disabled")
	}

	adapters = append(adapters, agent.NewSynthesisAdapter(newLLM(cfg.LLM, logger), logger.Named("data_synthesis")))

	return agent.NewRegistry(adapters...)
}

func newLLM(cfg config.LLMConfig, logger *zap.Logger) llm.Client {
	if cfg.Provider == "mock" {
		logger.Warn("LLM_PROVIDER=mock, synthesis returns canned output")
		return llmMock.New()
	}
	return openai.New(openai.Config{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	}, logger.Named("llm"))
}

// domainAnalyzer - адаптер ссылок, если SE Ranking настроен, иначе nil
func domainAnalyzer(reg *agent.Registry) service.DomainAnalyzer {
	a, ok := reg.Get(agent.Backlink)
	if !ok {
		return nil
	}
	b, ok := a.(*agent.BacklinkAdapter)
	if !ok {
		return nil
	}
	return b
}
