package main

import (
	"coachteam/internal/chat"
	"coachteam/internal/classifier"
	coachconfig "coachteam/internal/config"
	"coachteam/internal/routing"
	"coachteam/pkg/config"
	"coachteam/pkg/database"
	"coachteam/pkg/llm"
	"coachteam/pkg/logging"
	"coachteam/pkg/monitoring"
	"coachteam/pkg/server"
	"coachteam/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("coachteam")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting CoachTeam (multi-specialist coaching chat)")

	cfg := coachconfig.LoadConfig()

	// Connect to database
	dbConfig := database.DefaultConfig()
	dbConfig.URL = cfg.DatabaseURL
	db := database.MustConnect(dbConfig, logger)
	defer func() { _ = db.Close() }()

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("coachteam", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("coachteam", version.Version, version.GitCommit)

	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
	}))

	lexicons, err := classifier.LoadLexicons(cfg.LexiconsPath)
	if err != nil {
		logger.WithError(err).WithField("path", cfg.LexiconsPath).Fatal("Failed to load lexicons")
	}
	engine := routing.NewEngine(classifier.NewLexical(lexicons))

	llmProvider, err := llm.NewProvider(llm.Config{
		Provider:  cfg.LLMProvider,
		Model:     cfg.LLMModel,
		APIKey:    cfg.LLMAPIKey,
		APIURL:    cfg.LLMAPIURL,
		MaxTokens: cfg.LLMMaxTokens,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize LLM provider")
	}

	store := chat.NewThreadStore(db)
	orchestrator := chat.NewOrchestrator(chat.OrchestratorConfig{
		Store:             store,
		Engine:            engine,
		Provider:          llmProvider,
		Logger:            logger,
		HistoryLimit:      cfg.MaxHistoryMessages,
		CompletionTimeout: cfg.CompletionTimeout,
	})
	handler := chat.NewHandler(orchestrator, logger)

	// Setup router with unified monitoring (health/metrics only)
	router := server.SetupServiceRouter(logger, "coachteam", healthChecker, metricsCollector)
	apiGroup := router.Group("/api/coach")
	chat.RegisterRoutes(apiGroup, handler)

	// Start HTTP server with graceful shutdown
	serverConfig := server.DefaultConfig("coachteam", cfg.Port)
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}
