package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"premarket-sentiment/internal/pipeline/config"
	"premarket-sentiment/internal/pipeline/repository"
	"premarket-sentiment/internal/pipeline/service"
	"premarket-sentiment/pkg/cache"
	"premarket-sentiment/pkg/logger"
	"premarket-sentiment/pkg/postgres"
	"premarket-sentiment/pkg/redis"
	"premarket-sentiment/pkg/telegram"

	"google.golang.org/genai"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the pipeline once over the configured window",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		app := mustBuildApp()
		defer app.close()

		result, err := app.engine.Run(ctx)
		if err != nil {
			app.log.Fatal("Pipeline run failed", zap.Error(err))
		}
		if !result.Report.Passed() {
			app.log.Error("Pipeline run finished with validation failures")
			os.Exit(1)
		}
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on the configured cron expression",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		app := mustBuildApp()
		defer app.close()

		c := cron.New()
		_, err := c.AddFunc(app.cfg.Schedule.Cron, func() {
			if _, err := app.engine.Run(ctx); err != nil {
				app.log.Error("Scheduled pipeline run failed", zap.Error(err))
			}
		})
		if err != nil {
			app.log.Fatal("Invalid cron expression",
				zap.String("cron", app.cfg.Schedule.Cron), zap.Error(err))
		}
		c.Start()
		app.log.Info("Scheduler started", zap.String("cron", app.cfg.Schedule.Cron))

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		app.log.Info("Shutting down scheduler...")
		cancel()
		<-c.Stop().Done()
		app.log.Info("Scheduler stopped.")
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [csv]",
	Short: "Re-run validation checks against a written result CSV",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := mustBuildApp()
		defer app.close()

		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		report, err := app.engine.ValidateFile(path)
		if err != nil {
			app.log.Fatal("Validation failed to run", zap.Error(err))
		}
		for _, line := range report.Summaries() {
			fmt.Println(line)
		}
		if !report.Passed() {
			os.Exit(1)
		}
	},
}

// app bundles the wired pipeline and the resources to release on exit.
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	engine *service.Engine
	store  cache.Store
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("Failed to close cache store", zap.Error(err))
	}
	_ = a.log.Sync()
}

func mustBuildApp() *app {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLogger.Info("Starting pre-market sentiment pipeline", zap.String("name", cfg.App.Name))

	// Response cache: Redis when configured, in-process otherwise.
	var store cache.Store
	if cfg.Redis.Host != "" {
		redisClient, err := redis.NewClient(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Redis", zap.Error(err))
		}
		store = cache.NewRedisStore(redisClient.Client, appLogger, cfg.App.Name)
	} else {
		appLogger.Warn("Redis not configured, using in-process cache")
		store = cache.NewMemoryStore()
	}

	// Optional Postgres sink.
	var rowRepo repository.PipelineRowRepository
	if cfg.Database.Host != "" {
		db, err := postgres.NewDB(postgres.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			DBName:          cfg.Database.DBName,
			SSLMode:         cfg.Database.SSLMode,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize database", zap.Error(err))
		}
		rowRepo = repository.NewPipelineRowRepository(db.DB)
	}

	// Optional Telegram notifier.
	var notifier telegram.Notifier
	if cfg.Telegram.BotToken != "" {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", zap.Error(err))
		}
	}

	yahooRepo := repository.NewYahooFinanceRepository(cfg, appLogger)

	// News fallback chain in priority order.
	providers := []repository.NewsRepository{repository.NewGoogleNewsRepository(cfg, appLogger)}
	if cfg.NewsData.APIKey != "" {
		providers = append(providers, repository.NewNewsDataRepository(cfg, appLogger))
	}

	// The Gemini client is built lazily so placeholder-only runs never
	// need an API key.
	newClassifier := func(ctx context.Context) (repository.SentimentRepository, error) {
		genAiClient, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.Gemini.APIKey})
		if err != nil {
			return nil, err
		}
		return repository.NewGeminiAIRepository(cfg, appLogger, genAiClient)
	}

	engine := service.NewEngine(
		cfg,
		appLogger,
		service.NewMarketSeriesResolver(cfg, appLogger, yahooRepo, store),
		service.NewHeadlineResolver(cfg, appLogger, store, providers...),
		service.NewSentimentScorer(appLogger, newClassifier),
		service.NewRowValidator(appLogger),
		service.NewOutputWriter(cfg.Pipeline.OutputDir, appLogger),
		rowRepo,
		notifier,
	)

	return &app{cfg: cfg, log: appLogger, engine: engine, store: store}
}

func main() {
	rootCmd := &cobra.Command{Use: "pipeline"}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(runCmd, scheduleCmd, validateCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing pipeline CLI: %s\n", err)
		os.Exit(1)
	}
}
