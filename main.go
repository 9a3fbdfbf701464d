package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"spotTargetBot/config"
	"spotTargetBot/internal/adapters/binanceclient"
	"spotTargetBot/internal/adapters/logger"
	"spotTargetBot/internal/adapters/sqlite"
	"spotTargetBot/internal/adapters/telegram"
	"spotTargetBot/internal/engine"
	"spotTargetBot/internal/metrics"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Trade Journal (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize trade journal: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing trade journal")
		}
	}()

	// 4. Initialize Exchange Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}
	if err := binanceClient.Ping(context.Background()); err != nil {
		log.Fatalf("FATAL: Failed to reach Binance API: %v", err)
	}

	// 5. Initialize Telegram Client and Notifier
	tgClient := telegram.NewClient(cfg.TelegramToken)
	notifier := telegram.NewNotifier(tgClient, cfg.TelegramChatID)

	// 6. Initialize Position Engine
	eng, err := engine.New(cfg, appLogger, binanceClient, binanceClient, notifier, repo)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize position engine: %v", err)
	}
	appLogger.Info(context.Background(), "Position engine initialized", map[string]interface{}{
		"symbol":       cfg.Symbol,
		"targetProfit": cfg.TargetProfitPercent,
		"amount":       cfg.Amount,
		"unit":         cfg.AmountUnit,
		"pollInterval": cfg.PollInterval.String(),
	})

	// 7. Initialize Command Front End
	bot, err := telegram.NewCommandBot(tgClient, cfg.TelegramChatID, eng, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize command bot: %v", err)
	}

	// 8. Serve metrics when configured
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			appLogger.Info(context.Background(), "Metrics endpoint listening", map[string]interface{}{"addr": cfg.MetricsAddr})
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				appLogger.Error(context.Background(), err, "Metrics endpoint stopped")
			}
		}()
	}

	// 9. Run until interrupted
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLogger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	if err := bot.Run(ctx); err != nil {
		log.Fatalf("FATAL: Command bot exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
