package main

import (
	"context"
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/joho/godotenv"

	chatcore "github.com/atopos-hq/chatcore"
	botpkg "github.com/atopos-hq/chatcore/internal/bot"
	"github.com/atopos-hq/chatcore/internal/config"
	"github.com/atopos-hq/chatcore/internal/repository"
	"github.com/atopos-hq/chatcore/internal/service"
	"github.com/atopos-hq/chatcore/internal/workflow"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if cfg.BotToken == "" {
		slog.Error("BOT_TOKEN is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	migrationsFS, err := fs.Sub(chatcore.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	doc, err := loadWorkflowDoc(cfg.WorkflowDocPath)
	if err != nil {
		slog.Error("failed to load workflow document", "error", err, "path", cfg.WorkflowDocPath)
		os.Exit(1)
	}

	queries := repository.New(pool)
	historyService := service.NewChatHistoryService(queries)
	workflowService := service.NewWorkflowService(workflow.NewHTTPRunner(cfg.WorkflowTimeout))

	opts := []bot.Option{
		bot.WithMiddlewares(
			botpkg.Recover(),
			botpkg.Logging(),
		),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}

	h := botpkg.New(botpkg.Deps{
		Bot:         b,
		Cfg:         cfg,
		History:     historyService,
		Workflows:   workflowService,
		WorkflowDoc: doc,
		BotUsername: me.Username,
	})
	h.Register()

	slog.Info("starting bot", "username", me.Username, "id", me.ID)
	b.Start(ctx)

	slog.Info("bot stopped gracefully")
}

func loadWorkflowDoc(path string) (*workflow.Definition, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc workflow.Definition
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
