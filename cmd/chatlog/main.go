package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tgarchive/chatlog/internal/biz/usecase"
	"github.com/tgarchive/chatlog/internal/conf"
	"github.com/tgarchive/chatlog/internal/data"
	"github.com/tgarchive/chatlog/internal/logger"
	"github.com/tgarchive/chatlog/internal/mcp"
	"github.com/tgarchive/chatlog/internal/server"
)

// Set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load .env file
	envErr := godotenv.Load()

	cfg, err := conf.LoadFromEnv()
	if err != nil {
		logger.Root().Fatal("Failed to load config", "err", err)
	}
	if err := logger.Setup(cfg.Log.Level, cfg.Log.TZ); err != nil {
		logger.Root().Fatal("Invalid logging config", "err", err)
	}
	if envErr != nil {
		logger.Root().Debug("No .env file found, using environment variables")
	}

	root := &cobra.Command{
		Use:           "chatlog",
		Short:         "Capture chat events into a durable message log",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.AddCommand(
		newRunCmd(cfg),
		newMCPCmd(cfg),
		newAdminLogCmd(cfg),
		newSessionsCmd(cfg),
		newSchemaCmd(cfg),
		newVersionCmd(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		cancel()
		logger.Root().Fatal(err)
	}
}

func validate(cfg *conf.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func newRunCmd(cfg *conf.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the logging daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validate(cfg); err != nil {
				return err
			}
			log := logger.For("Chatlog")
			ctx := cmd.Context()

			repos, err := data.NewRepositories(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to create repositories: %w", err)
			}
			log.Info("Store ready", "driver", cfg.Store.Driver)
			if cfg.Feishu.Enabled() {
				log.Info("Feishu notifications enabled", "chat", cfg.Feishu.NotifyChatID)
			}

			srv := server.NewServer(repos.Gateway, repos.Log, repos.Notifier, cfg.Schedule, cfg.API.Port)
			if err := srv.Start(ctx); err != nil {
				repos.Log.Close()
				return err
			}
			log.Info("Started", "api", cfg.API.URL, "chats", len(cfg.Schedule.ChatIDs))

			select {
			case <-ctx.Done():
			case <-srv.Done():
				log.Warn("Gateway exited")
			}
			srv.Stop()
			return nil
		},
	}
}

func newMCPCmd(cfg *conf.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the log query tools over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.For("MCP").Info("Serving", "api", cfg.API.URL)
			return mcp.ServeStdio(cmd.Context(), cfg.API.URL, version)
		},
	}
}

// withGateway opens the store, starts the gateway and runs fn
func withGateway(ctx context.Context, cfg *conf.Config, fn func(*data.Repositories) error) error {
	if err := validate(cfg); err != nil {
		return err
	}
	repos, err := data.NewRepositories(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create repositories: %w", err)
	}
	defer repos.Log.Close()

	if err := repos.Gateway.Start(ctx); err != nil {
		return fmt.Errorf("failed to start gateway: %w", err)
	}
	defer repos.Gateway.Stop()

	return fn(repos)
}

func newAdminLogCmd(cfg *conf.Config) *cobra.Command {
	var chats []int64

	cmd := &cobra.Command{
		Use:   "adminlog",
		Short: "Sync the admin log of the monitored chats once",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(chats) == 0 {
				chats = cfg.Schedule.ChatIDs
			}
			if len(chats) == 0 {
				return fmt.Errorf("no chats: set TELEGRAM_CHAT_IDS or pass --chat")
			}
			return withGateway(cmd.Context(), cfg, func(repos *data.Repositories) error {
				uc := usecase.NewAdminLogUsecase(repos.Gateway, repos.Log, cfg.Schedule.ToAdminLogConfig())
				return printJSON(cmd, uc.SyncAll(cmd.Context(), chats))
			})
		},
	}
	cmd.Flags().Int64SliceVar(&chats, "chat", nil, "chat id to sync (repeatable, overrides TELEGRAM_CHAT_IDS)")
	return cmd
}

func newSessionsCmd(cfg *conf.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "Store a snapshot of the account's authorized sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGateway(cmd.Context(), cfg, func(repos *data.Repositories) error {
				uc := usecase.NewSessionUsecase(repos.Gateway, repos.Log)
				n, err := uc.Snapshot(cmd.Context(), repos.Gateway.SelfID())
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]int{"rows": n})
			})
		},
	}
}

func newSchemaCmd(cfg *conf.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create missing tables in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validate(cfg); err != nil {
				return err
			}
			store, err := data.NewStore(cmd.Context(), cfg.Store)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			logger.For("Store").Info("Schema ready", "driver", cfg.Store.Driver)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
