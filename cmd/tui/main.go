package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/2beens/blogbox/internal/blog"
	"github.com/2beens/blogbox/internal/config"
	"github.com/2beens/blogbox/internal/db"
	"github.com/2beens/blogbox/internal/kvstore"
	"github.com/2beens/blogbox/internal/logging"
	"github.com/2beens/blogbox/internal/telemetry/metrics"
	"github.com/2beens/blogbox/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const defaultLogsPath = "blogbox-tui.log"

var (
	env        string
	configPath string
	envFile    string
	logsPath   string
	backend    string
)

var rootCmd = &cobra.Command{
	Use:   "blogbox-tui",
	Short: "blogbox in the terminal",
	Long: `Terminal front end of blogbox.

Lists, opens, creates, edits and deletes blog posts stored in the same
key-value store the web service uses.

Keys: a add, enter open, e edit, d delete, y/n confirm, b/esc back,
ctrl+s save, 1-4 mood, q quit.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file [%s]: %w", envFile, err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment [prod | production | dev | development | ddev | dockerdev ]")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./config.toml", "path for the TOML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "envfile", ".env", "optional .env file with secrets")
	rootCmd.Flags().StringVar(&logsPath, "logs", "", "log file (logs never go to the terminal), defaults to "+defaultLogsPath)
	rootCmd.Flags().StringVar(&backend, "backend", "", "override the configured storage backend [disk | redis | postgres | memory]")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(env, configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if backend != "" {
		cfg.StorageBackend = backend
	}

	if logsPath == "" {
		logsPath = defaultLogsPath
	}
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   logsPath,
		LogToStdout:   false,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormatJSON,
		Environment:   cfg.Environment,
	})

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	metricsManager := metrics.NewManager("blogbox", "tui", prometheus.NewRegistry())
	repo := blog.NewRepo(
		blog.NewStorage(store, cfg.StorageKey, metricsManager),
		cfg.DateLayout,
		metricsManager,
	)

	log.Infof("starting tui, [%s] storage backend", cfg.StorageBackend)
	model := tui.NewModel(ctx, repo, cfg.BannerDelay, metricsManager)
	return tui.Run(ctx, model, tea.WithAltScreen())
}

func openStore(ctx context.Context, cfg *config.Config) (kvstore.Store, func(), error) {
	noop := func() {}

	switch cfg.StorageBackend {
	case config.StorageBackendDisk:
		store, err := kvstore.NewDiskStore(cfg.DiskStoreRoot)
		if err != nil {
			return nil, nil, fmt.Errorf("new disk store: %w", err)
		}
		return store, noop, nil
	case config.StorageBackendRedis:
		if cfg.RedisHost == "" || cfg.RedisPort == "" {
			return nil, nil, errors.New("redis storage backend, but redis not configured")
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return kvstore.NewRedisStore(rdb), func() {
			if err := rdb.Close(); err != nil {
				log.Errorf("close redis client: %s", err)
			}
		}, nil
	case config.StorageBackendPostgres:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost: cfg.PostgresHost,
			DBPort: cfg.PostgresPort,
			DBName: cfg.PostgresDBName,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("new db pool: %w", err)
		}
		store := kvstore.NewPostgresStore(dbPool)
		if err := store.EnsureSchema(ctx); err != nil {
			dbPool.Close()
			return nil, nil, fmt.Errorf("ensure kv store schema: %w", err)
		}
		return store, dbPool.Close, nil
	case config.StorageBackendMemory:
		return kvstore.NewMemoryStore(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}
