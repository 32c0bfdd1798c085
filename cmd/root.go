package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	zone "github.com/lrstanley/bubblezone"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"

	"github.com/clientflow/clientflow/internal/api"
	"github.com/clientflow/clientflow/internal/app"
	"github.com/clientflow/clientflow/internal/cachemanager"
	"github.com/clientflow/clientflow/internal/config"
	"github.com/clientflow/clientflow/internal/infrastructure/sqlite"
	"github.com/clientflow/clientflow/internal/log"
	"github.com/clientflow/clientflow/internal/lookup"
	"github.com/clientflow/clientflow/internal/mode"
	"github.com/clientflow/clientflow/internal/registry"
	"github.com/clientflow/clientflow/internal/session"
	"github.com/clientflow/clientflow/internal/tracing"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

// envPrefix namespaces environment overrides, e.g. CLIENTFLOW_API_BASE_URL.
const envPrefix = "CLIENTFLOW"

var (
	version   = "dev"
	cfgFile   string
	envFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:     "clientflow",
	Short:   "A terminal client registry",
	Long:    `ClientFlow CRM manages a client registry kept in a REST collection, with postal code address lookup and a sign-in gate.`,
	Version: version,
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/clientflow/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env",
		"dotenv file loaded before the configuration")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write a debug log and enable the log viewer (ctrl+x)")
	rootCmd.Flags().String("api-url", "",
		"origin of the client collection API (overrides api.base_url)")
	rootCmd.Flags().String("lookup-url", "",
		"postal code lookup endpoint (overrides lookup.base_url)")

	_ = viper.BindPFlag("api.base_url", rootCmd.Flags().Lookup("api-url"))
	_ = viper.BindPFlag("lookup.base_url", rootCmd.Flags().Lookup("lookup-url"))
}

func initConfig() {
	// A missing .env is the normal case.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "warning: reading %s: %v\n", envFile, err)
	}

	setDefaults(viper.GetViper(), config.Defaults())

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .clientflow/config.yaml (current directory)
		// 2. ~/.config/clientflow/config.yaml (user config)
		if _, err := os.Stat(".clientflow/config.yaml"); err == nil {
			viper.SetConfigFile(".clientflow/config.yaml")
		} else {
			viper.AddConfigPath(config.DefaultDir())
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create the default user config
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if dir := config.DefaultDir(); dir != "" {
				defaultPath := filepath.Join(dir, "config.yaml")
				if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
					viper.SetConfigFile(defaultPath)
					_ = viper.ReadInConfig()
				}
			}
			// If write fails, just continue with defaults (no config file)
		} else {
			fmt.Fprintf(rootCmd.ErrOrStderr(), "warning: reading config: %v\n", err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "warning: decoding config: %v\n", err)
	}
}

// setDefaults registers every key so AutomaticEnv can override keys that
// no config file mentions.
func setDefaults(v *viper.Viper, d config.Config) {
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("lookup.base_url", d.Lookup.BaseURL)
	v.SetDefault("lookup.debounce", d.Lookup.Debounce)
	v.SetDefault("lookup.timeout", d.Lookup.Timeout)
	v.SetDefault("lookup.cache.backend", d.Lookup.Cache.Backend)
	v.SetDefault("lookup.cache.ttl", d.Lookup.Cache.TTL)
	v.SetDefault("lookup.cache.redis_addr", d.Lookup.Cache.RedisAddr)
	v.SetDefault("lookup.cache.redis_db", d.Lookup.Cache.RedisDB)
	v.SetDefault("session.path", d.Session.Path)
	v.SetDefault("session.token_secret", d.Session.TokenSecret)
	v.SetDefault("session.watch", d.Session.Watch)
	v.SetDefault("ui.show_header", d.UI.ShowHeader)
	v.SetDefault("ui.markdown_style", d.UI.MarkdownStyle)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
}

// initDebugLog starts file logging when --debug or CLIENTFLOW_DEBUG is set.
// The returned cleanup is never nil.
func initDebugLog(prefix string) (bool, func(), error) {
	debug := debugFlag || os.Getenv(envPrefix+"_DEBUG") != ""
	if !debug {
		return false, func() {}, nil
	}
	logPath := os.Getenv(envPrefix + "_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}
	cleanup, err := log.InitWithTeaLog(logPath, prefix)
	if err != nil {
		return false, func() {}, fmt.Errorf("initializing logging: %w", err)
	}
	log.Info(log.CatConfig, "Debug logging enabled", "path", logPath, "version", version)
	return true, cleanup, nil
}

func runApp(_ *cobra.Command, _ []string) error {
	debug, cleanupLog, err := initDebugLog("clientflow")
	if err != nil {
		return err
	}
	defer cleanupLog()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Session.Path == "" {
		return errors.New("session.path is required: no home directory to default to")
	}

	provider, err := newTracingProvider(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(ctx)
	}()
	tracer := provider.Tracer()

	db, err := sqlite.NewDB(cfg.Session.Path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	resolver, closeResolver, err := newResolver(cfg.Lookup, tracer)
	if err != nil {
		return err
	}
	defer closeResolver()

	client := api.New(cfg.API.BaseURL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		api.WithTracer(tracer),
	)
	store := registry.New(client)
	defer store.Close()

	services := mode.Services{
		Store:      store,
		Resolver:   resolver,
		Sessions:   session.NewManager(db.LocalStorage(), cfg.Session.TokenSecret),
		Config:     &cfg,
		ConfigPath: configFilePath(),
	}

	zone.NewGlobal()

	model := app.New(services, debug)
	p := tea.NewProgram(
		&model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err = p.Run()

	// Clean up watcher resources
	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

func newTracingProvider(tc config.TracingConfig) (*tracing.Provider, error) {
	filePath := tc.FilePath
	if filePath == "" {
		filePath = config.DefaultTracesFilePath()
	}
	provider, err := tracing.NewProvider(tracing.Config{
		Enabled:      tc.Enabled,
		Exporter:     tc.Exporter,
		FilePath:     filePath,
		OTLPEndpoint: tc.OTLPEndpoint,
		SampleRate:   tc.SampleRate,
		ServiceName:  tracing.DefaultServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	return provider, nil
}

// newResolver builds the postal code resolver with the configured cache in
// front of it. The returned close func releases the cache backend.
func newResolver(lc config.LookupConfig, tracer trace.Tracer) (lookup.Resolver, func(), error) {
	base := lookup.NewHTTPResolver(lc.BaseURL, lc.Timeout, lookup.WithTracer(tracer))

	switch lc.Cache.Backend {
	case config.CacheNone:
		return base, func() {}, nil

	case config.CacheRedis:
		cli := redis.NewClient(&redis.Options{Addr: lc.Cache.RedisAddr, DB: lc.Cache.RedisDB})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cli.Ping(ctx).Err(); err != nil {
			_ = cli.Close()
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", lc.Cache.RedisAddr, err)
		}
		cache := cachemanager.NewRedisCacheManager[string, lookup.Address]("postal-codes", "clientflow:cep:", cli)
		log.Info(log.CatCache, "Postal code cache on redis", "addr", lc.Cache.RedisAddr, "db", lc.Cache.RedisDB)
		return lookup.NewCachedResolver(base, cache, lc.Cache.TTL), func() { _ = cli.Close() }, nil

	default:
		cache := cachemanager.NewInMemoryCacheManager[string, lookup.Address]("postal-codes", lc.Cache.TTL, 10*time.Minute)
		return lookup.NewCachedResolver(base, cache, lc.Cache.TTL), func() {}, nil
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
