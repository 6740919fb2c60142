package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/ai/gemini"
	"github.com/spigell/job-matcher/internal/catalog"
	"github.com/spigell/job-matcher/internal/filtering"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/secrets"
)

const (
	app       = "job-matcher"
	envPrefix = "JOB_MATCHER"

	providerGemini = "gemini"
	providerNone   = "none"
)

type Config struct {
	Catalog catalog.Config     `mapstructure:"catalog"`
	Filters filtering.Criteria `mapstructure:"filters"`
	Server  ServerConfig       `mapstructure:"server"`
	Match   MatchConfig        `mapstructure:"match"`
	AI      *AIConfig          `mapstructure:"ai"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	AdminKey     string `mapstructure:"admin-key"`
	AdminKeyFile string `mapstructure:"admin-key-file"`
}

type MatchConfig struct {
	Limit int `mapstructure:"limit"`
}

type AIConfig struct {
	// Provider is "gemini" or "none". Without an API key the keyword scorer is used.
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string        `mapstructure:"api-key"`
	APIKeyFile   string        `mapstructure:"api-key-file"`
	Model        string        `mapstructure:"model"`
	MaxRetries   int           `mapstructure:"max-retries"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	BatchSize    int           `mapstructure:"batch-size"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-matcher ranks a job catalog against a resume",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	bindings := map[string]string{
		"ai.gemini.api-key": "GEMINI_API_KEY",
		"server.admin-key":  "ADMIN_API_KEY",
		"catalog.dsn":       "DATABASE_URL",
		"server.port":       "PORT",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, envPrefix+"_"+strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key)), env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("catalog.driver", catalog.DriverFile)
	viper.SetDefault("catalog.timeout", "30s")
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("ai.provider", providerGemini)
	viper.SetDefault("ai.gemini.max-retries", 1)
	viper.SetDefault("ai.gemini.batch-size", matching.DefaultBatchSize)
	viper.SetDefault("ai.gemini.timeout", "60s")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// The config file is optional unless it was given explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}
	if config == nil {
		config = &Config{}
	}

	return config, nil
}

// newMatcher builds the matching engine. A missing API key selects keyword mode.
func newMatcher(ctx context.Context, config *Config, logger *zap.Logger) (*matching.Matcher, error) {
	cfg := matching.Config{Limit: config.Match.Limit}

	if config.AI == nil || config.AI.Gemini == nil {
		logger.Info("semantic matching disabled", zap.String("reason", "ai is not configured"))
		return matching.NewMatcher(cfg, logger), nil
	}

	provider := strings.TrimSpace(strings.ToLower(config.AI.Provider))
	switch provider {
	case providerNone:
		logger.Info("semantic matching disabled", zap.String("reason", "provider is none"))
		return matching.NewMatcher(cfg, logger), nil
	case "", providerGemini:
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", config.AI.Provider)
	}

	g := config.AI.Gemini
	apiKey, err := secrets.Load(secrets.Source{
		Name:     "gemini api key",
		Value:    g.APIKey,
		File:     g.APIKeyFile,
		Optional: true,
	})
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		logger.Info("semantic matching disabled", zap.String("reason", "gemini api key is not set"))
		return matching.NewMatcher(cfg, logger), nil
	}

	embedder, err := gemini.NewEmbedder(ctx, gemini.Options{
		APIKey:       apiKey,
		Model:        g.Model,
		MaxRetries:   g.MaxRetries,
		MaxLogLength: g.MaxLogLength,
		Timeout:      g.Timeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("building gemini embedder: %w", err)
	}

	cfg.Embedder = embedder
	cfg.BatchSize = g.BatchSize
	return matching.NewMatcher(cfg, logger), nil
}
