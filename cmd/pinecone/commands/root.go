package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/pinecone/internal/constants"
)

// Configuration keys shared by flags, environment variables and the config file.
const (
	keyAPIKey        = "api_key"
	keyEnvironment   = "environment"
	keyControllerURL = "controller_url"
	keyOutput        = "output"
	keyVerbose       = "verbose"
	keyLogLevel      = "log_level"
	keyTimeout       = "timeout"
	keyRateLimit     = "rate_limit"
	keyRateBurst     = "rate_burst"
	keyMetrics       = "metrics"
	keyCacheType     = "cache.type"
	keyCacheTTL      = "cache.ttl"
	keyCacheRedis    = "cache.redis_addrs"
	keyCacheNATS     = "cache.nats_url"
	keyCacheBucket   = "cache.nats_bucket"
)

const configDirName = ".pinecone"

// NewRootCommand builds the pinecone command tree.
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pinecone",
		Short: "Pinecone vector database CLI",
		Long: `A command-line interface for the Pinecone vector database.

Manage indexes and collections of a project and read or write the vectors
stored in an index.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.pinecone/config.yml)")
	flags.String("api-key", "", "API key")
	flags.StringP("environment", "e", "", "project environment, e.g. us-west1-gcp")
	flags.String("controller-url", "", "controller base URL override")
	flags.StringP("output", "o", constants.FormatTable, "output format (table, json, yaml)")
	flags.BoolP("verbose", "v", false, "log HTTP requests and responses")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.Duration("timeout", constants.DefaultHTTPTimeout, "timeout of a single HTTP request")
	flags.Float64("rate-limit", 0, "maximum requests per second, 0 disables pacing")
	flags.Int("rate-burst", constants.DefaultRateLimitBurst, "burst allowed by --rate-limit")
	flags.Bool("metrics", false, "print request metrics to stderr when done")
	flags.String("cache", "", "shared index cache (memory, redis, nats, none)")

	bindings := map[string]string{
		"config":         "config",
		keyAPIKey:        "api-key",
		keyEnvironment:   "environment",
		keyControllerURL: "controller-url",
		keyOutput:        "output",
		keyVerbose:       "verbose",
		keyLogLevel:      "log-level",
		keyTimeout:       "timeout",
		keyRateLimit:     "rate-limit",
		keyRateBurst:     "rate-burst",
		keyMetrics:       "metrics",
		keyCacheType:     "cache",
	}
	for key, flag := range bindings {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewWhoAmICommand())
	rootCmd.AddCommand(NewIndexesCommand())
	rootCmd.AddCommand(NewCollectionsCommand())
	rootCmd.AddCommand(NewVectorsCommand())

	return rootCmd
}

func initConfig() error {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configDir, err := defaultConfigDir()
		if err != nil {
			return err
		}

		// Search config in ~/.pinecone/config.yml
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("PINECONE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool(keyVerbose) {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}

	return nil
}

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, configDirName), nil
}
