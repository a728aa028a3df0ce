package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/pinecone/internal/constants"
	"github.com/fivetwenty-io/pinecone/pkg/pinecone"
)

// Config represents the CLI configuration.
type Config struct {
	APIKey        string `json:"api_key,omitempty"        yaml:"api_key,omitempty"`
	Environment   string `json:"environment,omitempty"    yaml:"environment,omitempty"`
	ControllerURL string `json:"controller_url,omitempty" yaml:"controller_url,omitempty"`

	// Global settings
	Output    string        `json:"output"               yaml:"output"`
	LogLevel  string        `json:"log_level,omitempty"  yaml:"log_level,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty"    yaml:"timeout,omitempty"`
	RateLimit float64       `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	RateBurst int           `json:"rate_burst,omitempty" yaml:"rate_burst,omitempty"`

	Cache CacheSettings `json:"cache" yaml:"cache"`
}

// CacheSettings selects the shared index description cache.
type CacheSettings struct {
	Type       string        `json:"type,omitempty"        yaml:"type,omitempty"`
	TTL        time.Duration `json:"ttl,omitempty"         yaml:"ttl,omitempty"`
	RedisAddrs []string      `json:"redis_addrs,omitempty" yaml:"redis_addrs,omitempty"`
	NATSURL    string        `json:"nats_url,omitempty"    yaml:"nats_url,omitempty"`
	NATSBucket string        `json:"nats_bucket,omitempty" yaml:"nats_bucket,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage the Pinecone CLI configuration stored in ~/.pinecone/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigSetKeyCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective CLI configuration. The API key is masked.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			config.APIKey = maskSecret(config.APIKey)

			return renderOutput(cmd, config, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")

				return appendRows(table, configRows(config))
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: `Set a configuration value. Supported keys:

  ` + strings.Join(configKeys(), "\n  "),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			config := loadConfig()

			handler, exists := configHandlers()[key]
			if !exists {
				return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
			}

			err := handler(config, value)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			return outputConfigUpdateResult(cmd, "Set", key, value)
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Reset a configuration value to its default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			config := loadConfig()

			if key == keyAPIKey {
				config.APIKey = ""
			} else {
				handler, exists := configHandlers()[key]
				if !exists {
					return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
				}

				if err := handler(config, ""); err != nil {
					return fmt.Errorf("failed to unset %s: %w", key, err)
				}
			}

			err := saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			return outputConfigUpdateResult(cmd, "Unset", key, "")
		},
	}
}

func newConfigSetKeyCommand() *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "set-key",
		Short: "Store the API key",
		Long:  "Read the API key without echo and store it in the config file. --environment is stored alongside it when given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := readAPIKey(cmd, fromStdin)
			if err != nil {
				return err
			}

			persister := NewConfigPersister()

			err = persister.UpdateAPIKey(key)
			if err != nil {
				return err
			}

			if flag := cmd.Flag("environment"); flag != nil && flag.Changed {
				err = persister.UpdateEnvironment(flag.Value.String())
				if err != nil {
					return err
				}
			}

			return outputConfigUpdateResult(cmd, "Set", keyAPIKey, maskSecret(key))
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "from-stdin", false, "read the key from standard input")

	return cmd
}

func loadConfig() *Config {
	return &Config{
		APIKey:        viper.GetString(keyAPIKey),
		Environment:   viper.GetString(keyEnvironment),
		ControllerURL: viper.GetString(keyControllerURL),
		Output:        viper.GetString(keyOutput),
		LogLevel:      viper.GetString(keyLogLevel),
		Timeout:       viper.GetDuration(keyTimeout),
		RateLimit:     viper.GetFloat64(keyRateLimit),
		RateBurst:     viper.GetInt(keyRateBurst),
		Cache: CacheSettings{
			Type:       viper.GetString(keyCacheType),
			TTL:        viper.GetDuration(keyCacheTTL),
			RedisAddrs: viper.GetStringSlice(keyCacheRedis),
			NATSURL:    viper.GetString(keyCacheNATS),
			NATSBucket: viper.GetString(keyCacheBucket),
		},
	}
}

func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	configDir, err := defaultConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "config.yml"), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// configHandlers maps settable keys to setters. An empty value resets the key.
func configHandlers() map[string]func(*Config, string) error {
	return map[string]func(*Config, string) error{
		keyEnvironment: func(c *Config, v string) error {
			c.Environment = v

			return nil
		},
		keyControllerURL: func(c *Config, v string) error {
			c.ControllerURL = v

			return nil
		},
		keyOutput: func(c *Config, v string) error {
			if v == "" {
				v = constants.FormatTable
			}

			if err := validateOutputFormat(v); err != nil {
				return err
			}

			c.Output = v

			return nil
		},
		keyLogLevel: func(c *Config, v string) error {
			c.LogLevel = v

			return nil
		},
		keyTimeout: func(c *Config, v string) error {
			return parseDurationInto(&c.Timeout, v)
		},
		keyRateLimit: func(c *Config, v string) error {
			if v == "" {
				c.RateLimit = 0

				return nil
			}

			rps, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%w: %s", constants.ErrInvalidFloat, v)
			}

			c.RateLimit = rps

			return nil
		},
		keyRateBurst: func(c *Config, v string) error {
			if v == "" {
				c.RateBurst = 0

				return nil
			}

			burst, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("parsing burst: %w", err)
			}

			c.RateBurst = burst

			return nil
		},
		keyCacheType: func(c *Config, v string) error {
			cacheType, err := pinecone.ParseCacheType(v)
			if err != nil {
				return err
			}

			c.Cache.Type = string(cacheType)

			return nil
		},
		keyCacheTTL: func(c *Config, v string) error {
			return parseDurationInto(&c.Cache.TTL, v)
		},
		keyCacheRedis: func(c *Config, v string) error {
			c.Cache.RedisAddrs = splitList(v)

			return nil
		},
		keyCacheNATS: func(c *Config, v string) error {
			c.Cache.NATSURL = v

			return nil
		},
		keyCacheBucket: func(c *Config, v string) error {
			c.Cache.NATSBucket = v

			return nil
		},
	}
}

func configKeys() []string {
	keys := make([]string, 0, len(configHandlers()))
	for key := range configHandlers() {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func parseDurationInto(target *time.Duration, value string) error {
	if value == "" {
		*target = 0

		return nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parsing duration: %w", err)
	}

	*target = d

	return nil
}

func splitList(value string) []string {
	var items []string

	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}

// maskSecret keeps the last few characters of a secret visible.
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}

	if len(secret) <= constants.VisibleKeySuffix {
		return constants.MaskedSecret
	}

	return constants.MaskedSecret + secret[len(secret)-constants.VisibleKeySuffix:]
}

func configRows(config *Config) [][]string {
	rows := [][]string{
		{"API Key", formatConfigValue(config.APIKey)},
		{"Environment", formatConfigValue(config.Environment)},
		{"Controller URL", formatConfigValue(config.ControllerURL)},
		{"Output", formatConfigValue(config.Output)},
		{"Log Level", formatConfigValue(config.LogLevel)},
		{"Timeout", formatDuration(config.Timeout)},
		{"Rate Limit", strconv.FormatFloat(config.RateLimit, 'f', -1, 64)},
		{"Rate Burst", strconv.Itoa(config.RateBurst)},
		{"Cache Type", formatConfigValue(config.Cache.Type)},
		{"Cache TTL", formatDuration(config.Cache.TTL)},
	}

	if len(config.Cache.RedisAddrs) > 0 {
		rows = append(rows, []string{"Redis Addresses", strings.Join(config.Cache.RedisAddrs, ", ")})
	}

	if config.Cache.NATSURL != "" {
		rows = append(rows,
			[]string{"NATS URL", config.Cache.NATSURL},
			[]string{"NATS Bucket", formatConfigValue(config.Cache.NATSBucket)},
		)
	}

	return rows
}

func formatConfigValue(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return constants.NotAvailable
	}

	return d.String()
}

// outputConfigUpdateResult outputs configuration update results in the requested format.
func outputConfigUpdateResult(cmd *cobra.Command, action, key, value string) error {
	result := map[string]string{
		"action": action,
		"key":    key,
	}

	if value != "" {
		result["value"] = value
	}

	return renderOutput(cmd, result, func(table *tablewriter.Table) error {
		table.Header("Property", "Value")

		rows := [][]string{{"Action", action}, {"Key", key}}
		if value != "" {
			rows = append(rows, []string{"Value", value})
		}

		return appendRows(table, rows)
	})
}
