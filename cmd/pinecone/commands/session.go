package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/fivetwenty-io/pinecone/internal/constants"
	"github.com/fivetwenty-io/pinecone/internal/logger"
	"github.com/fivetwenty-io/pinecone/pkg/pcclient"
	"github.com/fivetwenty-io/pinecone/pkg/pinecone"
)

const tracerName = "github.com/fivetwenty-io/pinecone/cmd/pinecone"

// session is the client and its supporting resources for one command run.
type session struct {
	client   pinecone.Client
	logger   *zap.Logger
	registry *prometheus.Registry
	closers  []func()
	stderr   io.Writer
}

type closer interface {
	Close()
}

// newSession builds a client from the effective configuration.
func newSession(cmd *cobra.Command) (*session, error) {
	config := loadConfig()

	if config.APIKey == "" {
		return nil, constants.ErrNoAPIKeyConfigured
	}

	if config.Environment == "" && config.ControllerURL == "" {
		return nil, constants.ErrNoEnvironmentConfigured
	}

	zl, err := logger.NewLogger("", logLevel(config))
	if err != nil {
		return nil, err
	}

	s := &session{
		logger: zl,
		stderr: cmd.ErrOrStderr(),
	}

	clientConfig := &pinecone.Config{
		APIKey:        config.APIKey,
		Environment:   config.Environment,
		ControllerURL: config.ControllerURL,
		HTTPTimeout:   config.Timeout,
		Debug:         viper.GetBool(keyVerbose),
		Logger:        logger.NewAdapter(zl),
	}

	err = s.addInterceptors(clientConfig, config)
	if err != nil {
		s.Close()

		return nil, err
	}

	cache, err := buildCache(commandContext(cmd), config)
	if err != nil {
		s.Close()

		return nil, err
	}

	if c, ok := cache.(closer); ok {
		s.closers = append(s.closers, c.Close)
	}

	clientConfig.Cache = cache
	clientConfig.CacheTTL = config.Cache.TTL

	s.client, err = pcclient.New(commandContext(cmd), clientConfig)
	if err != nil {
		s.Close()

		return nil, err
	}

	return s, nil
}

func logLevel(config *Config) string {
	if config.LogLevel != "" {
		return config.LogLevel
	}

	if viper.GetBool(keyVerbose) {
		return "debug"
	}

	return "warn"
}

func (s *session) addInterceptors(clientConfig *pinecone.Config, config *Config) error {
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst <= 0 {
			burst = constants.DefaultRateLimitBurst
		}

		clientConfig.RequestInterceptors = append(clientConfig.RequestInterceptors,
			pinecone.RateLimitInterceptor(config.RateLimit, burst))
	}

	if viper.GetBool(keyMetrics) {
		s.registry = prometheus.NewRegistry()

		collector, err := pinecone.NewMetricsCollector(s.registry)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}

		clientConfig.RequestInterceptors = append(clientConfig.RequestInterceptors, collector.RequestInterceptor())
		clientConfig.ResponseInterceptors = append(clientConfig.ResponseInterceptors, collector.ResponseInterceptor())
	}

	// Spans go to the global provider, which is a no-op unless one is installed.
	startSpan, endSpan := pinecone.TracingInterceptors(otel.Tracer(tracerName))
	clientConfig.RequestInterceptors = append(clientConfig.RequestInterceptors, startSpan)
	clientConfig.ResponseInterceptors = append(clientConfig.ResponseInterceptors, endSpan)

	return nil
}

func buildCache(ctx context.Context, config *Config) (pinecone.Cache, error) {
	cacheType, err := pinecone.ParseCacheType(strings.TrimSpace(config.Cache.Type))
	if err != nil {
		return nil, err
	}

	options := pinecone.DefaultCacheOptions()
	if config.Cache.TTL > 0 {
		options.TTL = config.Cache.TTL
	}

	builder := pinecone.NewCacheBuilder().
		WithType(cacheType).
		WithMemoryConfig(constants.DefaultCacheSize).
		WithOptions(options)

	switch cacheType {
	case pinecone.CacheTypeRedis:
		builder = builder.
			WithRedisConfig(&pinecone.RedisCacheConfig{Addrs: config.Cache.RedisAddrs}).
			WithLocalLayer(constants.DefaultCacheSize)
	case pinecone.CacheTypeNATS:
		builder = builder.WithNATSConfig(&pinecone.NATSKVConfig{
			URL:     config.Cache.NATSURL,
			Bucket:  config.Cache.NATSBucket,
			Timeout: constants.ShortHTTPTimeout,
		}).WithLocalLayer(constants.DefaultCacheSize)
	}

	cache, err := builder.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s cache: %w", cacheType, err)
	}

	return cache, nil
}

// Close prints collected metrics and releases cache connections.
func (s *session) Close() {
	if s.registry != nil {
		err := writeMetrics(s.stderr, s.registry)
		if err != nil {
			s.logger.Warn("Failed to write metrics", zap.Error(err))
		}
	}

	for _, c := range s.closers {
		c()
	}

	_ = s.logger.Sync()
}

func writeMetrics(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	encoder := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))

	for _, family := range families {
		err := encoder.Encode(family)
		if err != nil {
			return fmt.Errorf("encoding metrics: %w", err)
		}
	}

	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}

func requireName(args []string, err error) (string, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "", err
	}

	return strings.TrimSpace(args[0]), nil
}
