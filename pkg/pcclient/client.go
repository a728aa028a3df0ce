package pcclient

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fivetwenty-io/pinecone/internal/client"
	"github.com/fivetwenty-io/pinecone/pkg/pinecone"
)

// Environment variables read by NewFromEnv.
const (
	EnvAPIKey        = "PINECONE_API_KEY"
	EnvEnvironment   = "PINECONE_ENVIRONMENT"
	EnvControllerURL = "PINECONE_CONTROLLER_URL"
)

// New creates a new Pinecone client. The config is normalized in place:
// surrounding whitespace is trimmed and a controller override without a
// scheme gets https://.
func New(ctx context.Context, config *pinecone.Config) (pinecone.Client, error) {
	if config == nil {
		return nil, pinecone.ErrConfigRequired
	}

	config.APIKey = strings.TrimSpace(config.APIKey)
	config.Environment = strings.TrimSpace(config.Environment)

	if config.ControllerURL != "" {
		controllerURL := strings.TrimSuffix(strings.TrimSpace(config.ControllerURL), "/")
		if !strings.HasPrefix(controllerURL, "http://") && !strings.HasPrefix(controllerURL, "https://") {
			controllerURL = "https://" + controllerURL
		}

		config.ControllerURL = controllerURL
	} else {
		err := config.Credentials().Validate()
		if err != nil {
			return nil, fmt.Errorf("invalid credentials: %w", err)
		}
	}

	c, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithAPIKey creates a client for an API key and environment.
func NewWithAPIKey(ctx context.Context, apiKey, environment string) (pinecone.Client, error) {
	return New(ctx, &pinecone.Config{
		APIKey:      apiKey,
		Environment: environment,
	})
}

// NewFromEnv creates a client from PINECONE_API_KEY, PINECONE_ENVIRONMENT and
// the optional PINECONE_CONTROLLER_URL.
func NewFromEnv(ctx context.Context) (pinecone.Client, error) {
	return New(ctx, &pinecone.Config{
		APIKey:        os.Getenv(EnvAPIKey),
		Environment:   os.Getenv(EnvEnvironment),
		ControllerURL: os.Getenv(EnvControllerURL),
	})
}
