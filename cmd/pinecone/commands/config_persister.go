package commands

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/fivetwenty-io/pinecone/internal/constants"
)

// ConfigPersister serializes writes of credentials to the config file.
type ConfigPersister struct {
	mutex sync.Mutex
}

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{}
}

// UpdateAPIKey stores the API key in the config file.
func (p *ConfigPersister) UpdateAPIKey(apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return constants.ErrNoAPIKeyConfigured
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	config := loadConfig()
	config.APIKey = apiKey

	err := saveConfigStruct(config)
	if err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}

	viper.Set(keyAPIKey, apiKey)

	return nil
}

// UpdateEnvironment stores the project environment in the config file.
func (p *ConfigPersister) UpdateEnvironment(environment string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config := loadConfig()
	config.Environment = strings.TrimSpace(environment)

	err := saveConfigStruct(config)
	if err != nil {
		return fmt.Errorf("failed to save environment: %w", err)
	}

	viper.Set(keyEnvironment, config.Environment)

	return nil
}
