// Package logger builds zap loggers for the CLI and adapts them to the
// pinecone.Logger interface used by the client.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fivetwenty-io/pinecone/pkg/pinecone"
)

// NewLogger creates a zap logger for the given environment.
// prod uses JSON output, local/dev use colored console output.
// level (if non-empty) overrides the log level: debug, info, warn, error.
func NewLogger(env, level string) (*zap.Logger, error) {
	var cfg zap.Config

	switch env {
	case "prod":
		cfg = zap.NewProductionConfig()
	case "", "local", "dev":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}

	// CLI output goes to stdout; keep logs out of it.
	cfg.OutputPaths = []string{"stderr"}

	if level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}

		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return l, nil
}

// Adapter exposes a zap logger as a pinecone.Logger.
type Adapter struct {
	logger *zap.Logger
}

var _ pinecone.Logger = (*Adapter)(nil)

// NewAdapter wraps logger. A nil logger logs nothing.
func NewAdapter(logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Adapter{logger: logger.WithOptions(zap.AddCallerSkip(1))}
}

func (a *Adapter) Debug(msg string, fields map[string]interface{}) {
	a.logger.Debug(msg, zapFields(fields)...)
}

func (a *Adapter) Info(msg string, fields map[string]interface{}) {
	a.logger.Info(msg, zapFields(fields)...)
}

func (a *Adapter) Warn(msg string, fields map[string]interface{}) {
	a.logger.Warn(msg, zapFields(fields)...)
}

func (a *Adapter) Error(msg string, fields map[string]interface{}) {
	a.logger.Error(msg, zapFields(fields)...)
}

// Zap returns the wrapped logger.
func (a *Adapter) Zap() *zap.Logger {
	return a.logger
}

func zapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	out := make([]zap.Field, 0, len(fields))
	for key, value := range fields {
		if err, ok := value.(error); ok {
			out = append(out, zap.NamedError(key, err))

			continue
		}

		out = append(out, zap.Any(key, value))
	}

	return out
}
