package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates the structured logger used by the dashboard API
func New(env string) (*zap.Logger, error) {
	return build(env, []string{"stdout"}, zapcore.DebugLevel)
}

// NewCLI creates a logger for command line tools. Stdout belongs to command
// output, so logs go to stderr and only warnings and above are shown.
func NewCLI(env string) (*zap.Logger, error) {
	return build(env, []string{"stderr"}, zapcore.WarnLevel)
}

func build(env string, outputs []string, minLevel zapcore.Level) (*zap.Logger, error) {
	config := configFor(env)

	if config.Level.Level() < minLevel {
		config.Level = zap.NewAtomicLevelAt(minLevel)
	}

	config.OutputPaths = outputs
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		return nil, err
	}

	return logger, nil
}

func configFor(env string) zap.Config {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
		config.Encoding = "json"
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return config
}
