package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName - значение поля service во всех записях
const ServiceName = "kairos-map-service"

// New собирает логгер. В окружении development или на уровне debug пишет цветной консольный
// вывод, иначе JSON с семплированием повторяющихся сообщений.
func New(level, env string) (*zap.Logger, error) {
	config := Config(level, env)
	return config.Build(zap.Fields(
		zap.String("service", ServiceName),
		zap.String("env", env),
	))
}

// Config - конфигурация zap для уровня и окружения
func Config(level, env string) zap.Config {
	zapLevel := zapcore.InfoLevel
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:    zap.NewAtomicLevelAt(zapLevel),
		Encoding: "json",
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if env == "development" || zapLevel == zapcore.DebugLevel {
		config.Development = true
		config.Sampling = nil
		config.Encoding = "console"
		config.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return config
}
