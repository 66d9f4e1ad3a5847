package logging

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const defaultLogFile = "crypto_trading.log"

func outputPaths() []string {
	paths := []string{"stderr"}
	file, ok := os.LookupEnv("LOG_FILE")
	if !ok {
		file = defaultLogFile
	}
	if file != "" {
		paths = append(paths, file)
	}
	return paths
}

// GetZapLogger builds the process logger. LOCAL=true switches to a debug console logger.
func GetZapLogger() (*zap.Logger, error) {
	_ = godotenv.Load()
	if os.Getenv("LOCAL") == "true" {
		return zap.Config{
			Level:            zap.NewAtomicLevelAt(zap.DebugLevel),
			Development:      true,
			Encoding:         "console",
			EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
			OutputPaths:      outputPaths(),
			ErrorOutputPaths: []string{"stderr"},
		}.Build()
	}

	return zap.Config{
		Level:       zap.NewAtomicLevelAt(zap.InfoLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      outputPaths(),
		ErrorOutputPaths: []string{"stderr"},
	}.Build()
}

// Named returns a child logger tagged the way every component tags its output.
func Named(logger *zap.Logger, name string) *zap.Logger {
	return logger.With(zap.String("logger", name))
}
