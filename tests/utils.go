package tests

import (
	"testing"

	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func GetLoggerStatsd(t testing.TB) (interfaces.ILogger, *MockStatsdClient) {
	logger := zaptest.NewLogger(t).With(zap.String("logger", "test"))
	return logger, NewMockStatsdClient()
}
