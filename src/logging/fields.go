package logging

import (
	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
	"go.uber.org/zap"
)

type fieldLogger struct {
	interfaces.ILogger
	fields []zap.Field
}

func (l *fieldLogger) with(fields []zap.Field) []zap.Field {
	return append(append([]zap.Field(nil), l.fields...), fields...)
}

func (l *fieldLogger) Info(s string, fields ...zap.Field)  { l.ILogger.Info(s, l.with(fields)...) }
func (l *fieldLogger) Warn(s string, fields ...zap.Field)  { l.ILogger.Warn(s, l.with(fields)...) }
func (l *fieldLogger) Fatal(s string, fields ...zap.Field) { l.ILogger.Fatal(s, l.with(fields)...) }
func (l *fieldLogger) Error(s string, fields ...zap.Field) { l.ILogger.Error(s, l.with(fields)...) }
func (l *fieldLogger) Debug(s string, fields ...zap.Field) { l.ILogger.Debug(s, l.with(fields)...) }
func (l *fieldLogger) Panic(s string, fields ...zap.Field) { l.ILogger.Panic(s, l.with(fields)...) }

// With attaches fields to every entry written through logger.
func With(logger interfaces.ILogger, fields ...zap.Field) interfaces.ILogger {
	if zl, ok := logger.(*zap.Logger); ok {
		return zl.With(fields...)
	}
	return &fieldLogger{ILogger: logger, fields: fields}
}
