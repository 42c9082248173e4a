package util

import (
	"fmt"
	"os"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"snippet-sharing-server/config"
)

func levelFromString(l string) zapcore.Level {
	switch strings.ToLower(l) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// InitLogger : создаёт zap-логгер и делает его глобальным (zap.L()).
// Если задан cfg.File, вывод дублируется в файл с ротацией по времени
func InitLogger(cfg config.LogConfig) (*zap.Logger, error) {
	lvl := levelFromString(cfg.Level)

	var encoder zapcore.Encoder
	if cfg.Dev {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), lvl)}

	if cfg.File != "" {
		writer, err := rotatelogs.New(
			cfg.File+".%Y%m%d%H%M",
			rotatelogs.WithLinkName(cfg.File),
			rotatelogs.WithMaxAge(durationOr(cfg.MaxAge, 7*24*time.Hour)),
			rotatelogs.WithRotationTime(durationOr(cfg.RotationTime, 24*time.Hour)),
		)
		if err != nil {
			return nil, fmt.Errorf("не удалось открыть файл лога: %w", err)
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(writer), lvl))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	zap.ReplaceGlobals(logger)

	return logger, nil
}

func durationOr(value string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	return fallback
}
