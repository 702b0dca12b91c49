package config

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Logger *zap.SugaredLogger

// InitLogger sets up a console core plus, outside development, a rotated
// file core.
func InitLogger(appEnv string) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(os.Stdout),
			zap.DebugLevel,
		),
	}

	if appEnv != "development" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   "logs/embrhealth.log",
				MaxSize:    100, // MB
				MaxBackups: 10,
				MaxAge:     30, // days
			}),
			zap.InfoLevel,
		))
	}

	Logger = zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	).Sugar()
}

// L returns the configured logger, or a no-op logger before InitLogger runs
// (tests exercise services without logging set up).
func L() *zap.SugaredLogger {
	if Logger == nil {
		return zap.NewNop().Sugar()
	}
	return Logger
}
