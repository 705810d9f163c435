package logsvc

import (
	"os"

	"github.com/rollbar/rollbar-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Alisaqulain/madarcrm-sub000/core"
)

// NewZap builds the process logger.
// level: debug, info, warn, error (default info). format: json or console (default json).
func NewZap(level, format, service string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	var config zap.Config
	if format == "console" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	zl, err := config.Build()
	if err != nil {
		return nil, err
	}
	if service != "" {
		zl = zl.With(zap.String("service_name", service))
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		zl = zl.With(zap.String("hostname", hostname))
	}
	return zl, nil
}

// New wires the configured zap logger behind Rollbar.
func New(conf *core.Config, service string) (*RollbarLogger, error) {
	zl, err := NewZap(conf.Log.Level, conf.Log.Format, service)
	if err != nil {
		return nil, err
	}
	return NewRollbarLogger(zl, conf), nil
}

// NewLocal logs to zl only; Rollbar reporting is switched off.
func NewLocal(zl *zap.Logger) *RollbarLogger {
	rollbar.SetEnabled(false)
	return &RollbarLogger{zl: zl}
}

func NewNop() *RollbarLogger {
	return NewLocal(zap.NewNop())
}
