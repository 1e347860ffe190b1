// Package logging builds the structured logger shared by the CLI and runner.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates a zap logger writing to stderr. When logDir is non-empty, a
// JSON core writing to a rotated file in that directory is added as well.
func New(verbose bool, logDir string) (*zap.Logger, error) {
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleCfg),
			zapcore.AddSync(os.Stderr),
			level,
		),
	}

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, err
		}
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(logDir, "webtop.log"),
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.TimeKey = "ts"
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), w, level))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}
