package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger builds a zap logger that tees human-readable output to the
// console and JSON output to logs/hourbank_<env>_<timestamp>.log. The file
// core logs at Debug, the console at Info.
func InitLogger(env string) (*zap.Logger, error) {
	fileCore, err := newFileCore(env)
	if err != nil {
		return nil, err
	}

	consoleEncoderConfig := zap.NewDevelopmentEncoderConfig()
	consoleEncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(consoleEncoderConfig)

	core := zapcore.NewTee(
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), zapcore.InfoLevel),
		fileCore,
	)

	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// InitFileLogger builds a logger that writes only to the log file. The
// interactive session timer owns the terminal, so console output would
// corrupt its display.
func InitFileLogger(env string) (*zap.Logger, error) {
	fileCore, err := newFileCore(env)
	if err != nil {
		return nil, err
	}
	return zap.New(fileCore, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func newFileCore(env string) (zapcore.Core, error) {
	logsDir := "logs"
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logFileName := filepath.Join(logsDir, fmt.Sprintf("hourbank_%s_%s.log", env, timestamp))
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	fileEncoderConfig := zap.NewProductionEncoderConfig()
	fileEncoderConfig.TimeKey = "timestamp"
	fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig), zapcore.AddSync(logFile), zapcore.DebugLevel), nil
}
