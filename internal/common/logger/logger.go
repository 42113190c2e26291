// Package logger provides structured logging using go.uber.org/zap.
package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig holds the configuration for the logger.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// Logger wraps zap.Logger to provide structured logging with helper methods.
type Logger struct {
	zap   *zap.Logger
	sugar *zap.SugaredLogger
}

var (
	defaultLogger     *Logger
	defaultLoggerOnce sync.Once
)

// Default returns the global default logger, initialized lazily with
// info level and the stderr stream (stdout is reserved for the event protocol).
func Default() *Logger {
	defaultLoggerOnce.Do(func() {
		l, err := NewLogger(LoggingConfig{Level: "info", Format: detectLogFormat(), OutputPath: "stderr"})
		if err != nil {
			zapLogger, _ := zap.NewProduction()
			defaultLogger = &Logger{zap: zapLogger, sugar: zapLogger.Sugar()}
			return
		}
		defaultLogger = l
	})
	return defaultLogger
}

// SetDefault sets the global default logger.
func SetDefault(l *Logger) {
	defaultLogger = l
}

// NewLogger creates a new Logger with the given configuration.
func NewLogger(cfg LoggingConfig) (*Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	if cfg.Format == "" {
		cfg.Format = detectLogFormat()
	}

	var encoder zapcore.Encoder
	if cfg.Format == "console" || cfg.Format == "text" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	var writeSyncer zapcore.WriteSyncer
	switch cfg.OutputPath {
	case "", "stderr":
		// The control protocol owns stdout; logs default to stderr so they
		// never interleave with event lines.
		writeSyncer = zapcore.AddSync(os.Stderr)
	case "stdout":
		writeSyncer = zapcore.AddSync(os.Stdout)
	default:
		file, err := os.OpenFile(cfg.OutputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		writeSyncer = zapcore.AddSync(file)
	}

	core := zapcore.NewCore(encoder, writeSyncer, level)
	zapLogger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	return &Logger{zap: zapLogger, sugar: zapLogger.Sugar()}, nil
}

func parseLevel(level string) (zapcore.Level, error) {
	var l zapcore.Level
	err := l.UnmarshalText([]byte(level))
	return l, err
}

// detectLogFormat favors console output for terminal use and JSON when
// running under an orchestrator that collects structured logs.
func detectLogFormat() string {
	if os.Getenv("HIVEMIND_ENV") == "production" {
		return "json"
	}
	return "text"
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// WithFields returns a new Logger with the given fields added.
func (l *Logger) WithFields(fields ...zap.Field) *Logger {
	return &Logger{zap: l.zap.With(fields...), sugar: l.zap.With(fields...).Sugar()}
}

// WithError returns a new Logger with the error field added.
func (l *Logger) WithError(err error) *Logger {
	return l.WithFields(zap.Error(err))
}

// WithPane returns a new Logger with the pane_id field added.
func (l *Logger) WithPane(paneID string) *Logger {
	return l.WithFields(zap.String("pane_id", paneID))
}

// WithRole returns a new Logger with the role field added.
func (l *Logger) WithRole(role string) *Logger {
	return l.WithFields(zap.String("role", role))
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.zap.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.zap.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.zap.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.zap.Error(msg, fields...) }
func (l *Logger) Fatal(msg string, fields ...zap.Field) { l.zap.Fatal(msg, fields...) }

func (l *Logger) Zap() *zap.Logger             { return l.zap }
func (l *Logger) Sugar() *zap.SugaredLogger     { return l.sugar }

// benignStderrPatterns lists substrings the upstream Claude transport emits on
// stderr that are noisy pydantic validation warnings, not actionable errors.
var benignStderrPatterns = []string{
	"Failed to validate",
	"validation error",
	"Input should be",
}

// IsBenignProviderWarning reports whether a line of subprocess/transport
// stderr output matches a known-benign warning pattern that must never reach
// the host.
func IsBenignProviderWarning(line string) bool {
	for _, p := range benignStderrPatterns {
		if strings.Contains(line, p) {
			return true
		}
	}
	return false
}
