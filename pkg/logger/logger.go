package logger

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	Log   *zap.Logger
	Sugar *zap.SugaredLogger
)

// Options mirrors config.LogConfig; kept separate so config can import
// packages that log.
type Options struct {
	Level   string
	Format  string
	Outputs []string

	Rotate     bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func init() {
	// stderr console logger until Setup is called
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.AddSync(os.Stderr),
		levelFrom(""),
	)
	replace(zap.New(core, zap.AddCaller()))
}

// Setup rebuilds the global loggers from opts. NETCOM_LOG_LEVEL, when set,
// overrides opts.Level.
func Setup(opts Options) error {
	level := levelFrom(opts.Level)

	var encoder zapcore.Encoder
	if strings.ToLower(opts.Format) == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig())
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig())
	}

	outputs := opts.Outputs
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	var cores []zapcore.Core
	for _, out := range outputs {
		ws, err := writerFor(out, opts)
		if err != nil {
			return err
		}
		cores = append(cores, zapcore.NewCore(encoder, ws, level))
	}

	// AddCaller ensures the log includes filename and line number
	replace(zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)))
	return nil
}

// Sync flushes buffered entries; call before the process exits.
func Sync() {
	_ = Log.Sync()
}

func replace(l *zap.Logger) {
	Log = l
	Sugar = l.Sugar()
}

func writerFor(out string, opts Options) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(out) {
	case "stdout":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	}

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if opts.Rotate {
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   out,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}), nil
	}
	file, err := os.OpenFile(out, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(file), nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006/01/02 15:04:05"))
	}
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return cfg
}

func levelFrom(configured string) zapcore.Level {
	level := zapcore.InfoLevel
	levelStr := strings.TrimSpace(os.Getenv("NETCOM_LOG_LEVEL"))
	if levelStr == "" {
		levelStr = strings.TrimSpace(configured)
	}
	if strings.EqualFold(levelStr, "warning") {
		levelStr = "warn"
	}
	if levelStr != "" {
		_ = level.UnmarshalText([]byte(strings.ToLower(levelStr)))
	}
	return level
}
