package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects a backend and sink.
type Options struct {
	// Format is "text", "json" or "zap".
	Format string
	// Level is "debug", "info", "warn" or "error".
	Level string
	// File is a log file path rotated by lumberjack. Empty means stderr.
	File string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a Logger from opts. The returned closer releases the log file
// and must be called on shutdown.
func New(opts Options) (Logger, io.Closer, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    20, // megabytes
			MaxBackups: 2,
			MaxAge:     10, // days
		}
		out, closer = lj, lj
	}

	switch strings.ToLower(opts.Format) {
	case "", "text":
		h := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
		return NewSlogLogger(slog.New(h)), closer, nil
	case "json":
		h := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
		return NewSlogLogger(slog.New(h)), closer, nil
	case "zap":
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(out),
			zap.NewAtomicLevelAt(zapLevel(level)),
		)
		return NewZapLogger(zap.New(core)), closer, nil
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func zapLevel(l slog.Level) zapcore.Level {
	switch {
	case l <= slog.LevelDebug:
		return zapcore.DebugLevel
	case l <= slog.LevelInfo:
		return zapcore.InfoLevel
	case l <= slog.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
