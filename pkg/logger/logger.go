// Package logger builds the zap loggers shared by the client and the stub
// backend.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	Level       string
	Format      string
	Development bool
	OutputPaths []string

	// App and Version are attached to every entry when set, so logs from
	// the client and the stub backend can share one file.
	App     string
	Version string
}

// New creates a logger. An unparseable level falls back to info.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	// The interactive CLI writes to stdout, so logs default to stderr.
	paths := cfg.OutputPaths
	if len(paths) == 0 {
		paths = []string{"stderr"}
	}
	sink, _, err := zap.Open(paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to open log outputs: %w", err)
	}

	core := zapcore.NewCore(newEncoder(cfg), sink, level)
	return zap.New(core, options(cfg)...), nil
}

func newEncoder(cfg Config) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	if cfg.Development {
		ec = zap.NewDevelopmentEncoderConfig()
	}
	ec.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.Format == "console" {
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func options(cfg Config) []zap.Option {
	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.ErrorLevel))
	}

	var fields []zap.Field
	if cfg.App != "" {
		fields = append(fields, zap.String("app", cfg.App))
	}
	if cfg.Version != "" {
		fields = append(fields, zap.String("version", cfg.Version))
	}
	if len(fields) > 0 {
		opts = append(opts, zap.Fields(fields...))
	}
	return opts
}
