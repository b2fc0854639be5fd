package logx

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps a config string to a zap level; unknown strings are info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// New builds the node logger: a console encoder on stderr, teed to JSON
// lines in file when file is non-empty. The returned func flushes and
// closes the file.
func New(level, file string) (*zap.Logger, zap.AtomicLevel, func(), error) {
	lvl := zap.NewAtomicLevelAt(ParseLevel(level))

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCfg := encCfg
	consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), lvl),
	}
	closeFile := func() {}
	if file != "" {
		ws, closeFn, err := zap.Open(file)
		if err != nil {
			return nil, lvl, nil, err
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), ws, lvl))
		closeFile = closeFn
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return logger, lvl, func() {
		_ = logger.Sync()
		closeFile()
	}, nil
}
