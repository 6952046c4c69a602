package commons

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the application-wide logging contract. Handlers, stores and the
// session/recorder state machines all take a Logger rather than constructing
// their own, so tests can pass a throwaway instance.
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
}

type loggerOptions struct {
	name  string
	path  string
	level string
}

type LoggerOption func(*loggerOptions)

// Name sets the logger/service name used in log output and the log file name.
func Name(name string) LoggerOption {
	return func(o *loggerOptions) { o.name = name }
}

// Path sets the directory for rotated log files. Empty means stdout only.
func Path(path string) LoggerOption {
	return func(o *loggerOptions) { o.path = path }
}

// Level sets the minimum level: debug, info, warn or error.
func Level(level string) LoggerOption {
	return func(o *loggerOptions) { o.level = level }
}

type applicationLogger struct {
	*zap.SugaredLogger
}

// NewApplicationLogger builds a zap-backed Logger. Logs always go to stdout;
// when a Path is given they are additionally written to a rotated file
// (<path>/<name>.log) via lumberjack.
func NewApplicationLogger(opts ...LoggerOption) (Logger, error) {
	options := &loggerOptions{
		name:  "moments",
		level: "info",
	}
	for _, opt := range opts {
		opt(options)
	}

	level := zapcore.InfoLevel
	if err := level.Set(options.level); err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level),
	}
	if options.path != "" {
		rotated := &lumberjack.Logger{
			Filename:   filepath.Join(options.path, options.name+".log"),
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotated), level))
	}

	zl := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1)).
		Named(options.name)
	return &applicationLogger{zl.Sugar()}, nil
}
