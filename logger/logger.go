package logger

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.RWMutex
	global = zap.NewNop()
	once   sync.Once
)

// Config 定义日志配置
type Config struct {
	Level      string // debug, info, warn or error
	File       string // empty logs to stdout only
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// parseLevel falls back to info on unknown names.
func parseLevel(s string) zapcore.Level {
	level, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

func encoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.EncodeTime = zapcore.RFC3339TimeEncoder
	ec.EncodeDuration = zapcore.StringDurationEncoder
	return ec
}

// InitLogger 初始化日志系统. Only the first call has an effect.
func InitLogger(cfg Config) {
	once.Do(func() {
		level := parseLevel(cfg.Level)
		enc := zapcore.NewJSONEncoder(encoderConfig())

		cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), level)}
		if cfg.File != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
				panic(err)
			}
			// lumberjack 负责日志轮转
			rotated := &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
				Compress:   true,
			}
			cores = append(cores, zapcore.NewCore(enc.Clone(), zapcore.AddSync(rotated), level))
		}

		replace(zap.New(zapcore.NewTee(cores...),
			zap.AddCaller(),
			zap.AddCallerSkip(1),
			zap.AddStacktrace(zapcore.ErrorLevel),
			zap.Fields(zap.String("app", "audiotheque")),
		))
	})
}

func replace(l *zap.Logger) {
	mu.Lock()
	global = l
	mu.Unlock()
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// With returns a child logger carrying fields, for components that repeat
// the same context on every line.
func With(fields ...zap.Field) *zap.Logger {
	return current().WithOptions(zap.AddCallerSkip(-1)).With(fields...)
}

// Sync flushes buffered entries; call before exit.
func Sync() {
	_ = current().Sync()
}

func Debug(msg string, fields ...zap.Field) { current().Debug(msg, fields...) }

func Info(msg string, fields ...zap.Field) { current().Info(msg, fields...) }

func Warn(msg string, fields ...zap.Field) { current().Warn(msg, fields...) }

func Error(msg string, fields ...zap.Field) { current().Error(msg, fields...) }

func String(key, val string) zap.Field { return zap.String(key, val) }

func Int(key string, val int) zap.Field { return zap.Int(key, val) }

func Uint64(key string, val uint64) zap.Field { return zap.Uint64(key, val) }

func Duration(key string, val time.Duration) zap.Field { return zap.Duration(key, val) }

// ErrorField 创建错误字段
func ErrorField(err error) zap.Field { return zap.Error(err) }
