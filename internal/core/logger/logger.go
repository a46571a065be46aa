package logger

import (
	"io"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"go-gin-gorm-cms/internal/core/config"
)

// 同一条消息每秒前 100 条照写，之后每 100 条取 1
const (
	sampleTick       = time.Second
	sampleFirst      = 100
	sampleThereafter = 100
)

// FromConfig 按 log.* 配置构建 logger。
// stdout 总是开启；log.file.filename 非空时再 tee 一份到切割文件。
// fields 会挂到每条日志上，cmd 用它标记是 api 还是 admin 进程。
// 返回的 cleanup 负责 Sync 并关闭日志文件。
func FromConfig(c config.Log, fields ...zap.Field) (*zap.Logger, func()) {
	lvl := parseLevel(c.Level)
	enc := encoderFor(c.JSON)

	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lvl)}
	closeFile := func() {}
	if rot := rotatorFor(c.File); rot != nil {
		cores = append(cores, zapcore.NewCore(enc, fileSync{rot}, lvl))
		closeFile = func() { _ = rot.Close() }
	}

	core := zapcore.NewSamplerWithOptions(zapcore.NewTee(cores...), sampleTick, sampleFirst, sampleThereafter)

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if !c.JSON {
		opts = append(opts, zap.Development()) // 控制台输出视为本地开发
	}
	l := zap.New(core, opts...).With(fields...)
	return l, func() {
		_ = l.Sync()
		closeFile()
	}
}

// parseLevel 不认识的级别按 info
func parseLevel(s string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(s))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func encoderFor(json bool) zapcore.Encoder {
	if json {
		ec := zap.NewProductionEncoderConfig()
		ec.TimeKey = "ts"
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		ec.EncodeCaller = zapcore.ShortCallerEncoder
		return zapcore.NewJSONEncoder(ec)
	}
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	ec.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewConsoleEncoder(ec)
}

// rotatorFor 没配文件名时返回 nil
func rotatorFor(f config.LogFile) *lumberjack.Logger {
	if f.Filename == "" {
		return nil
	}
	return &lumberjack.Logger{
		Filename:   f.Filename,
		MaxSize:    max(1, f.MaxSizeMB),
		MaxBackups: max(0, f.MaxBackups),
		MaxAge:     max(0, f.MaxAgeDays),
		Compress:   f.Compress,
	}
}

// fileSync lumberjack 没有 Sync，写完即落盘
type fileSync struct{ *lumberjack.Logger }

func (fileSync) Sync() error { return nil }

type levelWriter struct {
	l     *zap.Logger
	level zapcore.Level
}

func (w *levelWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\r\n")
	if ce := w.l.Check(w.level, msg); ce != nil {
		ce.Write()
	}
	return len(p), nil
}

// ToWriter 把按行写入的第三方输出（如 gin.DefaultWriter）转成 zap 日志
func ToWriter(l *zap.Logger, level zapcore.Level) io.Writer {
	return &levelWriter{l: l, level: level}
}

// ToStdLogger 给 gorm logger 这类只收 *log.Logger 的地方用
func ToStdLogger(l *zap.Logger, level zapcore.Level) (*log.Logger, error) {
	return zap.NewStdLogAt(l, level)
}

func RedirectStdLog(l *zap.Logger, level zapcore.Level) func() {
	undo, err := zap.RedirectStdLogAt(l, level)
	if err != nil {
		return func() {}
	}
	return undo
}
