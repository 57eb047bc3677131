package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogInfo 日志实例, children made by With share the debug switch
type LogInfo struct {
	log   *zap.Logger
	debug *atomic.Bool
}

var (
	// Log 日志实例
	Log *LogInfo
)

// Initialize builds the service logger:
// info..error as JSON to stdout and <logDir>/<service>_<date>.log,
// debug to the console only while debug mode is on, warn to the console.
func Initialize(serviceName, logDir string) *LogInfo {
	if logDir == "" {
		logDir = "./logs"
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		panic(fmt.Sprintf("Failed to create log directory: %v", err))
	}
	l := &LogInfo{debug: new(atomic.Bool)}

	file := newDailyWriter(logDir, serviceName, time.Now)
	if _, err := file.current(); err != nil {
		panic(fmt.Sprintf("Failed to open or create log file: %v", err))
	}

	infoErrorCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout), file),
		zap.LevelEnablerFunc(func(level zapcore.Level) bool {
			return level >= zap.InfoLevel && level <= zap.ErrorLevel
		}),
	)
	debugCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(os.Stdout),
		zap.LevelEnablerFunc(func(level zapcore.Level) bool {
			return level == zapcore.DebugLevel && l.debug.Load()
		}),
	)
	warnCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(os.Stdout),
		zap.LevelEnablerFunc(func(level zapcore.Level) bool {
			return level == zapcore.WarnLevel
		}),
	)

	l.log = zap.New(zapcore.NewTee(infoErrorCore, debugCore, warnCore),
		zap.AddCaller(), zap.AddCallerSkip(1)).With(zap.String("service", serviceName))
	return l
}

// SetNewNop replaces Log with a logger that discards everything, used by tests.
func SetNewNop() {
	Log = &LogInfo{log: zap.NewNop(), debug: new(atomic.Bool)}
}

// With returns a child logger carrying fields, e.g. the dashboard session id
func (l *LogInfo) With(fields ...zap.Field) *LogInfo {
	return &LogInfo{log: l.log.With(fields...), debug: l.debug}
}

// SetDebugMode set the log debug mode
func (l *LogInfo) SetDebugMode(status bool) {
	l.debug.Store(status)
}

// DebugMode reports whether debug output is enabled.
func (l *LogInfo) DebugMode() bool {
	return l.debug.Load()
}

// Info 输出 INFO 级别日志
func (l *LogInfo) Info(msg string, fields ...zap.Field) {
	l.log.Info(msg, fields...)
}

// Error 输出 ERROR 级别日志
func (l *LogInfo) Error(msg string, fields ...zap.Field) {
	l.log.Error(msg, fields...)
}

// Debug 输出 DEBUG 级别日志
func (l *LogInfo) Debug(msg string, fields ...zap.Field) {
	l.log.Debug(msg, fields...)
}

// Warn 输出 WARN 级别日志
func (l *LogInfo) Warn(msg string, fields ...zap.Field) {
	l.log.Warn(msg, fields...)
}

// Sync 刷新日志缓冲区
func (l *LogInfo) Sync() {
	if err := l.log.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sync logger: %v\n", err)
	}
}

// Fatal 输出错误日志并退出程序
func (l *LogInfo) Fatal(msg string, fields ...zap.Field) {
	l.log.Error(msg, fields...)
	l.Sync()
	os.Exit(1)
}

// dailyWriter 依日期切換檔案, the day is taken from now on every write
type dailyWriter struct {
	mu      sync.Mutex
	dir     string
	service string
	now     func() time.Time

	day  string
	file *os.File
}

func newDailyWriter(dir, service string, now func() time.Time) *dailyWriter {
	return &dailyWriter{dir: dir, service: service, now: now}
}

func (w *dailyWriter) path(day string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s_%s.log", w.service, day))
}

// current 回傳今天的檔案, 跨日時關閉舊檔
func (w *dailyWriter) current() (*os.File, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rotate()
}

func (w *dailyWriter) rotate() (*os.File, error) {
	day := w.now().Format("2006-01-02")
	if w.file != nil && day == w.day {
		return w.file, nil
	}
	f, err := os.OpenFile(w.path(day), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	if w.file != nil {
		_ = w.file.Close()
	}
	w.day, w.file = day, f
	return f, nil
}

func (w *dailyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, err := w.rotate()
	if err != nil {
		return 0, err
	}
	return f.Write(p)
}

func (w *dailyWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}
