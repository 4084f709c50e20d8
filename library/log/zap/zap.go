package zap

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/go-kratos/kratos/v2/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yola1107/fadu/library/log/zap/conf"
)

var _ log.Logger = (*Logger)(nil)

const sensitiveMask = "***"

// Logger adapts zap to the kratos log.Logger interface.
type Logger struct {
	wrap       *zapWrap
	sensitives map[string]struct{}
	mu         sync.RWMutex
}

func NewLogger(c *conf.Logger) (*Logger, error) {
	if c == nil {
		c = conf.DefaultConfig()
	}
	wrap, err := newZapWrap(c)
	if err != nil {
		return nil, err
	}
	l := &Logger{
		wrap:       wrap,
		sensitives: make(map[string]struct{}),
	}
	l.SetSensitive(c.Sensitive)
	return l, nil
}

func (l *Logger) Log(level log.Level, keyvals ...any) error {
	if zapcore.Level(level) < zapcore.DPanicLevel && !l.wrap.log.Core().Enabled(zapcore.Level(level)) {
		return nil
	}

	var (
		msg    = ""
		keylen = len(keyvals)
	)
	if keylen == 0 || keylen%2 != 0 {
		l.wrap.log.Warn(fmt.Sprint("Keyvalues must appear in pairs: ", keyvals))
		return nil
	}

	fields := make([]zap.Field, 0, (keylen/2)+1)
	for i := 0; i < keylen; i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keyvals[i])
		}
		if key == log.DefaultMessageKey {
			msg, _ = keyvals[i+1].(string)
			continue
		}
		fields = append(fields, zap.Any(key, keyvals[i+1]))
	}
	fields = l.filterSensitive(fields)

	logger := l.wrap.log.WithOptions(zap.AddCallerSkip(calculateSkip()))
	switch level {
	case log.LevelDebug:
		logger.Debug(msg, fields...)
	case log.LevelInfo:
		logger.Info(msg, fields...)
	case log.LevelWarn:
		logger.Warn(msg, fields...)
	case log.LevelError:
		logger.Error(msg, fields...)
	case log.LevelFatal:
		logger.Fatal(msg, fields...)
	}
	return nil
}

func (l *Logger) Close() error {
	return l.wrap.close()
}

func (l *Logger) GetZap() *zap.Logger {
	return l.wrap.log
}

func (l *Logger) GetLevel() string {
	return l.wrap.level.String()
}

// SetLevel changes the level of every core at runtime. Unknown levels are ignored.
func (l *Logger) SetLevel(level string) {
	if err := l.wrap.level.UnmarshalText([]byte(level)); err != nil {
		l.wrap.log.Warn("invalid log level", zap.String("level", level), zap.Error(err))
		return
	}
	l.wrap.log.Info("log level updated", zap.String("level", level))
}

func (l *Logger) SetSensitive(keys []string) {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[strings.ToLower(k)] = struct{}{}
	}
	l.mu.Lock()
	l.sensitives = set
	l.mu.Unlock()
}

func (l *Logger) filterSensitive(fields []zap.Field) []zap.Field {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.sensitives) == 0 {
		return fields
	}
	for i, field := range fields {
		if _, ok := l.sensitives[strings.ToLower(field.Key)]; ok {
			fields[i] = zap.String(field.Key, sensitiveMask)
		}
	}
	return fields
}

// calculateSkip accounts for the extra frames added by the kratos helper and global logger.
func calculateSkip() int {
	pc := make([]uintptr, 8)
	n := runtime.Callers(3, pc)
	if n == 0 {
		return 2
	}
	frames := runtime.CallersFrames(pc[:n])
	for frame, more := frames.Next(); more; frame, more = frames.Next() {
		if strings.Contains(frame.Function, "kratos/v2/log.(*") {
			return 3
		}
	}
	return 2
}
