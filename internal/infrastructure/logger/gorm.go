package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// SQLLogConfig controls what the GORM adapter writes.
type SQLLogConfig struct {
	Level gormlogger.LogLevel
	// SlowThreshold turns successful statements slower than this into
	// warnings. Zero disables the check.
	SlowThreshold time.Duration
	// Statement includes the SQL text. Bound values are inlined, so
	// production configs keep it off.
	Statement bool
	// NotFound also reports gorm.ErrRecordNotFound. Repositories translate it
	// to ErrNotFound, so it is normally noise.
	NotFound bool
}

// SQLLogger routes GORM's statement trace into zap. Statements come out at
// debug; failures at error; slow statements at warn.
type SQLLogger struct {
	log *zap.Logger
	cfg SQLLogConfig
}

func NewSQLLogger(log *zap.Logger, cfg SQLLogConfig) *SQLLogger {
	return &SQLLogger{log: log, cfg: cfg}
}

func (l *SQLLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cfg := l.cfg
	cfg.Level = level
	return &SQLLogger{log: l.log, cfg: cfg}
}

func (l *SQLLogger) Info(_ context.Context, format string, args ...any) {
	l.printf(gormlogger.Info, zap.InfoLevel, format, args)
}

func (l *SQLLogger) Warn(_ context.Context, format string, args ...any) {
	l.printf(gormlogger.Warn, zap.WarnLevel, format, args)
}

func (l *SQLLogger) Error(_ context.Context, format string, args ...any) {
	l.printf(gormlogger.Error, zap.ErrorLevel, format, args)
}

func (l *SQLLogger) printf(min gormlogger.LogLevel, lvl zapcore.Level, format string, args []any) {
	if l.cfg.Level < min {
		return
	}
	if ce := l.log.Check(lvl, fmt.Sprintf(format, args...)); ce != nil {
		ce.Write()
	}
}

func (l *SQLLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.cfg.Level <= gormlogger.Silent {
		return
	}
	took := time.Since(begin)

	var msg string
	lvl := zap.DebugLevel
	switch {
	case err != nil:
		if l.cfg.Level < gormlogger.Error || (!l.cfg.NotFound && errors.Is(err, gormlogger.ErrRecordNotFound)) {
			return
		}
		msg, lvl = "sql failed", zap.ErrorLevel
	case l.cfg.SlowThreshold > 0 && took > l.cfg.SlowThreshold:
		if l.cfg.Level < gormlogger.Warn {
			return
		}
		msg, lvl = "slow sql", zap.WarnLevel
	default:
		if l.cfg.Level < gormlogger.Info {
			return
		}
		msg = "sql"
	}

	ce := l.log.Check(lvl, msg)
	if ce == nil {
		return
	}
	stmt, rows := fc()
	fields := append(make([]zap.Field, 0, 6),
		zap.Duration("took", took),
		zap.Int64("rows", rows),
	)
	if lvl == zap.WarnLevel {
		fields = append(fields, zap.Duration("threshold", l.cfg.SlowThreshold))
	}
	if l.cfg.Statement {
		fields = append(fields, zap.String("sql", stmt))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	ce.Write(append(fields, ContextFields(ctx)...)...)
}

// MapGormLogLevel turns the application log level into the GORM one.
// Unknown names fall back to warn.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	if lvl, ok := gormLevels[level]; ok {
		return lvl
	}
	return gormlogger.Warn
}

var gormLevels = map[string]gormlogger.LogLevel{
	"silent": gormlogger.Silent,
	"error":  gormlogger.Error,
	"warn":   gormlogger.Warn,
	"info":   gormlogger.Info,
	"debug":  gormlogger.Info,
}

var _ gormlogger.Interface = (*SQLLogger)(nil)
