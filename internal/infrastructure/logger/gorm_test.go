package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObserved(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, recorded := observer.New(level)
	return zap.New(core), recorded
}

func selectStock() (string, int64) {
	return "SELECT * FROM stock_records WHERE product_id = 'p1'", 1
}

func fieldValue(entry observer.LoggedEntry, key string) (string, bool) {
	for _, f := range entry.Context {
		if f.Key == key {
			return f.String, true
		}
	}
	return "", false
}

func TestSQLLogger_LogMode(t *testing.T) {
	zl, _ := newObserved(zapcore.InfoLevel)
	base := NewSQLLogger(zl, SQLLogConfig{Level: gormlogger.Info, Statement: true})

	changed, ok := base.LogMode(gormlogger.Warn).(*SQLLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Info, base.cfg.Level)
	assert.Equal(t, gormlogger.Warn, changed.cfg.Level)
	assert.True(t, changed.cfg.Statement)
}

func TestSQLLogger_Trace(t *testing.T) {
	tests := []struct {
		name      string
		cfg       SQLLogConfig
		begin     time.Time
		err       error
		wantMsg   string
		wantLevel zapcore.Level
	}{
		{name: "failure", cfg: SQLLogConfig{Level: gormlogger.Error}, begin: time.Now(), err: errors.New("boom"), wantMsg: "sql failed", wantLevel: zapcore.ErrorLevel},
		{name: "record not found is dropped", cfg: SQLLogConfig{Level: gormlogger.Info}, begin: time.Now(), err: gormlogger.ErrRecordNotFound},
		{
			name:      "record not found when asked",
			cfg:       SQLLogConfig{Level: gormlogger.Error, NotFound: true},
			begin:     time.Now(),
			err:       gormlogger.ErrRecordNotFound,
			wantMsg:   "sql failed",
			wantLevel: zapcore.ErrorLevel,
		},
		{
			name:      "slow statement",
			cfg:       SQLLogConfig{Level: gormlogger.Warn, SlowThreshold: time.Nanosecond},
			begin:     time.Now().Add(-time.Second),
			wantMsg:   "slow sql",
			wantLevel: zapcore.WarnLevel,
		},
		{name: "slow check disabled", cfg: SQLLogConfig{Level: gormlogger.Warn}, begin: time.Now().Add(-time.Hour)},
		{name: "statement at info", cfg: SQLLogConfig{Level: gormlogger.Info}, begin: time.Now(), wantMsg: "sql", wantLevel: zapcore.DebugLevel},
		{name: "statement below info", cfg: SQLLogConfig{Level: gormlogger.Warn}, begin: time.Now()},
		{name: "silent", cfg: SQLLogConfig{Level: gormlogger.Silent}, begin: time.Now(), err: errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zl, recorded := newObserved(zapcore.DebugLevel)
			NewSQLLogger(zl, tt.cfg).Trace(context.Background(), tt.begin, selectStock, tt.err)

			if tt.wantMsg == "" {
				assert.Empty(t, recorded.All())
				return
			}
			logs := recorded.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.wantMsg, logs[0].Message)
			assert.Equal(t, tt.wantLevel, logs[0].Level)
		})
	}
}

func TestSQLLogger_TraceFields(t *testing.T) {
	t.Run("carries actor from context", func(t *testing.T) {
		zl, recorded := newObserved(zapcore.DebugLevel)
		sqlLog := NewSQLLogger(zl, SQLLogConfig{Level: gormlogger.Info})

		sqlLog.Trace(WithActor(context.Background(), "cashier-7"), time.Now(), selectStock, nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		actor, ok := fieldValue(logs[0], "actor")
		require.True(t, ok)
		assert.Equal(t, "cashier-7", actor)
	})

	t.Run("statement text only when enabled", func(t *testing.T) {
		for _, enabled := range []bool{true, false} {
			zl, recorded := newObserved(zapcore.DebugLevel)
			NewSQLLogger(zl, SQLLogConfig{Level: gormlogger.Info, Statement: enabled}).
				Trace(context.Background(), time.Now(), selectStock, nil)

			logs := recorded.All()
			require.Len(t, logs, 1)
			stmt, ok := fieldValue(logs[0], "sql")
			assert.Equal(t, enabled, ok)
			if enabled {
				assert.Contains(t, stmt, "stock_records")
			}
		}
	})

	t.Run("skips the statement callback when nothing is written", func(t *testing.T) {
		zl, _ := newObserved(zapcore.InfoLevel)
		called := false
		NewSQLLogger(zl, SQLLogConfig{Level: gormlogger.Info}).
			Trace(context.Background(), time.Now(), func() (string, int64) { called = true; return "", 0 }, nil)
		assert.False(t, called)
	})
}

func TestSQLLogger_Messages(t *testing.T) {
	zl, recorded := newObserved(zapcore.DebugLevel)
	sqlLog := NewSQLLogger(zl, SQLLogConfig{Level: gormlogger.Warn})

	sqlLog.Info(context.Background(), "migrated %d tables", 3)
	sqlLog.Warn(context.Background(), "pool size %d", 2)
	sqlLog.Error(context.Background(), "lost connection")

	logs := recorded.All()
	require.Len(t, logs, 2)
	assert.Equal(t, "pool size 2", logs[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, logs[1].Level)
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"", gormlogger.Warn},
		{"verbose", gormlogger.Warn},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}
