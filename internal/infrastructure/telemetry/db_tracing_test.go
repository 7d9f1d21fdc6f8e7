package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type widget struct {
	ID   int64 `gorm:"primaryKey"`
	Name string
}

func newWidgetDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&widget{}))
	return db
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db := newWidgetDB(t)
	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: false}, zaptest.NewLogger(t)))

	_, ok := db.Config.Plugins["otelgorm"]
	assert.False(t, ok)
	assert.NoError(t, db.Create(&widget{Name: "a"}).Error)
}

func TestRegisterDBTracing_SlowQuery(t *testing.T) {
	db := newWidgetDB(t)
	recorder := tracetest.NewSpanRecorder()
	cfg := DBTracingConfig{
		Enabled:        true,
		DBSystem:       "sqlite",
		TracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)),
		// every query counts as slow
		SlowQueryThresh: -1,
	}
	require.NoError(t, RegisterDBTracing(db, cfg, zaptest.NewLogger(t)))

	require.NoError(t, db.Create(&widget{Name: "bin-a"}).Error)
	var got []widget
	require.NoError(t, db.Where("name = ?", "bin-a").Find(&got).Error)
	require.Len(t, got, 1)

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	for _, span := range ended {
		assert.Contains(t, span.Attributes(), attribute.String("db.sql.table", "widgets"))
		assert.Contains(t, span.Attributes(), attribute.Bool("db.slow_query", true))
		require.NotEmpty(t, span.Events())
		assert.Equal(t, "slow_query", span.Events()[len(span.Events())-1].Name)
	}
	assert.Contains(t, ended[1].Attributes(), attribute.Int64("db.rows_affected", 1))
}

func TestRegisterDBTracing_RecordNotFoundIsNotAnError(t *testing.T) {
	db := newWidgetDB(t)
	recorder := tracetest.NewSpanRecorder()
	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{
		Enabled:         true,
		DBSystem:        "sqlite",
		TracerProvider:  sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)),
		SlowQueryThresh: time.Hour,
	}, zaptest.NewLogger(t)))

	err := db.First(&widget{}, "id = ?", 42).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	for _, ev := range ended[0].Events() {
		assert.NotEqual(t, "slow_query", ev.Name)
	}
	assert.NotContains(t, ended[0].Attributes(), attribute.Bool("db.slow_query", true))
}
