package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(LoggingConfig{Level: "debug", Format: "json"}, &buf)

	logger.NewComponentLogger("sync").
		WithRunID("run-1").
		WithDirection("push").
		WithTable("partners").
		WithSheet("الشركاء").
		WithRows(2).
		Info("pushed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sync", entry["component"])
	assert.Equal(t, "partners", entry["table"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "push", entry["direction"])
	assert.Equal(t, "الشركاء", entry["sheet"])
	assert.EqualValues(t, 2, entry["rows"])
	assert.Equal(t, "pushed", entry["message"])
	assert.Equal(t, "info", entry["level"])
}

func TestLoggerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestFromContext(t *testing.T) {
	logger := NopLogger()
	ctx := logger.WithContext(context.Background())
	assert.Same(t, logger, FromContext(ctx))

	assert.NotNil(t, FromContext(context.Background()))
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "otlp"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Metrics.Enabled = true
	assert.Error(t, cfg.Validate())
}

func TestMetricsDisabledIsNoop(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{})
	require.NoError(t, err)

	assert.False(t, m.Enabled())
	m.RecordSync("push", "partners", "ok", 3, time.Second)
	m.RecordSchemaRepair("partners")
	m.RecordWrite("partners", "insert")
	assert.NoError(t, m.WriteTextfile())
	assert.Nil(t, m.Registry())
}

func TestMetricsTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desk.prom")
	m, err := NewMetrics(MetricsConfig{Enabled: true, TextfilePath: path, Namespace: "desk"})
	require.NoError(t, err)

	m.RecordSync("push", "partners", "ok", 3, 200*time.Millisecond)
	m.RecordSync("push", "events", "skipped", 0, time.Millisecond)
	m.RecordSchemaRepair("action_plan")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncOperations.WithLabelValues("push", "partners", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.syncRows.WithLabelValues("push", "partners")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.schemaRepairs.WithLabelValues("action_plan")))

	require.NoError(t, m.WriteTextfile())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "desk_sync_operations_total")
	assert.Contains(t, string(data), `table="partners"`)
}

func TestNopTelemetry(t *testing.T) {
	tel := Nop()
	ctx := tel.WithContext(context.Background())

	assert.Same(t, tel, FromTelemetryContext(ctx))
	assert.Same(t, tel.Logger, FromContext(ctx))

	_, span := tel.Tracer.StartSyncSpan(ctx, "push", "partners", "الشركاء")
	RecordSuccess(span)
	span.End()

	assert.NoError(t, tel.Shutdown(ctx))
}
