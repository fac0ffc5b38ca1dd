package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCommand(t *testing.T) {
	m := New()
	m.RecordCommand("chrome", "CmdFind", "handled")
	m.RecordCommand("chrome", "CmdFind", "handled")
	m.RecordCommand("chrome", "Bogus", "not_handled")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Commands.WithLabelValues("chrome", "CmdFind", "handled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues("chrome", "Bogus", "not_handled")))
}

func TestActivationGauge(t *testing.T) {
	m := New()
	m.ActivationStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActivationsActive))
	m.ActivationFinished("PhraseSpeakAgent", "ok")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActivationsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Activations.WithLabelValues("PhraseSpeakAgent", "ok")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.RecordCommand("a", "b", "c")
	m.RecordPanel("Alphabet")
	m.RecordFocusChange("chrome", true)
	m.RecordPrediction("ok", time.Millisecond)
	m.ActivationStarted()
	m.ActivationFinished("x", "ok")
	assert.Nil(t, m.Registry())
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordPanel("Alphabet")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `appagent_panels_shown_total{panel="Alphabet"} 1`))
}
