package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtapmon/pkg/protocol"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func counterWithLabel(mf *dto.MetricFamily, name, value string) float64 {
	if mf == nil {
		return 0
	}
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == name && lp.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestObserveCountsFramesFieldsAndErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New()
	require.NoError(t, m.Register(reg))

	dec := protocol.NewDecoder(nil)
	dec.SkipDot11 = true
	ok := dec.Decode("a", time.Now(), []byte{0x00, 0x00, 0x0A, 0x00, 0x06, 0x00, 0x00, 0x00, 0x10, 0x0C})
	bad := dec.Decode("a", time.Now(), []byte{0x00, 0x00, 0x09, 0x00, 0x01, 0x00, 0x00, 0x00})

	m.Observe(ok)
	m.Observe(bad)

	families := gather(t, reg)
	assert.Equal(t, 2.0, counterWithLabel(families["rtapmon_decode_frames_total"], "source", "a"))
	assert.Equal(t, 2.0, counterWithLabel(families["rtapmon_decode_fields_total"], "namespace", "standard"))
	assert.Equal(t, 1.0, counterWithLabel(families["rtapmon_decode_errors_total"], "kind", "truncated_header"))

	hist := families["rtapmon_decode_header_bytes"]
	require.NotNil(t, hist)
	assert.Equal(t, uint64(1), hist.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestNilMetricsIgnoresEveryCall(t *testing.T) {
	var m *Metrics
	reg := prometheus.NewRegistry()
	assert.NotPanics(t, func() {
		m.TrackDropped(func() uint64 { return 1 })
		require.NoError(t, m.Register(reg))
		m.Observe(protocol.Capture{})
	})

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Empty(t, families)
}

func TestTrackDroppedAndHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New()
	m.TrackDropped(func() uint64 { return 7 })
	require.NoError(t, m.Register(reg))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "rtapmon_hub_dropped_total 7"), string(body))
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, New().Register(reg))
	assert.Error(t, New().Register(reg))
}
