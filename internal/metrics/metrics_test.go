package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveEscalation_IncrementsLabeledCounter(t *testing.T) {
	r := New()
	r.ObserveEscalation("NODE_FAILOVER")
	r.ObserveEscalation("NODE_FAILOVER")

	m := &dto.Metric{}
	require.NoError(t, r.EscalationCount.WithLabelValues("NODE_FAILOVER").Write(m))
	assert.Equal(t, float64(2), m.GetCounter().GetValue())
}

func TestGapHandler_RecordsMsgIDGap(t *testing.T) {
	r := New()
	h := GapHandler{Registry: r}
	h.FatalMsgIDGap("node1", 5, 7)

	m := &dto.Metric{}
	require.NoError(t, r.MsgIDGaps.WithLabelValues("node1").Write(m))
	assert.Equal(t, float64(1), m.GetCounter().GetValue())
}

func TestObserveCCBResolution_RecordsHistogram(t *testing.T) {
	r := New()
	r.ObserveCCBResolution("apply", 250*time.Millisecond)

	m := &dto.Metric{}
	require.NoError(t, r.CCBResolution.WithLabelValues("apply").Write(m))
	assert.Equal(t, uint64(1), m.GetHistogram().GetSampleCount())
}

func TestSetSGState_OnlyCurrentStateIsOne(t *testing.T) {
	r := New()
	r.SetSGState("sg1", "STABLE", []string{"STABLE", "REALIGN", "ADMIN"})

	m := &dto.Metric{}
	require.NoError(t, r.SGState.WithLabelValues("sg1", "STABLE").Write(m))
	assert.Equal(t, float64(1), m.GetGauge().GetValue())

	require.NoError(t, r.SGState.WithLabelValues("sg1", "REALIGN").Write(m))
	assert.Equal(t, float64(0), m.GetGauge().GetValue())
}

func TestMustRegister_RegistersAllCollectors(t *testing.T) {
	r := New()
	reg := prometheus.NewRegistry()
	assert.NotPanics(t, func() { r.MustRegister(reg) })
}
