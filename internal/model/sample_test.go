package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat(t *testing.T) {
	var zero Float
	_, ok := zero.Get()
	assert.False(t, ok, "zero value must be absent")
	assert.Nil(t, zero.Ptr())
	assert.Equal(t, 7.0, zero.Or(7))

	measuredZero := Some(0)
	v, ok := measuredZero.Get()
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)
	require.NotNil(t, measuredZero.Ptr())
	assert.Equal(t, 0.0, *measuredZero.Ptr())

	x := 41.5
	assert.Equal(t, Some(41.5), FromPtr(&x))
	assert.Equal(t, None(), FromPtr(nil))
}

func TestFloatPtrIsCopy(t *testing.T) {
	f := Some(10)
	p := f.Ptr()
	*p = 99
	assert.Equal(t, 10.0, f.V)
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 0.0, ClampPercent(-3))
	assert.Equal(t, 100.0, ClampPercent(100.4))
	assert.Equal(t, 55.5, ClampPercent(55.5))
}

func TestTimestamp(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 30, 15, 987654321, time.Local)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 30, 15, 0, time.Local), Timestamp(at))
}

func TestMetricFormat(t *testing.T) {
	tests := []struct {
		name   string
		metric Metric
		value  Float
		want   string
	}{
		{"cpu percent", CPU, Some(42), "42.0%"},
		{"measured zero load", GPULoad, Some(0), "0.0%"},
		{"absent gpu load", GPULoad, None(), Unavailable},
		{"cpu temperature", CPUTemp, Some(55), "55.0°C"},
		{"absent cpu temperature", CPUTemp, None(), Unavailable},
		{"gpu temperature", GPUTemp, Some(61.25), "61.2°C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.metric.Format(tt.value))
		})
	}
}

func TestMetricValue(t *testing.T) {
	s := Sample{
		CPUPercent:     12,
		RAMPercent:     34,
		GPULoadPercent: Some(56),
		CPUTempC:       Some(48),
	}

	assert.Equal(t, Some(12), CPU.Value(s))
	assert.Equal(t, Some(34), RAM.Value(s))
	assert.Equal(t, Some(56), GPULoad.Value(s))
	assert.Equal(t, None(), GPUTemp.Value(s))
	assert.Equal(t, Some(48), CPUTemp.Value(s))
}

func TestMetricNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, m := range Metrics {
		assert.NotEmpty(t, m.Label())
		assert.False(t, seen[m.Name()], "duplicate metric name %s", m.Name())
		seen[m.Name()] = true
	}
	assert.True(t, CPUTemp.IsTemperature())
	assert.False(t, CPU.IsTemperature())
}
