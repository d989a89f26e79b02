package sampler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/vitals/internal/model"
)

func TestGPUReaderFirstDeviceOnly(t *testing.T) {
	r := NewGPUReader(func(context.Context) ([]GPUStat, error) {
		return []GPUStat{
			{Name: "first", Load: model.Some(0.45), TempC: model.Some(65)},
			{Name: "second", Load: model.Some(0.99), TempC: model.Some(80)},
		}, nil
	}, nil)

	load, temp := r.Read(context.Background())
	assert.Equal(t, model.Some(45), load)
	assert.Equal(t, model.Some(65), temp)
}

func TestGPUReaderEnumerationError(t *testing.T) {
	r := NewGPUReader(func(context.Context) ([]GPUStat, error) {
		return nil, errors.New("NVML: driver not loaded")
	}, nil)

	load, temp := r.Read(context.Background())
	assert.False(t, load.Valid)
	assert.False(t, temp.Valid)
}

func TestGPUReaderNoDevices(t *testing.T) {
	r := NewGPUReader(func(context.Context) ([]GPUStat, error) { return nil, nil }, nil)

	load, temp := r.Read(context.Background())
	assert.Equal(t, model.None(), load)
	assert.Equal(t, model.None(), temp)
}

func TestGPUReaderLoadWithoutTemperature(t *testing.T) {
	r := NewGPUReader(func(context.Context) ([]GPUStat, error) {
		return []GPUStat{{Load: model.Some(0)}}, nil
	}, nil)

	load, temp := r.Read(context.Background())
	assert.Equal(t, model.Some(0), load, "measured idle is zero, not absent")
	assert.False(t, temp.Valid)
}

func TestParseNvidiaSMI(t *testing.T) {
	tests := []struct {
		name      string
		output    string
		wantCount int
		wantLoad  model.Float
		wantTemp  model.Float
		wantErr   bool
	}{
		{
			name:      "single gpu",
			output:    "NVIDIA GeForce RTX 3080, 45, 65\n",
			wantCount: 1,
			wantLoad:  model.Some(0.45),
			wantTemp:  model.Some(65),
		},
		{
			name:      "idle gpu",
			output:    "NVIDIA GeForce GTX 1080 Ti, 0, 42",
			wantCount: 1,
			wantLoad:  model.Some(0),
			wantTemp:  model.Some(42),
		},
		{
			name:      "temperature not supported",
			output:    "NVIDIA A100, 98, [N/A]",
			wantCount: 1,
			wantLoad:  model.Some(0.98),
			wantTemp:  model.None(),
		},
		{
			name:      "two gpus",
			output:    "GPU A, 10, 50\nGPU B, 20, 60",
			wantCount: 2,
			wantLoad:  model.Some(0.10),
			wantTemp:  model.Some(50),
		},
		{
			name:      "garbled second gpu keeps the first",
			output:    "GPU A, 35, 61\nGPU B, ???",
			wantCount: 1,
			wantLoad:  model.Some(0.35),
			wantTemp:  model.Some(61),
		},
		{
			name:      "unparsable later field",
			output:    "GPU A, 35, 61\nGPU B, busy, 70\nGPU C, 5, 40",
			wantCount: 2,
			wantLoad:  model.Some(0.35),
			wantTemp:  model.Some(61),
		},
		{
			name:      "error text on a later line",
			output:    "GPU A, 35, 61\nGPU B failed: Unknown Error",
			wantCount: 1,
			wantLoad:  model.Some(0.35),
			wantTemp:  model.Some(61),
		},
		{
			name:    "garbled first gpu",
			output:  "GPU A, ???\nGPU B, 20, 60",
			wantErr: true,
		},
		{
			name:      "empty output",
			output:    "",
			wantCount: 0,
		},
		{
			name:    "no devices",
			output:  "No devices were found",
			wantErr: true,
		},
		{
			name:    "driver failure",
			output:  "NVIDIA-SMI has failed because it couldn't communicate with the NVIDIA driver.",
			wantErr: true,
		},
		{
			name:    "insufficient fields",
			output:  "NVIDIA RTX 4090, 50",
			wantErr: true,
		},
		{
			name:    "bad utilization",
			output:  "NVIDIA RTX 4090, lots, 50",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gpus, err := parseNvidiaSMI(tt.output)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, gpus, tt.wantCount)
			if tt.wantCount == 0 {
				return
			}
			assert.InDelta(t, tt.wantLoad.V, gpus[0].Load.V, 1e-9)
			assert.Equal(t, tt.wantLoad.Valid, gpus[0].Load.Valid)
			assert.Equal(t, tt.wantTemp, gpus[0].TempC)
		})
	}
}

func TestNvidiaSMIEnumerator(t *testing.T) {
	var gotName string
	var gotTimeout time.Duration
	run := func(_ context.Context, timeout time.Duration, name string, _ ...string) (string, error) {
		gotName, gotTimeout = name, timeout
		return "RTX, 30, 55", nil
	}

	gpus, err := NvidiaSMI(run, 750*time.Millisecond)(context.Background())
	require.NoError(t, err)
	require.Len(t, gpus, 1)
	assert.Equal(t, "nvidia-smi", gotName)
	assert.Equal(t, 750*time.Millisecond, gotTimeout)

	failing := func(context.Context, time.Duration, string, ...string) (string, error) {
		return "", errors.New("executable file not found")
	}
	r := NewGPUReader(NvidiaSMI(failing, time.Second), nil)
	load, temp := r.Read(context.Background())
	assert.False(t, load.Valid)
	assert.False(t, temp.Valid)
}

func TestNvidiaSMIClampsTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{"configured", 300 * time.Millisecond, 300 * time.Millisecond},
		{"unset", 0, time.Second},
		{"above bound", 5 * time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got time.Duration
			run := func(_ context.Context, timeout time.Duration, _ string, _ ...string) (string, error) {
				got = timeout
				return "GPU, 1, 40", nil
			}
			_, err := NvidiaSMI(run, tt.timeout)(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGPUReaderSurvivesGarbledSecondDevice(t *testing.T) {
	run := func(context.Context, time.Duration, string, ...string) (string, error) {
		return "RTX 4090, 80, 71\nRTX 4090, 7\n", nil
	}
	load, temp := NewGPUReader(NvidiaSMI(run, time.Second), nil).Read(context.Background())
	require.True(t, load.Valid)
	assert.InDelta(t, 80.0, load.V, 1e-9)
	assert.Equal(t, model.Some(71), temp)
}
