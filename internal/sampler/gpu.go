package sampler

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Dicklesworthstone/vitals/internal/errors"
	"github.com/Dicklesworthstone/vitals/internal/logger"
	"github.com/Dicklesworthstone/vitals/internal/model"
)

// GPUStat is one enumerated device. Load is a [0,1] fraction.
type GPUStat struct {
	Name  string
	Load  model.Float
	TempC model.Float
}

// GPUEnumerator lists discrete GPUs in driver order.
type GPUEnumerator func(ctx context.Context) ([]GPUStat, error)

// GPUReader reads load and temperature of the first discrete GPU.
type GPUReader struct {
	enumerate GPUEnumerator
	log       *zap.Logger
}

// NewGPUReader uses enumerate, or nvidia-smi with a 1s bound when nil.
func NewGPUReader(enumerate GPUEnumerator, log *zap.Logger) *GPUReader {
	if enumerate == nil {
		enumerate = NvidiaSMI(nil, time.Second)
	}
	return &GPUReader{enumerate: enumerate, log: logger.OrNop(log)}
}

// Read returns load in percent and temperature in °C. Any enumeration failure
// yields two absent values.
func (g *GPUReader) Read(ctx context.Context) (load, temp model.Float) {
	gpus, err := g.enumerate(ctx)
	if err != nil {
		g.log.Debug("gpu unavailable", zap.Error(err))
		return model.None(), model.None()
	}
	if len(gpus) == 0 {
		return model.None(), model.None()
	}
	first := gpus[0]
	if l, ok := first.Load.Get(); ok {
		load = model.Some(model.ClampPercent(l * 100))
	}
	return load, first.TempC
}

const nvidiaSMIQuery = "--query-gpu=name,utilization.gpu,temperature.gpu"

// NvidiaSMI enumerates NVIDIA GPUs through nvidia-smi, bounded by timeout
// (at most 1s). A nil run executes the real binary.
func NvidiaSMI(run func(context.Context, time.Duration, string, ...string) (string, error), timeout time.Duration) GPUEnumerator {
	if run == nil {
		run = runCmd
	}
	if timeout <= 0 || timeout > time.Second {
		timeout = time.Second
	}
	return func(ctx context.Context) ([]GPUStat, error) {
		out, err := run(ctx, timeout, "nvidia-smi", nvidiaSMIQuery, "--format=csv,noheader,nounits")
		if err != nil {
			return nil, errors.Wrap(err, "nvidia-smi failed")
		}
		return parseNvidiaSMI(out)
	}
}

// parseNvidiaSMI parses "name, utilization, temperature" CSV lines.
// Example: "NVIDIA GeForce RTX 3080, 45, 65"
func parseNvidiaSMI(output string) ([]GPUStat, error) {
	output = strings.TrimSpace(output)
	if output == "" {
		return nil, nil
	}

	first, _, _ := strings.Cut(output, "\n")
	lower := strings.ToLower(first)
	if strings.Contains(lower, "no devices") ||
		strings.Contains(lower, "failed") ||
		strings.Contains(lower, "error") {
		return nil, errors.New(errors.ErrSource, "nvidia-smi reported no usable device", "")
	}

	var gpus []GPUStat
	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		stat, err := parseSMILine(sc.Text())
		if err != nil {
			// Only the first device is sampled; a garbled line for a later
			// one must not hide it.
			if len(gpus) == 0 {
				return nil, err
			}
			continue
		}
		gpus = append(gpus, stat)
	}
	return gpus, nil
}

func parseSMILine(line string) (GPUStat, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 3 {
		return GPUStat{}, fmt.Errorf("nvidia-smi output has insufficient fields: expected 3, got %d", len(fields))
	}
	util, err := parseSMIField(fields[1])
	if err != nil {
		return GPUStat{}, fmt.Errorf("failed to parse GPU utilization: %w", err)
	}
	temp, err := parseSMIField(fields[2])
	if err != nil {
		return GPUStat{}, fmt.Errorf("failed to parse GPU temperature: %w", err)
	}
	stat := GPUStat{Name: strings.TrimSpace(fields[0]), TempC: temp}
	if u, ok := util.Get(); ok {
		stat.Load = model.Some(u / 100)
	}
	return stat, nil
}

// parseSMIField treats empty and "[N/A]"-style fields as absent.
func parseSMIField(s string) (model.Float, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "[") || strings.EqualFold(s, "N/A") {
		return model.None(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return model.None(), fmt.Errorf("%q: %w", s, err)
	}
	return model.Some(v), nil
}
