package sampler

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/Dicklesworthstone/vitals/internal/logger"
	"github.com/Dicklesworthstone/vitals/internal/model"
)

// Source produces one reconciled sample per call.
type Source interface {
	Collect(ctx context.Context) model.Sample
}

// Collector assembles a Sample from OS counters, the GPU reader and the CPU
// temperature resolver. Sources are read sequentially and a failed source is
// recorded as absent for this tick only.
type Collector struct {
	temps *TempResolver
	gpu   *GPUReader // nil disables GPU sampling
	log   *zap.Logger

	// Overridable for tests.
	now        func() time.Time
	cpuPercent func(ctx context.Context) (float64, error)
	memPercent func(ctx context.Context) (float64, error)
}

// NewCollector wires the sources. gpu may be nil.
func NewCollector(temps *TempResolver, gpu *GPUReader, log *zap.Logger) *Collector {
	return &Collector{
		temps:      temps,
		gpu:        gpu,
		log:        logger.OrNop(log),
		now:        time.Now,
		cpuPercent: cpuPercent,
		memPercent: memPercent,
	}
}

// Collect reads every source once. It never sleeps: CPU load is the delta
// since the previous call, so the loop interval defines the averaging window.
func (c *Collector) Collect(ctx context.Context) model.Sample {
	s := model.Sample{CapturedAt: model.Timestamp(c.now())}

	if v, err := c.cpuPercent(ctx); err != nil {
		c.log.Warn("cpu counters unavailable", zap.Error(err))
	} else {
		s.CPUPercent = model.ClampPercent(v)
	}
	if v, err := c.memPercent(ctx); err != nil {
		c.log.Warn("memory counters unavailable", zap.Error(err))
	} else {
		s.RAMPercent = model.ClampPercent(v)
	}

	if c.gpu != nil {
		s.GPULoadPercent, s.GPUTempC = c.gpu.Read(ctx)
	}
	if c.temps != nil {
		if v, ok := c.temps.Resolve(ctx); ok {
			s.CPUTempC = model.Some(v)
		}
	}
	return s
}

// cpuPercent is non-blocking: with a zero interval gopsutil compares against
// the times recorded by its previous call.
func cpuPercent(ctx context.Context) (float64, error) {
	pct, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(pct) == 0 {
		return 0, nil
	}
	return pct[0], nil
}

func memPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}
