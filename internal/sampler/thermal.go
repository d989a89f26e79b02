package sampler

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"

	"github.com/Dicklesworthstone/vitals/internal/logger"
)

// Plausible CPU temperatures in °C. Anything outside is a parse artifact or a
// disconnected sensor.
const (
	minPlausibleC = -20
	maxPlausibleC = 150
)

// tempToken matches readings such as "+55.0°C", "-3°" or "48.5 °F".
var tempToken = regexp.MustCompile(`([+-]?\d+(?:\.\d+)?)\s*°\s*[CF]?`)

// cpuZoneMarkers identify processor-related thermal zone types.
var cpuZoneMarkers = []string{"cpu", "pkg", "package", "core", "k10temp", "tctl", "soc", "x86"}

// TempOptions configures the CPU temperature fallback chain. Zero values use
// the platform defaults.
type TempOptions struct {
	// Sensors queries the hardware sensor API.
	Sensors func(ctx context.Context) ([]host.TemperatureStat, error)
	// Run executes the diagnostic command and returns its output.
	Run func(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error)
	// Command is the diagnostic tool, typically "sensors". Empty skips the
	// command fallback.
	Command     string
	ToolTimeout time.Duration
	// ThermalRoot is the thermal zone tree, /sys/class/thermal by default.
	ThermalRoot string
	Logger      *zap.Logger
}

type tempAttempt struct {
	name string
	fn   func(ctx context.Context) (float64, bool)
}

// TempResolver produces one CPU temperature estimate by trying the sensor API,
// the diagnostic command and the thermal zone tree in that order.
type TempResolver struct {
	opts     TempOptions
	attempts []tempAttempt
	log      *zap.Logger
}

func NewTempResolver(opts TempOptions) *TempResolver {
	if opts.Sensors == nil {
		opts.Sensors = host.SensorsTemperaturesWithContext
	}
	if opts.Run == nil {
		opts.Run = runCmd
	}
	if opts.ToolTimeout <= 0 || opts.ToolTimeout > time.Second {
		opts.ToolTimeout = time.Second
	}
	if opts.ThermalRoot == "" {
		opts.ThermalRoot = "/sys/class/thermal"
	}
	r := &TempResolver{opts: opts, log: logger.OrNop(opts.Logger)}
	r.attempts = []tempAttempt{
		{"sensor_api", r.fromSensorAPI},
		{"command", r.fromCommand},
		{"thermal_zone", r.fromThermalZones},
	}
	return r
}

// Resolve returns the first successful estimate. false means every source
// came up empty and the reading must be shown as unavailable.
func (r *TempResolver) Resolve(ctx context.Context) (float64, bool) {
	for _, a := range r.attempts {
		if v, ok := a.fn(ctx); ok {
			r.log.Debug("cpu temperature resolved", zap.String("source", a.name), zap.Float64("celsius", v))
			return v, true
		}
	}
	r.log.Debug("cpu temperature unavailable")
	return 0, false
}

func (r *TempResolver) fromSensorAPI(ctx context.Context) (float64, bool) {
	stats, err := r.opts.Sensors(ctx)
	if err != nil && len(stats) == 0 {
		r.log.Debug("sensor api unavailable", zap.Error(err))
		return 0, false
	}
	vals := make([]float64, 0, len(stats))
	for _, s := range stats {
		if math.IsNaN(s.Temperature) {
			continue
		}
		vals = append(vals, s.Temperature)
	}
	return mean(vals)
}

func (r *TempResolver) fromCommand(ctx context.Context) (float64, bool) {
	if r.opts.Command == "" {
		return 0, false
	}
	out, err := r.opts.Run(ctx, r.opts.ToolTimeout, r.opts.Command)
	if err != nil {
		r.log.Debug("diagnostic command failed", zap.String("command", r.opts.Command), zap.Error(err))
		return 0, false
	}
	return mean(parseTempTokens(out))
}

func (r *TempResolver) fromThermalZones(context.Context) (float64, bool) {
	zones, _ := filepath.Glob(filepath.Join(r.opts.ThermalRoot, "thermal_zone*"))
	var vals []float64
	for _, zone := range zones {
		b, err := os.ReadFile(filepath.Join(zone, "temp"))
		if err != nil {
			continue
		}
		raw, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
		if err != nil {
			continue
		}
		c := normalizeZoneTemp(raw)
		if !plausible(c) {
			continue
		}
		if typ, err := os.ReadFile(filepath.Join(zone, "type")); err == nil && !isCPUZone(string(typ)) {
			continue
		}
		vals = append(vals, c)
	}
	return mean(vals)
}

// parseTempTokens extracts plausible temperatures from free-form tool output.
func parseTempTokens(out string) []float64 {
	var vals []float64
	for _, m := range tempToken.FindAllStringSubmatch(out, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil || !plausible(v) {
			continue
		}
		vals = append(vals, v)
	}
	return vals
}

// normalizeZoneTemp converts millidegree readings to degrees. Values already
// in degrees pass through unchanged.
func normalizeZoneTemp(raw float64) float64 {
	if math.Abs(raw) > 1000 {
		return raw / 1000
	}
	return raw
}

func isCPUZone(typ string) bool {
	typ = strings.ToLower(strings.TrimSpace(typ))
	for _, marker := range cpuZoneMarkers {
		if strings.Contains(typ, marker) {
			return true
		}
	}
	return false
}

func plausible(c float64) bool {
	return c >= minPlausibleC && c <= maxPlausibleC
}

func mean(vals []float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals)), true
}
