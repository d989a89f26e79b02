package model

import "fmt"

// Unavailable is the display text for a metric with no reading this tick.
const Unavailable = "N/A"

// Metric identifies one charted scalar of a Sample.
type Metric int

const (
	CPU Metric = iota
	RAM
	GPULoad
	GPUTemp
	CPUTemp
)

// Metrics lists every metric in display order.
var Metrics = []Metric{CPU, RAM, GPULoad, GPUTemp, CPUTemp}

var metricInfo = [...]struct {
	name  string
	label string
	temp  bool
}{
	CPU:     {"cpu_percent", "CPU", false},
	RAM:     {"ram_percent", "RAM", false},
	GPULoad: {"gpu_load_percent", "GPU", false},
	GPUTemp: {"gpu_temp_c", "GPU Temp", true},
	CPUTemp: {"cpu_temp_c", "CPU Temp", true},
}

// Name is the stable identifier, matching the store column.
func (m Metric) Name() string { return metricInfo[m].name }

// Label is the short human title.
func (m Metric) Label() string { return metricInfo[m].label }

// IsTemperature reports whether the metric is in degrees Celsius.
func (m Metric) IsTemperature() bool { return metricInfo[m].temp }

func (m Metric) String() string { return m.Name() }

// Value extracts the metric from s. CPU and RAM are always present.
func (m Metric) Value(s Sample) Float {
	switch m {
	case CPU:
		return Some(s.CPUPercent)
	case RAM:
		return Some(s.RAMPercent)
	case GPULoad:
		return s.GPULoadPercent
	case GPUTemp:
		return s.GPUTempC
	case CPUTemp:
		return s.CPUTempC
	}
	return None()
}

// Format renders v for display, e.g. "42.0%" or "55.0°C".
func (m Metric) Format(v Float) string {
	if !v.Valid {
		return Unavailable
	}
	if m.IsTemperature() {
		return fmt.Sprintf("%.1f°C", v.V)
	}
	return fmt.Sprintf("%.1f%%", v.V)
}
