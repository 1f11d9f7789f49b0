package metrics

import (
	"sync"

	"notesapi/log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

var registerSystemOnce sync.Once

// RegisterSystemCollectors exposes host CPU and memory usage. Safe to call
// more than once.
func RegisterSystemCollectors() {
	registerSystemOnce.Do(func() {
		promauto.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "host_cpu_usage_percent",
				Help: "Host CPU usage since the previous scrape",
			},
			CPUUsage,
		)
		promauto.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "host_memory_used_percent",
				Help: "Host memory in use",
			},
			MemoryUsage,
		)
	})
}

// CPUUsage returns the CPU usage percentage since the last call.
func CPUUsage() float64 {
	percentage, err := cpu.Percent(0, false)
	if err != nil {
		log.Logger().Warningf(nil, "error getting CPU usage: %v", err)
		return 0
	}
	if len(percentage) > 0 {
		return percentage[0]
	}
	return 0
}

// MemoryUsage returns the used memory percentage.
func MemoryUsage() float64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Logger().Warningf(nil, "error getting memory usage: %v", err)
		return 0
	}
	return vm.UsedPercent
}
