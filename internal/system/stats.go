// Package system provides host resource sampling for the status endpoint:
// CPU utilization, virtual memory, and root filesystem usage.
package system

import (
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// Stats is the system portion of the status payload.
type Stats struct {
	CPUPercent float64     `json:"cpu_percent"`
	Memory     MemoryStats `json:"memory"`
	Disk       DiskStats   `json:"disk"`
}

// MemoryStats describes virtual memory usage.
type MemoryStats struct {
	Total     uint64  `json:"total"`
	Available uint64  `json:"available"`
	Percent   float64 `json:"percent"`
}

// DiskStats describes root filesystem usage.
type DiskStats struct {
	Total   uint64  `json:"total"`
	Free    uint64  `json:"free"`
	Percent float64 `json:"percent"`
}

// Sampler collects host resource statistics. Sampling failures degrade to
// zero values so the status endpoint never fails on their account.
type Sampler struct {
	logger zerolog.Logger
}

// NewSampler creates a host statistics sampler.
func NewSampler(logger zerolog.Logger) *Sampler {
	return &Sampler{logger: logger}
}

// Sample collects the current CPU, memory, and disk statistics. Each probe
// that fails is logged and leaves its section zeroed.
func (s *Sampler) Sample() Stats {
	var stats Stats

	if percents, err := cpu.Percent(0, false); err != nil {
		s.logger.Warn().Err(err).Msg("cpu sampling failed")
	} else if len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		s.logger.Warn().Err(err).Msg("memory sampling failed")
	} else {
		stats.Memory = MemoryStats{
			Total:     vm.Total,
			Available: vm.Available,
			Percent:   vm.UsedPercent,
		}
	}

	if usage, err := disk.Usage("/"); err != nil {
		s.logger.Warn().Err(err).Msg("disk sampling failed")
	} else {
		stats.Disk = DiskStats{
			Total:   usage.Total,
			Free:    usage.Free,
			Percent: usage.UsedPercent,
		}
	}

	return stats
}
