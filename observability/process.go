package observability

import (
	"os"

	"github.com/shirou/gopsutil/process"
)

// ProcessStats is the OS view of the running desk.
type ProcessStats struct {
	RSSBytes   uint64
	CPUPercent float64
	Status     string
}

// selfStats retrieves memory, CPU and OS status of the current process.
func selfStats() (ProcessStats, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return ProcessStats{}, err
	}
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return ProcessStats{}, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return ProcessStats{}, err
	}
	status, err := p.Status()
	if err != nil {
		return ProcessStats{}, err
	}
	return ProcessStats{RSSBytes: memInfo.RSS, CPUPercent: cpuPercent, Status: status}, nil
}
