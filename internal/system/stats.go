package system

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a resource snapshot of the running process.
type Stats struct {
	CPUPercent  float64
	RSS         uint64
	HostUsedPct float64
	Goroutines  int
	NumGC       uint32
}

func (s Stats) String() string {
	return fmt.Sprintf("cpu=%.1f%% rss=%.1fMiB host_mem=%.1f%% goroutines=%d gc=%d",
		s.CPUPercent, float64(s.RSS)/(1<<20), s.HostUsedPct, s.Goroutines, s.NumGC)
}

// Monitor samples process statistics through gopsutil.
type Monitor struct {
	proc  *process.Process
	start time.Time
}

// NewMonitor attaches to the current process.
func NewMonitor() (*Monitor, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("attach to process: %w", err)
	}
	return &Monitor{proc: p, start: time.Now()}, nil
}

// Sample reads the current statistics. Fields that cannot be read on this
// platform stay zero.
func (m *Monitor) Sample(ctx context.Context) (Stats, error) {
	var s Stats
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s.Goroutines = runtime.NumGoroutine()
	s.NumGC = ms.NumGC

	cpu, err := m.proc.CPUPercentWithContext(ctx)
	if err != nil {
		return s, fmt.Errorf("cpu percent: %w", err)
	}
	s.CPUPercent = cpu

	info, err := m.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return s, fmt.Errorf("memory info: %w", err)
	}
	s.RSS = info.RSS

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.HostUsedPct = vm.UsedPercent
	}
	return s, nil
}

// Uptime returns the time since the monitor was created.
func (m *Monitor) Uptime() time.Duration {
	return time.Since(m.start)
}
