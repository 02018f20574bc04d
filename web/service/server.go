package service

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/sorooshm/sx-ui/config"
	"github.com/sorooshm/sx-ui/xray"
)

// ServerStatus is a point-in-time snapshot of host resources and the Xray
// process state.
type ServerStatus struct {
	CPUUsage float64 `json:"cpuUsage"`
	CPUCores int     `json:"cpuCores"`

	MemTotal  uint64  `json:"memTotal"`
	MemUsed   uint64  `json:"memUsed"`
	MemUsage  float64 `json:"memUsage"`
	SwapTotal uint64  `json:"swapTotal"`
	SwapUsed  uint64  `json:"swapUsed"`
	SwapUsage float64 `json:"swapUsage"`

	DiskTotal uint64  `json:"diskTotal"`
	DiskUsed  uint64  `json:"diskUsed"`
	DiskUsage float64 `json:"diskUsage"`

	Uptime int64  `json:"uptime"`
	OS     string `json:"os"`
	Arch   string `json:"arch"`

	PanelVersion string `json:"panelVersion"`
	XrayRunning  bool   `json:"xrayRunning"`
	XrayVersion  string `json:"xrayVersion"`
	Timestamp    int64  `json:"timestamp"`
}

// ServerService reports host and process status. Thin wrapper, no state.
type ServerService struct {
	proc *xray.ProcessManager
}

// NewServerService creates the service around the given process manager.
func NewServerService(proc *xray.ProcessManager) *ServerService {
	return &ServerService{proc: proc}
}

// GetStatus collects the current snapshot. Individual collector failures
// leave their fields zeroed rather than failing the whole call.
func (s *ServerService) GetStatus() *ServerStatus {
	status := &ServerStatus{
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
		PanelVersion: config.GetVersion(),
		XrayRunning:  s.proc.IsRunning(),
		XrayVersion:  s.proc.Version(),
		Timestamp:    time.Now().Unix(),
	}

	cpuPercents, err := cpu.Percent(time.Second, false)
	if err == nil && len(cpuPercents) > 0 {
		status.CPUUsage = cpuPercents[0]
	}
	cpuCounts, err := cpu.Counts(false)
	if err == nil {
		status.CPUCores = cpuCounts
	}

	vmem, err := mem.VirtualMemory()
	if err == nil {
		status.MemTotal = vmem.Total
		status.MemUsed = vmem.Used
		status.MemUsage = vmem.UsedPercent
	}

	swap, err := mem.SwapMemory()
	if err == nil {
		status.SwapTotal = swap.Total
		status.SwapUsed = swap.Used
		status.SwapUsage = swap.UsedPercent
	}

	diskStat, err := disk.Usage("/")
	if err == nil {
		status.DiskTotal = diskStat.Total
		status.DiskUsed = diskStat.Used
		status.DiskUsage = diskStat.UsedPercent
	}

	hostInfo, err := host.Info()
	if err == nil {
		status.Uptime = int64(hostInfo.Uptime)
	}

	return status
}
