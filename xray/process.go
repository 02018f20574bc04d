package xray

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/sorooshm/sx-ui/util/common"

	"github.com/goccy/go-json"
	"go.uber.org/atomic"
)

const (
	serviceName    = "xray.service"
	commandTimeout = 15 * time.Second
)

// ProcessManager writes synthesized configuration documents to the path the
// Xray process reads from and drives the process through the host init
// system. It is the only writer of the config file; the write+reload
// sequence is serialized internally.
type ProcessManager struct {
	configPath string
	applyMu    sync.Mutex
	lastReload *atomic.Int64
}

// NewProcessManager creates a manager for the given config file path.
func NewProcessManager(configPath string) *ProcessManager {
	return &ProcessManager{
		configPath: configPath,
		lastReload: atomic.NewInt64(0),
	}
}

// Apply serializes the document to the config path and restarts the Xray
// service. The restart is only attempted after a fully successful write: the
// document is written to a temp file and renamed into place, so the process
// never observes a partial config. A failed restart leaves the new config on
// disk; Xray keeps running the old in-memory one until a later reload.
func (p *ProcessManager) Apply(config *Config) error {
	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	if err := p.writeConfig(config); err != nil {
		return fmt.Errorf("%v: %w", err, common.ErrSynthesisFailed)
	}
	if err := p.Restart(); err != nil {
		return fmt.Errorf("%v: %w", err, common.ErrReloadFailed)
	}
	return nil
}

func (p *ProcessManager) writeConfig(config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := p.configPath + ".tmp"
	if err := os.MkdirAll(path.Dir(p.configPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, p.configPath)
}

// Start starts the Xray service.
func (p *ProcessManager) Start() error {
	return p.systemctl("start")
}

// Stop stops the Xray service.
func (p *ProcessManager) Stop() error {
	return p.systemctl("stop")
}

// Restart restarts the Xray service. Safe to invoke with no prior config
// change.
func (p *ProcessManager) Restart() error {
	err := p.systemctl("restart")
	if err == nil {
		p.lastReload.Store(time.Now().Unix())
	}
	return err
}

// IsRunning reports whether the Xray service is active.
func (p *ProcessManager) IsRunning() bool {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "systemctl", "is-active", serviceName).Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) == "active"
}

// Version returns the first line of `xray --version`, or "unknown".
func (p *ProcessManager) Version() string {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "/usr/local/bin/xray", "--version").Output()
	if err != nil {
		return "unknown"
	}
	lines := strings.SplitN(strings.TrimSpace(string(out)), "\n", 2)
	return lines[0]
}

// LastReloadTime returns the unix time of the last successful restart, zero
// if none happened in this process lifetime.
func (p *ProcessManager) LastReloadTime() int64 {
	return p.lastReload.Load()
}

func (p *ProcessManager) systemctl(action string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "systemctl", action, serviceName)
	if out, err := cmd.CombinedOutput(); err != nil {
		return common.NewErrorf("systemctl %s %s: %v: %s",
			action, serviceName, err, strings.TrimSpace(string(out)))
	}
	return nil
}
