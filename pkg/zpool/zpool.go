// Package zpool adapts the external pool statistics source. The kernel's
// pool configuration nvlist is obtained by running a configurable command
// that prints the trees as JSON, keyed by pool name; this package execs
// that command, decodes the document and exposes typed pool handles.
//
// Note: a wedged pool can make the underlying command block indefinitely.
// There is deliberately no retry and no in-process watchdog here; keeping
// the process small lets operators discard a stuck instance without losing
// other collectors.
package zpool

import (
	"fmt"
	"os/exec"
	"sort"

	"github.com/richardelling/zpool-influxdb/pkg/config"
	"github.com/richardelling/zpool-influxdb/pkg/nvlist"
	"k8s.io/klog/v2"
)

// Handle is the entry point to the statistics source.
type Handle struct {
	config *config.Config
}

// Init creates a handle and verifies the configured dump command exists.
// Failure here is fatal for the process.
func Init(cfg *config.Config) (*Handle, error) {
	if len(cfg.ZpoolConfigCmd) == 0 {
		return nil, fmt.Errorf("zpool: no config dump command configured")
	}
	if _, err := exec.LookPath(cfg.ZpoolConfigCmd[0]); err != nil {
		return nil, fmt.Errorf("zpool: cannot initialize stats source: %w", err)
	}
	return &Handle{config: cfg}, nil
}

// Pool is one imported pool. Its configuration tree is replaced wholesale
// on every refresh and discarded after encoding; nothing persists between
// sampling passes.
type Pool struct {
	handle *Handle
	name   string
	config *nvlist.List
}

// Name returns the pool name as reported by the source, unescaped.
func (p *Pool) Name() string {
	return p.name
}

// Config returns the most recently refreshed configuration tree.
func (p *Pool) Config() *nvlist.List {
	return p.config
}

// RefreshStats re-reads the pool configuration from the source. The call
// blocks until the command completes; on broken pools that can be a very
// long time.
func (p *Pool) RefreshStats() error {
	pools, err := p.handle.readConfig()
	if err != nil {
		return fmt.Errorf("pool %s: stats unavailable: %w", p.name, err)
	}
	cfg, ok := pools[p.name]
	if !ok {
		return fmt.Errorf("pool %s: stats unavailable: pool no longer imported", p.name)
	}
	p.config = cfg
	return nil
}

// Pools lists the imported pools, sorted by name for deterministic output.
func (h *Handle) Pools() ([]*Pool, error) {
	configs, err := h.readConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}

	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	pools := make([]*Pool, 0, len(names))
	for _, name := range names {
		pools = append(pools, &Pool{handle: h, name: name, config: configs[name]})
	}
	return pools, nil
}

// readConfig runs the dump command once and decodes the per-pool trees.
func (h *Handle) readConfig() (map[string]*nvlist.List, error) {
	argv := h.config.ZpoolConfigCmd
	h.logCommand(argv)

	cmd := exec.Command(argv[0], argv[1:]...)
	output, err := cmd.Output()
	if err != nil {
		exitCode := 0
		var stderr []byte
		if exitError, ok := err.(*exec.ExitError); ok {
			exitCode = exitError.ExitCode()
			stderr = exitError.Stderr
		}
		h.logCommandResult(exitCode, output, stderr)
		return nil, fmt.Errorf("command failed: %w", err)
	}
	h.logCommandResult(0, output, nil)

	return decodePools(output)
}

// logCommand logs the command being executed if debug mode is enabled
func (h *Handle) logCommand(cmdArgs []string) {
	if h.config.IsDebug() {
		klog.V(1).Infof(" Executing command: %v", cmdArgs)
	}
}

// logCommandResult logs the command result if debug mode is enabled
func (h *Handle) logCommandResult(exitCode int, stdout, stderr []byte) {
	if h.config.IsDebug() {
		klog.V(1).Infof(" Exit code: %d", exitCode)
		if len(stdout) > 0 {
			klog.V(1).Infof(" stdout: %s", string(stdout))
		}
		if len(stderr) > 0 {
			klog.V(1).Infof(" stderr: %s", string(stderr))
		}
	}
}
