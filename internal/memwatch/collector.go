package memwatch

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessSample is one running process and its resident set size.
type ProcessSample struct {
	Name string
	RSS  uint64
}

// ProcessLister snapshots the running processes.
type ProcessLister interface {
	Processes(ctx context.Context) ([]ProcessSample, error)
}

// SystemProcesses reads the host process table through gopsutil.
type SystemProcesses struct{}

func (SystemProcesses) Processes(ctx context.Context) ([]ProcessSample, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	samples := make([]ProcessSample, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// Exited between listing and inspection.
			continue
		}
		mem, err := p.MemoryInfoWithContext(ctx)
		if err != nil || mem == nil {
			continue
		}
		samples = append(samples, ProcessSample{Name: name, RSS: mem.RSS})
	}
	return samples, nil
}

// Collector sums resident memory per process name.
type Collector struct {
	lister ProcessLister
	names  []string
}

func NewCollector(lister ProcessLister, names []string) *Collector {
	return &Collector{lister: lister, names: names}
}

// Collect returns the total RSS in bytes for every watched name that has at
// least one running process. Names with no process are absent from the map.
func (c *Collector) Collect(ctx context.Context) (map[string]uint64, error) {
	if len(c.names) == 0 {
		return nil, errors.New("no process names to watch")
	}
	samples, err := c.lister.Processes(ctx)
	if err != nil {
		return nil, err
	}
	usage := make(map[string]uint64)
	for _, s := range samples {
		if slices.Contains(c.names, s.Name) {
			usage[s.Name] += s.RSS
		}
	}
	return usage, nil
}
