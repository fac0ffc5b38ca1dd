package process

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Resolver maps PIDs to process names using /proc, falling back to ps.
// Names are cached briefly since window probes ask for the same PID repeatedly.
type Resolver struct {
	procRoot string
	ttl      time.Duration

	mu    sync.Mutex
	cache map[int]cachedName
}

type cachedName struct {
	name     string
	lastSeen time.Time
}

func NewResolver() *Resolver {
	return &Resolver{
		procRoot: "/proc",
		ttl:      5 * time.Second,
		cache:    make(map[int]cachedName),
	}
}

// Name returns the short process name (comm) for pid.
func (r *Resolver) Name(pid int) (string, error) {
	if pid <= 0 {
		return "", fmt.Errorf("invalid pid %d", pid)
	}

	now := time.Now()
	r.mu.Lock()
	if c, ok := r.cache[pid]; ok && now.Sub(c.lastSeen) < r.ttl {
		r.mu.Unlock()
		return c.name, nil
	}
	r.mu.Unlock()

	name, err := r.readStatName(pid)
	if err != nil || name == "" {
		name, err = psName(pid)
		if err != nil {
			return "", err
		}
	}

	r.mu.Lock()
	r.cache[pid] = cachedName{name: name, lastSeen: now}
	for p, c := range r.cache {
		if now.Sub(c.lastSeen) > r.ttl {
			delete(r.cache, p)
		}
	}
	r.mu.Unlock()

	return name, nil
}

// readStatName extracts the name between the parentheses of /proc/<pid>/stat.
func (r *Resolver) readStatName(pid int) (string, error) {
	statData, err := os.ReadFile(filepath.Join(r.procRoot, strconv.Itoa(pid), "stat"))
	if err != nil {
		return "", err
	}
	return parseStatName(string(statData)), nil
}

func parseStatName(stat string) string {
	startIdx := strings.Index(stat, "(")
	endIdx := strings.LastIndex(stat, ")")
	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}
	return stat[startIdx+1 : endIdx]
}

func psName(pid int) (string, error) {
	output, err := exec.Command("ps", "-p", strconv.Itoa(pid), "-o", "comm=").Output()
	if err != nil {
		return "", fmt.Errorf("failed to resolve process %d: %w", pid, err)
	}
	return strings.TrimSpace(string(output)), nil
}
