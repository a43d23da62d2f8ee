package process

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ProcRoot is the procfs mount point. Tests point it at a fake tree.
var ProcRoot = "/proc"

// ExecutableName returns the base name of the executable running as pid.
// It prefers the exe link and falls back to the command name in stat, which
// the kernel truncates to 15 bytes.
func ExecutableName(pid int) (string, error) {
	if pid <= 0 {
		return "", errors.Errorf("invalid pid %d", pid)
	}

	if target, err := os.Readlink(filepath.Join(ProcRoot, strconv.Itoa(pid), "exe")); err == nil {
		target = strings.TrimSuffix(target, " (deleted)")
		if name := filepath.Base(target); name != "." && name != "/" {
			return name, nil
		}
	}

	name, err := statName(pid)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve executable for pid %d", pid)
	}
	return name, nil
}

// statName reads the command name between the parentheses of /proc/<pid>/stat.
func statName(pid int) (string, error) {
	data, err := os.ReadFile(filepath.Join(ProcRoot, strconv.Itoa(pid), "stat"))
	if err != nil {
		return "", err
	}
	return parseStatName(string(data))
}

func parseStatName(stat string) (string, error) {
	startIdx := strings.Index(stat, "(")
	endIdx := strings.LastIndex(stat, ")")
	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx+1 {
		return "", errors.New("malformed stat line")
	}
	return stat[startIdx+1 : endIdx], nil
}

// Resolver caches pid lookups for the duration of one scan.
type Resolver struct {
	names map[int]string
}

// NewResolver returns an empty per-scan cache.
func NewResolver() *Resolver {
	return &Resolver{names: make(map[int]string)}
}

// Name returns the executable base name for pid, or "" if it cannot be
// resolved. Failures are cached too so a vanished process is looked up once.
func (r *Resolver) Name(pid int) string {
	if name, ok := r.names[pid]; ok {
		return name
	}
	name, err := ExecutableName(pid)
	if err != nil {
		name = ""
	}
	r.names[pid] = name
	return name
}
