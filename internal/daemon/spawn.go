package daemon

import (
	"os"

	"github.com/pkg/errors"
)

// ChildEnv marks the re-executed background process.
const ChildEnv = "ADSPOT_DAEMON_CHILD"

// IsChild reports whether this process is the detached daemon.
func IsChild() bool {
	return os.Getenv(ChildEnv) == "1"
}

// Spawn re-executes the current binary with args, detached from the terminal,
// with stdout and stderr appended to logFile.
func Spawn(args []string, logFile string) (*os.Process, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, errors.Wrap(err, "failed to locate executable")
	}

	out, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open daemon log")
	}
	defer out.Close()

	procAttr := &os.ProcAttr{
		Env:   append(os.Environ(), ChildEnv+"=1"),
		Files: []*os.File{nil, out, out},
		Sys:   detachAttr(),
	}

	process, err := os.StartProcess(exe, append([]string{exe}, args...), procAttr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start daemon process")
	}
	return process, nil
}
