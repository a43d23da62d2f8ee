// Package daemon manages the background adspot process: its PID file, its
// single-instance lock and detaching it from the terminal.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// ErrAlreadyRunning is returned by Acquire when another instance holds the lock.
var ErrAlreadyRunning = errors.New("adspot is already running")

// ErrNotRunning is returned by Stop when no live daemon is recorded.
var ErrNotRunning = errors.New("daemon is not running or PID file is stale")

type Daemon struct {
	pidFile string
	lock    *flock.Flock
}

func New(pidFile, lockFile string) *Daemon {
	return &Daemon{
		pidFile: pidFile,
		lock:    flock.New(lockFile),
	}
}

// Acquire takes the single-instance lock and records the current PID.
func (d *Daemon) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(d.pidFile), 0o755); err != nil {
		return errors.Wrap(err, "failed to create PID directory")
	}

	locked, err := d.lock.TryLock()
	if err != nil {
		return errors.Wrap(err, "failed to lock instance file")
	}
	if !locked {
		return ErrAlreadyRunning
	}

	if err := d.WritePID(); err != nil {
		d.lock.Unlock()
		return err
	}
	return nil
}

// Release removes the PID file and drops the lock.
func (d *Daemon) Release() error {
	err := d.RemovePID()
	if uerr := d.lock.Unlock(); uerr != nil && err == nil {
		err = errors.Wrap(uerr, "failed to unlock instance file")
	}
	return err
}

func (d *Daemon) WritePID() error {
	pid := os.Getpid()
	if err := os.WriteFile(d.pidFile, fmt.Appendf([]byte{}, "%d", pid), 0o644); err != nil {
		return errors.Wrap(err, "failed to write PID file")
	}
	return nil
}

// ReadPID returns 0 when no PID file exists.
func (d *Daemon) ReadPID() (int, error) {
	data, err := os.ReadFile(d.pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to read PID file")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.Wrap(err, "invalid PID in file")
	}

	return pid, nil
}

func (d *Daemon) RemovePID() error {
	if err := os.Remove(d.pidFile); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove PID file")
	}
	return nil
}

// IsRunning reports whether the recorded process is alive. A stale PID file
// is removed.
func (d *Daemon) IsRunning() (bool, int, error) {
	pid, err := d.ReadPID()
	if err != nil {
		return false, 0, err
	}

	if pid == 0 {
		return false, 0, nil
	}

	if !processAlive(pid) {
		d.RemovePID()
		return false, 0, nil
	}

	return true, pid, nil
}

// Stop asks the daemon to exit and waits up to timeout for it to go away.
func (d *Daemon) Stop(timeout time.Duration) error {
	running, pid, err := d.IsRunning()
	if err != nil {
		return errors.Wrap(err, "error checking daemon status")
	}

	if !running {
		return ErrNotRunning
	}

	if err := terminate(pid); err != nil {
		return errors.Wrapf(err, "failed to stop process %d", pid)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			return d.RemovePID()
		}
		time.Sleep(100 * time.Millisecond)
	}
	return errors.Errorf("process %d did not exit within %v", pid, timeout)
}
