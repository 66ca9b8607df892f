// Package lockfile guards a MindVibe state directory against concurrent use.
//
// The lock is an flock on a file inside the directory, so the kernel drops
// it when the holding process exits, even after a crash.
package lockfile

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// LockFileName is the file locked inside the state directory.
const LockFileName = "mindvibe.lock"

// Holder describes the process recorded in a lock file.
type Holder struct {
	PID     int
	Started string
}

// Lock is a held state-directory lock.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes the exclusive lock for dir, creating dir if needed. When
// another process holds the lock it returns a *LockError.
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, LockFileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		holder, _ := readHolder(f)
		f.Close()
		slog.Error("lockfile.Acquire: state directory in use", "path", path, "holderPID", holder.PID)
		return nil, &LockError{Path: path, Holder: holder, Cause: err}
	}

	if err := writeHolder(f); err != nil {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
		return nil, fmt.Errorf("record lock holder in %s: %w", path, err)
	}
	slog.Info("lockfile.Acquire: state directory locked", "path", path, "pid", os.Getpid())
	return &Lock{file: f, path: path}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release drops the lock and removes the lock file. Calling it again is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	// Remove before unlocking so a waiting process never locks a file that is about to vanish.
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		slog.Warn("Lock.Release: failed to remove lock file", "error", err, "path", l.path)
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		slog.Warn("Lock.Release: failed to unlock", "error", err, "path", l.path)
	}
	err := l.file.Close()
	l.file = nil
	slog.Info("Lock.Release: state directory unlocked", "path", l.path)
	return err
}

// LockError reports a state directory that is locked by another process.
type LockError struct {
	Path   string
	Holder Holder
	Cause  error
}

func (e *LockError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "state directory is locked by another MindVibe process (lock file %s)", e.Path)
	switch {
	case e.Holder.PID == 0:
	case processAlive(e.Holder.PID):
		fmt.Fprintf(&sb, "; held by PID %d", e.Holder.PID)
	default:
		fmt.Fprintf(&sb, "; recorded PID %d is not running, remove %s if no other instance uses this directory", e.Holder.PID, e.Path)
	}
	if e.Holder.Started != "" {
		fmt.Fprintf(&sb, " (started %s)", e.Holder.Started)
	}
	return sb.String()
}

func (e *LockError) Unwrap() error { return e.Cause }

func writeHolder(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f, "pid=%d\nstarted=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return f.Sync()
}

func readHolder(f *os.File) (Holder, error) {
	if _, err := f.Seek(0, 0); err != nil {
		return Holder{}, err
	}
	return parseHolder(bufio.NewScanner(f)), nil
}

// parseHolder reads key=value lines; unknown keys and malformed lines are ignored.
func parseHolder(sc *bufio.Scanner) Holder {
	var h Holder
	for sc.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			if pid, err := strconv.Atoi(value); err == nil && pid > 0 {
				h.PID = pid
			}
		case "started":
			h.Started = value
		}
	}
	return h
}

// processAlive sends signal 0, which only checks that pid exists.
func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}
